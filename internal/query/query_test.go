package query

import (
	"slices"
	"testing"

	"github.com/starford/roadmap/internal/models"
)

func sampleNodes() []models.Node {
	return []models.Node{
		{ID: "html", Title: "Semantic HTML", Category: "HTML", Status: models.StatusCompleted, Order: 0, Tags: []string{"a11y"}},
		{ID: "flex", Title: "Flexbox", Category: "CSS", Status: models.StatusCompleted, Order: 1, Favorite: true},
		{ID: "grid", Title: "CSS Grid", Category: "CSS", Status: models.StatusInProgress, Order: 2},
		{ID: "dom", Title: "DOM API", Category: "JavaScript", Status: models.StatusPending, Order: 3, Tags: []string{"browser", "events"}},
		{ID: "hooks", Title: "Hooks", Category: "React", Status: models.StatusPending, Order: 4, Favorite: true},
	}
}

func nodeIDs(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestParse_ReservedTokens(t *testing.T) {
	f := Parse("IS:Completed is:FAV cat:CSS flex Box")
	if f.Status != StatusFilter(models.StatusCompleted) {
		t.Errorf("status = %q", f.Status)
	}
	if !f.FavoritesOnly {
		t.Error("favorites flag not set")
	}
	if f.Category != "css" {
		t.Errorf("category = %q, want css", f.Category)
	}
	if !slices.Equal(f.Text, []string{"flex", "box"}) {
		t.Errorf("text = %v", f.Text)
	}
}

func TestParse_ProgressAndFavoriteAliases(t *testing.T) {
	f := Parse("is:progress is:favorite")
	if f.Status != StatusFilter(models.StatusInProgress) {
		t.Errorf("status = %q, want in-progress", f.Status)
	}
	if !f.FavoritesOnly {
		t.Error("is:favorite should set favorites flag")
	}
}

func TestParse_LastTokenWins(t *testing.T) {
	f := Parse("is:pending cat:html is:completed cat:css")
	if f.Status != StatusFilter(models.StatusCompleted) {
		t.Errorf("status = %q, want completed", f.Status)
	}
	if f.Category != "css" {
		t.Errorf("category = %q, want css", f.Category)
	}
}

func TestParse_CategoryTakenLiterally(t *testing.T) {
	f := Parse("cat:web:apis")
	if f.Category != "web:apis" {
		t.Errorf("category = %q", f.Category)
	}
}

func TestParse_EmptyAndWhitespace(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		f := Parse(q)
		if !f.Empty() {
			t.Errorf("Parse(%q) should be empty", q)
		}
		if f.Status != StatusAll || f.FavoritesOnly || f.Category != "" || len(f.Text) != 0 {
			t.Errorf("Parse(%q) = %+v", q, f)
		}
	}
	if Parse("is:pending").Empty() {
		t.Error("query with a reserved token is not empty")
	}
}

func TestApply_EmptyQueryReturnsAllInOrder(t *testing.T) {
	nodes := sampleNodes()
	got := Search(nodes, "")
	if !slices.Equal(nodeIDs(got), nodeIDs(nodes)) {
		t.Errorf("got %v", nodeIDs(got))
	}
}

func TestApply_StatusAndCategory(t *testing.T) {
	got := Search(sampleNodes(), "is:completed cat:css")
	if !slices.Equal(nodeIDs(got), []string{"flex"}) {
		t.Errorf("got %v, want [flex]", nodeIDs(got))
	}
}

func TestApply_TextMatchesTitleCategoryAndTags(t *testing.T) {
	nodes := sampleNodes()
	cases := map[string][]string{
		"grid":         {"grid"},
		"css":          {"flex", "grid"},
		"events":       {"dom"},
		"BROWSER dom":  {"dom"},
		"dom hooks":    nil,
		"is:fav":       {"flex", "hooks"},
		"is:fav react": {"hooks"},
		"cat:":         {"html", "flex", "grid", "dom", "hooks"},
	}
	for q, want := range cases {
		got := nodeIDs(Search(nodes, q))
		if len(got) == 0 && len(want) == 0 {
			continue
		}
		if !slices.Equal(got, want) {
			t.Errorf("Search(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestApply_SortsByOrderWithoutMutatingInput(t *testing.T) {
	nodes := []models.Node{
		{ID: "b", Order: 5},
		{ID: "a", Order: 1},
	}
	got := Search(nodes, "")
	if !slices.Equal(nodeIDs(got), []string{"a", "b"}) {
		t.Errorf("got %v", nodeIDs(got))
	}
	if nodes[0].ID != "b" {
		t.Error("input reordered")
	}
}

func TestApply_Deterministic(t *testing.T) {
	nodes := sampleNodes()
	for _, q := range []string{"", "css", "is:pending", "is:fav cat:react hooks"} {
		first := nodeIDs(Search(nodes, q))
		second := nodeIDs(Search(nodes, q))
		if !slices.Equal(first, second) {
			t.Errorf("Search(%q) not deterministic: %v vs %v", q, first, second)
		}
	}
}

func TestCategories_DistinctLowercase(t *testing.T) {
	got := Categories(sampleNodes())
	want := []string{"html", "css", "javascript", "react"}
	if !slices.Equal(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}
}
