package models

import "testing"

func TestSortByOrder_StableOnTies(t *testing.T) {
	nodes := []Node{
		{ID: "c", Order: 2},
		{ID: "a", Order: 1},
		{ID: "b", Order: 1},
	}
	got := SortByOrder(nodes)
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if nodes[0].ID != "c" {
		t.Error("input slice was reordered")
	}
}

func TestNodePatch_ApplyOnlySetFields(t *testing.T) {
	n := Node{ID: "x", Title: "Old", Category: "CSS", Notes: "keep"}
	title := "New"
	fav := true
	NodePatch{Title: &title, Favorite: &fav}.Apply(&n)

	if n.Title != "New" || !n.Favorite {
		t.Errorf("patched node = %+v", n)
	}
	if n.Category != "CSS" || n.Notes != "keep" {
		t.Errorf("untouched fields changed: %+v", n)
	}
}

func TestClone_DoesNotShareSlices(t *testing.T) {
	n := Node{Tags: []string{"a"}}
	c := n.Clone()
	c.Tags[0] = "b"
	if n.Tags[0] != "a" {
		t.Error("clone shares tags with original")
	}
}

func TestStatusNext_Cycles(t *testing.T) {
	s := StatusPending
	for range 3 {
		s = s.Next()
	}
	if s != StatusPending {
		t.Errorf("status after full cycle = %q", s)
	}
	if Status("done").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestPreferences_DefaultsValid(t *testing.T) {
	if err := DefaultPreferences().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestPreferences_InvalidEnum(t *testing.T) {
	p := DefaultPreferences()
	p.AccentColor = "teal"
	if err := p.Validate(); err == nil {
		t.Fatal("unknown accent color should fail")
	}
}

func TestPreferencesPatch_ValidateAndApply(t *testing.T) {
	theme := ThemeLight
	compact := true
	patch := PreferencesPatch{Theme: &theme, CompactMode: &compact}
	if err := patch.Validate(); err != nil {
		t.Fatalf("valid patch rejected: %v", err)
	}
	got := patch.Apply(DefaultPreferences())
	if got.Theme != ThemeLight || !got.CompactMode || got.ViewMode != ViewModeGrid {
		t.Errorf("merged = %+v", got)
	}

	bad := "huge"
	if err := (PreferencesPatch{FontScale: &bad}).Validate(); err == nil {
		t.Error("invalid font scale accepted")
	}
}

func TestEffectiveTheme(t *testing.T) {
	p := Preferences{Theme: ThemeSystem}
	if got := p.EffectiveTheme(true); got != ThemeDark {
		t.Errorf("system+dark = %q", got)
	}
	if got := p.EffectiveTheme(false); got != ThemeLight {
		t.Errorf("system+light = %q", got)
	}
	p.Theme = ThemeLight
	if got := p.EffectiveTheme(true); got != ThemeLight {
		t.Errorf("explicit light = %q", got)
	}
}

func TestCycle(t *testing.T) {
	if got := Cycle(AccentColors, AccentRose); got != AccentIndigo {
		t.Errorf("cycle wraps to %q", got)
	}
	if got := Cycle(Themes, "unknown"); got != ThemeLight {
		t.Errorf("unknown value cycles to %q", got)
	}
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
