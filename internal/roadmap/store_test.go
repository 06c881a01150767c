package roadmap

import (
	"errors"
	"reflect"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/persist"
	"github.com/starford/roadmap/internal/storage"
	"github.com/starford/roadmap/internal/testutil"
)

var start = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func baselineNodes(n int) []models.Node {
	out := make([]models.Node, n)
	for i := range out {
		out[i] = models.Node{
			ID:             "b" + strconv.Itoa(i),
			Title:          "Topic " + strconv.Itoa(i),
			Category:       "CSS",
			Status:         models.StatusPending,
			EstimatedHours: 2,
			Order:          i,
		}
	}
	return out
}

func newStore(t *testing.T, baseline []models.Node, opts ...Option) (*Store, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(start)
	opts = append([]Option{
		WithClock(clock.Now),
		WithIDGenerator(testutil.SequentialIDs("n")),
		WithLogger(testutil.Logger()),
	}, opts...)
	return New(baseline, opts...), clock
}

func displayIDs(nodes []models.Node) []string {
	sorted := models.SortByOrder(nodes)
	out := make([]string, len(sorted))
	for i, n := range sorted {
		out[i] = n.ID
	}
	return out
}

func TestNew_SeedsBaseline(t *testing.T) {
	s, _ := newStore(t, baselineNodes(3))
	if got := displayIDs(s.Nodes()); !slices.Equal(got, []string{"b0", "b1", "b2"}) {
		t.Errorf("nodes = %v", got)
	}
	if s.Preferences() != models.DefaultPreferences() {
		t.Errorf("preferences = %+v", s.Preferences())
	}
	if s.SelectedNodeID() != "" || s.SearchQuery() != "" {
		t.Error("fresh store should have no selection and no query")
	}
}

func TestAddNode_OnEmptyStore(t *testing.T) {
	s, _ := newStore(t, nil)
	n, ok := s.AddNode(models.NewNode{Title: "Signals", Category: "JS", EstimatedHours: 3})
	if !ok {
		t.Fatal("AddNode reported no-op")
	}
	nodes := s.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("len = %d, want 1", len(nodes))
	}
	got := nodes[0]
	if got.ID == "" || got.ID != n.ID {
		t.Errorf("id = %q, returned %q", got.ID, n.ID)
	}
	if got.Status != models.StatusPending {
		t.Errorf("status = %q", got.Status)
	}
	if got.Order != 1 {
		t.Errorf("order = %d, want 1", got.Order)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("createdAt %v, updatedAt %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestAddNode_OrderAfterMax(t *testing.T) {
	s, _ := newStore(t, baselineNodes(4))
	n, _ := s.AddNode(models.NewNode{Title: "Extra", Status: models.StatusCompleted})
	if n.Order != 4 {
		t.Errorf("order = %d, want 4", n.Order)
	}
	if n.Status != models.StatusCompleted {
		t.Errorf("explicit status lost: %q", n.Status)
	}
}

func TestAddNode_RejectsBlankTitleAndBadStatus(t *testing.T) {
	s, _ := newStore(t, baselineNodes(2))
	for _, nn := range []models.NewNode{
		{Title: ""},
		{Title: "   \t"},
		{Title: "Ok", Status: "done"},
	} {
		if _, ok := s.AddNode(nn); ok {
			t.Errorf("AddNode(%+v) applied", nn)
		}
	}
	if len(s.Nodes()) != 2 {
		t.Errorf("len = %d, want 2", len(s.Nodes()))
	}
}

func TestUpdateNode_MergesAndStamps(t *testing.T) {
	s, clock := newStore(t, baselineNodes(2))
	clock.Advance(time.Hour)
	title := "Renamed"
	tags := []string{"x"}
	if !s.UpdateNode("b1", models.NodePatch{Title: &title, Tags: &tags}) {
		t.Fatal("UpdateNode reported no-op")
	}
	n, _ := s.Node("b1")
	if n.Title != "Renamed" || !slices.Equal(n.Tags, tags) || n.Category != "CSS" {
		t.Errorf("node = %+v", n)
	}
	if !n.UpdatedAt.Equal(start.Add(time.Hour)) {
		t.Errorf("updatedAt = %v", n.UpdatedAt)
	}
}

func TestUnknownIDsAreNoops(t *testing.T) {
	s, _ := newStore(t, baselineNodes(3))
	before := s.Snapshot()
	title := "x"

	ops := map[string]bool{
		"update":   s.UpdateNode("missing", models.NodePatch{Title: &title}),
		"delete":   s.DeleteNode("missing"),
		"reorder":  s.ReorderNode("missing", models.DirectionUp),
		"status":   s.SetStatus("missing", models.StatusCompleted),
		"notes":    s.SetNotes("missing", "n"),
		"favorite": s.ToggleFavorite("missing"),
	}
	for name, applied := range ops {
		if applied {
			t.Errorf("%s on missing id applied", name)
		}
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("state changed by no-op operations")
	}
}

func TestSelectNode(t *testing.T) {
	s, clock := newStore(t, baselineNodes(2))
	clock.Advance(time.Minute)

	s.SelectNode("b1")
	if s.SelectedNodeID() != "b1" {
		t.Errorf("selected = %q", s.SelectedNodeID())
	}
	n, _ := s.Node("b1")
	if !n.LastVisitedAt.Equal(start.Add(time.Minute)) {
		t.Errorf("lastVisitedAt = %v", n.LastVisitedAt)
	}

	s.SelectNode("ghost")
	if s.SelectedNodeID() != "ghost" {
		t.Errorf("unknown id should still be selected, got %q", s.SelectedNodeID())
	}

	s.SelectNode("")
	if s.SelectedNodeID() != "" {
		t.Error("empty id should clear selection")
	}
}

func TestDeleteNode_ClearsSelection(t *testing.T) {
	s, _ := newStore(t, baselineNodes(3))
	s.SelectNode("b1")
	if !s.DeleteNode("b1") {
		t.Fatal("DeleteNode reported no-op")
	}
	if _, ok := s.Node("b1"); ok {
		t.Error("node still present")
	}
	if s.SelectedNodeID() != "" {
		t.Errorf("selection = %q, want cleared", s.SelectedNodeID())
	}

	s.SelectNode("b0")
	s.DeleteNode("b2")
	if s.SelectedNodeID() != "b0" {
		t.Error("deleting another node cleared the selection")
	}
}

func TestReorderNode_SwapsNeighbours(t *testing.T) {
	s, _ := newStore(t, baselineNodes(4))

	if !s.ReorderNode("b2", models.DirectionUp) {
		t.Fatal("reorder up reported no-op")
	}
	if got := displayIDs(s.Nodes()); !slices.Equal(got, []string{"b0", "b2", "b1", "b3"}) {
		t.Errorf("after up = %v", got)
	}
	b2, _ := s.Node("b2")
	b1, _ := s.Node("b1")
	if b2.Order != 1 || b1.Order != 2 {
		t.Errorf("orders b2=%d b1=%d, want 1 and 2", b2.Order, b1.Order)
	}

	s.ReorderNode("b0", models.DirectionDown)
	if got := displayIDs(s.Nodes()); !slices.Equal(got, []string{"b2", "b0", "b1", "b3"}) {
		t.Errorf("after down = %v", got)
	}
}

func TestReorderNode_BoundariesAreNoops(t *testing.T) {
	s, _ := newStore(t, baselineNodes(3))
	before := s.Snapshot()
	if s.ReorderNode("b0", models.DirectionUp) {
		t.Error("first node moved up")
	}
	if s.ReorderNode("b2", models.DirectionDown) {
		t.Error("last node moved down")
	}
	if s.ReorderNode("b1", "sideways") {
		t.Error("invalid direction applied")
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("collection changed")
	}
}

func TestReorderNode_TiedOrdersStillMove(t *testing.T) {
	base := []models.Node{
		{ID: "a", Title: "A", Status: models.StatusPending, Order: 1},
		{ID: "b", Title: "B", Status: models.StatusPending, Order: 1},
	}
	s, _ := newStore(t, base)
	s.ReorderNode("b", models.DirectionUp)
	if got := displayIDs(s.Nodes()); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("after reorder = %v", got)
	}
}

func TestReorderNode_PreservesIdentity(t *testing.T) {
	s, _ := newStore(t, baselineNodes(6))
	moves := []struct {
		id  string
		dir models.Direction
	}{
		{"b3", models.DirectionUp}, {"b0", models.DirectionDown}, {"b5", models.DirectionUp},
		{"b3", models.DirectionUp}, {"b1", models.DirectionDown}, {"b4", models.DirectionDown},
	}
	for _, m := range moves {
		s.ReorderNode(m.id, m.dir)
	}
	got := displayIDs(s.Nodes())
	slices.Sort(got)
	if !slices.Equal(got, []string{"b0", "b1", "b2", "b3", "b4", "b5"}) {
		t.Errorf("identity lost: %v", got)
	}
	orders := map[int]bool{}
	for _, n := range s.Nodes() {
		if orders[n.Order] {
			t.Errorf("duplicate order %d", n.Order)
		}
		orders[n.Order] = true
	}
}

func TestSetStatusNotesFavorite(t *testing.T) {
	s, clock := newStore(t, baselineNodes(2))
	clock.Advance(time.Second)

	s.SetStatus("b0", models.StatusCompleted)
	s.SetNotes("b0", "flexbox froggy")
	n, _ := s.Node("b0")
	if n.Status != models.StatusCompleted || n.Notes != "flexbox froggy" {
		t.Errorf("node = %+v", n)
	}
	if !n.UpdatedAt.Equal(start.Add(time.Second)) {
		t.Errorf("updatedAt = %v", n.UpdatedAt)
	}
	if s.SetStatus("b0", "done") {
		t.Error("invalid status applied")
	}
}

func TestToggleFavorite_TwiceRestores(t *testing.T) {
	s, _ := newStore(t, baselineNodes(1))
	s.ToggleFavorite("b0")
	n, _ := s.Node("b0")
	if !n.Favorite {
		t.Fatal("first toggle did not set favorite")
	}
	s.ToggleFavorite("b0")
	n, _ = s.Node("b0")
	if n.Favorite {
		t.Error("second toggle did not restore")
	}
}

func TestResetProgress(t *testing.T) {
	s, _ := newStore(t, baselineNodes(10))
	for _, id := range []string{"b1", "b4", "b7"} {
		s.SetStatus(id, models.StatusCompleted)
		s.SetNotes(id, "notes")
	}
	s.ToggleFavorite("b2")
	s.ReorderNode("b9", models.DirectionUp)
	s.AddNode(models.NewNode{Title: "Mine"})
	s.SelectNode("b4")
	theme := models.ThemeLight
	s.UpdatePreferences(models.PreferencesPatch{Theme: &theme})
	s.SetSearchQuery("is:completed")

	s.ResetProgress()

	nodes := s.Nodes()
	if len(nodes) != 10 {
		t.Fatalf("len = %d, want 10", len(nodes))
	}
	for i, n := range models.SortByOrder(nodes) {
		if n.ID != "b"+strconv.Itoa(i) || n.Order != i {
			t.Errorf("node %d = %s order %d", i, n.ID, n.Order)
		}
		if n.Status != models.StatusPending || n.Notes != "" || n.Favorite {
			t.Errorf("%s not reset: %+v", n.ID, n)
		}
	}
	if s.SelectedNodeID() != "" {
		t.Error("selection not cleared")
	}
	if s.Preferences().Theme != models.ThemeLight {
		t.Error("reset touched preferences")
	}
	if s.SearchQuery() != "is:completed" {
		t.Error("reset touched search query")
	}
}

func TestUpdatePreferences(t *testing.T) {
	s, _ := newStore(t, nil)
	mode := models.ViewModeTimeline
	compact := true
	if !s.UpdatePreferences(models.PreferencesPatch{ViewMode: &mode, CompactMode: &compact}) {
		t.Fatal("valid update reported no-op")
	}
	p := s.Preferences()
	if p.ViewMode != models.ViewModeTimeline || !p.CompactMode || p.Theme != models.ThemeDark {
		t.Errorf("preferences = %+v", p)
	}

	bad := "neon"
	if s.UpdatePreferences(models.PreferencesPatch{Theme: &bad}) {
		t.Error("invalid theme applied")
	}
	if s.Preferences() != p {
		t.Error("invalid update changed preferences")
	}
}

func TestSetSearchQuery_Verbatim(t *testing.T) {
	s, _ := newStore(t, nil)
	s.SetSearchQuery("  IS:fav  css ")
	if s.SearchQuery() != "  IS:fav  css " {
		t.Errorf("query = %q", s.SearchQuery())
	}
	if s.SetSearchQuery("  IS:fav  css ") {
		t.Error("same query reported as a change")
	}
}

func TestNextRecommended(t *testing.T) {
	s, _ := newStore(t, baselineNodes(3))
	s.SetStatus("b0", models.StatusCompleted)

	n, ok := s.NextRecommended()
	if !ok || n.ID != "b1" {
		t.Fatalf("picked %q, %v", n.ID, ok)
	}
	if n.Status != models.StatusInProgress {
		t.Errorf("status = %q, want in-progress", n.Status)
	}
	if s.SelectedNodeID() != "b1" || n.LastVisitedAt.IsZero() {
		t.Error("picked node not selected")
	}

	again, _ := s.NextRecommended()
	if again.ID != "b1" {
		t.Errorf("in-progress node should stay recommended, got %q", again.ID)
	}

	s.SetStatus("b1", models.StatusCompleted)
	s.SetStatus("b2", models.StatusCompleted)
	if _, ok := s.NextRecommended(); ok {
		t.Error("recommendation when everything is completed")
	}
}

func TestSetBaseline_UsedByNextReset(t *testing.T) {
	s, _ := newStore(t, baselineNodes(2))
	s.SetBaseline(baselineNodes(5))
	if len(s.Nodes()) != 2 {
		t.Error("SetBaseline touched current nodes")
	}
	s.ResetProgress()
	if len(s.Nodes()) != 5 {
		t.Errorf("len after reset = %d, want 5", len(s.Nodes()))
	}
}

func TestStats_CountsAndCompletedToday(t *testing.T) {
	s, clock := newStore(t, baselineNodes(4))
	s.SetStatus("b0", models.StatusCompleted)
	clock.Advance(24 * time.Hour)
	s.SetStatus("b1", models.StatusCompleted)
	s.SetStatus("b2", models.StatusInProgress)

	st := s.Stats()
	if st.TotalNodes != 4 || st.CompletedCount != 2 || st.InProgressCount != 1 || st.PendingCount != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.CompletedCount+st.InProgressCount+st.PendingCount != st.TotalNodes {
		t.Error("counts do not sum to total")
	}
	if st.CompletedToday != 1 {
		t.Errorf("completed today = %d, want 1", st.CompletedToday)
	}
	if st.CompletionPercentage != 50 {
		t.Errorf("percentage = %d", st.CompletionPercentage)
	}
}

func TestSubscribe(t *testing.T) {
	s, _ := newStore(t, baselineNodes(2))
	var got []Change
	unsubscribe := s.Subscribe(func(c Change) { got = append(got, c) })

	s.SetStatus("b0", models.StatusCompleted)
	s.SetStatus("missing", models.StatusCompleted)
	s.SelectNode("b1")
	s.DeleteNode("b1")

	want := []Change{
		{Kind: NodeUpdated, NodeID: "b0"},
		{Kind: SelectionChanged, NodeID: "b1"},
		{Kind: NodeDeleted, NodeID: "b1"},
		{Kind: SelectionChanged},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changes = %+v, want %+v", got, want)
	}

	unsubscribe()
	s.ToggleFavorite("b0")
	if len(got) != len(want) {
		t.Error("listener called after unsubscribe")
	}
}

func TestPersistence_RoundTrip(t *testing.T) {
	slot := persist.NewSlot(storage.NewMemory(), "")
	s, _ := newStore(t, baselineNodes(3), WithPersister(slot))
	s.SetStatus("b1", models.StatusCompleted)
	s.SetNotes("b1", "done")
	s.ToggleFavorite("b2")
	s.AddNode(models.NewNode{Title: "Signals", Category: "JS", Tags: []string{"reactivity"}})
	s.SelectNode("b2")
	s.SetSearchQuery("is:fav")
	accent := models.AccentRose
	s.UpdatePreferences(models.PreferencesPatch{AccentColor: &accent})

	restored, _ := newStore(t, baselineNodes(3), WithPersister(slot))
	if !reflect.DeepEqual(restored.Snapshot(), s.Snapshot()) {
		t.Errorf("restored state differs:\n got  %+v\n want %+v", restored.Snapshot(), s.Snapshot())
	}
}

func TestPersistence_DurableBackends(t *testing.T) {
	_, fs := testutil.TestFS(t)
	backends := map[string]storage.Provider{
		"fs":     fs,
		"sqlite": testutil.TestSQLite(t),
	}
	for name, p := range backends {
		t.Run(name, func(t *testing.T) {
			slot := persist.NewSlot(p, "")
			s, _ := newStore(t, baselineNodes(3), WithPersister(slot))
			s.SetStatus("b0", models.StatusInProgress)
			s.ReorderNode("b2", models.DirectionUp)

			restored, _ := newStore(t, baselineNodes(3), WithPersister(slot))
			if !reflect.DeepEqual(restored.Snapshot(), s.Snapshot()) {
				t.Errorf("restored state differs:\n got  %+v\n want %+v", restored.Snapshot(), s.Snapshot())
			}
		})
	}
}

func TestPersistence_CorruptFallsBackToBaseline(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Put(persist.DefaultKey, []byte(`{"version":1,"state":{"nodes":[{"id":`))
	s, _ := newStore(t, baselineNodes(3), WithPersister(persist.NewSlot(mem, "")))
	if got := displayIDs(s.Nodes()); !slices.Equal(got, []string{"b0", "b1", "b2"}) {
		t.Errorf("nodes = %v, want baseline", got)
	}
}

func TestPersistence_SaveFailureIsNonFatal(t *testing.T) {
	mem := storage.NewMemory()
	mem.FailPuts(errors.New("quota exceeded"))
	s, _ := newStore(t, baselineNodes(2), WithPersister(persist.NewSlot(mem, "")))

	if !s.SetStatus("b0", models.StatusCompleted) {
		t.Fatal("mutation reported no-op")
	}
	n, _ := s.Node("b0")
	if n.Status != models.StatusCompleted {
		t.Error("in-memory mutation rolled back")
	}

	mem.FailPuts(nil)
	s.SetNotes("b0", "saved now")
	restored, _ := newStore(t, baselineNodes(2), WithPersister(persist.NewSlot(mem, "")))
	if n, _ := restored.Node("b0"); n.Notes != "saved now" || n.Status != models.StatusCompleted {
		t.Errorf("restored node = %+v", n)
	}
}

func TestPersistence_NoopsDoNotWrite(t *testing.T) {
	mem := storage.NewMemory()
	s, _ := newStore(t, baselineNodes(2), WithPersister(persist.NewSlot(mem, "")))
	s.SetStatus("missing", models.StatusCompleted)
	s.ReorderNode("b0", models.DirectionUp)
	if _, err := mem.Get(persist.DefaultKey); err == nil {
		t.Error("no-op operations wrote a snapshot")
	}
}

func TestClearAll(t *testing.T) {
	mem := storage.NewMemory()
	s, _ := newStore(t, baselineNodes(2), WithPersister(persist.NewSlot(mem, "")))
	s.SetStatus("b0", models.StatusCompleted)
	theme := models.ThemeSystem
	s.UpdatePreferences(models.PreferencesPatch{Theme: &theme})
	s.SetSearchQuery("css")

	s.ClearAll()

	if _, err := mem.Get(persist.DefaultKey); err == nil {
		t.Error("slot still present after ClearAll")
	}
	if n, _ := s.Node("b0"); n.Status != models.StatusPending {
		t.Errorf("status = %q after ClearAll", n.Status)
	}
	if s.Preferences() != models.DefaultPreferences() || s.SearchQuery() != "" {
		t.Error("preferences or query survived ClearAll")
	}
}

func TestReaders_ReturnCopies(t *testing.T) {
	base := baselineNodes(1)
	base[0].Tags = []string{"orig"}
	s, _ := newStore(t, base)

	nodes := s.Nodes()
	nodes[0].Tags[0] = "mutated"
	nodes[0].Title = "mutated"
	n, _ := s.Node("b0")
	if n.Tags[0] != "orig" || n.Title == "mutated" {
		t.Error("caller mutation leaked into store")
	}
}
