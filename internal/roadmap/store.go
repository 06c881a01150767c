// Package roadmap owns the canonical roadmap state: the node collection,
// preferences, the selected node and the raw search query.
//
// Every mutation is atomic with respect to readers, written through to the
// configured Persister and announced to subscribers. Operations on unknown
// ids, blank titles and invalid enum values are silent no-ops; the bool
// results only report whether anything changed.
package roadmap

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/roadmap/internal/apperr"
	"github.com/starford/roadmap/internal/metrics"
	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/stats"
)

// Persister is the durable slot behind a Store.
type Persister interface {
	Load() (models.Snapshot, error)
	Save(models.Snapshot) error
	Clear() error
}

// Store is the roadmap state container. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	nodes    []models.Node
	prefs    models.Preferences
	selected string
	query    string
	baseline []models.Node

	persister Persister
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
	statsLoc  *time.Location

	subMu sync.Mutex
	subs  subscribers
}

// New creates a Store seeded from baseline, or from the persisted snapshot
// when one can be loaded.
func New(baseline []models.Node, opts ...Option) *Store {
	s := &Store{
		baseline: cloneNodes(baseline),
		prefs:    models.DefaultPreferences(),
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		statsLoc: time.UTC,
		subs:     subscribers{funcs: make(map[int]func(Change))},
	}
	for _, o := range opts {
		o(s)
	}
	s.nodes = initial(s.baseline)
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if s.persister == nil {
		return
	}
	snap, err := s.persister.Load()
	switch {
	case err == nil:
		s.nodes = snap.Nodes
		s.prefs = snap.Preferences
		s.selected = snap.SelectedNodeID
		s.query = snap.SearchQuery
		metrics.RecordLoad(metrics.ResultOK)
		s.logger.Info("roadmap: state restored", slog.Int("nodes", len(s.nodes)))
	case errors.Is(err, apperr.ErrNotFound):
		metrics.RecordLoad(metrics.ResultMissing)
		s.logger.Info("roadmap: no saved state, seeding baseline", slog.Int("nodes", len(s.nodes)))
	case errors.Is(err, apperr.ErrStorageCorrupt):
		metrics.RecordLoad(metrics.ResultCorrupt)
		s.logger.Warn("roadmap: saved state is corrupt, seeding baseline", slog.String("error", err.Error()))
	default:
		metrics.RecordLoad(metrics.ResultError)
		s.logger.Warn("roadmap: saved state unavailable, seeding baseline", slog.String("error", err.Error()))
	}
}

// mutate runs fn under the write lock. When fn reports changes the new
// snapshot is persisted before the lock is released, and subscribers are
// notified after.
func (s *Store) mutate(op string, fn func() []Change) bool {
	s.mu.Lock()
	changes := fn()
	if len(changes) > 0 {
		s.persist(s.snapshotLocked())
	}
	s.mu.Unlock()

	metrics.RecordOperation(op, len(changes) > 0)
	if len(changes) > 0 {
		s.notify(changes)
	}
	return len(changes) > 0
}

func (s *Store) persist(snap models.Snapshot) {
	if s.persister == nil {
		return
	}
	err := s.persister.Save(snap)
	metrics.RecordSave(err)
	if err != nil {
		s.logger.Warn("roadmap: persist failed, keeping in-memory state", slog.String("error", err.Error()))
	}
}

// indexLocked returns the collection index of id, or -1.
func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.nodes, func(n models.Node) bool { return n.ID == id })
}

// updateLocked applies fn to node id and stamps UpdatedAt.
func (s *Store) updateLocked(id string, fn func(*models.Node)) []Change {
	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	fn(&s.nodes[i])
	s.nodes[i].UpdatedAt = s.now().UTC()
	return []Change{{Kind: NodeUpdated, NodeID: id}}
}

// SetSearchQuery stores q verbatim.
func (s *Store) SetSearchQuery(q string) bool {
	return s.mutate("set_search_query", func() []Change {
		if s.query == q {
			return nil
		}
		s.query = q
		return []Change{{Kind: QueryChanged}}
	})
}

// SelectNode selects id and stamps its LastVisitedAt. An empty id clears
// the selection. An unknown id is still selected but nothing is stamped.
func (s *Store) SelectNode(id string) bool {
	return s.mutate("select_node", func() []Change {
		return s.selectLocked(id)
	})
}

func (s *Store) selectLocked(id string) []Change {
	if id == "" {
		if s.selected == "" {
			return nil
		}
		s.selected = ""
		return []Change{{Kind: SelectionChanged}}
	}
	changed := s.selected != id
	s.selected = id
	if i := s.indexLocked(id); i >= 0 {
		s.nodes[i].LastVisitedAt = s.now().UTC()
		changed = true
	}
	if !changed {
		return nil
	}
	return []Change{{Kind: SelectionChanged, NodeID: id}}
}

// AddNode appends a node built from nn with a fresh id, order one past the
// current maximum and status pending unless given. A blank title or an
// unknown status adds nothing.
func (s *Store) AddNode(nn models.NewNode) (models.Node, bool) {
	var created models.Node
	ok := s.mutate("add_node", func() []Change {
		if strings.TrimSpace(nn.Title) == "" {
			return nil
		}
		status := nn.Status
		if status == "" {
			status = models.StatusPending
		}
		if !status.Valid() {
			return nil
		}
		maxOrder := 0
		for _, n := range s.nodes {
			maxOrder = max(maxOrder, n.Order)
		}
		now := s.now().UTC()
		created = models.Node{
			ID:             s.newID(),
			Title:          nn.Title,
			Category:       nn.Category,
			Description:    nn.Description,
			Status:         status,
			EstimatedHours: nn.EstimatedHours,
			Tags:           slices.Clone(nn.Tags),
			Resources:      slices.Clone(nn.Resources),
			CreatedAt:      now,
			UpdatedAt:      now,
			Order:          maxOrder + 1,
		}
		s.nodes = append(s.nodes, created)
		return []Change{{Kind: NodeCreated, NodeID: created.ID}}
	})
	return created.Clone(), ok
}

// UpdateNode merges patch into node id and stamps UpdatedAt. Patches that
// blank the title or carry an unknown status are ignored.
func (s *Store) UpdateNode(id string, patch models.NodePatch) bool {
	return s.mutate("update_node", func() []Change {
		if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
			return nil
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return nil
		}
		return s.updateLocked(id, patch.Apply)
	})
}

// DeleteNode removes node id, clearing the selection if it pointed there.
func (s *Store) DeleteNode(id string) bool {
	return s.mutate("delete_node", func() []Change {
		i := s.indexLocked(id)
		if i < 0 {
			return nil
		}
		s.nodes = slices.Delete(s.nodes, i, i+1)
		changes := []Change{{Kind: NodeDeleted, NodeID: id}}
		if s.selected == id {
			s.selected = ""
			changes = append(changes, Change{Kind: SelectionChanged})
		}
		return changes
	})
}

// ReorderNode swaps node id with its neighbour in display order: the
// previous one for up, the next one for down. Only the two order values
// are exchanged. When both share an order value their collection positions
// are exchanged instead, which moves them under the stable sort.
func (s *Store) ReorderNode(id string, dir models.Direction) bool {
	return s.mutate("reorder_node", func() []Change {
		if !dir.Valid() {
			return nil
		}
		sorted := models.SortByOrder(s.nodes)
		i := slices.IndexFunc(sorted, func(n models.Node) bool { return n.ID == id })
		if i < 0 {
			return nil
		}
		j := i + 1
		if dir == models.DirectionUp {
			j = i - 1
		}
		if j < 0 || j >= len(sorted) {
			return nil
		}
		sorted[i].Order, sorted[j].Order = sorted[j].Order, sorted[i].Order
		sorted[i], sorted[j] = sorted[j], sorted[i]
		s.nodes = models.SortByOrder(sorted)
		return []Change{{Kind: NodesReordered, NodeID: id}}
	})
}

// SetStatus sets the status of node id.
func (s *Store) SetStatus(id string, status models.Status) bool {
	return s.mutate("set_status", func() []Change {
		if !status.Valid() {
			return nil
		}
		return s.updateLocked(id, func(n *models.Node) { n.Status = status })
	})
}

// SetNotes replaces the notes of node id.
func (s *Store) SetNotes(id, notes string) bool {
	return s.mutate("set_notes", func() []Change {
		return s.updateLocked(id, func(n *models.Node) { n.Notes = notes })
	})
}

// ToggleFavorite flips the favorite flag of node id.
func (s *Store) ToggleFavorite(id string) bool {
	return s.mutate("toggle_favorite", func() []Change {
		return s.updateLocked(id, func(n *models.Node) { n.Favorite = !n.Favorite })
	})
}

// ResetProgress replaces the collection with a fresh copy of the baseline
// and clears the selection. Preferences and the search query are kept.
func (s *Store) ResetProgress() bool {
	return s.mutate("reset_progress", func() []Change {
		s.nodes = seed(s.baseline)
		s.selected = ""
		return []Change{{Kind: NodesReset}}
	})
}

// UpdatePreferences merges patch into the preferences. A merge that would
// leave an invalid value is discarded.
func (s *Store) UpdatePreferences(patch models.PreferencesPatch) bool {
	return s.mutate("update_preferences", func() []Change {
		merged := patch.Apply(s.prefs)
		if merged == s.prefs || merged.Validate() != nil {
			return nil
		}
		s.prefs = merged
		return []Change{{Kind: PreferencesUpdated}}
	})
}

// NextRecommended picks the first node in display order that is pending or
// in progress, moves it to in progress if it was pending, and selects it.
func (s *Store) NextRecommended() (models.Node, bool) {
	var picked models.Node
	ok := s.mutate("next_recommended", func() []Change {
		var id string
		for _, n := range models.SortByOrder(s.nodes) {
			if n.Status == models.StatusPending || n.Status == models.StatusInProgress {
				id = n.ID
				break
			}
		}
		if id == "" {
			return nil
		}
		var changes []Change
		i := s.indexLocked(id)
		if s.nodes[i].Status == models.StatusPending {
			changes = s.updateLocked(id, func(n *models.Node) { n.Status = models.StatusInProgress })
		}
		changes = append(changes, s.selectLocked(id)...)
		picked = s.nodes[i].Clone()
		return changes
	})
	return picked, ok
}

// SetBaseline replaces the dataset future resets seed from. The current
// collection is left alone.
func (s *Store) SetBaseline(nodes []models.Node) {
	s.mu.Lock()
	s.baseline = cloneNodes(nodes)
	s.mu.Unlock()
	s.logger.Info("roadmap: baseline replaced", slog.Int("nodes", len(nodes)))
}

// ClearAll deletes the persisted slot and returns the store to a fresh
// state: baseline nodes, default preferences, no selection and no query.
func (s *Store) ClearAll() {
	s.mu.Lock()
	if s.persister != nil {
		if err := s.persister.Clear(); err != nil {
			s.logger.Warn("roadmap: clearing saved state failed", slog.String("error", err.Error()))
		}
	}
	s.nodes = initial(s.baseline)
	s.prefs = models.DefaultPreferences()
	s.selected = ""
	s.query = ""
	s.mu.Unlock()

	metrics.RecordOperation("clear_all", true)
	s.notify([]Change{{Kind: NodesReset}, {Kind: PreferencesUpdated}, {Kind: QueryChanged}, {Kind: SelectionChanged}})
}

// Stats computes the summary of the current collection.
func (s *Store) Stats() models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stats.Compute(s.nodes, s.now(), stats.WithLocation(s.statsLoc))
}

// Nodes returns a copy of the collection in collection order.
func (s *Store) Nodes() []models.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Node returns a copy of node id.
func (s *Store) Node(id string) (models.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// Preferences returns the current preferences.
func (s *Store) Preferences() models.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SearchQuery returns the stored raw query.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query
}

// SelectedNodeID returns the selected id, or "" when nothing is selected.
func (s *Store) SelectedNodeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Snapshot returns the full serializable state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.Snapshot {
	return models.Snapshot{
		Nodes:          cloneNodes(s.nodes),
		Preferences:    s.prefs,
		SelectedNodeID: s.selected,
		SearchQuery:    s.query,
	}
}

// initial returns the baseline as a fresh store starts with it.
func initial(baseline []models.Node) []models.Node {
	return models.SortByOrder(cloneNodes(baseline))
}

// seed returns a pristine copy of the baseline: pending, no notes, no
// user marks, sorted by order.
func seed(baseline []models.Node) []models.Node {
	out := make([]models.Node, len(baseline))
	for i, n := range baseline {
		n = n.Clone()
		n.Status = models.StatusPending
		n.Notes = ""
		n.Favorite = false
		n.CreatedAt = time.Time{}
		n.UpdatedAt = time.Time{}
		n.LastVisitedAt = time.Time{}
		out[i] = n
	}
	return models.SortByOrder(out)
}

func cloneNodes(nodes []models.Node) []models.Node {
	out := make([]models.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
