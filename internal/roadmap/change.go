package roadmap

// ChangeKind names what a state change touched.
type ChangeKind string

// Change kinds, also used as SSE event names.
const (
	NodeCreated        ChangeKind = "node.created"
	NodeUpdated        ChangeKind = "node.updated"
	NodeDeleted        ChangeKind = "node.deleted"
	NodesReordered     ChangeKind = "nodes.reordered"
	NodesReset         ChangeKind = "nodes.reset"
	PreferencesUpdated ChangeKind = "preferences.updated"
	SelectionChanged   ChangeKind = "selection.changed"
	QueryChanged       ChangeKind = "query.changed"
)

// Change describes one applied mutation. NodeID is empty for changes that
// are not about a single node.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	NodeID string     `json:"id,omitempty"`
}

// AffectsStats reports whether the change can alter the computed stats.
func (c Change) AffectsStats() bool {
	switch c.Kind {
	case PreferencesUpdated, QueryChanged:
		return false
	}
	return true
}

type subscribers struct {
	next  int
	funcs map[int]func(Change)
}

// Subscribe registers fn to be called after every applied mutation. fn runs
// synchronously on the mutating goroutine, after the new state is visible,
// and must not block. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.subs.next
	s.subs.next++
	s.subs.funcs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs.funcs, id)
	}
}

func (s *Store) notify(changes []Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs.funcs))
	for _, fn := range s.subs.funcs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}
