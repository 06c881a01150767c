// Package stats derives summary counters from a node collection.
package stats

import (
	"math"
	"slices"
	"time"

	"github.com/starford/roadmap/internal/models"
)

// RecentLimit caps the number of nodes reported as recently visited.
const RecentLimit = 5

type options struct {
	loc *time.Location
}

// Option configures Compute.
type Option func(*options)

// WithLocation sets the zone used to decide which calendar day a timestamp
// falls on. Both now and the node timestamps are converted to it.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Compute returns the stats for nodes as of now. The input is not modified.
func Compute(nodes []models.Node, now time.Time, opts ...Option) models.Stats {
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	s := models.Stats{
		TotalNodes:       len(nodes),
		LastVisitedNodes: []models.Node{},
	}
	today := dateOf(now, o.loc)

	var visited []models.Node
	for _, n := range nodes {
		s.TotalEstimatedHours += n.EstimatedHours
		switch n.Status {
		case models.StatusCompleted:
			s.CompletedCount++
			s.CompletedEstimatedHours += n.EstimatedHours
			if !n.UpdatedAt.IsZero() && dateOf(n.UpdatedAt, o.loc) == today {
				s.CompletedToday++
			}
		case models.StatusInProgress:
			s.InProgressCount++
		default:
			s.PendingCount++
		}
		if n.UpdatedAt.After(s.LastUpdatedAt) {
			s.LastUpdatedAt = n.UpdatedAt
		}
		if !n.LastVisitedAt.IsZero() {
			visited = append(visited, n)
		}
	}

	if s.TotalNodes > 0 {
		s.CompletionPercentage = int(math.Round(100 * float64(s.CompletedCount) / float64(s.TotalNodes)))
	}

	slices.SortStableFunc(visited, func(a, b models.Node) int {
		return b.LastVisitedAt.Compare(a.LastVisitedAt)
	})
	for _, n := range visited[:min(len(visited), RecentLimit)] {
		s.LastVisitedNodes = append(s.LastVisitedNodes, n.Clone())
	}
	return s
}

func dateOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
