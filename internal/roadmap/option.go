package roadmap

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring a Store.
type Option func(*Store)

// WithPersister sets the durable slot snapshots are loaded from and
// written to. Without one the store is memory-only.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithClock replaces time.Now for timestamps and stats.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the node id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithLogger sets the logger used for persistence failures and load outcomes.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatsLocation sets the zone used for the completed-today count.
func WithStatsLocation(loc *time.Location) Option {
	return func(s *Store) {
		s.statsLoc = loc
	}
}
