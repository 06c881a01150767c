// Package persist serializes roadmap snapshots into a storage slot.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/roadmap/internal/apperr"
	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/storage"
)

// DefaultKey is the slot name used when none is configured.
const DefaultKey = "frontend-roadmap-state"

// Version is the envelope version written by Save.
const Version = 1

type envelope struct {
	Version int             `json:"version"`
	State   models.Snapshot `json:"state"`
}

// Slot stores one snapshot under a single key of a storage provider.
type Slot struct {
	provider storage.Provider
	key      string
}

// NewSlot returns a Slot for key, or DefaultKey when key is empty.
func NewSlot(p storage.Provider, key string) *Slot {
	if key == "" {
		key = DefaultKey
	}
	return &Slot{provider: p, key: key}
}

// Key returns the slot name.
func (s *Slot) Key() string { return s.key }

// Load reads and validates the stored snapshot. A missing slot yields
// apperr.ErrNotFound; anything unreadable yields apperr.ErrStorageCorrupt.
// Invalid preferences alone are replaced by the defaults.
func (s *Slot) Load() (models.Snapshot, error) {
	data, err := s.provider.Get(s.key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrStorageCorrupt) {
			return models.Snapshot{}, err
		}
		return models.Snapshot{}, fmt.Errorf("persist: load %s: %w: %w", s.key, apperr.ErrStorageUnavailable, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("persist: load %s: %w", s.key, err)
	}
	return snap, nil
}

// Save writes snap to the slot, replacing what was there.
func (s *Slot) Save(snap models.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("persist: encode: %w", err)
	}
	if err := s.provider.Put(s.key, data); err != nil {
		return fmt.Errorf("persist: save %s: %w: %w", s.key, apperr.ErrStorageUnavailable, err)
	}
	return nil
}

// Clear removes the slot.
func (s *Slot) Clear() error {
	if err := s.provider.Delete(s.key); err != nil {
		return fmt.Errorf("persist: clear %s: %w: %w", s.key, apperr.ErrStorageUnavailable, err)
	}
	return nil
}

// Encode returns the envelope bytes for snap.
func Encode(snap models.Snapshot) ([]byte, error) {
	if snap.Nodes == nil {
		snap.Nodes = []models.Node{}
	}
	return json.Marshal(envelope{Version: Version, State: snap})
}

// Decode parses envelope bytes. Unknown fields are ignored, so envelopes
// written by a newer version still load as long as their nodes are sound.
func Decode(data []byte) (models.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %w", apperr.ErrStorageCorrupt, err)
	}
	if env.Version < 1 {
		return models.Snapshot{}, fmt.Errorf("%w: unsupported version %d", apperr.ErrStorageCorrupt, env.Version)
	}
	snap := env.State
	if err := checkNodes(snap.Nodes); err != nil {
		return models.Snapshot{}, err
	}
	if snap.Nodes == nil {
		snap.Nodes = []models.Node{}
	}
	if snap.Preferences.Validate() != nil {
		snap.Preferences = models.DefaultPreferences()
	}
	return snap, nil
}

func checkNodes(nodes []models.Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has no id", apperr.ErrStorageCorrupt, i)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", apperr.ErrStorageCorrupt, n.ID)
		}
		seen[n.ID] = struct{}{}
		if !n.Status.Valid() {
			return fmt.Errorf("%w: node %q has status %q", apperr.ErrStorageCorrupt, n.ID, n.Status)
		}
	}
	return nil
}
