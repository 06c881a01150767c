// Package models defines the domain types for the roadmap tracker.
package models

import (
	"cmp"
	"slices"
	"time"
)

// Status is the progress state of a roadmap node.
type Status string

// Node statuses.
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in progression order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// Next returns the status that follows s, wrapping back to pending.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// Direction is the movement requested by a reorder.
type Direction string

// Reorder directions.
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is up or down.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Resource is a read-only reference link attached to a node.
type Resource struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

// Node is one topic of the roadmap.
type Node struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Status         Status     `json:"status"`
	EstimatedHours float64    `json:"estimatedHours"`
	Tags           []string   `json:"tags,omitempty"`
	Resources      []Resource `json:"resources,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitzero"`
	UpdatedAt      time.Time  `json:"updatedAt,omitzero"`
	LastVisitedAt  time.Time  `json:"lastVisitedAt,omitzero"`
	Order          int        `json:"order"`
	Favorite       bool       `json:"favorite,omitempty"`
}

// Clone returns a copy of n that shares no slices with it.
func (n Node) Clone() Node {
	n.Tags = slices.Clone(n.Tags)
	n.Resources = slices.Clone(n.Resources)
	return n
}

// NewNode carries the user-supplied fields of a node being added.
type NewNode struct {
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Description    string     `json:"description"`
	Status         Status     `json:"status,omitempty"`
	EstimatedHours float64    `json:"estimatedHours"`
	Tags           []string   `json:"tags,omitempty"`
	Resources      []Resource `json:"resources,omitempty"`
}

// NodePatch holds a partial node update. Nil fields are left unchanged.
// Identity, timestamps and order are store-assigned and cannot be patched.
type NodePatch struct {
	Title          *string     `json:"title,omitempty"`
	Category       *string     `json:"category,omitempty"`
	Description    *string     `json:"description,omitempty"`
	Status         *Status     `json:"status,omitempty"`
	EstimatedHours *float64    `json:"estimatedHours,omitempty"`
	Tags           *[]string   `json:"tags,omitempty"`
	Resources      *[]Resource `json:"resources,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	Favorite       *bool       `json:"favorite,omitempty"`
}

// Apply merges the non-nil fields of p into n.
func (p NodePatch) Apply(n *Node) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Category != nil {
		n.Category = *p.Category
	}
	if p.Description != nil {
		n.Description = *p.Description
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.EstimatedHours != nil {
		n.EstimatedHours = *p.EstimatedHours
	}
	if p.Tags != nil {
		n.Tags = slices.Clone(*p.Tags)
	}
	if p.Resources != nil {
		n.Resources = slices.Clone(*p.Resources)
	}
	if p.Notes != nil {
		n.Notes = *p.Notes
	}
	if p.Favorite != nil {
		n.Favorite = *p.Favorite
	}
}

// SortByOrder returns a copy of nodes stably sorted by Order, so nodes
// sharing an order keep their relative collection position.
func SortByOrder(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	slices.SortStableFunc(out, func(a, b Node) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// Snapshot is the full serializable state of the roadmap store.
type Snapshot struct {
	Nodes          []Node      `json:"nodes"`
	Preferences    Preferences `json:"preferences"`
	SelectedNodeID string      `json:"selectedNodeId,omitempty"`
	SearchQuery    string      `json:"searchQuery"`
}
