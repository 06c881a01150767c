package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/query"
)

// Search toggle kinds.
const (
	ToggleFavorites = "favorites"
	ToggleStatus    = "status"
	ToggleCategory  = "category"
	ToggleText      = "text"
)

var (
	statusRule    = validation.In(models.StatusPending, models.StatusInProgress, models.StatusCompleted)
	directionRule = validation.In(models.DirectionUp, models.DirectionDown)
	positive      = validation.Min(0.0).Exclusive()
	notBlank      = validation.By(func(v any) error {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return validation.NewError("validation_blank", "must not be blank")
		}
		if p, ok := v.(*string); ok && p != nil && strings.TrimSpace(*p) == "" {
			return validation.NewError("validation_blank", "must not be blank")
		}
		return nil
	})
)

// CreateNodeRequest is the request body for adding a node.
type CreateNodeRequest models.NewNode

// Validate checks the fields a new node needs.
func (r CreateNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, notBlank),
		validation.Field(&r.Status, statusRule),
		validation.Field(&r.EstimatedHours, validation.Required, positive),
	)
}

// UpdateNodeRequest is the request body for a partial node update.
type UpdateNodeRequest models.NodePatch

// Validate checks the fields present in the patch.
func (r UpdateNodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, notBlank),
		validation.Field(&r.Status, validation.NilOrNotEmpty, statusRule),
		validation.Field(&r.EstimatedHours, validation.When(r.EstimatedHours != nil, validation.Required, positive)),
	)
}

// ReorderRequest moves a node one step in display order.
type ReorderRequest struct {
	Direction models.Direction `json:"direction" example:"up" validate:"required"`
}

// Validate checks the direction.
func (r ReorderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Direction, validation.Required, directionRule),
	)
}

// ReorderResponse reports whether the node moved. Boundary moves do not.
type ReorderResponse struct {
	Moved bool          `json:"moved"`
	Nodes []models.Node `json:"nodes"`
}

// StatusRequest sets a node's status.
type StatusRequest struct {
	Status models.Status `json:"status" example:"completed" validate:"required"`
}

// Validate checks the status value.
func (r StatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, statusRule),
	)
}

// NotesRequest replaces a node's notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

// SelectionRequest selects a node; an empty id clears the selection.
type SelectionRequest struct {
	ID string `json:"id"`
}

// SelectionResponse echoes the current selection.
type SelectionResponse struct {
	SelectedNodeID string `json:"selectedNodeId"`
}

// SearchRequest replaces the stored search query.
type SearchRequest struct {
	Query string `json:"query" example:"is:fav cat:css"`
}

// SearchToggleRequest edits one reserved part of the stored query.
type SearchToggleRequest struct {
	Kind  string `json:"kind" example:"status" validate:"required"`
	Value string `json:"value" example:"progress"`
}

// Validate checks the toggle kind and, for status toggles, the value.
func (r SearchToggleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(ToggleFavorites, ToggleStatus, ToggleCategory, ToggleText)),
		validation.Field(&r.Value, validation.When(r.Kind == ToggleStatus, validation.By(func(any) error {
			if _, ok := query.ParseStatusFilter(r.Value); !ok {
				return validation.NewError("validation_status", "must be all, pending, progress or completed")
			}
			return nil
		}))),
	)
}

// SearchResponse is the stored query together with its parsed form.
type SearchResponse struct {
	Query         string   `json:"query"`
	Status        string   `json:"status"`
	FavoritesOnly bool     `json:"favoritesOnly"`
	Category      string   `json:"category,omitempty"`
	Text          []string `json:"text"`
}

func newSearchResponse(q string) SearchResponse {
	f := query.Parse(q)
	text := f.Text
	if text == nil {
		text = []string{}
	}
	return SearchResponse{
		Query:         q,
		Status:        string(f.Status),
		FavoritesOnly: f.FavoritesOnly,
		Category:      f.Category,
		Text:          text,
	}
}

// NodeListResponse wraps a filtered node listing.
type NodeListResponse struct {
	Query string        `json:"query"`
	Nodes []models.Node `json:"nodes" validate:"required"`
	Total int           `json:"total" example:"10" validate:"required"`
}

// CategoriesResponse lists the distinct lowercase categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
