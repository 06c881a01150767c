package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/roadmap/internal/checksum"
	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/query"
	"github.com/starford/roadmap/internal/roadmap"
)

// Handler holds API route handlers.
type Handler struct {
	store *roadmap.Store
}

// NewHandler creates a new Handler.
func NewHandler(store *roadmap.Store) *Handler {
	return &Handler{store: store}
}

// nodeOr404 loads the node named in the URL or answers 404. The store
// treats unknown ids as no-ops, so the API checks first to report them.
func (h *Handler) nodeOr404(w http.ResponseWriter, r *http.Request) (models.Node, bool) {
	id := chi.URLParam(r, "id")
	n, ok := h.store.Node(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("node not found"))
	}
	return n, ok
}

// writeNode answers with the current version of node id.
func (h *Handler) writeNode(w http.ResponseWriter, status int, id string) {
	n, ok := h.store.Node(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("node not found"))
		return
	}
	writeJSON(w, status, n)
}

// GetState handles GET /api/state.
//
//	@Summary		Full roadmap snapshot
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	models.Snapshot
//	@Success		304
//	@Router			/state [get]
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	body, err := json.Marshal(h.store.Snapshot())
	if err != nil {
		slog.Error("encode state failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	etag := `"` + checksum.Sum(body) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// ClearState handles DELETE /api/state.
//
//	@Summary		Forget all saved state and start over from the baseline
//	@Tags			state
//	@Success		204
//	@Router			/state [delete]
func (h *Handler) ClearState(w http.ResponseWriter, _ *http.Request) {
	h.store.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// ResetProgress handles POST /api/reset.
//
//	@Summary		Restore the baseline nodes with progress cleared
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	models.Snapshot
//	@Router			/reset [post]
func (h *Handler) ResetProgress(w http.ResponseWriter, _ *http.Request) {
	h.store.ResetProgress()
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// ListNodes handles GET /api/nodes.
//
//	@Summary		List nodes in display order, filtered by a search query
//	@Tags			nodes
//	@Produce		json
//	@Param			q	query		string	false	"Search query; defaults to the stored one"
//	@Success		200	{object}	NodeListResponse
//	@Router			/nodes [get]
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	q := h.store.SearchQuery()
	if params := r.URL.Query(); params.Has("q") {
		q = params.Get("q")
	}
	nodes := query.Search(h.store.Nodes(), q)
	writeJSON(w, http.StatusOK, NodeListResponse{Query: q, Nodes: nodes, Total: len(nodes)})
}

// GetNode handles GET /api/nodes/{id}.
//
//	@Summary		Get a single node
//	@Tags			nodes
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Router			/nodes/{id} [get]
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	n, ok := h.nodeOr404(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// CreateNode handles POST /api/nodes.
//
//	@Summary		Add a node
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNodeRequest	true	"Node to add"
//	@Success		201		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Router			/nodes [post]
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	n, ok := h.store.AddNode(models.NewNode(req))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("node rejected"))
		return
	}
	w.Header().Set("Location", "/api/nodes/"+n.ID)
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNode handles PATCH /api/nodes/{id}.
//
//	@Summary		Merge fields into a node
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Node id"
//	@Param			body	body		UpdateNodeRequest	true	"Fields to change"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/nodes/{id} [patch]
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	n, ok := h.nodeOr404(w, r)
	if !ok {
		return
	}
	var req UpdateNodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.UpdateNode(n.ID, models.NodePatch(req))
	h.writeNode(w, http.StatusOK, n.ID)
}

// DeleteNode handles DELETE /api/nodes/{id}.
//
//	@Summary		Remove a node
//	@Tags			nodes
//	@Param			id	path	string	true	"Node id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Router			/nodes/{id} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if !h.store.DeleteNode(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("node not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderNode handles POST /api/nodes/{id}/reorder.
//
//	@Summary		Move a node one step up or down
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		ReorderRequest	true	"Direction"
//	@Success		200		{object}	ReorderResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/nodes/{id}/reorder [post]
func (h *Handler) ReorderNode(w http.ResponseWriter, r *http.Request) {
	n, ok := h.nodeOr404(w, r)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	moved := h.store.ReorderNode(n.ID, req.Direction)
	writeJSON(w, http.StatusOK, ReorderResponse{
		Moved: moved,
		Nodes: models.SortByOrder(h.store.Nodes()),
	})
}

// SetStatus handles PUT /api/nodes/{id}/status.
//
//	@Summary		Set a node's status
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		StatusRequest	true	"New status"
//	@Success		200		{object}	models.Node
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/nodes/{id}/status [put]
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	n, ok := h.nodeOr404(w, r)
	if !ok {
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.SetStatus(n.ID, req.Status)
	h.writeNode(w, http.StatusOK, n.ID)
}

// SetNotes handles PUT /api/nodes/{id}/notes.
//
//	@Summary		Replace a node's notes
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Node id"
//	@Param			body	body		NotesRequest	true	"Notes"
//	@Success		200		{object}	models.Node
//	@Failure		404		{object}	errResponse
//	@Router			/nodes/{id}/notes [put]
func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	n, ok := h.nodeOr404(w, r)
	if !ok {
		return
	}
	var req NotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.SetNotes(n.ID, req.Notes)
	h.writeNode(w, http.StatusOK, n.ID)
}

// ToggleFavorite handles POST /api/nodes/{id}/favorite.
//
//	@Summary		Flip a node's favorite flag
//	@Tags			nodes
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Router			/nodes/{id}/favorite [post]
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.ToggleFavorite(id) {
		writeJSON(w, http.StatusNotFound, errorBody("node not found"))
		return
	}
	h.writeNode(w, http.StatusOK, id)
}

// NextRecommended handles POST /api/nodes/next.
//
//	@Summary		Start the next pending node
//	@Tags			nodes
//	@Produce		json
//	@Success		200	{object}	models.Node
//	@Failure		404	{object}	errResponse
//	@Router			/nodes/next [post]
func (h *Handler) NextRecommended(w http.ResponseWriter, _ *http.Request) {
	n, ok := h.store.NextRecommended()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("every node is completed"))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// SelectNode handles PUT /api/selection.
//
//	@Summary		Select a node, or clear the selection with an empty id
//	@Tags			selection
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectionRequest	true	"Node id"
//	@Success		200		{object}	SelectionResponse
//	@Router			/selection [put]
func (h *Handler) SelectNode(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.SelectNode(req.ID)
	writeJSON(w, http.StatusOK, SelectionResponse{SelectedNodeID: h.store.SelectedNodeID()})
}

// GetSearch handles GET /api/search.
//
//	@Summary		Stored search query and its parsed filter
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	SearchResponse
//	@Router			/search [get]
func (h *Handler) GetSearch(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSearchResponse(h.store.SearchQuery()))
}

// SetSearch handles PUT /api/search.
//
//	@Summary		Replace the stored search query
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchRequest	true	"Query"
//	@Success		200		{object}	SearchResponse
//	@Router			/search [put]
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusOK, newSearchResponse(h.store.SearchQuery()))
}

// ToggleSearch handles POST /api/search/toggle.
//
//	@Summary		Toggle or replace one reserved part of the stored query
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SearchToggleRequest	true	"Toggle"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search/toggle [post]
func (h *Handler) ToggleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	q := h.store.SearchQuery()
	switch req.Kind {
	case ToggleFavorites:
		q = query.ToggleFavorites(q)
	case ToggleStatus:
		status, _ := query.ParseStatusFilter(req.Value)
		q = query.WithStatus(q, status)
	case ToggleCategory:
		q = query.WithCategory(q, req.Value)
	case ToggleText:
		q = query.WithText(q, req.Value)
	}
	h.store.SetSearchQuery(q)
	writeJSON(w, http.StatusOK, newSearchResponse(q))
}

// Categories handles GET /api/categories.
//
//	@Summary		Distinct categories in display order
//	@Tags			search
//	@Produce		json
//	@Success		200	{object}	CategoriesResponse
//	@Router			/categories [get]
func (h *Handler) Categories(w http.ResponseWriter, _ *http.Request) {
	cats := query.Categories(models.SortByOrder(h.store.Nodes()))
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

// Stats handles GET /api/stats.
//
//	@Summary		Progress summary
//	@Tags			stats
//	@Produce		json
//	@Success		200	{object}	models.Stats
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

// GetPreferences handles GET /api/preferences.
//
//	@Summary		Display preferences
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	models.Preferences
//	@Router			/preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Preferences())
}

// UpdatePreferences handles PATCH /api/preferences.
//
//	@Summary		Merge display preferences
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.PreferencesPatch	true	"Fields to change"
//	@Success		200		{object}	models.Preferences
//	@Failure		400		{object}	errResponse
//	@Router			/preferences [patch]
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch models.PreferencesPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if err := patch.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.UpdatePreferences(patch)
	writeJSON(w, http.StatusOK, h.store.Preferences())
}
