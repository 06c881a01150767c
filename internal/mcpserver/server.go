// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes roadmap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/query"
	"github.com/starford/roadmap/internal/roadmap"
)

const querySyntaxURI = "roadmap://query-syntax"

// Server wraps the MCP server with roadmap tools.
type Server struct {
	mcp   *server.MCPServer
	store *roadmap.Store
}

// New creates a new MCP server with all roadmap tools registered.
func New(store *roadmap.Store, version string) *Server {
	s := &Server{store: store}

	s.mcp = server.NewMCPServer(
		"Roadmap",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List roadmap nodes in display order, filtered by a search query. "+
			"Read the syntax via get_query_syntax or the roadmap://query-syntax resource."),
		mcp.WithString("query", mcp.Description("Search query; omit to use the stored query, pass an empty string for all nodes")),
	), s.listNodes)

	s.mcp.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Read a single roadmap node including notes and resources."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.getNode)

	s.mcp.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add a node at the end of the roadmap."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Topic title")),
		mcp.WithString("category", mcp.Description("Category, e.g. CSS or React")),
		mcp.WithString("description", mcp.Description("Short description")),
		mcp.WithString("status", mcp.Description("Initial status; defaults to pending"),
			mcp.Enum(string(models.StatusPending), string(models.StatusInProgress), string(models.StatusCompleted))),
		mcp.WithNumber("estimatedHours", mcp.Required(), mcp.Description("Estimated effort in hours, greater than zero"), exclusiveMinimum(0)),
		mcp.WithArray("tags", mcp.Description("Free-form tags"), mcp.Items(map[string]any{"type": "string"})),
	), s.addNode)

	s.mcp.AddTool(mcp.NewTool("delete_node",
		mcp.WithDescription("Remove a node from the roadmap."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.deleteNode)

	s.mcp.AddTool(mcp.NewTool("set_status",
		mcp.WithDescription("Set the progress status of a node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("status", mcp.Required(),
			mcp.Enum(string(models.StatusPending), string(models.StatusInProgress), string(models.StatusCompleted))),
	), s.setStatus)

	s.mcp.AddTool(mcp.NewTool("set_notes",
		mcp.WithDescription("Replace the free-form notes of a node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("notes", mcp.Required(), mcp.Description("New notes; empty clears them")),
	), s.setNotes)

	s.mcp.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Flip the favorite flag of a node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
	), s.toggleFavorite)

	s.mcp.AddTool(mcp.NewTool("reorder_node",
		mcp.WithDescription("Move a node one step up or down in display order."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("direction", mcp.Required(),
			mcp.Enum(string(models.DirectionUp), string(models.DirectionDown))),
	), s.reorderNode)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Progress summary: counts, completion percentage, hours and recent visits."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("next_recommended",
		mcp.WithDescription("Start the first unfinished node in display order and select it."),
	), s.nextRecommended)

	s.mcp.AddTool(mcp.NewTool("get_query_syntax",
		mcp.WithDescription("Returns the search query syntax accepted by list_nodes."),
	), s.getQuerySyntax)

	// Resource: query syntax.
	s.mcp.AddResource(
		mcp.NewResource(querySyntaxURI, "Search Query Syntax",
			mcp.WithResourceDescription("Tokens accepted by the roadmap search box and list_nodes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuerySyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func notFound(id string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("node not found: %s", id))
}

// exclusiveMinimum sets the JSON Schema exclusiveMinimum of a number property.
func exclusiveMinimum(v float64) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["exclusiveMinimum"] = v
	}
}

func (s *Server) listNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := s.store.SearchQuery()
	if _, ok := req.GetArguments()["query"]; ok {
		q = req.GetString("query", "")
	}
	return jsonResult(query.Search(s.store.Nodes(), q))
}

func (s *Server) getNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.Node(id)
	if !ok {
		return notFound(id), nil
	}
	return jsonResult(n)
}

func (s *Server) addNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hours, err := req.RequireFloat("estimatedHours")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hours <= 0 {
		return mcp.NewToolResultError("estimatedHours must be greater than zero"), nil
	}
	n, ok := s.store.AddNode(models.NewNode{
		Title:          title,
		Category:       req.GetString("category", ""),
		Description:    req.GetString("description", ""),
		Status:         models.Status(req.GetString("status", "")),
		EstimatedHours: hours,
		Tags:           req.GetStringSlice("tags", nil),
	})
	if !ok {
		return mcp.NewToolResultError("node rejected: title must not be blank and status must be valid"), nil
	}
	return jsonResult(n)
}

func (s *Server) deleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.store.DeleteNode(id) {
		return notFound(id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) setStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.Status(raw)
	if !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status: %s", raw)), nil
	}
	if _, ok := s.store.Node(id); !ok {
		return notFound(id), nil
	}
	s.store.SetStatus(id, status)
	n, _ := s.store.Node(id)
	return jsonResult(n)
}

func (s *Server) setNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := req.RequireString("notes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.Node(id); !ok {
		return notFound(id), nil
	}
	s.store.SetNotes(id, notes)
	n, _ := s.store.Node(id)
	return jsonResult(n)
}

func (s *Server) toggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.store.ToggleFavorite(id) {
		return notFound(id), nil
	}
	n, _ := s.store.Node(id)
	return jsonResult(n)
}

func (s *Server) reorderNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir := models.Direction(raw)
	if !dir.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid direction: %s", raw)), nil
	}
	if _, ok := s.store.Node(id); !ok {
		return notFound(id), nil
	}
	if !s.store.ReorderNode(id, dir) {
		return mcp.NewToolResultText(fmt.Sprintf("not moved: %s is already at the boundary", id)), nil
	}
	return jsonResult(models.SortByOrder(s.store.Nodes()))
}

func (s *Server) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Stats())
}

func (s *Server) nextRecommended(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, ok := s.store.NextRecommended()
	if !ok {
		return mcp.NewToolResultText("every node is completed"), nil
	}
	return jsonResult(n)
}

func (s *Server) getQuerySyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(QuerySyntax), nil
}

func (s *Server) readQuerySyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      querySyntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}
