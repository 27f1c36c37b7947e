package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"mcpconf/internal/cards"
	"mcpconf/internal/core"
	"mcpconf/internal/logging"
	"mcpconf/internal/merge"
	"mcpconf/internal/recommend"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "mcpconf"

// Server exposes a Manager over MCP.
type Server struct {
	manager   *core.Manager
	logger    *logging.AppLogger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(manager *core.Manager, logger *logging.AppLogger, version string) *Server {
	s := &Server{
		manager: manager,
		logger:  logger,
		mcpServer: server.NewMCPServer(
			serverName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// Serve runs the server over stdio until stdin is closed.
func (s *Server) Serve() error {
	s.logger.Info("Starting MCP server", "project", s.manager.ProjectDir(), "cards", s.manager.Cards().Len())
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List the MCP server cards in the catalog, ranked by score"),
		mcp.WithString("query", mcp.Description("Case-insensitive keyword matched against id, name and description")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListCards)

	s.mcpServer.AddTool(mcp.NewTool("show_card",
		mcp.WithDescription("Show one card and which of its variables still lack a value"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Card id")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleShowCard)

	s.mcpServer.AddTool(mcp.NewTool("list_instances",
		mcp.WithDescription("List configured MCP servers; secret values are masked"),
		mcp.WithString("scope", mcp.Description("global or project; both when omitted")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListInstances)

	s.mcpServer.AddTool(mcp.NewTool("recommend",
		mcp.WithDescription("Recommend cards for the current project"),
		mcp.WithNumber("limit", mcp.Description("Maximum number of recommendations")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleRecommend)

	s.mcpServer.AddTool(mcp.NewTool("project_status",
		mcp.WithDescription("Return the project status document"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleProjectStatus)

	s.mcpServer.AddTool(mcp.NewTool("doctor",
		mcp.WithDescription("Report configured servers with missing cards or unresolved variables"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleDoctor)
}

// cardSummary is the list form of a card.
type cardSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"deploymentKind"`
	Score       float64  `json:"score"`
	Tags        []string `json:"tags,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	Description string   `json:"description,omitempty"`
}

func summarize(c cards.Card) cardSummary {
	return cardSummary{
		ID:          c.ID,
		Name:        c.Name,
		Kind:        c.Kind.String(),
		Score:       recommend.Score(c),
		Tags:        c.Tags,
		Deprecated:  c.Deprecated(),
		Description: c.Description,
	}
}

func (s *Server) handleListCards(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	ranked := recommend.Rank(s.manager.Cards().Search(query), nil)

	out := make([]cardSummary, len(ranked))
	for i, sc := range ranked {
		out[i] = summarize(sc.Card)
	}
	return jsonResult(out)
}

func (s *Server) handleShowCard(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card, err := s.manager.Card(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.manager.Validate(id, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(struct {
		Card    cards.Card `json:"card"`
		Missing []string   `json:"missingVariables"`
	}{card, res.MissingNames()})
}

type instanceView struct {
	ID         string            `json:"id"`
	Scope      merge.Scope       `json:"scope"`
	CardID     string            `json:"cardId,omitempty"`
	Type       string            `json:"type,omitempty"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	URL        string            `json:"url,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Unresolved []string          `json:"unresolved,omitempty"`
}

func (s *Server) handleListInstances(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scopes := []merge.Scope{merge.ScopeGlobal, merge.ScopeProject}
	if name := req.GetString("scope", ""); name != "" {
		scope, err := merge.ParseScope(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		scopes = []merge.Scope{scope}
	}

	out := []instanceView{}
	for _, scope := range scopes {
		for _, in := range s.manager.Instances(scope) {
			out = append(out, instanceView{
				ID:         in.ID,
				Scope:      scope,
				CardID:     in.CardID,
				Type:       in.Type,
				Command:    in.Command,
				Args:       in.Args,
				URL:        in.URL,
				Env:        maskValues(in.Env),
				Headers:    maskValues(in.Headers),
				Unresolved: in.Unresolved(),
			})
		}
	}
	return jsonResult(out)
}

func (s *Server) handleRecommend(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := s.manager.Recommend(req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	type item struct {
		cardSummary
		Reason string `json:"reason"`
	}
	items := make([]item, len(rec.Items))
	for i, sc := range rec.Items {
		items[i] = item{summarize(sc.Card), sc.Reason}
	}
	return jsonResult(struct {
		Tags  []string `json:"tags"`
		Items []item   `json:"recommendations"`
	}{rec.Tags, items})
}

func (s *Server) handleProjectStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.manager.Status().LoadOrDefault(s.manager.ProjectName()))
}

func (s *Server) handleDoctor(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type finding struct {
		Scope      merge.Scope `json:"scope"`
		InstanceID string      `json:"instance"`
		Kind       string      `json:"kind"`
		Message    string      `json:"message"`
	}
	out := []finding{}
	for _, f := range s.manager.Doctor() {
		out = append(out, finding{f.Scope, f.InstanceID, string(f.Kind), f.Message})
	}
	return jsonResult(out)
}

// maskValues hides resolved values; unresolved placeholders stay visible.
func maskValues(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if v == "" || merge.ContainsPlaceholder(v) {
			out[k] = v
			continue
		}
		out[k] = "********"
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
