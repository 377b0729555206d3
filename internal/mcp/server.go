package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/movierank/internal/core"
	"github.com/vadimtrunov/movierank/internal/ranker"
)

// Deps holds dependencies for MCP tool handlers.
type Deps struct {
	Ranker  *ranker.Ranker
	Similar core.SimilarityProvider
}

// Server wraps an MCP SDK server with movierank tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all movierank tools registered.
func NewServer(deps Deps, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "movierank",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(recommendMoviesTool(), s.handleRecommendMovies)
	s.server.AddTool(similarTitlesTool(), s.handleSimilarTitles)
	s.server.AddTool(movieRatingTool(), s.handleMovieRating)
}

func recommendMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "recommend_movies",
		Description: "Recommend movies related to one or more seed titles, sorted by Rotten Tomatoes score (highest first). " +
			"Titles whose lookup failed are listed under 'skipped'.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"titles": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Seed movie titles, e.g. [\"Se7en\", \"Zodiac\"]",
				},
			},
			"required": []any{"titles"},
		},
	}
}

func similarTitlesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "similar_titles",
		Description: "List titles similar to the given one, as reported by the similarity service.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "The title to find similar items for",
				},
				"type": map[string]any{
					"type":        "string",
					"description": "Optional category, default \"movies\"",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Optional maximum number of results, default 5",
				},
			},
			"required": []any{"title"},
		},
	}
}

func movieRatingTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "movie_rating",
		Description: "Get the rating of a movie from the configured rating source. 'known' is false when the source has no score.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "The movie title",
				},
			},
			"required": []any{"title"},
		},
	}
}

// Tool handlers parse arguments, call the ranker and return JSON text content.

func (s *Server) handleRecommendMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Ranker == nil {
		return toolError("ranker not configured"), nil
	}

	var args struct {
		Titles []string `json:"titles"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	seeds := make([]core.Title, 0, len(args.Titles))
	for _, t := range args.Titles {
		if t = strings.TrimSpace(t); t != "" {
			seeds = append(seeds, t)
		}
	}
	if len(seeds) == 0 {
		return toolError("recommend_movies requires a non-empty 'titles' array"), nil
	}

	res, err := s.deps.Ranker.Rank(ctx, seeds)
	if err != nil {
		return toolError(fmt.Sprintf("ranking failed: %v", err)), nil
	}
	return toolJSON(res)
}

func (s *Server) handleSimilarTitles(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Similar == nil {
		return toolError("similarity provider not configured"), nil
	}

	var args struct {
		Title string `json:"title"`
		Type  string `json:"type"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if strings.TrimSpace(args.Title) == "" {
		return toolError("similar_titles requires a 'title' string argument"), nil
	}
	if args.Limit < 0 {
		return toolError("limit must not be negative"), nil
	}

	titles, err := s.deps.Similar.FetchSimilar(ctx, args.Title, core.WithType(args.Type), core.WithLimit(args.Limit))
	if err != nil {
		return toolError(fmt.Sprintf("%s lookup failed: %v", s.deps.Similar.Name(), err)), nil
	}
	if titles == nil {
		titles = []core.Title{}
	}
	return toolJSON(titles)
}

func (s *Server) handleMovieRating(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Ranker == nil {
		return toolError("ranker not configured"), nil
	}

	title, err := extractStringFromArgs(req.Params.Arguments, "title")
	if err != nil {
		return toolError(err.Error()), nil
	}

	score, err := s.deps.Ranker.Rate(ctx, title)
	if err != nil {
		return toolError(fmt.Sprintf("rating lookup failed: %v", err)), nil
	}

	return toolJSON(core.RankedTitle{Title: title, Rating: score.Value, Known: score.Known})
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
