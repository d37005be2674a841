// Package mcp exposes the babsim pipeline as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	babsim "github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/logging"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/internal/presentation/graph"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/domain"
	"github.com/SKNETWORKS-FAMILY-AICAMP/SKN13-FINAL-3TEAM/pkg/ports"
)

const (
	graphURI        = "babsim://graph"
	graphMermaidURI = "babsim://graph.mmd"
	maxQueryBytes   = 4096
)

// Asker runs a query inside a chat session.
type Asker interface {
	Ask(ctx context.Context, sessionID, query string) (*domain.PipelineState, error)
}

// AskResult is the structured output of the ask tool.
type AskResult struct {
	SessionID    string        `json:"session_id" jsonschema_description:"Session the query ran in"`
	Intent       domain.Intent `json:"intent" jsonschema_description:"Classified intent: text, image, 3d or video"`
	Response     string        `json:"response" jsonschema_description:"Answer or image explanation"`
	Image        string        `json:"image,omitempty" jsonschema_description:"Path of the generated image"`
	Video        string        `json:"video,omitempty"`
	SDPrompt     string        `json:"sd_prompt,omitempty" jsonschema_description:"Stable Diffusion prompt used for the image"`
	Refinements  int           `json:"refinements" jsonschema_description:"Number of query refinements"`
	ForcedAccept bool          `json:"forced_accept" jsonschema_description:"True when the refinement cap ended the run"`
}

// Server wraps the pipeline and exposes it as an MCP Server.
type Server struct {
	asker      Asker
	classifier ports.IntentClassifier
	analyzer   ports.QueryAnalyzer
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(asker Asker, classifier ports.IntentClassifier, analyzer ports.QueryAnalyzer, opts ...Option) *Server {
	s := &Server{
		asker:      asker,
		classifier: classifier,
		analyzer:   analyzer,
		mcpServer:  server.NewMCPServer("babsim-mcp", strings.TrimSpace(babsim.Version)),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	askTool := mcp.NewTool("ask",
		mcp.WithDescription("Ask a question about Hyundai cars or request a car design image."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query")),
		mcp.WithString("session_id", mcp.Description("Chat session to continue (optional)")),
		mcp.WithOutputSchema[AskResult](),
	)
	s.mcpServer.AddTool(askTool, mcp.NewStructuredToolHandler(s.handleAsk))

	s.mcpServer.AddTool(mcp.NewTool("classify_intent",
		mcp.WithDescription("Classify a query as text, image, 3d or video."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user query")),
	), s.handleClassify)

	s.mcpServer.AddTool(mcp.NewTool("categorize_image_query",
		mcp.WithDescription("Decompose an image request into car, design elements, style, color, perspective, background and features."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The image request")),
	), s.handleCategorize)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the pipeline graph for introspection."),
		mcp.WithString("format", mcp.Description("json (default) or mermaid"), mcp.Enum("json", "mermaid")),
	), s.handleGetGraph)
}

func queryArg(args map[string]any) (string, error) {
	q, _ := args["query"].(string)
	q = strings.TrimSpace(q)
	switch {
	case q == "":
		return "", errors.New("query is required")
	case len(q) > maxQueryBytes:
		return "", fmt.Errorf("query exceeds %d bytes", maxQueryBytes)
	}
	return q, nil
}

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (AskResult, error) {
	query, err := queryArg(args)
	if err != nil {
		return AskResult{}, err
	}
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	state, err := s.asker.Ask(ctx, sessionID, query)
	if err != nil {
		s.logger.Error("MCP ask failed", "session_id", sessionID, "err", err)
		return AskResult{}, fmt.Errorf("ask failed: %w", err)
	}
	forced, _ := state.Metadata[domain.MetaForcedAccept].(bool)
	return AskResult{
		SessionID:    sessionID,
		Intent:       state.Intent,
		Response:     state.Response,
		Image:        state.Image,
		Video:        state.Video,
		SDPrompt:     state.SDPrompt,
		Refinements:  state.Refinements,
		ForcedAccept: forced,
	}, nil
}

func (s *Server) handleClassify(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := queryArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(s.classifier.Classify(ctx, query))), nil
}

func (s *Server) handleCategorize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := queryArg(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cq := s.analyzer.CategorizeImageQuery(ctx, query).Normalize()
	jsonBytes, err := json.Marshal(cq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if format, _ := request.GetArguments()["format"].(string); format == "mermaid" {
		return mcp.NewToolResultText(graph.GenerateMermaid(domain.Graph(), nil)), nil
	}
	jsonBytes, _ := json.Marshal(domain.Graph())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Pipeline Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(domain.Graph())
		if err != nil {
			return nil, fmt.Errorf("failed to encode graph: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(graphMermaidURI, "Pipeline Graph (Mermaid)",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphMermaidURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(domain.Graph(), nil),
			},
		}, nil
	})
}
