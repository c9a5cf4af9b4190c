package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ironsheep/micro-annotate-mcp/internal/capture"
	"github.com/ironsheep/micro-annotate-mcp/internal/document"
)

// ErrNoCaptures is returned by capture tools when no capture list is configured.
var ErrNoCaptures = errors.New("capture list not configured")

// Config holds the server identity and capture encoding settings.
type Config struct {
	Name    string
	Version string

	// CaptureMaxDimension bounds the longer side of captured images.
	CaptureMaxDimension int
	// CaptureQuality is the JPEG quality (1-100) of captured images.
	CaptureQuality int
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Name:                "micro-annotate-mcp",
		Version:             "dev",
		CaptureMaxDimension: 1280,
		CaptureQuality:      85,
	}
}

// Server exposes one annotation document and the capture list as MCP tools.
type Server struct {
	mcp      *server.MCPServer
	doc      *document.Document
	captures *capture.Store
	cfg      Config
	log      *slog.Logger
}

// New creates a server for doc and registers every tool. captures may be
// nil, in which case the capture tools report ErrNoCaptures.
func New(doc *document.Document, captures *capture.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.CaptureMaxDimension <= 0 {
		cfg.CaptureMaxDimension = def.CaptureMaxDimension
	}
	if cfg.CaptureQuality <= 0 {
		cfg.CaptureQuality = def.CaptureQuality
	}

	s := &Server{
		mcp: server.NewMCPServer(
			cfg.Name,
			cfg.Version,
			server.WithToolCapabilities(true),
		),
		doc:      doc,
		captures: captures,
		cfg:      cfg,
		log:      logger,
	}
	s.mcp.AddTools(s.tools()...)
	return s
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Run serves MCP over stdin and stdout until stdin is closed.
func (s *Server) Run() error {
	s.log.Info("serving MCP over stdio", "name", s.cfg.Name, "version", s.cfg.Version)
	return server.ServeStdio(s.mcp)
}

// toolFunc is the body of a tool: it returns a value to report as JSON, or
// an error to report as a tool error.
type toolFunc func(req mcp.CallToolRequest) (any, error)

// handle adapts fn to an MCP handler. Failures become tool results with
// IsError set, never protocol errors.
func (s *Server) handle(fn toolFunc) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := fn(req)
		if err != nil {
			s.log.Debug("tool failed", "tool", req.Params.Name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(mustMarshalJSON(result)), nil
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
