// Package mcp exposes the agent over the Model Context Protocol so that
// other AI agents can submit tasks and read sandboxed files.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

// TaskExecutor runs a task description to completion.
type TaskExecutor interface {
	Execute(ctx context.Context, text string) task.Result
}

// FileReader performs guarded reads.
type FileReader interface {
	Read(path string) service.ReadResult
}

// RouteLister reports the dispatch table.
type RouteLister interface {
	Routes() []service.Route
}

// ServerConfig holds the MCP server identity.
type ServerConfig struct {
	Name    string
	Version string
	APIKey  string
}

// ServerDeps holds the services the MCP tools call into. Nil fields
// make the matching tool report that it is not configured.
type ServerDeps struct {
	Tasks  TaskExecutor
	Files  FileReader
	Routes RouteLister
}

// Server wraps an mcp-go server with the agent's tools and resources.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
}

// NewServer creates the MCP server and registers its tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Handler returns the streamable HTTP transport, guarded by the API key
// when one is configured.
func (s *Server) Handler() http.Handler {
	slog.Info("mcp server enabled", "name", s.cfg.Name, "version", s.cfg.Version, "auth", s.cfg.APIKey != "")
	return AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithStateLess(true),
	))
}
