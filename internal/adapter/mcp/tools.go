package mcp

import (
	"context"
	"errors"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/service"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.runTaskTool(),
		s.readFileTool(),
	)
}

func (s *Server) runTaskTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("run_task",
			mcplib.WithDescription("Execute a plain-English task inside the agent's sandbox"),
			mcplib.WithString("task", mcplib.Required(), mcplib.Description("Task description")),
		),
		Handler: s.handleRunTask,
	}
}

func (s *Server) readFileTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("read_file",
			mcplib.WithDescription("Read a file from the agent's sandbox"),
			mcplib.WithString("path", mcplib.Required(), mcplib.Description("Absolute file path")),
		),
		Handler: s.handleReadFile,
	}
}

//nolint:gocritic // hugeParam: req signature required by mcp-go ToolHandlerFunc
func (s *Server) handleRunTask(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.deps.Tasks == nil {
		return mcplib.NewToolResultError("task executor not configured"), nil
	}

	text, _ := req.GetArguments()["task"].(string)
	if text == "" {
		return mcplib.NewToolResultError("Task description required"), nil
	}

	res := s.deps.Tasks.Execute(ctx, text)
	switch res.Status {
	case task.StatusRejected:
		return mcplib.NewToolResultError(res.Message), nil
	case task.StatusError:
		return mcplib.NewToolResultError(task.MessageInternalError), nil
	default:
		return mcplib.NewToolResultText(res.Message), nil
	}
}

//nolint:gocritic // hugeParam: req signature required by mcp-go ToolHandlerFunc
func (s *Server) handleReadFile(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if s.deps.Files == nil {
		return mcplib.NewToolResultError("file reader not configured"), nil
	}

	path, _ := req.GetArguments()["path"].(string)
	if path == "" {
		return mcplib.NewToolResultError("path is required"), nil
	}

	res := s.deps.Files.Read(path)
	switch res.Outcome {
	case service.ReadFound:
		return mcplib.NewToolResultText(string(res.Content)), nil
	case service.ReadNotFound:
		return mcplib.NewToolResultError("file not found: " + path), nil
	case service.ReadOutsideSandbox:
		return mcplib.NewToolResultError(string(res.Content)), nil
	default:
		return mcplib.NewToolResultErrorFromErr("read file", errors.New(task.MessageInternalError)), nil
	}
}
