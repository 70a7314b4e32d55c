package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pairloop/pairloop/internal/aggregate"
	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
	"github.com/pairloop/pairloop/internal/store"
)

// Server wraps the iteration loop and result store as MCP tools.
type Server struct {
	store    store.Store
	registry *controller.Registry
	history  *aggregate.History
	cfg      controller.Config
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s store.Store, registry *controller.Registry, history *aggregate.History, cfg controller.Config) *Server {
	return &Server{
		store:    s,
		registry: registry,
		history:  history,
		cfg:      cfg,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("pairloop", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.runTaskTool())
	srv.AddTool(s.getResultTool())
	srv.AddTool(s.listResultsTool())
	srv.AddTool(s.recentHistoryTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// pairloop_run_task
func (s *Server) runTaskTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pairloop_run_task",
		mcp.WithDescription("Run a task through the bounded produce/review/refine loop. Returns the full result as JSON, including per-iteration review outcomes and the disaster prevention score."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Stable identifier for the task")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the producer should build")),
		mcp.WithString("acceptance_criteria", mcp.Description("Newline-separated acceptance criteria")),
		mcp.WithString("specialty", mcp.Description("Capability specialty: code (default), requirements, tests")),
	)
	return tool, s.handleRunTask
}

func (s *Server) handleRunTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := request.RequireString("task_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: task_id"), nil
	}
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	specialty := controller.Specialty(request.GetString("specialty", string(controller.SpecialtyCode)))
	capability, ok := s.registry.Get(specialty)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown specialty: %s", specialty)), nil
	}

	spec := models.TaskSpec{
		ID:                 taskID,
		Description:        description,
		AcceptanceCriteria: splitLines(request.GetString("acceptance_criteria", "")),
	}

	runner := controller.NewRunner(capability, s.cfg)
	result, err := runner.Run(ctx, spec, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed: %v", err)), nil
	}

	if err := s.store.SavePairResult(ctx, result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run completed but saving failed: %v", err)), nil
	}
	s.history.Push(result)

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// pairloop_get_result
func (s *Server) getResultTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pairloop_get_result",
		mcp.WithDescription("Get a stored run result by ID, including the full iteration history."),
		mcp.WithString("result_id", mcp.Required(), mcp.Description("Result ID (ULID)")),
	)
	return tool, s.handleGetResult
}

func (s *Server) handleGetResult(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resultID, err := request.RequireString("result_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: result_id"), nil
	}

	result, err := s.store.GetPairResult(ctx, resultID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("result not found: %s", resultID)), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// pairloop_list_results
func (s *Server) listResultsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pairloop_list_results",
		mcp.WithDescription("List stored run results, newest first. Iteration histories are omitted; use pairloop_get_result for the full record."),
		mcp.WithString("task_id", mcp.Description("Filter by task ID")),
		mcp.WithBoolean("only_success", mcp.Description("Only return successful runs")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results to return")),
	)
	return tool, s.handleListResults
}

func (s *Server) handleListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.ResultListFilter{
		TaskID:      request.GetString("task_id", ""),
		OnlySuccess: request.GetBool("only_success", false),
		Limit:       request.GetInt("limit", 0),
	}

	results, err := s.store.ListPairResults(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list results: %v", err)), nil
	}

	type resultOut struct {
		ID            string  `json:"id"`
		TaskID        string  `json:"task_id"`
		Success       bool    `json:"success"`
		FailureReason string  `json:"failure_reason,omitempty"`
		FinalQuality  float64 `json:"final_quality"`
		DisasterScore int     `json:"disaster_score"`
		CreatedAt     string  `json:"created_at"`
	}

	out := make([]resultOut, len(results))
	for i, res := range results {
		out[i] = resultOut{
			ID:            res.ID,
			TaskID:        res.TaskID,
			Success:       res.Success,
			FailureReason: res.FailureReason,
			FinalQuality:  res.FinalQuality,
			DisasterScore: res.DisasterScore,
			CreatedAt:     res.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// pairloop_recent_history
func (s *Server) recentHistoryTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pairloop_recent_history",
		mcp.WithDescription("Get the in-memory buffer of recent runs from this process, newest first."),
	)
	return tool, s.handleRecentHistory
}

func (s *Server) handleRecentHistory(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recent := s.history.Recent()

	data, err := json.Marshal(recent)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal history: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// splitLines breaks a newline-separated string into trimmed non-empty entries.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
