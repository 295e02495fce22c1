package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered. ds may be
// nil; history tools are then omitted.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("fittracker", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("fittracker computes training summaries (distance, average speed, calories) from raw workout sensor readings for running (RUN), sports walking (WLK) and swimming (SWM)."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolComputeTrainingSummary, Handler: h.computeTrainingSummary},
		server.ServerTool{Tool: toolListWorkoutTypes, Handler: h.listWorkoutTypes},
	)
	if ds != nil {
		s.AddTools(
			server.ServerTool{Tool: toolGetRecentSummaries, Handler: h.getRecentSummaries},
			server.ServerTool{Tool: toolGetSummaryStats, Handler: h.getSummaryStats},
		)
	}

	s.AddResources(
		server.ServerResource{Resource: resWorkoutTypes, Handler: h.workoutTypes},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resWorkoutTypes = mcp.NewResource(
	"fittracker://workout_types",
	"Workout Types",
	mcp.WithResourceDescription("Supported workout codes, display labels and positional argument layout"),
	mcp.WithMIMEType("application/json"),
)
