package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/tracker"
	"github.com/meltforce/fittracker/internal/workout"
)

// parseData converts "15000, 1, 75" into positional arguments.
func parseData(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' })
	if len(fields) == 0 {
		return nil, fmt.Errorf("no values")
	}
	data := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		data = append(data, v)
	}
	return data, nil
}

// --- Tool definitions ---

var toolComputeTrainingSummary = mcp.NewTool("compute_training_summary",
	mcp.WithDescription("Compute distance (km), average speed (km/h) and calories burned (kcal) for one workout. Returns the summary fields and the formatted summary line."),
	mcp.WithString("code", mcp.Required(), mcp.Description("Workout code"), mcp.Enum(workout.CodeSwimming, workout.CodeRunning, workout.CodeSportsWalking)),
	mcp.WithString("data", mcp.Required(), mcp.Description("Comma separated positional arguments. SWM: action, duration_h, weight_kg, pool_length_m, pool_count. RUN: action, duration_h, weight_kg. WLK: action, duration_h, weight_kg, height_cm.")),
)

var toolListWorkoutTypes = mcp.NewTool("list_workout_types",
	mcp.WithDescription("List supported workout codes with their labels and argument layout."),
)

var toolGetRecentSummaries = mcp.NewTool("get_recent_summaries",
	mcp.WithDescription("Return the most recently stored training summaries, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum rows to return. Defaults to 20.")),
	mcp.WithString("code", mcp.Description("Filter by workout code"), mcp.Enum(workout.CodeSwimming, workout.CodeRunning, workout.CodeSportsWalking)),
)

var toolGetSummaryStats = mcp.NewTool("get_summary_stats",
	mcp.WithDescription("Per workout code totals over stored summaries: count, hours, distance, calories, average speed."),
)

// --- Tool handlers ---

type summaryResult struct {
	Code string `json:"code"`
	models.Summary
	Message string `json:"message"`
}

func (h *handlers) computeTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code parameter is required"), nil
	}
	raw, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError("data parameter is required"), nil
	}
	data, err := parseData(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid data: " + err.Error()), nil
	}

	summary, err := tracker.Summarize(models.Package{Code: code, Data: data})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summaryResult{Code: code, Summary: summary, Message: summary.Message()})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkoutTypes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(workout.Types())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecentSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	code := req.GetString("code", "")

	rows, err := h.ds.QuerySummaries(ctx, limit, code)
	if err != nil {
		h.log.Error("get_recent_summaries failed", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if rows == nil {
		rows = []models.SummaryRow{}
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSummaryStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.SummaryStats(ctx)
	if err != nil {
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
