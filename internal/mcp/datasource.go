package mcp

import (
	"context"

	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/storage"
)

// DataSource abstracts the history store for MCP tools. *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy it.
type DataSource interface {
	QuerySummaries(ctx context.Context, limit int, code string) ([]models.SummaryRow, error)
	SummaryStats(ctx context.Context) ([]storage.CodeStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
