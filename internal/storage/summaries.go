package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/fittracker/internal/models"
)

// ErrNotFound is returned when a summary ID does not exist.
var ErrNotFound = errors.New("summary not found")

const summaryColumns = `id, code, source, training_type, duration_h, distance_km, speed_kmh, calories_kcal, created_at`

// InsertSummary inserts a single summary row. Returns true if inserted, false if duplicate.
func (db *DB) InsertSummary(ctx context.Context, row models.SummaryRow) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO training_summaries (`+summaryColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT DO NOTHING`,
		row.ID, row.Code, row.Source, row.Type, row.Duration, row.Distance,
		row.Speed, row.Calories, row.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("inserting summary: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertSummaries batch-inserts summary rows. Returns count inserted.
func (db *DB) InsertSummaries(ctx context.Context, rows []models.SummaryRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO training_summaries (` + summaryColumns + `) VALUES `
	args := make([]any, 0, len(rows)*9)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * 9
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, r.ID, r.Code, r.Source, r.Type, r.Duration, r.Distance,
			r.Speed, r.Calories, r.CreatedAt)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting summaries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QuerySummaries returns the most recent summaries, optionally filtered by workout code.
func (db *DB) QuerySummaries(ctx context.Context, limit int, code string) ([]models.SummaryRow, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + summaryColumns + ` FROM training_summaries`
	args := []any{limit}
	if code != "" {
		query += ` WHERE code = $2`
		args = append(args, code)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var result []models.SummaryRow
	for rows.Next() {
		var r models.SummaryRow
		if err := scanSummary(rows, &r); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetSummary returns a single summary by ID.
func (db *DB) GetSummary(ctx context.Context, id uuid.UUID) (*models.SummaryRow, error) {
	var r models.SummaryRow
	err := scanSummary(db.Pool.QueryRow(ctx,
		`SELECT `+summaryColumns+` FROM training_summaries WHERE id = $1`, id), &r)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting summary %s: %w", id, err)
	}
	return &r, nil
}

// CodeStats aggregates stored summaries for one workout code.
type CodeStats struct {
	Code          string  `json:"code"`
	TrainingType  string  `json:"training_type"`
	Count         int64   `json:"count"`
	TotalHours    float64 `json:"total_hours"`
	TotalDistance float64 `json:"total_distance_km"`
	TotalCalories float64 `json:"total_calories_kcal"`
	AvgSpeed      float64 `json:"avg_speed_kmh"`
}

// SummaryStats returns per-code totals over all stored summaries.
func (db *DB) SummaryStats(ctx context.Context) ([]CodeStats, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT code, MIN(training_type), COUNT(*), SUM(duration_h), SUM(distance_km),
		        SUM(calories_kcal), AVG(speed_kmh)
		 FROM training_summaries
		 GROUP BY code
		 ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("querying summary stats: %w", err)
	}
	defer rows.Close()

	var result []CodeStats
	for rows.Next() {
		var s CodeStats
		if err := rows.Scan(&s.Code, &s.TrainingType, &s.Count, &s.TotalHours,
			&s.TotalDistance, &s.TotalCalories, &s.AvgSpeed); err != nil {
			return nil, fmt.Errorf("scanning summary stats: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanSummary(row pgx.Row, r *models.SummaryRow) error {
	return row.Scan(&r.ID, &r.Code, &r.Source, &r.Type, &r.Duration, &r.Distance,
		&r.Speed, &r.Calories, &r.CreatedAt)
}
