package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/fittracker/internal/models"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal is a local SQLite log of summaries produced by offline CLI runs.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dir/journal.db.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS summaries (
		id            TEXT PRIMARY KEY,
		code          TEXT NOT NULL,
		source        TEXT NOT NULL,
		training_type TEXT NOT NULL,
		duration_h    REAL NOT NULL,
		distance_km   REAL NOT NULL,
		speed_kmh     REAL NOT NULL,
		calories_kcal REAL NOT NULL,
		created_at    TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// InsertSummaries records rows in a single transaction. Returns count inserted.
func (j *Journal) InsertSummaries(ctx context.Context, rows []models.SummaryRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning journal tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO summaries
		 (id, code, source, training_type, duration_h, distance_km, speed_kmh, calories_kcal, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, r := range rows {
		res, err := stmt.ExecContext(ctx, r.ID.String(), r.Code, r.Source, r.Type,
			r.Duration, r.Distance, r.Speed, r.Calories, r.CreatedAt.UTC().Format(timeLayout))
		if err != nil {
			return 0, fmt.Errorf("recording summary %s: %w", r.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting journal insert %s: %w", r.ID, err)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing journal tx: %w", err)
	}
	return inserted, nil
}

// Recent returns the most recent journal entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]models.SummaryRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, code, source, training_type, duration_h, distance_km, speed_kmh, calories_kcal, created_at
		 FROM summaries ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var result []models.SummaryRow
	for rows.Next() {
		var (
			r         models.SummaryRow
			id        string
			createdAt string
		)
		if err := rows.Scan(&id, &r.Code, &r.Source, &r.Type, &r.Duration, &r.Distance,
			&r.Speed, &r.Calories, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("journal row id %q: %w", id, err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("journal row time %q: %w", createdAt, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
