package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/workout"
)

// Output formats accepted by Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Sink persists computed summaries. Both *storage.DB and *journal.Journal satisfy it.
type Sink interface {
	InsertSummaries(ctx context.Context, rows []models.SummaryRow) (int64, error)
}

// Options controls a tracker run.
type Options struct {
	// Format is FormatText (message lines) or FormatJSON (one object per line).
	Format string
	// FailFast stops at the first bad record instead of skipping it.
	FailFast bool
	// Source tags persisted rows (e.g. "cli", "api").
	Source string
}

// RecordError describes a record that could not be summarized.
type RecordError struct {
	Index int    `json:"index"`
	Code  string `json:"code"`
	Err   string `json:"error"`
}

// Stats tracks a run's progress.
type Stats struct {
	Received  int           `json:"received"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Stored    int64         `json:"stored"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// Tracker turns sensor packages into summaries.
type Tracker struct {
	sink Sink
	log  *slog.Logger
	opts Options
}

// New creates a Tracker. sink may be nil.
func New(sink Sink, log *slog.Logger, opts Options) *Tracker {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Source == "" {
		opts.Source = "cli"
	}
	return &Tracker{sink: sink, log: log, opts: opts}
}

// jsonLine is the FormatJSON output record.
type jsonLine struct {
	Code string `json:"code"`
	models.Summary
	Message string `json:"message"`
}

// Run processes pkgs in order and writes one line per successful record to w.
// Without FailFast a bad record is logged and skipped; the returned Stats
// lists it.
func (tr *Tracker) Run(ctx context.Context, pkgs []models.Package, w io.Writer) (*Stats, error) {
	stats := &Stats{Received: len(pkgs)}
	rows := make([]models.SummaryRow, 0, len(pkgs))

	if tr.opts.Format != FormatText && tr.opts.Format != FormatJSON {
		return stats, fmt.Errorf("unknown output format %q", tr.opts.Format)
	}
	enc := json.NewEncoder(w)

	for i, p := range pkgs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		summary, err := Summarize(p)
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, RecordError{Index: i, Code: p.Code, Err: err.Error()})
			if tr.opts.FailFast {
				return stats, fmt.Errorf("record %d: %w", i, err)
			}
			tr.log.Error("skipping record", "index", i, "code", p.Code, "error", err)
			continue
		}

		if tr.opts.Format == FormatJSON {
			err = enc.Encode(jsonLine{Code: p.Code, Summary: summary, Message: summary.Message()})
		} else {
			_, err = fmt.Fprintln(w, summary.Message())
		}
		if err != nil {
			return stats, fmt.Errorf("writing summary: %w", err)
		}

		stats.Processed++
		rows = append(rows, models.NewSummaryRow(p.Code, tr.opts.Source, summary))
	}

	if tr.sink != nil && len(rows) > 0 {
		stored, err := tr.sink.InsertSummaries(ctx, rows)
		if err != nil {
			return stats, fmt.Errorf("storing summaries: %w", err)
		}
		stats.Stored = stored
		tr.log.Debug("summaries stored", "count", stored)
	}

	return stats, nil
}

// Summarize dispatches one package and computes its summary. A package that
// failed to decode returns its decode error.
func Summarize(p models.Package) (models.Summary, error) {
	if p.Err != nil {
		return models.Summary{}, p.Err
	}
	t, err := workout.Read(p.Code, p.Data)
	if err != nil {
		return models.Summary{}, err
	}
	return t.Summary(), nil
}
