package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// summaryMessage is the fixed layout of a rendered training summary.
const summaryMessage = "Training type: %s; " +
	"Duration: %.3f h.; " +
	"Distance: %.3f km; " +
	"Avg speed: %.3f km/h; " +
	"Calories burned: %.3f."

// Summary is the computed result of a single workout.
type Summary struct {
	Type     string  `json:"training_type"`
	Duration float64 `json:"duration_h"`
	Distance float64 `json:"distance_km"`
	Speed    float64 `json:"speed_kmh"`
	Calories float64 `json:"calories_kcal"`
}

// Message renders the summary as a single human-readable line.
func (s Summary) Message() string {
	return fmt.Sprintf(summaryMessage, s.Type, s.Duration, s.Distance, s.Speed, s.Calories)
}

// Package is one raw input record: a workout code and its positional arguments.
// Err is set when the record could not be decoded; it is reported as a failed
// record instead of being summarized.
type Package struct {
	Code string    `json:"code" yaml:"code"`
	Data []float64 `json:"data" yaml:"data"`
	Err  error     `json:"-" yaml:"-"`
}

// SummaryRow is a summary ready for insertion into the training_summaries table
// or the local journal.
type SummaryRow struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	Summary
}

// NewSummaryRow wraps a computed summary with a fresh ID.
func NewSummaryRow(code, source string, s Summary) SummaryRow {
	return SummaryRow{
		ID:        uuid.New(),
		Code:      code,
		Source:    source,
		CreatedAt: time.Now().UTC(),
		Summary:   s,
	}
}
