package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/meltforce/fittracker/internal/ingest/packages"
	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/workout"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type memSink struct {
	rows []models.SummaryRow
	err  error
}

func (s *memSink) InsertSummaries(_ context.Context, rows []models.SummaryRow) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.rows = append(s.rows, rows...)
	return int64(len(rows)), nil
}

// TestRunDefaultPackages verifies the sample run prints the expected three lines in order.
func TestRunDefaultPackages(t *testing.T) {
	var buf bytes.Buffer
	stats, err := New(nil, discard, Options{}).Run(context.Background(), packages.Default(), &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Training type: Swimming; Duration: 1.000 h.; Distance: 0.994 km; Avg speed: 1.000 km/h; Calories burned: 336.000.\n" +
		"Training type: Running; Duration: 1.000 h.; Distance: 9.750 km; Avg speed: 9.750 km/h; Calories burned: 699.750.\n" +
		"Training type: SportsWalking; Duration: 1.000 h.; Distance: 5.850 km; Avg speed: 5.850 km/h; Calories burned: 157.500.\n"
	if got := buf.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
	if stats.Processed != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestRunSkipsBadRecords verifies per-record isolation: a bad code is reported
// and the remaining records still produce output.
func TestRunSkipsBadRecords(t *testing.T) {
	pkgs := []models.Package{
		{Code: "RUN", Data: []float64{15000, 1, 75}},
		{Code: "XYZ", Data: []float64{1, 1, 1}},
		{Code: "WLK", Data: []float64{9000, 0, 75, 180}},
		{Code: "SWM", Data: []float64{720, 1, 80, 25, 40}},
	}
	sink := &memSink{}
	var buf bytes.Buffer
	stats, err := New(sink, discard, Options{}).Run(context.Background(), pkgs, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Processed != 2 || stats.Failed != 2 {
		t.Errorf("stats = %+v, want 2 processed, 2 failed", stats)
	}
	if lines := strings.Count(buf.String(), "\n"); lines != 2 {
		t.Errorf("output lines = %d, want 2", lines)
	}
	if stats.Errors[0].Index != 1 || !strings.Contains(stats.Errors[0].Err, "XYZ") {
		t.Errorf("errors[0] = %+v", stats.Errors[0])
	}
	if stats.Stored != 2 || len(sink.rows) != 2 {
		t.Errorf("stored = %d, sink rows = %d, want 2", stats.Stored, len(sink.rows))
	}
	if sink.rows[1].Code != "SWM" || sink.rows[1].Source != "cli" {
		t.Errorf("sink.rows[1] = %+v", sink.rows[1])
	}
}

// TestRunLineInputWithBadRow verifies a row that failed to parse is counted
// as failed while its neighbours are still summarized.
func TestRunLineInputWithBadRow(t *testing.T) {
	input := "RUN;15000;1;75\nWLK;9000;1;abc;180\nSWM;720;1;80;25;40\n"
	pkgs, err := packages.Parse(strings.NewReader(input), packages.FormatLines)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var buf bytes.Buffer
	stats, err := New(nil, discard, Options{}).Run(context.Background(), pkgs, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Received != 3 || stats.Processed != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 3 received, 2 processed, 1 failed", stats)
	}
	if stats.Errors[0].Index != 1 || stats.Errors[0].Code != "WLK" || !strings.Contains(stats.Errors[0].Err, "line 2") {
		t.Errorf("errors[0] = %+v", stats.Errors[0])
	}
	want := "Training type: Running; Duration: 1.000 h.; Distance: 9.750 km; Avg speed: 9.750 km/h; Calories burned: 699.750.\n" +
		"Training type: Swimming; Duration: 1.000 h.; Distance: 0.994 km; Avg speed: 1.000 km/h; Calories burned: 336.000.\n"
	if got := buf.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}

	_, err = New(nil, discard, Options{FailFast: true}).Run(context.Background(), pkgs, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "record 1") {
		t.Errorf("fail-fast err = %v, want record 1", err)
	}
}

// TestRunFailFast verifies the first bad record aborts the run.
func TestRunFailFast(t *testing.T) {
	pkgs := []models.Package{
		{Code: "XYZ", Data: []float64{1, 1, 1}},
		{Code: "RUN", Data: []float64{15000, 1, 75}},
	}
	var buf bytes.Buffer
	_, err := New(nil, discard, Options{FailFast: true}).Run(context.Background(), pkgs, &buf)
	if !errors.Is(err, workout.ErrUnknownCode) {
		t.Fatalf("err = %v, want ErrUnknownCode", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

// TestRunJSON verifies the JSON output carries the computed fields and message.
func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	pkgs := []models.Package{{Code: "RUN", Data: []float64{15000, 1, 75}}}
	if _, err := New(nil, discard, Options{Format: FormatJSON}).Run(context.Background(), pkgs, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Code     string  `json:"code"`
		Type     string  `json:"training_type"`
		Distance float64 `json:"distance_km"`
		Message  string  `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Code != "RUN" || got.Type != "Running" || got.Distance != 9.75 {
		t.Errorf("got %+v", got)
	}
	if !strings.HasPrefix(got.Message, "Training type: Running;") {
		t.Errorf("message = %q", got.Message)
	}
}

// TestRunUnknownFormat verifies an unsupported output format is rejected up front.
func TestRunUnknownFormat(t *testing.T) {
	_, err := New(nil, discard, Options{Format: "xml"}).Run(context.Background(), packages.Default(), io.Discard)
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

// TestRunSinkError verifies storage failures surface as run errors.
func TestRunSinkError(t *testing.T) {
	sink := &memSink{err: errors.New("db down")}
	_, err := New(sink, discard, Options{}).Run(context.Background(), packages.Default(), io.Discard)
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("err = %v, want storage error", err)
	}
}

// TestRunCancelled verifies a cancelled context stops processing.
func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := New(nil, discard, Options{}).Run(ctx, packages.Default(), io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if stats.Processed != 0 {
		t.Errorf("processed = %d, want 0", stats.Processed)
	}
}
