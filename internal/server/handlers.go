package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/fittracker/internal/ingest/packages"
	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/storage"
	"github.com/meltforce/fittracker/internal/tracker"
	"github.com/meltforce/fittracker/internal/workout"
)

// summaryResponse is a computed summary plus its rendered message.
type summaryResponse struct {
	models.SummaryRow
	Message string `json:"message"`
}

// ingestResponse reports a batch ingest.
type ingestResponse struct {
	*tracker.Stats
	Messages []string `json:"messages"`
}

func (s *Server) handleComputeSummary(w http.ResponseWriter, r *http.Request) {
	var pkg models.Package
	if err := json.NewDecoder(r.Body).Decode(&pkg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	summary, err := tracker.Summarize(pkg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	row := models.NewSummaryRow(pkg.Code, "api", summary)
	if s.store != nil {
		if _, err := s.store.InsertSummary(r.Context(), row); err != nil {
			s.log.Error("storing summary", "code", pkg.Code, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, summaryResponse{SummaryRow: row, Message: summary.Message()})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	format := packages.FormatLines
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = packages.FormatYAML
	}

	pkgs, err := packages.Parse(r.Body, format)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var sink tracker.Sink
	if s.store != nil {
		sink = s.store
	}

	var out bytes.Buffer
	stats, err := tracker.New(sink, s.log, tracker.Options{Source: "api"}).Run(r.Context(), pkgs, &out)
	if err != nil {
		s.log.Error("ingest error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	messages := []string{}
	if out.Len() > 0 {
		messages = strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	}
	writeJSON(w, http.StatusOK, ingestResponse{Stats: stats, Messages: messages})
}

func (s *Server) handleQuerySummaries(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	code := r.URL.Query().Get("code")
	if code != "" {
		if _, err := workout.KindOf(code); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	rows, err := s.store.QuerySummaries(r.Context(), limit, code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []models.SummaryRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	row, err := s.store.GetSummary(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{SummaryRow: *row, Message: row.Message()})
}

func (s *Server) handleSummaryStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	stats, err := s.store.SummaryStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleWorkoutTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, workout.Types())
}

// requireStore answers 503 when no history store is configured.
func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history store not configured"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
