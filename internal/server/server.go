package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/fittracker/internal/models"
	"github.com/meltforce/fittracker/internal/storage"
)

// Store is the history backend used by the handlers. *storage.DB satisfies it.
type Store interface {
	InsertSummary(ctx context.Context, row models.SummaryRow) (bool, error)
	InsertSummaries(ctx context.Context, rows []models.SummaryRow) (int64, error)
	QuerySummaries(ctx context.Context, limit int, code string) ([]models.SummaryRow, error)
	GetSummary(ctx context.Context, id uuid.UUID) (*models.SummaryRow, error)
	SummaryStats(ctx context.Context) ([]storage.CodeStats, error)
}

var _ Store = (*storage.DB)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  Store
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured. store may be nil, in
// which case summaries are computed but not persisted and history routes
// answer 503.
func New(store Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Batch ingest (API key required)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleIngest)
	})

	s.router.Post("/api/v1/summaries", s.handleComputeSummary)
	s.router.Get("/api/v1/summaries", s.handleQuerySummaries)
	s.router.Get("/api/v1/summaries/stats", s.handleSummaryStats)
	s.router.Get("/api/v1/summaries/{id}", s.handleGetSummary)
	s.router.Get("/api/v1/workout-types", s.handleWorkoutTypes)
}

// MountMCP serves an MCP transport handler under /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
	s.router.Handle("/mcp/*", h)
}
