package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/crisis-triage-service/internal/domain"
	"github.com/couchcryptid/crisis-triage-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CrisisService is the read side the API serves from.
type CrisisService interface {
	CheckReadiness(ctx context.Context) error
	Crises(ctx context.Context) ([]domain.NormalizedCrisis, error)
	Resources(ctx context.Context) ([]domain.NormalizedResource, error)
	Recommend(ctx context.Context, crisisID string) ([]domain.ResourceRecommendation, error)
}

// Server exposes the crisis API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	service    CrisisService
	audit      domain.AuditLog
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz,
// and /metrics. Pass a nil clock for the real clock.
func NewServer(addr string, service CrisisService, audit domain.AuditLog, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: service,
		audit:   audit,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(service))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/crisis", s.handleCrises)
	mux.HandleFunc("GET /api/resources", s.handleResources)
	mux.HandleFunc("GET /api/recommendations/{id}", s.handleRecommendations)
	mux.HandleFunc("POST /api/confirm", s.handleConfirm)
	mux.HandleFunc("POST /api/report", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
