package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docchat-service/internal/config"
	"docchat-service/internal/usecase"
)

// sessionCookie carries the session id for browser clients. Query parameter
// and X-Session-ID header take precedence.
const (
	sessionCookie    = "docchat_session"
	cookieLifetime   = 7 * 24 * time.Hour
	sessionQueryKey  = "session_id"
	sessionHeaderKey = "X-Session-ID"
)

// HealthReporter is what /health needs from the background reaper.
type HealthReporter interface {
	Healthy() bool
}

// Server is the HTTP boundary: a thin wrapper resolving session ids and
// translating between JSON and the session engine's operations.
type Server struct {
	sessions usecase.SessionUseCase
	ingest   usecase.IngestUseCase
	query    usecase.QueryUseCase
	reaper   HealthReporter
	maxBytes int64
	log      *zerolog.Logger
}

func NewServer(
	sessions usecase.SessionUseCase,
	ingest usecase.IngestUseCase,
	query usecase.QueryUseCase,
	reaper HealthReporter,
	cfg config.UploadConfig,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		sessions: sessions,
		ingest:   ingest,
		query:    query,
		reaper:   reaper,
		maxBytes: cfg.MaxBytes,
		log:      &l,
	}
}

// Routes assembles the router. Session-scoped routes resolve the id from
// query parameter, header, then cookie; upload and query auto-create a
// session when none resolves.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)

	r.Get("/", s.handleRoot)
	r.Post("/session", s.handleCreateSession)
	r.Get("/session/info", s.handleSessionInfo)
	r.Delete("/session", s.handleDeleteSession)
	r.Post("/upload", s.handleUpload)
	r.Post("/query", s.handleQuery)
	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/cleanup", s.handleCleanup)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
