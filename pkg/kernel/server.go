package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/manthysbr/ianfluencer/internal/core/domain"
	"github.com/manthysbr/ianfluencer/internal/core/ports"
	"github.com/manthysbr/ianfluencer/internal/core/services"
)

const (
	maxBodySize     = 1 << 20
	defaultRunLimit = 50
)

// Deps are the collaborators the admin server reads from.
type Deps struct {
	Logger    *slog.Logger
	Scheduler *services.JobScheduler
	Generator *services.ContentGenerator
	Store     ports.ContentStore
	EventBus  *services.EventBus
	Runs      ports.RunRepository // optional; serves persisted run history

	// JobContext bounds job bodies started through the trigger endpoint.
	// Request contexts end with the response, so they cannot be used.
	JobContext context.Context

	AllowedOrigins []string
}

type Server struct {
	logger    *slog.Logger
	scheduler *services.JobScheduler
	generator *services.ContentGenerator
	store     ports.ContentStore
	eventBus  *services.EventBus
	runs      ports.RunRepository
	jobCtx    context.Context
	origins   []string
}

func NewServer(deps Deps) *Server {
	jobCtx := deps.JobContext
	if jobCtx == nil {
		jobCtx = context.Background()
	}
	return &Server{
		logger:    deps.Logger,
		scheduler: deps.Scheduler,
		generator: deps.Generator,
		store:     deps.Store,
		eventBus:  deps.EventBus,
		runs:      deps.Runs,
		jobCtx:    jobCtx,
		origins:   deps.AllowedOrigins,
	}
}

// Handler returns the routed API wrapped with CORS.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/jobs", s.handleListJobs)
		r.Post("/jobs/{name}/trigger", s.handleTriggerJob)
		r.Get("/runs", s.handleListRuns)
		r.Get("/personas", s.handleListPersonas)
		r.Post("/personas/generate", s.handleGeneratePersona)
		r.Get("/posts/{id}/comments", s.handleListComments)
		r.Get("/events", s.handleEventsSSE)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// GET /api/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.scheduler.Jobs()
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// POST /api/jobs/{name}/trigger
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := domain.JobName(chi.URLParam(r, "name"))

	run, err := s.scheduler.Fire(s.jobCtx, name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if run.Outcome == domain.RunOutcomeSkipped {
		writeJSON(w, http.StatusConflict, run)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}

// GET /api/runs?limit=N&source=memory|store
// The in-memory history is empty after a restart; the store then answers.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a positive integer")
			return
		}
		limit = n
	}

	source := r.URL.Query().Get("source")
	switch source {
	case "", "memory", "store":
	default:
		httpError(w, http.StatusBadRequest, "invalid_request_error", "source must be memory or store")
		return
	}

	var runs []domain.JobRun
	if source != "store" {
		runs = s.scheduler.History().Recent(limit)
	}
	if s.runs != nil && (source == "store" || (source == "" && len(runs) == 0)) {
		stored, err := s.runs.ListJobRuns(r.Context(), limit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		runs = stored
		source = "store"
	}
	if source == "" {
		source = "memory"
	}
	if runs == nil {
		runs = []domain.JobRun{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":   runs,
		"count":  len(runs),
		"source": source,
	})
}

// writeDomainError maps the generation and scheduling sentinels onto statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidContext):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrPersonaNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%v", err)
	case errors.Is(err, domain.ErrTimeout):
		httpError(w, http.StatusGatewayTimeout, "timeout_error", "%v", err)
	case errors.IsAny(err, domain.ErrTransport, domain.ErrEmptyResponse):
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
	default:
		s.logger.Error("request failed", "error", err)
		httpError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, errType, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": fmt.Sprintf(format, args...),
		},
	})
}
