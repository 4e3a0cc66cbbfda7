package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appincidents "github.com/bryanwahyu/incident-responder/internal/application/incidents"
	domain "github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/middleware"
)

type Router struct {
	svc *appincidents.Service
}

func NewRouter(svc *appincidents.Service, health map[string]middleware.HealthChecker) http.Handler {
	r := &Router{svc: svc}
	mux := chi.NewRouter()

	mux.Use(middleware.LoggingMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	mux.Get("/health", middleware.HealthHandler(health))
	mux.Get("/ready", middleware.ReadinessHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/incidents", r.wrap(r.handleIngest))
		rt.Get("/incidents", r.wrap(r.handleLatest))
		rt.Get("/incidents/{id}", r.wrap(r.handleGet))
		rt.Get("/incidents/{id}/steps", r.wrap(r.handleSteps))
		rt.Get("/incidents/{id}/report", r.wrap(r.handleReport))
		rt.Post("/incidents/{id}/reopen", r.wrap(r.handleReopen))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound),
				errors.Is(err, domain.ErrReportNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, domain.ErrDuplicate),
				errors.Is(err, domain.ErrInvalidTransition):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/incidents
// Body: {"id": "INC001", "service": "checkout", "environment": "prod",
// "severity": "high", "payload": {"alert_type": "db_connection", ...}}
func (r *Router) handleIngest(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ID          string         `json:"id"`
		Service     string         `json:"service"`
		Environment string         `json:"environment"`
		Severity    string         `json:"severity"`
		Payload     map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}
	if body.Service == "" {
		http.Error(w, "service is required", http.StatusBadRequest)
		return nil
	}

	inc, err := r.svc.Ingest(req.Context(), appincidents.IngestCommand{
		ID:          body.ID,
		Service:     body.Service,
		Environment: body.Environment,
		Severity:    body.Severity,
		Payload:     body.Payload,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, inc)
}

// GET /v1/incidents?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/incidents/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	inc, err := r.svc.Get(req.Context(), domain.ID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, inc)
}

// GET /v1/incidents/{id}/steps
func (r *Router) handleSteps(w http.ResponseWriter, req *http.Request) error {
	steps, err := r.svc.Steps(req.Context(), domain.ID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	if steps == nil {
		steps = []*domain.Step{}
	}
	return writeJSON(w, http.StatusOK, steps)
}

// GET /v1/incidents/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	rep, err := r.svc.LatestReport(req.Context(), domain.ID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// POST /v1/incidents/{id}/reopen
func (r *Router) handleReopen(w http.ResponseWriter, req *http.Request) error {
	id := domain.ID(chi.URLParam(req, "id"))
	inc, err := r.svc.Reopen(req.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return fmt.Errorf("incident %s is not FAILED: %w", id, err)
		}
		return err
	}
	return writeJSON(w, http.StatusOK, inc)
}
