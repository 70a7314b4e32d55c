package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pairloop/pairloop/internal/aggregate"
	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
	"github.com/pairloop/pairloop/internal/policy"
	"github.com/pairloop/pairloop/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store    store.Store
	registry *controller.Registry
	history  *aggregate.History
	cfg      controller.Config
}

// NewServer creates a new API server.
func NewServer(s store.Store, registry *controller.Registry, history *aggregate.History, cfg controller.Config) *Server {
	return &Server{
		store:    s,
		registry: registry,
		history:  history,
		cfg:      cfg,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/runs", s.createRun)
	mux.HandleFunc("GET /api/v1/runs", s.listRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/v1/runs/{id}/iterations", s.getRunIterations)

	mux.HandleFunc("GET /api/v1/history", s.recentHistory)
	mux.HandleFunc("GET /api/v1/specialties", s.listSpecialties)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Runs ---

// CreateRunRequest is the JSON body for POST /api/v1/runs.
type CreateRunRequest struct {
	ID                 string         `json:"id"`
	Description        string         `json:"description"`
	AcceptanceCriteria []string       `json:"acceptance_criteria"`
	Specialty          string         `json:"specialty"`
	Context            map[string]any `json:"context"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	specialty := controller.SpecialtyCode
	if req.Specialty != "" {
		specialty = controller.Specialty(req.Specialty)
	}
	capability, ok := s.registry.Get(specialty)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown specialty: %s", specialty))
		return
	}

	spec := models.TaskSpec{
		ID:                 req.ID,
		Description:        req.Description,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Context:            req.Context,
	}

	runner := controller.NewRunner(capability, s.cfg)
	result, err := runner.Run(r.Context(), spec, req.Context)
	if err != nil {
		var verr *controller.ValidationError
		var pviol *policy.Violation
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		case errors.As(err, &pviol):
			writeError(w, http.StatusUnprocessableEntity, pviol.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if err := s.store.SavePairResult(r.Context(), result); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save result: %v", err))
		return
	}
	s.history.Push(result)

	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.ResultListFilter{
		TaskID: r.URL.Query().Get("task_id"),
	}
	if r.URL.Query().Get("success") == "true" {
		filter.OnlySuccess = true
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = n
	}

	results, err := s.store.ListPairResults(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []*models.PairResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.store.GetPairResult(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getRunIterations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, err := s.store.GetPairResult(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	iterations := result.Iterations
	if iterations == nil {
		iterations = []models.IterationRecord{}
	}
	writeJSON(w, http.StatusOK, iterations)
}

// --- History ---

func (s *Server) recentHistory(w http.ResponseWriter, r *http.Request) {
	recent := s.history.Recent()
	if recent == nil {
		recent = []*models.PairResult{}
	}
	writeJSON(w, http.StatusOK, recent)
}

// --- Specialties ---

func (s *Server) listSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties := s.registry.Specialties()
	out := make([]string, 0, len(specialties))
	for _, sp := range specialties {
		out = append(out, string(sp))
	}
	writeJSON(w, http.StatusOK, out)
}
