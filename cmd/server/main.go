package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/quantfold/bayesab/bayes"
	"github.com/quantfold/bayesab/experiment"
	"github.com/quantfold/bayesab/internal/logger"
)

// Analyses past this wall-clock budget get a sampled warning; they
// usually mean someone posted an enormous iteration count.
const slowAnalysisThreshold = 30 * time.Second

type Server struct {
	db      *sql.DB // nil when running on the in-memory store
	manager *experiment.Manager
	engine  *bayes.Engine
	router  *chi.Mux
}

// NewServer wires the store, manager, and inference engine. With an
// empty databaseURL the server runs on the in-memory store, which is
// enough for ad-hoc analyses and tests; experiments then do not
// survive restarts.
func NewServer(databaseURL string) (*Server, error) {
	engine := bayes.NewEngine(logger.Logger)

	var db *sql.DB
	var store experiment.Store
	if databaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory experiment store")
		store = experiment.NewInMemoryStore()
	} else {
		var err error
		db, err = sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, err
		}
		return NewServerWithDB(db)
	}

	manager := experiment.NewManager(store, engine, logger.Logger)

	// Report what the registry holds at startup.
	existing, err := manager.List()
	if err != nil {
		return nil, err
	}
	logger.Info("experiment registry loaded", "experiments", len(existing))

	s := &Server{
		db:      db,
		manager: manager,
		engine:  engine,
	}

	s.setupRoutes()

	return s, nil
}

// NewServerWithDB builds a server around an existing database handle.
// Useful for tests that manage the connection themselves.
func NewServerWithDB(db *sql.DB) (*Server, error) {
	engine := bayes.NewEngine(logger.Logger)
	manager := experiment.NewManager(experiment.NewPostgresStore(db), engine, logger.Logger)

	existing, err := manager.List()
	if err != nil {
		return nil, err
	}
	logger.Info("experiment registry loaded", "experiments", len(existing))

	s := &Server{
		db:      db,
		manager: manager,
		engine:  engine,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Ad-hoc analysis, nothing persisted
	r.Post("/api/v1/analyze", s.handleAnalyze)

	// Experiment management
	r.Route("/api/v1/experiments", func(r chi.Router) {
		r.Get("/", s.handleListExperiments)
		r.Post("/", s.handleCreateExperiment)

		r.Route("/{experimentId}", func(r chi.Router) {
			r.Get("/", s.handleGetExperiment)
			r.Put("/", s.handleUpdateExperiment)
			r.Delete("/", s.handleDeleteExperiment)
			r.Post("/run", s.handleRunExperiment)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
	})
}

// Ad-hoc analysis handler: runs the full pipeline on the posted
// design without storing anything.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cfg, chains := req.samplerConfig()

	startTime := time.Now()
	result, err := s.engine.AnalyzeChains(
		req.GroupA, req.GroupB,
		priorOrDefault(req.PriorA), priorOrDefault(req.PriorB),
		cfg, chains)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}

	elapsed := time.Since(startTime)
	if elapsed > slowAnalysisThreshold {
		logger.WarnSlowAnalysis("ad-hoc", elapsed.Seconds())
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Result:       result,
		AnalysisTime: elapsed.String(),
	})
}

// List experiments handler
func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := s.manager.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list experiments", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"experiments": experiments,
	})
}

// Create experiment handler
func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req CreateExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	created, err := s.manager.Create(req.toExperiment())
	if err != nil {
		if errors.Is(err, bayes.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid experiment design", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create experiment", err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Get experiment handler
func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "experimentId")

	e, err := s.manager.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "experiment not found", err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// Update experiment handler
func (s *Server) handleUpdateExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "experimentId")

	var req CreateExperimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	e := req.toExperiment()
	e.ID = id
	if err := s.manager.Update(e); err != nil {
		if errors.Is(err, bayes.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid experiment design", err)
			return
		}
		respondError(w, http.StatusNotFound, "experiment not found", err)
		return
	}

	respondJSON(w, http.StatusOK, e)
}

// Delete experiment handler
func (s *Server) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "experimentId")

	if err := s.manager.Delete(id); err != nil {
		respondError(w, http.StatusNotFound, "experiment not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Run experiment handler: analyzes a stored design, serving a cached
// result when the design has not changed since the last run.
func (s *Server) handleRunExperiment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "experimentId")

	var req RunRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	cfg, chains := req.samplerConfig()

	startTime := time.Now()
	result, err := s.manager.Run(id, cfg, chains)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}

	elapsed := time.Since(startTime)
	if elapsed > slowAnalysisThreshold {
		logger.WarnSlowAnalysis(id, elapsed.Seconds())
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		Result:       result,
		AnalysisTime: elapsed.String(),
	})
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// respondAnalysisError maps the inference error taxonomy onto HTTP
// statuses: bad inputs are the client's fault, a degenerate chain is a
// server-side sampling failure with diagnostics attached.
func respondAnalysisError(w http.ResponseWriter, err error) {
	var degenerate *bayes.DegenerateChain
	switch {
	case errors.Is(err, bayes.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid analysis inputs", err)
	case errors.As(err, &degenerate):
		logger.ErrorDegenerateChain(degenerate.Error())
		respondError(w, http.StatusUnprocessableEntity, "sampler failed to mix", err)
	default:
		respondError(w, http.StatusNotFound, "analysis failed", err)
	}
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")

	server, err := NewServer(databaseURL)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // long analyses hold the response open
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}
}
