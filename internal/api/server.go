// Package api exposes the dealiasing engine over HTTP: submit a sweep for
// dealiasing and retrieve past run summaries.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/velocity.report/internal/dealias"
	"github.com/banshee-data/velocity.report/internal/dealiasdb"
	"github.com/banshee-data/velocity.report/internal/dealiasrun"
	"github.com/banshee-data/velocity.report/internal/httputil"
)

// Server serves the dealiasing HTTP API backed by a run store.
type Server struct {
	store          *dealiasdb.Store
	defaultOptions dealias.Options
	mux            *http.ServeMux
}

// NewServer builds a Server backed by store. store may be nil, in which
// case runs are dealiased but not persisted.
func NewServer(store *dealiasdb.Store) *Server {
	return &Server{store: store, defaultOptions: dealias.DefaultOptions()}
}

// WithDefaultOptions overrides the engine options requests fall back to
// when a field is left unset, typically loaded from the tuning config
// file rather than the engine's built-in defaults.
func (s *Server) WithDefaultOptions(opts dealias.Options) *Server {
	s.defaultOptions = opts
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration for every request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("[%d] %s %s %vms", lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}

// ServeMux returns the Server's handler tree, building it on first call.
func (s *Server) ServeMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/api/dealias", s.handleDealias)
	s.mux.HandleFunc("/api/runs", s.handleListRuns)
	s.mux.HandleFunc("/api/runs/", s.handleGetRun)
	return s.mux
}

// Start launches the HTTP server and blocks until ctx is done or the
// server returns an error.
func (s *Server) Start(ctx context.Context, listen string) error {
	server := &http.Server{
		Addr:    listen,
		Handler: LoggingMiddleware(s.ServeMux()),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// dealiasRequest is the JSON payload for POST /api/dealias.
type dealiasRequest struct {
	SweepLabel      string      `json:"sweep_label"`
	Velocities      [][]float64 `json:"velocities"`
	Mask            [][]bool    `json:"mask"`
	Nyquist         float64     `json:"nyquist"`
	IntervalSplits  int         `json:"interval_splits"`
	SkipBetweenRays int         `json:"skip_between_rays"`
	SkipAlongRay    int         `json:"skip_along_ray"`
	Centered        bool        `json:"centered"`
	RaysWrapAround  bool        `json:"rays_wrap_around"`
}

// dealiasResponse is the JSON payload returned from POST /api/dealias.
type dealiasResponse struct {
	RunID     string           `json:"run_id"`
	Dealiased [][]float64      `json:"dealiased"`
	Stats     dealias.RunStats `json:"stats"`
}

func (s *Server) handleDealias(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	// Pre-fill the boolean fields so a request that omits them keeps the
	// server's defaults instead of the JSON zero value.
	req := dealiasRequest{
		Centered:       s.defaultOptions.Centered,
		RaysWrapAround: s.defaultOptions.RaysWrapAround,
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Nyquist <= 0 {
		httputil.BadRequest(w, "nyquist must be positive")
		return
	}

	opts := s.defaultOptions
	if req.IntervalSplits > 0 {
		opts.IntervalSplits = req.IntervalSplits
	}
	if req.SkipBetweenRays > 0 {
		opts.SkipBetweenRays = req.SkipBetweenRays
	}
	if req.SkipAlongRay > 0 {
		opts.SkipAlongRay = req.SkipAlongRay
	}
	opts.Centered = req.Centered
	opts.RaysWrapAround = req.RaysWrapAround

	result, err := dealiasrun.Execute(s.store, req.SweepLabel, req.Velocities, req.Mask, req.Nyquist, opts)
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("dealiasing failed: %v", err))
		return
	}

	httputil.WriteJSONOK(w, dealiasResponse{
		RunID:     result.RunID,
		Dealiased: result.Dealiased,
		Stats:     result.Stats,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.InternalServerError(w, "run store not configured")
		return
	}

	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID = strings.Trim(runID, "/")
	if runID == "" {
		httputil.BadRequest(w, "run id is required")
		return
	}

	run, err := s.store.GetRun(runID)
	if err != nil {
		if dealiasdb.IsNotFound(err) {
			httputil.NotFound(w, "run not found")
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve run: %v", err))
		return
	}

	httputil.WriteJSONOK(w, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.InternalServerError(w, "run store not configured")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}

	httputil.WriteJSONOK(w, runs)
}
