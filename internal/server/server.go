// Package server exposes computed result documents, health, and metrics
// over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/health"
	"github.com/oss-pulse/contrib-stats/internal/store"
)

const tracerName = "contrib-stats/internal/server"

// Config controls the HTTP surface.
type Config struct {
	Listen string
	// Refresh is the interval between pipeline refreshes; zero disables
	// periodic refresh.
	Refresh time.Duration
	// MaxResultAge marks results older than this as stale in health
	// reporting. Zero disables the staleness check.
	MaxResultAge time.Duration
	// Prefix is the document key prefix the metrics collector expects on
	// contributor series.
	Prefix string
}

// RefreshFunc rebuilds and republishes all result documents.
type RefreshFunc func(ctx context.Context) error

// Server serves result documents from a store and keeps them fresh.
type Server struct {
	cfg       Config
	logger    *zap.Logger
	store     store.Store
	refresh   RefreshFunc
	evaluator *health.StatusEvaluator

	mu          sync.RWMutex
	lastRefresh time.Time
}

// New creates a server over the given store. refresh may be nil when the
// server only serves previously published documents.
func New(cfg Config, logger *zap.Logger, st store.Store, refresh RefreshFunc) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		refresh:   refresh,
		evaluator: health.NewStatusEvaluator(),
	}
}

// Handler wires results, metrics, and health endpoints on a single router.
func (s *Server) Handler() http.Handler {
	healthHandler := health.NewHandler(s)
	metricsHandler := NewMetricsHandler(&storeSnapshotter{
		store:  s.store,
		prefix: s.cfg.Prefix,
		logger: s.logger,
	})

	router := chi.NewRouter()
	router.Get("/results", wrapHTTPHandler("results_index", http.HandlerFunc(s.handleResultsIndex)).ServeHTTP)
	router.Get("/results/{name}", wrapHTTPHandler("results_get", http.HandlerFunc(s.handleResult)).ServeHTTP)
	router.Handle("/metrics", wrapHTTPHandler("metrics", metricsHandler))
	router.Handle("/livez", wrapHTTPHandler("livez", healthHandler))
	router.Handle("/readyz", wrapHTTPHandler("readyz", healthHandler))
	router.Handle("/healthz", wrapHTTPHandler("healthz", healthHandler))
	return router
}

// Run serves HTTP until ctx is cancelled, refreshing documents periodically
// when configured.
func (s *Server) Run(ctx context.Context) error {
	if s.refresh != nil {
		if err := s.doRefresh(ctx); err != nil {
			s.logger.Error("initial refresh failed", zap.Error(err))
		}
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Listen))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	if s.refresh != nil && s.cfg.Refresh > 0 {
		go s.refreshLoop(ctx)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.doRefresh(ctx); err != nil {
				s.logger.Error("periodic refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *Server) doRefresh(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "server.refresh")
	defer span.End()

	start := time.Now()
	if err := s.refresh(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	s.logger.Info("results refreshed", zap.Duration("elapsed", time.Since(start)))
	span.SetStatus(codes.Ok, "refresh completed")
	return nil
}

// CurrentStatus implements health.Provider.
func (s *Server) CurrentStatus(ctx context.Context) health.Status {
	names, err := s.store.Names(ctx)

	s.mu.RLock()
	lastRefresh := s.lastRefresh
	s.mu.RUnlock()

	maxAge := s.cfg.MaxResultAge
	if s.refresh == nil {
		// Serving a static store; staleness is not this process's fault.
		maxAge = 0
	}

	return s.evaluator.Evaluate(health.Input{
		StoreHealthy:   err == nil,
		ResultsPresent: len(names) > 0,
		LastRefresh:    lastRefresh,
		MaxResultAge:   maxAge,
	})
}

func (s *Server) handleResultsIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Names(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	if names == nil {
		names = make([]string, 0)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"documents": names}); err != nil {
		s.logger.Warn("write results index failed", zap.Error(err))
	}
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := store.ValidateName(name); err != nil {
		http.Error(w, "invalid document name", http.StatusBadRequest)
		return
	}

	payload, err := s.store.Get(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("read document failed", zap.String("document", name), zap.Error(err))
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(payload); err != nil {
		s.logger.Warn("write document failed", zap.String("document", name), zap.Error(err))
	}
}

func wrapHTTPHandler(route string, handler http.Handler) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := otel.Tracer(tracerName).Start(
			r.Context(),
			"http.server."+route,
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		recorder := &statusCapturingResponseWriter{
			ResponseWriter: w,
			status:         http.StatusOK,
		}
		handler.ServeHTTP(recorder, r.WithContext(ctx))
		span.SetAttributes(attribute.Int("http.status_code", recorder.status))
		if recorder.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(recorder.status))
			return
		}
		span.SetStatus(codes.Ok, "request completed")
	})
}

type statusCapturingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
