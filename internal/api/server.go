// Package api exposes the analysis pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/analysis"
	"github.com/sells-group/rival-intel/internal/model"
	"github.com/sells-group/rival-intel/internal/registry"
	"github.com/sells-group/rival-intel/internal/store"
)

// Analyzer runs one competitor analysis end to end.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*model.AnalysisResult, error)
}

// Server wires the HTTP surface to the analyzer, registry, and store.
type Server struct {
	analyzer    Analyzer
	store       store.Store
	registry    *registry.Registry
	corsOrigins []string
}

type Option func(*Server)

// WithCORSOrigins sets the allowed CORS origins. Default allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
	}
}

func NewServer(analyzer Analyzer, st store.Store, reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		analyzer:    analyzer,
		store:       st,
		registry:    reg,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/models", s.handleListModels)
	r.Post("/analyze", s.handleAnalyze)
	r.Route("/competitors", func(r chi.Router) {
		r.Get("/", s.handleListCompetitors)
		r.Get("/{id}", s.handleGetCompetitor)
		r.Delete("/{id}", s.handleDeleteCompetitor)
	})
	return r
}

// requestLogger emits one structured log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
