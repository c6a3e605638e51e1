// Package api exposes the query engine over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"cryptometrics/internal/query"
	"cryptometrics/pkg/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	engine         *query.Engine
	logger         *zap.Logger
	streamInterval time.Duration
	upgrader       websocket.Upgrader
	health         storage.HealthChecker // optional
}

func NewServer(engine *query.Engine, logger *zap.Logger, streamInterval time.Duration) *Server {
	if streamInterval <= 0 {
		streamInterval = 15 * time.Second
	}
	return &Server{
		engine:         engine,
		logger:         logger,
		streamInterval: streamInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WithHealthCheck makes /healthz report 503 while the store is unreachable.
func (s *Server) WithHealthCheck(hc storage.HealthChecker) *Server {
	s.health = hc
	return s
}

// Router mounts the query endpoints. A non-nil registry is served on /metrics.
func (s *Server) Router(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/latest", s.handleLatest)
		r.Get("/log", s.handleLog)
		r.Get("/stream", s.handleStream)
		r.Route("/coins/{coinID}", func(r chi.Router) {
			r.Get("/series", s.handleSeries)
			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

// MetricsRouter serves only /metrics, for a collector without the query API.
func MetricsRouter(registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if !s.health.IsHealthy(ctx) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
