// Package ops serves the operational HTTP surface: health, server
// info, and Prometheus metrics. It is separate from the wire protocol
// and disabled unless an address is configured.
package ops

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"rcord/internal/gateway"
	"rcord/internal/metrics"
	"rcord/internal/store"
)

// Deps carries everything the ops endpoints report on.
type Deps struct {
	Name        string
	Version     string
	ControlAddr string
	MediaAddr   string
	Store       *store.Store
	Registry    *gateway.Registry
	StartedAt   time.Time
}

type Server struct {
	router *chi.Mux
}

func NewServer(deps Deps) *Server {
	health := &healthHandler{store: deps.Store}
	info := &infoHandler{deps: deps}

	r := chi.NewRouter()
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(securityHeadersMiddleware)
	r.Use(httprate.LimitByIP(120, time.Minute))

	r.Get("/health", health.check)
	r.Get("/api/v1/server/info", info.get)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
		)
	})
}
