// Package web provides the JSON HTTP API for translocation records.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/translocations/internal/config"
	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/metrics"
	mw "github.com/JonMunkholm/translocations/internal/web/middleware"
)

// Server is the HTTP server for the translocation API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	metrics *metrics.Metrics
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer wires routes and middleware. m may be nil.
func NewServer(service *core.Service, cfg *config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		metrics: m,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	var observer mw.RequestObserver
	if s.metrics != nil {
		observer = s.metrics.HTTP
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger(observer))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
	s.router.Use(cors.Handler(corsOptions(s.cfg.Security.CORSOrigins)))
}

func (s *Server) setupRoutes() {
	if s.cfg.Metrics.Enabled && s.metrics != nil {
		s.router.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}
	s.router.Get("/healthz", s.handleHealthz)

	general := s.rateLimit(s.cfg.Rate.RequestsPerMinute)
	imports := s.rateLimit(s.cfg.Rate.ImportLimit)
	auth := mw.APIKeyAuth(&s.cfg.Security)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(general, requestMetadata)

		r.Get("/", s.handleRoot)
		r.With(auth).Get("/audit", s.handleAudit)

		r.Route("/translocations", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/stats", s.handleStats)

			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.Post("/", s.handleCreate)
				r.Put("/{id}", s.handleUpdate)
				r.Delete("/{id}", s.handleDelete)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth, imports)
				r.Post("/import-file", s.handleImport)
				r.Post("/import-excel-file", s.handleImport)
				r.Post("/import-file/preview", s.handlePreview)
			})
		})
	})
}

// rateLimit returns a per-client limiter middleware, or a pass-through when
// rate limiting is disabled.
func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	rl := newRateLimiter(perMinute, time.Minute)
	if s.metrics != nil {
		rl.onReject = s.metrics.HTTP.RecordRateLimited
	}
	s.limiters = append(s.limiters, rl)
	return rl.middleware
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

// Start listens until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
