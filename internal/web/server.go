// Package web provides the HTTP server for participant check-in: the JSON
// CRUD API used by the check-in client, spreadsheet import endpoints and
// the staff-facing HTML pages.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/checkin/internal/config"
	"github.com/JonMunkholm/checkin/internal/core"
	appmw "github.com/JonMunkholm/checkin/internal/web/middleware"
)

// Server is the HTTP server for the check-in application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer creates a Server with middleware and routes configured.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(requestMetadata)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/participants", s.handleParticipantsPage)
	s.router.Get("/checkin", s.handleCheckInPage)
	s.router.Post("/checkin/member", s.handleCheckInMember)
	s.router.Post("/checkin/{registrantId}", s.handleCheckInFamily)
	s.router.Get("/register", s.handleRegisterPage)
	s.router.Post("/register", s.handleRegister)
	s.router.Get("/upload", s.handleUploadPage)
	s.router.Get("/upload/template", s.handleTemplate)
	s.router.Group(func(r chi.Router) {
		s.useImportLimit(r)
		r.Post("/upload", s.handleUploadPreview)
		r.Post("/upload/sheet", s.handleUploadSheet)
		r.Post("/upload/{importId}/save", s.handleUploadSave)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(appmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/participants", s.handleListParticipants)
		r.Post("/participants", s.handleCreateParticipants)
		r.Patch("/participants", s.handleUpdateParticipants)
		r.Delete("/participants", s.handleDeleteParticipants)
		r.Get("/participants/export", s.handleExport)
		r.Get("/stats", s.handleStats)

		r.Get("/import/template", s.handleTemplate)
		r.Group(func(r chi.Router) {
			s.useImportLimit(r)
			r.Post("/import", s.handleImport)
			r.Post("/import/sheet", s.handleImportSheet)
			r.Post("/import/{importId}/save", s.handleImportSave)
		})
	})
}

// useImportLimit adds the stricter per-IP limit for import endpoints.
func (s *Server) useImportLimit(r chi.Router) {
	if s.cfg.Rate.Enabled {
		r.Use(s.newRateLimiter(s.cfg.Rate.ImportLimit, time.Minute).middleware)
	}
}

// Start begins listening for HTTP requests.
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

// Shutdown stops accepting requests, waits for in-flight imports and then
// for the remaining handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if s.server == nil {
		return nil
	}
	s.server.SetKeepAlivesEnabled(false)
	if err := s.service.Limiter().WaitForDrain(ctx); err != nil {
		slog.Warn("imports still running at shutdown", "active", s.service.Limiter().ActiveCount())
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				// Pages carry their styles inline and load no scripts.
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; form-action 'self'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are only logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
