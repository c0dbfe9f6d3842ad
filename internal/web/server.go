// Package web serves the model-data store over HTTP: a small HTML UI and a
// JSON API under /api.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/modelcsv/internal/config"
	"github.com/JonMunkholm/modelcsv/internal/core"
	"github.com/JonMunkholm/modelcsv/internal/logging"
	"github.com/JonMunkholm/modelcsv/internal/web/middleware"
)

// DatasetService is the part of core.Service the handlers use.
type DatasetService interface {
	Parse(ctx context.Context, r io.Reader) (*core.Document, error)
	Import(ctx context.Context, name string, r io.Reader) (*core.DocumentInfo, error)
	Get(ctx context.Context, id string) (*core.Document, error)
	List(ctx context.Context) ([]core.DocumentInfo, error)
	Delete(ctx context.Context, id string) error
	ExportCSV(ctx context.Context, id string, w io.Writer) error
	ExportArrow(ctx context.Context, id string, w io.Writer) error
	UpdateElement(ctx context.Context, id string, isInput bool, index int, attr, text string) (*core.Document, error)
	AuditLog(ctx context.Context, filter core.AuditFilter) ([]core.AuditEntry, error)
	Limiter() *core.ImportLimiter
}

// Server is the HTTP front end.
type Server struct {
	service DatasetService
	cfg     *config.Config
	router  chi.Router
	server  *http.Server
	limiter *rateLimiter
}

// NewServer builds the router for service using cfg.
func NewServer(service DatasetService, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}

	s.routes()

	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) routes() {
	r := s.router
	timeout := requestTimeout(s.cfg.Server.RequestTimeout)

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(timeout)
		r.Get("/", s.handleIndex)
		r.Get("/documents/{id}", s.handleDocumentPage)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		// Imports run under their own timeout in the service.
		r.Post("/documents", s.handleImport)
		r.Post("/parse", s.handleParse)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Get("/documents", s.handleList)
			r.Get("/documents/{id}", s.handleGet)
			r.Delete("/documents/{id}", s.handleDelete)
			r.Get("/documents/{id}/csv", s.handleExportCSV)
			r.Get("/documents/{id}/arrow", s.handleExportArrow)
			r.Put("/documents/{id}/elements/{role}/{index}", s.handleUpdateElement)
			r.Get("/documents/{id}/audit", s.handleDocumentAudit)
			r.Get("/audit", s.handleAudit)
		})
	})
}

// Router returns the HTTP handler, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	logging.FromContext(context.Background()).Info("server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.server.Shutdown(ctx)
}

// requestTimeout cancels request contexts after d. A zero d disables it.
func requestTimeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimw.Timeout(d)
}

// securityHeaders sets browser hardening headers on every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// header is already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}

// render writes an HTML component with status 200.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "path", r.URL.Path, "error", err)
	}
}
