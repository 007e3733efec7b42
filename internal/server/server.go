// Package server exposes the import, export and document-editing
// operations over HTTP.
//
// # Routes
//
//	GET    /health
//	POST   /api/v1/import                 spec text → graph view
//	POST   /api/v1/export                 graph snapshot → spec text
//	POST   /api/v1/validate               spec text → lint issues
//	POST   /api/v1/render?format=svg      spec text → artifact
//	POST   /api/v1/documents              create a stored document
//	GET    /api/v1/documents              list documents
//	GET    /api/v1/documents/{id}         document with categories
//	DELETE /api/v1/documents/{id}
//	GET    /api/v1/documents/{id}/export?format=json
//	POST   /api/v1/documents/{id}/nodes   add a default node, optionally patched
//	PATCH  /api/v1/documents/{id}/nodes/{nodeID}
//	DELETE /api/v1/documents/{id}/nodes/{nodeID}
//	POST   /api/v1/documents/{id}/edges   {"from": "n1", "to": "n2"}
//	DELETE /api/v1/documents/{id}/edges?from=n1&to=n2
//
// Failures are JSON bodies of the form
//
//	{"success": false, "code": "NODE_NOT_FOUND", "error": "node not found: unknown node: n9"}
//
// with the HTTP status derived from the code.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/meshgraph/pkg/pipeline"
	"github.com/matzehuels/meshgraph/pkg/session"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 4 << 20

// Config configures a Server.
type Config struct {
	Addr         string
	CORSOrigins  []string
	MaxBodyBytes int64

	Runner *pipeline.Runner
	Repo   *session.Repository
	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	runner *pipeline.Runner
	repo   *session.Repository
	logger *log.Logger
}

// New creates a server. Runner and Repo are required.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{cfg: cfg, runner: cfg.Runner, repo: cfg.Repo, logger: logger}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))
	r.Use(s.limitBody)

	r.Get("/health", s.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/import", s.importSpec)
		r.Post("/export", s.exportGraph)
		r.Post("/validate", s.validateSpec)
		r.Post("/render", s.renderSpec)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", s.createDocument)
			r.Get("/", s.listDocuments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getDocument)
				r.Delete("/", s.deleteDocument)
				r.Get("/export", s.exportDocument)
				r.Post("/nodes", s.addNode)
				r.Patch("/nodes/{nodeID}", s.updateNode)
				r.Delete("/nodes/{nodeID}", s.deleteNode)
				r.Post("/edges", s.connect)
				r.Delete("/edges", s.disconnect)
			})
		})
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
