// Package api provides the HTTP surface of the contribution server: the
// submission endpoint, metadata extraction, the vocabulary feed, and health.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/howtheytest/contribution-server/internal/domain"
	"github.com/howtheytest/contribution-server/internal/http/response"
	"github.com/howtheytest/contribution-server/internal/metadata/extract"
	"github.com/howtheytest/contribution-server/internal/ratelimit"
	"github.com/howtheytest/contribution-server/internal/service"
)

// Submitter runs the intake sequence for one draft.
type Submitter interface {
	Submit(ctx context.Context, draft domain.ContributionDraft, token, remoteIP string) (*service.Accepted, error)
}

// VocabularySource supplies the current selectable vocabulary.
type VocabularySource interface {
	Vocabulary() (domain.Vocabulary, error)
}

// Config holds the transport-level settings.
type Config struct {
	// AllowedOrigins is the browser origin allow-list for the form
	// endpoints. Empty means every origin is accepted (development).
	AllowedOrigins []string

	// ExtractPerMinute and ExtractBurst bound metadata extraction per
	// client IP.
	ExtractPerMinute int
	ExtractBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	intake       Submitter
	extractor    *extract.Extractor
	vocab        VocabularySource
	cfg          Config
	extractLimit *ratelimit.KeyedRateLimiter
	router       *chi.Mux
	logger       *slog.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(intake Submitter, extractor *extract.Extractor, vocab VocabularySource, cfg Config, logger *slog.Logger) *Server {
	perMinute := cfg.ExtractPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	burst := cfg.ExtractBurst
	if burst <= 0 {
		burst = perMinute
	}

	s := &Server{
		intake:       intake,
		extractor:    extractor,
		vocab:        vocab,
		cfg:          cfg,
		extractLimit: ratelimit.PerMinute(perMinute, burst),
		router:       chi.NewRouter(),
		logger:       logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the per-IP rate limiter.
func (s *Server) Close() {
	s.extractLimit.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeCORS(w, r, "POST, OPTIONS")
		response.MethodNotAllowed(w, s.logger)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		// The form endpoints carry the exact CORS contract of the public
		// form, including the origin gate, so they set headers by hand.
		r.Post("/contributions", s.handleSubmitContribution)
		r.Options("/contributions", s.handlePreflight("POST, OPTIONS"))

		r.Get("/metadata", s.handleExtractMetadata)
		r.Options("/metadata", s.handlePreflight("GET, OPTIONS"))

		// Read-only endpoints use the stock CORS middleware.
		r.Group(func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: s.corsOrigins(),
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type"},
			}))
			r.Get("/vocabulary", s.handleGetVocabulary)
		})
	})

	s.router.Get("/health", s.handleHealthCheck)
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.AllowedOrigins
}

// originAllowed reports whether the request's Origin passes the allow-list.
// An empty allow-list accepts everything.
func (s *Server) originAllowed(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// writeCORS sets the form-contract CORS headers on every response: the
// origin is echoed when allowed and left empty otherwise.
func (s *Server) writeCORS(w http.ResponseWriter, r *http.Request, methods string) {
	allowOrigin := ""
	if len(s.cfg.AllowedOrigins) == 0 {
		allowOrigin = "*"
	} else if s.originAllowed(r) {
		allowOrigin = r.Header.Get("Origin")
	}

	w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", methods)
}

// handlePreflight answers OPTIONS without side effects.
func (s *Server) handlePreflight(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeCORS(w, r, methods)
		w.WriteHeader(http.StatusOK)
	}
}

// clientIP extracts the client address; RealIP middleware has already
// resolved forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}
