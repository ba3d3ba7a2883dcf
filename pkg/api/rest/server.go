package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/therealutkarshpriyadarshi/bbq/pkg/api/rest/middleware"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/config"
	"github.com/therealutkarshpriyadarshi/bbq/pkg/observability"
)

// Config holds the REST server configuration.
type Config struct {
	Host        string
	Port        int
	CORSEnabled bool
	CORSOrigins []string
	Auth        middleware.AuthConfig
	RateLimit   middleware.RateLimitConfig
	Index       config.IndexConfig
}

// Server represents the REST API server. It hosts a single in-process
// bbq.Index built via the /v1/build endpoint; there is no separate storage
// tier to dial out to.
type Server struct {
	config     Config
	handler    *Handler
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *observability.Logger
}

// NewServer creates a new REST API server.
func NewServer(config Config, logger *observability.Logger, metrics *observability.Metrics) (*Server, error) {
	handler := NewHandler(config.Index, logger, metrics)

	server := &Server{
		config:  config,
		handler: handler,
		mux:     http.NewServeMux(),
		logger:  logger,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.withMiddleware(server.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/v1/health", s.handler.HealthCheck)
	s.mux.HandleFunc("/v1/stats", s.handler.GetStats)
	s.mux.HandleFunc("/v1/build", s.handler.Build)
	s.mux.HandleFunc("/v1/search", s.handler.Search)
}

// withMiddleware wraps the handler with all middleware.
func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	// Each wrapper added below encloses the ones added before it, so the last
	// one added is the outermost and runs first on every request.

	// 1. Logging middleware (innermost, runs last).
	handler = s.loggingMiddleware(handler)

	// 2. CORS middleware.
	if s.config.CORSEnabled {
		handler = corsMiddleware(s.config.CORSOrigins)(handler)
	}

	// 3. Rate limiting.
	rateLimiter := middleware.NewRateLimiter(s.config.RateLimit)
	handler = middleware.RateLimitMiddleware(rateLimiter)(handler)

	// 4. Authentication (outermost, runs first).
	handler = middleware.AuthMiddleware(s.config.Auth)(handler)

	return handler
}

// Start starts the REST API server.
func (s *Server) Start() error {
	if s.logger != nil {
		s.logger.Info(fmt.Sprintf("Starting REST API server on %s:%d", s.config.Host, s.config.Port))
	}

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down REST API server...")
	}
	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		if s.logger != nil {
			s.logger.Info("request", map[string]interface{}{
				"method": r.Method, "path": r.URL.Path, "status": wrapped.statusCode, "duration": duration,
			})
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// corsMiddleware adds CORS headers.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				allowed = true
				origin = "*"
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
