// Package api provides the HTTP API server and handlers for the Kellerblick storefront.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kellerblick/storefront/internal/catalog"
	"github.com/kellerblick/storefront/internal/ratelimit"
	"github.com/kellerblick/storefront/internal/sse"
	"github.com/kellerblick/storefront/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	// WriteLimiter limits mutating requests per client IP. Nil disables limiting.
	WriteLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	storage    store.Storage
	gateway    catalog.Gateway
	sseHandler *sse.Handler
	sseManager *sse.Manager
	router     *chi.Mux
	api        huma.API
	opts       Options
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, storage store.Storage, gateway catalog.Gateway, sseHandler *sse.Handler, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		services:   services,
		storage:    storage,
		gateway:    gateway,
		sseHandler: sseHandler,
		sseManager: sseManager,
		router:     router,
		opts:       opts,
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Kellerblick Storefront API", "1.0.0")
	humaConfig.Info.Description = "Wine catalog, event bookings and wishlist for the Kellerblick winery storefront."
	// Responses carry the resource itself, without a $schema link.
	humaConfig.CreateHooks = nil

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown stops the write limiter's cleanup loop. Implements do.Shutdownable.
func (s *Server) Shutdown() error {
	if s.opts.WriteLimiter != nil {
		s.opts.WriteLimiter.Stop()
	}
	return nil
}

// API returns the huma API, for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Cache-Status", "X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(middleware.Compress(5))
	if s.opts.WriteLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.opts.WriteLimiter, s.logger))
	}
}

// registerRoutes registers every API operation.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerProductRoutes()
	s.registerEventRoutes()
	s.registerWishlistRoutes()
	s.registerBookingRoutes()
	s.registerUIRoutes()

	// SSE bypasses huma; the handler owns the response stream.
	s.router.Get("/api/v1/stream", s.sseHandler.ServeHTTP)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
