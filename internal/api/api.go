// Package api exposes the recommendation pipeline and the record store over
// a JSON HTTP API built on chi.
package api

import (
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edgard/middleman/internal/config"
	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/logger"
	"github.com/edgard/middleman/internal/metrics"
	"github.com/edgard/middleman/internal/recommend"
)

// ServiceName is reported by /health.
const ServiceName = "middleman"

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-Key"

// Service implements the HTTP endpoints.
type Service struct {
	store   database.Store
	fetcher *recommend.Fetcher
	engine  *recommend.Engine
	log     *slog.Logger
}

// NewService creates a Service.
func NewService(store database.Store, fetcher *recommend.Fetcher, engine *recommend.Engine, log *slog.Logger) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{store: store, fetcher: fetcher, engine: engine, log: log.With("component", "api")}
}

// AddRoutes registers the JSON endpoints on r.
func (s *Service) AddRoutes(r chi.Router) {
	r.Post("/recommendations", RestHandler(s.Recommend))
	r.Post("/replies", RestHandler(s.StoreSelectedReply))
	r.Post("/fan-messages", RestHandler(s.StoreFanMessage))
	r.Get("/chat-history", RestHandler(s.ChatHistory))

	r.Route("/creators", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListCreators))
		r.Post("/", RestHandler(s.CreateCreator))
		r.Get("/{id}", RestHandler(s.GetCreator))
		r.Patch("/{id}", RestHandler(s.UpdateCreator))
	})
	r.Route("/fans", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListFans))
		r.Post("/", RestHandler(s.CreateFan))
		r.Get("/{id}", RestHandler(s.GetFan))
		r.Patch("/{id}", RestHandler(s.UpdateFan))
	})
	r.Route("/system-prompts", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListSystemPrompts))
		r.Post("/", RestHandler(s.CreateSystemPrompt))
		r.Get("/{id}", RestHandler(s.GetSystemPrompt))
		r.Patch("/{id}", RestHandler(s.UpdateSystemPrompt))
	})
}

// NewRouter builds the full handler: middleware, /health, /metrics and the
// key-protected JSON endpoints.
func NewRouter(cfg config.HTTPConfig, s *Service, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(log.With("component", "http")))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", APIKeyHeader},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))
	}

	r.Get("/health", RestHandler(func(*http.Request) (any, error) {
		return HealthResponse{Status: "healthy", Service: ServiceName}, nil
	}))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		if cfg.APIKey != "" {
			r.Use(RequireAPIKey(cfg.APIKey))
		}
		s.AddRoutes(r)
	})

	return r
}

// NewServer creates the HTTP server for handler.
func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	writeTimeout := cfg.RequestTimeout + 10*time.Second
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

// RequireAPIKey rejects requests whose X-API-Key header does not match key.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				WriteJsonResponse(w, http.StatusUnauthorized, errorResponse{Error: "Invalid or missing API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
