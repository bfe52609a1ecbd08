package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhilbhutani/langcoach/internal/api/handlers"
	"github.com/nikhilbhutani/langcoach/internal/api/middleware"
	"github.com/nikhilbhutani/langcoach/internal/auth"
	"github.com/nikhilbhutani/langcoach/internal/config"
	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/session"
	"github.com/nikhilbhutani/langcoach/internal/store"
	"github.com/nikhilbhutani/langcoach/internal/stt"
)

// Deps are the process-scoped services the router hands to handlers.
type Deps struct {
	Store     store.Store
	Languages store.Languages // usually the cached catalog over Store
	Recorder  session.Recorder
	STT       stt.STTProvider
	Coach     handlers.Replier
	Metrics   *metrics.Metrics
	Readiness map[string]handlers.Pinger
	// MetricsHandler serves /metrics; defaults to the global registry.
	MetricsHandler http.Handler
}

type Router struct {
	mux  *chi.Mux
	cfg  *config.Config
	deps Deps
	jwt  *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, deps Deps) *Router {
	if deps.Languages == nil {
		deps.Languages = deps.Store
	}
	if deps.MetricsHandler == nil {
		deps.MetricsHandler = promhttp.Handler()
	}
	return &Router{
		mux:  chi.NewRouter(),
		cfg:  cfg,
		deps: deps,
		jwt:  auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware. CORS is outermost so pre-flight never reaches
	// body parsing, auth or the rate limiter.
	r.Use(middleware.CORS(rt.cfg.CORS.AllowedOrigins, rt.cfg.CORS.AllowedHeaders))
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics(rt.deps.Metrics))
	r.Use(chimiddleware.Recoverer)

	rl := middleware.NewRateLimiter(rt.cfg.RateLimit.RPS, rt.cfg.RateLimit.Burst)
	r.Use(rl.Limit)

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.deps.Readiness)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", rt.deps.MetricsHandler)

	// Transcription proxy (no auth, the browser calls it with the anon key)
	speechH := handlers.NewSpeechHandler(rt.deps.STT, rt.deps.Metrics)
	r.Post("/speech-to-text", speechH.Transcribe)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		langH := handlers.NewLanguageHandler(rt.deps.Languages)
		r.Get("/languages", langH.List)
		r.Route("/me/languages", func(r chi.Router) {
			r.Get("/", langH.ListMine)
			r.Post("/", langH.AddMine)
		})

		sessionH := handlers.NewSessionHandler(rt.deps.Recorder, rt.deps.Store, rt.deps.Metrics)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionH.Create)
			r.Get("/", sessionH.List)
		})

		coachH := handlers.NewCoachHandler(rt.deps.Coach, rt.deps.Languages, rt.deps.Metrics)
		r.Post("/coach/reply", coachH.Reply)
	})

	return r
}
