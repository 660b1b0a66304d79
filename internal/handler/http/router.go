package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/FocusGate/internal/service"
	"github.com/utafrali/FocusGate/pkg/health"
	"github.com/utafrali/FocusGate/pkg/middleware"
)

const serviceName = "focusgate"

// RouterConfig carries the cross-cutting settings of the router.
type RouterConfig struct {
	Validate           middleware.TokenValidator
	CORS               middleware.CORSConfig
	GenerateRatePerMin int
	GenerateBurst      int
}

// NewRouter creates a chi router with all FocusGate routes registered.
func NewRouter(
	engine *service.Engine,
	ledger *service.Ledger,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	sessions := NewSessionHandler(engine, logger)
	challenges := NewChallengeHandler(engine, logger)
	unlocks := NewUnlockHandler(ledger, logger)
	account := NewAccountHandler(engine, logger)
	limiter := newUserLimiter(perMinute(cfg.GenerateRatePerMin), cfg.GenerateBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Validate))
		r.Use(middleware.RequestLogger(logger))
		r.Use(ContentTypeJSON)

		r.Route("/focus-sessions", func(r chi.Router) {
			r.Post("/", sessions.Start)
			r.Get("/active", sessions.Active)
			r.Post("/{id}/distractions", sessions.RecordDistraction)
			r.Post("/{id}/end", sessions.End)
		})

		r.Route("/challenges", func(r chi.Router) {
			r.With(RateLimit(limiter, logger)).Post("/generate", challenges.Generate)
			r.Post("/{id}/verify", challenges.Verify)
		})

		r.Route("/unlocks", func(r chi.Router) {
			r.Get("/check/{domain}", unlocks.Check)
			r.Get("/active", unlocks.ListActive)
			r.Post("/cleanup", unlocks.Cleanup)
			r.Delete("/{id}", unlocks.Revoke)
		})

		r.Get("/progress", account.Progress)
		r.Get("/settings", account.Settings)
		r.Put("/settings", account.UpdateSettings)
	})

	return r
}
