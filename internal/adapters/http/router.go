package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// SetupRoutes registers the stop resource, operational, GraphQL and
// WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if deps.RateLimit.Max > 0 {
		cfg := limiter.Config{
			Max:        deps.RateLimit.Max,
			Expiration: deps.RateLimit.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				return "limiter:" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}
		// Share counters between replicas when Valkey is available.
		if deps.Valkey != nil {
			cfg.Storage = deps.Valkey
		}
		app.Use(limiter.New(cfg))
	}

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	// Stop resource
	app.Put("/stops", IngestStopsHandler(deps))
	app.Get("/stops/:stop_id", GetStopHandler(deps))
	app.Patch("/stops/:stop_id", PatchStopHandler(deps))
	app.Delete("/stops/:stop_id", DeleteStopHandler(deps))
	app.Get("/stops/:stop_id/departures", OperatorProfilesHandler(deps))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
