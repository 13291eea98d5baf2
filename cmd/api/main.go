package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/stopsapi/internal/adapters/gemini"
	"github.com/samirrijal/stopsapi/internal/adapters/http"
	natsadapter "github.com/samirrijal/stopsapi/internal/adapters/nats"
	"github.com/samirrijal/stopsapi/internal/adapters/store"
	"github.com/samirrijal/stopsapi/internal/adapters/transit"
	"github.com/samirrijal/stopsapi/internal/adapters/valkey"
	"github.com/samirrijal/stopsapi/internal/core/ports"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
	"github.com/samirrijal/stopsapi/internal/pkg/config"
	"github.com/samirrijal/stopsapi/internal/pkg/logging"
	"github.com/samirrijal/stopsapi/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("stopsapi")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	repo, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Summarizer
	summarizer, err := gemini.New(ctx, cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	if err != nil {
		log.Fatalf("summarizer: %v (set GOOGLE_API_KEY)", err)
	}

	deps := &http.Dependencies{
		DB: db,
		RateLimit: http.RateLimit{
			Max:    cfg.RateLimit.Max,
			Window: time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		},
	}

	// NATS
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, stop events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.NATS = pub.Conn()
		}
	}

	// Valkey
	if cfg.Valkey.Enabled {
		vk, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, rate limiter stays in memory", "error", err)
		} else {
			defer vk.Close()
			deps.Valkey = vk
		}
	}

	deps.Stops = usecases.NewStopService(
		repo,
		transit.NewClient(cfg.Transit.BaseURL, nil),
		summarizer,
		events,
		usecases.NewLinks(cfg.Server.PublicURL),
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Stops API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,PUT,PATCH,DELETE,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "driver", cfg.Database.Driver, "public_url", cfg.Server.PublicURL)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
