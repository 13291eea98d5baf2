package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/stopsapi/internal/adapters/store"
	"github.com/samirrijal/stopsapi/internal/pkg/config"
	"github.com/samirrijal/stopsapi/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up>")
	}

	cfg, err := config.Load("stopsapi-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		slog.Info("locations table ready", "driver", cfg.Database.Driver, "database", cfg.Database.DBName)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
