// Command ingest imports stops for a batch of search queries.
//
//	ingest "Berlin Hbf" "München Hbf"
//	ingest -f queries.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	natsadapter "github.com/samirrijal/stopsapi/internal/adapters/nats"
	"github.com/samirrijal/stopsapi/internal/adapters/store"
	"github.com/samirrijal/stopsapi/internal/adapters/transit"
	"github.com/samirrijal/stopsapi/internal/core/ports"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
	"github.com/samirrijal/stopsapi/internal/pkg/config"
	"github.com/samirrijal/stopsapi/internal/pkg/logging"
)

func main() {
	file := flag.String("f", "", "read queries from `file`, one per line")
	flag.Parse()

	cfg, err := config.Load("stopsapi-ingest")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	queries := flag.Args()
	if *file != "" {
		fromFile, err := readQueries(*file)
		if err != nil {
			log.Fatalf("read %s: %v", *file, err)
		}
		queries = append(queries, fromFile...)
	}
	if len(queries) == 0 {
		log.Fatal("usage: ingest [-f file] [query ...]")
	}

	ctx := context.Background()

	repo, db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, stop events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	svc := usecases.NewStopService(
		repo,
		transit.NewClient(cfg.Transit.BaseURL, nil),
		nil, // operator profiles are never requested here
		events,
		usecases.NewLinks(cfg.Server.PublicURL),
	)

	total, failed := 0, 0
	for _, q := range queries {
		stops, err := svc.Ingest(ctx, q)
		if err != nil {
			failed++
			slog.Error("ingest failed", "query", q, "error", err)
			continue
		}
		total += len(stops)
		for _, s := range stops {
			fmt.Printf("%d\t%s\t%s\n", s.LocationID, s.LastUpdated, s.SelfHref)
		}
		slog.Info("ingested", "query", q, "stops", len(stops))
	}

	slog.Info("ingest complete", "queries", len(queries), "stops", total, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// readQueries returns the non-blank lines of path. Lines starting with #
// are comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
