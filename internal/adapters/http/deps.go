package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stopsapi/internal/adapters/valkey"
	"github.com/samirrijal/stopsapi/internal/core/usecases"
)

// Pinger is satisfied by both store backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimit bounds requests per client IP. Max 0 disables the limiter.
type RateLimit struct {
	Max    int
	Window time.Duration
}

// Dependencies holds all services needed by HTTP handlers.
// Everything except Stops is optional.
type Dependencies struct {
	Stops     *usecases.StopService
	DB        Pinger
	NATS      *nats.Conn
	Valkey    *valkey.Storage
	RateLimit RateLimit
}
