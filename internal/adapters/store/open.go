// Package store opens the configured StopRepository backend.
package store

import (
	"context"
	"fmt"

	"github.com/samirrijal/stopsapi/internal/adapters/mysql"
	"github.com/samirrijal/stopsapi/internal/adapters/postgres"
	"github.com/samirrijal/stopsapi/internal/core/ports"
	"github.com/samirrijal/stopsapi/internal/pkg/config"
)

// Backend is the connection behind a repository.
type Backend interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close()
}

// Open connects to cfg.Driver and returns its repository and connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (ports.StopRepository, Backend, error) {
	switch cfg.Driver {
	case "", "postgres":
		db, err := postgres.New(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStopRepo(db), db, nil
	case "mysql":
		db, err := mysql.New(ctx, mysql.Options{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		return mysql.NewStopRepo(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
