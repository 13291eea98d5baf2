package ports

import (
	"context"

	"github.com/samirrijal/stopsapi/internal/core/domain"
)

// TransitClient queries the upstream transit API. One attempt per call.
type TransitClient interface {
	SearchLocations(ctx context.Context, query string, limit int) ([]domain.Location, error)
	FetchDepartures(ctx context.Context, stopID int64, durationMinutes int) ([]domain.DepartureEntry, error)
}

// Summarizer generates a natural-language description of an operator.
type Summarizer interface {
	SummarizeOperator(ctx context.Context, operator string) (string, error)
}

// EventPublisher publishes stop lifecycle events to a message broker.
type EventPublisher interface {
	PublishStopEvent(ctx context.Context, event *domain.StopEvent) error
}
