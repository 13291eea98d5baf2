package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stopsapi/internal/core/domain"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

const (
	// StreamName is the JetStream stream holding stop lifecycle events.
	StreamName = "STOP_EVENTS"
	// SubjectPrefix prefixes every stop event subject.
	SubjectPrefix = "stops"
	// AllSubjects matches every stop event.
	AllSubjects = SubjectPrefix + ".>"
)

// Subject returns the subject for an event of kind about stop id,
// e.g. "stops.updated.8011160".
func Subject(kind domain.StopEventKind, id int64) string {
	return fmt.Sprintf("%s.%s.%d", SubjectPrefix, kind, id)
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the stop event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{AllSubjects},
		Retention:  nats.LimitsPolicy,
		MaxAge:     24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishStopEvent stores ev on the stream. ev.ID doubles as the
// JetStream de-duplication id.
func (p *Publisher) PublishStopEvent(ctx context.Context, ev *domain.StopEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(ev.Kind, ev.LocationID))
	msg.Data = data
	msg.Header.Set("Content-Type", "application/json")

	_, err = p.js.PublishMsg(msg, nats.MsgId(ev.ID), nats.Context(ctx))
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Kind), outcome).Inc()
	return err
}

// Conn exposes the underlying connection for readiness checks and the
// WebSocket relay.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("stopsapi"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
