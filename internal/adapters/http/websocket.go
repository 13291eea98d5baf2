package http

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/stopsapi/internal/adapters/nats"
	"github.com/samirrijal/stopsapi/internal/pkg/metrics"
)

// wsMessage is sent by clients to narrow or widen the relayed events.
type wsMessage struct {
	Action string `json:"action"`  // "subscribe" | "unsubscribe"
	StopID int64  `json:"stop_id"` // 0 = all stops
	Kind   string `json:"kind"`    // created | updated | departure | deleted, "" = all
}

var eventKinds = map[string]bool{
	"created":   true,
	"updated":   true,
	"departure": true,
	"deleted":   true,
}

// eventSubject builds the NATS subject for a subscription request. No stop
// and no kind selects the full feed.
func eventSubject(m wsMessage) string {
	if m.Kind == "" && m.StopID == 0 {
		return natsadapter.AllSubjects
	}
	kind := "*"
	if m.Kind != "" {
		kind = m.Kind
	}
	id := "*"
	if m.StopID != 0 {
		id = strconv.FormatInt(m.StopID, 10)
	}
	return natsadapter.SubjectPrefix + "." + kind + "." + id
}

type unsubscriber interface {
	Unsubscribe() error
}

// subscriptionSet tracks the subjects relayed to one client. The default
// feed is dropped by the first explicit subscribe so narrower filters do
// not deliver events twice.
type subscriptionSet struct {
	subscribe func(subject string) (unsubscriber, error)
	subs      map[string]unsubscriber
	implicit  bool
}

func newSubscriptionSet(subscribe func(string) (unsubscriber, error)) (*subscriptionSet, error) {
	set := &subscriptionSet{subscribe: subscribe, subs: make(map[string]unsubscriber)}
	sub, err := subscribe(natsadapter.AllSubjects)
	if err != nil {
		return nil, err
	}
	set.subs[natsadapter.AllSubjects] = sub
	set.implicit = true
	return set, nil
}

// add subscribes to subject and reports false when it was already active.
func (s *subscriptionSet) add(subject string) (bool, error) {
	if s.implicit {
		s.implicit = false
		if subject == natsadapter.AllSubjects {
			return false, nil
		}
		s.remove(natsadapter.AllSubjects)
	}
	if _, exists := s.subs[subject]; exists {
		return false, nil
	}
	sub, err := s.subscribe(subject)
	if err != nil {
		return false, err
	}
	s.subs[subject] = sub
	return true, nil
}

// remove drops subject and reports whether it was active.
func (s *subscriptionSet) remove(subject string) bool {
	sub, exists := s.subs[subject]
	if !exists {
		return false
	}
	_ = sub.Unsubscribe()
	delete(s.subs, subject)
	if subject == natsadapter.AllSubjects {
		s.implicit = false
	}
	return true
}

func (s *subscriptionSet) subjects() []string {
	out := make([]string, 0, len(s.subs))
	for subject := range s.subs {
		out = append(out, subject)
	}
	sort.Strings(out)
	return out
}

func (s *subscriptionSet) close() {
	for subject := range s.subs {
		s.remove(subject)
	}
}

// WebSocketHandler relays stop lifecycle events from NATS to the client.
// Every connection starts subscribed to all events. Clients may send
// {"action":"subscribe","stop_id":8011160,"kind":"departure"} to replace
// that feed with a narrower subscription and "unsubscribe" to drop one.
// {"action":"unsubscribe"} drops the full feed.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event stream not configured"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		log.Info("ws client connected")

		var mu sync.Mutex

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		relay := func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		}

		subs, err := newSubscriptionSet(func(subject string) (unsubscriber, error) {
			return nc.Subscribe(subject, relay)
		})
		if err != nil {
			log.Error("ws default subscribe failed", "error", err)
			return
		}
		defer subs.close()

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Kind != "" && !eventKinds[m.Kind] {
				_ = writeJSON(map[string]string{"error": "unknown kind: " + m.Kind})
				continue
			}
			subject := eventSubject(m)

			switch m.Action {
			case "subscribe":
				added, err := subs.add(subject)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				if !added {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if subs.remove(subject) {
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		log.Info("ws client disconnected")
	}
}
