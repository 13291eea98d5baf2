package http

import (
	"errors"
	"reflect"
	"testing"
)

type fakeSub struct {
	subject      string
	unsubscribed *[]string
}

func (f fakeSub) Unsubscribe() error {
	*f.unsubscribed = append(*f.unsubscribed, f.subject)
	return nil
}

func newFakeSet(t *testing.T) (*subscriptionSet, *[]string) {
	t.Helper()
	var dropped []string
	set, err := newSubscriptionSet(func(subject string) (unsubscriber, error) {
		return fakeSub{subject: subject, unsubscribed: &dropped}, nil
	})
	if err != nil {
		t.Fatalf("newSubscriptionSet: %v", err)
	}
	return set, &dropped
}

func TestEventSubject(t *testing.T) {
	tests := []struct {
		name string
		msg  wsMessage
		want string
	}{
		{"everything", wsMessage{Action: "unsubscribe"}, "stops.>"},
		{"one stop", wsMessage{StopID: 8011160}, "stops.*.8011160"},
		{"one kind", wsMessage{Kind: "departure"}, "stops.departure.*"},
		{"stop and kind", wsMessage{StopID: 8011160, Kind: "deleted"}, "stops.deleted.8011160"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventSubject(tt.msg); got != tt.want {
				t.Errorf("eventSubject = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubscriptionSet_UnsubscribeDefaultFeed(t *testing.T) {
	set, dropped := newFakeSet(t)

	if !set.remove(eventSubject(wsMessage{Action: "unsubscribe"})) {
		t.Fatal("expected the default feed to be removed")
	}
	if len(set.subjects()) != 0 {
		t.Errorf("subjects = %v, want none", set.subjects())
	}
	if !reflect.DeepEqual(*dropped, []string{"stops.>"}) {
		t.Errorf("unsubscribed = %v", *dropped)
	}
	if set.remove("stops.>") {
		t.Error("second remove should report false")
	}
}

func TestSubscriptionSet_NarrowSubscribeReplacesDefault(t *testing.T) {
	set, dropped := newFakeSet(t)

	added, err := set.add("stops.*.8011160")
	if err != nil || !added {
		t.Fatalf("add = %v, %v", added, err)
	}
	if got := set.subjects(); !reflect.DeepEqual(got, []string{"stops.*.8011160"}) {
		t.Errorf("subjects = %v", got)
	}
	if !reflect.DeepEqual(*dropped, []string{"stops.>"}) {
		t.Errorf("unsubscribed = %v", *dropped)
	}

	added, _ = set.add("stops.*.8011160")
	if added {
		t.Error("duplicate subscribe should not be added")
	}

	added, _ = set.add("stops.departure.*")
	if !added {
		t.Error("second filter should be added")
	}
	if got := set.subjects(); !reflect.DeepEqual(got, []string{"stops.*.8011160", "stops.departure.*"}) {
		t.Errorf("subjects = %v", got)
	}
}

func TestSubscriptionSet_ExplicitFullFeedKept(t *testing.T) {
	set, dropped := newFakeSet(t)

	added, err := set.add("stops.>")
	if err != nil || added {
		t.Fatalf("add = %v, %v; want already subscribed", added, err)
	}
	if _, err := set.add("stops.*.10"); err != nil {
		t.Fatal(err)
	}
	if got := set.subjects(); !reflect.DeepEqual(got, []string{"stops.*.10", "stops.>"}) {
		t.Errorf("subjects = %v", got)
	}
	if len(*dropped) != 0 {
		t.Errorf("unsubscribed = %v, want none", *dropped)
	}
}

func TestSubscriptionSet_Close(t *testing.T) {
	set, dropped := newFakeSet(t)
	if _, err := set.add("stops.*.10"); err != nil {
		t.Fatal(err)
	}
	set.close()
	if len(set.subjects()) != 0 {
		t.Errorf("subjects after close = %v", set.subjects())
	}
	if len(*dropped) != 2 {
		t.Errorf("unsubscribed = %v, want 2", *dropped)
	}
}

func TestSubscriptionSet_SubscribeError(t *testing.T) {
	boom := errors.New("nats down")
	_, err := newSubscriptionSet(func(string) (unsubscriber, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
