package feed

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vovakirdan/grams-server/internal/metrics"
	"github.com/vovakirdan/grams-server/internal/store"
)

func startHub(t *testing.T, buffer int) (*Hub, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	hub := NewHub(buffer, nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHubBroadcastsToAllSubscribers(t *testing.T) {
	hub, _ := startHub(t, 4)
	ctx := context.Background()

	alice, ok := hub.Subscribe(ctx)
	if !ok {
		t.Fatalf("subscribe alice")
	}
	bob, ok := hub.Subscribe(ctx)
	if !ok {
		t.Fatalf("subscribe bob")
	}

	hub.Publish(&Event{Kind: EventGramCreated, Gram: store.Gram{ID: "g1", Message: "Hello!"}})

	for _, sub := range []*Subscriber{alice, bob} {
		ev := mustEvent(t, sub.Events, EventGramCreated)
		if ev.Gram.ID != "g1" || ev.Gram.Message != "Hello!" {
			t.Fatalf("unexpected event for %s: %+v", sub.ID, ev)
		}
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub, _ := startHub(t, 4)

	sub, ok := hub.Subscribe(context.Background())
	if !ok {
		t.Fatalf("subscribe")
	}
	hub.Unsubscribe(sub)
	mustClose(t, sub.Events)

	// A second unsubscribe must not panic on a closed channel.
	hub.Unsubscribe(sub)
}

func TestHubDropsEventsForSlowSubscriber(t *testing.T) {
	hub, _ := startHub(t, 1)

	slow, ok := hub.Subscribe(context.Background())
	if !ok {
		t.Fatalf("subscribe")
	}

	before := testutil.ToFloat64(metrics.FeedDropped)

	hub.Publish(&Event{Kind: EventGramCreated, Gram: store.Gram{ID: "first"}})
	hub.Publish(&Event{Kind: EventGramUpdated, Gram: store.Gram{ID: "second"}})
	hub.Publish(&Event{Kind: EventGramDeleted, Gram: store.Gram{ID: "third"}})

	deadline := time.Now().Add(2 * time.Second)
	for testutil.ToFloat64(metrics.FeedDropped) < before+2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected two dropped events, counter moved by %v", testutil.ToFloat64(metrics.FeedDropped)-before)
		}
		time.Sleep(10 * time.Millisecond)
	}

	first := mustEvent(t, slow.Events, EventGramCreated)
	if first.Gram.ID != "first" {
		t.Fatalf("expected first event to be kept, got %+v", first)
	}
	select {
	case ev := <-slow.Events:
		t.Fatalf("expected later events to be dropped, got %+v", ev)
	default:
	}
}

func TestHubStopClosesSubscribers(t *testing.T) {
	hub, cancel := startHub(t, 4)

	sub, ok := hub.Subscribe(context.Background())
	if !ok {
		t.Fatalf("subscribe")
	}

	cancel()
	mustClose(t, sub.Events)

	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not stop")
	}

	if _, ok := hub.Subscribe(context.Background()); ok {
		t.Fatalf("expected subscribe to fail after stop")
	}
	hub.Unsubscribe(sub)
	hub.Publish(&Event{Kind: EventGramCreated})
}

func TestEventKindString(t *testing.T) {
	if EventGramCreated.String() != "gram_created" || EventGramUpdated.String() != "gram_updated" || EventGramDeleted.String() != "gram_deleted" {
		t.Fatalf("unexpected event kind names")
	}
	if EventKind(99).String() != "unknown" {
		t.Fatalf("expected unknown for out-of-range kind")
	}
}
