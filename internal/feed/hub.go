package feed

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/metrics"
)

const publishBuffer = 64

// Hub fans gram events out to live feed subscribers.
// All subscriber bookkeeping happens on the Run goroutine.
type Hub struct {
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan *Event
	done        chan struct{}
	subscribers map[*Subscriber]struct{}
	buffer      int
	log         *zerolog.Logger
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan *Event, publishBuffer),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]struct{}),
		buffer:      buffer,
		log:         logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
// On exit every remaining subscriber channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case sub := <-h.register:
			h.subscribers[sub] = struct{}{}
			metrics.FeedSubscribers.Set(float64(len(h.subscribers)))
			h.log.Debug().Str("subscriber_id", sub.ID).Int("subscribers", len(h.subscribers)).Msg("feed subscriber joined")
		case sub := <-h.unregister:
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.Events)
				metrics.FeedSubscribers.Set(float64(len(h.subscribers)))
				h.log.Debug().Str("subscriber_id", sub.ID).Int("subscribers", len(h.subscribers)).Msg("feed subscriber left")
			}
		case event := <-h.broadcast:
			for sub := range h.subscribers {
				if !sub.deliver(event) {
					// Drop if slow consumer.
					metrics.FeedDropped.Inc()
					h.log.Warn().Str("subscriber_id", sub.ID).Str("event", event.Kind.String()).Msg("feed subscriber saturated, event dropped")
				}
			}
		case <-ctx.Done():
			for sub := range h.subscribers {
				close(sub.Events)
			}
			h.subscribers = make(map[*Subscriber]struct{})
			metrics.FeedSubscribers.Set(0)
			return
		}
	}
}

// Subscribe registers a new subscriber. It returns false once the hub has stopped.
func (h *Hub) Subscribe(ctx context.Context) (*Subscriber, bool) {
	sub := NewSubscriber(uuid.NewString(), h.buffer)
	select {
	case h.register <- sub:
		return sub, true
	case <-h.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Unsubscribe removes sub and closes its event channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish queues an event for broadcast without blocking the caller.
func (h *Hub) Publish(event *Event) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- event:
	default:
		metrics.FeedDropped.Inc()
		h.log.Warn().Str("event", event.Kind.String()).Msg("feed hub saturated, event dropped")
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
