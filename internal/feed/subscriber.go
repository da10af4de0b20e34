package feed

// Subscriber is a live feed listener as seen by the hub.
type Subscriber struct {
	ID     string
	Events chan *Event
}

// NewSubscriber constructs a subscriber with a buffered event channel.
func NewSubscriber(id string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = 1
	}
	return &Subscriber{
		ID:     id,
		Events: make(chan *Event, buffer),
	}
}

// deliver hands the event over without blocking. Returns false if the subscriber is saturated.
func (s *Subscriber) deliver(event *Event) bool {
	select {
	case s.Events <- event:
		return true
	default:
		return false
	}
}
