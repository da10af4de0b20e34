package feed

import "github.com/vovakirdan/grams-server/internal/store"

// EventKind is a gram lifecycle notification.
type EventKind int

const (
	// EventGramCreated notifies subscribers about a new gram.
	EventGramCreated EventKind = iota
	// EventGramUpdated notifies subscribers about an edited gram.
	EventGramUpdated
	// EventGramDeleted notifies subscribers about a removed gram.
	EventGramDeleted
)

func (k EventKind) String() string {
	switch k {
	case EventGramCreated:
		return "gram_created"
	case EventGramUpdated:
		return "gram_updated"
	case EventGramDeleted:
		return "gram_deleted"
	default:
		return "unknown"
	}
}

// Event is delivered to every subscriber of the hub.
type Event struct {
	Kind EventKind
	Gram store.Gram
}
