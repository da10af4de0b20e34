package proto

const (
	ProtocolVersion = 1

	OutboundTypeHello = "hello"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound is the envelope for messages sent to feed clients.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Hello is the first frame on every feed connection.
type Hello struct {
	Protocol int    `json:"protocol"`
	Client   string `json:"client"`
}

// EventGram describes a gram inside a feed event.
type EventGram struct {
	ID      string `json:"id"`
	Message string `json:"message,omitempty"`
	UserID  int64  `json:"user_id"`
	Author  string `json:"author,omitempty"`
	TS      int64  `json:"ts"`
}

// Error describes a protocol-level error frame.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
