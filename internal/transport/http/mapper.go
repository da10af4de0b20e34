package http

import (
	"time"

	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/proto"
	"github.com/vovakirdan/grams-server/internal/store"
)

// GramResponse represents a gram in API responses.
type GramResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	UserID    int64     `json:"user_id"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func gramToResponse(g *store.Gram) GramResponse {
	return GramResponse{
		ID:        g.ID,
		Message:   g.Message,
		UserID:    g.UserID,
		Author:    g.AuthorEmail,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

func outboundFromEvent(event *feed.Event) proto.Outbound {
	data := proto.EventGram{
		ID:     event.Gram.ID,
		UserID: event.Gram.UserID,
		Author: event.Gram.AuthorEmail,
		TS:     event.Gram.UpdatedAt.Unix(),
	}

	switch event.Kind {
	case feed.EventGramCreated, feed.EventGramUpdated:
		data.Message = event.Gram.Message
	case feed.EventGramDeleted:
		data.TS = time.Now().Unix()
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown_event", Msg: "unknown event kind"},
		}
	}

	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Kind.String(),
		Data:  data,
	}
}
