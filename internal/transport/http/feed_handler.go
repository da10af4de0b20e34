package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	ginrender "github.com/gin-gonic/gin/render"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/proto"
)

// FeedHandler streams gram lifecycle events to websocket clients.
type FeedHandler struct {
	hub *feed.Hub
	log *zerolog.Logger
}

// NewFeedHandler builds a new feed handler.
func NewFeedHandler(hub *feed.Hub, logger *zerolog.Logger) *FeedHandler {
	return &FeedHandler{hub: hub, log: logger}
}

// ServeHTTP upgrades the connection and forwards events until either side goes away.
// The feed is read-only; inbound frames other than control frames close the connection.
// It is mounted ahead of gin so the upgrade can hijack the raw ResponseWriter.
// GET /grams/feed
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	ctx := conn.CloseRead(r.Context())

	sub, ok := h.hub.Subscribe(ctx)
	if !ok {
		conn.Close(websocket.StatusGoingAway, "feed unavailable")
		return
	}
	defer h.hub.Unsubscribe(sub)
	h.log.Debug().Str("subscriber_id", sub.ID).Str("remote_addr", r.RemoteAddr).Msg("feed client connected")

	if err := wsjson.Write(ctx, conn, proto.Outbound{
		Type: proto.OutboundTypeHello,
		Data: proto.Hello{Protocol: proto.ProtocolVersion, Client: sub.ID},
	}); err != nil {
		h.log.Debug().Err(err).Str("subscriber_id", sub.ID).Msg("write feed hello")
		return
	}

	err = h.writeLoop(ctx, conn, sub)
	switch {
	case err == nil:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	case errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
		conn.Close(websocket.StatusNormalClosure, "closing")
	default:
		h.log.Warn().Err(err).Str("subscriber_id", sub.ID).Msg("feed connection closed with error")
		conn.Close(websocket.StatusInternalError, "write failed")
	}
}

func (h *FeedHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *feed.Subscriber) error {
	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// feedUnavailable is used when the feed hub is not configured.
func feedUnavailable(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = ginrender.JSON{Data: ErrorResponse{Error: "feed unavailable"}}.Render(w)
}
