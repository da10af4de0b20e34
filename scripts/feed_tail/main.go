package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/grams-server/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/grams/feed", "feed WebSocket address")
	count := flag.Int("count", 0, "exit after this many events (0 = run until interrupted)")
	dialTimeout := flag.Duration("dial-timeout", 5*time.Second, "timeout for the initial connection")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, *dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, *addr, nil)
	cancel()
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var outbound struct {
		Type  string          `json:"type"`
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
		Error *proto.Error    `json:"error,omitempty"`
	}

	for seen := 0; *count == 0 || seen < *count; {
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Fatalf("read: %v", err)
		}

		switch outbound.Type {
		case proto.OutboundTypeHello:
			var hello proto.Hello
			if err := json.Unmarshal(outbound.Data, &hello); err == nil {
				fmt.Printf("connected: protocol=%d client=%s\n", hello.Protocol, hello.Client)
			}
		case proto.OutboundTypeEvent:
			seen++
			var evt proto.EventGram
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				fmt.Printf("%s raw=%s\n", outbound.Event, string(outbound.Data))
				continue
			}
			fmt.Printf("%s id=%s author=%s message=%q ts=%d\n", outbound.Event, evt.ID, evt.Author, evt.Message, evt.TS)
		case proto.OutboundTypeError:
			if outbound.Error != nil {
				fmt.Printf("error: %s %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
		}
		outbound.Data = nil
		outbound.Error = nil
	}
}
