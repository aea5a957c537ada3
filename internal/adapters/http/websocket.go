package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/peakview/internal/adapters/nats"
	"github.com/samirrijal/peakview/internal/pkg/metrics"
)

// wsMessage is sent by the client. "query" carries an observer fix and is
// answered with the visible peaks; "subscribe"/"unsubscribe" toggle the relay
// of engine events for a channel.
type wsMessage struct {
	Action  string `json:"action"`  // "query" | "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "queries" | "viewsheds"
	peakQueryInput
}

// wsReply is every server-to-client frame.
type wsReply struct {
	Type    string      `json:"type"` // "peaks" | "event" | "status" | "error"
	Subject string      `json:"subject,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func channelSubject(channel string) (string, bool) {
	switch channel {
	case "queries":
		return natsadapter.SubjectQuery + ".>", true
	case "viewsheds":
		return natsadapter.SubjectViewshed, true
	}
	return "", false
}

// WebSocketHandler returns a handler for the live AR loop. The client streams
// observer fixes as they change and receives the projected peaks for each.
// Clients may also subscribe to engine events relayed from NATS:
//
//	{"action":"query","lat":46.55,"lon":7.98,"heading":120,"fov":60}
//	{"action":"subscribe","channel":"viewsheds"}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		logger := slog.Default().With("remote", remoteAddr)
		logger.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription)

		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		replyError := func(msg string) {
			_ = writeJSON(wsReply{Type: "error", Error: msg})
		}

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
				replyError("invalid JSON")
				continue
			}

			switch m.Action {
			case "query":
				if deps.Peaks == nil {
					replyError("peak queries are not available")
					continue
				}
				req, err := m.request()
				if err != nil {
					replyError(err.Error())
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
				result, err := deps.Peaks.Query(ctx, req)
				cancel()
				if err != nil {
					logger.Warn("ws query failed", "error", err)
					replyError(err.Error())
					continue
				}
				_ = writeJSON(wsReply{Type: "peaks", Data: result})

			case "subscribe":
				subject, ok := channelSubject(m.Channel)
				if !ok {
					replyError("unknown channel: " + m.Channel)
					continue
				}
				if deps.NATS == nil {
					replyError("event relay is not available")
					continue
				}
				if _, exists := subs[subject]; exists {
					_ = writeJSON(wsReply{Type: "status", Subject: subject, Data: "already subscribed"})
					continue
				}
				s, err := deps.NATS.Subscribe(subject, func(msg *nats.Msg) {
					data, err := natsadapter.ToJSON(msg.Data)
					if err != nil {
						logger.Warn("ws relay decode failed", "subject", msg.Subject, "error", err)
						return
					}
					_ = writeJSON(wsReply{Type: "event", Subject: msg.Subject, Data: json.RawMessage(data)})
				})
				if err != nil {
					replyError("subscribe failed: " + err.Error())
					continue
				}
				subs[subject] = s
				_ = writeJSON(wsReply{Type: "status", Subject: subject, Data: "subscribed"})

			case "unsubscribe":
				subject, ok := channelSubject(m.Channel)
				if !ok {
					replyError("unknown channel: " + m.Channel)
					continue
				}
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(wsReply{Type: "status", Subject: subject, Data: "unsubscribed"})
				} else {
					replyError("not subscribed to " + subject)
				}

			default:
				replyError("unknown action: " + m.Action)
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		logger.Info("ws client disconnected")
	}
}
