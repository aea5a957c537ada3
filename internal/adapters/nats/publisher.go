package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/peakview/internal/core/ports"
)

const (
	SubjectQuery    = "peakview.query"
	SubjectViewshed = "peakview.viewshed"
	StreamName      = "PEAKVIEW_EVENTS"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"peakview.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// QuerySubject is the subject a query event is published on.
func QuerySubject(strategy string) string {
	return SubjectQuery + "." + strategy
}

func (p *Publisher) PublishQuery(ctx context.Context, event *ports.QueryEvent) error {
	return p.publish(ctx, QuerySubject(event.Strategy), event)
}

func (p *Publisher) PublishViewshed(ctx context.Context, event *ports.ViewshedEvent) error {
	return p.publish(ctx, SubjectViewshed, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, event any) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set("Content-Type", ContentType)
	msg.Data = data
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for plain subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn dials NATS with unlimited reconnects.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("peakview"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
