package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client publishes engine events.
type Client interface {
	Publish(subject string, data interface{}) error
	Close()
}

type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

func NewNATSClient(ctx context.Context, url string, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name("strategix"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx); err != nil {
		logger.Warn("failed to ensure stream", "stream", StreamName, "error", err)
	}
	return c, nil
}

// ensureStream retains analysis and advisory events so late consumers can
// replay them.
func (c *NATSClient) ensureStream(ctx context.Context) error {
	maxAge, _ := time.ParseDuration(StreamMaxAge)
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectAnalysisWildcard, SubjectAdvisoryWildcard},
		MaxAge:   maxAge,
	})
	return err
}

func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.conn.Publish(subject, payload)
}

func (c *NATSClient) Close() {
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}

// Emitter publishes best-effort: a missing client is a no-op and publish
// failures are logged, never returned.
type Emitter struct {
	client Client
	logger *slog.Logger
}

// NewEmitter wraps client, which may be nil.
func NewEmitter(client Client, logger *slog.Logger) *Emitter {
	return &Emitter{client: client, logger: logger}
}

func (e *Emitter) Emit(subject string, event interface{}) {
	if e == nil || e.client == nil {
		return
	}
	if err := e.client.Publish(subject, event); err != nil {
		e.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}
