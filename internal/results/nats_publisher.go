package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is where completed runs are published when none is configured.
const DefaultSubject = "indexbench.runs.completed"

const flushTimeout = 5 * time.Second

type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher announces finished runs on a NATS subject.
type NATSPublisher struct {
	conn    publisher
	subject string
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, subject string) (*NATSPublisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("indexbench"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSPublisher(nc, subject), nil
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn publisher, subject string) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// Name implements Sink.
func (p *NATSPublisher) Name() string { return "nats" }

// Subject returns the subject runs are published to.
func (p *NATSPublisher) Subject() string { return p.subject }

// Send publishes run as JSON and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Send(ctx context.Context, run Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	// FlushWithContext rejects contexts without a deadline.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", p.subject, err)
	}
	return nil
}

// Close implements Sink.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
