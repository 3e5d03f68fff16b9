package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/logging"
)

// StreamPublisher appends one record to the observability stream.
// *nats.Conn satisfies it directly.
type StreamPublisher interface {
	Publish(subject string, data []byte) error
}

// Debug is the low-latency observability sink: it publishes every matched
// envelope as a structured record, fire and forget. Publish failures are
// logged and dropped; nothing downstream depends on this sink.
type Debug struct {
	pub     StreamPublisher
	subject string
	logger  *logging.Logger
}

// NewDebug builds a debug sink publishing to subject.
func NewDebug(pub StreamPublisher, subject string, logger *logging.Logger) *Debug {
	return &Debug{pub: pub, subject: subject, logger: logger}
}

func (d *Debug) Name() string { return "debug" }

// Deliver publishes the envelope synchronously; it never blocks on
// downstream consumption.
func (d *Debug) Deliver(ctx context.Context, env event.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := d.pub.Publish(d.subject, data); err != nil {
		d.logger.WarnContext(ctx, "debug sink publish failed", logging.Error(err), logging.Source(env.Source))
		return fmt.Errorf("publish to %s: %w", d.subject, err)
	}
	return nil
}
