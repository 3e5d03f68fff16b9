// Package sink defines the delivery targets the bus fans out to.
package sink

import (
	"context"

	"github.com/eventgate-io/eventgate/internal/event"
)

// Sink receives matched envelopes independently of the client-facing
// response. Deliver takes the sink's own copy of the envelope; a returned
// error is logged and counted by the bus but never surfaced to the
// publisher or to other sinks.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, env event.Envelope) error
}
