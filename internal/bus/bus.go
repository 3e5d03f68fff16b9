// Package bus implements the named event bus the gateway publishes to.
// Rules are registered once at setup; each published envelope is matched
// against every rule and forwarded to the bound sinks asynchronously.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/logging"
	"github.com/eventgate-io/eventgate/internal/metrics"
	"github.com/eventgate-io/eventgate/internal/sink"
)

// ErrStopped is returned by Publish once the bus is shut down.
var ErrStopped = errors.New("bus stopped")

// ThrottledMessage is the per-entry error reported when the dispatch queue
// is full, matching the throttling message the upstream bus emits.
const ThrottledMessage = "Limit exceeded"

// Rule binds an exact-match predicate on the envelope source to an ordered
// set of sinks. Matching is independent per rule: an envelope may match
// zero, one, or many rules, and the same sink receives the envelope once
// per matching rule it is bound to.
type Rule struct {
	Name   string
	Source string
	Sinks  []sink.Sink
}

// Matches reports whether the rule fires for the envelope.
func (r Rule) Matches(env event.Envelope) bool {
	return env.Source == r.Source
}

// Result is the synchronous outcome of a publish: the number of failed
// entries plus the first failing entry's error message. Sink delivery is
// not part of it; fan-out is asynchronous and invisible to the publisher.
type Result struct {
	FailedCount  int
	ErrorMessage string
}

// Config tunes the bus.
type Config struct {
	// QueueSize is the dispatch queue capacity. Publishes beyond it are
	// rejected as throttled entries rather than blocking the caller.
	QueueSize int

	// MaxDetailBytes caps the entry detail payload. Zero means no cap.
	MaxDetailBytes int
}

// Bus is a named in-process event bus. The rule table is populated at setup
// time and read-only afterwards, so dispatch reads it without locking.
type Bus struct {
	name   string
	cfg    Config
	logger *logging.Logger

	rules []Rule

	queue   chan event.Envelope
	stop    chan struct{}
	done    chan struct{}
	stopped sync.Once
	started bool
}

// New creates a bus with the given name.
func New(name string, cfg Config, logger *logging.Logger) *Bus {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	return &Bus{
		name:   name,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan event.Envelope, cfg.QueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Name returns the bus name envelopes must target.
func (b *Bus) Name() string { return b.name }

// Subscribe registers a rule. Setup-time only; never call it once the bus
// is started.
func (b *Bus) Subscribe(r Rule) {
	if b.started {
		panic("bus: Subscribe after Start")
	}
	b.rules = append(b.rules, r)
}

// Start launches the dispatcher goroutine.
func (b *Bus) Start() {
	b.started = true
	go b.dispatch()
}

// Stop rejects further publishes, drains the queue, and waits for the
// dispatcher to finish. Already-accepted envelopes are still delivered.
func (b *Bus) Stop() {
	b.stopped.Do(func() {
		close(b.stop)
	})
	<-b.done
}

// Publish validates the envelope and hands it to the dispatcher. The
// returned Result is the only feedback the publisher gets: entry-level
// failures show up as a failed count, transport-level failures as an error.
func (b *Bus) Publish(ctx context.Context, env event.Envelope) (Result, error) {
	select {
	case <-b.stop:
		return Result{}, ErrStopped
	default:
	}
	if !b.started {
		return Result{}, errors.New("bus not started")
	}

	if msg := b.validateEntry(env); msg != "" {
		metrics.PublishesTotal.WithLabelValues("failed_entry").Inc()
		return Result{FailedCount: 1, ErrorMessage: msg}, nil
	}

	select {
	case b.queue <- env:
		metrics.PublishesTotal.WithLabelValues("accepted").Inc()
		metrics.DispatchQueueDepth.Set(float64(len(b.queue)))
		return Result{}, nil
	default:
		metrics.PublishesTotal.WithLabelValues("throttled").Inc()
		return Result{FailedCount: 1, ErrorMessage: ThrottledMessage}, nil
	}
}

func (b *Bus) validateEntry(env event.Envelope) string {
	if env.Source == "" {
		return "Parameter Source is required"
	}
	if env.DetailType == "" {
		return "Parameter DetailType is required"
	}
	if env.BusName != b.name {
		return fmt.Sprintf("Event bus %s does not exist", env.BusName)
	}
	if b.cfg.MaxDetailBytes > 0 && len(env.Detail) > b.cfg.MaxDetailBytes {
		return "Total size of the entries in the request is over the limit"
	}
	return ""
}

func (b *Bus) dispatch() {
	defer close(b.done)

	for {
		select {
		case env := <-b.queue:
			metrics.DispatchQueueDepth.Set(float64(len(b.queue)))
			b.fanOut(env)
		case <-b.stop:
			// Drain what was accepted before the stop.
			for {
				select {
				case env := <-b.queue:
					b.fanOut(env)
				default:
					return
				}
			}
		}
	}
}

// fanOut forwards the envelope to every sink of every matching rule. Each
// sink gets its own copy and its own failure handling; one sink failing
// never blocks or fails the others.
func (b *Bus) fanOut(env event.Envelope) {
	ctx := context.Background()

	for _, rule := range b.rules {
		if !rule.Matches(env) {
			continue
		}
		for _, s := range rule.Sinks {
			if err := s.Deliver(ctx, env); err != nil {
				metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "error").Inc()
				b.logger.ErrorContext(ctx, "sink delivery failed",
					logging.SinkName(s.Name()), logging.Rule(rule.Name), logging.Error(err))
				continue
			}
			metrics.SinkDeliveriesTotal.WithLabelValues(s.Name(), "ok").Inc()
		}
	}
}
