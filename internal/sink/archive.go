package sink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/logging"
	"github.com/eventgate-io/eventgate/internal/metrics"
	"github.com/eventgate-io/eventgate/internal/storage"
)

// ArchiveConfig tunes the buffered batch sink.
type ArchiveConfig struct {
	// FlushInterval is the fixed window after which the buffer is written
	// out regardless of size.
	FlushInterval time.Duration

	// FlushTimeout bounds a single flush including retries.
	FlushTimeout time.Duration

	// Retry is applied to each batch write.
	Retry Backoff
}

// DefaultArchiveConfig buffers for a 60 second window before writing.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		FlushInterval: 60 * time.Second,
		FlushTimeout:  30 * time.Second,
		Retry: Backoff{
			Attempts:  3,
			BaseDelay: 500 * time.Millisecond,
			MaxDelay:  5 * time.Second,
		},
	}
}

// Archive buffers matched envelopes and flushes them to durable storage as
// one batch per window. Envelopes buffered but not yet flushed are lost on a
// crash; the loss window is bounded by FlushInterval. Flush outcomes are
// never reported to the bus.
type Archive struct {
	store  storage.BatchWriter
	cfg    ArchiveConfig
	logger *logging.Logger

	mu  sync.Mutex
	buf []event.Envelope

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewArchive builds the sink. Call Start to begin the flush loop.
func NewArchive(store storage.BatchWriter, cfg ArchiveConfig, logger *logging.Logger) *Archive {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultArchiveConfig().FlushInterval
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = DefaultArchiveConfig().FlushTimeout
	}
	return &Archive{
		store:  store,
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (a *Archive) Name() string { return "archive" }

// Deliver appends the envelope to the active buffer. It never blocks on
// storage; a flush in progress has already swapped the buffer out.
func (a *Archive) Deliver(ctx context.Context, env event.Envelope) error {
	a.mu.Lock()
	a.buf = append(a.buf, env)
	a.mu.Unlock()
	return nil
}

// Start launches the timer-driven flush loop.
func (a *Archive) Start() {
	go func() {
		defer close(a.done)

		ticker := time.NewTicker(a.cfg.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				a.Flush(context.Background())
			case <-a.stop:
				return
			}
		}
	}()
}

// Close stops the flush loop and writes out whatever is still buffered.
func (a *Archive) Close() {
	a.stopOnce.Do(func() {
		close(a.stop)
	})
	<-a.done
	a.Flush(context.Background())
}

// Flush swaps out the active buffer and writes it as a single batch.
// Concurrent Deliver calls during the write append to a fresh buffer.
func (a *Archive) Flush(ctx context.Context) {
	a.mu.Lock()
	batch := a.buf
	a.buf = nil
	a.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	records := make([][]byte, 0, len(batch))
	for _, env := range batch {
		data, err := json.Marshal(env)
		if err != nil {
			a.logger.ErrorContext(ctx, "archive sink dropped unencodable envelope", logging.Error(err))
			continue
		}
		records = append(records, data)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.FlushTimeout)
	defer cancel()

	start := time.Now()
	err := a.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		return a.store.WriteBatch(ctx, records)
	})
	metrics.ArchiveFlushDuration.Observe(time.Since(start).Seconds())
	metrics.ArchiveBatchSize.Observe(float64(len(records)))

	if err != nil {
		metrics.ArchiveFlushFailures.Inc()
		a.logger.ErrorContext(ctx, "archive flush failed",
			logging.Error(err), logging.BatchSize(len(records)))
		return
	}

	a.logger.DebugContext(ctx, "archive flush complete", logging.BatchSize(len(records)))
}
