package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventgate-io/eventgate/internal/event"
	"github.com/eventgate-io/eventgate/internal/logging"
)

type fakeStore struct {
	mu       sync.Mutex
	batches  [][][]byte
	failures int
	calls    int
}

func (f *fakeStore) WriteBatch(ctx context.Context, records [][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("storage unavailable")
	}
	batch := make([][]byte, len(records))
	copy(batch, records)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeStore) snapshot() [][][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][][]byte, len(f.batches))
	copy(out, f.batches)
	return out
}

func (f *fakeStore) totalRecords() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func testLogger() *logging.Logger {
	return logging.New(slog.LevelError, "text")
}

func archiveEnvelope(clientID string) event.Envelope {
	return event.New(clientID, event.Route{
		Source:     "clientevents",
		DetailType: "detailTypeField",
		BusName:    "clientevents-bus",
	})
}

func fastConfig() ArchiveConfig {
	return ArchiveConfig{
		FlushInterval: 20 * time.Millisecond,
		FlushTimeout:  time.Second,
		Retry:         Backoff{Attempts: 1},
	}
}

func TestArchive_FlushWritesWholeWindowAsOneBatch(t *testing.T) {
	store := &fakeStore{}
	a := NewArchive(store, ArchiveConfig{FlushInterval: time.Hour, FlushTimeout: time.Second}, testLogger())

	const n = 25
	for i := 0; i < n; i++ {
		require.NoError(t, a.Deliver(context.Background(), archiveEnvelope(fmt.Sprintf("client-%d", i))))
	}

	a.Flush(context.Background())

	batches := store.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], n)

	var env event.Envelope
	require.NoError(t, json.Unmarshal(batches[0][0], &env))
	assert.Equal(t, []string{"client-0"}, env.Resources)
	assert.Equal(t, "clientevents", env.Source)
}

func TestArchive_EmptyBufferDoesNotWrite(t *testing.T) {
	store := &fakeStore{}
	a := NewArchive(store, fastConfig(), testLogger())

	a.Flush(context.Background())
	assert.Zero(t, store.calls)
}

func TestArchive_TimerDrivenFlush(t *testing.T) {
	store := &fakeStore{}
	a := NewArchive(store, fastConfig(), testLogger())
	a.Start()
	defer a.Close()

	require.NoError(t, a.Deliver(context.Background(), archiveEnvelope("client-1")))

	assert.Eventually(t, func() bool {
		return store.totalRecords() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestArchive_FlushRetriesOnFailure(t *testing.T) {
	store := &fakeStore{failures: 1}
	a := NewArchive(store, ArchiveConfig{
		FlushInterval: time.Hour,
		FlushTimeout:  time.Second,
		Retry:         Backoff{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}, testLogger())

	require.NoError(t, a.Deliver(context.Background(), archiveEnvelope("client-1")))
	a.Flush(context.Background())

	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 1, store.totalRecords())
}

func TestArchive_ConcurrentDeliverDuringFlushLosesNothing(t *testing.T) {
	store := &fakeStore{}
	a := NewArchive(store, ArchiveConfig{FlushInterval: time.Hour, FlushTimeout: time.Second}, testLogger())

	const writers = 8
	const perWriter = 50

	stopFlushing := make(chan struct{})
	flusherDone := make(chan struct{})
	go func() {
		defer close(flusherDone)
		for {
			select {
			case <-stopFlushing:
				return
			default:
				a.Flush(context.Background())
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = a.Deliver(context.Background(), archiveEnvelope(gofakeit.Username()))
			}
		}()
	}

	wg.Wait()
	close(stopFlushing)
	<-flusherDone
	a.Flush(context.Background())

	assert.Equal(t, writers*perWriter, store.totalRecords())
}

func TestArchive_CloseFlushesRemainder(t *testing.T) {
	store := &fakeStore{}
	a := NewArchive(store, ArchiveConfig{FlushInterval: time.Hour, FlushTimeout: time.Second}, testLogger())
	a.Start()

	require.NoError(t, a.Deliver(context.Background(), archiveEnvelope("client-1")))
	a.Close()

	assert.Equal(t, 1, store.totalRecords())
}
