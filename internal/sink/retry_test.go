package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Backoff{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}.Do(
		context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestBackoff_ExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Backoff{Attempts: 4, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}.Do(
		context.Background(), func(ctx context.Context) error {
			calls++
			return boom
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls)
}

func TestBackoff_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Backoff{}.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoff_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Backoff{Attempts: 3}.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("nope")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestBackoff_CancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Backoff{Attempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}.Do(ctx,
			func(ctx context.Context) error {
				calls++
				return errors.New("transient")
			})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}
