package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventgate-io/eventgate/internal/event"
)

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	payload := make([]byte, len(data))
	copy(payload, data)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestDebug_PublishesStructuredRecord(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDebug(pub, "eventgate.debug", testLogger())

	env := archiveEnvelope("client-3")
	require.NoError(t, d.Deliver(context.Background(), env))

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "eventgate.debug", pub.subjects[0])

	var got event.Envelope
	require.NoError(t, json.Unmarshal(pub.payloads[0], &got))
	assert.Equal(t, env, got)
}

func TestDebug_PublishFailureIsReportedNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("stream gone")}
	d := NewDebug(pub, "eventgate.debug", testLogger())

	err := d.Deliver(context.Background(), archiveEnvelope("client-3"))
	assert.Error(t, err)
}

func TestDebug_Name(t *testing.T) {
	d := NewDebug(&fakePublisher{}, "eventgate.debug", testLogger())
	assert.Equal(t, "debug", d.Name())
}
