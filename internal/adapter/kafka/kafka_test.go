package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/observability"
)

var errBrokerDown = errors.New("broker down")

type fakeWriter struct {
	failures int
	calls    int
	batches  [][]kafkago.Message
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errBrokerDown
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(w *fakeWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{
		writer:  w,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: m,
	}, m
}

func runWithEvents(n int) domain.RunResult {
	start := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	events := make([]domain.LoggedEvent, n)
	for i := range events {
		events[i] = domain.LoggedEvent{
			Timestamp:   start.Add(time.Duration(i) * time.Second),
			CategoryKey: domain.KeyGentleTap,
			DisplayName: "gentle tap",
			Intensity:   0.03,
			ChaosFactor: 1,
			StateBefore: 1,
			StateAfter:  1.03,
		}
	}
	return domain.RunResult{RunID: "run-1", Events: events}
}

func TestSerializeToMessage(t *testing.T) {
	ts := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	ev := domain.LoggedEvent{
		Timestamp:   ts,
		CategoryKey: domain.KeySoftVeil,
		DisplayName: "soft veil",
		Intensity:   0.004,
		ChaosFactor: 1.1,
		StateBefore: 1,
		StateAfter:  1.004,
		IsMist:      true,
	}

	msg, err := serializeToMessage("run-1", 7, ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Equal(t, ts, msg.Time)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, kafkago.Header{Key: "run_id", Value: []byte("run-1")}, msg.Headers[0])
	assert.Equal(t, kafkago.Header{Key: "category", Value: []byte("soft_veil")}, msg.Headers[1])
	assert.Equal(t, kafkago.Header{Key: "is_mist", Value: []byte("true")}, msg.Headers[2])

	var decoded EventMessage
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 7, decoded.Sequence)
	assert.Equal(t, ev, decoded.LoggedEvent)
	assert.Contains(t, string(msg.Value), `"type":"soft_veil"`)
}

func TestPublishRun_BatchesInOrder(t *testing.T) {
	w := &fakeWriter{}
	p, m := newTestPublisher(w)

	require.NoError(t, p.PublishRun(context.Background(), runWithEvents(250)))

	require.Len(t, w.batches, 3)
	assert.Len(t, w.batches[0], 100)
	assert.Len(t, w.batches[2], 50)

	var last EventMessage
	require.NoError(t, json.Unmarshal(w.batches[2][49].Value, &last))
	assert.Equal(t, 249, last.Sequence)
	assert.InDelta(t, 250, testutil.ToFloat64(m.MessagesPublished), 0)
}

func TestPublishRun_Empty(t *testing.T) {
	w := &fakeWriter{}
	p, _ := newTestPublisher(w)

	require.NoError(t, p.PublishRun(context.Background(), domain.RunResult{RunID: "run-1"}))
	assert.Zero(t, w.calls)
}

func TestPublishRun_RetriesTransientFailure(t *testing.T) {
	w := &fakeWriter{failures: 1}
	p, m := newTestPublisher(w)

	require.NoError(t, p.PublishRun(context.Background(), runWithEvents(3)))

	assert.Equal(t, 2, w.calls)
	require.Len(t, w.batches, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PublishErrors), 0)
}

func TestPublishRun_StopsWhenContextCancelled(t *testing.T) {
	w := &fakeWriter{failures: maxAttempts}
	p, _ := newTestPublisher(w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PublishRun(ctx, runWithEvents(3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, w.calls)
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p, _ := newTestPublisher(w)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
