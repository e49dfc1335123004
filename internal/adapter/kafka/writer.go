package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-shock-simulator/internal/config"
	"github.com/couchcryptid/storm-shock-simulator/internal/domain"
	"github.com/couchcryptid/storm-shock-simulator/internal/observability"
)

const (
	batchSize      = 100
	maxAttempts    = 5
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// EventMessage is the JSON value of every published message.
type EventMessage struct {
	RunID    string `json:"run_id"`
	Sequence int    `json:"sequence"`
	domain.LoggedEvent
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher streams the event log of a finished run to a Kafka topic.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger, metrics: metrics}
}

// PublishRun writes every logged event of res, in log order, keyed by run id
// so that a run lands on one partition. Failed batches are retried with
// exponential backoff until ctx is done or the attempts run out.
func (p *Publisher) PublishRun(ctx context.Context, res domain.RunResult) error {
	msgs := make([]kafkago.Message, 0, len(res.Events))
	for i, ev := range res.Events {
		msg, err := serializeToMessage(res.RunID, i, ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	for start := 0; start < len(msgs); start += batchSize {
		end := min(start+batchSize, len(msgs))
		if err := p.writeWithRetry(ctx, msgs[start:end]); err != nil {
			return fmt.Errorf("publish run %s: %w", res.RunID, err)
		}
		p.metrics.MessagesPublished.Add(float64(end - start))
	}

	p.logger.Info("run published", "run_id", res.RunID, "messages", len(msgs))
	return nil
}

func (p *Publisher) writeWithRetry(ctx context.Context, batch []kafkago.Message) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = p.writer.WriteMessages(ctx, batch...); err == nil {
			return nil
		}
		p.metrics.PublishErrors.Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("kafka write failed", "error", err, "attempt", attempt, "batch_size", len(batch))
		if attempt == maxAttempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one logged event into a Kafka message.
func serializeToMessage(runID string, seq int, ev domain.LoggedEvent) (kafkago.Message, error) {
	data, err := json.Marshal(EventMessage{RunID: runID, Sequence: seq, LoggedEvent: ev})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize ceremony event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(runID),
		Value: data,
		Time:  ev.Timestamp,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "category", Value: []byte(ev.CategoryKey)},
			{Key: "is_mist", Value: []byte(strconv.FormatBool(ev.IsMist))},
		},
	}, nil
}
