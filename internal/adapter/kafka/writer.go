package kafka

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/couchcryptid/climate-odds/internal/config"
	"github.com/couchcryptid/climate-odds/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces report messages to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the serialized reports in a single WriteMessages call.
// Reports are keyed by query ID so answers to one caller stay ordered.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = toMessage(events[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("reports written", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage converts an OutputEvent into a Kafka message. Headers are sorted
// by key for stable output.
func toMessage(event domain.OutputEvent) kafkago.Message {
	msg := kafkago.Message{Key: event.Key, Value: event.Value}
	for _, k := range slices.Sorted(maps.Keys(event.Headers)) {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return msg
}
