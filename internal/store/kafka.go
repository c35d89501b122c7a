package store

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaNotifier consumes deal change events from the upstream application's
// deal-events topic and republishes them as store change signals. It is an
// alternative ChangeNotifier for deployments where store writes are already
// announced on Kafka rather than Redis pub/sub.
type KafkaNotifier struct {
	reader *kafka.Reader
	logger *zap.Logger
}

// NewKafkaNotifier creates a change notifier over a deal-events topic.
func NewKafkaNotifier(brokers []string, topic, groupID string, logger *zap.Logger) *KafkaNotifier {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    1 << 20,
		StartOffset: kafka.LastOffset,
	})

	return &KafkaNotifier{reader: reader, logger: logger}
}

// Changes delivers change events until ctx is cancelled, then closes the
// channel and the underlying reader.
func (n *KafkaNotifier) Changes(ctx context.Context) (<-chan ChangeEvent, error) {
	events := make(chan ChangeEvent)

	go func() {
		defer close(events)
		defer n.reader.Close()

		for {
			msg, err := n.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				n.logger.Warn("failed to read deal change event", zap.Error(err))
				continue
			}

			var event ChangeEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				n.logger.Warn("undecodable deal change event",
					zap.Int64("offset", msg.Offset))
				continue
			}

			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}
