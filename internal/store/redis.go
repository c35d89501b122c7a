package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dealerpulse/dashboard-engine/internal/deal"
)

const (
	recordKeyPrefix   = "deals:"
	changeChannelGlob = "deals:changed:*"
	changeChannelStem = "deals:changed:"
)

// RedisStore reads raw deal records from Redis, where each partition is a
// JSON array under a single key, and surfaces change signals published on
// the partition's pub/sub channel.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a Redis-backed record store.
func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// FetchRecords reads the raw record array for a partition. A missing key is
// the valid zero-records case, not an error.
func (s *RedisStore) FetchRecords(ctx context.Context, partition string) ([]deal.RawRecord, error) {
	payload, err := s.client.Get(ctx, recordKeyPrefix+partition).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read partition %s: %w", partition, err)
	}

	var records []deal.RawRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("failed to decode partition %s: %w", partition, err)
	}

	return records, nil
}

// Changes subscribes to the partition change channels. The channel closes
// when ctx is cancelled.
func (s *RedisStore) Changes(ctx context.Context) (<-chan ChangeEvent, error) {
	pubsub := s.client.PSubscribe(ctx, changeChannelGlob)

	events := make(chan ChangeEvent)
	go func() {
		defer close(events)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				event := ChangeEvent{
					Partition: strings.TrimPrefix(msg.Channel, changeChannelStem),
				}
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Debug("unparseable change payload, using channel partition only",
						zap.String("channel", msg.Channel))
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// PublishChange notifies subscribers that a partition's records changed.
// Store writers (status changes, deletes) call this after a write.
func (s *RedisStore) PublishChange(ctx context.Context, event ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	return s.client.Publish(ctx, changeChannelStem+event.Partition, payload).Err()
}
