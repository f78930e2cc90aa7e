package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hann12-34/discovr-events/internal/event"
)

const eventKeyPrefix = "event:"

// RedisStore stores each event under event:<id> and appends newly stored
// events to a capped stream
type RedisStore struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStore connects to addr and verifies the server is reachable
func NewRedisStore(ctx context.Context, addr string, db int, stream string, maxLen int64) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client, stream: stream, maxLen: maxLen}, nil
}

// Save claims each event's key with SETNX. Only events that win the claim are
// published to the stream.
func (s *RedisStore) Save(ctx context.Context, events []*event.Event) (SaveResult, error) {
	var res SaveResult

	for _, e := range events {
		if e == nil {
			continue
		}
		payload, err := json.Marshal(e)
		if err != nil {
			return res, fmt.Errorf("encoding event %s: %w", e.ID, err)
		}

		created, err := s.client.SetNX(ctx, eventKeyPrefix+e.ID, payload, 0).Result()
		if err != nil {
			return res, fmt.Errorf("saving event %s: %w", e.ID, err)
		}
		if !created {
			res.Skipped++
			continue
		}

		args := &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{"id": e.ID, "event": payload},
		}
		if s.maxLen > 0 {
			args.MaxLen = s.maxLen
			args.Approx = true
		}
		if err := s.client.XAdd(ctx, args).Err(); err != nil {
			return res, fmt.Errorf("publishing event %s: %w", e.ID, err)
		}
		res.Inserted++
	}
	return res, nil
}

// Get retrieves one stored event by ID
func (s *RedisStore) Get(ctx context.Context, id string) (*event.Event, error) {
	data, err := s.client.Get(ctx, eventKeyPrefix+id).Bytes()
	if err != nil {
		return nil, fmt.Errorf("loading event %s: %w", id, err)
	}
	var e event.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding event %s: %w", id, err)
	}
	return &e, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close(ctx context.Context) error {
	return s.client.Close()
}
