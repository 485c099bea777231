package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis keeps a capped, expiring list of recent rounds per room.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	limit     int64
	ttl       time.Duration
}

func NewRedis(client *redis.Client, keyPrefix string, limit int, ttl time.Duration) *Redis {
	if client == nil {
		panic("history: nil redis client")
	}
	if keyPrefix == "" {
		keyPrefix = "euchre:"
	}
	if limit <= 0 {
		limit = 20
	}
	return &Redis{client: client, keyPrefix: keyPrefix, limit: int64(limit), ttl: ttl}
}

func (r *Redis) roundsKey(room string) string {
	return fmt.Sprintf("%sroom:%s:rounds", r.keyPrefix, room)
}

func (r *Redis) Record(ctx context.Context, round Round) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("redis: encode round: %w", err)
	}
	key := r.roundsKey(round.Room)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, r.limit-1)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: push round to %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Recent(ctx context.Context, room string, n int) ([]Round, error) {
	stop := int64(n) - 1
	if n <= 0 {
		stop = -1
	}
	key := r.roundsKey(room)
	items, err := r.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: read %s: %w", key, err)
	}
	out := make([]Round, 0, len(items))
	for _, item := range items {
		var round Round
		if err := json.Unmarshal([]byte(item), &round); err != nil {
			return nil, fmt.Errorf("redis: decode round from %s: %w", key, err)
		}
		out = append(out, round)
	}
	return out, nil
}

func (r *Redis) Close() error { return r.client.Close() }
