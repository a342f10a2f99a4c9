// Package redis backs the keyed counter and block stores with Redis so
// sliding windows and blocks are shared across gate instances. Events
// are stored in sorted sets scored by unix-nano timestamps; counting a
// window is a ZRemRangeByScore followed by ZCard.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatehouselabs/gatehouse/pkg/idx"
)

const (
	counterPrefix = "gate:ctr:"
	blockPrefix   = "gate:blk:"
)

// CounterStore implements a sliding-window event counter on Redis
// sorted sets.
type CounterStore struct {
	client *redis.Client
}

func NewCounterStore(client *redis.Client) *CounterStore {
	return &CounterStore{client: client}
}

func (s *CounterStore) Record(ctx context.Context, key string, at time.Time) error {
	// ULID suffix keeps same-instant events as distinct members.
	member := strconv.FormatInt(at.UnixNano(), 10) + ":" + idx.New().String()
	err := s.client.ZAdd(ctx, counterPrefix+key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: member,
	}).Err()
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

func (s *CounterStore) Count(ctx context.Context, key string, window time.Duration, now time.Time) (int, error) {
	rkey := counterPrefix + key
	cutoff := now.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "-inf", strconv.FormatInt(cutoff, 10))
	card := pipe.ZCard(ctx, rkey)
	pipe.Expire(ctx, rkey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(card.Val()), nil
}

func (s *CounterStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, counterPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

// Prune is a no-op: keys carry TTLs refreshed on every Count, so Redis
// evicts stale windows on its own.
func (s *CounterStore) Prune(_ context.Context, _ time.Duration, _ time.Time) error {
	return nil
}

// BlockStore tracks per-key denials as plain Redis strings holding the
// block start, expiring on their own via TTL.
type BlockStore struct {
	client *redis.Client
}

func NewBlockStore(client *redis.Client) *BlockStore {
	return &BlockStore{client: client}
}

func (s *BlockStore) SetBlock(ctx context.Context, key string, at time.Time, ttl time.Duration) error {
	value := strconv.FormatInt(at.UnixNano(), 10)
	if err := s.client.Set(ctx, blockPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("set block: %w", err)
	}
	return nil
}

func (s *BlockStore) GetBlock(ctx context.Context, key string) (time.Time, bool, error) {
	value, err := s.client.Get(ctx, blockPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get block: %w", err)
	}

	nanos, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse block timestamp: %w", err)
	}
	return time.Unix(0, nanos), true, nil
}

func (s *BlockStore) ClearBlock(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, blockPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear block: %w", err)
	}
	return nil
}
