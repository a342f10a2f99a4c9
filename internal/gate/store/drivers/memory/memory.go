// Package memory provides in-process implementations of the keyed
// counter and block stores. Entries live in sharded maps guarded by
// per-shard mutexes; suitable for single-instance deployments and
// tests. Multi-instance deployments should use the redis driver so
// every instance sees the same windows.
package memory

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

const shardCount = 16

type counterShard struct {
	mu     sync.Mutex
	events map[string][]time.Time
}

// CounterStore is a sharded in-memory sliding-window event store.
type CounterStore struct {
	shards [shardCount]*counterShard
}

func NewCounterStore() *CounterStore {
	s := &CounterStore{}
	for i := range s.shards {
		s.shards[i] = &counterShard{events: make(map[string][]time.Time)}
	}
	return s
}

func (s *CounterStore) shard(key string) *counterShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return s.shards[h.Sum32()%shardCount]
}

func (s *CounterStore) Record(_ context.Context, key string, at time.Time) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.events[key] = append(sh.events[key], at)
	return nil
}

func (s *CounterStore) Count(_ context.Context, key string, window time.Duration, now time.Time) (int, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	events := sh.events[key]
	if len(events) == 0 {
		return 0, nil
	}

	cutoff := now.Add(-window)
	kept := events[:0]
	for _, at := range events {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) == 0 {
		delete(sh.events, key)
		return 0, nil
	}
	sh.events[key] = kept
	return len(kept), nil
}

func (s *CounterStore) Clear(_ context.Context, key string) error {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.events, key)
	return nil
}

// Prune drops every key whose newest event falls outside the window.
// Run periodically so abandoned keys do not accumulate.
func (s *CounterStore) Prune(_ context.Context, window time.Duration, now time.Time) error {
	cutoff := now.Add(-window)
	for _, sh := range s.shards {
		sh.mu.Lock()
		for key, events := range sh.events {
			if len(events) == 0 || !newest(events).After(cutoff) {
				delete(sh.events, key)
			}
		}
		sh.mu.Unlock()
	}
	return nil
}

func newest(events []time.Time) time.Time {
	// Events are appended in wall-clock order in practice, but don't
	// rely on it.
	if sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Before(events[j]) }) {
		return events[len(events)-1]
	}
	max := events[0]
	for _, at := range events[1:] {
		if at.After(max) {
			max = at
		}
	}
	return max
}

// BlockStore tracks per-key temporary denials in memory.
type BlockStore struct {
	mu     sync.Mutex
	blocks map[string]time.Time
}

func NewBlockStore() *BlockStore {
	return &BlockStore{blocks: make(map[string]time.Time)}
}

func (s *BlockStore) SetBlock(_ context.Context, key string, at time.Time, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blocks[key] = at
	return nil
}

func (s *BlockStore) GetBlock(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.blocks[key]
	return at, ok, nil
}

func (s *BlockStore) ClearBlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blocks, key)
	return nil
}
