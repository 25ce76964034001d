package cache

import (
	"hash/maphash"

	"github.com/hupe1980/subword/internal/resource"
)

const numShards = 16

// ShardedLRU distributes keys across LRU shards by hash.
type ShardedLRU struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

// NewShardedLRU creates a sharded cache. The capacity is divided evenly
// across all shards.
func NewShardedLRU(capacity int64, rc *resource.Controller) *ShardedLRU {
	shardCapacity := capacity / numShards
	if shardCapacity < 1 {
		shardCapacity = 1
	}

	s := &ShardedLRU{seed: maphash.MakeSeed()}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *ShardedLRU) shard(key string) *LRU {
	return s.shards[maphash.String(s.seed, key)%numShards]
}

// Get returns the cached vector for key.
func (s *ShardedLRU) Get(key string) ([]float32, bool) {
	return s.shard(key).Get(key)
}

// Set caches v under key.
func (s *ShardedLRU) Set(key string, v []float32) {
	s.shard(key).Set(key, v)
}

// Purge empties every shard.
func (s *ShardedLRU) Purge() {
	for _, sh := range s.shards {
		sh.Purge()
	}
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRU) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRU) Size() int64 {
	var total int64
	for _, sh := range s.shards {
		total += sh.Size()
	}
	return total
}
