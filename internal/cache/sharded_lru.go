package cache

import (
	"encoding/binary"
	"hash/maphash"
)

const numShards = 64

// ShardedLRU is an LRU split across 64 shards by key hash.
type ShardedLRU struct {
	shards [numShards]*LRU
	seed   maphash.Seed
}

var _ BlockCache = (*ShardedLRU)(nil)

// NewShardedLRU creates a sharded cache. The capacity is divided evenly
// across all shards.
func NewShardedLRU(capacity int64) *ShardedLRU {
	s := &ShardedLRU{seed: maphash.MakeSeed()}
	shardCapacity := max(capacity/numShards, 1)
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity)
	}
	return s
}

func (s *ShardedLRU) shard(key Key) *LRU {
	var h maphash.Hash
	h.SetSeed(s.seed)
	_, _ = h.WriteString(key.Blob)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(key.Block))
	_, _ = h.Write(buf[:])
	return s.shards[h.Sum64()%numShards]
}

// Get returns a cached block.
func (s *ShardedLRU) Get(key Key) ([]byte, bool) {
	return s.shard(key).Get(key)
}

// Set caches a block.
func (s *ShardedLRU) Set(key Key, b []byte) {
	s.shard(key).Set(key, b)
}

// Invalidate removes every block of blob from all shards.
func (s *ShardedLRU) Invalidate(blob string) {
	for _, shard := range s.shards {
		shard.Invalidate(blob)
	}
}

// Stats returns aggregated hit and miss counts.
func (s *ShardedLRU) Stats() (hits, misses int64) {
	for _, shard := range s.shards {
		h, m := shard.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRU) Size() int64 {
	var total int64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}

// Len returns the number of cached blocks across all shards.
func (s *ShardedLRU) Len() int {
	var n int
	for _, shard := range s.shards {
		n += shard.Len()
	}
	return n
}
