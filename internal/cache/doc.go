// Package cache provides byte-bounded LRU caching for immutable blob blocks.
//
// ShardedLRU spreads keys over 64 LRU shards, each with its own mutex,
// so concurrent column readers rarely contend on the same lock.
package cache
