// Package cache provides an LRU cache for computed word vectors.
//
// Vectors of out-of-vocabulary words are the sum of many n-gram rows, so
// repeated lookups of the same word are worth caching. The ShardedLRU
// spreads entries across 16 shards to reduce lock contention. Entry
// memory is charged to the resource controller; an entry the controller
// refuses is simply not cached.
package cache
