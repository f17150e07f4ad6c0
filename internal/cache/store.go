// Package cache provides TTL key/value stores for fetched climate data and
// geocoding results.
package cache

import (
	"context"
	"time"

	"github.com/golang/snappy"
	"github.com/jonboulle/clockwork"
)

// Store is a byte-oriented TTL cache. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Memory is an in-process Store backed by an LRU.
type Memory struct {
	lru *LRU[[]byte]
}

// NewMemory creates a memory store holding at most size entries.
func NewMemory(size int, clock clockwork.Clock) *Memory {
	return &Memory{lru: NewLRU[[]byte](size, clock)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.lru.Put(key, append([]byte(nil), value...), ttl)
	return nil
}

// Compress snappy-encodes a cache value.
func Compress(data []byte) []byte {
	return snappy.Encode(nil, data)
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}
