// Package store provides the snapshot cache used by the market data layer.
package store

import (
	"context"
	"fmt"
	"time"

	apperrors "equity-valuator/internal/errors"
)

// DefaultTTL is how long a cached snapshot stays fresh.
const DefaultTTL = time.Hour

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// SnapshotCache is a key/value cache with per-entry expiry. Get returns
// ErrCacheMiss for absent or expired keys.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Purge drops expired entries and reports how many were removed.
	Purge(ctx context.Context) (int, error)

	// Name identifies the backend in logs and metrics.
	Name() string

	Close() error
}

// Options selects and configures a cache backend.
type Options struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// New creates the cache backend named in opts.
func New(opts Options) (SnapshotCache, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(nil), nil
	case BackendSQLite:
		return NewSQLiteStore(opts.SQLitePath)
	case BackendRedis:
		return NewRedisStore(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.KeyPrefix)
	case BackendNone:
		return NoopStore{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", apperrors.ErrConfigInvalid, opts.Backend)
	}
}

// SnapshotKey is the cache key for a ticker's snapshot.
func SnapshotKey(ticker string) string {
	return "snapshot:" + ticker
}

// NoopStore disables caching: every Get misses and writes are dropped.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string) ([]byte, error) {
	return nil, apperrors.ErrCacheMiss
}

func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopStore) Delete(context.Context, string) error { return nil }

func (NoopStore) Purge(context.Context) (int, error) { return 0, nil }

func (NoopStore) Name() string { return BackendNone }

func (NoopStore) Close() error { return nil }
