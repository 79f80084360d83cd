package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	apperrors "equity-valuator/internal/errors"
	"equity-valuator/internal/logging"
	"equity-valuator/internal/models"
	"equity-valuator/internal/store"
)

// Cache outcomes reported to CacheObserver.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// CacheObserver receives cache lookup outcomes.
type CacheObserver interface {
	ObserveCache(backend, outcome string)
}

// CachedProvider serves snapshots from a SnapshotCache and falls through to
// the wrapped provider on a miss. Only successful fetches are stored.
// Quotes and peer multiples are never cached.
type CachedProvider struct {
	inner    Provider
	cache    store.SnapshotCache
	ttl      time.Duration
	logger   zerolog.Logger
	observer CacheObserver
}

// NewCachedProvider wraps inner with cache. A ttl of zero means store.DefaultTTL.
func NewCachedProvider(inner Provider, cache store.SnapshotCache, ttl time.Duration, logger zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = store.DefaultTTL
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// SetObserver attaches a cache outcome observer.
func (c *CachedProvider) SetObserver(obs CacheObserver) {
	c.observer = obs
}

func (c *CachedProvider) observe(key, outcome string) {
	logging.LogCacheEvent(c.logger, c.cache.Name(), key, outcome)
	if c.observer != nil {
		c.observer.ObserveCache(c.cache.Name(), outcome)
	}
}

// Snapshot returns a fresh cached snapshot or fetches and caches one.
func (c *CachedProvider) Snapshot(ctx context.Context, ticker string) (*models.FinancialSnapshot, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	key := store.SnapshotKey(ticker)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		s, decodeErr := store.DecodeSnapshot(data)
		if decodeErr == nil {
			c.observe(key, CacheHit)
			return s, nil
		}
		c.logger.Warn().Err(decodeErr).Str("key", key).Msg("Dropping undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
		c.observe(key, CacheError)
	case errors.Is(err, apperrors.ErrCacheMiss):
		c.observe(key, CacheMiss)
	default:
		// A broken cache must not take the service down.
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		c.observe(key, CacheError)
	}

	s, err := c.inner.Snapshot(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if encoded, err := store.EncodeSnapshot(s); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode snapshot for cache")
	} else if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return s, nil
}

// PeerQuote delegates to the wrapped provider.
func (c *CachedProvider) PeerQuote(ctx context.Context, ticker string) (models.PeerQuote, error) {
	return c.inner.PeerQuote(ctx, ticker)
}

// Quote delegates to the wrapped provider.
func (c *CachedProvider) Quote(ctx context.Context, ticker string) (*models.Quote, error) {
	return c.inner.Quote(ctx, ticker)
}

// Invalidate drops a ticker's cached snapshot.
func (c *CachedProvider) Invalidate(ctx context.Context, ticker string) error {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return err
	}
	return c.cache.Delete(ctx, store.SnapshotKey(ticker))
}
