package adapters

import (
	"context"
	"errors"
	"time"

	"parcel-tracker/internal/core/cache"
	"parcel-tracker/internal/core/logger"
	"parcel-tracker/internal/features/parcels/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	trackKeyPrefix     = "parcels:track:"
	trackVersionSuffix = ":version"
)

// RedisTrackCache implements ports.TrackCache using the cache adapter.
// Failures are logged and reported as misses.
//
// Invalidate writes a fresh random version marker that outlives any entry,
// and entries record the version seen before the parcel was loaded. An entry
// whose version no longer matches the marker is a miss, so a lookup racing
// a transition cannot put the older parcel back.
type RedisTrackCache struct {
	cache cache.Cache
	ttl   time.Duration
}

type trackEntry struct {
	Version string         `json:"version"`
	Parcel  *domain.Parcel `json:"parcel"`
}

// NewRedisTrackCache creates a new RedisTrackCache.
func NewRedisTrackCache(c cache.Cache, ttl time.Duration) *RedisTrackCache {
	return &RedisTrackCache{cache: c, ttl: ttl}
}

// Get returns the cached parcel for code and the code's current version.
func (r *RedisTrackCache) Get(ctx context.Context, code string) (*domain.Parcel, string, bool) {
	version, err := r.cache.Get(ctx, trackKeyPrefix+code+trackVersionSuffix)
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		logger.Get().Warn("Track cache read failed", zap.String("tracking_number", code), zap.Error(err))
		return nil, "", false
	}

	var entry trackEntry
	if err := cache.Load(ctx, r.cache, trackKeyPrefix+code, &entry); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.Get().Warn("Track cache read failed", zap.String("tracking_number", code), zap.Error(err))
		}
		return nil, string(version), false
	}
	if entry.Parcel == nil || entry.Version != string(version) {
		return nil, string(version), false
	}
	return entry.Parcel, string(version), true
}

// Set stores p under its tracking number, stamped with version.
func (r *RedisTrackCache) Set(ctx context.Context, p *domain.Parcel, version string) {
	entry := trackEntry{Version: version, Parcel: p}
	if err := cache.Store(ctx, r.cache, trackKeyPrefix+p.TrackingNumber, entry, r.ttl); err != nil {
		logger.Get().Warn("Track cache write failed", zap.String("tracking_number", p.TrackingNumber), zap.Error(err))
	}
}

// Invalidate moves code to a new version and drops the entry.
func (r *RedisTrackCache) Invalidate(ctx context.Context, code string) {
	marker := []byte(uuid.NewString())
	if err := r.cache.Set(ctx, trackKeyPrefix+code+trackVersionSuffix, marker, 2*r.ttl); err != nil {
		logger.Get().Warn("Track cache invalidation failed", zap.String("tracking_number", code), zap.Error(err))
	}
	if err := r.cache.Delete(ctx, trackKeyPrefix+code); err != nil {
		logger.Get().Warn("Track cache invalidation failed", zap.String("tracking_number", code), zap.Error(err))
	}
}
