package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const checksumKeyPrefix = "media:checksum:"

type ChecksumLookup interface {
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)
}

// Guard answers "has this content been ingested?" ahead of any storage work.
// It is a fast path only; the unique index on the record table decides races.
type Guard struct {
	lookup ChecksumLookup
	cache  *redis.Client
	ttl    time.Duration
}

// NewGuard builds a guard over lookup. cache may be nil.
func NewGuard(lookup ChecksumLookup, cache *redis.Client, ttl time.Duration) *Guard {
	return &Guard{lookup: lookup, cache: cache, ttl: ttl}
}

func (g *Guard) Exists(ctx context.Context, checksum string) (bool, error) {
	if g.cache != nil {
		n, err := g.cache.Exists(ctx, checksumKeyPrefix+checksum).Result()
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("dedup cache lookup failed")
		} else if n > 0 {
			return true, nil
		}
	}
	return g.lookup.ExistsByChecksum(ctx, checksum)
}

func (g *Guard) Remember(ctx context.Context, checksum string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Set(ctx, checksumKeyPrefix+checksum, 1, g.ttl).Err(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("checksum", checksum).Msg("failed to cache checksum")
	}
}

func (g *Guard) Forget(ctx context.Context, checksum string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Del(ctx, checksumKeyPrefix+checksum).Err(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("checksum", checksum).Msg("failed to evict checksum from cache")
	}
}
