package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is a short-TTL redis-backed response cache for idempotent GETs
// (chart and series endpoints mostly). Misses and redis failures are both
// treated as cache misses so the fetch path never depends on redis being up.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache builds a cache from a redis URL. Returns nil (cache disabled)
// when the URL is empty or unparseable.
func NewCache(redisURL string, ttl time.Duration) *Cache {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid redis url, response cache disabled")
		return nil
	}
	return &Cache{rdb: redis.NewClient(opts), ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, err := c.rdb.Get(ctx, cacheKey(url)).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *Cache) Set(ctx context.Context, url string, body []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(url), body, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("response cache write failed")
	}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "meridian:fetch:" + hex.EncodeToString(sum[:16])
}
