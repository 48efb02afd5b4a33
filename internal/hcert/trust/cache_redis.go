package trust

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	dErrors "greenlight/pkg/domain-errors"
)

const (
	defaultCacheKey = "greenlight:trustlist:last-good"
	defaultCacheTTL = 7 * 24 * time.Hour
)

// RedisCache keeps the last trust list that was fetched successfully, so
// validation keeps working through an outage of the trust list endpoint.
// Bundle windows still apply to whatever is served from here.
type RedisCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

// NewRedisCache panics on a nil client; callers without Redis use no cache.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if client == nil {
		panic("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, key: defaultCacheKey, ttl: ttl}
}

// Load returns CodeNotFound when nothing was stored yet.
func (c *RedisCache) Load(ctx context.Context) (TrustList, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return TrustList{}, dErrors.New(dErrors.CodeNotFound, "no cached trust list")
	}
	if err != nil {
		return TrustList{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "read cached trust list")
	}
	return DecodeTrustList(data)
}

func (c *RedisCache) Store(ctx context.Context, list TrustList) error {
	data, err := list.Encode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode trust list")
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "write cached trust list")
	}
	return nil
}
