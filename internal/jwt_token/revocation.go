package jwttoken

import (
	"context"
	"errors"
	"time"

	dErrors "greenlight/pkg/domain-errors"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "greenlight:revoked:"

// RevocationList is a Redis-backed deny list of token IDs. Entries expire
// with the token they revoke.
type RevocationList struct {
	client *redis.Client
}

func NewRevocationList(client *redis.Client) *RevocationList {
	if client == nil {
		panic("redis client is required")
	}
	return &RevocationList{client: client}
}

func (l *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return dErrors.New(dErrors.CodeBadRequest, "jti is required")
	}
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revocationKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
	}
	return nil
}

func (l *RevocationList) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := l.client.Get(ctx, revocationKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check token revocation")
	}
	return true, nil
}
