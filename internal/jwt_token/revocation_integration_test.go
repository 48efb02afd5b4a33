//go:build integration

package jwttoken

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"greenlight/pkg/testutil/containers"
)

type RevocationListSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	list  *RevocationList
}

func TestRevocationListSuite(t *testing.T) {
	suite.Run(t, new(RevocationListSuite))
}

func (s *RevocationListSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.list = NewRevocationList(s.redis.Client)
}

func (s *RevocationListSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RevocationListSuite) TestRevokeAndCheck() {
	ctx := context.Background()

	revoked, err := s.list.IsTokenRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = s.list.IsTokenRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	ttl, err := s.redis.Client.TTL(ctx, revocationKeyPrefix+"jti-1").Result()
	s.Require().NoError(err)
	s.InDelta(time.Minute.Seconds(), ttl.Seconds(), 5)
}

func (s *RevocationListSuite) TestExpiredTokenIsNotStored() {
	ctx := context.Background()
	s.Require().NoError(s.list.Revoke(ctx, "jti-2", 0))

	revoked, err := s.list.IsTokenRevoked(ctx, "jti-2")
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RevocationListSuite) TestRevokeRequiresJTI() {
	s.Error(s.list.Revoke(context.Background(), "", time.Minute))
}
