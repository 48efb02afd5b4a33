package jwttoken

import (
	"context"
	"testing"
	"time"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/requestcontext"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtService = NewJWTService("test-signing-key", "test-issuer", "test-audience", time.Hour)

var holder = Identity{
	Subject:    "holder-1",
	GivenName:  "Erika",
	FamilyName: "Mustermann",
	Birthdate:  "1964-08-12",
	Country:    "AT",
	Region:     "W",
}

func Test_GenerateIdentityToken(t *testing.T) {
	token, err := jwtService.GenerateIdentityToken(context.Background(), holder)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "holder-1", claims.Subject)
	assert.Equal(t, "Erika", claims.GivenName)
	assert.Equal(t, "Mustermann", claims.FamilyName)
	assert.Equal(t, "1964-08-12", claims.Birthdate)
	assert.Equal(t, "AT", claims.Country)
	assert.Equal(t, "W", claims.Region)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateIdentityToken_RequiresSubjectAndName(t *testing.T) {
	_, err := jwtService.GenerateIdentityToken(context.Background(), Identity{FamilyName: "X"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = jwtService.GenerateIdentityToken(context.Background(), Identity{Subject: "s"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Hour))
	token, err := jwtService.GenerateIdentityToken(ctx, holder)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorContains(t, err, "token expired")
}

func Test_ValidateToken_WrongKey(t *testing.T) {
	other := NewJWTService("other-key", "test-issuer", "test-audience", time.Hour)
	token, err := other.GenerateIdentityToken(context.Background(), holder)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorContains(t, err, "invalid token")
}

func Test_ValidateToken_WrongIssuerOrAudience(t *testing.T) {
	for _, svc := range []*JWTService{
		NewJWTService("test-signing-key", "someone-else", "test-audience", time.Hour),
		NewJWTService("test-signing-key", "test-issuer", "another-audience", time.Hour),
	} {
		token, err := svc.GenerateIdentityToken(context.Background(), holder)
		require.NoError(t, err)
		_, err = jwtService.ValidateToken(token)
		require.Error(t, err)
	}
}

func Test_ValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, IdentityClaims{
		FamilyName: "Mustermann",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "holder-1",
			Issuer:    "test-issuer",
			Audience:  []string{"test-audience"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(signed)
	require.Error(t, err)
}

func Test_Adapter(t *testing.T) {
	token, err := jwtService.GenerateIdentityToken(context.Background(), holder)
	require.NoError(t, err)

	claims, err := NewAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "holder-1", claims.Subject)
	assert.Equal(t, "Mustermann", claims.FamilyName)
	assert.Equal(t, "W", claims.Region)
	assert.NotEmpty(t, claims.JTI)

	_, err = NewAdapter(jwtService).ValidateToken("garbage")
	require.Error(t, err)
}
