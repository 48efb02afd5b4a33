package jwttoken

import (
	"context"
	"errors"
	"time"

	dErrors "greenlight/pkg/domain-errors"
	"greenlight/pkg/platform/middleware/auth"
	"greenlight/pkg/requestcontext"
	"greenlight/pkg/secrets"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultIssuer   = "greenlight"
	DefaultAudience = "greenlight-validate"
)

// IdentityClaims carries the identity a presented certificate is matched
// against, plus the jurisdiction whose rules apply to the holder.
type IdentityClaims struct {
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Birthdate  string `json:"birthdate"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the input for issuing a token.
type Identity struct {
	Subject    string
	GivenName  string
	FamilyName string
	Birthdate  string
	Country    string
	Region     string
}

// JWTService handles identity token creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewJWTService(signingKey string, issuer string, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

func (s *JWTService) GenerateIdentityToken(ctx context.Context, ident Identity) (string, error) {
	if ident.Subject == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "subject is required")
	}
	if ident.FamilyName == "" && ident.GivenName == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "a name is required")
	}

	jti, err := secrets.ID()
	if err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, IdentityClaims{
		GivenName:  ident.GivenName,
		FamilyName: ident.FamilyName,
		Birthdate:  ident.Birthdate,
		Country:    ident.Country,
		Region:     ident.Region,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        jti,
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*IdentityClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &IdentityClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*IdentityClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has no subject")
	}
	return claims, nil
}

// Adapter exposes the service through the auth middleware's validator port.
type Adapter struct {
	service *JWTService
}

func NewAdapter(service *JWTService) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{
		Subject:    claims.Subject,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Birthdate:  claims.Birthdate,
		Country:    claims.Country,
		Region:     claims.Region,
		JTI:        claims.ID,
	}, nil
}
