// Package jwt issues and verifies admin access tokens.
package jwt

import (
	"time"

	"github.com/Laisky/errors/v2"
	jwtLib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims of an admin access token. Subject is the admin id, ID is the token id
// used for revocation.
type Claims struct {
	jwtLib.RegisteredClaims
	Account string `json:"account"`
}

// JWT signs tokens with HS256
type JWT struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures JWT
type Option func(*JWT)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// New creates a JWT signer/verifier.
func New(secret []byte, ttl time.Duration, opts ...Option) (*JWT, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, errors.Errorf("jwt ttl must be positive, got %s", ttl)
	}

	j := &JWT{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

// TTL returns the lifetime of issued tokens
func (j *JWT) TTL() time.Duration {
	return j.ttl
}

// Sign issues a token for the admin
func (j *JWT) Sign(adminID, account string) (token string, claims *Claims, err error) {
	now := j.now()
	claims = &Claims{
		RegisteredClaims: jwtLib.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminID,
			IssuedAt:  jwtLib.NewNumericDate(now),
			ExpiresAt: jwtLib.NewNumericDate(now.Add(j.ttl)),
		},
		Account: account,
	}

	token, err = jwtLib.NewWithClaims(jwtLib.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "sign token")
	}

	return token, claims, nil
}

// Parse verifies signature and expiry and returns the claims
func (j *JWT) Parse(token string) (*Claims, error) {
	claims := new(Claims)
	if _, err := jwtLib.ParseWithClaims(token, claims,
		func(*jwtLib.Token) (any, error) {
			return j.secret, nil
		},
		jwtLib.WithValidMethods([]string{jwtLib.SigningMethodHS256.Alg()}),
		jwtLib.WithExpirationRequired(),
		jwtLib.WithTimeFunc(j.now),
	); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("token missing subject or id")
	}

	return claims, nil
}
