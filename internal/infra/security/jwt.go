package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenMalformed indicates the token could not be parsed or decoded.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenSignatureInvalid indicates signature verification failed.
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// AccessTokenClaims carries the signed fields of a console access token. The
// global-admin flag is a snapshot taken at issuance and is covered by the
// signature, so a forged elevation is detectable.
type AccessTokenClaims struct {
	GlobalAdmin bool `json:"global_admin"`
	jwt.RegisteredClaims
}

// TokenCodecConfig configures the HMAC token codec.
type TokenCodecConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Leeway tolerates clock skew during expiry checks. Zero means strict
	// expiry, which is the default policy.
	Leeway time.Duration
}

const defaultAccessTokenTTL = 15 * time.Minute

// TokenCodec signs and verifies access tokens with a symmetric HMAC-SHA256
// key. Tokens are self-describing: the server keeps no session state beyond
// the signing key, so validation never touches a store.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

// NewTokenCodec constructs a TokenCodec from configuration.
func NewTokenCodec(cfg TokenCodecConfig) (*TokenCodec, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("token: signing secret is required")
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("token: signing secret must be at least 32 bytes")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}

	leeway := cfg.Leeway
	if leeway < 0 {
		leeway = 0
	}

	return &TokenCodec{
		secret: []byte(secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    ttl,
		leeway: leeway,
		now:    time.Now,
	}, nil
}

// WithClock injects a custom clock, primarily for expiry tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// TTL returns the default token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the subject using the default TTL.
func (c *TokenCodec) Issue(username string, globalAdmin bool) (string, error) {
	return c.IssueWithTTL(username, globalAdmin, c.ttl)
}

// IssueWithTTL signs a token for the subject with an explicit lifetime.
func (c *TokenCodec) IssueWithTTL(username string, globalAdmin bool, ttl time.Duration) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("token: subject is required")
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now().UTC()
	claims := AccessTokenClaims{
		GlobalAdmin: globalAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature and expiry of a compact token and returns its
// claims. Failures map to exactly one of the token sentinel errors.
func (c *TokenCodec) Parse(raw string) (*AccessTokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	claims := &AccessTokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if c.leeway > 0 {
		opts = append(opts, jwt.WithLeeway(c.leeway))
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
