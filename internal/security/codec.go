package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Minimum signing key size (HS256 needs 256 bits)
const minKeyBytes = 32

const (
	claimAuthorities = "authorities"
	claimTokenID     = "jti"
)

var (
	// ErrInvalidSigningKey is returned at startup when the secret is unusable
	ErrInvalidSigningKey = errors.New("invalid token signing key")
	// ErrTokenDecode covers malformed tokens and signature mismatches
	ErrTokenDecode = errors.New("token decode failed")
	// ErrTokenExpired is a correctly signed token past its expiry. Matches ErrTokenDecode.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrTokenDecode)
)

// Claims is the decoded content of a session token
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Values holds every claim other than sub, iat and exp
	Values map[string]any
}

// Authorities returns the authority strings carried by an access token
func (c *Claims) Authorities() []string {
	raw, ok := c.Values[claimAuthorities].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TokenCodec signs and verifies HMAC JWTs with a shared secret
type TokenCodec struct {
	key    []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// CodecOption configures a TokenCodec
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for expiry checks
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec decodes the base64 secret and picks the HMAC variant its length allows
func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		key, err = base64.URLEncoding.DecodeString(secret)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not base64: %v", ErrInvalidSigningKey, err)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("%w: key is %d bits, need at least %d", ErrInvalidSigningKey, len(key)*8, minKeyBytes*8)
	}

	c := &TokenCodec{
		key:    key,
		method: methodForKey(key),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func methodForKey(key []byte) jwt.SigningMethod {
	switch {
	case len(key) >= 64:
		return jwt.SigningMethodHS512
	case len(key) >= 48:
		return jwt.SigningMethodHS384
	default:
		return jwt.SigningMethodHS256
	}
}

// Algorithm returns the JWS alg name in use
func (c *TokenCodec) Algorithm() string {
	return c.method.Alg()
}

// Now returns the codec clock's current time
func (c *TokenCodec) Now() time.Time {
	return c.now()
}

// Encode signs claims for subject. Reserved claim names in claims are overwritten.
func (c *TokenCodec) Encode(claims map[string]any, subject string, issuedAt, expiresAt time.Time) (string, error) {
	mc := jwt.MapClaims{}
	maps.Copy(mc, claims)
	mc["sub"] = subject
	mc["iat"] = jwt.NewNumericDate(issuedAt)
	mc["exp"] = jwt.NewNumericDate(expiresAt)

	signed, err := jwt.NewWithClaims(c.method, mc).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of token and returns its claims
func (c *TokenCodec) Decode(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, mc,
		func(t *jwt.Token) (any, error) {
			return c.key, nil
		},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenDecode, err)
	}

	claims := &Claims{Values: map[string]any{}}
	if claims.Subject, err = mc.GetSubject(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenDecode, err)
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	for k, v := range mc {
		switch k {
		case "sub", "iat", "exp":
		default:
			claims.Values[k] = v
		}
	}
	return claims, nil
}
