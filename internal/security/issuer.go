package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sean-huni/store-sub000/internal/domain"
)

// TokenIssuer mints access and refresh tokens for an identity
type TokenIssuer struct {
	codec      *TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer validates the lifetimes. Refresh tokens must outlive access tokens.
func NewTokenIssuer(codec *TokenCodec, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if codec == nil {
		return nil, errors.New("token codec is required")
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf("access token lifetime must be positive, got %s", accessTTL)
	}
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("refresh token lifetime %s must exceed access token lifetime %s", refreshTTL, accessTTL)
	}
	return &TokenIssuer{codec: codec, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssueAccessToken carries the identity's authorities. Each token gets its own
// jti, so two tokens minted within the same second still differ.
func (i *TokenIssuer) IssueAccessToken(identity *domain.Identity) (string, error) {
	claims := map[string]any{
		claimAuthorities: identity.Authorities(),
		claimTokenID:     uuid.NewString(),
	}
	return i.issue(claims, identity.Email, i.accessTTL)
}

// IssueRefreshToken carries no claims beyond subject and timestamps
func (i *TokenIssuer) IssueRefreshToken(identity *domain.Identity) (string, error) {
	return i.issue(map[string]any{}, identity.Email, i.refreshTTL)
}

// IssuePair issues both tokens
func (i *TokenIssuer) IssuePair(identity *domain.Identity) (*domain.TokenPair, error) {
	access, err := i.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}
	refresh, err := i.IssueRefreshToken(identity)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresInMs:  i.accessTTL.Milliseconds(),
	}, nil
}

// AccessTokenTTL returns the configured access token lifetime
func (i *TokenIssuer) AccessTokenTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) issue(claims map[string]any, subject string, ttl time.Duration) (string, error) {
	now := i.codec.Now()
	return i.codec.Encode(claims, subject, now, now.Add(ttl))
}
