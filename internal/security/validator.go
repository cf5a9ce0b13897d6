package security

import (
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/domain"
	"github.com/sean-huni/store-sub000/pkg/logger"
)

// TokenValidator decides whether a token authorizes acting as an identity
type TokenValidator struct {
	codec  *TokenCodec
	logger *logger.Logger
}

// NewTokenValidator creates a validator. A nil logger discards output.
func NewTokenValidator(codec *TokenCodec, log *logger.Logger) *TokenValidator {
	if log == nil {
		log = logger.NewNop()
	}
	return &TokenValidator{codec: codec, logger: log}
}

// ExtractSubject decodes token and returns its subject.
// Errors match ErrTokenDecode, or ErrTokenExpired for expired tokens.
func (v *TokenValidator) ExtractSubject(token string) (string, error) {
	claims, err := v.codec.Decode(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid never fails: any problem with token or identity yields false
func (v *TokenValidator) IsValid(token string, identity *domain.Identity) bool {
	if token == "" || identity == nil {
		return false
	}

	claims, err := v.codec.Decode(token)
	if err != nil {
		v.logger.Debug("token rejected", zap.Error(err))
		return false
	}

	if claims.Subject != identity.Email {
		v.logger.Debug("token subject mismatch", zap.Int64("identity_id", identity.ID))
		return false
	}

	return identity.Enabled
}
