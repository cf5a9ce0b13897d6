package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sean-huni/store-sub000/internal/repository"
	"github.com/sean-huni/store-sub000/internal/security"
)

// CredentialVerifier checks an email/password pair
type CredentialVerifier interface {
	// Verify returns ErrInvalidCredentials for an unknown email or wrong password,
	// ErrAccountUnavailable when the password is right but the account cannot sign in
	Verify(ctx context.Context, email, password string) error
}

// passwordVerifier verifies against the identity store
type passwordVerifier struct {
	identities repository.IdentityRepository
	hasher     security.PasswordHasher
	// compared against for unknown emails so both paths cost one hash
	dummyHash string
}

// NewPasswordVerifier creates a verifier backed by identities and hasher
func NewPasswordVerifier(identities repository.IdentityRepository, hasher security.PasswordHasher) (CredentialVerifier, error) {
	dummy, err := hasher.Hash("timing-equalizer-not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare credential verifier: %w", err)
	}
	return &passwordVerifier{identities: identities, hasher: hasher, dummyHash: dummy}, nil
}

func (v *passwordVerifier) Verify(ctx context.Context, email, password string) error {
	identity, found, err := v.identities.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !found {
		_ = v.hasher.Compare(v.dummyHash, password)
		return ErrInvalidCredentials
	}

	if err := v.hasher.Compare(identity.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	if !identity.Usable() {
		return ErrAccountUnavailable
	}
	return nil
}
