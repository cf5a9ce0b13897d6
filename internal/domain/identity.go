package domain

import (
	"fmt"
	"slices"
	"time"
)

// Role represents the single role granted to an identity
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole converts a stored role name into a Role
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Authority returns the authority string embedded in access token claims
func (r Role) Authority() string {
	return string(r)
}

// Identity represents a registered user account
type Identity struct {
	ID                    int64     `json:"id"`
	Email                 string    `json:"email"`
	PasswordHash          string    `json:"-"` // Never serialize password
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Role                  Role      `json:"role"`
	Enabled               bool      `json:"enabled"`
	AccountNonExpired     bool      `json:"account_non_expired"`
	AccountNonLocked      bool      `json:"account_non_locked"`
	CredentialsNonExpired bool      `json:"credentials_non_expired"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// NewIdentity builds a freshly registered USER identity with every status flag set
func NewIdentity(firstName, lastName, email, passwordHash string) *Identity {
	return &Identity{
		Email:                 email,
		PasswordHash:          passwordHash,
		FirstName:             firstName,
		LastName:              lastName,
		Role:                  RoleUser,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
}

// Authorities returns the granted authority strings
func (i *Identity) Authorities() []string {
	return []string{i.Role.Authority()}
}

// Usable reports whether the account may sign in
func (i *Identity) Usable() bool {
	return i.Enabled && i.AccountNonExpired && i.AccountNonLocked && i.CredentialsNonExpired
}

// Principal is the authenticated caller attached to a request
type Principal struct {
	IdentityID  int64    `json:"identity_id"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the principal was granted authority
func (p *Principal) HasAuthority(authority string) bool {
	return p != nil && slices.Contains(p.Authorities, authority)
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresInMs  int64 // access token lifetime in milliseconds
}
