package dto

import (
	"regexp"
	"strings"

	"github.com/sean-huni/store-sub000/internal/domain"
)

// TokenTypeBearer is the fixed token type label of every auth response
const TokenTypeBearer = "Bearer"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// RegisterRequest represents registration request
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
}

// Validate checks fields that binding tags cannot express
func (r *RegisterRequest) Validate() (bool, string) {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return false, "First and last name must not be blank"
	}
	if !emailRegex.MatchString(r.Email) {
		return false, "Invalid email format"
	}
	// bcrypt only looks at the first 72 bytes
	if len(r.Password) < 8 {
		return false, "Password must be at least 8 characters"
	}
	if len(r.Password) > 72 {
		return false, "Password must not exceed 72 bytes"
	}
	return true, ""
}

// AuthenticateRequest represents login request
type AuthenticateRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // milliseconds until access token expires
}

// NewAuthResponse builds the response for a token pair
func NewAuthResponse(pair *domain.TokenPair) *AuthResponse {
	return &AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    pair.ExpiresInMs,
	}
}

// MeResponse represents the authenticated caller
type MeResponse struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Authorities []string `json:"authorities"`
}

// NewMeResponse builds the profile of the given identity
func NewMeResponse(identity *domain.Identity) *MeResponse {
	return &MeResponse{
		ID:          identity.ID,
		Email:       identity.Email,
		FirstName:   identity.FirstName,
		LastName:    identity.LastName,
		Role:        string(identity.Role),
		Authorities: identity.Authorities(),
	}
}
