package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/domain"
	"github.com/sean-huni/store-sub000/internal/dto"
	"github.com/sean-huni/store-sub000/internal/middleware"
	"github.com/sean-huni/store-sub000/internal/service"
	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/response"
)

// IdentityFinder loads the caller's profile for /me
type IdentityFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, bool, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
	identities  IdentityFinder
	tokenHeader middleware.GateConfig
	logger      *logger.Logger
}

// NewAuthHandler creates a new AuthHandler. tokenHeader names where /refresh-token reads the token.
func NewAuthHandler(authService service.AuthService, identities IdentityFinder, tokenHeader middleware.GateConfig, log *logger.Logger) *AuthHandler {
	if tokenHeader.HeaderName == "" {
		tokenHeader.HeaderName = middleware.DefaultGateConfig().HeaderName
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthHandler{
		authService: authService,
		identities:  identities,
		tokenHeader: tokenHeader,
		logger:      log,
	}
}

// RegisterRoutes mounts the auth endpoints on rg. Handlers in protected run before /me.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, protected ...gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/authenticate", h.Authenticate)
	rg.POST("/refresh-token", h.RefreshToken)
	rg.GET("/me", append(protected, h.Me)...)
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}
	if valid, msg := req.Validate(); !valid {
		response.ValidationError(c, msg)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Created(c, result)
}

// Authenticate handles user login
// POST /api/v1/auth/authenticate
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req dto.AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, bindingMessage(err))
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// RefreshToken issues a fresh access token. The refresh token travels in the
// auth header, raw or behind the bearer prefix.
// POST /api/v1/auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := strings.TrimSpace(c.GetHeader(h.tokenHeader.HeaderName))
	if prefix := strings.TrimSpace(h.tokenHeader.TokenPrefix); prefix != "" && strings.HasPrefix(token, prefix+" ") {
		token = strings.TrimSpace(token[len(prefix):])
	}
	if token == "" {
		response.Unauthorized(c, "INVALID_REFRESH_TOKEN", "Refresh token is required")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Me returns the authenticated caller
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)
	if principal == nil {
		response.Unauthorized(c, "UNAUTHORIZED", middleware.AuthenticationRequiredMessage)
		return
	}

	identity, found, err := h.identities.FindByEmail(c.Request.Context(), principal.Email)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !found {
		h.writeError(c, service.ErrIdentityNotFound)
		return
	}

	response.Success(c, dto.NewMeResponse(identity))
}

// writeError maps service errors onto the response envelope
func (h *AuthHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		response.Conflict(c, "EMAIL_EXISTS", "User with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrAccountUnavailable):
		response.Unauthorized(c, "ACCOUNT_UNAVAILABLE", "Account is disabled, locked or expired")
	case errors.Is(err, service.ErrIdentityNotFound):
		response.Unauthorized(c, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, "INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.InternalError(c)
	}
}
