package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/domain"
	"github.com/sean-huni/store-sub000/internal/metrics"
	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/response"
)

const (
	// PrincipalKey is the gin context key holding the *domain.Principal
	PrincipalKey = "principal"

	// AuthenticationRequiredMessage is returned for protected routes reached without a principal
	AuthenticationRequiredMessage = "Full authentication is required to access this resource"
)

type principalCtxKey struct{}

// TokenValidator is the part of security.TokenValidator the gate needs
type TokenValidator interface {
	ExtractSubject(token string) (string, error)
	IsValid(token string, identity *domain.Identity) bool
}

// IdentityFinder reloads identities by email
type IdentityFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.Identity, bool, error)
}

// GateConfig names the header and scheme prefix carrying the bearer token
type GateConfig struct {
	HeaderName  string
	TokenPrefix string
}

// DefaultGateConfig reads "Authorization: Bearer <token>"
func DefaultGateConfig() GateConfig {
	return GateConfig{HeaderName: "Authorization", TokenPrefix: "Bearer "}
}

// Authenticate attaches a principal when the request carries a valid bearer token.
// It never rejects a request; RequireAuthentication does that for protected routes.
func Authenticate(validator TokenValidator, identities IdentityFinder, cfg GateConfig, log *logger.Logger) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultGateConfig().HeaderName
	}
	if log == nil {
		log = logger.NewNop()
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		header := c.GetHeader(cfg.HeaderName)
		if header == "" || !strings.HasPrefix(header, cfg.TokenPrefix) {
			metrics.RecordGate(ctx, metrics.GateAnonymous)
			c.Next()
			return
		}
		token := strings.TrimSpace(header[len(cfg.TokenPrefix):])

		subject, err := validator.ExtractSubject(token)
		if err != nil || subject == "" {
			log.DebugContext(ctx, "bearer token not accepted", zap.Error(err))
			metrics.RecordGate(ctx, metrics.GateRejected)
			c.Next()
			return
		}

		// An earlier stage already authenticated this request
		if GetPrincipal(c) != nil {
			c.Next()
			return
		}

		identity, found, err := identities.FindByEmail(ctx, subject)
		if err != nil {
			log.WarnContext(ctx, "failed to reload identity for bearer token", zap.Error(err))
			metrics.RecordGate(ctx, metrics.GateRejected)
			c.Next()
			return
		}
		if !found || !validator.IsValid(token, identity) {
			metrics.RecordGate(ctx, metrics.GateRejected)
			c.Next()
			return
		}

		SetPrincipal(c, &domain.Principal{
			IdentityID:  identity.ID,
			Email:       identity.Email,
			Authorities: identity.Authorities(),
		})
		metrics.RecordGate(ctx, metrics.GateAuthenticated)
		c.Next()
	}
}

// RequireAuthentication rejects requests that reached it without a principal
func RequireAuthentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetPrincipal(c) == nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", AuthenticationRequiredMessage)
			return
		}
		c.Next()
	}
}

// RequireAuthority rejects requests whose principal lacks authority
func RequireAuthority(authority string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", AuthenticationRequiredMessage)
			return
		}
		if !principal.HasAuthority(authority) {
			response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
			return
		}
		c.Next()
	}
}

// SetPrincipal stores principal on both the gin context and the request context
func SetPrincipal(c *gin.Context, principal *domain.Principal) {
	c.Set(PrincipalKey, principal)
	c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))
}

// GetPrincipal returns the authenticated principal, or nil
func GetPrincipal(c *gin.Context) *domain.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}

// WithPrincipal returns a copy of ctx carrying principal
func WithPrincipal(ctx context.Context, principal *domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, principal)
}

// PrincipalFromContext returns the principal stored by the gate, if any
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*domain.Principal)
	return p, ok && p != nil
}
