package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/internal/domain"
	"github.com/sean-huni/store-sub000/internal/dto"
	"github.com/sean-huni/store-sub000/internal/events"
	"github.com/sean-huni/store-sub000/internal/metrics"
	"github.com/sean-huni/store-sub000/internal/repository"
	"github.com/sean-huni/store-sub000/internal/security"
	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/telemetry"
)

var (
	ErrDuplicateIdentity   = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountUnavailable  = errors.New("account is disabled, locked or expired")
	ErrIdentityNotFound    = errors.New("user not found")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Register creates a USER identity and signs it in
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	// Authenticate verifies credentials and issues a token pair
	Authenticate(ctx context.Context, req *dto.AuthenticateRequest) (*dto.AuthResponse, error)
	// RefreshToken issues a new access token and echoes the refresh token back
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
}

// AuthServiceDeps holds the collaborators of AuthService
type AuthServiceDeps struct {
	Identities repository.IdentityRepository
	Hasher     security.PasswordHasher
	Issuer     *security.TokenIssuer
	Validator  *security.TokenValidator

	// Optional
	Verifier  CredentialVerifier // defaults to NewPasswordVerifier(Identities, Hasher)
	Publisher events.Publisher   // defaults to events.NopPublisher
	Logger    *logger.Logger
}

// authService implements AuthService
type authService struct {
	identities repository.IdentityRepository
	hasher     security.PasswordHasher
	verifier   CredentialVerifier
	issuer     *security.TokenIssuer
	validator  *security.TokenValidator
	publisher  events.Publisher
	logger     *logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(deps AuthServiceDeps) (AuthService, error) {
	if deps.Identities == nil || deps.Hasher == nil || deps.Issuer == nil || deps.Validator == nil {
		return nil, errors.New("auth service: identities, hasher, issuer and validator are required")
	}

	if deps.Verifier == nil {
		v, err := NewPasswordVerifier(deps.Identities, deps.Hasher)
		if err != nil {
			return nil, err
		}
		deps.Verifier = v
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	return &authService{
		identities: deps.Identities,
		hasher:     deps.Hasher,
		verifier:   deps.Verifier,
		issuer:     deps.Issuer,
		validator:  deps.Validator,
		publisher:  deps.Publisher,
		logger:     deps.Logger,
	}, nil
}

// Register registers a new user
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (_ *dto.AuthResponse, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "service.auth.register")
	defer span.End()
	defer func() { metrics.RecordRegister(ctx, start, err) }()

	span.SetAttributes(attribute.String("email", req.Email))

	exists, err := s.identities.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, spanError(span, err)
	}
	if exists {
		return nil, spanError(span, fmt.Errorf("%w: %s", ErrDuplicateIdentity, req.Email))
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, spanError(span, err)
	}

	identity := domain.NewIdentity(req.FirstName, req.LastName, req.Email, hash)
	if err := s.identities.Create(ctx, identity); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			err = fmt.Errorf("%w: %s", ErrDuplicateIdentity, req.Email)
		}
		return nil, spanError(span, err)
	}

	pair, err := s.issuer.IssuePair(identity)
	if err != nil {
		return nil, spanError(span, err)
	}

	span.SetAttributes(attribute.Int64("identity_id", identity.ID))
	s.logger.InfoContext(ctx, "identity registered", zap.Int64("identity_id", identity.ID))
	s.publish(ctx, events.NewAuthEvent(events.EventUserRegistered, identity.ID, identity.Email, string(identity.Role)))

	span.SetStatus(codes.Ok, "")
	return dto.NewAuthResponse(pair), nil
}

// Authenticate signs in with email and password
func (s *authService) Authenticate(ctx context.Context, req *dto.AuthenticateRequest) (_ *dto.AuthResponse, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "service.auth.authenticate")
	defer span.End()
	defer func() { metrics.RecordLogin(ctx, start, err) }()

	span.SetAttributes(attribute.String("email", req.Email))

	if err := s.verifier.Verify(ctx, req.Email, req.Password); err != nil {
		return nil, spanError(span, err)
	}

	identity, found, err := s.identities.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, spanError(span, err)
	}
	if !found {
		return nil, spanError(span, ErrIdentityNotFound)
	}

	pair, err := s.issuer.IssuePair(identity)
	if err != nil {
		return nil, spanError(span, err)
	}

	span.SetAttributes(attribute.Int64("identity_id", identity.ID))
	s.publish(ctx, events.NewAuthEvent(events.EventUserAuthenticated, identity.ID, identity.Email, string(identity.Role)))

	span.SetStatus(codes.Ok, "")
	return dto.NewAuthResponse(pair), nil
}

// RefreshToken mints a new access token from a refresh token. The refresh
// token is returned unchanged; it stays usable until it expires.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (_ *dto.AuthResponse, err error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "service.auth.refresh_token")
	defer span.End()
	defer func() { metrics.RecordRefresh(ctx, start, err) }()
	// A token that trips a panic downstream is still just an invalid token
	defer func() {
		if r := recover(); r != nil {
			s.logger.WarnContext(ctx, "refresh panicked", zap.Any("panic", r))
			err = spanError(span, ErrInvalidRefreshToken)
		}
	}()

	resp, cause := s.refresh(ctx, refreshToken)
	if cause != nil {
		err = classifyRefreshError(cause)
		s.logger.DebugContext(ctx, "refresh rejected", zap.Error(cause))
		return nil, spanError(span, err)
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (s *authService) refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	subject, err := s.validator.ExtractSubject(refreshToken)
	if err != nil {
		return nil, err
	}
	if subject == "" {
		return nil, errors.New("refresh token has no subject")
	}

	identity, found, err := s.identities.FindByEmail(ctx, subject)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrIdentityNotFound
	}

	if !s.validator.IsValid(refreshToken, identity) {
		return nil, ErrInvalidRefreshToken
	}

	access, err := s.issuer.IssueAccessToken(identity)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewAuthEvent(events.EventTokenRefreshed, identity.ID, identity.Email, string(identity.Role)))

	return dto.NewAuthResponse(&domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresInMs:  s.issuer.AccessTokenTTL().Milliseconds(),
	}), nil
}

// classifyRefreshError keeps ErrIdentityNotFound and collapses everything
// else into ErrInvalidRefreshToken so callers never learn why a token failed
func classifyRefreshError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrIdentityNotFound):
		return ErrIdentityNotFound
	default:
		return ErrInvalidRefreshToken
	}
}

// publish is best effort: a broker outage must not fail sign in
func (s *authService) publish(ctx context.Context, event *events.AuthEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish auth event",
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
