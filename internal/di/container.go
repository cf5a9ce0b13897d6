package di

import (
	"errors"
	"fmt"

	"github.com/sean-huni/store-sub000/internal/events"
	"github.com/sean-huni/store-sub000/internal/handler"
	"github.com/sean-huni/store-sub000/internal/middleware"
	"github.com/sean-huni/store-sub000/internal/repository"
	"github.com/sean-huni/store-sub000/internal/security"
	"github.com/sean-huni/store-sub000/internal/service"
	"github.com/sean-huni/store-sub000/pkg/config"
	"github.com/sean-huni/store-sub000/pkg/database"
	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/redis"
)

// Container holds all dependencies for the auth service
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	Identities repository.IdentityRepository

	// Security
	Codec     *security.TokenCodec
	Issuer    *security.TokenIssuer
	Validator *security.TokenValidator
	Hasher    security.PasswordHasher

	// Services
	AuthService service.AuthService

	// Middleware
	GateConfig      middleware.GateConfig
	RateLimitConfig middleware.RateLimitConfig
	RateLimiter     middleware.Limiter // nil when rate limiting is disabled

	// Handlers
	HealthHandler *handler.HealthHandler
	AuthHandler   *handler.AuthHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config *config.Config
	Logger *logger.Logger

	DB    *database.PostgresDB // required unless Identities is set
	Redis *redis.Client        // optional; enables the shared rate limiter and its readiness check

	// Identities overrides the PostgreSQL repository built from DB
	Identities repository.IdentityRepository
	// Publisher defaults to events.NopPublisher
	Publisher events.Publisher
}

// NewContainer creates a new dependency injection container.
// An unusable signing key fails here so the process never starts with it.
func NewContainer(cfg *ContainerConfig) (*Container, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, errors.New("container: config is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c := &Container{
		Config:     cfg.Config,
		Logger:     log,
		DB:         cfg.DB,
		Redis:      cfg.Redis,
		Identities: cfg.Identities,
	}

	if c.Identities == nil {
		if c.DB == nil {
			return nil, errors.New("container: database or identity repository is required")
		}
		c.Identities = repository.NewPostgresIdentityRepository(c.DB.Pool())
	}

	if err := c.initSecurity(); err != nil {
		return nil, err
	}

	authService, err := service.NewAuthService(service.AuthServiceDeps{
		Identities: c.Identities,
		Hasher:     c.Hasher,
		Issuer:     c.Issuer,
		Validator:  c.Validator,
		Publisher:  cfg.Publisher,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("container: %w", err)
	}
	c.AuthService = authService

	c.initRateLimiter()

	// Initialize handlers
	checkers := map[string]handler.HealthChecker{}
	if c.DB != nil {
		checkers["database"] = c.DB
	}
	if c.Redis != nil {
		checkers["redis"] = c.Redis
	}
	c.HealthHandler = handler.NewHealthHandler(cfg.Config.App.Name, checkers)
	c.AuthHandler = handler.NewAuthHandler(c.AuthService, c.Identities, c.GateConfig, log)

	return c, nil
}

func (c *Container) initSecurity() error {
	jwtCfg := c.Config.JWT

	codec, err := security.NewTokenCodec(jwtCfg.Secret)
	if err != nil {
		return fmt.Errorf("container: %w", err)
	}
	issuer, err := security.NewTokenIssuer(codec, jwtCfg.AccessTokenTTL, jwtCfg.RefreshTokenTTL)
	if err != nil {
		return fmt.Errorf("container: %w", err)
	}

	c.Codec = codec
	c.Issuer = issuer
	c.Validator = security.NewTokenValidator(codec, c.Logger)
	c.Hasher = security.NewBcryptHasher(c.Config.Security.BcryptCost)
	c.GateConfig = middleware.GateConfig{
		HeaderName:  jwtCfg.HeaderName,
		TokenPrefix: jwtCfg.TokenPrefix,
	}
	return nil
}

func (c *Container) initRateLimiter() {
	rl := c.Config.RateLimit
	if !rl.Enabled {
		return
	}

	c.RateLimitConfig = middleware.RateLimitConfig{
		Requests:  rl.Requests,
		Window:    rl.Window,
		KeyPrefix: "ratelimit:auth:",
	}
	if c.Redis != nil {
		c.RateLimiter = middleware.NewRedisRateLimiter(c.Redis.Client(), c.RateLimitConfig)
		return
	}
	c.RateLimiter = middleware.NewLocalRateLimiter(c.RateLimitConfig)
}
