package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sean-huni/store-sub000/pkg/logger"
	"github.com/sean-huni/store-sub000/pkg/response"
	"github.com/sean-huni/store-sub000/pkg/telemetry"
)

// RateLimitConfig holds token bucket settings: Requests tokens refill over Window
type RateLimitConfig struct {
	Requests  int
	Window    time.Duration
	KeyPrefix string
}

// rate returns the refill rate in tokens per second
func (c RateLimitConfig) rate() float64 {
	return float64(c.Requests) / c.Window.Seconds()
}

// Limiter decides whether a request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining float64, err error)
}

// tokenBucketScript refills and takes one token atomically
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local data = redis.call("HMGET", key, "tokens", "last_update")
local tokens = tonumber(data[1]) or burst
local last_update = tonumber(data[2]) or now

tokens = math.min(burst, tokens + math.max(0, now - last_update) * rate)

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_update", now)
redis.call("EXPIRE", key, ttl)
return {allowed, tostring(tokens)}
`)

// RedisRateLimiter shares buckets across instances through Redis
type RedisRateLimiter struct {
	client redis.Scripter
	config RateLimitConfig
}

// NewRedisRateLimiter creates a Redis-backed limiter
func NewRedisRateLimiter(client redis.Scripter, config RateLimitConfig) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, config: config}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, float64, error) {
	now := float64(time.Now().UnixNano()) / 1e9
	ttl := int(math.Ceil(rl.config.Window.Seconds())) + 1

	values, err := tokenBucketScript.Run(ctx, rl.client,
		[]string{rl.config.KeyPrefix + key},
		rl.config.rate(), rl.config.Requests, now, ttl,
	).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(values) < 2 {
		return false, 0, fmt.Errorf("unexpected rate limit reply length: %d", len(values))
	}

	allowed, _ := values[0].(int64)
	var remaining float64
	if s, ok := values[1].(string); ok {
		remaining, _ = strconv.ParseFloat(s, 64)
	}
	return allowed == 1, remaining, nil
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// LocalRateLimiter keeps buckets in process memory. Used when Redis is disabled.
type LocalRateLimiter struct {
	config  RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLocalRateLimiter creates an in-memory limiter
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{config: config, now: time.Now, buckets: make(map[string]*bucket)}
}

func (rl *LocalRateLimiter) Allow(_ context.Context, key string) (bool, float64, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	burst := float64(rl.config.Requests)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: burst, lastUpdate: now}
		rl.buckets[key] = b
	}

	elapsed := now.Sub(b.lastUpdate).Seconds()
	b.tokens = math.Min(burst, b.tokens+elapsed*rl.config.rate())
	b.lastUpdate = now

	// Full buckets carry no state worth keeping
	defer rl.evictFull(now, burst)

	if b.tokens >= 1 {
		b.tokens--
		return true, b.tokens, nil
	}
	return false, b.tokens, nil
}

func (rl *LocalRateLimiter) evictFull(now time.Time, burst float64) {
	if len(rl.buckets) < 10000 {
		return
	}
	for k, b := range rl.buckets {
		if b.tokens+now.Sub(b.lastUpdate).Seconds()*rl.config.rate() >= burst {
			delete(rl.buckets, k)
		}
	}
}

// RateLimit throttles per client IP and route. Limiter errors let the request through.
func RateLimit(limiter Limiter, config RateLimitConfig, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}

	return func(c *gin.Context) {
		ctx, span := telemetry.StartSpan(c.Request.Context(), "middleware.rate_limiter")
		defer span.End()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := c.ClientIP() + ":" + route
		span.SetAttributes(attribute.String("rate_limit.route", route))

		allowed, remaining, err := limiter.Allow(ctx, key)
		if err != nil {
			log.WarnContext(ctx, "rate limiter unavailable, allowing request", zap.Error(err))
			span.RecordError(err)
			c.Next()
			return
		}
		span.SetAttributes(attribute.Bool("rate_limit.allowed", allowed))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, remaining))))

		if !allowed {
			span.SetStatus(codes.Error, "rate limit exceeded")
			retryAfter := int(math.Max(1, math.Ceil((1-remaining)/config.rate())))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.Abort(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS",
				"Rate limit exceeded. Please retry after "+strconv.Itoa(retryAfter)+" second(s).")
			return
		}

		c.Next()
	}
}
