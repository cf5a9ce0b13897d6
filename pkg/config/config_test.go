package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithPath_Defaults(t *testing.T) {
	cfg, err := LoadWithPath(writeEnvFile(t, "APP_NAME=store-auth-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "store-auth-test", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DevelopmentJWTSecret, cfg.JWT.Secret)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, "Authorization", cfg.JWT.HeaderName)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadWithPath_FileAndEnvironment(t *testing.T) {
	path := writeEnvFile(t, `APP_NAME=store-auth-test
JWT_EXPIRATION_MS=60000
JWT_REFRESH_EXPIRATION_MS=3600000
KAFKA_ENABLED=true
KAFKA_BROKERS=kafka-1:9092, kafka-2:9092
SERVER_PORT=8081
`)
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadWithPath(path)
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 9090, cfg.Server.Port, "environment overrides the file")
}

func TestLoadWithPath_MissingFile(t *testing.T) {
	_, err := LoadWithPath(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Name: "store-auth", Environment: "development"},
		Server: ServerConfig{Port: 8080},
		JWT: JWTConfig{
			Secret:          DevelopmentJWTSecret,
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			TokenPrefix:     "Bearer ",
			HeaderName:      "Authorization",
		},
		RateLimit: RateLimitConfig{Enabled: true, Requests: 20, Window: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{name: "dev secret in production", mutate: func(c *Config) { c.App.Environment = "production" }, wantErr: true},
		{name: "dev secret in staging", mutate: func(c *Config) { c.App.Environment = "staging" }, wantErr: true},
		{name: "dev secret with empty environment", mutate: func(c *Config) { c.App.Environment = "" }, wantErr: true},
		{
			name: "own secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.Secret = "cHJvZHVjdGlvbi1zaWduaW5nLWtleS0wMTIzNDU2Nzg5YWJjZGVm"
			},
		},
		{name: "zero access lifetime", mutate: func(c *Config) { c.JWT.AccessTokenTTL = 0 }, wantErr: true},
		{name: "refresh not longer than access", mutate: func(c *Config) { c.JWT.RefreshTokenTTL = c.JWT.AccessTokenTTL }, wantErr: true},
		{name: "empty header name", mutate: func(c *Config) { c.JWT.HeaderName = "" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "rate limit without window", mutate: func(c *Config) { c.RateLimit.Window = 0 }, wantErr: true},
		{
			name: "rate limit disabled ignores values",
			mutate: func(c *Config) {
				c.RateLimit = RateLimitConfig{Enabled: false}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "store",
		Password: "p@ss:word",
		DBName:   "store",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://store:p%40ss%3Aword@db:5432/store?sslmode=disable", d.URL())
	assert.Equal(t, "host=db port=5432 user=store password=p@ss:word dbname=store sslmode=disable", d.DSN())
}
