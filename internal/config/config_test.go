package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database:  DatabaseConfig{Host: "db", User: "spark", DBName: "spark"},
		Redis:     RedisConfig{Host: "redis"},
		JWT:       JWTConfig{AccessSecret: strings.Repeat("s", 32), AccessExpiryMin: 60},
		AWS:       AWSConfig{S3Bucket: "media", VideosTable: "videos"},
		RateLimit: RateLimitConfig{AuthRPS: 1, AuthBurst: 5},
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "spark")
	t.Setenv("DB_NAME", "spark")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_ACCESS_SECRET", strings.Repeat("k", 40))
	t.Setenv("S3_BUCKET_NAME", "media")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "host=db port=5433 user=spark password= dbname=spark sslmode=disable", cfg.Database.GetDSN())
	assert.Equal(t, "redis:6379", cfg.Redis.GetAddr())
	assert.Equal(t, 60*24*7, cfg.JWT.AccessExpiryMin)
	assert.Equal(t, "videos", cfg.AWS.VideosTable)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, 5, cfg.RateLimit.AuthBurst)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Server.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no db host", func(c *Config) { c.Database.Host = "" }, "database host is required"},
		{"no redis", func(c *Config) { c.Redis.Host = "" }, "redis host is required"},
		{"short secret", func(c *Config) { c.JWT.AccessSecret = "short" }, "at least 32 characters"},
		{"zero expiry", func(c *Config) { c.JWT.AccessExpiryMin = 0 }, "expiry must be positive"},
		{"no bucket", func(c *Config) { c.AWS.S3Bucket = "" }, "S3 bucket name is required"},
		{"no table", func(c *Config) { c.AWS.VideosTable = "" }, "videos table is required"},
		{"no rate", func(c *Config) { c.RateLimit.AuthBurst = 0 }, "rate limit must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
