package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Logging   LoggingConfig
	Sentry    SentryConfig
	Tracing   TracingConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig

	GeminiAPIKey string
}

type ServerConfig struct {
	Host         string
	Port         int
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Proxies whose X-Forwarded-For is believed; empty trusts none
	TrustedProxies []string
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
	MaxOpenConns   int
	MaxIdleConns   int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	AccessSecret    string
	AccessExpiryMin int
}

type AWSConfig struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	S3Bucket      string
	PublicBaseURL string
	VideosTable   string
}

type LoggingConfig struct {
	Level string
}

type SentryConfig struct {
	DSN string
}

type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_MIGRATIONS_PATH", "migrations")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("JWT_ACCESS_EXPIRY_MIN", 60*24*7)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("DYNAMODB_VIDEOS_TABLE", "videos")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("OTEL_SERVICE_NAME", "spark-backend")
	viper.SetDefault("RATE_LIMIT_AUTH_RPS", 1.0)
	viper.SetDefault("RATE_LIMIT_AUTH_BURST", 5)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = viper.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:           viper.GetString("SERVER_HOST"),
			Port:           viper.GetInt("SERVER_PORT"),
			Env:            viper.GetString("ENV"),
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			TrustedProxies: splitList(viper.GetString("TRUSTED_PROXIES")),
		},
		Database: DatabaseConfig{
			Host:           viper.GetString("DB_HOST"),
			Port:           viper.GetInt("DB_PORT"),
			User:           viper.GetString("DB_USER"),
			Password:       viper.GetString("DB_PASSWORD"),
			DBName:         viper.GetString("DB_NAME"),
			SSLMode:        viper.GetString("DB_SSL_MODE"),
			MigrationsPath: viper.GetString("DB_MIGRATIONS_PATH"),
			MaxOpenConns:   viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:   viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			AccessSecret:    viper.GetString("JWT_ACCESS_SECRET"),
			AccessExpiryMin: viper.GetInt("JWT_ACCESS_EXPIRY_MIN"),
		},
		AWS: AWSConfig{
			Region:        viper.GetString("AWS_REGION"),
			Endpoint:      viper.GetString("AWS_ENDPOINT"),
			AccessKey:     viper.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey:     viper.GetString("AWS_SECRET_ACCESS_KEY"),
			S3Bucket:      viper.GetString("S3_BUCKET_NAME"),
			PublicBaseURL: viper.GetString("S3_PUBLIC_BASE_URL"),
			VideosTable:   viper.GetString("DYNAMODB_VIDEOS_TABLE"),
		},
		Logging: LoggingConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Sentry: SentryConfig{
			DSN: viper.GetString("SENTRY_DSN"),
		},
		Tracing: TracingConfig{
			Endpoint:    viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: viper.GetString("OTEL_SERVICE_NAME"),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   viper.GetFloat64("RATE_LIMIT_AUTH_RPS"),
			AuthBurst: viper.GetInt("RATE_LIMIT_AUTH_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		GeminiAPIKey: viper.GetString("GEMINI_API_KEY"),
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	if c.JWT.AccessExpiryMin <= 0 {
		return fmt.Errorf("JWT access expiry must be positive")
	}
	if c.AWS.S3Bucket == "" {
		return fmt.Errorf("S3 bucket name is required")
	}
	if c.AWS.VideosTable == "" {
		return fmt.Errorf("DynamoDB videos table is required")
	}
	if c.RateLimit.AuthRPS <= 0 || c.RateLimit.AuthBurst <= 0 {
		return fmt.Errorf("auth rate limit must be positive")
	}
	return nil
}

// Addr is the listen address host:port
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsProduction reports whether the service runs in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
