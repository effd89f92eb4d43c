package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Chatbot   ChatbotConfig   `mapstructure:"chatbot"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host             string        `mapstructure:"host"`
	Port             int           `mapstructure:"port"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	RateLimitEnabled bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRPS     float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst   int           `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig represents database connection configuration. Driver
// selects the backend: "postgres" uses the pgx pool plus lib/pq stores,
// "sqlite" runs everything on a single embedded file.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	PDPCacheLen int           `mapstructure:"pdp_cache_len"`
}

// PredictorConfig represents external predictor process configuration.
type PredictorConfig struct {
	PrimaryCommand  []string      `mapstructure:"primary_command"`
	FallbackCommand []string      `mapstructure:"fallback_command"`
	ExplainCommand  []string      `mapstructure:"explain_command"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerEnabled  bool          `mapstructure:"breaker_enabled"`
	BreakerMaxFails uint32        `mapstructure:"breaker_max_fails"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

// ChatbotConfig represents chatbot configuration. RemoteURL, when set, is a
// remote chatbot endpoint tried before the built-in rule table.
type ChatbotConfig struct {
	RemoteURL     string        `mapstructure:"remote_url"`
	RemoteTimeout time.Duration `mapstructure:"remote_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
