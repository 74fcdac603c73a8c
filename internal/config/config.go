package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	AI        AIConfig        `mapstructure:"ai"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	AllowLocalhost  bool          `mapstructure:"allow_localhost"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
	TrustedPlatform string        `mapstructure:"trusted_platform"` // e.g. CF-Connecting-IP
}

// IsProduction reports whether the server runs with production settings.
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	DSN             string        `mapstructure:"dsn"` // overrides the discrete fields
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// GetDSN returns the connection string for the configured driver.
func (c *DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == "sqlite" {
		return c.Database
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type CacheConfig struct {
	ProfileTTL      time.Duration `mapstructure:"profile_ttl"`
	PantryTTL       time.Duration `mapstructure:"pantry_ttl"`
	HistoryTTL      time.Duration `mapstructure:"history_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxKeys         int           `mapstructure:"max_keys"`
	LoaderTimeout   time.Duration `mapstructure:"loader_timeout"`
}

// PolicyConfig is the configurable shape of a single rate-limit policy.
type PolicyConfig struct {
	Window                      time.Duration `mapstructure:"window"`
	MaxRequests                 int           `mapstructure:"max_requests"`
	Cooldown                    time.Duration `mapstructure:"cooldown"`
	FailOpen                    bool          `mapstructure:"fail_open"`
	CooldownCountsAgainstWindow bool          `mapstructure:"cooldown_counts_against_window"`
	FailClosedRetryAfter        time.Duration `mapstructure:"fail_closed_retry_after"`
	Message                     string        `mapstructure:"message"`
}

type RateLimitConfig struct {
	// Backend selects the record store: redis | memory
	Backend  string                  `mapstructure:"backend"`
	Policies map[string]PolicyConfig `mapstructure:"policies"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTPublicKey string        `mapstructure:"jwt_public_key"` // PEM, enables RS256
	Issuer       string        `mapstructure:"issuer"`
	Audience     string        `mapstructure:"audience"`
	Leeway       time.Duration `mapstructure:"leeway"`
	AdminKey     string        `mapstructure:"admin_key"`
}

type AIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type MapsConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Language       string        `mapstructure:"language"`
	GeoIPEndpoint  string        `mapstructure:"geoip_endpoint"`
	DefaultCountry string        `mapstructure:"default_country"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type CleanupConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Interval         time.Duration `mapstructure:"interval"`
	BatchSize        int           `mapstructure:"batch_size"`
	MaxBatches       int           `mapstructure:"max_batches"`
	BatchPause       time.Duration `mapstructure:"batch_pause"`
	RateLimitMaxAge  time.Duration `mapstructure:"rate_limit_max_age"`
	HistoryRetention time.Duration `mapstructure:"history_retention"`
	PlanRetention    time.Duration `mapstructure:"plan_retention"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	SecretPath string `mapstructure:"secret_path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.RateLimit.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("rate_limit.backend must be redis or memory, got %q", c.RateLimit.Backend)
	}
	for name, p := range c.RateLimit.Policies {
		if p.Window <= 0 {
			return fmt.Errorf("rate_limit.policies.%s.window must be positive", name)
		}
		if p.MaxRequests <= 0 {
			return fmt.Errorf("rate_limit.policies.%s.max_requests must be positive", name)
		}
		if p.Cooldown < 0 {
			return fmt.Errorf("rate_limit.policies.%s.cooldown must not be negative", name)
		}
	}
	if c.Cache.MaxKeys <= 0 {
		return fmt.Errorf("cache.max_keys must be positive")
	}
	return nil
}

// ValidateSecrets checks credentials once every secret source has been
// applied. Production requires an identity key and a model key.
func (c *Config) ValidateSecrets() error {
	if !c.Server.IsProduction() {
		return nil
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" {
		return fmt.Errorf("auth.jwt_secret or auth.jwt_public_key is required in production")
	}
	if c.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required in production")
	}
	return nil
}
