package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bocado-ai/gate/pkg/constants"
)

// EnvPrefix is prepended to every environment override, e.g. BOCADO_GATE_SERVER_PORT.
const EnvPrefix = "BOCADO_GATE"

// Loader reads configuration from defaults, an optional YAML file and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader. An empty path searches /etc/bocado-gate and the working directory.
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/bocado-gate/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return l.decode()
}

// Watch re-decodes the file on every change and hands the result to onChange.
// Invalid intermediate states are passed to onError and otherwise ignored.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig is a convenience wrapper used by the binaries.
func LoadConfig(path string) (*Config, error) {
	return NewLoader(path).Load()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", constants.DefaultShutdownTimeout)
	v.SetDefault("server.allowed_origins", []string{
		"https://bocado-ai.web.app",
		"https://bocado-ai.firebaseapp.com",
		"https://app.bocado.ai",
	})
	v.SetDefault("server.allow_localhost", true)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "bocado")
	v.SetDefault("database.database", "bocado")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 2*time.Second)
	v.SetDefault("redis.write_timeout", 2*time.Second)

	v.SetDefault("cache.profile_ttl", constants.DefaultProfileCacheTTL)
	v.SetDefault("cache.pantry_ttl", constants.DefaultPantryCacheTTL)
	v.SetDefault("cache.history_ttl", constants.DefaultHistoryCacheTTL)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.max_keys", constants.DefaultCacheMaxKeys)
	v.SetDefault("cache.loader_timeout", constants.DefaultLoaderTimeout)

	v.SetDefault("rate_limit.backend", "redis")
	for name, p := range DefaultPolicies() {
		prefix := "rate_limit.policies." + name + "."
		v.SetDefault(prefix+"window", p.Window)
		v.SetDefault(prefix+"max_requests", p.MaxRequests)
		v.SetDefault(prefix+"cooldown", p.Cooldown)
		v.SetDefault(prefix+"fail_open", p.FailOpen)
		v.SetDefault(prefix+"cooldown_counts_against_window", p.CooldownCountsAgainstWindow)
		v.SetDefault(prefix+"fail_closed_retry_after", p.FailClosedRetryAfter)
		v.SetDefault(prefix+"message", p.Message)
	}

	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 45*time.Second)

	v.SetDefault("maps.timeout", 10*time.Second)
	v.SetDefault("maps.language", "es")
	v.SetDefault("maps.geoip_endpoint", "https://ipapi.co")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "bocado.recommendations")
	v.SetDefault("kafka.batch_timeout", 50*time.Millisecond)

	v.SetDefault("cleanup.enabled", true)
	v.SetDefault("cleanup.interval", time.Hour)
	v.SetDefault("cleanup.batch_size", constants.CleanupBatchSize)
	v.SetDefault("cleanup.max_batches", constants.CleanupMaxBatches)
	v.SetDefault("cleanup.batch_pause", constants.CleanupBatchPause)
	v.SetDefault("cleanup.rate_limit_max_age", constants.RateLimitRetention)
	v.SetDefault("cleanup.history_retention", constants.DefaultHistoryRetention)
	v.SetDefault("cleanup.plan_retention", constants.DefaultPlanRetention)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.secret_path", "secret/data/bocado-gate")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.sample_rate", 1.0)
}

// DefaultPolicies returns the built-in rate-limit policies.
func DefaultPolicies() map[string]PolicyConfig {
	return map[string]PolicyConfig{
		string(constants.PolicyGlobal): {
			Window:      15 * time.Minute,
			MaxRequests: 100,
			Cooldown:    time.Second,
			FailOpen:    true,
			Message:     "Demasiadas peticiones. Intenta más tarde.",
		},
		string(constants.PolicyRecommendations): {
			Window:               10 * time.Minute,
			MaxRequests:          5,
			Cooldown:             30 * time.Second,
			FailOpen:             false,
			FailClosedRetryAfter: constants.DefaultFailClosedRetryAfter,
			Message:              "Límite de recomendaciones alcanzado. Intenta en unos momentos.",
		},
		string(constants.PolicyMaps): {
			Window:               time.Minute,
			MaxRequests:          50,
			FailOpen:             false,
			FailClosedRetryAfter: constants.DefaultFailClosedRetryAfter,
			Message:              "Límite de búsquedas alcanzado. Intenta más tarde.",
		},
		string(constants.PolicyMapsPublic): {
			Window:               time.Minute,
			MaxRequests:          20,
			FailOpen:             false,
			FailClosedRetryAfter: constants.DefaultFailClosedRetryAfter,
			Message:              "Límite de búsquedas alcanzado. Intenta más tarde.",
		},
		string(constants.PolicyAuth): {
			Window:      15 * time.Minute,
			MaxRequests: 5,
			FailOpen:    true,
			Message:     "Demasiados intentos fallidos. Intenta más tarde.",
		},
	}
}
