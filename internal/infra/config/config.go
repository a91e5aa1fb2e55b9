package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App          AppSettings          `mapstructure:"app"`
	Postgres     PostgresSettings     `mapstructure:"postgres"`
	Redis        RedisSettings        `mapstructure:"redis"`
	Kafka        KafkaSettings        `mapstructure:"kafka"`
	JWT          JWTSettings          `mapstructure:"jwt"`
	Session      SessionSettings      `mapstructure:"session"`
	Lockout      LockoutSettings      `mapstructure:"lockout"`
	Reset        ResetSettings        `mapstructure:"reset"`
	Registration RegistrationSettings `mapstructure:"registration"`
	RateLimit    RateLimitSettings    `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis connection backing sessions and rate limits.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	SessionPrefix string `mapstructure:"session_prefix"`
}

// KafkaSettings configures the notification producer. Empty brokers fall back
// to the logging sender.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// JWTSettings configures bearer token signing. Secret is mandatory and has no
// default.
type JWTSettings struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// SessionSettings configures server-side sessions.
type SessionSettings struct {
	TTL        time.Duration `mapstructure:"ttl"`
	CookieName string        `mapstructure:"cookie_name"`
}

// LockoutSettings configures the per-account failed-login lockout.
type LockoutSettings struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Duration    time.Duration `mapstructure:"duration"`
}

// ResetSettings configures password reset tokens.
type ResetSettings struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
	BaseURL  string        `mapstructure:"base_url"`
}

// RegistrationSettings controls whether email verification gates activation.
type RegistrationSettings struct {
	RequireVerification bool          `mapstructure:"require_verification"`
	VerificationTTL     time.Duration `mapstructure:"verification_ttl"`
}

// RateLimitSettings configures IP-scoped sliding windows on auth endpoints.
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
	ResetMaxAttempts int           `mapstructure:"reset_max_attempts"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("BLOGGER")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.session_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.token_ttl",
		"session.ttl",
		"session.cookie_name",
		"lockout.max_attempts",
		"lockout.duration",
		"reset.token_ttl",
		"reset.base_url",
		"registration.require_verification",
		"registration.verification_ttl",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.reset_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("jwt.secret is required (BLOGGER_JWT_SECRET)")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blogger")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "blogger")
	v.SetDefault("postgres.password", "blogger_password")
	v.SetDefault("postgres.database", "blogger")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("postgres.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("postgres.health_check_period", time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.session_prefix", "blogger:session")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "blogger")

	v.SetDefault("jwt.token_ttl", 24*time.Hour)

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_name", "session_id")

	v.SetDefault("lockout.max_attempts", 5)
	v.SetDefault("lockout.duration", 15*time.Minute)

	v.SetDefault("reset.token_ttl", time.Hour)
	v.SetDefault("reset.base_url", "http://localhost:3000/reset-password")

	v.SetDefault("registration.require_verification", false)
	v.SetDefault("registration.verification_ttl", 24*time.Hour)

	v.SetDefault("rate_limit.window_duration", 15*time.Minute)
	v.SetDefault("rate_limit.login_max_attempts", 10)
	v.SetDefault("rate_limit.reset_max_attempts", 5)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}
