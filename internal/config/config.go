package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	PublicBaseURL         string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	MinPasswordLength       int
}

// NotificationConfig holds outgoing mail settings. An empty SMTPHost means
// mail is only logged.
type NotificationConfig struct {
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

var defaults = map[string]any{
	"APP_NAME":                        "club-service",
	"APP_ENV":                         "development",
	"APP_HOST":                        "0.0.0.0",
	"APP_PORT":                        "8080",
	"APP_VERSION":                     "dev",
	"APP_PUBLIC_BASE_URL":             "http://localhost:8080",
	"HTTP_REQUEST_TIMEOUT_SECONDS":    30,
	"POSTGRES_MAX_CONNS":              10,
	"POSTGRES_MIN_CONNS":              2,
	"POSTGRES_RUN_MIGRATIONS":         true,
	"POSTGRES_CONN_MAX_IDLE_SECONDS":  30,
	"POSTGRES_CONN_MAX_LIFE_SECONDS":  300,
	"REDIS_ADDR":                      "127.0.0.1:6379",
	"REDIS_DB":                        0,
	"LOG_LEVEL":                       "info",
	"AUTH_JWT_SECRET":                 "dev-secret",
	"AUTH_ACCESS_TOKEN_TTL_MINUTES":   60,
	"AUTH_PASSWORD_RESET_TTL_MINUTES": 60,
	"AUTH_BCRYPT_COST":                12,
	"AUTH_MIN_PASSWORD_LENGTH":        8,
	"NOTIFY_EMAIL_FROM":               "noreply@club.local",
	"SMTP_PORT":                       587,
}

// Load reads configuration from environment variables (and an optional .env
// file), applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for _, key := range []string{"POSTGRES_DSN", "REDIS_PASSWORD", "SMTP_HOST", "SMTP_USER", "SMTP_PASSWORD"} {
		_ = v.BindEnv(key)
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   v.GetString("APP_ENV"),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("APP_PORT"),
			Version:               v.GetString("APP_VERSION"),
			RequestTimeoutSeconds: v.GetInt("HTTP_REQUEST_TIMEOUT_SECONDS"),
			PublicBaseURL:         strings.TrimRight(v.GetString("APP_PUBLIC_BASE_URL"), "/"),
		},
		Postgres: PostgresConfig{
			DSN:            v.GetString("POSTGRES_DSN"),
			MaxConns:       v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:       v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:  v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			ConnMaxIdleSec: v.GetInt32("POSTGRES_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec: v.GetInt32("POSTGRES_CONN_MAX_LIFE_SECONDS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret:               v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes:   v.GetInt("AUTH_ACCESS_TOKEN_TTL_MINUTES"),
			PasswordResetTTLMinutes: v.GetInt("AUTH_PASSWORD_RESET_TTL_MINUTES"),
			BcryptCost:              v.GetInt("AUTH_BCRYPT_COST"),
			MinPasswordLength:       v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
		},
		Notification: NotificationConfig{
			EmailFrom:    v.GetString("NOTIFY_EMAIL_FROM"),
			SMTPHost:     v.GetString("SMTP_HOST"),
			SMTPPort:     v.GetInt("SMTP_PORT"),
			SMTPUser:     v.GetString("SMTP_USER"),
			SMTPPassword: v.GetString("SMTP_PASSWORD"),
		},
	}
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.App.Port) == "" {
		return errors.New("APP_PORT is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.App.Env == "production" && c.Auth.JWTSecret == "dev-secret" {
		return errors.New("AUTH_JWT_SECRET must be set in production")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("invalid AUTH_BCRYPT_COST: %d", c.Auth.BcryptCost)
	}
	if c.Postgres.MinConns > c.Postgres.MaxConns && c.Postgres.MaxConns > 0 {
		return errors.New("POSTGRES_MIN_CONNS exceeds POSTGRES_MAX_CONNS")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTokenTTL returns the JWT lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns how long reset links stay valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}
