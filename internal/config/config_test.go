package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	require.Equal(t, 60*time.Minute, cfg.Auth.PasswordResetTTL())
	require.True(t, cfg.Postgres.RunMigrations)
	require.Equal(t, int32(10), cfg.Postgres.MaxConns)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("POSTGRES_DSN", "postgres://club:club@db:5432/club")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("APP_PUBLIC_BASE_URL", "https://club.example.com/")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.App.Port)
	require.Equal(t, 5*time.Second, cfg.App.RequestTimeout())
	require.Equal(t, "postgres://club:club@db:5432/club", cfg.Postgres.DSN)
	require.Equal(t, "smtp.example.com", cfg.Notification.SMTPHost)
	require.Equal(t, "https://club.example.com", cfg.App.PublicBaseURL)
}

func TestValidateRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateBcryptCost(t *testing.T) {
	cfg := Config{
		App:  AppConfig{Port: "8080"},
		Auth: AuthConfig{JWTSecret: "s", BcryptCost: 2},
	}
	require.Error(t, cfg.Validate())

	cfg.Auth.BcryptCost = 10
	require.NoError(t, cfg.Validate())
}
