package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 30, cfg.Server.RateLimit.MaxRequests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.True(t, cfg.Database.Postgres.Enabled)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "campushub-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)

	require.True(t, cfg.Payments.Enabled)
	require.Equal(t, "https://checkout.example.com/api", cfg.Payments.Endpoint)
	require.Equal(t, "key_test_123", cfg.Payments.KeyID)
	require.Equal(t, "key_secret_456", cfg.Payments.KeySecret)
	require.Equal(t, 15*time.Second, cfg.Payments.Timeout)
	require.Equal(t, "INR", cfg.Payments.Currency)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, 45*time.Minute, cfg.Maintenance.PaymentExpiry)
	require.Equal(t, "@every 10m", cfg.Maintenance.PaymentSchedule)
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/campushub.sqlite", cfg.Database.Path)
	require.False(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, "INR", cfg.Payments.Currency)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, 30*time.Minute, cfg.Maintenance.PaymentExpiry)
}

func TestDatabaseConfigFromApp(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "/tmp/app.sqlite",
			MySQL: DBAuthConfig{
				Enabled:  true,
				Host:     "mysql.internal",
				Port:     3307,
				Database: "campushub",
				Username: "campus",
				Password: "pw",
			},
		},
	}

	out := DatabaseConfigFromApp(cfg)
	require.Equal(t, "mysql", out.Driver)
	require.Equal(t, "mysql.internal", out.Host)
	require.Equal(t, 3307, out.Port)
	require.Equal(t, "campushub", out.Name)
}

func TestApplyRuntimeDefaultsGeneratesSecret(t *testing.T) {
	cfg := &Config{}
	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.jwt.secret"])
	require.NotEmpty(t, cfg.Auth.JWT.Secret)

	// A secret supplied by the operator is left alone.
	cfg2 := &Config{}
	cfg2.Auth.JWT.Secret = "configured"
	generated, err = ApplyRuntimeDefaults(cfg2)
	require.NoError(t, err)
	require.Empty(t, generated)
	require.Equal(t, "configured", cfg2.Auth.JWT.Secret)
}
