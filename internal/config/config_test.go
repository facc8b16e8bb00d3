package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PUBLIC_BASE_URL", "https://order.example.com/")
	t.Setenv("SCAN_SESSION_TTL", "30m")
	t.Setenv("BILLING_GRACE_DAYS", "3")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://order.example.com", cfg.PublicBaseURL)
	assert.Equal(t, 30*time.Minute, cfg.ScanSessionTTL)
	assert.Equal(t, 3, cfg.BillingGraceDays)
	assert.Empty(t, cfg.RedisAddr)
	require.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.DSN(), "dbname=qr_dine_db")
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Config{PublicBaseURL: "order.example.com", BillingGraceDays: -1}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "BILLING_INTERVAL")
	assert.Contains(t, err.Error(), "PUBLIC_BASE_URL")
	assert.Contains(t, err.Error(), "BILLING_GRACE_DAYS")
}

func TestValidateBootstrapAdmin(t *testing.T) {
	cfg := Config{
		JWTSecret:       "s",
		PublicBaseURL:   "http://localhost",
		ScanSessionTTL:  time.Minute,
		BillingInterval: time.Minute,
		AdminUsername:   "root",
		AdminPassword:   "short",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD")

	cfg.AdminPassword = "long-enough"
	assert.NoError(t, cfg.Validate())
}
