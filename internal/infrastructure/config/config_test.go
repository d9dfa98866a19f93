package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{"JWT_SECRET": "dev-secret"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 336*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "exhibitor_portal", cfg.Mongo.Database)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Empty(t, cfg.SMTP.Host)
	assert.Empty(t, cfg.S3.Bucket)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"JWT_SECRET":     "dev-secret",
		"BASE_URL":       "https://expo.example.com",
		"SESSION_TTL":    "2h",
		"COOKIE_SECURE":  "true",
		"SWEEP_INTERVAL": "15m",
		"SMTP_HOST":      "smtp.example.com",
		"S3_BUCKET":      "flyers",
		"S3_ENDPOINT":    "http://minio:9000",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://expo.example.com", cfg.BaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, "flyers", cfg.S3.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.S3.Endpoint)
}

func TestLoadFrom_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":        {},
		"short prod secret":     {"JWT_SECRET": "short", "ENV": "production"},
		"zero session ttl":      {"JWT_SECRET": "dev-secret", "SESSION_TTL": "0s"},
		"malformed sweep value": {"JWT_SECRET": "dev-secret", "SWEEP_INTERVAL": "often"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), env)
			assert.Error(t, err)
		})
	}
}
