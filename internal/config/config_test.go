package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, uint(5), cfg.RateLimitPerSecond)
	assert.Equal(t, 100, cfg.MessagePageSize)
	assert.Equal(t, "@every 1h", cfg.ReconcileSchedule)
	assert.False(t, cfg.OpenApplicantList)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOW_ORIGIN", "https://a.ie,https://b.ie")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("OPEN_APPLICANT_LIST", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.ie", "https://b.ie"}, cfg.AllowOrigins)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.OpenApplicantList)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "localhost", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "shifts"}
	dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/shifts?sslmode=disable", dsn)

	cfg = &Config{UseConnectionStr: true, DBConnectionString: "host=db"}
	dsn, err = cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "host=db", dsn)

	cfg = &Config{UseConnectionStr: true}
	_, err = cfg.DSN()
	assert.Error(t, err)

	cfg = &Config{DBHost: "localhost"}
	_, err = cfg.DSN()
	assert.Error(t, err)
}
