package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"API_PORT", "PORT", "STORE_DRIVER", "LOG_LEVEL", "CACHE_LIFESPAN", "CORS_ALLOWED_ORIGINS", "DB_MAX_OPEN_CONNS", "GO_ENV"} {
		t.Setenv(k, "")
	}

	cfg := FromEnv()
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.CacheLifespan)
	assert.Equal(t, 50, cfg.DB.MaxOpenConns)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", " MySQL ")
	t.Setenv("GO_ENV", "Production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreDriverMySQL, cfg.StoreDriver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 50, cfg.DB.MaxOpenConns)
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("STRICT_INVOICE_NUMBERS", "yes")
	t.Setenv("RATE_LIMIT_ENABLED", "0")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "-3")

	assert.True(t, StrictInvoiceNumbers())
	assert.False(t, RateLimitEnabled())
	assert.Equal(t, int64(600), RateLimitMaxRequests())
}

func TestParseCompanyProfile(t *testing.T) {
	raw := []byte(`
companyName: ACME TRADERS
phone: "9876543210"
bankDetails:
  bankName: STATE BANK
  ifsc: SBIN0000001
`)
	p, err := ParseCompanyProfile(raw)
	require.NoError(t, err)
	assert.Equal(t, "ACME TRADERS", p.CompanyName)
	assert.Equal(t, "9876543210", p.Phone)
	assert.Equal(t, "STATE BANK", p.BankDetails.BankName)
	assert.Empty(t, p.Address)

	_, err = ParseCompanyProfile([]byte("companyName: [unterminated"))
	assert.Error(t, err)
}

func TestLoadCompanyProfile(t *testing.T) {
	p, err := LoadCompanyProfile("")
	require.NoError(t, err)
	assert.Nil(t, p)

	path := filepath.Join(t.TempDir(), "company.yaml")
	require.NoError(t, os.WriteFile(path, []byte("companyName: FILE CO\n"), 0o600))
	p, err = LoadCompanyProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "FILE CO", p.CompanyName)

	_, err = LoadCompanyProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogError_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("debug", &buf)

	LogError(logger, "CustomerService", "Save", "save customer", map[string]string{"phone": "9876543210"}, errors.New("boom"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "CustomerService", entry["module"])
	assert.Equal(t, "Save", entry["funcName"])
	assert.Contains(t, entry["msg"], "boom")
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger := newLogger("loud", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
