package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "admin@almacen.com", cfg.AdminEmail)
	assert.Equal(t, 10, cfg.BarcodeMaxAttempts)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PAGE_SIZE=25\nAPP_ENV=production\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	// Variables already set win over the file.
	t.Setenv("APP_ENV", "staging")
	// Registers a restore so the value loaded from the file does not leak.
	t.Setenv("PAGE_SIZE", "")
	require.NoError(t, os.Unsetenv("PAGE_SIZE"))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.AppEnv)
	assert.Equal(t, 25, cfg.PageSize)
}

func TestLoadConfigRejectsBadBarcodeAttempts(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("BARCODE_MAX_ATTEMPTS", "0")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&Config{LogFormat: "json"}, &buf).Info("ready", "port", 8080)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ready", line["msg"])
	assert.Equal(t, "stockgrid", line["service"])
	assert.EqualValues(t, 8080, line["port"])
}
