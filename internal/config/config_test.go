// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oshima-client/internal/httputil"
	"github.com/pdiddy/oshima-client/pkg/types"
)

// clearEnv blanks every bound variable so the host environment cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, b := range envBindings {
		t.Setenv(b.env, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://project.supabase.co/")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("OSHIMA_EMAIL", "user@example.com")
	t.Setenv("OSHIMA_PASSWORD", "pw")
}

func load(t *testing.T, secrets map[string]string) (Config, error) {
	t.Helper()
	v := viper.New()
	require.NoError(t, Bind(v, secrets))
	return Load(v)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := load(t, nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, "https://project.supabase.co", cfg.Credentials.IdentityURL)
	assert.Equal(t, "anon", cfg.Credentials.APIKey)
	assert.Equal(t, "user@example.com", cfg.Credentials.Email)
	assert.Equal(t, "pw", cfg.Credentials.Password)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Auth)
	assert.Equal(t, 120*time.Second, cfg.Timeouts.Upload)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.Extract)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Empty(t, cfg.HistoryDB)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)

	assert.Equal(t, cfg.Timeouts.Upload, cfg.UploadHTTP().Timeout)
	assert.Equal(t, cfg.Timeouts.Auth, cfg.AuthHTTP().Timeout)
	assert.Equal(t, cfg.Timeouts.Extract, cfg.ExtractHTTP().Timeout)
}

func TestConfig_HTTPPerOperation(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("OSHIMA_USER_AGENT", "oshima-test/1")

	cfg, err := load(t, nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		http    func() types.HTTPConfig
		timeout time.Duration
	}{
		{"auth", cfg.AuthHTTP, 30 * time.Second},
		{"upload", cfg.UploadHTTP, 120 * time.Second},
		{"extract", cfg.ExtractHTTP, 60 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := tt.http()
			assert.Equal(t, tt.timeout, hc.Timeout)
			assert.Equal(t, "oshima-test/1", hc.UserAgent)
			assert.Equal(t, tt.timeout, httputil.NewClient(hc).Timeout)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("OSHIMA_API_URL", "https://api.oshima.dev/")
	t.Setenv("OSHIMA_TIMEOUTS_UPLOAD", "5m")
	t.Setenv("OSHIMA_HISTORY_DB", "/tmp/h.db")
	t.Setenv("OSHIMA_LOG_LEVEL", "debug")

	cfg, err := load(t, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.oshima.dev", cfg.APIURL)
	assert.Equal(t, 5*time.Minute, cfg.Timeouts.Upload)
	assert.Equal(t, "/tmp/h.db", cfg.HistoryDB)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_MissingListsAllVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	_, err := load(t, nil)
	require.Error(t, err)

	var me *MissingError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, []string{"SUPABASE_URL", "OSHIMA_EMAIL", "OSHIMA_PASSWORD"}, me.Vars)
	assert.Contains(t, err.Error(), "SUPABASE_URL, OSHIMA_EMAIL, OSHIMA_PASSWORD")
}

func TestLoadLocal_NeedsNoCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("OSHIMA_HISTORY_DB", "/tmp/oshima/history.db")
	t.Setenv("OSHIMA_LOG_LEVEL", "debug")

	v := viper.New()
	require.NoError(t, Bind(v, nil))

	cfg := LoadLocal(v)
	assert.Equal(t, "/tmp/oshima/history.db", cfg.HistoryDB)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.False(t, cfg.Credentials.Complete())
}

func TestLoad_SecretsFillGaps(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("OSHIMA_EMAIL", "env@example.com")

	cfg, err := load(t, map[string]string{
		KeySupabaseAnonKey: "anon-from-file",
		KeyPassword:        "pw-from-file",
		KeyEmail:           "file@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "anon-from-file", cfg.Credentials.APIKey)
	assert.Equal(t, "pw-from-file", cfg.Credentials.Password)
	assert.Equal(t, "env@example.com", cfg.Credentials.Email, "environment wins over secret files")
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("OSHIMA_PASSWORD", "env-pw")

	path := filepath.Join(t.TempDir(), "oshima.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: http://10.0.0.5:8000
supabase_url: https://cfg.supabase.co
supabase_anon_key: cfg-anon
email: cfg@example.com
password: cfg-pw
timeouts:
  extract: 90s
`), 0o644))

	v := viper.New()
	require.NoError(t, Bind(v, nil))
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.APIURL)
	assert.Equal(t, "cfg-anon", cfg.Credentials.APIKey)
	assert.Equal(t, "env-pw", cfg.Credentials.Password, "environment wins over config file")
	assert.Equal(t, 90*time.Second, cfg.Timeouts.Extract)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SUPABASE_ANON_KEY", EnvName(KeySupabaseAnonKey))
	assert.Equal(t, "unknown", EnvName("unknown"))
}

func TestLoadDotEnv(t *testing.T) {
	const name = "OSHIMA_DOTENV_TEST_VALUE"
	const preset = "OSHIMA_DOTENV_TEST_PRESET"
	t.Cleanup(func() { os.Unsetenv(name) })
	t.Setenv(preset, "from-process")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(name+"=from-file\n"+preset+"=from-file\n"), 0o644))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(name))
	assert.Equal(t, "from-process", os.Getenv(preset), "existing variables are not overridden")
}

func TestLoadDotEnv_Missing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" error ", slog.LevelError},
		{"warn", slog.LevelWarn},
		{"", slog.LevelWarn},
		{"verbose", slog.LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestNewFanoutLogger(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := NewFanoutLogger(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("uploaded", "paper_id", "p1")

	assert.Contains(t, stderr.String(), "msg=uploaded")
	assert.NotContains(t, stderr.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &rec))
	assert.Equal(t, "uploaded", rec["msg"])
	assert.Equal(t, "p1", rec["paper_id"])
}

func TestSetupLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oshima.log")
	var stderr bytes.Buffer

	logger, cleanup, err := SetupLogger(&stderr, path, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, stderr.String(), "hello")
}

func TestSetupLogger_NoFile(t *testing.T) {
	var stderr bytes.Buffer
	logger, cleanup, err := SetupLogger(&stderr, "", slog.LevelWarn)
	require.NoError(t, err)
	logger.Warn("careful")
	assert.NoError(t, cleanup())
	assert.Contains(t, stderr.String(), "careful")
}

func TestSetupLogger_BadPath(t *testing.T) {
	_, _, err := SetupLogger(&bytes.Buffer{}, filepath.Join(t.TempDir(), "missing", "x.log"), slog.LevelInfo)
	assert.Error(t, err)
}
