// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the client configuration once at startup from
// flags, environment, a .env file, an optional YAML config file, and the
// .secrets/ directory. Business logic receives the resulting Config value
// and never reads the environment itself.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/oshima-client/pkg/types"
)

// Config keys. Nested keys use viper's dot notation.
const (
	KeyAPIURL          = "api_url"
	KeySupabaseURL     = "supabase_url"
	KeySupabaseAnonKey = "supabase_anon_key"
	KeyEmail           = "email"
	KeyPassword        = "password"
	KeyAuthTimeout     = "timeouts.auth"
	KeyUploadTimeout   = "timeouts.upload"
	KeyExtractTimeout  = "timeouts.extract"
	KeyUserAgent       = "user_agent"
	KeyHistoryDB       = "history_db"
	KeyLogFile         = "log_file"
	KeyLogLevel        = "log_level"
)

// Defaults.
const (
	DefaultAPIURL         = "http://127.0.0.1:8000"
	DefaultAuthTimeout    = 30 * time.Second
	DefaultUploadTimeout  = 120 * time.Second
	DefaultExtractTimeout = 60 * time.Second
	DefaultUserAgent      = "oshima/0.1"
	DefaultLogLevel       = "warn"
)

// envBindings maps each config key to the environment variable read for it.
var envBindings = []struct {
	key string
	env string
}{
	{KeyAPIURL, "OSHIMA_API_URL"},
	{KeySupabaseURL, "SUPABASE_URL"},
	{KeySupabaseAnonKey, "SUPABASE_ANON_KEY"},
	{KeyEmail, "OSHIMA_EMAIL"},
	{KeyPassword, "OSHIMA_PASSWORD"},
	{KeyAuthTimeout, "OSHIMA_TIMEOUTS_AUTH"},
	{KeyUploadTimeout, "OSHIMA_TIMEOUTS_UPLOAD"},
	{KeyExtractTimeout, "OSHIMA_TIMEOUTS_EXTRACT"},
	{KeyUserAgent, "OSHIMA_USER_AGENT"},
	{KeyHistoryDB, "OSHIMA_HISTORY_DB"},
	{KeyLogFile, "OSHIMA_LOG_FILE"},
	{KeyLogLevel, "OSHIMA_LOG_LEVEL"},
}

// requiredKeys lists the keys that must be non-empty, in reporting order.
var requiredKeys = []string{KeySupabaseURL, KeySupabaseAnonKey, KeyEmail, KeyPassword}

// Config is the immutable client configuration.
type Config struct {
	APIURL      string
	Credentials types.Credentials
	Timeouts    types.Timeouts
	UserAgent   string

	// HistoryDB is the SQLite path for the upload history. Empty disables it.
	HistoryDB string

	LogFile  string
	LogLevel slog.Level
}

// AuthHTTP returns the HTTP settings for the identity provider.
func (c Config) AuthHTTP() types.HTTPConfig {
	return types.HTTPConfig{Timeout: c.Timeouts.Auth, UserAgent: c.UserAgent}
}

// UploadHTTP returns the HTTP settings for uploads.
func (c Config) UploadHTTP() types.HTTPConfig {
	return types.HTTPConfig{Timeout: c.Timeouts.Upload, UserAgent: c.UserAgent}
}

// ExtractHTTP returns the HTTP settings for extract retrieval.
func (c Config) ExtractHTTP() types.HTTPConfig {
	return types.HTTPConfig{Timeout: c.Timeouts.Extract, UserAgent: c.UserAgent}
}

// MissingError lists required settings that were not provided, by
// environment variable name.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Vars, ", "))
}

// Bind registers defaults and environment bindings on v. secrets supplies
// the lowest-precedence values (see LoadSecrets).
func Bind(v *viper.Viper, secrets map[string]string) error {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyAuthTimeout, DefaultAuthTimeout)
	v.SetDefault(KeyUploadTimeout, DefaultUploadTimeout)
	v.SetDefault(KeyExtractTimeout, DefaultExtractTimeout)
	v.SetDefault(KeyUserAgent, DefaultUserAgent)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	for key, value := range secrets {
		v.SetDefault(key, value)
	}

	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return fmt.Errorf("binding %s: %w", b.env, err)
		}
	}
	return nil
}

// Load builds a Config from v. All missing required settings are reported
// together in a *MissingError.
func Load(v *viper.Viper) (Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, EnvName(key))
		}
	}
	if len(missing) > 0 {
		return Config{}, &MissingError{Vars: missing}
	}

	cfg := LoadLocal(v)
	cfg.Credentials = types.Credentials{
		IdentityURL: strings.TrimRight(v.GetString(KeySupabaseURL), "/"),
		APIKey:      v.GetString(KeySupabaseAnonKey),
		Email:       v.GetString(KeyEmail),
		Password:    v.GetString(KeyPassword),
	}
	return cfg, nil
}

// LoadLocal builds the settings that do not need credentials. Commands
// that never contact the service (history, version) use it directly.
func LoadLocal(v *viper.Viper) Config {
	apiURL := strings.TrimRight(v.GetString(KeyAPIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return Config{
		APIURL: apiURL,
		Timeouts: types.Timeouts{
			Auth:    v.GetDuration(KeyAuthTimeout),
			Upload:  v.GetDuration(KeyUploadTimeout),
			Extract: v.GetDuration(KeyExtractTimeout),
		},
		UserAgent: v.GetString(KeyUserAgent),
		HistoryDB: v.GetString(KeyHistoryDB),
		LogFile:   v.GetString(KeyLogFile),
		LogLevel:  ParseLogLevel(v.GetString(KeyLogLevel)),
	}
}

// EnvName returns the environment variable bound to key, or key itself.
func EnvName(key string) string {
	for _, b := range envBindings {
		if b.key == key {
			return b.env
		}
	}
	return key
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left untouched. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ParseLogLevel converts a level name to a slog.Level, defaulting to warn.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
