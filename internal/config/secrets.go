// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir is the directory searched for secret files.
const DefaultSecretsDir = ".secrets"

// secretFiles maps a secret file name to the config key it supplies.
// Secret files are the lowest-precedence source: any env var, .env entry,
// or config file value wins over them.
var secretFiles = map[string]string{
	"supabase-url":      KeySupabaseURL,
	"supabase-anon-key": KeySupabaseAnonKey,
	"oshima-email":      KeyEmail,
	"oshima-password":   KeyPassword,
	"oshima-api-url":    KeyAPIURL,
}

// LoadSecrets reads the known secret files in dir and returns a map of
// config key to trimmed value. A missing directory is not an error.
// Unknown, hidden, and empty files are ignored; unreadable files produce a
// warning on warn and are skipped.
func LoadSecrets(dir string, warn io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		key, known := secretFiles[name]
		if !known {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[key] = value
		}
	}
	return secrets, nil
}
