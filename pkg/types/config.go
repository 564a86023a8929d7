// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds the whole request, including reading the response body.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "oshima/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Credentials identify the account used for the password grant.
type Credentials struct {
	// IdentityURL is the identity provider project URL
	// (e.g. "https://project.supabase.co").
	IdentityURL string `json:"identity_url" yaml:"identity_url"`

	// APIKey is the public (anon) key sent in the apikey header.
	APIKey string `json:"-" yaml:"-"`

	// Email is the account email.
	Email string `json:"email" yaml:"email"`

	// Password is the account password.
	Password string `json:"-" yaml:"-"`
}

// Complete reports whether all four credential values are set.
func (c Credentials) Complete() bool {
	return c.IdentityURL != "" && c.APIKey != "" && c.Email != "" && c.Password != ""
}

// Timeouts groups the per-stage request timeouts.
type Timeouts struct {
	Auth    time.Duration `json:"auth" yaml:"auth"`
	Upload  time.Duration `json:"upload" yaml:"upload"`
	Extract time.Duration `json:"extract" yaml:"extract"`
}

// BatchConfig holds settings for directory uploads.
type BatchConfig struct {
	// Pattern is the glob matched against file names in the directory (default "*.pdf").
	Pattern string `json:"pattern" yaml:"pattern"`

	// Delay is the pause between consecutive uploads (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`

	// Field and Topic are applied to every paper in the batch.
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	Topic string `json:"topic,omitempty" yaml:"topic,omitempty"`
}
