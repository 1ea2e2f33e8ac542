// Package auth resolves the effective n8n credentials from CLI flags,
// environment variables and the persisted profile config, in that order of
// precedence.
package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/n8n-tools/n8nctl/internal/config"
)

// Environment variable names consumed by the resolver.
const (
	EnvURL = "N8N_URL"
	EnvKey = "N8N_API_KEY"
)

// Source labels report which configuration tier supplied the credentials.
// Advisory only: resolution never branches on them.
const (
	SourceFlags  = "flags"
	SourceEnv    = "env"
	SourceConfig = "config"
	SourceNone   = "none"
)

// Flags carries the credential-related global CLI flags.
type Flags struct {
	URL     string
	Key     string
	Profile string
}

// Env carries the credential environment variables as an explicit record, so
// resolution stays deterministic under test instead of reading ambient state.
type Env struct {
	URL string
	Key string
}

// EnvFromOS captures the credential variables from the process environment.
func EnvFromOS() Env {
	return Env{
		URL: os.Getenv(EnvURL),
		Key: os.Getenv(EnvKey),
	}
}

// Credentials is the resolved, effective credential set. Derived, never
// persisted.
type Credentials struct {
	URL       string
	Key       string
	Profile   string
	UIBaseURL string
	Source    string
}

// MissingCredentialError reports a credential field that stayed empty after
// checking every configuration tier.
type MissingCredentialError struct {
	Field string // "url" or "api key"
}

func (e *MissingCredentialError) Error() string {
	switch e.Field {
	case "url":
		return fmt.Sprintf("missing n8n URL: set it in settings, pass --url, or set %s", EnvURL)
	default:
		return fmt.Sprintf("missing n8n API key: set it in settings, pass --key, or set %s", EnvKey)
	}
}

// Resolve merges flags, environment and the active profile into effective
// credentials. URL and key are resolved independently: mixing tiers across
// the two fields is expected. The chosen profile is persisted if it did not
// exist yet.
func Resolve(flags Flags, env Env) (Credentials, error) {
	profile := strings.TrimSpace(flags.Profile)
	if profile == "" {
		profile = config.Load().ActiveProfile
	}
	if profile == "" {
		profile = config.DefaultProfile
	}

	cfg, err := config.EnsureProfile(profile)
	if err != nil {
		return Credentials{}, fmt.Errorf("ensure profile %q: %w", profile, err)
	}
	p := cfg.Profiles[profile]

	urlFlag := strings.TrimSpace(flags.URL)
	keyFlag := strings.TrimSpace(flags.Key)
	urlEnv := strings.TrimSpace(env.URL)
	keyEnv := strings.TrimSpace(env.Key)
	urlCfg := strings.TrimSpace(p.URL)
	keyCfg := strings.TrimSpace(p.Key)

	creds := Credentials{
		URL:       firstNonEmpty(urlFlag, urlEnv, urlCfg),
		Key:       firstNonEmpty(keyFlag, keyEnv, keyCfg),
		Profile:   profile,
		UIBaseURL: strings.TrimSpace(p.UIBaseURL),
	}

	switch {
	case urlFlag != "" || keyFlag != "":
		creds.Source = SourceFlags
	case urlEnv != "" || keyEnv != "":
		creds.Source = SourceEnv
	case urlCfg != "" || keyCfg != "":
		creds.Source = SourceConfig
	default:
		creds.Source = SourceNone
	}

	return creds, nil
}

// Assert fails when either credential field is still empty. It must run
// before any remote call is attempted.
func Assert(creds Credentials) error {
	if creds.URL == "" {
		return &MissingCredentialError{Field: "url"}
	}
	if creds.Key == "" {
		return &MissingCredentialError{Field: "api key"}
	}
	return nil
}

// UIBaseURL derives the browser-facing base URL: the configured UI base URL
// when set, otherwise the API URL with a trailing /api/v1 or /api stripped.
func (c Credentials) DeriveUIBaseURL() string {
	base := c.UIBaseURL
	if base == "" {
		base = c.URL
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")

	lower := strings.ToLower(base)
	switch {
	case strings.HasSuffix(lower, "/api/v1"):
		base = base[:len(base)-len("/api/v1")]
	case strings.HasSuffix(lower, "/api"):
		base = base[:len(base)-len("/api")]
	}
	return strings.TrimRight(base, "/")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
