// Package config provides the persisted multi-profile configuration for n8nctl.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProfile is the profile created on first use.
const DefaultProfile = "default"

// Profile is a named credential set for one n8n instance.
type Profile struct {
	URL       string `yaml:"url"`
	Key       string `yaml:"key"`
	UIBaseURL string `yaml:"ui_base_url"`
}

// Config is the persisted configuration: an active-profile pointer plus the
// named profile map. ActiveProfile always resolves to an existing profile
// after any write.
type Config struct {
	ActiveProfile string             `yaml:"active_profile"`
	Profiles      map[string]Profile `yaml:"profiles"`
}

// configPathFunc resolves the config file location.
// Tests can override this to point at a temp directory.
var configPathFunc = defaultConfigPath

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".n8nctl", "config.yaml"), nil
}

// Path returns the path to the config file (~/.n8nctl/config.yaml).
func Path() (string, error) {
	return configPathFunc()
}

// Load reads the config file. It never fails on a missing or unreadable
// file: callers always get a usable, default-shaped config back.
func Load() *Config {
	cfg := defaultConfig()

	path, err := configPathFunc()
	if err != nil {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		// Corrupt config falls back to defaults rather than blocking the tool.
		return cfg
	}

	loaded.normalize()
	return &loaded
}

// Save writes the config back to disk, creating the directory as needed.
func (c *Config) Save() error {
	c.normalize()

	path, err := configPathFunc()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("cannot serialize config: %w", err)
	}

	header := "# n8nctl configuration\n\n"
	if err := os.WriteFile(path, []byte(header+string(data)), 0600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}

	return nil
}

// normalize enforces the store invariant: a non-empty active profile that
// exists in the profile map.
func (c *Config) normalize() {
	if c.Profiles == nil {
		c.Profiles = make(map[string]Profile)
	}
	if c.ActiveProfile == "" {
		c.ActiveProfile = DefaultProfile
	}
	if _, ok := c.Profiles[c.ActiveProfile]; !ok {
		c.Profiles[c.ActiveProfile] = Profile{}
	}
}

// EnsureProfile guarantees the named profile exists, persisting the store if
// it had to be created. Idempotent.
func EnsureProfile(name string) (*Config, error) {
	cfg := Load()

	if _, ok := cfg.Profiles[name]; ok {
		return cfg, nil
	}

	cfg.Profiles[name] = Profile{}
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = name
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Active returns the active profile's settings.
func (c *Config) Active() Profile {
	return c.Profiles[c.ActiveProfile]
}

// SetActiveProfile switches the active profile, creating it if absent.
func SetActiveProfile(name string) (*Config, error) {
	cfg := Load()
	cfg.ActiveProfile = name
	if _, ok := cfg.Profiles[name]; !ok {
		cfg.Profiles[name] = Profile{}
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetCredentials updates url and key on the named profile.
func SetCredentials(profile, url, key string) error {
	cfg := Load()
	p := cfg.Profiles[profile]
	p.URL = url
	p.Key = key
	cfg.Profiles[profile] = p
	return cfg.Save()
}

// SetUIBaseURL updates the UI base URL on the named profile.
func SetUIBaseURL(profile, url string) error {
	cfg := Load()
	p := cfg.Profiles[profile]
	p.UIBaseURL = url
	cfg.Profiles[profile] = p
	return cfg.Save()
}

func defaultConfig() *Config {
	return &Config{
		ActiveProfile: DefaultProfile,
		Profiles: map[string]Profile{
			DefaultProfile: {},
		},
	}
}
