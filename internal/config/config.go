// Package config manages global ktauth configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration.
type Config struct {
	// APIBaseURL is the Identity Service endpoint.
	APIBaseURL string `yaml:"api_base_url"`
	// AppBaseURL is the Tenant API endpoint. Empty means same as APIBaseURL.
	AppBaseURL string `yaml:"app_base_url,omitempty"`

	// Workspace pins the helpdesk workspace; empty means resolve at runtime.
	Workspace string `yaml:"workspace,omitempty"`
	// WorkspaceMode is enabled, demo, or disabled.
	WorkspaceMode string `yaml:"workspace_mode,omitempty"`

	// RememberWorkspace controls whether the last used workspace is saved.
	RememberWorkspace bool `yaml:"remember_workspace"`
	// LastWorkspace is the most recently used workspace, when remembered.
	LastWorkspace string `yaml:"last_workspace,omitempty"`

	// StorePath overrides the token database location.
	StorePath string `yaml:"store_path,omitempty"`
	// SealTokens encrypts tokens at rest with a passphrase-derived key.
	SealTokens bool `yaml:"seal_tokens"`

	// HandshakeTimeout bounds a whole authentication attempt.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout,omitempty"`
	// PollInterval paces flow status polling.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:        "https://app.keytriage.com",
		RememberWorkspace: true,
	}
}

// ConfigPath returns the config file location, honoring XDG_CONFIG_HOME.
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ktauth", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "ktauth", "config.yaml")
	}
	return filepath.Join(home, ".config", "ktauth", "config.yaml")
}

// Load reads the config file, falling back to defaults when it does not
// exist. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// Save writes the config atomically with owner-only permissions.
func (c *Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KTAUTH_API_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("KTAUTH_APP_URL"); v != "" {
		c.AppBaseURL = v
	}
	if v := os.Getenv("KTAUTH_WORKSPACE"); v != "" {
		c.Workspace = v
	}
	if v := os.Getenv("KTAUTH_MODE"); v != "" {
		c.WorkspaceMode = v
	}
	if v := os.Getenv("KTAUTH_STORE_PATH"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("KTAUTH_SEAL_TOKENS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SealTokens = b
		}
	}
}

// TenantAPIBase returns the Tenant API endpoint, defaulting to the Identity
// Service base.
func (c *Config) TenantAPIBase() string {
	if c.AppBaseURL != "" {
		return c.AppBaseURL
	}
	return c.APIBaseURL
}
