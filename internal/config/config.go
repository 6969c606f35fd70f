package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPersona is the reply system instruction used when the config does
// not set one.
const DefaultPersona = "You are a friendly software developer bot on a social network. " +
	"Reply to the message in one short, conversational sentence. " +
	"Do not use hashtags and do not mention that you are a bot."

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:        "gpt-4o-mini",
		Persona:      DefaultPersona,
		PollInterval: 91,
		Port:         8000,
		GitHubHost:   "github.com",
		DataDir:      ".perch",
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PERCH_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: PERCH_CONSUMER_KEY -> consumer_key, etc.
	if err := k.Load(env.Provider("PERCH_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PERCH_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path with restricted
// permissions, since it may hold credentials.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks the fields every subcommand needs. Missing consumer
// credentials are a startup-fatal condition.
func (c *Config) Validate() error {
	if c.ConsumerKey == "" {
		return fmt.Errorf("consumer_key is required")
	}
	if c.ConsumerSecret == "" {
		return fmt.Errorf("consumer_secret is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	return nil
}

// ValidateRun checks the additional fields the reply loop needs. The loop
// must never start without both credential pairs present.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required: run `perch auth` first")
	}
	if c.AccessSecret == "" {
		return fmt.Errorf("access_secret is required: run `perch auth` first")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.GitHubUser != "" && c.GitHubHost == "" {
		return fmt.Errorf("github_host is required when github_user is set")
	}
	return nil
}
