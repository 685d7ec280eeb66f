// Package config reads the probe configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// EnvPrefix is prepended to every variable name read by FromEnv.
const EnvPrefix = "PROBE_"

const (
	DefaultBaseURL      = "https://api.chatanywhere.tech/v1"
	DefaultModel        = "gpt-4.1-mini"
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultUserPrompt   = "current date and time india"
)

// Config is the immutable configuration of a probe run.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	UserPrompt   string

	// ParamPrefix enables reading the API key from SSM at <prefix>/api-token.
	ParamPrefix string
	// StateTable enables run history in DynamoDB.
	StateTable string

	LogLevel slog.Level
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Default returns a Config holding the built-in endpoint, model and prompt.
func Default() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		UserPrompt:   DefaultUserPrompt,
		LogLevel:     slog.LevelWarn,
	}
}

// FromEnv overlays PROBE_* variables on top of Default and validates the
// result.
func FromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, errors.New("config: lookup func must not be nil")
	}
	cfg := Default()

	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("API_KEY"); ok {
		cfg.APIKey = v
	}
	if v, ok := get("BASE_URL"); ok {
		cfg.BaseURL = v
	}
	if v, ok := get("MODEL"); ok {
		cfg.Model = v
	}
	// Prompts keep their surrounding whitespace.
	if v, ok := lookup(EnvPrefix + "SYSTEM_PROMPT"); ok && strings.TrimSpace(v) != "" {
		cfg.SystemPrompt = v
	}
	if v, ok := lookup(EnvPrefix + "USER_PROMPT"); ok && strings.TrimSpace(v) != "" {
		cfg.UserPrompt = v
	}
	if v, ok := get("PARAM_PREFIX"); ok {
		cfg.ParamPrefix = strings.TrimRight(v, "/")
	}
	if v, ok := get("STATE_TABLE"); ok {
		cfg.StateTable = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: %sLOG_LEVEL: %w", EnvPrefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can build a probe. It does not
// inspect the prompts.
func (c Config) Validate() error {
	if c.APIKey == "" && c.ParamPrefix == "" {
		return fmt.Errorf("config: one of %sAPI_KEY or %sPARAM_PREFIX must be set", EnvPrefix, EnvPrefix)
	}
	if c.Model == "" {
		return errors.New("config: model must not be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("config: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: base url must start with http:// or https://, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("config: base url %q has no host", c.BaseURL)
	}
	return nil
}

// TokenParameterName is the SSM parameter holding the API key.
func (c Config) TokenParameterName() string {
	if c.ParamPrefix == "" {
		return ""
	}
	return c.ParamPrefix + "/api-token"
}
