// Package config loads puller configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultStagingBaseURL is the vendor staging API root.
const DefaultStagingBaseURL = "https://stgapi.reliableparts.net:8077/ws/rest/ReliablePartsBoomiAPI"

// Config holds the environment-level settings for talking to the vendor API.
// Per-run knobs (dates, intervals, output paths) are command flags instead.
type Config struct {
	Env         string `mapstructure:"env"`
	BaseURLStg  string `mapstructure:"base_url_stg"`
	BaseURLProd string `mapstructure:"base_url_prod"`
	BasicAuth   string `mapstructure:"basic_auth"`
	APIKey      string `mapstructure:"api_key"`
	Country     string `mapstructure:"country"`
}

// Load reads configuration from a .env file (when present), the process
// environment, and an optional config file. Environment variables use the
// RELIABLE_* names.
func Load(configPath string) (*Config, error) {
	// Missing .env is fine; the variables may already be exported.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("env", "stg")
	v.SetDefault("base_url_stg", DefaultStagingBaseURL)
	v.SetDefault("country", "US")

	bindings := map[string]string{
		"env":           "RELIABLE_ENV",
		"base_url_stg":  "RELIABLE_BASE_URL_STG",
		"base_url_prod": "RELIABLE_BASE_URL_PROD",
		"basic_auth":    "RELIABLE_BASIC_AUTH",
		"api_key":       "RELIABLE_API_KEY",
		"country":       "RELIABLE_COUNTRY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.BasicAuth = strings.TrimSpace(cfg.BasicAuth)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	return &cfg, nil
}

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

// Validate checks the settings required to call the vendor API.
func (c *Config) Validate() error {
	if err := validate(c.Env == "stg" || c.Env == "prod", "env must be stg or prod, got %q", c.Env); err != nil {
		return err
	}
	if err := validate(c.BasicAuth != "", "missing credentials: RELIABLE_BASIC_AUTH"); err != nil {
		return err
	}
	if err := validate(c.APIKey != "", "missing credentials: RELIABLE_API_KEY"); err != nil {
		return err
	}
	if c.Env == "prod" {
		if err := validate(c.BaseURLProd != "", "prod base URL not set (RELIABLE_BASE_URL_PROD)"); err != nil {
			return err
		}
	}
	return nil
}

// BaseURL resolves the API root for the configured environment.
func (c *Config) BaseURL() string {
	if c.Env == "prod" {
		return strings.TrimRight(c.BaseURLProd, "/")
	}
	return strings.TrimRight(c.BaseURLStg, "/")
}
