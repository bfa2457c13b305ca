package main

import (
	"fmt"
	"strings"

	"github.com/consultdesk/apiclient/config"
	"github.com/consultdesk/apiclient/httpclient"
	"github.com/consultdesk/apiclient/observability"
	"github.com/consultdesk/apiclient/retry"
	"github.com/consultdesk/apiclient/tokenstore"
	"github.com/consultdesk/apiclient/version"
)

const serviceName = "consultctl"

// SessionConfig controls the bearer token and the login redirect.
type SessionConfig struct {
	TokenKey  string `yaml:"token_key" mapstructure:"token_key"`
	LoginPath string `yaml:"login_path" mapstructure:"login_path"`
	StartPath string `yaml:"start_path" mapstructure:"start_path"`
}

// AuthConfig holds static credentials sent with every request. A stored
// session token replaces the Basic credentials.
type AuthConfig struct {
	Username     string `yaml:"username" mapstructure:"username"`
	Password     string `yaml:"password" mapstructure:"password"`
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	APIKeyHeader string `yaml:"api_key_header" mapstructure:"api_key_header"`
}

// AppConfig is the full consultctl configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API        httpclient.Config    `yaml:"api" mapstructure:"api"`
	Auth       AuthConfig           `yaml:"auth" mapstructure:"auth"`
	HealthPath string               `yaml:"health_path" mapstructure:"health_path"`
	Retry      retry.Config         `yaml:"retry" mapstructure:"retry"`
	Session    SessionConfig        `yaml:"session" mapstructure:"session"`
	TokenStore tokenstore.Config    `yaml:"token_store" mapstructure:"token_store"`
	Telemetry  observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	if !hasHeader(c.API.Headers, "User-Agent") {
		c.API.Headers["User-Agent"] = version.Get().UserAgent(serviceName)
	}
	c.Retry.ApplyDefaults()
	if c.HealthPath == "" {
		c.HealthPath = "/health"
	}
	if c.Session.TokenKey == "" {
		c.Session.TokenKey = httpclient.DefaultTokenKey
	}
	if c.Session.LoginPath == "" {
		c.Session.LoginPath = httpclient.DefaultLoginPath
	}
	if c.Session.StartPath == "" {
		c.Session.StartPath = "/"
	}
	c.TokenStore.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks every section.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return err
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if err := c.TokenStore.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// loadConfig reads the config file, the .env file and CONSULTCTL_* variables.
func loadConfig(configFile, envFile string) (*AppConfig, error) {
	var cfg AppConfig
	err := config.Load(serviceName, &cfg,
		config.WithConfigFile(configFile),
		config.WithEnvFile(envFile),
		config.WithEnvPrefix(serviceName),
	)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
