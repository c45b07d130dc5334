package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	defaultAPIVersion = "2025-01-01"
	productionIAMURL  = "https://iam.cloud.ibm.com/identity/token"
	stagingIAMURL     = "https://iam.test.cloud.ibm.com/identity/token"
	stagingMarker     = "wml-fvt"
)

// Config holds the environment driven configuration for the chat gateway.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"chat-ui"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"3000"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	LogPIILevel     string        `env:"LOG_PII_LEVEL" envDefault:"hashed"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPHeaders     string        `env:"OTEL_EXPORTER_OTLP_HEADERS" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Upstream deployment
	BaseDeploymentURL string        `env:"BASE_DEPLOYMENT_URL"`
	SpaceID           string        `env:"SPACE_ID"`
	APIKey            string        `env:"API_KEY"`
	APIVersion        string        `env:"API_VERSION" envDefault:"2025-01-01"`
	IAMURL            string        `env:"IAM_URL"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
	TokenTimeout      time.Duration `env:"TOKEN_TIMEOUT" envDefault:"15s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.BaseDeploymentURL = strings.TrimRight(strings.TrimSpace(c.BaseDeploymentURL), "/")
	if c.BaseDeploymentURL == "" {
		return fmt.Errorf("BASE_DEPLOYMENT_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseDeploymentURL); err != nil {
		return fmt.Errorf("BASE_DEPLOYMENT_URL is invalid: %w", err)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("API_KEY is required")
	}
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = defaultAPIVersion
	}
	if c.UpstreamTimeout <= 0 {
		c.UpstreamTimeout = 30 * time.Second
	}
	if c.TokenTimeout <= 0 {
		c.TokenTimeout = 15 * time.Second
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsStaging reports whether the deployment lives on the staging cloud.
func (c *Config) IsStaging() bool {
	return strings.Contains(c.BaseDeploymentURL, stagingMarker)
}

// TokenURL returns the identity provider endpoint used for API key exchange.
func (c *Config) TokenURL() string {
	if override := strings.TrimSpace(c.IAMURL); override != "" {
		return override
	}
	if c.IsStaging() {
		return stagingIAMURL
	}
	return productionIAMURL
}

// DeploymentURL is the deployment metadata endpoint.
func (c *Config) DeploymentURL() string {
	q := url.Values{}
	q.Set("space_id", c.SpaceID)
	q.Set("version", c.APIVersion)
	return c.BaseDeploymentURL + "?" + q.Encode()
}

// AIServiceURL is the non-streaming generation endpoint.
func (c *Config) AIServiceURL() string {
	return c.BaseDeploymentURL + "/ai_service?version=" + url.QueryEscape(c.APIVersion)
}

// AIServiceStreamURL is the streaming generation endpoint.
func (c *Config) AIServiceStreamURL() string {
	return c.BaseDeploymentURL + "/ai_service_stream?version=" + url.QueryEscape(c.APIVersion)
}
