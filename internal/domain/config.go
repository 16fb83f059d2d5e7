package domain

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default configuration values
const (
	DefaultLinearEndpoint = "https://api.linear.app/graphql"
	DefaultConcurrency    = 8

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	StrategySDK     = "sdk"
	StrategyGraphQL = "graphql"

	AuthTypeAPIKey = "api_key"
	AuthTypeBearer = "bearer"

	// CredentialEnvVar is the environment variable holding the Linear API key.
	CredentialEnvVar = "LINEAR_API_KEY"
)

// Config represents the server configuration.
// Values come from built-in defaults, then an optional YAML file, then the environment.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Linear    LinearConfig    `yaml:"linear"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TransportConfig selects how MCP messages reach the server.
type TransportConfig struct {
	Type string     `yaml:"type" env:"LINEAR_MCP_TRANSPORT"` // "stdio" or "http"
	HTTP HTTPConfig `yaml:"http,omitempty"`
}

// HTTPConfig defines HTTP transport settings.
// Only used when transport type is "http".
type HTTPConfig struct {
	Host string `yaml:"host" env:"LINEAR_MCP_HTTP_HOST"`
	Port int    `yaml:"port" env:"LINEAR_MCP_HTTP_PORT"`
}

// LinearConfig configures access to the Linear GraphQL API.
type LinearConfig struct {
	Endpoint string     `yaml:"endpoint" env:"LINEAR_API_URL"`
	Strategy string     `yaml:"strategy" env:"LINEAR_MCP_STRATEGY"` // "sdk" or "graphql"
	Auth     AuthConfig `yaml:"auth"`

	// RequestTimeout bounds a single HTTP request. Zero means no timeout.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"LINEAR_MCP_REQUEST_TIMEOUT"`

	// Concurrency bounds parallel relation lookups of the sdk strategy.
	Concurrency int `yaml:"concurrency" env:"LINEAR_MCP_CONCURRENCY"`
}

// AuthConfig holds the single Linear credential.
type AuthConfig struct {
	Type  string `yaml:"type" env:"LINEAR_AUTH_TYPE"` // "api_key" or "bearer"
	Token string `yaml:"token,omitempty" env:"LINEAR_API_KEY"`
}

// LoggingConfig configures the diagnostic logger on stderr.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LINEAR_MCP_LOG_LEVEL"`
	Format string `yaml:"format" env:"LINEAR_MCP_LOG_FORMAT"` // "text" or "json"
}

// TelemetryConfig enables OpenTelemetry tracing when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"LINEAR_MCP_OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"LINEAR_MCP_OTEL_SERVICE_NAME"`
}

// DefaultConfig returns the configuration used when nothing else is provided.
func DefaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			Type: TransportStdio,
			HTTP: HTTPConfig{Host: "127.0.0.1", Port: 8080},
		},
		Linear: LinearConfig{
			Endpoint:    DefaultLinearEndpoint,
			Strategy:    StrategySDK,
			Auth:        AuthConfig{Type: AuthTypeAPIKey},
			Concurrency: DefaultConcurrency,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "linear-mcp-server",
		},
	}
}

// LoadConfig builds the configuration from defaults, the YAML file at path
// (skipped when path is empty) and the process environment.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigWithEnv(path, nil)
}

// LoadConfigWithEnv is LoadConfig with an explicit environment.
// A nil environ means the process environment.
func LoadConfigWithEnv(path string, environ map[string]string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("invalid YAML syntax in configuration file: %w", err)
		}
	}

	if err := env.ParseWithOptions(config, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for completeness and correctness.
// A missing credential is not a configuration error: the ticket tool reports it per call.
func (c *Config) Validate() error {
	var errors []string

	if err := c.validateTransport(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Linear.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if err := c.Logging.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	if c.Telemetry.Endpoint != "" {
		if err := validateHTTPURL("telemetry endpoint", c.Telemetry.Endpoint); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateTransport validates the transport configuration.
func (c *Config) validateTransport() error {
	var errors []string

	switch c.Transport.Type {
	case "":
		errors = append(errors, "transport type is required")
	case TransportStdio:
	case TransportHTTP:
		if c.Transport.HTTP.Host == "" {
			errors = append(errors, "HTTP host is required when transport type is 'http'")
		}
		if c.Transport.HTTP.Port <= 0 || c.Transport.HTTP.Port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP port %d: must be between 1 and 65535", c.Transport.HTTP.Port))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid transport type '%s': must be 'stdio' or 'http'", c.Transport.Type))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates the Linear API settings.
func (lc *LinearConfig) Validate() error {
	var errors []string

	if lc.Endpoint == "" {
		errors = append(errors, "linear endpoint is required")
	} else if err := validateHTTPURL("linear endpoint", lc.Endpoint); err != nil {
		errors = append(errors, err.Error())
	}

	if lc.Strategy != StrategySDK && lc.Strategy != StrategyGraphQL {
		errors = append(errors, fmt.Sprintf("invalid linear strategy '%s': must be '%s' or '%s'", lc.Strategy, StrategySDK, StrategyGraphQL))
	}

	if lc.Auth.Type != AuthTypeAPIKey && lc.Auth.Type != AuthTypeBearer {
		errors = append(errors, fmt.Sprintf("invalid linear auth type '%s': must be '%s' or '%s'", lc.Auth.Type, AuthTypeAPIKey, AuthTypeBearer))
	}

	if lc.RequestTimeout < 0 {
		errors = append(errors, "linear request_timeout must not be negative")
	}

	if lc.Concurrency <= 0 {
		errors = append(errors, fmt.Sprintf("invalid linear concurrency %d: must be positive", lc.Concurrency))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// Validate validates the logging settings.
func (lc *LoggingConfig) Validate() error {
	var errors []string

	if _, err := lc.SlogLevel(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", lc.Level))
	}

	if lc.Format != "text" && lc.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", lc.Format))
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (lc *LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(lc.Level))
	return level, err
}

// HasCredential reports whether a Linear credential is configured.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.Linear.Auth.Token) != ""
}

func validateHTTPURL(field, raw string) error {
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %v", field, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme", field)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
