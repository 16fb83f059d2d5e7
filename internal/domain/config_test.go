package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	config, err := LoadConfigWithEnv("", map[string]string{})
	if err != nil {
		t.Fatalf("Expected defaults to be valid, got: %v", err)
	}

	if config.Transport.Type != TransportStdio {
		t.Errorf("Expected transport %q, got %q", TransportStdio, config.Transport.Type)
	}
	if config.Linear.Endpoint != DefaultLinearEndpoint {
		t.Errorf("Expected endpoint %q, got %q", DefaultLinearEndpoint, config.Linear.Endpoint)
	}
	if config.Linear.Strategy != StrategySDK {
		t.Errorf("Expected strategy %q, got %q", StrategySDK, config.Linear.Strategy)
	}
	if config.Linear.Concurrency != DefaultConcurrency {
		t.Errorf("Expected concurrency %d, got %d", DefaultConcurrency, config.Linear.Concurrency)
	}
	if config.HasCredential() {
		t.Error("Expected no credential by default")
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
transport:
  type: http
  http:
    host: 0.0.0.0
    port: 9000
linear:
  endpoint: https://linear.example.com/graphql
  strategy: graphql
  request_timeout: 15s
  concurrency: 3
  auth:
    type: bearer
    token: oauth-token
logging:
  level: debug
  format: json
telemetry:
  endpoint: http://localhost:4318
`)

	config, err := LoadConfigWithEnv(path, map[string]string{})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if config.Transport.Type != TransportHTTP || config.Transport.HTTP.Host != "0.0.0.0" || config.Transport.HTTP.Port != 9000 {
		t.Errorf("Unexpected transport config: %+v", config.Transport)
	}
	if config.Linear.Endpoint != "https://linear.example.com/graphql" {
		t.Errorf("Unexpected endpoint %q", config.Linear.Endpoint)
	}
	if config.Linear.Strategy != StrategyGraphQL {
		t.Errorf("Unexpected strategy %q", config.Linear.Strategy)
	}
	if config.Linear.RequestTimeout != 15*time.Second {
		t.Errorf("Unexpected request timeout %v", config.Linear.RequestTimeout)
	}
	if config.Linear.Concurrency != 3 {
		t.Errorf("Unexpected concurrency %d", config.Linear.Concurrency)
	}
	if config.Linear.Auth.Type != AuthTypeBearer || config.Linear.Auth.Token != "oauth-token" {
		t.Errorf("Unexpected auth config: %+v", config.Linear.Auth)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", config.Logging)
	}
	if config.Telemetry.ServiceName != "linear-mcp-server" {
		t.Errorf("Expected default service name to survive, got %q", config.Telemetry.ServiceName)
	}
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
linear:
  strategy: graphql
  auth:
    token: from-file
`)

	config, err := LoadConfigWithEnv(path, map[string]string{
		"LINEAR_API_KEY":         "lin_api_env",
		"LINEAR_MCP_STRATEGY":    "sdk",
		"LINEAR_MCP_LOG_LEVEL":   "warn",
		"LINEAR_MCP_HTTP_PORT":   "8181",
		"LINEAR_MCP_CONCURRENCY": "2",
	})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if config.Linear.Auth.Token != "lin_api_env" {
		t.Errorf("Expected env credential, got %q", config.Linear.Auth.Token)
	}
	if config.Linear.Strategy != StrategySDK {
		t.Errorf("Expected env strategy, got %q", config.Linear.Strategy)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected env log level, got %q", config.Logging.Level)
	}
	if config.Transport.HTTP.Port != 8181 {
		t.Errorf("Expected env port, got %d", config.Transport.HTTP.Port)
	}
	if config.Linear.Concurrency != 2 {
		t.Errorf("Expected env concurrency, got %d", config.Linear.Concurrency)
	}
}

func TestLoadConfig_FileValuesSurviveUnsetEnvironment(t *testing.T) {
	path := writeConfig(t, `
linear:
  strategy: graphql
`)

	config, err := LoadConfigWithEnv(path, map[string]string{})
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}
	if config.Linear.Strategy != StrategyGraphQL {
		t.Errorf("Expected file strategy, got %q", config.Linear.Strategy)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfigWithEnv("/nonexistent/config.yaml", map[string]string{})
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "configuration file not found") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidYAMLSyntax(t *testing.T) {
	path := writeConfig(t, "linear:\n  strategy: [unclosed\n")

	_, err := LoadConfigWithEnv(path, map[string]string{})
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "invalid YAML syntax") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadConfig_InvalidEnvironmentValue(t *testing.T) {
	_, err := LoadConfigWithEnv("", map[string]string{"LINEAR_MCP_HTTP_PORT": "eighty"})
	if err == nil {
		t.Fatal("Expected error for a non-numeric port")
	}
	if !strings.Contains(err.Error(), "parse env") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "missing transport", mutate: func(c *Config) { c.Transport.Type = "" }, want: "transport type is required"},
		{name: "invalid transport", mutate: func(c *Config) { c.Transport.Type = "grpc" }, want: "invalid transport type 'grpc'"},
		{name: "http without host", mutate: func(c *Config) {
			c.Transport.Type = TransportHTTP
			c.Transport.HTTP.Host = ""
		}, want: "HTTP host is required"},
		{name: "http bad port", mutate: func(c *Config) {
			c.Transport.Type = TransportHTTP
			c.Transport.HTTP.Port = 70000
		}, want: "invalid HTTP port 70000"},
		{name: "missing endpoint", mutate: func(c *Config) { c.Linear.Endpoint = "" }, want: "linear endpoint is required"},
		{name: "endpoint scheme", mutate: func(c *Config) { c.Linear.Endpoint = "ftp://linear.app" }, want: "must use http or https"},
		{name: "endpoint host", mutate: func(c *Config) { c.Linear.Endpoint = "https://" }, want: "must include a host"},
		{name: "strategy", mutate: func(c *Config) { c.Linear.Strategy = "rest" }, want: "invalid linear strategy 'rest'"},
		{name: "auth type", mutate: func(c *Config) { c.Linear.Auth.Type = "basic" }, want: "invalid linear auth type 'basic'"},
		{name: "negative timeout", mutate: func(c *Config) { c.Linear.RequestTimeout = -time.Second }, want: "must not be negative"},
		{name: "concurrency", mutate: func(c *Config) { c.Linear.Concurrency = 0 }, want: "invalid linear concurrency 0"},
		{name: "log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, want: "invalid log level 'verbose'"},
		{name: "log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, want: "invalid log format 'xml'"},
		{name: "telemetry endpoint", mutate: func(c *Config) { c.Telemetry.Endpoint = "localhost:4318" }, want: "telemetry endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	config := DefaultConfig()
	config.Transport.Type = "grpc"
	config.Linear.Strategy = "rest"
	config.Logging.Format = "xml"

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, "validation errors:") {
		t.Errorf("Expected aggregated error, got: %v", err)
	}
	for _, want := range []string{"grpc", "rest", "xml"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in aggregated error: %v", want, err)
		}
	}
}

func TestValidate_MissingCredentialIsNotAnError(t *testing.T) {
	config := DefaultConfig()
	config.Linear.Auth.Token = ""
	if err := config.Validate(); err != nil {
		t.Errorf("Expected no error without a credential, got: %v", err)
	}
}
