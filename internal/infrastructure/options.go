package infrastructure

import (
	"log/slog"
	"net/http"
	"time"

	"linear-mcp-server/internal/domain"
)

// ClientOptions configures both ticket retrieval strategies.
type ClientOptions struct {
	// Endpoint is the Linear GraphQL URL.
	Endpoint string

	// Credentials is the static credential; nil means none was configured.
	Credentials *domain.Credentials

	// Timeout bounds one HTTP request. Zero means no timeout.
	Timeout time.Duration

	// Concurrency bounds parallel relation lookups (sdk strategy only).
	Concurrency int

	// Transport is the base round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.Endpoint == "" {
		o.Endpoint = domain.DefaultLinearEndpoint
	}
	if o.Concurrency <= 0 {
		o.Concurrency = domain.DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// authenticatedClient returns nil when no usable credential is configured.
func (o ClientOptions) authenticatedClient() *http.Client {
	httpClient, err := domain.NewAuthenticatedClient(o.Credentials, o.Transport, o.Timeout)
	if err != nil {
		return nil
	}
	return httpClient
}

// NewTicketRetriever builds the retriever selected by strategy.
func NewTicketRetriever(strategy string, opts ClientOptions) (domain.TicketRetriever, error) {
	switch strategy {
	case domain.StrategySDK:
		return NewSDKTicketClient(opts), nil
	case domain.StrategyGraphQL:
		return NewGraphQLTicketClient(opts), nil
	default:
		return nil, &unknownStrategyError{strategy: strategy}
	}
}

type unknownStrategyError struct {
	strategy string
}

func (e *unknownStrategyError) Error() string {
	return "unknown retrieval strategy: " + e.strategy
}

// missingCredential is the error both strategies return before any network call.
func missingCredential() error {
	return &domain.MissingCredentialError{Variable: domain.CredentialEnvVar}
}
