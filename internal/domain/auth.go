package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// AuthType defines supported ways of presenting the Linear credential.
type AuthType int

const (
	// APIKeyAuth sends a personal API key verbatim in the Authorization header.
	APIKeyAuth AuthType = iota
	// BearerAuth sends an OAuth access token with the Bearer scheme.
	BearerAuth
)

// String returns the string representation of AuthType.
func (a AuthType) String() string {
	switch a {
	case APIKeyAuth:
		return AuthTypeAPIKey
	case BearerAuth:
		return AuthTypeBearer
	default:
		return "unknown"
	}
}

// ParseAuthType converts a string to AuthType, defaulting to APIKeyAuth.
func ParseAuthType(s string) AuthType {
	if s == AuthTypeBearer {
		return BearerAuth
	}
	return APIKeyAuth
}

// Credentials is the static credential handed to a ticket retriever at construction.
type Credentials struct {
	Type  AuthType
	Token string
}

// CredentialsFromConfig extracts the Linear credential. It returns nil when no
// token is configured so callers can report MissingCredentialError.
func CredentialsFromConfig(config *Config) *Credentials {
	if !config.HasCredential() {
		return nil
	}
	return &Credentials{
		Type:  ParseAuthType(config.Linear.Auth.Type),
		Token: strings.TrimSpace(config.Linear.Auth.Token),
	}
}

// AuthorizationHeader returns the Authorization header value for the credential.
func (c *Credentials) AuthorizationHeader() string {
	if c.Type == BearerAuth {
		return "Bearer " + c.Token
	}
	return c.Token
}

// Validate checks that the credential can be presented.
func (c *Credentials) Validate() error {
	if c == nil || c.Token == "" {
		return &MissingCredentialError{Variable: CredentialEnvVar}
	}
	if c.Type != APIKeyAuth && c.Type != BearerAuth {
		return fmt.Errorf("invalid authentication type: %v", c.Type)
	}
	return nil
}

// NewAuthenticatedClient returns an HTTP client that adds the credential to every request.
// A zero timeout leaves requests unbounded.
func NewAuthenticatedClient(creds *Credentials, base http.RoundTripper, timeout time.Duration) (*http.Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if base == nil {
		base = http.DefaultTransport
	}

	return &http.Client{
		Transport: &authenticatedTransport{
			base:        base,
			credentials: creds,
		},
		Timeout: timeout,
	}, nil
}

// authenticatedTransport is an http.RoundTripper that adds authentication headers.
type authenticatedTransport struct {
	base        http.RoundTripper
	credentials *Credentials
}

// RoundTrip implements http.RoundTripper by adding authentication headers to requests.
func (t *authenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("Authorization", t.credentials.AuthorizationHeader())

	return t.base.RoundTrip(clonedReq)
}
