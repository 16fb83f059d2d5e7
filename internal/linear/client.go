package linear

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultEndpoint is Linear's public GraphQL endpoint.
const DefaultEndpoint = "https://api.linear.app/graphql"

const tracerName = "linear-mcp-server/internal/linear"

// Client issues GraphQL operations against Linear.
// Authentication is the HTTP client's concern.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient sets the HTTP client used for every request.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		httpClient: http.DefaultClient,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPError reports a non-2xx reply.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("linear: HTTP %d: %s", e.StatusCode, e.Body)
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Errors is the "errors" array of a GraphQL reply.
type Errors []GraphQLError

func (e Errors) Error() string {
	return "linear: " + strings.Join(e.Messages(), ", ")
}

// Messages returns the message of every error in order.
func (e Errors) Messages() []string {
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Message
	}
	return messages
}

// DecodeError reports a reply whose body could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("linear: decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type graphQLRequest struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors Errors          `json:"errors"`
}

// do runs one GraphQL operation and decodes its data object into out.
// Transport failures are returned as-is; status, GraphQL and decode failures as
// *HTTPError, Errors and *DecodeError.
func (c *Client) do(ctx context.Context, operation, query string, variables map[string]any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "linear."+operation, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	payload, err := json.Marshal(graphQLRequest{
		OperationName: operation,
		Query:         query,
		Variables:     variables,
	})
	if err != nil {
		return fmt.Errorf("linear: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("linear: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("linear: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &DecodeError{Err: err}
	}

	if len(envelope.Errors) > 0 {
		return envelope.Errors
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &DecodeError{Err: fmt.Errorf("reply has no data")}
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &DecodeError{Err: err}
	}

	return nil
}
