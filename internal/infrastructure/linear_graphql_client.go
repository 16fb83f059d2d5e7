package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linear-mcp-server/internal/domain"
)

// searchIssuesQuery fetches matches together with their relations in one round trip.
const searchIssuesQuery = `query SearchIssues($filter: IssueFilter, $first: Int) {
  issues(filter: $filter, first: $first) {
    nodes {
      id
      identifier
      title
      description
      url
      state { name }
      assignee { name }
      project { name }
    }
  }
}`

// GraphQLTicketClient retrieves tickets with a single hand-built GraphQL request
// and parses the raw JSON reply.
type GraphQLTicketClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewGraphQLTicketClient creates the raw query/response retrieval strategy.
func NewGraphQLTicketClient(opts ClientOptions) *GraphQLTicketClient {
	opts = opts.withDefaults()
	return &GraphQLTicketClient{
		endpoint:   opts.Endpoint,
		httpClient: opts.authenticatedClient(),
		logger:     opts.Logger,
		tracer:     otel.Tracer("linear-mcp-server/internal/infrastructure"),
	}
}

// SearchFilter builds the filter document matching description against the
// title or the description, case-insensitively.
func SearchFilter(description string) map[string]any {
	return map[string]any{
		"or": []any{
			map[string]any{"title": map[string]any{"containsIgnoreCase": description}},
			map[string]any{"description": map[string]any{"containsIgnoreCase": description}},
		},
	}
}

// Retrieve implements domain.TicketRetriever.
func (c *GraphQLTicketClient) Retrieve(ctx context.Context, description string) (tickets []domain.TicketSummary, err error) {
	if c.httpClient == nil {
		return nil, missingCredential()
	}

	ctx, span := c.tracer.Start(ctx, "linear.SearchIssues", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("linear.tickets", len(tickets)))
		span.End()
	}()

	body, err := json.Marshal(map[string]any{
		"operationName": "SearchIssues",
		"query":         searchIssuesQuery,
		"variables": map[string]any{
			"filter": SearchFilter(description),
			"first":  domain.MaxTickets,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("linear search completed", "status", resp.StatusCode, "bytes", len(payload))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	return parseSearchResponse(payload)
}

// parseSearchResponse checks, in order, for a GraphQL error array and for the
// data.issues.nodes container, then normalizes every node.
func parseSearchResponse(payload []byte) ([]domain.TicketSummary, error) {
	if !gjson.ValidBytes(payload) {
		return nil, &domain.MalformedResponseError{Reason: "response is not valid JSON"}
	}

	if errs := gjson.GetBytes(payload, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		var messages []string
		for _, e := range errs.Array() {
			if msg := e.Get("message"); msg.Exists() {
				messages = append(messages, msg.String())
			} else {
				messages = append(messages, e.Raw)
			}
		}
		return nil, &domain.ServiceError{Messages: messages}
	}

	nodes := gjson.GetBytes(payload, "data.issues.nodes")
	if !nodes.IsArray() {
		return nil, &domain.MalformedResponseError{Reason: "missing data.issues.nodes"}
	}

	var tickets []domain.TicketSummary
	for i, node := range nodes.Array() {
		if len(tickets) == domain.MaxTickets {
			break
		}
		if !node.IsObject() {
			return nil, &domain.MalformedResponseError{Reason: fmt.Sprintf("issue node %d is not an object", i)}
		}
		tickets = append(tickets, domain.NewTicketSummary(domain.TicketFields{
			ID:          node.Get("id").String(),
			Identifier:  node.Get("identifier").String(),
			Title:       node.Get("title").String(),
			Status:      node.Get("state.name").String(),
			Assignee:    node.Get("assignee.name").String(),
			Project:     node.Get("project.name").String(),
			URL:         node.Get("url").String(),
			Description: node.Get("description").String(),
		}))
	}

	return tickets, nil
}
