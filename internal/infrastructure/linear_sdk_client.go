package infrastructure

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"linear-mcp-server/internal/domain"
	"linear-mcp-server/internal/linear"
)

// SDKTicketClient retrieves tickets through the linear client library. Each
// issue's state, assignee and project are separate lazy lookups, resolved in
// parallel across all returned issues.
type SDKTicketClient struct {
	client      *linear.Client
	concurrency int
	logger      *slog.Logger
}

// NewSDKTicketClient creates the client-library retrieval strategy.
func NewSDKTicketClient(opts ClientOptions) *SDKTicketClient {
	opts = opts.withDefaults()

	c := &SDKTicketClient{
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
	}

	if httpClient := opts.authenticatedClient(); httpClient != nil {
		c.client = linear.NewClient(
			linear.WithEndpoint(opts.Endpoint),
			linear.WithHTTPClient(httpClient),
		)
	}

	return c
}

// issueRelations holds the resolved relation names of one issue. Empty means absent.
type issueRelations struct {
	state    string
	assignee string
	project  string
}

// Retrieve implements domain.TicketRetriever.
func (c *SDKTicketClient) Retrieve(ctx context.Context, description string) ([]domain.TicketSummary, error) {
	if c.client == nil {
		return nil, missingCredential()
	}

	conn, err := c.client.Issues(ctx, linear.IssuesOptions{
		Filter: &linear.IssueFilter{
			Or: []linear.IssueFilter{
				{Title: &linear.StringComparator{ContainsIgnoreCase: description}},
				{Description: &linear.StringComparator{ContainsIgnoreCase: description}},
			},
		},
		First: domain.MaxTickets,
	})
	if err != nil {
		return nil, mapLinearError(err)
	}

	issues := make([]*linear.Issue, 0, len(conn.Nodes))
	for _, issue := range conn.Nodes {
		if issue == nil {
			continue
		}
		if len(issues) == domain.MaxTickets {
			break
		}
		issues = append(issues, issue)
	}

	relations := c.resolveRelations(ctx, issues)

	tickets := make([]domain.TicketSummary, 0, len(issues))
	for i, issue := range issues {
		var body string
		if issue.Description != nil {
			body = *issue.Description
		}
		tickets = append(tickets, domain.NewTicketSummary(domain.TicketFields{
			ID:          issue.ID,
			Identifier:  issue.Identifier,
			Title:       issue.Title,
			Status:      relations[i].state,
			Assignee:    relations[i].assignee,
			Project:     relations[i].project,
			URL:         issue.URL,
			Description: body,
		}))
	}

	return tickets, nil
}

// resolveRelations fetches every relation of every issue concurrently. A failed
// lookup is logged and leaves its slot empty; it never cancels the others.
func (c *SDKTicketClient) resolveRelations(ctx context.Context, issues []*linear.Issue) []issueRelations {
	relations := make([]issueRelations, len(issues))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, issue := range issues {
		slot := &relations[i]

		g.Go(func() error {
			state, err := issue.State(ctx)
			if err != nil {
				c.logRelationFailure(issue, "state", err)
			} else if state != nil {
				slot.state = state.Name
			}
			return nil
		})

		g.Go(func() error {
			assignee, err := issue.Assignee(ctx)
			if err != nil {
				c.logRelationFailure(issue, "assignee", err)
			} else if assignee != nil {
				slot.assignee = assignee.Name
			}
			return nil
		})

		g.Go(func() error {
			project, err := issue.Project(ctx)
			if err != nil {
				c.logRelationFailure(issue, "project", err)
			} else if project != nil {
				slot.project = project.Name
			}
			return nil
		})
	}

	// Goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	return relations
}

func (c *SDKTicketClient) logRelationFailure(issue *linear.Issue, relation string, err error) {
	c.logger.Warn("failed to resolve issue relation",
		"issue", issue.Identifier,
		"relation", relation,
		"error", err,
	)
}

// mapLinearError translates client library errors into the retrieval taxonomy.
func mapLinearError(err error) error {
	var (
		httpErr   *linear.HTTPError
		gqlErrs   linear.Errors
		decodeErr *linear.DecodeError
	)

	switch {
	case errors.As(err, &httpErr):
		return &domain.TransportError{StatusCode: httpErr.StatusCode, Body: httpErr.Body}
	case errors.As(err, &gqlErrs):
		return &domain.ServiceError{Messages: gqlErrs.Messages()}
	case errors.As(err, &decodeErr):
		return &domain.MalformedResponseError{Reason: decodeErr.Err.Error()}
	default:
		return &domain.NetworkError{Err: err}
	}
}
