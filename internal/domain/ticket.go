package domain

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTickets caps the number of tickets requested from Linear.
	MaxTickets = 5

	// DescriptionLimit is the number of source runes kept from a ticket description.
	DescriptionLimit = 200

	// PlaceholderNA stands in for an absent status, project or description.
	PlaceholderNA = "N/A"

	// PlaceholderUnassigned stands in for an absent assignee.
	PlaceholderUnassigned = "Unassigned"

	truncationMarker = "..."
)

// TicketSummary is the normalized view of a Linear issue.
type TicketSummary struct {
	ID          string
	Identifier  string
	Title       string
	Status      string
	Assignee    string
	Project     string
	URL         string
	Description string
}

// TicketFields holds the raw values a retriever extracted from a service response.
// Empty optional fields mean "absent".
type TicketFields struct {
	ID          string
	Identifier  string
	Title       string
	Status      string
	Assignee    string
	Project     string
	URL         string
	Description string
}

// NewTicketSummary normalizes raw fields: optional relations get their
// placeholder and the description is truncated.
func NewTicketSummary(f TicketFields) TicketSummary {
	return TicketSummary{
		ID:          f.ID,
		Identifier:  f.Identifier,
		Title:       f.Title,
		Status:      orPlaceholder(f.Status, PlaceholderNA),
		Assignee:    orPlaceholder(f.Assignee, PlaceholderUnassigned),
		Project:     orPlaceholder(f.Project, PlaceholderNA),
		URL:         f.URL,
		Description: orPlaceholder(TruncateDescription(f.Description), PlaceholderNA),
	}
}

// TruncateDescription keeps the first DescriptionLimit runes of s and appends
// an ellipsis marker when anything was cut.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= DescriptionLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:DescriptionLimit]) + truncationMarker
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// TicketRetriever searches Linear for tickets matching a free-text description.
//
// An empty slice with a nil error is the "no matches" outcome. Failures are one of
// MissingCredentialError, NetworkError, TransportError, ServiceError or
// MalformedResponseError. Implementations return at most MaxTickets results in
// the order the service returned them.
type TicketRetriever interface {
	Retrieve(ctx context.Context, description string) ([]TicketSummary, error)
}
