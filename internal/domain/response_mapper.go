package domain

import (
	"errors"
	"fmt"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapTickets renders a digest for matches, a fixed message for no matches and
// an error text block for every retrieval failure.
func (m *DefaultResponseMapper) MapTickets(description string, tickets []TicketSummary, err error) *ToolResponse {
	if err != nil {
		return ErrorTextResponse(describeRetrievalError(err))
	}

	if len(tickets) == 0 {
		return TextResponse(NoTicketsMessage(description))
	}

	return TextResponse(FormatDigest(description, tickets))
}

func describeRetrievalError(err error) string {
	var (
		missing   *MissingCredentialError
		network   *NetworkError
		transport *TransportError
		service   *ServiceError
		malformed *MalformedResponseError
	)

	switch {
	case errors.As(err, &missing):
		return fmt.Sprintf("Error: %s. Set it to a Linear API key to search tickets.", missing.Error())
	case errors.As(err, &transport):
		return fmt.Sprintf("Error fetching tickets from Linear: HTTP %d: %s", transport.StatusCode, transport.Body)
	case errors.As(err, &service):
		return "Linear API error: " + service.Error()
	case errors.As(err, &malformed):
		return "Error: unexpected response from Linear: " + malformed.Reason
	case errors.As(err, &network):
		return "Error fetching tickets from Linear: " + network.Err.Error()
	default:
		return "Error fetching tickets from Linear: " + err.Error()
	}
}

// MapError maps dispatch failures onto JSON-RPC error codes.
// Errors that are already *Error pass through unchanged.
func (m *DefaultResponseMapper) MapError(err error) *Error {
	if err == nil {
		return nil
	}

	var (
		rpcErr  *Error
		unknown *UnknownCapabilityError
		invalid *InvalidArgumentsError
	)

	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &unknown):
		code := MethodNotFound
		if unknown.Kind == KindResource {
			code = ResourceNotFound
		}
		return &Error{
			Code:    code,
			Message: err.Error(),
			Data:    map[string]any{"kind": unknown.Kind.String(), "name": unknown.Name},
		}
	case errors.As(err, &invalid):
		return &Error{
			Code:    InvalidParams,
			Message: err.Error(),
			Data:    map[string]any{"fields": append([]string{}, invalid.Fields...)},
		}
	default:
		return &Error{Code: InternalError, Message: err.Error()}
	}
}
