package domain

// ResponseMapper converts retrieval outcomes and Go errors into protocol shapes.
type ResponseMapper interface {
	// MapTickets renders the outcome of a ticket search as a tool envelope.
	// It never fails: errors become descriptive text.
	MapTickets(description string, tickets []TicketSummary, err error) *ToolResponse

	// MapError converts a dispatch error into a JSON-RPC error object.
	MapError(err error) *Error
}
