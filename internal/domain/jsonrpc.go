package domain

import "encoding/json"

// JSONRPCVersion is the only protocol version the server speaks.
const JSONRPCVersion = "2.0"

// Request represents a JSON-RPC 2.0 request or notification.
// A request without an ID is a notification and never receives a reply.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	// SessionID identifies the transport session the request arrived on.
	// Only the HTTP transport sets it; replies are routed back to the same session.
	SessionID string `json:"-"`
}

// IsNotification reports whether the request expects no reply.
func (r *Request) IsNotification() bool {
	return r.ID == nil
}

// Response represents a JSON-RPC 2.0 response message.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`

	SessionID string `json:"-"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	return e.Message
}

// JSON-RPC 2.0 error codes
const (
	ParseError     = -32700 // Invalid JSON received
	InvalidRequest = -32600 // Invalid JSON-RPC request structure
	MethodNotFound = -32601 // Unknown MCP method or capability
	InvalidParams  = -32602 // Invalid method parameters
	InternalError  = -32603 // Server internal error

	// ResourceNotFound is the MCP convention for an unknown resource URI.
	ResourceNotFound = -32002
)

// NewErrorResponse builds an error reply for the given request ID.
func NewErrorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}
