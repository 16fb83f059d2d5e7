package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MissingCredentialError reports that no Linear credential was configured.
// It is returned before any network call is attempted.
type MissingCredentialError struct {
	// Variable names the configuration source the credential is read from.
	Variable string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Variable)
}

// NetworkError wraps a failure that prevented any HTTP response from arriving.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to Linear failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// TransportError reports a non-success HTTP status from the service.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ServiceError carries the messages of a GraphQL "errors" array.
type ServiceError struct {
	Messages []string
}

func (e *ServiceError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// MalformedResponseError reports a reply that does not match the expected shape.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Reason
}

// InvalidArgumentsError reports arguments that failed schema validation.
type InvalidArgumentsError struct {
	Capability string
	Fields     []string
	Reason     string
}

func (e *InvalidArgumentsError) Error() string {
	msg := fmt.Sprintf("invalid arguments for %s", e.Capability)
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// UnknownCapabilityError reports a lookup of an unregistered capability.
type UnknownCapabilityError struct {
	Kind CapabilityKind
	Name string
}

func (e *UnknownCapabilityError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, e.Name)
}

// DuplicateCapabilityError reports a second registration of the same kind and name.
type DuplicateCapabilityError struct {
	Kind CapabilityKind
	Name string
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("%s already registered: %s", e.Kind, e.Name)
}

// IsRetrievalError reports whether err belongs to the ticket retrieval taxonomy.
func IsRetrievalError(err error) bool {
	var (
		missing   *MissingCredentialError
		network   *NetworkError
		transport *TransportError
		service   *ServiceError
		malformed *MalformedResponseError
	)
	return errors.As(err, &missing) ||
		errors.As(err, &network) ||
		errors.As(err, &transport) ||
		errors.As(err, &service) ||
		errors.As(err, &malformed)
}
