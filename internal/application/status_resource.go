package application

import (
	"context"
	"fmt"
	"time"

	"linear-mcp-server/internal/domain"
)

// StatusResourceURI is the URI of the liveness resource.
const StatusResourceURI = "status://check"

// StatusResource reports liveness and the current time.
type StatusResource struct {
	now func() time.Time
}

// NewStatusResource creates the status resource. A nil clock means time.Now.
func NewStatusResource(now func() time.Time) *StatusResource {
	if now == nil {
		now = time.Now
	}
	return &StatusResource{now: now}
}

// Descriptor declares the resource for the registry.
func (r *StatusResource) Descriptor() domain.CapabilityDescriptor {
	return domain.CapabilityDescriptor{
		Name:        StatusResourceURI,
		Kind:        domain.KindResource,
		Title:       "Server status",
		Description: "Liveness of the server and its current time",
		MimeType:    "text/plain",
		Resource:    r,
	}
}

// ReadResource implements domain.ResourceHandler.
func (r *StatusResource) ReadResource(_ context.Context, uri string) (*domain.ResourceContents, error) {
	return &domain.ResourceContents{
		URI:      uri,
		MimeType: "text/plain",
		Text:     fmt.Sprintf("Server is running. Current time: %s", r.now().UTC().Format(time.RFC3339)),
	}, nil
}
