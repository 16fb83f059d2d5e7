package application

import (
	"fmt"
	"time"

	"linear-mcp-server/internal/domain"
)

// CapabilityDeps carries what the built-in capabilities need.
type CapabilityDeps struct {
	Retriever domain.TicketRetriever
	Mapper    domain.ResponseMapper
	Logger    *StructuredLogger
	Clock     func() time.Time
}

// RegisterCapabilities registers the ticket tool, the status resource and both prompts.
func RegisterCapabilities(registry *CapabilityRegistry, deps CapabilityDeps) error {
	if deps.Retriever == nil {
		return fmt.Errorf("ticket retriever is required")
	}
	if deps.Mapper == nil {
		deps.Mapper = domain.NewResponseMapper()
	}

	descriptors := []domain.CapabilityDescriptor{
		NewTicketsTool(deps.Retriever, deps.Mapper, deps.Logger).Descriptor(),
		NewStatusResource(deps.Clock).Descriptor(),
		CommitMessagePrompt{}.Descriptor(),
		StartTaskPrompt{}.Descriptor(),
	}

	for _, d := range descriptors {
		if err := registry.Register(d); err != nil {
			return fmt.Errorf("register %s %q: %w", d.Kind, d.Name, err)
		}
	}
	return nil
}
