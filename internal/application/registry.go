package application

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"linear-mcp-server/internal/domain"
)

type capabilityKey struct {
	kind domain.CapabilityKind
	name string
}

// registeredCapability pairs a descriptor with its resolved input schema.
type registeredCapability struct {
	descriptor domain.CapabilityDescriptor
	schema     *jsonschema.Resolved
}

// CapabilityRegistry holds every tool, resource and prompt the server advertises.
// It is filled once at startup and only read afterwards, so it needs no locking.
type CapabilityRegistry struct {
	entries map[capabilityKey]*registeredCapability
	order   []capabilityKey
}

// NewCapabilityRegistry creates an empty registry.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{
		entries: make(map[capabilityKey]*registeredCapability),
	}
}

// Register adds a descriptor. The (kind, name) pair must be new, the handler
// must match the kind and the input schema must resolve.
func (r *CapabilityRegistry) Register(descriptor domain.CapabilityDescriptor) error {
	if descriptor.Name == "" {
		return fmt.Errorf("capability name is required")
	}

	if err := checkHandler(descriptor); err != nil {
		return err
	}

	key := capabilityKey{kind: descriptor.Kind, name: descriptor.Name}
	if _, exists := r.entries[key]; exists {
		return &domain.DuplicateCapabilityError{Kind: descriptor.Kind, Name: descriptor.Name}
	}

	if descriptor.InputSchema == nil {
		descriptor.InputSchema = &jsonschema.Schema{Type: "object"}
	}

	resolved, err := descriptor.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("invalid input schema for %s %s: %w", descriptor.Kind, descriptor.Name, err)
	}

	r.entries[key] = &registeredCapability{descriptor: descriptor, schema: resolved}
	r.order = append(r.order, key)
	return nil
}

// MustRegister is Register for static startup tables; it panics on error.
func (r *CapabilityRegistry) MustRegister(descriptors ...domain.CapabilityDescriptor) {
	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the descriptor registered under kind and name.
func (r *CapabilityRegistry) Resolve(kind domain.CapabilityKind, name string) (*domain.CapabilityDescriptor, error) {
	entry, err := r.lookup(kind, name)
	if err != nil {
		return nil, err
	}
	d := entry.descriptor
	return &d, nil
}

func (r *CapabilityRegistry) lookup(kind domain.CapabilityKind, name string) (*registeredCapability, error) {
	entry, ok := r.entries[capabilityKey{kind: kind, name: name}]
	if !ok {
		return nil, &domain.UnknownCapabilityError{Kind: kind, Name: name}
	}
	return entry, nil
}

// List returns the descriptors of one kind in registration order.
func (r *CapabilityRegistry) List(kind domain.CapabilityKind) []domain.CapabilityDescriptor {
	var descriptors []domain.CapabilityDescriptor
	for _, key := range r.order {
		if key.kind == kind {
			descriptors = append(descriptors, r.entries[key].descriptor)
		}
	}
	return descriptors
}

// Len returns the number of registered capabilities.
func (r *CapabilityRegistry) Len() int {
	return len(r.entries)
}

func checkHandler(d domain.CapabilityDescriptor) error {
	var ok bool
	switch d.Kind {
	case domain.KindTool:
		ok = d.Tool != nil && d.Resource == nil && d.Prompt == nil
	case domain.KindResource:
		ok = d.Resource != nil && d.Tool == nil && d.Prompt == nil
	case domain.KindPrompt:
		ok = d.Prompt != nil && d.Tool == nil && d.Resource == nil
	default:
		return fmt.Errorf("capability %s has unknown kind %d", d.Name, d.Kind)
	}
	if !ok {
		return fmt.Errorf("%s %s must have exactly one %s handler", d.Kind, d.Name, d.Kind)
	}
	return nil
}
