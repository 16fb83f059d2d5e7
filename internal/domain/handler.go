package domain

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// CapabilityKind distinguishes the three MCP capability families.
type CapabilityKind int

const (
	KindTool CapabilityKind = iota
	KindResource
	KindPrompt
)

// String returns the lowercase name of the kind.
func (k CapabilityKind) String() string {
	switch k {
	case KindTool:
		return "tool"
	case KindResource:
		return "resource"
	case KindPrompt:
		return "prompt"
	default:
		return "unknown"
	}
}

// Arguments are the named values of an invocation, already decoded from JSON.
type Arguments map[string]any

// Invocation is a single call against a registered capability.
type Invocation struct {
	Kind      CapabilityKind
	Name      string
	Arguments Arguments
}

// ToolHandler executes a tool. It has no error return: every failure must be
// rendered into the returned envelope.
type ToolHandler interface {
	CallTool(ctx context.Context, args Arguments) *ToolResponse
}

// ToolHandlerFunc adapts a function to ToolHandler.
type ToolHandlerFunc func(ctx context.Context, args Arguments) *ToolResponse

// CallTool calls f(ctx, args).
func (f ToolHandlerFunc) CallTool(ctx context.Context, args Arguments) *ToolResponse {
	return f(ctx, args)
}

// ResourceHandler produces the contents of a resource on demand.
type ResourceHandler interface {
	ReadResource(ctx context.Context, uri string) (*ResourceContents, error)
}

// ResourceHandlerFunc adapts a function to ResourceHandler.
type ResourceHandlerFunc func(ctx context.Context, uri string) (*ResourceContents, error)

// ReadResource calls f(ctx, uri).
func (f ResourceHandlerFunc) ReadResource(ctx context.Context, uri string) (*ResourceContents, error) {
	return f(ctx, uri)
}

// PromptHandler renders a prompt template.
type PromptHandler interface {
	GetPrompt(ctx context.Context, args Arguments) (*GetPromptResult, error)
}

// PromptHandlerFunc adapts a function to PromptHandler.
type PromptHandlerFunc func(ctx context.Context, args Arguments) (*GetPromptResult, error)

// GetPrompt calls f(ctx, args).
func (f PromptHandlerFunc) GetPrompt(ctx context.Context, args Arguments) (*GetPromptResult, error) {
	return f(ctx, args)
}

// CapabilityDescriptor declares one tool, resource or prompt.
// Exactly one of Tool, Resource and Prompt must be set, matching Kind.
// For resources, Name is the URI.
type CapabilityDescriptor struct {
	Name        string
	Kind        CapabilityKind
	Title       string
	Description string
	MimeType    string
	InputSchema *jsonschema.Schema

	Tool     ToolHandler
	Resource ResourceHandler
	Prompt   PromptHandler
}
