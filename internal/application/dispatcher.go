package application

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linear-mcp-server/internal/domain"
)

// Dispatcher resolves invocations against the registry, validates their
// arguments, runs the handler and wraps the result.
//
// Tool failures never leave the Dispatcher as errors; resource and prompt
// handler failures do.
type Dispatcher struct {
	registry *CapabilityRegistry
	logger   *StructuredLogger
	tracer   trace.Tracer
}

// NewDispatcher creates a Dispatcher over a populated registry.
func NewDispatcher(registry *CapabilityRegistry, logger *StructuredLogger) *Dispatcher {
	if logger == nil {
		logger = NewStructuredLogger(nil)
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer("linear-mcp-server/internal/application"),
	}
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *CapabilityRegistry {
	return d.registry
}

// Dispatch runs any invocation and returns its kind-specific envelope:
// *domain.ToolResponse, *domain.ReadResourceResult or *domain.GetPromptResult.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation) (any, error) {
	switch inv.Kind {
	case domain.KindTool:
		return d.CallTool(ctx, inv.Name, inv.Arguments)
	case domain.KindResource:
		return d.ReadResource(ctx, inv.Name)
	case domain.KindPrompt:
		return d.GetPrompt(ctx, inv.Name, inv.Arguments)
	default:
		return nil, &domain.UnknownCapabilityError{Kind: inv.Kind, Name: inv.Name}
	}
}

// CallTool invokes a tool. Only resolution and validation failures are returned
// as errors; everything the handler does ends up in the envelope.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args domain.Arguments) (resp *domain.ToolResponse, err error) {
	ctx, span := d.startSpan(ctx, domain.KindTool, name)
	defer func() { endSpan(span, err) }()

	entry, err := d.prepare(domain.KindTool, name, args)
	if err != nil {
		return nil, err
	}

	resp = d.invokeTool(ctx, entry.descriptor, args)
	span.SetAttributes(attribute.Bool("mcp.tool.is_error", resp.IsError))
	return resp, nil
}

func (d *Dispatcher) invokeTool(ctx context.Context, descriptor domain.CapabilityDescriptor, args domain.Arguments) (resp *domain.ToolResponse) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.LogError("tool handler panicked", fmt.Errorf("%v", r), map[string]any{
				"tool":  descriptor.Name,
				"stack": string(debug.Stack()),
			})
			resp = domain.ErrorTextResponse(fmt.Sprintf("Error: tool %s failed unexpectedly", descriptor.Name))
		}
	}()

	resp = descriptor.Tool.CallTool(ctx, args)
	if resp == nil {
		resp = domain.ErrorTextResponse(fmt.Sprintf("Error: tool %s returned no content", descriptor.Name))
	}
	return resp
}

// ReadResource reads a resource by URI.
func (d *Dispatcher) ReadResource(ctx context.Context, uri string) (result *domain.ReadResourceResult, err error) {
	ctx, span := d.startSpan(ctx, domain.KindResource, uri)
	defer func() { endSpan(span, err) }()

	entry, err := d.prepare(domain.KindResource, uri, nil)
	if err != nil {
		return nil, err
	}

	contents, err := entry.descriptor.Resource.ReadResource(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("read resource %s: %w", uri, err)
	}
	if contents == nil {
		return nil, fmt.Errorf("read resource %s: handler returned no contents", uri)
	}

	if contents.URI == "" {
		contents.URI = uri
	}
	if contents.MimeType == "" {
		contents.MimeType = entry.descriptor.MimeType
	}

	return &domain.ReadResourceResult{Contents: []domain.ResourceContents{*contents}}, nil
}

// GetPrompt renders a prompt template.
func (d *Dispatcher) GetPrompt(ctx context.Context, name string, args domain.Arguments) (result *domain.GetPromptResult, err error) {
	ctx, span := d.startSpan(ctx, domain.KindPrompt, name)
	defer func() { endSpan(span, err) }()

	entry, err := d.prepare(domain.KindPrompt, name, args)
	if err != nil {
		return nil, err
	}

	result, err = entry.descriptor.Prompt.GetPrompt(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", name, err)
	}

	return result, nil
}

func (d *Dispatcher) prepare(kind domain.CapabilityKind, name string, args domain.Arguments) (*registeredCapability, error) {
	entry, err := d.registry.lookup(kind, name)
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = domain.Arguments{}
	}

	if err := validateArguments(entry, args); err != nil {
		return nil, err
	}

	return entry, nil
}

func (d *Dispatcher) startSpan(ctx context.Context, kind domain.CapabilityKind, name string) (context.Context, trace.Span) {
	return d.tracer.Start(ctx, "mcp."+kind.String(),
		trace.WithAttributes(
			attribute.String("mcp.capability.kind", kind.String()),
			attribute.String("mcp.capability.name", name),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
