package application

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"linear-mcp-server/internal/domain"
)

// ToolGetLinearTickets is the name the ticket search tool is advertised under.
const ToolGetLinearTickets = "get-linear-tickets"

// TicketsTool searches Linear for tickets matching a free-text description and
// renders them as a digest. Every failure is returned as text.
type TicketsTool struct {
	retriever domain.TicketRetriever
	mapper    domain.ResponseMapper
	logger    *StructuredLogger
}

// NewTicketsTool creates the ticket search tool.
func NewTicketsTool(retriever domain.TicketRetriever, mapper domain.ResponseMapper, logger *StructuredLogger) *TicketsTool {
	if logger == nil {
		logger = NewStructuredLogger(nil)
	}
	return &TicketsTool{
		retriever: retriever,
		mapper:    mapper,
		logger:    logger,
	}
}

// Descriptor declares the tool for the registry.
func (h *TicketsTool) Descriptor() domain.CapabilityDescriptor {
	return domain.CapabilityDescriptor{
		Name:        ToolGetLinearTickets,
		Kind:        domain.KindTool,
		Description: "Search Linear for up to 5 tickets whose title or description contains the given text",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"description": {
					Type:        "string",
					Description: "Free-text description of the work; matched case-insensitively against ticket titles and descriptions",
					MinLength:   intPtr(1),
				},
			},
			Required: []string{"description"},
		},
		Tool: h,
	}
}

// CallTool implements domain.ToolHandler.
func (h *TicketsTool) CallTool(ctx context.Context, args domain.Arguments) *domain.ToolResponse {
	description, err := requireString(args, "description")
	if err != nil {
		return domain.ErrorTextResponse("Error: " + err.Error())
	}

	if strings.TrimSpace(description) == "" {
		return domain.ErrorTextResponse("Error: description must not be empty")
	}

	tickets, err := h.retriever.Retrieve(ctx, description)
	if err != nil {
		h.logger.LogError("ticket retrieval failed", err, map[string]any{
			"tool":        ToolGetLinearTickets,
			"description": description,
		})
	} else {
		h.logger.LogInfo("ticket retrieval completed", map[string]any{
			"tool":    ToolGetLinearTickets,
			"matches": len(tickets),
		})
	}

	return h.mapper.MapTickets(description, tickets, err)
}

func intPtr(n int) *int {
	return &n
}
