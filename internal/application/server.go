package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"linear-mcp-server/internal/domain"
)

// ServerInfo identifies the server during initialize.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server is the MCP protocol front end. It reads requests from a transport,
// answers the protocol methods itself and hands capability calls to the Dispatcher.
type Server struct {
	transport  domain.Transport
	dispatcher *Dispatcher
	mapper     domain.ResponseMapper
	info       ServerInfo
	logger     *StructuredLogger

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a new MCP server instance.
func NewServer(
	transport domain.Transport,
	dispatcher *Dispatcher,
	mapper domain.ResponseMapper,
	info ServerInfo,
	logger *StructuredLogger,
) *Server {
	if logger == nil {
		logger = NewStructuredLogger(nil)
	}
	return &Server{
		transport:  transport,
		dispatcher: dispatcher,
		mapper:     mapper,
		info:       info,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start attaches the transport and begins processing requests in the background.
// A transport that cannot be attached is a fatal startup error.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.logger.LogError("failed to start transport", err, nil)
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.LogInfo("server started", map[string]any{
		"tools":     len(s.dispatcher.Registry().List(domain.KindTool)),
		"resources": len(s.dispatcher.Registry().List(domain.KindResource)),
		"prompts":   len(s.dispatcher.Registry().List(domain.KindPrompt)),
	})

	go s.processRequests(ctx)

	return nil
}

// Done is closed once the server stops processing requests, either because the
// context ended or because the transport ran out of input.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// processRequests handles one request at a time until the transport closes.
func (s *Server) processRequests(ctx context.Context) {
	defer s.doneOnce.Do(func() { close(s.done) })

	reqChan := s.transport.Receive()

	for {
		select {
		case <-ctx.Done():
			s.logger.LogInfo("server shutting down", nil)
			return
		case req, ok := <-reqChan:
			if !ok {
				s.logger.LogInfo("transport closed", nil)
				return
			}
			s.HandleRequest(ctx, req)
		}
	}
}

// HandleRequest answers a single request. Notifications get no reply.
func (s *Server) HandleRequest(ctx context.Context, req *domain.Request) {
	s.logger.LogDebug("received request", map[string]any{
		"method":     req.Method,
		"request_id": req.ID,
	})

	result, err := s.route(ctx, req)

	if req.IsNotification() {
		if err != nil {
			s.logger.LogError("notification failed", err, map[string]any{"method": req.Method})
		}
		return
	}

	response := &domain.Response{
		JSONRPC:   domain.JSONRPCVersion,
		ID:        req.ID,
		SessionID: req.SessionID,
	}

	if err != nil {
		s.logger.LogError("request failed", err, map[string]any{
			"method":     req.Method,
			"request_id": req.ID,
		})
		response.Error = s.mapper.MapError(err)
	} else {
		response.Result = result
	}

	if err := s.transport.Send(response); err != nil {
		s.logger.LogError("failed to send response", err, map[string]any{
			"request_id": req.ID,
		})
	}
}

func (s *Server) route(ctx context.Context, req *domain.Request) (any, error) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(), nil
	case "ping":
		return map[string]any{}, nil
	case "notifications/initialized", "notifications/cancelled":
		return nil, nil
	case "tools/list":
		return s.handleToolsList(), nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "resources/list":
		return s.handleResourcesList(), nil
	case "resources/read":
		return s.handleResourcesRead(ctx, req.Params)
	case "prompts/list":
		return s.handlePromptsList(), nil
	case "prompts/get":
		return s.handlePromptsGet(ctx, req.Params)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("unknown method: %s", req.Method),
		}
	}
}

func (s *Server) handleInitialize() map[string]any {
	return map[string]any{
		"protocolVersion": domain.ProtocolVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": s.info,
	}
}

func (s *Server) handleToolsList() map[string]any {
	tools := []domain.ToolDefinition{}
	for _, d := range s.dispatcher.Registry().List(domain.KindTool) {
		tools = append(tools, domain.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		})
	}
	return map[string]any{"tools": tools}
}

func (s *Server) handleToolsCall(ctx context.Context, raw json.RawMessage) (*domain.ToolResponse, error) {
	var params domain.CallToolParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, invalidParams("tool name is required")
	}
	return s.dispatcher.CallTool(ctx, params.Name, params.Arguments)
}

func (s *Server) handleResourcesList() map[string]any {
	resources := []domain.ResourceDefinition{}
	for _, d := range s.dispatcher.Registry().List(domain.KindResource) {
		resources = append(resources, domain.ResourceDefinition{
			URI:         d.Name,
			Name:        d.Title,
			Description: d.Description,
			MimeType:    d.MimeType,
		})
	}
	return map[string]any{"resources": resources}
}

func (s *Server) handleResourcesRead(ctx context.Context, raw json.RawMessage) (*domain.ReadResourceResult, error) {
	var params domain.ReadResourceParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, invalidParams("resource uri is required")
	}
	return s.dispatcher.ReadResource(ctx, params.URI)
}

func (s *Server) handlePromptsList() map[string]any {
	prompts := []domain.PromptDefinition{}
	for _, d := range s.dispatcher.Registry().List(domain.KindPrompt) {
		prompts = append(prompts, promptDefinition(d))
	}
	return map[string]any{"prompts": prompts}
}

func (s *Server) handlePromptsGet(ctx context.Context, raw json.RawMessage) (*domain.GetPromptResult, error) {
	var params domain.GetPromptParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, invalidParams("prompt name is required")
	}
	return s.dispatcher.GetPrompt(ctx, params.Name, stringArguments(params.Arguments))
}

// promptDefinition derives the advertised argument list from the input schema.
func promptDefinition(d domain.CapabilityDescriptor) domain.PromptDefinition {
	def := domain.PromptDefinition{Name: d.Name, Description: d.Description}
	if d.InputSchema == nil {
		return def
	}

	required := map[string]bool{}
	for _, name := range d.InputSchema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(d.InputSchema.Properties))
	for name := range d.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := d.InputSchema.Properties[name]
		if prop == nil {
			continue
		}
		def.Arguments = append(def.Arguments, domain.PromptArgument{
			Name:        name,
			Description: prop.Description,
			Required:    required[name],
		})
	}

	return def
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return invalidParams("params are required")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return invalidParams(fmt.Sprintf("failed to decode params: %v", err))
	}
	return nil
}

func invalidParams(detail string) *domain.Error {
	return &domain.Error{
		Code:    domain.InvalidParams,
		Message: "Invalid params",
		Data:    detail,
	}
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.LogInfo("closing server", nil)
	return s.transport.Close()
}
