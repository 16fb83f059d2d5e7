package domain

import "github.com/google/jsonschema-go/jsonschema"

// ProtocolVersion is the MCP revision announced during initialize.
const ProtocolVersion = "2024-11-05"

// ContentTypeText is the only content kind this server produces.
const ContentTypeText = "text"

// ToolDefinition describes a tool in a tools/list reply.
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// CallToolParams is the params object of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResponse is the envelope returned by every tool.
// Failures are reported as text with IsError set, never as protocol errors.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of content in a response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResponse wraps text in a single-block tool envelope.
func TextResponse(text string) *ToolResponse {
	return &ToolResponse{
		Content: []ContentBlock{{Type: ContentTypeText, Text: text}},
	}
}

// ErrorTextResponse wraps text in a single-block tool envelope flagged as an error.
func ErrorTextResponse(text string) *ToolResponse {
	resp := TextResponse(text)
	resp.IsError = true
	return resp
}

// ResourceDefinition describes a resource in a resources/list reply.
type ResourceDefinition struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ReadResourceParams is the params object of a resources/read request.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one entry of a resources/read reply.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

// ReadResourceResult is the result of a resources/read request.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// PromptArgument describes one argument of a prompt in a prompts/list reply.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// PromptDefinition describes a prompt in a prompts/list reply.
type PromptDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// GetPromptParams is the params object of a prompts/get request.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is a single message produced by a prompt template.
type PromptMessage struct {
	Role    string       `json:"role"`
	Content ContentBlock `json:"content"`
}

// GetPromptResult is the result of a prompts/get request.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// UserTextMessage builds a prompt message from the user role.
func UserTextMessage(text string) PromptMessage {
	return PromptMessage{
		Role:    "user",
		Content: ContentBlock{Type: ContentTypeText, Text: text},
	}
}
