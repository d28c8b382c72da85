package bedrock

import (
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutriroutine/tools"
)

// PartKind tags the content of a MessagePart.
type PartKind string

const (
	PartText       PartKind = "text"
	PartToolUse    PartKind = "tool_use"
	PartToolResult PartKind = "tool_result"
)

// MessagePart is one content block of a conversation turn. Data holds the tool input
// for PartToolUse and the tool output for PartToolResult.
type MessagePart struct {
	Kind      PartKind       `json:"type"`
	Text      string         `json:"text,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

type MessageParts []MessagePart

// Join concatenates the text parts.
func (mp MessageParts) Join() string {
	var sb strings.Builder
	for _, part := range mp {
		if part.Kind == PartText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

type Message struct {
	Role    string       `json:"role"`
	Content MessageParts `json:"content"`
}

func NewTextMessage(role, text string) Message {
	return Message{Role: role, Content: MessageParts{{Kind: PartText, Text: text}}}
}

// ToolResult is the outcome of one tool call, keyed by the model's tool use id.
type ToolResult struct {
	ToolUseID string
	ToolName  string
	Data      map[string]any
}

// NewToolResultMessage answers a tool_use turn. Converse expects every result of the
// turn in a single user message.
func NewToolResultMessage(results []ToolResult) Message {
	parts := make(MessageParts, 0, len(results))
	for _, r := range results {
		parts = append(parts, MessagePart{Kind: PartToolResult, ToolUseID: r.ToolUseID, ToolName: r.ToolName, Data: r.Data})
	}
	return Message{Role: "user", Content: parts}
}

// Usage is the token accounting Converse reports for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is the model's reply: final text, tool calls, or both.
type Response struct {
	Content   string       `json:"content,omitempty"`
	ToolCalls []tools.Call `json:"tool_calls,omitempty"`
	Usage     Usage        `json:"-"`
}

// Tool is a catalog tool as advertised to the model.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}
