package ollama

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
	roleTool      = "tool"
)

// Message is one chat message. Tool output goes back with role "tool" and the tool's
// name, since Ollama has no tool call ids.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Name      string         `json:"name,omitempty"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

// Prompt is the running conversation plus the tools on offer.
type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// ToolResultCount returns how many results for the named tool the conversation holds.
func (p *Prompt) ToolResultCount(name string) int {
	n := 0
	for _, msg := range p.Messages {
		if msg.Role == roleTool && msg.Name == name {
			n++
		}
	}
	return n
}

// Tool uses the OpenAI-style function envelope the chat API accepts.
type Tool struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Usage is the token accounting of one chat call.
type Usage struct {
	PromptTokens int
	OutputTokens int
}

type Response struct {
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"-"`
}

type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}
