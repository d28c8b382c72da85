package bedrock

import "nutriroutine/tools"

type Prompt struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// NewPrompt starts a conversation with a system prompt and a task. A nil provider
// yields a prompt without tools.
func NewPrompt(system, task string, tp tools.ToolProvider) Prompt {
	p := Prompt{
		Messages: []Message{
			NewTextMessage("system", system),
			NewTextMessage("user", task),
		},
	}
	if tp == nil {
		return p
	}
	for _, tool := range tp.GetTools() {
		p.Tools = append(p.Tools, Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.InputSchema(),
		})
	}
	return p
}

// ToolCallCount returns how many tool_use parts the assistant has sent for name.
func (p *Prompt) ToolCallCount(name string) int {
	n := 0
	for _, msg := range p.Messages {
		if msg.Role != "assistant" {
			continue
		}
		for _, part := range msg.Content {
			if part.Kind == PartToolUse && part.ToolName == name {
				n++
			}
		}
	}
	return n
}
