package ollama

import "nutriroutine/tools"

// NewPrompt builds a native tool-calling prompt. A nil provider yields no tools.
func NewPrompt(system, task string, tp tools.ToolProvider) Prompt {
	p := Prompt{
		Messages: []Message{
			{Role: roleSystem, Content: system},
			{Role: roleUser, Content: task},
		},
	}
	if tp == nil {
		return p
	}

	for _, tool := range tp.GetTools() {
		schema := tool.InputSchema()
		parameters := map[string]any{
			"type":       "object",
			"properties": schema.Properties,
		}
		if len(schema.Required) > 0 {
			parameters["required"] = schema.Required
		}

		p.Tools = append(p.Tools, Tool{
			Type: "function",
			Function: FunctionSpec{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  parameters,
			},
		})
	}
	return p
}
