package ollama

import (
	"context"
	"encoding/json"
	"testing"

	"nutriroutine"
	"nutriroutine/catalog/catalogtest"
	"nutriroutine/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLLM struct {
	responses []Response
	err       error
	prompts   []Prompt
}

func (s *scriptedLLM) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	s.prompts = append(s.prompts, Prompt{Messages: append([]Message(nil), prompt.Messages...), Tools: prompt.Tools})
	if s.err != nil {
		return Response{}, s.err
	}
	if len(s.responses) == 0 {
		return Response{}, nil
	}
	res := s.responses[0]
	s.responses = s.responses[1:]
	return res, nil
}

func routineRequest() nutriroutine.RoutineRequest {
	return nutriroutine.RoutineRequest{
		Profile: catalogtest.Profile(),
		Foods:   catalogtest.Foods(),
		Units:   catalogtest.NewMemory().ListValidUnits,
	}
}

func TestGenerator_RoutineWithTools(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{
		{ToolCalls: []ToolCall{{Name: "food_search", Args: map[string]any{"category": "Frutas", "limit": 1.0}}}},
		{Content: "Snack:\n- Banano – 1 pieza"},
	}}
	g := NewGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 3)

	text, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)
	assert.Equal(t, "Snack:\n- Banano – 1 pieza", text)

	require.Len(t, llm.prompts, 2)
	require.Len(t, llm.prompts[0].Tools, 2)
	assert.Equal(t, "function", llm.prompts[0].Tools[0].Type)
	assert.Equal(t, []string{"food"}, llm.prompts[0].Tools[1].Function.Parameters["required"])

	msgs := llm.prompts[1].Messages
	require.Len(t, msgs, 4)
	assert.Equal(t, "food_search", msgs[2].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", msgs[3].Role)
	assert.Equal(t, "food_search", msgs[3].Name)

	var result struct {
		Foods []struct {
			Name string `json:"name"`
		} `json:"foods"`
	}
	require.NoError(t, json.Unmarshal([]byte(msgs[3].Content), &result))
	require.Len(t, result.Foods, 1)
	assert.Equal(t, "Banano", result.Foods[0].Name)
}

func TestGenerator_RoutineInline(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{{Content: "Desayuno:\n- Avena – 60.0 gramos"}}}
	g := NewGenerator(llm, nil, 0)

	_, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)
	assert.Empty(t, llm.prompts[0].Tools)
	assert.Contains(t, llm.prompts[0].Messages[1].Content, `"units":["gramos","taza","porción"]`)
}

func TestGenerator_Failures(t *testing.T) {
	loop := Response{ToolCalls: []ToolCall{{Name: "food_units", Args: map[string]any{"food": "Avena"}}}}

	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{name: "invoke error", llm: &scriptedLLM{err: assert.AnError}},
		{name: "empty answer", llm: &scriptedLLM{responses: []Response{{Content: "\n"}}}},
		{name: "tool loop never ends", llm: &scriptedLLM{responses: []Response{loop, loop}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(tt.llm, tools.NewRegistry(catalogtest.NewMemory()), 2)
			_, err := g.GenerateFreeformAnswer(context.Background(), "¿Cuánta agua tomo?", catalogtest.Profile(), nil)
			assert.ErrorIs(t, err, nutriroutine.ErrGenerationUnavailable)
		})
	}
}

func TestGenerator_RepeatedToolGetsHint(t *testing.T) {
	loop := Response{ToolCalls: []ToolCall{{Name: "food_units", Args: map[string]any{"food": "Avena"}}}}
	llm := &scriptedLLM{responses: []Response{loop, loop, loop, loop, {Content: "Desayuno:\n- Avena – 60.0 gramos"}}}
	g := NewGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 5)

	_, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)

	last := llm.prompts[len(llm.prompts)-1]
	assert.Contains(t, last.Messages[len(last.Messages)-1].Content, "excessive_tool_repetition")
}
