package bedrock

import (
	"context"
	"strings"
	"testing"

	"nutriroutine"
	"nutriroutine/catalog/catalogtest"
	"nutriroutine/coordinator"
	"nutriroutine/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// scriptedLLM replays responses in order and records every prompt it receives.
type scriptedLLM struct {
	responses []Response
	err       error
	prompts   []Prompt
}

func (s *scriptedLLM) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	s.prompts = append(s.prompts, Prompt{
		Messages: append([]Message(nil), prompt.Messages...),
		Tools:    prompt.Tools,
	})
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

const routineText = `Desayuno:
- Avena – 60.0 gramos
- Huevo – 2 unidad`

func routineRequest() nutriroutine.RoutineRequest {
	mem := catalogtest.NewMemory()
	return nutriroutine.RoutineRequest{
		Profile: catalogtest.Profile(),
		Foods:   catalogtest.Foods(),
		Units:   mem.ListValidUnits,
	}
}

func newGenerator(llm llmClient, tp tools.ToolProvider, maxIterations int) *Generator {
	return NewGenerator(llm, tp, Options{MaxIterations: maxIterations, Now: catalogtest.Now})
}

func TestGenerateRoutineText_ToolLoop(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{
		{ToolCalls: []tools.Call{{Name: "food_units", Input: map[string]any{"food": "Huevo"}, ToolUseID: "t1"}}},
		{Content: "\n" + routineText + "\n"},
	}}
	g := newGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 4)

	text, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)
	assert.Equal(t, routineText, text)
	require.Len(t, llm.prompts, 2)

	first := llm.prompts[0]
	require.Len(t, first.Tools, 2)
	assert.Contains(t, first.Messages[0].Content.Join(), strings.TrimSpace(coordinator.ToolUsePrompt))
	assert.NotContains(t, first.Messages[1].Content.Join(), `"units"`)

	second := llm.prompts[1]
	require.Len(t, second.Messages, 4)
	assert.Equal(t, "assistant", second.Messages[2].Role)
	assert.Equal(t, PartToolUse, second.Messages[2].Content[0].Kind)

	result := second.Messages[3].Content[0]
	assert.Equal(t, PartToolResult, result.Kind)
	assert.Equal(t, "t1", result.ToolUseID)
	assert.Equal(t, true, result.Data["found"])
	assert.Equal(t, []any{"unidad", "pieza"}, result.Data["units"])
}

func TestGenerateRoutineText_InlineUnitsWithoutTools(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{{Content: routineText}}}
	g := newGenerator(llm, nil, 4)

	req := routineRequest()
	req.Previous = []string{"Desayuno:\n- Banano – 1 pieza"}
	_, err := g.GenerateRoutineText(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Empty(t, prompt.Tools)
	assert.NotContains(t, prompt.Messages[0].Content.Join(), "food_search")

	task := prompt.Messages[1].Content.Join()
	assert.Contains(t, task, `"units":["unidad","pieza"]`)
	assert.Contains(t, task, "- Edad: 30 años")
	assert.Contains(t, task, "RUTINAS ANTERIORES")
	assert.Contains(t, task, "Banano – 1 pieza")
}

func TestGenerateRoutineText_Failures(t *testing.T) {
	tests := []struct {
		name string
		llm  *scriptedLLM
	}{
		{name: "invoke error", llm: &scriptedLLM{err: assert.AnError}},
		{name: "empty response", llm: &scriptedLLM{responses: []Response{{Content: "  "}}}},
		{
			name: "never finishes",
			llm: &scriptedLLM{responses: []Response{
				{ToolCalls: []tools.Call{{Name: "food_search", Input: map[string]any{"query": "a"}, ToolUseID: "1"}}},
				{ToolCalls: []tools.Call{{Name: "food_units", Input: map[string]any{"food": "Avena"}, ToolUseID: "2"}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGenerator(tt.llm, tools.NewRegistry(catalogtest.NewMemory()), 2)
			_, err := g.GenerateRoutineText(context.Background(), routineRequest())
			assert.ErrorIs(t, err, nutriroutine.ErrGenerationUnavailable)
		})
	}

	g := newGenerator(&scriptedLLM{err: assert.AnError}, nil, 2)
	_, err := g.GenerateRoutineText(context.Background(), routineRequest())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerateRoutineText_UnknownToolReportedToModel(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{
		{ToolCalls: []tools.Call{{Name: "meal_plan_get", Input: map[string]any{}, ToolUseID: "x"}}},
		{Content: routineText},
	}}
	g := newGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 4)

	_, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)

	result := llm.prompts[1].Messages[3].Content[0]
	assert.Contains(t, result.Data["error"], `tool "meal_plan_get" not found`)
}

func TestGenerateRoutineText_StopsToolRepetition(t *testing.T) {
	search := Response{ToolCalls: []tools.Call{{Name: "food_search", Input: map[string]any{"query": "avena"}, ToolUseID: "s"}}}
	llm := &scriptedLLM{responses: []Response{search, search, search, search, {Content: routineText}}}
	g := newGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 5)

	text, err := g.GenerateRoutineText(context.Background(), routineRequest())
	require.NoError(t, err)
	assert.Equal(t, routineText, text)

	last := llm.prompts[len(llm.prompts)-1]
	hint := last.Messages[len(last.Messages)-1]
	assert.Equal(t, "user", hint.Role)
	assert.Contains(t, hint.Content.Join(), "excessive_tool_repetition")
	assert.Equal(t, 3, last.ToolCallCount("food_search"))
}

func TestGenerateFreeformAnswer(t *testing.T) {
	llm := &scriptedLLM{responses: []Response{{Content: "Come más verduras."}}}
	g := newGenerator(llm, tools.NewRegistry(catalogtest.NewMemory()), 4)

	entries := []nutriroutine.Entry{
		{FoodName: "Avena", Quantity: "60.0", Unit: "gramos", Slot: nutriroutine.SlotBreakfast, ConsumedAt: catalogtest.Now()},
	}
	answer, err := g.GenerateFreeformAnswer(context.Background(), "¿Qué ceno hoy?", catalogtest.Profile(), entries)
	require.NoError(t, err)
	assert.Equal(t, "Come más verduras.", answer)

	prompt := llm.prompts[0]
	assert.Empty(t, prompt.Tools)
	assert.Equal(t, coordinator.FreeformSystemPrompt, prompt.Messages[0].Content.Join())
	task := prompt.Messages[1].Content.Join()
	assert.Contains(t, task, "¿Qué ceno hoy?")
	assert.Contains(t, task, "- Desayuno: 60.0 gramos Avena (2025-10-05)")
}

func TestGenerator_RecordsTokenUsage(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	llm := &scriptedLLM{responses: []Response{
		{Content: "Come más verduras.", Usage: Usage{InputTokens: 120, OutputTokens: 15}},
	}}
	g := NewGenerator(llm, nil, Options{Meter: provider.Meter("test"), Now: catalogtest.Now})

	_, err := g.GenerateFreeformAnswer(context.Background(), "¿qué ceno?", catalogtest.Profile(), nil)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "llm_tokens_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				dir, _ := dp.Attributes.Value(attribute.Key("direction"))
				got[dir.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"input": 120, "output": 15}, got)
}
