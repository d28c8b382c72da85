// Package ollama drafts routines and answers nutrition questions with a local model
// served by Ollama.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nutriroutine"
	"nutriroutine/coordinator"
	"nutriroutine/tools"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxIterations = 4
	maxResultsPerTool    = 3
)

type llmClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

// Generator implements nutriroutine.TextGenerator.
type Generator struct {
	llm           llmClient
	toolProvider  tools.ToolProvider
	maxIterations int
	now           func() time.Time
	tracer        trace.Tracer
}

// NewGenerator returns a generator. Small local models often handle tools poorly, so
// a nil provider is common here; the catalog then goes inline with its units.
func NewGenerator(llm llmClient, tp tools.ToolProvider, maxIterations int) *Generator {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &Generator{
		llm:           llm,
		toolProvider:  tp,
		maxIterations: maxIterations,
		now:           time.Now,
		tracer:        otel.Tracer(nutriroutine.TracerNameOllama),
	}
}

func (g *Generator) GenerateRoutineText(ctx context.Context, req nutriroutine.RoutineRequest) (string, error) {
	ctx, span := g.tracer.Start(ctx, "Generator.GenerateRoutineText")
	defer span.End()

	task, err := coordinator.RoutineTask(ctx, req, g.now(), g.toolProvider == nil)
	if err != nil {
		return "", fmt.Errorf("build routine task: %w", err)
	}
	system := coordinator.RoutineSystemPrompt
	if g.toolProvider != nil {
		system += coordinator.ToolUsePrompt
	}

	text, err := g.run(ctx, NewPrompt(system, task, g.toolProvider))
	if err != nil {
		span.SetStatus(codes.Error, "routine generation failed")
		span.RecordError(err)
	}
	return text, err
}

func (g *Generator) GenerateFreeformAnswer(ctx context.Context, message string, profile nutriroutine.UserProfile, entries []nutriroutine.Entry) (string, error) {
	ctx, span := g.tracer.Start(ctx, "Generator.GenerateFreeformAnswer")
	defer span.End()

	task := coordinator.FreeformTask(message, profile, entries, g.now())
	text, err := g.run(ctx, NewPrompt(coordinator.FreeformSystemPrompt, task, nil))
	if err != nil {
		span.SetStatus(codes.Error, "freeform answer failed")
		span.RecordError(err)
	}
	return text, err
}

func (g *Generator) run(ctx context.Context, prompt Prompt) (string, error) {
	span := trace.SpanFromContext(ctx)

	for iter := 0; iter < g.maxIterations; iter++ {
		slog.Info("GENERATOR: Sending prompt to model", "iteration", iter+1, "messages_count", len(prompt.Messages))

		res, err := g.llm.Invoke(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("invoke failed: %w: %w", nutriroutine.ErrGenerationUnavailable, err)
		}
		span.AddEvent("model response", trace.WithAttributes(
			attribute.Int("iteration", iter+1),
			attribute.Int("tool_calls", len(res.ToolCalls)),
			attribute.Int("prompt_tokens", res.Usage.PromptTokens),
			attribute.Int("output_tokens", res.Usage.OutputTokens),
		))

		if len(res.ToolCalls) == 0 {
			text := strings.TrimSpace(res.Content)
			if text == "" {
				return "", fmt.Errorf("empty response: %w", nutriroutine.ErrGenerationUnavailable)
			}
			return text, nil
		}

		assistant := Message{Role: roleAssistant, Content: res.Content}
		var results []Message
		for _, call := range res.ToolCalls {
			var wc wireToolCall
			wc.Function.Name = call.Name
			wc.Function.Arguments = call.Args
			assistant.ToolCalls = append(assistant.ToolCalls, wc)

			if prompt.ToolResultCount(call.Name) >= maxResultsPerTool {
				slog.Warn("GENERATOR: Excessive tool repetition detected", "tool", call.Name, "iteration", iter+1)
				results = append(results, toolMessage(call.Name, map[string]any{
					"error": "excessive_tool_repetition",
					"hint":  "Ya tienes estos datos. Responde ahora con la rutina en el formato indicado.",
				}))
				continue
			}
			results = append(results, toolMessage(call.Name, g.runTool(ctx, call)))
		}
		prompt.Messages = append(prompt.Messages, assistant)
		prompt.Messages = append(prompt.Messages, results...)
	}

	return "", fmt.Errorf("no final answer after %d iterations: %w", g.maxIterations, nutriroutine.ErrGenerationUnavailable)
}

func (g *Generator) runTool(ctx context.Context, call ToolCall) map[string]any {
	slog.Info("GENERATOR: Handling tool call", "name", call.Name, "args", call.Args)
	if g.toolProvider == nil {
		return map[string]any{"error": "no tools are available"}
	}
	tool, err := g.toolProvider.GetTool(call.Name)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("tool %q not found: %v", call.Name, err)}
	}
	out, err := tool.Run(ctx, call.Args)
	if err != nil {
		slog.Warn("GENERATOR: Tool failed", "name", call.Name, "error", err)
		return map[string]any{"error": fmt.Sprintf("tool %q failed: %v", call.Name, err)}
	}
	return out
}

func toolMessage(name string, data map[string]any) Message {
	b, err := json.Marshal(data)
	if err != nil {
		b = []byte(`{"error":"unencodable tool result"}`)
	}
	return Message{Role: roleTool, Name: name, Content: string(b)}
}
