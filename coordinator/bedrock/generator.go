// Package bedrock drafts routines and answers nutrition questions with Bedrock
// Converse, letting the model query the food catalog through tools.
package bedrock

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
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxIterations = 4

	// maxCallsPerTool stops a model that keeps asking for the same data.
	maxCallsPerTool = 3
)

type llmClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

type Options struct {
	MaxIterations int
	Tracer        trace.Tracer
	Meter         metric.Meter
	Now           func() time.Time
}

// Generator implements nutriroutine.TextGenerator.
type Generator struct {
	llm           llmClient
	toolProvider  tools.ToolProvider
	maxIterations int
	now           func() time.Time
	tracer        trace.Tracer

	invocations     metric.Int64Counter
	failures        metric.Int64Counter
	toolCalls       metric.Int64Counter
	toolCallsFailed metric.Int64Counter
	tokens          metric.Int64Counter
	llmLatency      metric.Float64Histogram
}

// NewGenerator returns a generator. A nil tool provider sends the full catalog with
// units inline instead of offering tools.
func NewGenerator(llm llmClient, tp tools.ToolProvider, opts Options) *Generator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(nutriroutine.TracerNameBedrock)
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter(nutriroutine.MeterNameChat)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	g := &Generator{
		llm:           llm,
		toolProvider:  tp,
		maxIterations: opts.MaxIterations,
		now:           opts.Now,
		tracer:        opts.Tracer,
	}
	g.invocations, _ = opts.Meter.Int64Counter("llm_invocations_total",
		metric.WithDescription("Total number of model invocations"))
	g.failures, _ = opts.Meter.Int64Counter("llm_invocation_failures_total",
		metric.WithDescription("Total number of failed model invocations"))
	g.toolCalls, _ = opts.Meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	g.toolCallsFailed, _ = opts.Meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	g.tokens, _ = opts.Meter.Int64Counter("llm_tokens_total",
		metric.WithDescription("Total number of model tokens per direction"))
	g.llmLatency, _ = opts.Meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive a response from the model in seconds"))
	return g
}

func (g *Generator) GenerateRoutineText(ctx context.Context, req nutriroutine.RoutineRequest) (string, error) {
	ctx, span := g.tracer.Start(ctx, "Generator.GenerateRoutineText")
	defer span.End()

	withTools := g.toolProvider != nil
	task, err := coordinator.RoutineTask(ctx, req, g.now(), !withTools)
	if err != nil {
		span.SetStatus(codes.Error, "build task")
		return "", fmt.Errorf("build routine task: %w", err)
	}

	system := coordinator.RoutineSystemPrompt
	var tp tools.ToolProvider
	if withTools {
		system += coordinator.ToolUsePrompt
		tp = g.toolProvider
	}

	text, err := g.run(ctx, "routine", NewPrompt(system, task, tp))
	if err != nil {
		span.SetStatus(codes.Error, "routine generation failed")
		span.RecordError(err)
		return "", err
	}
	return text, nil
}

func (g *Generator) GenerateFreeformAnswer(ctx context.Context, message string, profile nutriroutine.UserProfile, entries []nutriroutine.Entry) (string, error) {
	ctx, span := g.tracer.Start(ctx, "Generator.GenerateFreeformAnswer")
	defer span.End()

	task := coordinator.FreeformTask(message, profile, entries, g.now())
	text, err := g.run(ctx, "freeform", NewPrompt(coordinator.FreeformSystemPrompt, task, nil))
	if err != nil {
		span.SetStatus(codes.Error, "freeform answer failed")
		span.RecordError(err)
		return "", err
	}
	return text, nil
}

// run drives the conversation until the model answers without tool calls.
func (g *Generator) run(ctx context.Context, kind string, prompt Prompt) (string, error) {
	attrs := metric.WithAttributes(attribute.String("task", kind))

	for iter := 0; iter < g.maxIterations; iter++ {
		slog.Info("GENERATOR: Sending prompt to model",
			"task", kind,
			"iteration", iter+1,
			"messages_count", len(prompt.Messages),
			"tools_count", len(prompt.Tools),
		)

		g.invocations.Add(ctx, 1, attrs)
		start := time.Now()
		res, err := g.llm.Invoke(ctx, prompt)
		g.llmLatency.Record(ctx, time.Since(start).Seconds(), attrs)
		g.recordUsage(ctx, kind, res.Usage)
		if err != nil {
			g.failures.Add(ctx, 1, attrs)
			return "", fmt.Errorf("invoke failed: %w: %w", nutriroutine.ErrGenerationUnavailable, err)
		}

		trace.SpanFromContext(ctx).AddEvent("model response", trace.WithAttributes(
			attribute.Int("iteration", iter+1),
			attribute.Int("content_length", len(res.Content)),
			attribute.Int("tool_calls", len(res.ToolCalls)),
		))

		if len(res.ToolCalls) == 0 {
			text := strings.TrimSpace(res.Content)
			if text == "" {
				g.failures.Add(ctx, 1, attrs)
				return "", fmt.Errorf("empty response: %w", nutriroutine.ErrGenerationUnavailable)
			}
			slog.Info("GENERATOR: Final answer received", "task", kind, "iteration", iter+1, "content_length", len(text))
			return text, nil
		}

		if name, repeated := g.repeatedTool(prompt, res.ToolCalls); repeated {
			slog.Warn("GENERATOR: Excessive tool repetition detected", "tool", name, "iteration", iter+1)
			b, _ := json.Marshal(map[string]any{
				"error": "excessive_tool_repetition",
				"hint":  "Ya tienes los datos del catálogo. Responde ahora con la rutina en el formato indicado.",
			})
			prompt.Messages = append(prompt.Messages, NewTextMessage("user", string(b)))
			continue
		}

		assistant := Message{Role: "assistant", Content: MessageParts{}}
		if res.Content != "" {
			assistant.Content = append(assistant.Content, MessagePart{Kind: PartText, Text: res.Content})
		}
		for _, call := range res.ToolCalls {
			assistant.Content = append(assistant.Content, MessagePart{
				Kind:      PartToolUse,
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      call.Input,
			})
		}
		prompt.Messages = append(prompt.Messages, assistant)
		prompt.Messages = append(prompt.Messages, NewToolResultMessage(g.runTools(ctx, res.ToolCalls)))
	}

	g.failures.Add(ctx, 1, attrs)
	return "", fmt.Errorf("no final answer after %d iterations: %w", g.maxIterations, nutriroutine.ErrGenerationUnavailable)
}

func (g *Generator) recordUsage(ctx context.Context, kind string, u Usage) {
	if u.InputTokens > 0 {
		g.tokens.Add(ctx, int64(u.InputTokens), metric.WithAttributes(
			attribute.String("task", kind), attribute.String("direction", "input")))
	}
	if u.OutputTokens > 0 {
		g.tokens.Add(ctx, int64(u.OutputTokens), metric.WithAttributes(
			attribute.String("task", kind), attribute.String("direction", "output")))
	}
}

func (g *Generator) repeatedTool(prompt Prompt, calls []tools.Call) (string, bool) {
	for _, call := range calls {
		if prompt.ToolCallCount(call.Name) >= maxCallsPerTool {
			return call.Name, true
		}
	}
	return "", false
}

// runTools executes each call. Failures are reported back to the model as results.
func (g *Generator) runTools(ctx context.Context, calls []tools.Call) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		attrs := metric.WithAttributes(attribute.String("tool", call.Name))
		g.toolCalls.Add(ctx, 1, attrs)
		slog.Info("GENERATOR: Handling tool call", "name", call.Name, "input", call.Input)

		if g.toolProvider == nil {
			g.toolCallsFailed.Add(ctx, 1, attrs)
			results = append(results, ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      map[string]any{"error": "no tools are available"},
			})
			continue
		}

		tool, err := g.toolProvider.GetTool(call.Name)
		if err != nil {
			g.toolCallsFailed.Add(ctx, 1, attrs)
			results = append(results, ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      map[string]any{"error": fmt.Sprintf("tool %q not found: %v", call.Name, err)},
			})
			continue
		}

		out, err := tool.Run(ctx, call.Input)
		if err != nil {
			g.toolCallsFailed.Add(ctx, 1, attrs)
			slog.Warn("GENERATOR: Tool failed", "name", call.Name, "error", err)
			results = append(results, ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  tool.Name(),
				Data:      map[string]any{"error": fmt.Sprintf("tool %q failed: %v", call.Name, err)},
			})
			continue
		}
		results = append(results, ToolResult{ToolUseID: call.ToolUseID, ToolName: tool.Name(), Data: out})
	}
	return results
}
