package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"nutriroutine/tools"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithydocument "github.com/aws/smithy-go/document"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens = 1024

	// Low temperature and top_p keep routines close to the requested format.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

var (
	ErrMaxTokens = errors.New("model hit MaxTokens limit")
	ErrFiltered  = errors.New("model response blocked by Bedrock safety filters")
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMClient struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewLLMClient(brc bedrockRuntimeClient, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &LLMClient{
		brc:  brc,
		opts: opts,
	}
}

// Invoke sends the prompt through Converse and maps the stop reason to text, tool
// calls, or one of ErrMaxTokens and ErrFiltered.
func (c *LLMClient) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	slog.Debug("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "tools_len", len(prompt.Tools))

	in, err := c.converseInput(prompt)
	if err != nil {
		return Response{}, err
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err, "model_id", c.opts.ModelID)
		return Response{}, err
	}

	usage := usageFromOutput(out)
	attrs := []any{
		"stop_reason", out.StopReason,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	}
	if out.Metrics != nil {
		attrs = append(attrs, "latency_ms", aws.ToInt64(out.Metrics.LatencyMs))
	}
	slog.Info("LLM_CLIENT: Bedrock invoke succeeded", attrs...)

	res := Response{Usage: usage}
	switch out.StopReason {
	case types.StopReasonMaxTokens:
		slog.Warn("LLM_CLIENT: Model hit MaxTokens limit", "max_tokens", c.opts.MaxTokens)
		return res, ErrMaxTokens

	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return res, ErrFiltered

	}

	res.Content, res.ToolCalls = readOutput(out)
	if out.StopReason == types.StopReasonEndTurn || out.StopReason == types.StopReasonStopSequence {
		// A final answer never carries tool calls worth running.
		res.ToolCalls = nil
	}
	slog.Debug("LLM_CLIENT: Read model output", "text_len", len(res.Content), "calls_len", len(res.ToolCalls))
	return res, nil
}

func usageFromOutput(out *bedrockruntime.ConverseOutput) Usage {
	if out == nil || out.Usage == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
		OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
	}
}

func (c *LLMClient) converseInput(prompt Prompt) (*bedrockruntime.ConverseInput, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.ModelID),
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}

	for _, m := range prompt.Messages {
		if m.Role == "system" {
			in.System = append(in.System, &types.SystemContentBlockMemberText{Value: m.Content.Join()})
			continue
		}
		blocks := make([]types.ContentBlock, 0, len(m.Content))
		for _, part := range m.Content {
			block, err := contentBlock(part)
			if err != nil {
				return nil, err
			}
			if block != nil {
				blocks = append(blocks, block)
			}
		}
		in.Messages = append(in.Messages, types.Message{Role: types.ConversationRole(m.Role), Content: blocks})
	}

	if specs := toolSpecs(prompt.Tools); len(specs) > 0 {
		// Converse rejects an empty tool list, so ToolConfig stays nil without tools.
		in.ToolConfig = &types.ToolConfiguration{Tools: specs, ToolChoice: &types.ToolChoiceMemberAuto{}}
	}
	return in, nil
}

func contentBlock(part MessagePart) (types.ContentBlock, error) {
	switch part.Kind {
	case PartText:
		if part.Text == "" {
			return nil, nil
		}
		return &types.ContentBlockMemberText{Value: part.Text}, nil

	case PartToolUse:
		input, err := jsonDocument(part.Data)
		if err != nil {
			return nil, fmt.Errorf("tool use %s input: %w", part.ToolUseID, err)
		}
		return &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
			ToolUseId: aws.String(part.ToolUseID),
			Name:      aws.String(part.ToolName),
			Input:     input,
		}}, nil

	case PartToolResult:
		if part.Data == nil {
			return nil, fmt.Errorf("tool result %s has no data", part.ToolUseID)
		}
		result, err := jsonDocument(part.Data)
		if err != nil {
			return nil, fmt.Errorf("tool result %s: %w", part.ToolUseID, err)
		}
		status := types.ToolResultStatusSuccess
		if _, failed := part.Data["error"]; failed {
			status = types.ToolResultStatusError
		}
		return &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
			ToolUseId: aws.String(part.ToolUseID),
			Status:    status,
			Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberJson{Value: result}},
		}}, nil
	}
	return nil, fmt.Errorf("unknown message part kind %q", part.Kind)
}

// jsonDocument round-trips v through encoding/json so the smithy document encoder only
// sees plain maps, slices and scalars. Schemas go through their own MarshalJSON on the
// way.
func jsonDocument(v any) (document.Interface, error) {
	plain := map[string]any{}
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &plain); err != nil {
			return nil, err
		}
	}
	return document.NewLazyDocument(plain), nil
}

// toolSpecs converts the prompt's tools, skipping any whose schema does not encode.
func toolSpecs(ts []Tool) []types.Tool {
	specs := make([]types.Tool, 0, len(ts))
	for _, t := range ts {
		schema, err := jsonDocument(t.InputSchema)
		if err != nil {
			slog.Error("LLM_CLIENT: Failed to build tool spec", "tool", t.Name, "error", err)
			continue
		}
		specs = append(specs, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
			Name:        aws.String(t.Name),
			Description: aws.String(t.Description),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: schema},
		}})
	}
	return specs
}

// readOutput splits the assistant message into its text, joined with newlines, and
// the tool uses it requested.
func readOutput(out *bedrockruntime.ConverseOutput) (string, []tools.Call) {
	if out == nil {
		return "", nil
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return "", nil
	}

	var (
		texts []string
		calls []tools.Call
	)
	for _, cb := range msg.Value.Content {
		switch block := cb.(type) {
		case *types.ContentBlockMemberText:
			if block.Value != "" {
				texts = append(texts, block.Value)
			}
		case *types.ContentBlockMemberToolUse:
			calls = append(calls, tools.Call{
				Name:      aws.ToString(block.Value.Name),
				Input:     toolArgs(block.Value),
				ToolUseID: aws.ToString(block.Value.ToolUseId),
			})
		}
	}
	return strings.Join(texts, "\n"), calls
}

func toolArgs(tu types.ToolUseBlock) map[string]any {
	args := map[string]any{}
	if tu.Input == nil {
		return args
	}
	if err := tu.Input.UnmarshalSmithyDocument(&args); err != nil {
		slog.Warn("LLM_CLIENT: Unreadable tool input, using empty input", "tool", aws.ToString(tu.Name), "error", err)
		return map[string]any{}
	}
	for k, v := range args {
		args[k] = coerceArg(v)
	}
	return args
}

// coerceArg turns whole numbers into ints and decodes arrays or objects that the model
// sent as JSON strings, recursively. Converse documents carry numbers as
// smithydocument.Number.
func coerceArg(val any) any {
	switch v := val.(type) {
	case smithydocument.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return coerceArg(f)
		}
		return v.String()
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded any
			if json.Unmarshal([]byte(trimmed), &decoded) == nil {
				return coerceArg(decoded)
			}
		}
	case []any:
		for i := range v {
			v[i] = coerceArg(v[i])
		}
	case map[string]any:
		for k := range v {
			v[k] = coerceArg(v[k])
		}
	}
	return val
}
