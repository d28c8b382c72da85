package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"nutriroutine"
)

const (
	defaultTemperature = 0.2
	defaultTopP        = 0.9
	// The full catalog goes into the prompt when tools are off.
	defaultNumCtx = 16384
)

type options struct {
	Temperature   float64 `json:"temperature,omitempty"`
	TopP          float64 `json:"top_p,omitempty"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
	NumCtx        int     `json:"num_ctx,omitempty"`
}

// Client talks to the Ollama chat API with streaming off.
type Client struct {
	endpoint   string
	model      string
	httpClient nutriroutine.HTTPClient
	options    options
}

// ClientOpts configures a Client. Zero sampling values take the package defaults.
type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	Temperature  float32
	TopP         float32
	NumCtx       int
	HTTPClient   nutriroutine.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.ModelID == "" {
		return nil, fmt.Errorf("%w: model id is required", nutriroutine.ErrValidation)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	o := options{
		Temperature:   float64(opts.Temperature),
		TopP:          float64(opts.TopP),
		RepeatPenalty: 1.05,
		NumCtx:        opts.NumCtx,
	}
	if o.Temperature == 0 {
		o.Temperature = defaultTemperature
	}
	if o.TopP == 0 {
		o.TopP = defaultTopP
	}
	if o.NumCtx == 0 {
		o.NumCtx = defaultNumCtx
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options:    o,
	}, nil
}

type wireToolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type wireRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	Stream   bool      `json:"stream"`
	Options  options   `json:"options,omitempty"`
}

type wireResponse struct {
	Message         Message `json:"message"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	TotalDuration   int64   `json:"total_duration"`
}

// Invoke sends the prompt to the chat API. A body that does not decode is returned
// verbatim as content, since some models answer in plain text.
func (c *Client) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	slog.Debug("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages), "model", c.model)

	payload, err := json.Marshal(wireRequest{
		Model:    c.model,
		Messages: buildMessages(prompt),
		Tools:    prompt.Tools,
		Options:  c.options,
	})
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("LLM_CLIENT: Ollama request failed", "error", err, "model", c.model)
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("ollama chat: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: decode failed, returning raw", "err", err, "body", string(body))
		return Response{Content: string(body)}, nil
	}
	slog.Info("LLM_CLIENT: Ollama invoke succeeded",
		"model", c.model,
		"prompt_tokens", wr.PromptEvalCount,
		"output_tokens", wr.EvalCount,
		"duration", time.Duration(wr.TotalDuration),
	)

	out := Response{
		Content: wr.Message.Content,
		Usage:   Usage{PromptTokens: wr.PromptEvalCount, OutputTokens: wr.EvalCount},
	}
	for _, call := range wr.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{Name: call.Function.Name, Args: call.Function.Arguments})
	}
	return out, nil
}

// buildMessages keeps system, user, assistant and named tool messages and coerces
// anything else to user.
func buildMessages(prompt Prompt) []Message {
	messages := make([]Message, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		switch m.Role {
		case roleSystem, roleUser, roleAssistant:
			messages = append(messages, m)

		case roleTool:
			if strings.TrimSpace(m.Name) == "" {
				slog.Warn("LLM_CLIENT: dropping tool message without name")
				continue
			}
			messages = append(messages, m)

		default:
			slog.Warn("LLM_CLIENT: unknown role, coercing to user", "role", m.Role)
			messages = append(messages, Message{Role: roleUser, Content: m.Content})
		}
	}
	return messages
}
