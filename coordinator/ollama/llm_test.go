package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	request  *http.Request
	body     []byte
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	if req.Body != nil {
		m.body, _ = io.ReadAll(req.Body)
	}
	return m.response, m.err
}

// createMockResponse creates a mock HTTP response
func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		opts     ClientOpts
		endpoint string
		wantErr  bool
	}{
		{
			name:     "valid client creation",
			opts:     ClientOpts{BaseEndpoint: "http://localhost:11434", ModelID: "llama3.2", HTTPClient: &mockHTTPClient{}},
			endpoint: "http://localhost:11434/api/chat",
		},
		{
			name:     "trailing slash trimmed",
			opts:     ClientOpts{BaseEndpoint: "http://localhost:11434/", ModelID: "llama3.2"},
			endpoint: "http://localhost:11434/api/chat",
		},
		{
			name:    "missing model",
			opts:    ClientOpts{BaseEndpoint: "http://localhost:11434"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClient(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClient() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.endpoint != tt.endpoint {
				t.Errorf("NewClient() endpoint = %v, want %v", got.endpoint, tt.endpoint)
			}
			if got.httpClient == nil {
				t.Error("NewClient() left httpClient nil")
			}
		})
	}
}

func TestClient_Invoke(t *testing.T) {
	prompt := Prompt{Messages: []Message{
		{Role: "system", Content: "Eres un nutricionista"},
		{Role: "user", Content: "Genera la rutina de hoy."},
	}}

	tests := []struct {
		name           string
		mockResponse   *http.Response
		mockError      error
		expectedResult Response
		wantErr        bool
		errContains    string
	}{
		{
			name: "successful response with content",
			mockResponse: createMockResponse(200, `{
				"message": {"role": "assistant", "content": "Desayuno:\n- Avena – 60.0 gramos"}
			}`),
			expectedResult: Response{Content: "Desayuno:\n- Avena – 60.0 gramos"},
		},
		{
			name: "token counters are reported",
			mockResponse: createMockResponse(200, `{
				"message": {"role": "assistant", "content": "Cena:\n- Tofu – 150.0 gramos"},
				"done": true,
				"prompt_eval_count": 812,
				"eval_count": 64,
				"total_duration": 1500000000
			}`),
			expectedResult: Response{
				Content: "Cena:\n- Tofu – 150.0 gramos",
				Usage:   Usage{PromptTokens: 812, OutputTokens: 64},
			},
		},
		{
			name: "successful response with tool calls",
			mockResponse: createMockResponse(200, `{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{"function": {"name": "food_units", "arguments": {"food": "Huevo"}}}]
				}
			}`),
			expectedResult: Response{
				ToolCalls: []ToolCall{{Name: "food_units", Args: map[string]any{"food": "Huevo"}}},
			},
		},
		{
			name:         "HTTP error",
			mockResponse: createMockResponse(500, `{"error": "Internal server error"}`),
			wantErr:      true,
			errContains:  "ollama chat:",
		},
		{
			name:      "network error",
			mockError: io.EOF,
			wantErr:   true,
		},
		{
			name:           "malformed JSON response",
			mockResponse:   createMockResponse(200, `{"message": {"content": "x"}`),
			expectedResult: Response{Content: `{"message": {"content": "x"}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &mockHTTPClient{response: tt.mockResponse, err: tt.mockError}
			client, err := NewClient(ClientOpts{BaseEndpoint: "http://localhost:11434", ModelID: "llama3.2", HTTPClient: doer})
			if err != nil {
				t.Fatal(err)
			}

			result, err := client.Invoke(context.Background(), prompt)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Invoke() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Invoke() error = %v, want it to contain %q", err, tt.errContains)
				}
				return
			}
			if !reflect.DeepEqual(result, tt.expectedResult) {
				t.Errorf("Invoke() = %#v, want %#v", result, tt.expectedResult)
			}
		})
	}
}

func TestClient_InvokeRequestBody(t *testing.T) {
	doer := &mockHTTPClient{response: createMockResponse(200, `{"message": {"content": "ok"}}`)}
	client, err := NewClient(ClientOpts{BaseEndpoint: "http://ollama:11434", ModelID: "llama3.2", HTTPClient: doer})
	if err != nil {
		t.Fatal(err)
	}

	prompt := Prompt{Messages: []Message{
		{Role: "system", Content: "sistema"},
		{Role: "user", Content: "tarea"},
		{Role: "tool", Content: `{"found":true}`},
		{Role: "tool", Name: "food_units", Content: `{"found":true}`},
		{Role: "critic", Content: "raro"},
	}}
	if _, err := client.Invoke(context.Background(), prompt); err != nil {
		t.Fatal(err)
	}

	if doer.request.URL.String() != "http://ollama:11434/api/chat" {
		t.Errorf("url = %s", doer.request.URL)
	}
	if ct := doer.request.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var sent wireRequest
	if err := json.Unmarshal(doer.body, &sent); err != nil {
		t.Fatal(err)
	}
	if sent.Model != "llama3.2" || sent.Stream {
		t.Errorf("model = %q stream = %v", sent.Model, sent.Stream)
	}
	roles := make([]string, 0, len(sent.Messages))
	for _, m := range sent.Messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "tool", "user"}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %v, want %v", roles, want)
	}
	if sent.Options.NumCtx != 16384 {
		t.Errorf("num_ctx = %d", sent.Options.NumCtx)
	}
}

func TestNewClient_SamplingOptions(t *testing.T) {
	client, err := NewClient(ClientOpts{ModelID: "llama3.2", Temperature: 0.7, NumCtx: 4096})
	if err != nil {
		t.Fatal(err)
	}
	want := options{Temperature: float64(float32(0.7)), TopP: defaultTopP, RepeatPenalty: 1.05, NumCtx: 4096}
	if client.options != want {
		t.Errorf("options = %+v, want %+v", client.options, want)
	}
}
