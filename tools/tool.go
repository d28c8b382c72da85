// Package tools exposes catalog lookups to generative backends that support tool calls.
package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutriroutine"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// FoodLookup is the read side of the catalog the tools query.
type FoodLookup interface {
	SearchAllFoods(ctx context.Context) ([]nutriroutine.Food, error)
	ListFoodsByCategory(ctx context.Context, category string) ([]nutriroutine.Food, error)
	FindFoodByName(ctx context.Context, name string) (nutriroutine.Food, error)
	ListValidUnits(ctx context.Context, foodID int64) ([]string, error)
}

// toMap round-trips v through JSON so every tool output has the same shape.
func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	return m, json.Unmarshal(b, &m)
}

func stringInput(input map[string]any, key string) string {
	s, _ := input[key].(string)
	return s
}
