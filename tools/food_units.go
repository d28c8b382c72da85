package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutriroutine"
)

type FoodUnits struct{ foods FoodLookup }

func NewFoodUnits(foods FoodLookup) *FoodUnits { return &FoodUnits{foods: foods} }

func (t *FoodUnits) Name() string  { return "food_units" }
func (t *FoodUnits) Title() string { return "Get Valid Units" }
func (t *FoodUnits) Description() string {
	return "Devuelve las unidades válidas para medir un alimento. Una lista vacía significa que cualquier unidad es aceptada."
}

func (t *FoodUnits) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"food": {Type: "string", Description: "Nombre del alimento"},
		},
		Required: []string{"food"},
	}
}

func (t *FoodUnits) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"food":  {Type: "string"},
			"found": {Type: "boolean"},
			"units": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"food", "found", "units"},
	}
}

func (t *FoodUnits) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name := stringInput(input, "food")
	if name == "" {
		return nil, fmt.Errorf("food is required: %w", nutriroutine.ErrValidation)
	}

	out := struct {
		Food  string   `json:"food"`
		Found bool     `json:"found"`
		Units []string `json:"units"`
	}{Food: name, Units: make([]string, 0)}

	food, err := t.foods.FindFoodByName(ctx, name)
	if errors.Is(err, nutriroutine.ErrNotFound) {
		return toMap(out)
	}
	if err != nil {
		return nil, fmt.Errorf("find food: %w", err)
	}

	units, err := t.foods.ListValidUnits(ctx, food.ID)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	out.Food = food.Name
	out.Found = true
	out.Units = append(out.Units, units...)
	return toMap(out)
}
