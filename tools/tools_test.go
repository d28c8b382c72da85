package tools

import (
	"context"
	"errors"
	"testing"

	"nutriroutine"
	"nutriroutine/catalog/catalogtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func foodNames(t *testing.T, out map[string]any) []string {
	t.Helper()
	foods, ok := out["foods"].([]any)
	require.True(t, ok, "foods must be an array")
	names := make([]string, 0, len(foods))
	for _, f := range foods {
		names = append(names, f.(map[string]any)["name"].(string))
	}
	return names
}

func TestFoodSearch_Run(t *testing.T) {
	tool := NewFoodSearch(catalogtest.NewMemory())

	tests := []struct {
		name     string
		input    map[string]any
		expected []string
	}{
		{name: "by name fragment", input: map[string]any{"query": "pollo"}, expected: []string{"Pechuga de pollo"}},
		{name: "accent insensitive", input: map[string]any{"query": "salmon"}, expected: []string{"Salmón"}},
		{name: "by category", input: map[string]any{"category": "Frutas"}, expected: []string{"Banano", "Fresas", "Manzana"}},
		{name: "category and limit", input: map[string]any{"category": "frutas", "limit": 2.0}, expected: []string{"Banano", "Fresas"}},
		{name: "integer limit from the model", input: map[string]any{"category": "frutas", "limit": 1}, expected: []string{"Banano"}},
		{name: "no match", input: map[string]any{"query": "pizza"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Run(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, foodNames(t, out))
		})
	}
}

func TestFoodSearch_DefaultLimit(t *testing.T) {
	out, err := NewFoodSearch(catalogtest.NewMemory()).Run(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Len(t, foodNames(t, out), defaultSearchLimit)
}

func TestFoodSearch_OutputFields(t *testing.T) {
	out, err := NewFoodSearch(catalogtest.NewMemory()).Run(context.Background(), map[string]any{"query": "avena"})
	require.NoError(t, err)

	foods := out["foods"].([]any)
	require.Len(t, foods, 1)
	avena := foods[0].(map[string]any)
	assert.Equal(t, 1.0, avena["id"])
	assert.Equal(t, "Cereales", avena["category"])
	assert.Equal(t, 389.0, avena["kcal"])
	assert.Equal(t, 17.0, avena["protein_g"])
}

func TestFoodUnits_Run(t *testing.T) {
	tool := NewFoodUnits(catalogtest.NewMemory())

	tests := []struct {
		name  string
		food  string
		found bool
		units []any
	}{
		{name: "known food", food: "Huevo", found: true, units: []any{"unidad", "pieza"}},
		{name: "partial name", food: "leche", found: true, units: []any{"ml", "vaso", "taza"}},
		{name: "food without units", food: "Tofu", found: true, units: []any{}},
		{name: "unknown food", food: "pizza", found: false, units: []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tool.Run(context.Background(), map[string]any{"food": tt.food})
			require.NoError(t, err)
			assert.Equal(t, tt.found, out["found"])
			assert.Equal(t, tt.units, out["units"])
		})
	}
}

func TestFoodUnits_RequiresFood(t *testing.T) {
	_, err := NewFoodUnits(catalogtest.NewMemory()).Run(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, nutriroutine.ErrValidation)
}

type failingLookup struct{ FoodLookup }

var errDown = errors.New("catalog down")

func (failingLookup) SearchAllFoods(context.Context) ([]nutriroutine.Food, error) {
	return nil, errDown
}

func TestFoodSearch_PropagatesErrors(t *testing.T) {
	_, err := NewFoodSearch(failingLookup{}).Run(context.Background(), map[string]any{"query": "avena"})
	assert.ErrorIs(t, err, errDown)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(catalogtest.NewMemory())

	tools := r.GetTools()
	require.Len(t, tools, 2)
	assert.Equal(t, "food_search", tools[0].Name())
	assert.Equal(t, "food_units", tools[1].Name())

	tool, err := r.GetTool("food_units")
	require.NoError(t, err)
	assert.Equal(t, "food_units", tool.Name())
	assert.NotNil(t, tool.InputSchema())
	assert.NotNil(t, tool.OutputSchema())

	_, err = r.GetTool("meal_plan_get")
	assert.Error(t, err)
}
