package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"nutriroutine"
	"nutriroutine/parse"
)

const defaultSearchLimit = 20

type FoodSearch struct{ foods FoodLookup }

func NewFoodSearch(foods FoodLookup) *FoodSearch { return &FoodSearch{foods: foods} }

func (t *FoodSearch) Name() string  { return "food_search" }
func (t *FoodSearch) Title() string { return "Search Foods" }
func (t *FoodSearch) Description() string {
	return "Busca alimentos del catálogo por nombre o categoría y devuelve sus macronutrientes por 100 g."
}

func (t *FoodSearch) InputSchema() *jsonschema.Schema {
	minLimit := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query":    {Type: "string", Description: "Texto contenido en el nombre del alimento"},
			"category": {Type: "string", Description: "Categoría exacta, por ejemplo Frutas"},
			"limit":    {Type: "integer", Minimum: &minLimit},
		},
	}
}

func (t *FoodSearch) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"foods": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"id":        {Type: "integer"},
						"name":      {Type: "string"},
						"category":  {Type: "string"},
						"kcal":      {Type: "number"},
						"protein_g": {Type: "number"},
						"carbs_g":   {Type: "number"},
						"fat_g":     {Type: "number"},
						"fiber_g":   {Type: "number"},
					},
					Required: []string{"id", "name", "category"},
				},
			},
		},
		Required: []string{"foods"},
	}
}

type foodOut struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Calories float64 `json:"kcal"`
	Protein  float64 `json:"protein_g"`
	Carbs    float64 `json:"carbs_g"`
	Fat      float64 `json:"fat_g"`
	Fiber    float64 `json:"fiber_g"`
}

func (t *FoodSearch) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	query := parse.Normalize(stringInput(input, "query"))
	category := stringInput(input, "category")
	limit := defaultSearchLimit
	switch v := input["limit"].(type) {
	case int:
		limit = v
	case float64:
		limit = int(v)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	var (
		foods []nutriroutine.Food
		err   error
	)
	if category != "" {
		foods, err = t.foods.ListFoodsByCategory(ctx, category)
	} else {
		foods, err = t.foods.SearchAllFoods(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("search foods: %w", err)
	}

	out := struct {
		Foods []foodOut `json:"foods"`
	}{Foods: make([]foodOut, 0)}

	for _, f := range foods {
		if query != "" && !parse.ContainsAny(parse.Normalize(f.Name), query) {
			continue
		}
		out.Foods = append(out.Foods, foodOut{
			ID: f.ID, Name: f.Name, Category: f.Category,
			Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fat: f.Fat, Fiber: f.Fiber,
		})
		if len(out.Foods) == limit {
			break
		}
	}
	return toMap(out)
}
