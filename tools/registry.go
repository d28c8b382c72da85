package tools

import (
	"fmt"
	"sort"
)

// ToolProvider is what a generator needs to advertise and dispatch tools.
type ToolProvider interface {
	GetTools() []Tool
	GetTool(name string) (Tool, error)
}

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates the catalog tools over foods.
func NewRegistry(foods FoodLookup) *Registry {
	registry := Registry(map[string]Tool{
		"food_search": NewFoodSearch(foods),
		"food_units":  NewFoodUnits(foods),
	})
	return &registry
}

// GetTools returns all tools in the registry sorted by name
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r *Registry) GetTool(name string) (Tool, error) {
	tool, exists := (*r)[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
