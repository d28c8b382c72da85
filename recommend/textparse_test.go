package recommend

import (
	"testing"

	"nutriroutine"
	"nutriroutine/catalog/catalogtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoutineText(t *testing.T) {
	foods := catalogtest.Foods()

	tests := []struct {
		name string
		text string
		want []nutriroutine.RoutineItem
	}{
		{
			name: "headers and dashes",
			text: "DESAYUNO (3):\n- Avena – 1 taza\n- Huevo — 2 unidad\nCENA:\n- Salmón - 150 g",
			want: []nutriroutine.RoutineItem{
				{Slot: nutriroutine.SlotBreakfast, FoodName: "Avena", Quantity: "1", Unit: "taza", FoodID: 1},
				{Slot: nutriroutine.SlotBreakfast, FoodName: "Huevo", Quantity: "2", Unit: "unidad", FoodID: 8},
				{Slot: nutriroutine.SlotDinner, FoodName: "Salmón", Quantity: "150", Unit: "g", FoodID: 6},
			},
		},
		{
			name: "markdown headers and inline snack",
			text: "**Almuerzo**\n• pechuga de pollo: 1 filete\nSnack 1: Manzana – 1 pieza",
			want: []nutriroutine.RoutineItem{
				{Slot: nutriroutine.SlotLunch, FoodName: "Pechuga de pollo", Quantity: "1", Unit: "filete", FoodID: 5},
				{Slot: nutriroutine.SlotSnack, FoodName: "Manzana", Quantity: "1", Unit: "pieza", FoodID: 13},
			},
		},
		{
			name: "decimal comma quantities",
			text: "Desayuno:\n- Leche – 1,5 vaso",
			want: []nutriroutine.RoutineItem{
				{Slot: nutriroutine.SlotBreakfast, FoodName: "Leche", Quantity: "1.5", Unit: "vaso", FoodID: 10},
			},
		},
		{
			name: "repeated foods and unknown foods are dropped",
			text: "Almuerzo:\n- Arroz integral – 1 taza\n- Pizza – 2 porción\nCena:\n- arroz integral – 1 taza",
			want: []nutriroutine.RoutineItem{
				{Slot: nutriroutine.SlotLunch, FoodName: "Arroz integral", Quantity: "1", Unit: "taza", FoodID: 2},
			},
		},
		{
			name: "lines before any header are ignored",
			text: "Aquí tienes tu rutina con Avena\nCena:\n- Lentejas",
			want: []nutriroutine.RoutineItem{
				{Slot: nutriroutine.SlotDinner, FoodName: "Lentejas", FoodID: 19},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRoutineText(tt.text, foods)
			require.Len(t, got, len(tt.want))
			assert.Equal(t, tt.want, got)
		})
	}
}
