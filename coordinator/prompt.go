// Package coordinator holds what every generative backend shares: system prompts and
// the task text built from a routine request or a nutrition question.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nutriroutine"
)

const RoutineSystemPrompt = `Eres un nutricionista que diseña rutinas alimentarias diarias personalizadas.

OBJETIVO:
Con base en el perfil del usuario y el catálogo de alimentos, propone una rutina para un día con las cuatro comidas: Desayuno, Almuerzo, Cena y Snack.

FORMATO DE SALIDA:
Responde solo con la rutina, sin introducción ni despedida, usando exactamente este formato:

Desayuno:
- <alimento> – <cantidad> <unidad>
Almuerzo:
- <alimento> – <cantidad> <unidad>
Cena:
- <alimento> – <cantidad> <unidad>
Snack:
- <alimento> – <cantidad> <unidad>

REGLAS:
- Usa solo alimentos del catálogo, escritos exactamente como aparecen.
- Incluye al menos 2 alimentos por comida y nunca repitas un alimento en la rutina.
- Usa solo unidades válidas para cada alimento. Si la unidad es gramos o ml usa un decimal (150.0); para cualquier otra unidad usa un número entero.
- Respeta la restricción alimentaria y el objetivo del usuario.
- No repitas las rutinas anteriores que se te indiquen.
`

const ToolUsePrompt = `
USO DE HERRAMIENTAS:
- Usa food_search para buscar alimentos por nombre o categoría cuando necesites más detalle.
- Usa food_units antes de elegir la unidad de un alimento.
- No inventes alimentos ni unidades.
`

const FreeformSystemPrompt = `Eres NutriBot, un asistente de nutrición amable y claro.
Responde en español, en máximo 6 líneas, con consejos prácticos y seguros.
Ten en cuenta el perfil del usuario y los alimentos que registró recientemente.
Si la pregunta requiere un diagnóstico médico, recomienda consultar a un profesional de la salud.
`

// maxHistoryEntries caps the recent entries included in a free-form question.
const maxHistoryEntries = 10

type promptFood struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Calories float64  `json:"kcal"`
	Protein  float64  `json:"protein_g"`
	Carbs    float64  `json:"carbs_g"`
	Fat      float64  `json:"fat_g"`
	Fiber    float64  `json:"fiber_g"`
	Units    []string `json:"units,omitempty"`
}

// ProfileText renders the profile fields a backend should consider.
func ProfileText(p nutriroutine.UserProfile, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Nombre: %s\n", p.Name)
	fmt.Fprintf(&b, "- Sexo: %s\n", p.Sex)
	if age := p.Age(now); age > 0 {
		fmt.Fprintf(&b, "- Edad: %d años\n", age)
	}
	if p.HeightCm > 0 {
		fmt.Fprintf(&b, "- Altura: %g cm\n", p.HeightCm)
	}
	if p.WeightKg > 0 {
		fmt.Fprintf(&b, "- Peso: %g kg\n", p.WeightKg)
	}
	if p.TargetWeightKg > 0 {
		fmt.Fprintf(&b, "- Peso objetivo: %g kg\n", p.TargetWeightKg)
	}
	fmt.Fprintf(&b, "- Restricción alimentaria: %s\n", p.DietaryRestriction)
	fmt.Fprintf(&b, "- Objetivo: %s\n", p.HealthGoal)
	fmt.Fprintf(&b, "- Nivel de actividad: %s", p.ActivityLevel)
	return b.String()
}

// RoutineTask builds the user message of a routine request. With inlineUnits the
// valid units of every food are resolved and listed; backends that can call
// food_units leave them out.
func RoutineTask(ctx context.Context, req nutriroutine.RoutineRequest, now time.Time, inlineUnits bool) (string, error) {
	foods := make([]promptFood, 0, len(req.Foods))
	for _, f := range req.Foods {
		pf := promptFood{
			ID: f.ID, Name: f.Name, Category: f.Category,
			Calories: f.Calories, Protein: f.Protein, Carbs: f.Carbs, Fat: f.Fat, Fiber: f.Fiber,
		}
		if inlineUnits && req.Units != nil {
			units, err := req.Units(ctx, f.ID)
			if err != nil {
				slog.Warn("GENERATOR: Failed to resolve units, omitting", "food_id", f.ID, "error", err)
			}
			pf.Units = units
		}
		foods = append(foods, pf)
	}
	catalog, err := json.Marshal(foods)
	if err != nil {
		return "", fmt.Errorf("failed to marshal catalog: %w", err)
	}

	var b strings.Builder
	b.WriteString("PERFIL DEL USUARIO:\n")
	b.WriteString(ProfileText(req.Profile, now))
	b.WriteString("\n\nCATÁLOGO DE ALIMENTOS (valores por 100 g):\n")
	b.Write(catalog)
	if len(req.Previous) > 0 {
		b.WriteString("\n\nRUTINAS ANTERIORES (propón una diferente):\n")
		for i, prev := range req.Previous {
			fmt.Fprintf(&b, "--- Rutina %d ---\n%s\n", i+1, strings.TrimSpace(prev))
		}
	}
	b.WriteString("\n\nGenera la rutina de hoy.")
	return b.String(), nil
}

// FreeformTask builds the user message of a nutrition question.
func FreeformTask(message string, profile nutriroutine.UserProfile, entries []nutriroutine.Entry, now time.Time) string {
	var b strings.Builder
	b.WriteString("PERFIL DEL USUARIO:\n")
	b.WriteString(ProfileText(profile, now))
	if len(entries) > 0 {
		b.WriteString("\n\nALIMENTOS REGISTRADOS RECIENTEMENTE:\n")
		for _, e := range entries[:min(len(entries), maxHistoryEntries)] {
			fmt.Fprintf(&b, "- %s: %s %s %s (%s)\n", e.Slot, e.Quantity, e.Unit, e.FoodName, e.ConsumedAt.Format("2006-01-02"))
		}
	}
	b.WriteString("\n\nPREGUNTA:\n")
	b.WriteString(strings.TrimSpace(message))
	return b.String()
}
