package dialogue

import (
	"fmt"
	"strings"
	"time"

	"nutriroutine"
)

const (
	msgCancelled         = "Entendido, no se realizará ningún cambio."
	msgUpdated           = "✅ **Tu rutina se ha actualizado correctamente.**"
	msgCatalogDown       = "Lo siento, no pude consultar el catálogo de alimentos en este momento. Por favor intenta de nuevo."
	msgQuantityRetry     = "Por favor, ingresa solo un número para la cantidad."
	msgSlotRetry         = "Por favor elige un momento del día válido: **Desayuno**, **Almuerzo**, **Cena** o **Snack**."
	msgSlotPrompt        = "¿En qué momento del día? (**Desayuno**, **Almuerzo**, **Cena** o **Snack**)"
	msgFoodUnavailable   = "Ese alimento no se encuentra disponible en el catálogo. Intenta con otro nombre."
	msgNoEntriesToday    = "No tienes alimentos registrados en tu rutina de hoy. Escribe **agregar alimento** para añadir uno."
	msgNoProfile         = "❌ No se puede generar la rutina porque no encontramos tu perfil. Completa tu perfil e inténtalo de nuevo."
	msgRoutinePrompt     = "¿Deseas que genere tu rutina personalizada? Responde **Sí** o **Generar** para continuar, o **No** para cancelar."
	msgRoutineReprompt   = "Por favor responde **Sí** o **Generar** para crear tu rutina, o **No** para cancelar."
	msgRoutineDeclined   = "Entendido. Cuando quieras una rutina personalizada, solo dime 'Generar'."
	msgRoutineFailed     = "Lo siento, no pude generar tu rutina en este momento. Intenta de nuevo más tarde."
	msgRoutineOutro      = "✨ Recuerda hidratarte y mantener un descanso adecuado 💧😴"
	msgRoutineHelp       = "Escribe **cambiar rutina** para ver otra opción, **cambiar alimento** para reemplazar un alimento o **finalizar** para guardar la rutina."
	msgRoutineSaved      = "✅ **Tu rutina se ha guardado correctamente.**\n\nPuedes consultarla cuando quieras escribiendo **ver rutina**."
	msgRoutineSaveFailed = "Lo siento, hubo un problema al guardar tu rutina. Escribe **finalizar** para intentarlo de nuevo."
	msgRoutineDiscarded  = "Entendido, descarté la rutina generada."
	msgRoutineKept       = "Entendido, la rutina se mantiene sin cambios."
	msgNothingToSave     = "No hay ninguna rutina pendiente por guardar. Escribe **generar rutina** para crear una."
	msgSaveFailed        = "Lo siento, hubo un problema al actualizar tu rutina. Responde **Sí** para intentarlo de nuevo."
	msgConfirmHint       = "💡 **Responde:**\n• **Sí** para confirmar\n• **No** para cancelar"
)

// Greeting returns the salutation shown on the first step of a flow, or "" when the
// name is unknown.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "usuario") {
		return ""
	}
	return fmt.Sprintf("👋 ¡Hola %s!\n\n", name)
}

func bold(items []string) string {
	return "**" + strings.Join(items, "**, **") + "**"
}

func unitPrompt(food string, units []string) string {
	if len(units) == 0 {
		return fmt.Sprintf("¿En qué unidad quieres registrar **%s**? (por ejemplo: gramos, taza, porción)", food)
	}
	return fmt.Sprintf("¿En qué unidad quieres registrar **%s**? Unidades disponibles: %s", food, bold(units))
}

func invalidUnit(unit, food string, units []string) string {
	return fmt.Sprintf("❌ La unidad **%s** no está disponible para **%s**. Las unidades válidas son: %s", unit, food, bold(units))
}

func quantityPrompt(food string) string {
	return fmt.Sprintf("¿Qué cantidad de **%s**? (escribe solo el número)", food)
}

func categoryList(intro string, categories []string) string {
	return fmt.Sprintf("%s %s\n\n✍️ Escribe el nombre de la categoría que deseas.", intro, bold(categories))
}

func foodList(intro string, foods []nutriroutine.Food) string {
	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n")
	for _, f := range foods {
		fmt.Fprintf(&b, "• %s\n", f.Name)
	}
	b.WriteString("\n✍️ Escribe el nombre del alimento que deseas.")
	return b.String()
}

func entryList(entries []nutriroutine.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "• **%s** - %s\n", e.FoodName, e.Slot)
	}
	return strings.TrimRight(b.String(), "\n")
}

func addSummary(s State) string {
	return fmt.Sprintf("📋 **Resumen de tu solicitud:**\n• **Alimento:** %s\n• **Cantidad:** %s\n• **Unidad:** %s\n• **Momento:** %s\n\n💡 **Responde:**\n• **Sí** o **agregar** para confirmar\n• **No** para cancelar",
		s.FoodName, s.Quantity, s.Unit, s.MealTime)
}

func changeSummary(s State) string {
	return fmt.Sprintf("📋 **Resumen de tu solicitud:**\n• **Alimento original:** %s\n• **Nuevo alimento:** %s\n• **Cantidad:** %s\n• **Unidad:** %s\n• **Momento:** %s\n\n💡 **Responde:**\n• **Sí** o **cambiar** para confirmar\n• **No** para cancelar",
		s.OriginalFood, s.NewFood, s.Quantity, s.Unit, s.MealTime)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func measure(v float64, unit string) string {
	if v <= 0 {
		return "No especificado"
	}
	return fmt.Sprintf("%g %s", v, unit)
}

// ProfileSummary lists the profile fields the routine will be based on.
func ProfileSummary(p nutriroutine.UserProfile, now time.Time) string {
	age := "No especificado"
	if a := p.Age(now); a > 0 {
		age = fmt.Sprintf("%d años", a)
	}
	unknown := "No especificado"
	return fmt.Sprintf("📋 **Tu perfil registrado:**\n• **Género:** %s\n• **Edad:** %s\n• **Altura:** %s\n• **Peso:** %s\n• **Peso objetivo:** %s\n• **Tipo de dieta:** %s\n• **Nivel de actividad:** %s\n• **Objetivo:** %s",
		orDefault(p.Sex, unknown), age,
		measure(p.HeightCm, "cm"), measure(p.WeightKg, "kg"), measure(p.TargetWeightKg, "kg"),
		orDefault(p.DietaryRestriction, unknown), orDefault(p.ActivityLevel, unknown), orDefault(p.HealthGoal, unknown))
}

func routineIntro(name string, first bool) string {
	name = strings.TrimSpace(name)
	if first {
		if name == "" {
			return "🤖 Perfecto, con base en tu perfil te comparto una rutina pensada para ti 🥦"
		}
		return fmt.Sprintf("🤖 Perfecto %s, con base en tu perfil te comparto una rutina pensada para ti 🥦", name)
	}
	if name == "" {
		return "🤖 Aquí tienes una nueva rutina para ti 🥦"
	}
	return fmt.Sprintf("🤖 Aquí tienes una nueva rutina para ti %s 🥦", name)
}

func routineItemList(items []nutriroutine.RoutineItem) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. **%s** (%s) – %s\n", i+1, it.FoodName, it.Slot, it.QuantityWithUnit())
	}
	return strings.TrimRight(b.String(), "\n")
}
