package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nutriroutine"
	"nutriroutine/dialogue"
	"nutriroutine/parse"
)

const (
	msgCatalogDown = "Lo siento, no pude consultar tu rutina en este momento. Por favor intenta de nuevo."

	msgTodayOptions = "**Opciones disponibles:**\n\n" +
		"Escribe **agregar alimento** si deseas incluir un nuevo alimento.\n\n" +
		"Escribe **cambiar alimento** si deseas reemplazar un alimento existente.\n\n" +
		"Escribe **ver rutina YYYY-MM-DD** si deseas consultar la rutina de otra fecha.\n" +
		"👉 **Ejemplo:** ver rutina 2025-10-05\n\n" +
		"⚠️ **Nota:** Las opciones de agregar alimento y cambiar alimento solo están disponibles para la rutina del día actual."

	msgInitialMenu = "**Opciones disponibles:**\n\n" +
		"Escribe **agregar alimento** si deseas incluir un nuevo alimento a tu rutina del día actual.\n\n" +
		"Escribe **cambiar alimento** si deseas reemplazar un alimento existente en tu rutina del día actual.\n\n" +
		"Escribe **ver rutina YYYY-MM-DD** si deseas consultar la rutina de otra fecha.\n" +
		"👉 **Ejemplo:** ver rutina 2025-10-05\n\n" +
		"⚠️ **Nota:** Las opciones de agregar alimento y cambiar alimento solo están disponibles para la rutina del día actual."

	msgNoEntriesToday = "📝 **No has registrado alimentos para hoy**\n\n" +
		"Para ver tu rutina nutricional, necesitas registrar los alimentos que consumes.\n\n" +
		"💡 **¿Cómo registrar alimentos?**\n" +
		"1. Escribe **agregar alimento**\n" +
		"2. Elige la categoría y el alimento\n" +
		"3. Indica la cantidad y la unidad\n" +
		"4. Elige el momento del día\n" +
		"5. ¡Listo! Ya aparecerá el registro en tu rutina\n\n" +
		"También puedes escribir **generar rutina** para recibir una rutina personalizada."

	msgDateHowTo   = "Para ver tu rutina en una fecha específica, escribe:\nVer rutina YYYY-MM-DD (por ejemplo: Ver rutina 2025-10-01)"
	msgDateInvalid = "Esa fecha parece contener un error. " + msgDateHowTo
	msgDateRange   = "El año %d debe estar entre 1900 y 2100. " + msgDateHowTo
)

// hello is the salutation used by views, which always greet.
func hello(name string) string {
	if g := dialogue.Greeting(name); g != "" {
		return strings.TrimSuffix(g, "\n\n")
	}
	return "👋 ¡Hola!"
}

func profileName(p *nutriroutine.UserProfile) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// entriesOn returns the user's entries recorded on date, in the location of now.
func entriesOn(ctx context.Context, c nutriroutine.Catalog, userID int64, date string, now time.Time) ([]nutriroutine.Entry, error) {
	recent, err := c.ListRecentEntries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w: %w", nutriroutine.ErrCatalogUnavailable, err)
	}
	var out []nutriroutine.Entry
	for _, e := range recent {
		if e.ConsumedAt.In(now.Location()).Format(parse.DateLayout) == date {
			out = append(out, e)
		}
	}
	return out, nil
}

// RoutineView renders entries grouped by meal slot in display order.
func RoutineView(entries []nutriroutine.Entry) string {
	bySlot := make(map[nutriroutine.MealSlot][]nutriroutine.Entry)
	for _, e := range entries {
		bySlot[e.Slot] = append(bySlot[e.Slot], e)
	}

	sections := make([]string, 0, len(nutriroutine.MealSlots))
	for _, slot := range nutriroutine.MealSlots {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s:", slot.Emoji(), slot)
		if len(bySlot[slot]) == 0 {
			b.WriteString("\n- No hay alimentos registrados")
		}
		for _, e := range bySlot[slot] {
			fmt.Fprintf(&b, "\n- %s", e.FoodName)
			if e.Quantity != "" {
				fmt.Fprintf(&b, " (%s)", strings.TrimSpace(e.Quantity+" "+e.Unit))
			}
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

// viewRoutine shows the routine recorded on date (empty means today) and enters
// VIEWING_ROUTINE so that unrelated messages redisplay it.
func (s *Service) viewRoutine(ctx context.Context, st dialogue.State, in dialogue.Input, date string) dialogue.Outcome {
	today := in.Now.Format(parse.DateLayout)
	isToday := date == "" || date == today
	day := date
	if isToday {
		day = today
	}

	entries, err := entriesOn(ctx, s.catalog, st.UserID, day, in.Now)
	if err != nil {
		slog.Error("CHAT: Failed to load routine", "user_id", st.UserID, "date", day, "error", err)
		return dialogue.Outcome{Next: st, Reply: msgCatalogDown, Intent: nutriroutine.IntentModifyRoutine}
	}

	greeting := hello(profileName(in.Profile))
	var parts []string
	switch {
	case len(entries) > 0 && isToday:
		parts = []string{greeting + " Aquí tienes tu rutina nutricional de hoy:", RoutineView(entries), msgTodayOptions}
	case len(entries) > 0:
		parts = []string{greeting + " Aquí tienes tu rutina nutricional del " + day + ":", RoutineView(entries), msgInitialMenu}
	case isToday:
		parts = []string{greeting, msgNoEntriesToday, msgTodayOptions}
	default:
		parts = []string{
			greeting,
			"📝 **No tienes una rutina registrada para el " + day + "**\n\nNo se encontraron alimentos registrados para esa fecha.",
			msgInitialMenu,
		}
	}

	next := st.Reset()
	next.Step = dialogue.StepViewingRoutine
	if !isToday {
		next.ViewingDate = day
	}
	slog.Info("CHAT: Showing routine", "user_id", st.UserID, "date", day, "entries", len(entries))
	return dialogue.Outcome{Next: next, Reply: strings.Join(parts, "\n\n"), Intent: nutriroutine.IntentModifyRoutine}
}

// dateError explains how to ask for a routine after a date failed validation.
func dateError(name string, err error) string {
	var dateErr *parse.DateError
	if errors.As(err, &dateErr) && dateErr.Kind == parse.DateRange {
		return hello(name) + "\n\n" + fmt.Sprintf(msgDateRange, dateErr.Year)
	}
	return hello(name) + "\n\n" + msgDateInvalid
}

// dateGuidance answers a message that is only a date.
func dateGuidance(name string) string {
	return hello(name) + "\n\n" + msgDateHowTo
}
