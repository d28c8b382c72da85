package router

import (
	"testing"
	"time"

	"nutriroutine"
	"nutriroutine/dialogue"
	"nutriroutine/parse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)

func TestDecide(t *testing.T) {
	r := Default()

	tests := []struct {
		name  string
		text  string
		step  dialogue.Step
		route Route
		rest  string
	}{
		{name: "start routine from idle", text: "Generar rutina", step: dialogue.StepIdle, route: RouteStartRoutine},
		{name: "start routine mid flow", text: "generar rutina", step: dialogue.StepAddFoodUnit, route: RouteStartRoutine},
		{name: "start routine while generated", text: "quiero generar rutina", step: dialogue.StepRoutineGenerated, route: RouteStartRoutine},
		{name: "reprompt on unrelated answer", text: "tal vez", step: dialogue.StepWaitingRoutineConfirmation, route: RouteRepromptRoutine},
		{name: "reprompt shadows commands", text: "agregar alimento", step: dialogue.StepWaitingRoutineConfirmation, route: RouteRepromptRoutine},
		{name: "yes while waiting", text: "Sí", step: dialogue.StepWaitingRoutineConfirmation, route: RouteGenerateRoutine},
		{name: "yes and generate", text: "si, generar", step: dialogue.StepWaitingRoutineConfirmation, route: RouteGenerateRoutine},
		{name: "generate from idle", text: "generar", step: dialogue.StepIdle, route: RouteGenerateRoutine},
		{name: "no while waiting continues flow", text: "no", step: dialogue.StepWaitingRoutineConfirmation, route: RouteContinueFlow},
		{name: "yes inside add confirmation", text: "si", step: dialogue.StepAddConfirmation, route: RouteContinueFlow},
		{name: "regenerate while generated", text: "cambiar rutina", step: dialogue.StepRoutineGenerated, route: RouteRegenerateRoutine},
		{name: "regenerate from idle", text: "dame otra rutina", step: dialogue.StepIdle, route: RouteRegenerateRoutine},
		{name: "regenerate mid flow", text: "rutina diferente por favor", step: dialogue.StepChangeQuantity, route: RouteRegenerateRoutine},
		{name: "change food and routine starts change flow", text: "cambiar alimento y cambiar rutina", step: dialogue.StepIdle, route: RouteStartChangeByCategory},
		{name: "add by category", text: "Agregar alimento", step: dialogue.StepIdle, route: RouteStartAddByCategory},
		{name: "add by category with accent", text: "añadir alimento", step: dialogue.StepIdle, route: RouteStartAddByCategory},
		{name: "add restarts other flow", text: "agregar alimento", step: dialogue.StepChangeUnit, route: RouteStartAddByCategory},
		{name: "add inside own confirmation", text: "agregar alimento", step: dialogue.StepAddFoodConfirmation, route: RouteContinueFlow},
		{name: "change by category", text: "modificar alimento", step: dialogue.StepIdle, route: RouteStartChangeByCategory},
		{name: "change food inside generated routine", text: "cambiar alimento", step: dialogue.StepRoutineGenerated, route: RouteContinueFlow},
		{name: "change inside own confirmation", text: "cambiar alimento", step: dialogue.StepChangeConfirmationNew, route: RouteContinueFlow},
		{name: "add free text", text: "agregar una Manzana", step: dialogue.StepIdle, route: RouteStartAddFreeText, rest: "Manzana"},
		{name: "add free text bare", text: "añadir", step: dialogue.StepIdle, route: RouteStartAddFreeText},
		{name: "change free text", text: "cambiar el arroz integral", step: dialogue.StepIdle, route: RouteStartChangeFreeText, rest: "arroz integral"},
		{name: "affirmation inside change confirmation", text: "cambiar", step: dialogue.StepChangeConfirmation, route: RouteContinueFlow},
		{name: "active flow", text: "150", step: dialogue.StepAddFoodQuantity, route: RouteContinueFlow},
		{name: "finalize in generated routine", text: "finalizar", step: dialogue.StepRoutineGenerated, route: RouteContinueFlow},
		{name: "finalize without routine", text: "finalizar", step: dialogue.StepIdle, route: RouteNothingToSave},
		{name: "view routine", text: "ver rutina", step: dialogue.StepIdle, route: RouteViewRoutine},
		{name: "bare date", text: "2025-10-01", step: dialogue.StepIdle, route: RouteDateGuidance},
		{name: "bare slash date", text: "01/10/2025", step: dialogue.StepIdle, route: RouteDateGuidance},
		{name: "question", text: "¿Cuántas proteínas necesito?", step: dialogue.StepIdle, route: RouteFreeform},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Decide(tt.text, tt.step, now)
			assert.Equal(t, tt.route, d.Route, "rule %s", d.Rule)
			assert.Equal(t, tt.rest, d.Rest)
			assert.False(t, d.ExitViewing)
		})
	}
}

func TestDecideWhileViewing(t *testing.T) {
	r := Default()

	tests := []struct {
		name  string
		text  string
		route Route
		exit  bool
	}{
		{name: "command exits viewing", text: "agregar alimento", route: RouteStartAddByCategory, exit: true},
		{name: "another date", text: "ver rutina 2025-10-01", route: RouteViewRoutine, exit: true},
		{name: "anything else redisplays", text: "hola", route: RouteRedisplayRoutine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Decide(tt.text, dialogue.StepViewingRoutine, now)
			assert.Equal(t, tt.route, d.Route)
			assert.Equal(t, tt.exit, d.ExitViewing)
		})
	}
}

func TestViewRoutineDates(t *testing.T) {
	r := Default()

	tests := []struct {
		name    string
		text    string
		date    string
		wantErr bool
		errKind parse.DateErrorKind
	}{
		{name: "today", text: "ver rutina", date: ""},
		{name: "today by word", text: "rutina de hoy", date: ""},
		{name: "iso", text: "ver rutina 2025-10-01", date: "2025-10-01"},
		{name: "slash", text: "ver rutina 1/10/2025", date: "2025-10-01"},
		{name: "yesterday", text: "mostrar rutina de ayer", date: "2025-10-04"},
		{name: "month name", text: "ver rutina del 3 de octubre", date: "2025-10-03"},
		{name: "bad format", text: "ver rutina 2031-13-40", wantErr: true, errKind: parse.DateFormat},
		{name: "out of range", text: "ver rutina 1874-01-01", wantErr: true, errKind: parse.DateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Decide(tt.text, dialogue.StepIdle, now)
			require.Equal(t, RouteViewRoutine, d.Route)
			assert.Equal(t, tt.date, d.Date)
			if !tt.wantErr {
				assert.NoError(t, d.DateErr)
				return
			}
			var dateErr *parse.DateError
			require.ErrorAs(t, d.DateErr, &dateErr)
			assert.Equal(t, tt.errKind, dateErr.Kind)
		})
	}

	d := r.Decide("ver rutina 1874-01-01", dialogue.StepIdle, now)
	assert.ErrorIs(t, d.DateErr, nutriroutine.ErrValidation)
}

func TestRulePriorityOrder(t *testing.T) {
	r := New(
		Rule{Name: "late", Priority: 20, Match: func(Message) bool { return true }, Route: route(RouteFreeform)},
		Rule{Name: "early", Priority: 10, Match: func(Message) bool { return true }, Route: route(RouteViewRoutine)},
	)

	d := r.Decide("anything", dialogue.StepIdle, now)
	assert.Equal(t, "early", d.Rule)
	assert.Equal(t, RouteViewRoutine, d.Route)
	assert.Equal(t, []string{"early", "late"}, []string{r.Rules()[0].Name, r.Rules()[1].Name})
}

func TestRegenerateBeatsChangeFood(t *testing.T) {
	r := Default()
	for _, step := range []dialogue.Step{dialogue.StepIdle, dialogue.StepRoutineGenerated, dialogue.StepViewingRoutine, dialogue.StepAddShowFoods} {
		d := r.Decide("cambiar rutina", step, now)
		assert.Equal(t, RouteRegenerateRoutine, d.Route, "step %s", step)
	}
}
