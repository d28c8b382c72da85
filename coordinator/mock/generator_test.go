package mock

import (
	"context"
	"testing"
	"time"

	"nutriroutine"
	"nutriroutine/catalog/catalogtest"
	"nutriroutine/recommend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request() nutriroutine.RoutineRequest {
	return nutriroutine.RoutineRequest{
		Profile: catalogtest.Profile(),
		Foods:   catalogtest.Foods(),
		Units:   catalogtest.NewMemory().ListValidUnits,
	}
}

func TestDraft(t *testing.T) {
	text, err := Draft(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, `Desayuno:
- Avena – 100.0 gramos
- Arroz integral – 100.0 gramos
Almuerzo:
- Quinoa – 100.0 gramos
- Pan integral – 100.0 gramos
Cena:
- Pechuga de pollo – 100.0 gramos
- Salmón – 100.0 gramos
Snack:
- Atún – 100.0 gramos
- Huevo – 1 unidad`, text)

	items := recommend.ParseRoutineText(text, catalogtest.Foods())
	assert.Len(t, items, 8)
}

func TestDraftNeedsEnoughFoods(t *testing.T) {
	req := request()
	req.Foods = req.Foods[:5]
	_, err := Draft(context.Background(), req)
	assert.ErrorIs(t, err, nutriroutine.ErrGenerationUnavailable)
}

func TestGeneratorReplaysRoutines(t *testing.T) {
	g := &Generator{Routines: []string{"Desayuno:\n- Avena – 60.0 gramos"}}
	ctx := context.Background()

	first, err := g.GenerateRoutineText(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, "Desayuno:\n- Avena – 60.0 gramos", first)

	second, err := g.GenerateRoutineText(ctx, request())
	require.NoError(t, err)
	assert.Contains(t, second, "- Avena – 100.0 gramos")
	assert.Len(t, g.RoutineRequests(), 2)
}

func TestGeneratorAnswers(t *testing.T) {
	g := &Generator{}
	answer, err := g.GenerateFreeformAnswer(context.Background(), "¿Cuánta fibra necesito?", catalogtest.Profile(), nil)
	require.NoError(t, err)
	assert.Contains(t, answer, "Ana")
	assert.Equal(t, []string{"¿Cuánta fibra necesito?"}, g.Questions())

	g.Answer = "Unos 25 g al día."
	answer, err = g.GenerateFreeformAnswer(context.Background(), "otra", catalogtest.Profile(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Unos 25 g al día.", answer)
}

func TestGeneratorErrorsAndDelay(t *testing.T) {
	g := &Generator{Err: assert.AnError}
	_, err := g.GenerateRoutineText(context.Background(), request())
	assert.ErrorIs(t, err, assert.AnError)

	slow := &Generator{Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = slow.GenerateFreeformAnswer(ctx, "hola", catalogtest.Profile(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
