package chat

import (
	"strings"
	"testing"

	"nutriroutine"

	"github.com/stretchr/testify/assert"
)

func TestCannedAnswer(t *testing.T) {
	tests := []struct {
		name    string
		message string
		prefix  string
	}{
		{name: "rice", message: "¿El arroz integral es bueno?", prefix: "¡Sí, el arroz integral es excelente!"},
		{name: "quinoa", message: "quinoa", prefix: "La quinoa es un superalimento"},
		{name: "oats", message: "Me gusta la AVENA", prefix: "La avena es fantástica"},
		{name: "carbs plural", message: "qué son los carbohidratos", prefix: "Los carbohidratos son la principal"},
		{name: "protein without accent", message: "necesito proteina", prefix: "Las proteínas son esenciales"},
		{name: "fat", message: "¿las grasas engordan?", prefix: "Las grasas son importantes"},
		{name: "calories", message: "¿cuántas calorías como?", prefix: "Las calorías son la energía"},
		{name: "breakfast", message: "ideas de desayuno", prefix: "El desayuno es muy importante"},
		{name: "lunch", message: "almuerzo rápido", prefix: "El almuerzo debe ser balanceado"},
		{name: "dinner", message: "qué como en la cena", prefix: "La cena debe ser más ligera"},
		{name: "water", message: "¿cuánta agua tomo?", prefix: "El agua es esencial"},
		{name: "avocado is not water", message: "aguacate", prefix: "Entiendo tu consulta"},
		{name: "fruit", message: "frutas de temporada", prefix: "Las frutas son excelentes"},
		{name: "vegetables", message: "vegetales verdes", prefix: "Las verduras son fundamentales"},
		{name: "muscle", message: "quiero ganar masa muscular", prefix: "Para ganar masa muscular"},
		{name: "weight loss", message: "quiero perder peso", prefix: "Para perder peso"},
		{name: "diet", message: "¿qué dieta sigo?", prefix: "Una dieta equilibrada"},
		{name: "vitamins", message: "vitaminas para el invierno", prefix: "Las vitaminas y minerales"},
		{name: "nutrition", message: "háblame de nutrición", prefix: "La nutrición es fundamental"},
		{name: "first keyword wins", message: "arroz con proteína", prefix: "¡Sí, el arroz integral"},
		{name: "default", message: "¿qué opinas del clima?", prefix: "Entiendo tu consulta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CannedAnswer(tt.message)
			assert.True(t, strings.HasPrefix(got, tt.prefix), "got %q", got)
		})
	}
}

func TestDetermineIntent(t *testing.T) {
	tests := []struct {
		message string
		want    nutriroutine.IntentKind
	}{
		{message: "Generar rutina", want: nutriroutine.IntentModifyRoutine},
		{message: "quiero añadir pan", want: nutriroutine.IntentModifyRoutine},
		{message: "quitar el azúcar", want: nutriroutine.IntentModifyRoutine},
		{message: "mi rutina de hoy", want: nutriroutine.IntentModifyRoutine},
		{message: "¿cuántas calorías tiene?", want: nutriroutine.IntentNutritionQuestion},
		{message: "¿qué ceno?", want: nutriroutine.IntentOther},
		{message: "ideas para la cena", want: nutriroutine.IntentNutritionQuestion},
		{message: "alimentos con hierro", want: nutriroutine.IntentNutritionQuestion},
		{message: "hola", want: nutriroutine.IntentOther},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineIntent(tt.message))
		})
	}
}

func TestDetermineAction(t *testing.T) {
	tests := []struct {
		message string
		want    nutriroutine.ActionKind
	}{
		{message: "agregar leche", want: nutriroutine.ActionAdd},
		{message: "Añadir fruta", want: nutriroutine.ActionAdd},
		{message: "eliminar el pan", want: nutriroutine.ActionDelete},
		{message: "sacar los dulces", want: nutriroutine.ActionDelete},
		{message: "cambiar la cena", want: nutriroutine.ActionModify},
		{message: "¿qué es la fibra?", want: nutriroutine.ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineAction(tt.message))
		})
	}
}

func TestParseIntentHint(t *testing.T) {
	k, ok := parseIntentHint(" pregunta_nutricional ")
	assert.True(t, ok)
	assert.Equal(t, nutriroutine.IntentNutritionQuestion, k)

	_, ok = parseIntentHint("saludo")
	assert.False(t, ok)
}
