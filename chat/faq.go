package chat

import (
	"strings"

	"nutriroutine"
	"nutriroutine/parse"
)

type cannedAnswer struct {
	keywords []string
	answer   string
}

// cannedAnswers are checked in order; the first entry with a matching keyword wins.
// Keywords are normalized. Single words must match a whole word, phrases match anywhere.
var cannedAnswers = []cannedAnswer{
	{
		keywords: []string{"arroz"},
		answer:   "¡Sí, el arroz integral es excelente! Es mucho mejor que el arroz blanco porque conserva la fibra, vitaminas y minerales. Te da energía sostenida y ayuda con la digestión. Es una excelente fuente de carbohidratos complejos. ¿Te gustaría saber cómo incluirlo en tus comidas?",
	},
	{
		keywords: []string{"quinoa", "quinua"},
		answer:   "La quinoa es un superalimento completo. Tiene proteínas de alta calidad, fibra, vitaminas y minerales. Es perfecta para vegetarianos y veganos. ¿Te interesa saber cómo prepararla?",
	},
	{
		keywords: []string{"avena", "oatmeal"},
		answer:   "La avena es fantástica para el desayuno. Tiene fibra soluble que ayuda a controlar el colesterol y te da energía duradera. Es rica en proteínas y te mantiene saciado. ¿Quieres ideas de cómo prepararla?",
	},
	{
		keywords: []string{"carbohidrato", "carbohidratos"},
		answer:   "Los carbohidratos son la principal fuente de energía para tu cuerpo. Se dividen en simples (azúcares) y complejos (almidones). Los complejos como el arroz integral, la avena y la quinoa son mejores porque te dan energía sostenida. ¿Te gustaría saber más sobre cómo incluirlos en tu dieta?",
	},
	{
		keywords: []string{"proteina", "proteinas"},
		answer:   "Las proteínas son esenciales para construir y reparar músculos. Las encuentras en carnes, pescados, huevos, legumbres y lácteos. Para una dieta balanceada, incluye proteína en cada comida. ¿Necesitas sugerencias de fuentes de proteína específicas?",
	},
	{
		keywords: []string{"grasa", "grasas"},
		answer:   "Las grasas son importantes para tu salud, especialmente las buenas como el aguacate, las nueces, el aceite de oliva y los pescados grasos. Evita las grasas trans y consume grasas saturadas con moderación. ¿Quieres saber qué grasas incluir en tu dieta?",
	},
	{
		keywords: []string{"caloria", "calorias"},
		answer:   "Las calorías son la energía que necesita tu cuerpo. Para mantener un peso saludable necesitas equilibrar las calorías que consumes con las que gastas. ¿Te gustaría que te ayude a calcular tus necesidades calóricas?",
	},
	{
		keywords: []string{"desayuno"},
		answer:   "El desayuno es muy importante para empezar el día con energía. Un buen desayuno incluye proteínas, carbohidratos complejos y algo de grasa saludable. ¿Te gustaría sugerencias específicas para tu desayuno?",
	},
	{
		keywords: []string{"almuerzo"},
		answer:   "El almuerzo debe ser balanceado con proteínas, carbohidratos y verduras. Es la comida principal del día, así que asegúrate de incluir todos los macronutrientes. ¿Necesitas ideas para tu almuerzo?",
	},
	{
		keywords: []string{"cena"},
		answer:   "La cena debe ser más ligera que el almuerzo. Incluye proteínas magras con verduras y una porción moderada de carbohidratos. Evita comidas muy pesadas antes de dormir. ¿Qué te gustaría cenar hoy?",
	},
	{
		keywords: []string{"agua", "hidratacion"},
		answer:   "El agua es esencial para tu cuerpo. Se recomienda beber al menos 8 vasos de agua al día, más si haces ejercicio. ¿Estás bebiendo suficiente agua durante el día?",
	},
	{
		keywords: []string{"fruta", "frutas"},
		answer:   "Las frutas son excelentes fuentes de vitaminas, minerales y fibra. Son naturales, bajas en calorías y te dan energía. ¿Te gustaría saber cuáles son las mejores frutas para incluir en tu dieta?",
	},
	{
		keywords: []string{"verdura", "verduras", "vegetales"},
		answer:   "Las verduras son fundamentales para una dieta saludable. Tienen pocas calorías, mucha fibra, vitaminas y minerales. ¿Quieres saber cómo incluir más verduras en tus comidas?",
	},
	{
		keywords: []string{"masa muscular", "ganar musculo", "musculo"},
		answer:   "Para ganar masa muscular necesitas un excedente calórico y suficiente proteína. Te recomiendo 1.6 a 2.2 g de proteína por kg de peso, carbohidratos para energía y entrenamiento de fuerza. ¿Te gustaría un plan de alimentación para ganar músculo?",
	},
	{
		keywords: []string{"perder peso", "bajar peso", "adelgazar"},
		answer:   "Para perder peso de forma saludable necesitas un déficit calórico moderado (300 a 500 calorías menos al día), proteína suficiente para mantener el músculo y ejercicio regular. ¿Quieres que te ayude con un plan específico?",
	},
	{
		keywords: []string{"dieta", "alimentacion"},
		answer:   "Una dieta equilibrada incluye proteínas, carbohidratos complejos, grasas saludables, frutas y verduras. ¿Tienes algún objetivo específico como ganar músculo, perder peso o mantener tu peso actual?",
	},
	{
		keywords: []string{"vitamina", "vitaminas", "minerales"},
		answer:   "Las vitaminas y minerales son micronutrientes esenciales. Las frutas y verduras son las mejores fuentes. ¿Te gustaría saber sobre alguna vitamina específica o cómo obtener más micronutrientes?",
	},
	{
		keywords: []string{"nutricion", "alimentacion saludable"},
		answer:   "La nutrición es fundamental para tu salud. Una alimentación balanceada incluye todos los macronutrientes: proteínas para los músculos, carbohidratos para la energía y grasas saludables. ¿Hay algún aspecto específico que te interese?",
	},
}

const defaultCannedAnswer = "Entiendo tu consulta. Como NutriBot, puedo ayudarte con información sobre nutrición, macronutrientes, planificación de comidas y consejos para una alimentación saludable. ¿Hay algo específico sobre nutrición que te gustaría saber?"

func mentions(norm, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(norm, keyword)
	}
	return parse.HasWord(norm, keyword)
}

// CannedAnswer returns the keyword-triggered answer for a nutrition question.
func CannedAnswer(message string) string {
	norm := parse.Normalize(message)
	for _, c := range cannedAnswers {
		for _, kw := range c.keywords {
			if mentions(norm, kw) {
				return c.answer
			}
		}
	}
	return defaultCannedAnswer
}

var (
	routineWords = []string{
		"generar rutina", "agregar", "anadir", "incluir", "poner",
		"eliminar", "quitar", "remover", "sacar",
		"cambiar", "modificar", "intercambiar", "rutina",
	}
	nutritionWords = []string{
		"calorias", "nutricional", "proteina", "carbohidrato", "grasa", "vitamina", "mineral", "nutriente",
		"desayuno", "almuerzo", "cena", "snack", "comida", "aliment",
		"dieta", "peso", "salud", "nutricion",
	}
	addWords    = []string{"agregar", "anadir", "incluir", "poner"}
	deleteWords = []string{"eliminar", "quitar", "remover", "sacar"}
	modifyWords = []string{"cambiar", "modificar", "intercambiar"}
)

// DetermineIntent classifies a message that no flow handled.
func DetermineIntent(message string) nutriroutine.IntentKind {
	norm := parse.Normalize(message)
	switch {
	case parse.ContainsAny(norm, routineWords...):
		return nutriroutine.IntentModifyRoutine
	case parse.ContainsAny(norm, nutritionWords...):
		return nutriroutine.IntentNutritionQuestion
	}
	return nutriroutine.IntentOther
}

// DetermineAction names the routine change a message asks for, if any.
func DetermineAction(message string) nutriroutine.ActionKind {
	norm := parse.Normalize(message)
	switch {
	case parse.ContainsAny(norm, addWords...):
		return nutriroutine.ActionAdd
	case parse.ContainsAny(norm, deleteWords...):
		return nutriroutine.ActionDelete
	case parse.ContainsAny(norm, modifyWords...):
		return nutriroutine.ActionModify
	}
	return nutriroutine.ActionNone
}

// parseIntentHint accepts a caller-supplied intent when it names a known kind.
func parseIntentHint(hint string) (nutriroutine.IntentKind, bool) {
	for _, k := range []nutriroutine.IntentKind{
		nutriroutine.IntentModifyRoutine,
		nutriroutine.IntentNutritionQuestion,
		nutriroutine.IntentOther,
	} {
		if strings.EqualFold(strings.TrimSpace(hint), string(k)) {
			return k, true
		}
	}
	return "", false
}
