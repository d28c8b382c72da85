package recommend

import (
	"strings"

	"nutriroutine"
	"nutriroutine/parse"
)

var (
	meatWords    = []string{"pollo", "pavo", "res", "carne", "cerdo", "jamon", "tocino", "chorizo", "salchicha", "cordero", "ternera", "lomo", "pechuga", "chicken", "beef", "pork", "turkey"}
	fishWords    = []string{"pescado", "salmon", "atun", "tilapia", "sardina", "camaron", "marisco", "bacalao", "merluza", "trucha", "fish", "tuna", "shrimp"}
	eggWords     = []string{"huevo", "clara", "egg"}
	dairyWords   = []string{"leche", "queso", "yogur", "yogurt", "mantequilla", "crema", "kefir", "requeson", "milk", "cheese"}
	honeyWords   = []string{"miel", "honey"}
	glutenWords  = []string{"trigo", "pan", "harina", "pasta", "galleta", "cebada", "centeno", "cuscus", "seitan", "espagueti", "bread", "wheat"}
	stapleWords  = []string{"arroz", "pan", "pasta", "papa", "tortilla", "azucar", "arepa", "espagueti", "rice", "bread", "potato"}
	liquidWords  = []string{"leche", "jugo", "agua", "bebida", "te", "cafe", "batido", "caldo", "sopa", "smoothie", "juice", "milk"}
	vegWords     = []string{"brocoli", "espinaca", "zanahoria", "lechuga", "ensalada", "tomate", "pepino", "calabacin", "verdura", "acelga", "coliflor", "pimiento", "cebolla", "esparrago", "berenjena", "repollo", "kale"}
	fruitWords   = []string{"manzana", "banano", "banana", "platano", "fresa", "pera", "naranja", "mango", "papaya", "pina", "uva", "sandia", "melon", "kiwi", "arandano", "fruta", "durazno", "mandarina"}
	nutWords     = []string{"almendra", "nuez", "nueces", "mani", "cacahuate", "semilla", "chia", "linaza", "pistacho", "maranon", "avellana"}
	grainWords   = []string{"arroz", "avena", "quinoa", "trigo", "pasta", "pan", "cereal", "maiz", "granola", "tortilla", "arepa", "cuscus"}
	legumeWords  = []string{"lenteja", "garbanzo", "frijol", "judia", "haba", "arveja", "soya", "soja", "edamame"}
	tuberWords   = []string{"papa", "batata", "camote", "yuca", "patata"}
	breadyWords  = []string{"pan", "avena", "granola", "cereal", "tostada", "arepa"}
	solidDairyWs = []string{"queso", "yogur", "yogurt", "requeson"}
)

// nameHas reports whether any word of the food name is one of the keywords or its plural.
func nameHas(f nutriroutine.Food, keywords []string) bool {
	for _, w := range strings.Fields(parse.Normalize(f.Name)) {
		for _, kw := range keywords {
			if w == kw || w == kw+"s" || w == kw+"es" {
				return true
			}
		}
	}
	return false
}

func categoryHas(f nutriroutine.Food, fragments ...string) bool {
	return parse.ContainsAny(parse.Normalize(f.Category), fragments...)
}

func isMeat(f nutriroutine.Food) bool   { return nameHas(f, meatWords) || categoryHas(f, "carne") }
func isFish(f nutriroutine.Food) bool   { return nameHas(f, fishWords) || categoryHas(f, "pescado", "marisco") }
func isEgg(f nutriroutine.Food) bool    { return nameHas(f, eggWords) }
func isDairy(f nutriroutine.Food) bool  { return nameHas(f, dairyWords) || categoryHas(f, "lacteo") }
func isHoney(f nutriroutine.Food) bool  { return nameHas(f, honeyWords) }
func isGluten(f nutriroutine.Food) bool { return nameHas(f, glutenWords) }
func isStaple(f nutriroutine.Food) bool { return nameHas(f, stapleWords) }
func isLiquid(f nutriroutine.Food) bool {
	return nameHas(f, liquidWords) || categoryHas(f, "bebida")
}
func isVegetable(f nutriroutine.Food) bool {
	return nameHas(f, vegWords) || categoryHas(f, "verdura", "vegetal", "hortaliza")
}
func isFruit(f nutriroutine.Food) bool {
	return nameHas(f, fruitWords) || (categoryHas(f, "fruta") && !categoryHas(f, "frutos secos"))
}
func isNut(f nutriroutine.Food) bool {
	return nameHas(f, nutWords) || categoryHas(f, "frutos secos", "semilla")
}
func isGrain(f nutriroutine.Food) bool {
	return nameHas(f, grainWords) || categoryHas(f, "cereal", "grano")
}
func isLegume(f nutriroutine.Food) bool {
	return nameHas(f, legumeWords) || categoryHas(f, "legumbre")
}
func isTuber(f nutriroutine.Food) bool {
	return nameHas(f, tuberWords) || categoryHas(f, "tuberculo")
}

// isProteinDominant holds when protein supplies at least as many calories as carbs
// and a fair share compared to fat.
func isProteinDominant(f nutriroutine.Food) bool {
	return f.Protein >= 8 && f.Protein >= f.Carbs && f.Protein*4 >= f.Fat*9*0.5
}

func isCarbRich(f nutriroutine.Food) bool { return f.Carbs >= 20 }

func isComplexCarb(f nutriroutine.Food) bool {
	return (isGrain(f) || isTuber(f) || isLegume(f)) && f.Carbs >= 15 && f.Sugar < 10
}

func isFiberSource(f nutriroutine.Food) bool {
	return isVegetable(f) || isFruit(f) || f.Fiber >= 3
}

func isHighFat(f nutriroutine.Food) bool  { return f.Fat >= 15 }
func isHighCarb(f nutriroutine.Food) bool { return f.Carbs >= 30 }
func isLowFiber(f nutriroutine.Food) bool { return f.Fiber < 3 }
