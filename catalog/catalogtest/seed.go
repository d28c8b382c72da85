// Package catalogtest provides a realistic catalog seed for tests.
package catalogtest

import (
	"time"

	"nutriroutine"
	"nutriroutine/catalog"
)

// UserID is the id of the profile included in Seed.
const UserID int64 = 7

func food(id int64, name, category string, kcal, protein, carbs, fat, fiber, sugar float64) nutriroutine.Food {
	return nutriroutine.Food{
		ID: id, Name: name, Category: category, BaseQuantity: 100, BaseUnit: "gramos",
		Calories: kcal, Protein: protein, Carbs: carbs, Fat: fat, Fiber: fiber, Sugar: sugar,
	}
}

// Foods returns the sample foods. Macros are per 100 g.
func Foods() []nutriroutine.Food {
	return []nutriroutine.Food{
		food(1, "Avena", "Cereales", 389, 17, 66, 7, 10, 1),
		food(2, "Arroz integral", "Cereales", 111, 2.6, 23, 0.9, 1.8, 0.4),
		food(3, "Quinoa", "Cereales", 120, 4.4, 21, 1.9, 2.8, 0.9),
		food(4, "Pan integral", "Cereales", 247, 13, 41, 3.4, 7, 6),
		food(5, "Pechuga de pollo", "Proteínas", 165, 31, 0, 3.6, 0, 0),
		food(6, "Salmón", "Proteínas", 208, 20, 0, 13, 0, 0),
		food(7, "Atún", "Proteínas", 132, 28, 0, 1, 0, 0),
		food(8, "Huevo", "Proteínas", 155, 13, 1.1, 11, 0, 1.1),
		food(9, "Carne de res", "Proteínas", 250, 26, 0, 15, 0, 0),
		food(10, "Leche", "Lácteos", 42, 3.4, 5, 1, 0, 5),
		food(11, "Yogur griego", "Lácteos", 59, 10, 3.6, 0.4, 0, 3.2),
		food(12, "Queso fresco", "Lácteos", 98, 11, 3.4, 4.3, 0, 2.7),
		food(13, "Manzana", "Frutas", 52, 0.3, 14, 0.2, 2.4, 10),
		food(14, "Banano", "Frutas", 89, 1.1, 23, 0.3, 2.6, 12),
		food(15, "Fresas", "Frutas", 32, 0.7, 7.7, 0.3, 2, 4.9),
		food(16, "Brócoli", "Verduras", 34, 2.8, 7, 0.4, 2.6, 1.7),
		food(17, "Espinaca", "Verduras", 23, 2.9, 3.6, 0.4, 2.2, 0.4),
		food(18, "Zanahoria", "Verduras", 41, 0.9, 10, 0.2, 2.8, 4.7),
		food(19, "Lentejas", "Legumbres", 116, 9, 20, 0.4, 8, 1.8),
		food(20, "Garbanzos", "Legumbres", 164, 8.9, 27, 2.6, 7.6, 4.8),
		food(21, "Almendras", "Frutos secos", 579, 21, 22, 50, 12.5, 4.4),
		food(22, "Nueces", "Frutos secos", 654, 15, 14, 65, 6.7, 2.6),
		food(23, "Papa", "Tubérculos", 77, 2, 17, 0.1, 2.2, 0.8),
		food(24, "Batata", "Tubérculos", 86, 1.6, 20, 0.1, 3, 4.2),
		food(25, "Tofu", "Proteínas", 76, 8, 1.9, 4.8, 0.3, 0.6),
	}
}

// Units returns the valid units per food id. Foods without an entry accept any unit.
func Units() map[int64][]string {
	return map[int64][]string{
		1:  {"gramos", "taza", "porción"},
		2:  {"gramos", "taza", "porción"},
		3:  {"gramos", "taza", "porción"},
		4:  {"gramos", "rebanada", "porción"},
		5:  {"gramos", "filete", "porción"},
		6:  {"gramos", "filete", "porción"},
		7:  {"gramos", "lata", "porción"},
		8:  {"unidad", "pieza"},
		9:  {"gramos", "filete", "porción"},
		10: {"ml", "vaso", "taza"},
		11: {"gramos", "taza", "porción"},
		12: {"gramos", "porción", "unidad"},
		13: {"pieza", "unidad", "gramos"},
		14: {"pieza", "unidad", "gramos"},
		15: {"taza", "gramos", "unidad"},
		16: {"porción", "taza", "gramos"},
		17: {"porción", "taza", "gramos"},
		18: {"unidad", "porción", "gramos"},
		19: {"taza", "porción", "gramos"},
		20: {"taza", "porción", "gramos"},
		21: {"puñado", "porción", "gramos"},
		22: {"puñado", "porción", "gramos"},
		23: {"unidad", "porción", "gramos"},
		24: {"unidad", "porción", "gramos"},
	}
}

// Profile returns the sample user's profile.
func Profile() nutriroutine.UserProfile {
	return nutriroutine.UserProfile{
		ID:                 UserID,
		Name:               "Ana",
		Sex:                "Femenino",
		BirthDate:          "1995-04-12",
		HeightCm:           165,
		WeightKg:           62,
		TargetWeightKg:     58,
		DietaryRestriction: "Ninguna",
		HealthGoal:         "Perder peso",
		ActivityLevel:      "Moderada",
	}
}

// Seed returns a complete seed with no recorded entries.
func Seed() catalog.Seed {
	return catalog.Seed{
		Foods:    Foods(),
		Units:    Units(),
		Profiles: []nutriroutine.UserProfile{Profile()},
	}
}

// Now is the fixed clock used by tests built on this seed.
func Now() time.Time {
	return time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC)
}

// NewMemory returns a Memory catalog built from Seed with the clock fixed at Now.
func NewMemory() *catalog.Memory {
	return catalog.NewMemory(Seed(), catalog.WithClock(Now))
}
