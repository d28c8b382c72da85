// Package recommend builds personalized daily routines from the food catalog.
package recommend

import (
	"nutriroutine"
	"nutriroutine/parse"
)

type Goal int

const (
	GoalMaintenance Goal = iota
	GoalWeightLoss
	GoalMuscleGain
)

func (g Goal) String() string {
	switch g {
	case GoalWeightLoss:
		return "weight_loss"
	case GoalMuscleGain:
		return "muscle_gain"
	}
	return "maintenance"
}

// ClassifyGoal reads the free-text health goal of a profile.
func ClassifyGoal(text string) Goal {
	t := parse.Normalize(text)
	switch {
	case parse.ContainsAny(t, "ganar", "masa", "musculo", "muscle", "gain", "volumen", "hipertrofia"):
		return GoalMuscleGain
	case parse.ContainsAny(t, "perder", "bajar", "adelgazar", "lose", "loss", "deficit", "reducir peso"):
		return GoalWeightLoss
	}
	return GoalMaintenance
}

type Activity int

const (
	ActivitySedentary Activity = iota
	ActivityLight
	ActivityModerate
	ActivityHigh
	ActivityExtreme
)

// ClassifyActivity reads the free-text activity level. Unknown or empty text is moderate.
func ClassifyActivity(text string) Activity {
	t := parse.Normalize(text)
	switch {
	case parse.ContainsAny(t, "extrem", "muy alta", "muy activ", "atleta", "athlete"):
		return ActivityExtreme
	case parse.ContainsAny(t, "sedentari", "sedentary", "ninguna", "nula"):
		return ActivitySedentary
	case parse.ContainsAny(t, "liger", "leve", "baja", "light", "poca"):
		return ActivityLight
	case parse.ContainsAny(t, "alta", "alto", "intens", "high", "activo", "activa", "very active"):
		return ActivityHigh
	}
	return ActivityModerate
}

// Diet is the set of dietary constraints derived from a profile's restriction text.
type Diet struct {
	Vegetarian  bool
	Vegan       bool
	GlutenFree  bool
	DairyFree   bool
	LowCarb     bool
	Keto        bool
	LowFat      bool
	HighProtein bool
}

func ClassifyDiet(text string) Diet {
	t := parse.Normalize(text)
	var d Diet
	if parse.ContainsAny(t, "vegan") {
		d.Vegan = true
		d.Vegetarian = true
	}
	if parse.ContainsAny(t, "vegetarian") {
		d.Vegetarian = true
	}
	if parse.ContainsAny(t, "sin gluten", "gluten free", "gluten-free", "celiac") {
		d.GlutenFree = true
	}
	if parse.ContainsAny(t, "sin lactosa", "sin lacteos", "dairy free", "dairy-free", "lactose", "intolerante a la lactosa") {
		d.DairyFree = true
	}
	if parse.ContainsAny(t, "keto", "cetogenica") {
		d.Keto = true
		d.LowCarb = true
	}
	if parse.ContainsAny(t, "baja en carbohidratos", "bajo en carbohidratos", "low carb", "low-carb", "lowcarb") {
		d.LowCarb = true
	}
	if parse.ContainsAny(t, "baja en grasa", "bajo en grasa", "low fat", "low-fat") {
		d.LowFat = true
	}
	if parse.ContainsAny(t, "alta en proteina", "alto en proteina", "high protein", "high-protein", "hiperproteica") {
		d.HighProtein = true
	}
	return d
}

// traits bundles the classified parts of a profile used by the engine.
type traits struct {
	goal     Goal
	activity Activity
	diet     Diet
	weightKg float64
}

func traitsOf(p nutriroutine.UserProfile) traits {
	return traits{
		goal:     ClassifyGoal(p.HealthGoal),
		activity: ClassifyActivity(p.ActivityLevel),
		diet:     ClassifyDiet(p.DietaryRestriction),
		weightKg: p.WeightKg,
	}
}
