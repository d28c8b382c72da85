package recommend

import (
	"fmt"
	"math"
	"slices"

	"nutriroutine"
	"nutriroutine/parse"
)

// GramUnit is the label used when a food has no natural unit.
const GramUnit = "gramos"

var metricUnits = []string{"g", "gr", "grs", "gramo", "gramos", "grams", "ml", "mililitro", "mililitros"}

// IsMetricUnit reports whether unit is a gram or millilitre unit, rendered with one decimal.
func IsMetricUnit(unit string) bool {
	return slices.Contains(metricUnits, parse.Normalize(unit))
}

var mealMultiplier = map[nutriroutine.MealSlot]float64{
	nutriroutine.SlotBreakfast: 0.8,
	nutriroutine.SlotLunch:     1.2,
	nutriroutine.SlotDinner:    0.9,
	nutriroutine.SlotSnack:     0.5,
}

var activityMultiplier = map[Activity]float64{
	ActivitySedentary: 0.9,
	ActivityLight:     1.0,
	ActivityModerate:  1.1,
	ActivityHigh:      1.2,
	ActivityExtreme:   1.3,
}

// baseGrams is the reference portion of a food in grams. Foods measured in anything
// other than grams or millilitres use a 100 g reference.
func baseGrams(f nutriroutine.Food) float64 {
	if IsMetricUnit(f.BaseUnit) && f.BaseQuantity > 0 {
		return f.BaseQuantity
	}
	return 100
}

func weightMultiplier(kg float64) float64 {
	if kg <= 0 {
		return 1
	}
	return clamp(kg/70, 0.7, 1.3)
}

func goalMultiplier(g Goal) float64 {
	switch g {
	case GoalWeightLoss:
		return 0.85
	case GoalMuscleGain:
		return 1.15
	}
	return 1
}

// goalMultiplierFor scales the goal multiplier by the food's own content.
func goalMultiplierFor(g Goal, f nutriroutine.Food) float64 {
	m := goalMultiplier(g)
	switch g {
	case GoalWeightLoss:
		if f.Calories > 300 {
			m *= 0.8
		}
		if f.Sugar > 15 || f.Fat > 20 {
			m *= 0.9
		}
	case GoalMuscleGain:
		if f.Protein > 20 {
			m *= 1.1
		}
		if f.Carbs > 40 {
			m *= 1.05
		}
	}
	return m
}

func foodTypeMultiplier(a Activity, f nutriroutine.Food) float64 {
	switch {
	case (a == ActivityHigh || a == ActivityExtreme) && (isCarbRich(f) || isProteinDominant(f)):
		return 1.1
	case a == ActivitySedentary && isCarbRich(f) && isLowFiber(f):
		return 0.9
	}
	return 1
}

func goalBounds(g Goal) (float64, float64) {
	switch g {
	case GoalWeightLoss:
		return 30, 350
	case GoalMuscleGain:
		return 80, 600
	}
	return 30, 500
}

// ComputeQuantity returns the portion of food in grams for the profile and slot.
func ComputeQuantity(f nutriroutine.Food, p nutriroutine.UserProfile, slot nutriroutine.MealSlot) float64 {
	t := traitsOf(p)
	return computeGrams(f, t, slot, goalMultiplier(t.goal))
}

// ComputeReplacementQuantity is ComputeQuantity with the goal multiplier adjusted to the
// food's calories, sugar, fat, protein and carbs. It sizes foods swapped into a routine.
func ComputeReplacementQuantity(f nutriroutine.Food, p nutriroutine.UserProfile, slot nutriroutine.MealSlot) float64 {
	t := traitsOf(p)
	return computeGrams(f, t, slot, goalMultiplierFor(t.goal, f))
}

func computeGrams(f nutriroutine.Food, t traits, slot nutriroutine.MealSlot, goal float64) float64 {
	meal, ok := mealMultiplier[slot]
	if !ok {
		meal = 1
	}
	grams := baseGrams(f) * meal * weightMultiplier(t.weightKg) * goal *
		activityMultiplier[t.activity] * foodTypeMultiplier(t.activity, f)
	lo, hi := goalBounds(t.goal)
	return clamp(grams, lo, hi)
}

// naturalUnits returns the preferred units for a food, most natural first.
func naturalUnits(f nutriroutine.Food) []string {
	switch {
	case isLiquid(f):
		return []string{"vaso", "ml", "taza"}
	case isEgg(f):
		return []string{"unidad", "pieza"}
	case isMeat(f) || isFish(f):
		return []string{"filete", "porción"}
	case isNut(f):
		return []string{"puñado", "porción"}
	case isFruit(f):
		return []string{"pieza", "unidad"}
	case isVegetable(f):
		return []string{"porción", "unidad"}
	case isGrain(f) || isLegume(f):
		return []string{"taza", "porción"}
	case nameHas(f, solidDairyWs):
		return []string{"porción", "unidad"}
	}
	return nil
}

// ResolveUnit picks the most natural unit for food among validUnits. Without any
// natural match it prefers a gram unit, then the first valid unit.
func ResolveUnit(f nutriroutine.Food, validUnits []string) string {
	for _, want := range naturalUnits(f) {
		for _, u := range validUnits {
			if parse.EqualFold(u, want) {
				return u
			}
		}
	}
	for _, u := range validUnits {
		if IsMetricUnit(u) {
			return u
		}
	}
	if len(validUnits) > 0 {
		return validUnits[0]
	}
	return GramUnit
}

// FormatQuantity renders a gram amount in unit. Metric units keep one decimal; other
// units are a whole count of reference portions between 1 and 10.
func FormatQuantity(grams float64, unit string, f nutriroutine.Food) string {
	if IsMetricUnit(unit) {
		return fmt.Sprintf("%.1f", grams)
	}
	count := math.Round(clamp(grams/baseGrams(f), 0.5, 10))
	if count < 1 {
		count = 1
	}
	return fmt.Sprintf("%d", int(count))
}

// formatAmount renders an amount already expressed in unit: one decimal for metric
// units, otherwise a whole count between 1 and 10.
func formatAmount(v float64, unit string) string {
	if IsMetricUnit(unit) {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%d", int(clamp(math.Round(v), 1, 10)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
