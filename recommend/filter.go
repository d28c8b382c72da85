package recommend

import (
	"cmp"
	"slices"

	"nutriroutine"
)

// FilterByDiet drops foods the diet excludes. High-protein diets keep every food but
// move the richest protein sources first.
func FilterByDiet(foods []nutriroutine.Food, d Diet) []nutriroutine.Food {
	out := make([]nutriroutine.Food, 0, len(foods))
	for _, f := range foods {
		if allowedByDiet(f, d) {
			out = append(out, f)
		}
	}
	if d.HighProtein {
		slices.SortStableFunc(out, func(a, b nutriroutine.Food) int { return cmp.Compare(b.Protein, a.Protein) })
	}
	return out
}

func allowedByDiet(f nutriroutine.Food, d Diet) bool {
	switch {
	case d.Vegetarian && (isMeat(f) || isFish(f)):
		return false
	case d.Vegan && (isEgg(f) || isDairy(f) || isHoney(f)):
		return false
	case d.GlutenFree && isGluten(f):
		return false
	case d.DairyFree && isDairy(f):
		return false
	case d.Keto && f.Carbs >= 10:
		return false
	case d.LowCarb && (f.Carbs >= 30 || isStaple(f)):
		return false
	case d.LowFat && f.Fat >= 15:
		return false
	}
	return true
}

// SlotAppropriate reports whether a food is a natural fit for a meal slot.
func SlotAppropriate(f nutriroutine.Food, slot nutriroutine.MealSlot) bool {
	switch slot {
	case nutriroutine.SlotBreakfast:
		return isEgg(f) || nameHas(f, breadyWords) || isDairy(f) || isFruit(f)
	case nutriroutine.SlotLunch, nutriroutine.SlotDinner:
		return isMeat(f) || isFish(f) || isVegetable(f) || isLegume(f) || isTuber(f) ||
			(isGrain(f) && !nameHas(f, breadyWords)) ||
			(isProteinDominant(f) && !isDairy(f) && !isEgg(f))
	case nutriroutine.SlotSnack:
		return isFruit(f) || isNut(f) || isDairy(f)
	}
	return false
}

// FilterBySlot keeps the foods that fit the slot. When fewer than want remain the
// unfiltered set is returned.
func FilterBySlot(foods []nutriroutine.Food, slot nutriroutine.MealSlot, want int) []nutriroutine.Food {
	return relaxed(foods, want, func(f nutriroutine.Food) bool { return SlotAppropriate(f, slot) })
}

// FilterByGoal applies the goal's calorie and macro limits, relaxing to the input
// when fewer than want remain.
func FilterByGoal(foods []nutriroutine.Food, g Goal, want int) []nutriroutine.Food {
	switch g {
	case GoalWeightLoss:
		out := relaxed(foods, want, func(f nutriroutine.Food) bool {
			return f.Calories < 400 && !(isHighFat(f) && isHighCarb(f))
		})
		// Coarse bands keep the incoming order among similar foods.
		band := func(f nutriroutine.Food) int { return int((f.Fiber + f.Protein) / 10) }
		slices.SortStableFunc(out, func(a, b nutriroutine.Food) int { return cmp.Compare(band(b), band(a)) })
		return out
	case GoalMuscleGain:
		return relaxed(foods, want, func(f nutriroutine.Food) bool {
			return (f.Protein > 15 || f.Carbs > 20) && f.Calories > 100
		})
	}
	return foods
}

func relaxed(foods []nutriroutine.Food, want int, keep func(nutriroutine.Food) bool) []nutriroutine.Food {
	out := make([]nutriroutine.Food, 0, len(foods))
	for _, f := range foods {
		if keep(f) {
			out = append(out, f)
		}
	}
	if len(out) < want {
		return slices.Clone(foods)
	}
	return out
}

// Alternatives lists replacement candidates for a routine slot, excluding foods whose
// names are already taken.
func Alternatives(foods []nutriroutine.Food, profile nutriroutine.UserProfile, slot nutriroutine.MealSlot, taken []string) []nutriroutine.Food {
	t := traitsOf(profile)
	used := nameSet(taken)
	var pool []nutriroutine.Food
	for _, f := range FilterByDiet(foods, t.diet) {
		if !used[normName(f.Name)] {
			pool = append(pool, f)
		}
	}
	return FilterBySlot(pool, slot, 1)
}
