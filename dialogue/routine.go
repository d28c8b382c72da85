package dialogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"nutriroutine"
	"nutriroutine/parse"
	"nutriroutine/recommend"
)

// maxAlternatives caps the replacement options offered for a routine item.
const maxAlternatives = 8

func modify(out Outcome, action nutriroutine.ActionKind) Outcome {
	out.Intent = nutriroutine.IntentModifyRoutine
	out.Action = action
	return out
}

// StartRoutine shows the registered profile and asks whether to generate a routine.
func StartRoutine(s State, in Input) Outcome {
	if in.Profile == nil {
		return modify(Outcome{Next: s.Reset(), Reply: msgNoProfile}, nutriroutine.ActionNone)
	}
	next := s.Reset()
	next.Step = StepWaitingRoutineConfirmation
	reply := Greeting(in.Profile.Name) + ProfileSummary(*in.Profile, in.Now) + "\n\n" + msgRoutinePrompt
	return modify(Outcome{Next: next, Reply: reply}, nutriroutine.ActionNone)
}

// RepromptRoutine repeats the generate/decline options.
func RepromptRoutine(s State) Outcome {
	return modify(stay(s, msgRoutineReprompt), nutriroutine.ActionNone)
}

// RequestRoutine asks the caller to run the engine. The result is fed back through
// RoutineGenerated.
func RequestRoutine(s State, in Input, regenerate bool) Outcome {
	if in.Profile == nil {
		return modify(Outcome{Next: s.Reset(), Reply: msgNoProfile}, nutriroutine.ActionNone)
	}
	return modify(Outcome{Next: s, Effects: []Effect{GenerateRoutine{Regenerate: regenerate}}}, nutriroutine.ActionNone)
}

// RoutineGenerated presents an engine result and enters ROUTINE_GENERATED.
func RoutineGenerated(s State, in Input, res recommend.RoutineResult) Outcome {
	if !res.Success || len(res.Items) == 0 {
		return modify(Outcome{Next: s.Reset(), Reply: msgRoutineFailed}, nutriroutine.ActionNone)
	}
	reply := strings.Join([]string{
		routineIntro(in.name(), s.RoutineCount == 0),
		res.Text,
		msgRoutineOutro,
		msgRoutineHelp,
	}, "\n\n")
	return modify(Outcome{Next: s.withRoutine(res.Items, res.Text), Reply: reply}, nutriroutine.ActionNone)
}

// NothingToSave answers a finalize request when no routine is pending.
func NothingToSave(s State) Outcome {
	return modify(stay(s, msgNothingToSave), nutriroutine.ActionNone)
}

// StartAddByCategory opens the add flow with the catalog categories.
func StartAddByCategory(ctx context.Context, s State, in Input, r Reader) Outcome {
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return modify(catalogDown(s, err), nutriroutine.ActionAdd)
	}
	next := s.Reset()
	next.Step = StepAddSelectCategory
	next.AvailableCategories = categories
	reply := Greeting(in.name()) + categoryList("Puedes agregar alimentos de las siguientes categorías:", categories)
	return modify(Outcome{Next: next, Reply: reply}, nutriroutine.ActionAdd)
}

// StartChangeByCategory opens the change flow with today's entries.
func StartChangeByCategory(ctx context.Context, s State, in Input, r Reader) Outcome {
	entries, err := todayEntries(ctx, r, s.UserID, in.Now)
	if err != nil {
		return modify(catalogDown(s, err), nutriroutine.ActionModify)
	}
	if len(entries) == 0 {
		return modify(Outcome{Next: s.Reset(), Reply: msgNoEntriesToday}, nutriroutine.ActionModify)
	}
	next := s.Reset()
	next.Step = StepChangeSelectOriginalFood
	next.CurrentRoutineFoods = entries
	reply := Greeting(in.name()) + "Estos son los alimentos de tu rutina de hoy:\n" + entryList(entries) +
		"\n\n✍️ Escribe el nombre del alimento que deseas cambiar."
	return modify(Outcome{Next: next, Reply: reply}, nutriroutine.ActionModify)
}

// StartAddFreeText opens the free-text add flow. A non-empty rest is taken as the
// food name right away.
func StartAddFreeText(ctx context.Context, s State, in Input, r Reader, rest string) Outcome {
	next := s.Reset()
	next.Step = StepAddFoodName
	if strings.TrimSpace(rest) != "" {
		in.Text = rest
		return Transition(ctx, next, in, r)
	}
	return modify(Outcome{Next: next, Reply: Greeting(in.name()) + "¿Qué alimento deseas agregar?"}, nutriroutine.ActionAdd)
}

// StartChangeFreeText opens the free-text change flow. A non-empty rest is taken as the
// food to replace.
func StartChangeFreeText(ctx context.Context, s State, in Input, r Reader, rest string) Outcome {
	next := s.Reset()
	next.Step = StepChangeOriginalFood
	if strings.TrimSpace(rest) != "" {
		in.Text = rest
		return Transition(ctx, next, in, r)
	}
	return modify(Outcome{Next: next, Reply: Greeting(in.name()) + "¿Qué alimento de tu rutina de hoy deseas cambiar?"}, nutriroutine.ActionModify)
}

func onRoutineGenerated(s State, in Input) Outcome {
	t := parse.Normalize(in.Text)
	switch {
	case parse.ContainsAny(t, "finalizar", "guardar"):
		return Outcome{
			Next:    s.Reset(),
			Effects: []Effect{FinalizeRoutine{Date: in.Now, Items: slices.Clone(s.GeneratedRoutineItems)}},
			Reply:   msgRoutineSaved,
			Failure: msgRoutineSaveFailed,
			Action:  nutriroutine.ActionAdd,
		}
	case parse.ContainsAny(t, "cambiar alimento", "modificar alimento", "reemplazar"):
		next := s
		next.Step = StepRoutineChangeFood
		return Outcome{Next: next, Reply: "¿Qué alimento de la rutina deseas cambiar? Escribe el número o el nombre:\n" + routineItemList(s.GeneratedRoutineItems)}
	case isNegative(t):
		return Outcome{Next: s.Reset(), Reply: msgRoutineDiscarded}
	}
	return stay(s, msgRoutineHelp)
}

func selectItem(text string, items []nutriroutine.RoutineItem) (int, bool) {
	if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
		return n - 1, n >= 1 && n <= len(items)
	}
	foods := make([]nutriroutine.Food, len(items))
	for i, it := range items {
		foods[i] = nutriroutine.Food{ID: int64(i), Name: it.FoodName}
	}
	f, ok := matchFood(text, foods)
	return int(f.ID), ok
}

func profileOf(in Input) nutriroutine.UserProfile {
	if in.Profile == nil {
		return nutriroutine.UserProfile{}
	}
	return *in.Profile
}

func onRoutineChangeFood(ctx context.Context, s State, in Input, r Reader) Outcome {
	i, ok := selectItem(in.Text, s.GeneratedRoutineItems)
	if !ok {
		return stay(s, "No encontré ese alimento en la rutina. Escribe el número o el nombre:\n"+routineItemList(s.GeneratedRoutineItems))
	}
	item := s.GeneratedRoutineItems[i]

	foods, err := r.SearchAllFoods(ctx)
	if err != nil {
		return catalogDown(s, err)
	}
	taken := make([]string, 0, len(s.GeneratedRoutineItems))
	for _, it := range s.GeneratedRoutineItems {
		taken = append(taken, it.FoodName)
	}
	alts := recommend.Alternatives(foods, profileOf(in), item.Slot, taken)
	if len(alts) == 0 {
		return Outcome{Next: s.backToRoutine(s.GeneratedRoutineItems), Reply: fmt.Sprintf("No encontré alternativas para **%s**. %s", item.FoodName, msgRoutineHelp)}
	}
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}

	next := s
	next.Step = StepChangeShowFoods
	next.Replacing = true
	next.ReplaceIndex = i
	next.OriginalFood = item.FoodName
	next.MealTime = item.Slot
	next.AvailableFoods = alts
	return Outcome{Next: next, Reply: foodList(fmt.Sprintf("Opciones para reemplazar **%s** en tu **%s**:", item.FoodName, item.Slot), alts)}
}

func onRoutineReplacement(ctx context.Context, s State, in Input, r Reader) Outcome {
	food, ok := matchFood(in.Text, s.AvailableFoods)
	if !ok {
		return stay(s, foodList("Ese alimento no está entre las opciones. Elige uno de la lista:", s.AvailableFoods))
	}
	units, err := r.ListValidUnits(ctx, food.ID)
	if err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
		return catalogDown(s, err)
	}
	grams := recommend.ComputeReplacementQuantity(food, profileOf(in), s.MealTime)
	unit := recommend.ResolveUnit(food, units)

	next := s
	next.Step = StepRoutineChangeConfirm
	next.SelectedFood = &food
	next.NewFood = food.Name
	next.ValidUnits = units
	next.Unit = unit
	next.Quantity = recommend.FormatQuantity(grams, unit, food)
	reply := fmt.Sprintf("Cambiaré **%s** por **%s** (%s %s) en tu **%s**.\n\n%s",
		s.OriginalFood, food.Name, next.Quantity, unit, s.MealTime, msgConfirmHint)
	return Outcome{Next: next, Reply: reply}
}

func onRoutineChangeConfirm(s State, text string) Outcome {
	if !isAffirmative(parse.Normalize(text), "cambiar", "reemplazar") {
		return Outcome{Next: s.backToRoutine(s.GeneratedRoutineItems), Reply: msgRoutineKept + "\n\n" + msgRoutineHelp}
	}
	items := slices.Clone(s.GeneratedRoutineItems)
	item := nutriroutine.RoutineItem{Slot: s.MealTime, FoodName: s.NewFood, Quantity: s.Quantity, Unit: s.Unit}
	if s.SelectedFood != nil {
		item.FoodID = s.SelectedFood.ID
	}
	items[s.ReplaceIndex] = item
	reply := fmt.Sprintf("✅ Cambié **%s** por **%s** en tu rutina.\n\n%s\n\n%s",
		s.OriginalFood, s.NewFood, recommend.FormatRoutine(items), msgRoutineHelp)
	return Outcome{Next: s.backToRoutine(items), Reply: reply}
}
