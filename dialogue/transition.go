package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"nutriroutine"
	"nutriroutine/parse"
)

// Reader is the read-only part of the catalog a transition may consult.
type Reader interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListFoodsByCategory(ctx context.Context, category string) ([]nutriroutine.Food, error)
	FindFoodByName(ctx context.Context, name string) (nutriroutine.Food, error)
	ListValidUnits(ctx context.Context, foodID int64) ([]string, error)
	SearchAllFoods(ctx context.Context) ([]nutriroutine.Food, error)
	ListRecentEntries(ctx context.Context, userID int64) ([]nutriroutine.Entry, error)
}

// Input is one user message plus the context a transition needs.
type Input struct {
	Text    string
	Profile *nutriroutine.UserProfile
	Now     time.Time
}

func (in Input) name() string {
	if in.Profile == nil {
		return ""
	}
	return in.Profile.Name
}

// Outcome is the result of a transition. When executing Effects fails the caller keeps
// the previous state and answers with Failure instead of Reply.
type Outcome struct {
	Next    State
	Effects []Effect
	Reply   string
	Failure string
	Intent  nutriroutine.IntentKind
	Action  nutriroutine.ActionKind
}

func stay(s State, reply string) Outcome {
	return Outcome{Next: s, Reply: reply}
}

func advance(s State, step Step, reply string) Outcome {
	s.Step = step
	return Outcome{Next: s, Reply: reply}
}

func cancel(s State) Outcome {
	return Outcome{Next: s.Reset(), Reply: msgCancelled}
}

// actionFor names the kind of change a step belongs to.
func actionFor(step Step) nutriroutine.ActionKind {
	name := string(step)
	switch {
	case strings.HasPrefix(name, "ADD_"):
		return nutriroutine.ActionAdd
	case strings.HasPrefix(name, "CHANGE_"), strings.HasPrefix(name, "ROUTINE_"):
		return nutriroutine.ActionModify
	}
	return nutriroutine.ActionNone
}

// Transition advances an active flow with the user's message.
func Transition(ctx context.Context, s State, in Input, r Reader) Outcome {
	out := transition(ctx, s, in, r)
	if out.Intent == "" {
		out.Intent = nutriroutine.IntentModifyRoutine
	}
	if out.Action == nutriroutine.ActionNone {
		out.Action = actionFor(s.Step)
	}
	slog.Debug("DIALOGUE: Transition", "user_id", s.UserID, "from", s.Step, "to", out.Next.Step, "effects", len(out.Effects))
	return out
}

func transition(ctx context.Context, s State, in Input, r Reader) Outcome {
	text := strings.TrimSpace(in.Text)

	if isCancel(parse.Normalize(text)) {
		switch {
		case s.Replacing || s.Step == StepRoutineChangeFood:
			return Outcome{Next: s.backToRoutine(s.GeneratedRoutineItems), Reply: msgRoutineKept + "\n\n" + msgRoutineHelp}
		case s.Step != StepRoutineGenerated:
			return cancel(s)
		}
	}

	switch s.Step {
	case StepAddFoodName:
		return onFoodName(ctx, s, text, r, StepAddFoodQuantity, func(s *State, f nutriroutine.Food) { s.FoodName = f.Name })
	case StepAddFoodQuantity:
		return onQuantity(s, text, StepAddFoodUnit)
	case StepAddFoodUnit, StepAddSelectUnit:
		return onUnit(ctx, s, text, r, StepAddFoodMealTime)
	case StepAddFoodMealTime:
		next := StepAddFoodConfirmation
		if s.SelectedFood != nil {
			next = StepAddConfirmation
		}
		return onMealTime(s, text, next, addSummary)
	case StepAddFoodConfirmation, StepAddConfirmation:
		return onAddConfirmation(s, text)

	case StepAddSelectCategory:
		return onCategory(ctx, s, text, r, StepAddShowFoods, "Puedes agregar alimentos de las siguientes categorías:")
	case StepAddShowFoods:
		return onShowFoods(ctx, s, text, r, StepAddSelectFoodQuantity)
	case StepAddSelectFoodQuantity:
		return onQuantity(s, text, StepAddSelectUnit)

	case StepChangeOriginalFood:
		return onChangeOriginal(ctx, s, in, r)
	case StepChangeNewFood:
		return onFoodName(ctx, s, text, r, StepChangeQuantity, func(s *State, f nutriroutine.Food) { s.NewFood = f.Name })
	case StepChangeQuantity:
		return onQuantity(s, text, StepChangeUnit)
	case StepChangeUnit:
		return onUnit(ctx, s, text, r, StepChangeMealTime)
	case StepChangeMealTime:
		return onMealTime(s, text, StepChangeConfirmation, changeSummary)
	case StepChangeConfirmation, StepChangeConfirmationNew:
		return onChangeConfirmation(s, text)

	case StepChangeSelectOriginalFood:
		return onSelectOriginal(ctx, s, text, r)
	case StepChangeSelectCategory:
		return onCategory(ctx, s, text, r, StepChangeShowFoods, "Elige la categoría del nuevo alimento:")
	case StepChangeShowFoods:
		if s.Replacing {
			return onRoutineReplacement(ctx, s, in, r)
		}
		return onShowFoods(ctx, s, text, r, StepChangeSelectFoodQuantity)
	case StepChangeSelectFoodQuantity:
		return onQuantity(s, text, StepChangeSelectUnit)
	case StepChangeSelectUnit:
		return onUnit(ctx, s, text, r, StepChangeSelectMealTime)
	case StepChangeSelectMealTime:
		return onMealTime(s, text, StepChangeConfirmationNew, changeSummary)

	case StepWaitingRoutineConfirmation:
		if isNegative(parse.Normalize(text)) {
			return Outcome{Next: s.Reset(), Reply: msgRoutineDeclined}
		}
		return stay(s, msgRoutineReprompt)
	case StepRoutineGenerated:
		return onRoutineGenerated(s, in)
	case StepRoutineChangeFood:
		return onRoutineChangeFood(ctx, s, in, r)
	case StepRoutineChangeConfirm:
		return onRoutineChangeConfirm(s, text)
	}

	slog.Warn("DIALOGUE: No handler for step, resetting", "step", s.Step)
	return Outcome{Next: s.Reset(), Reply: msgCancelled}
}

func catalogDown(s State, err error) Outcome {
	slog.Error("DIALOGUE: Catalog read failed", "step", s.Step, "error", err)
	return stay(s, msgCatalogDown)
}

func onFoodName(ctx context.Context, s State, text string, r Reader, next Step, set func(*State, nutriroutine.Food)) Outcome {
	food, err := r.FindFoodByName(ctx, text)
	if errors.Is(err, nutriroutine.ErrNotFound) {
		return stay(s, msgFoodUnavailable)
	}
	if err != nil {
		return catalogDown(s, err)
	}
	units, err := r.ListValidUnits(ctx, food.ID)
	if err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
		return catalogDown(s, err)
	}
	set(&s, food)
	s.ValidUnits = units
	return advance(s, next, quantityPrompt(food.Name))
}

func onQuantity(s State, text string, next Step) Outcome {
	v, err := parse.ParseQuantity(text)
	if err != nil {
		return stay(s, msgQuantityRetry)
	}
	s.Quantity = parse.FormatQuantity(v)
	return advance(s, next, unitPrompt(s.currentFood(), s.ValidUnits))
}

// currentFood is the food the flow is sizing.
func (s State) currentFood() string {
	if s.NewFood != "" {
		return s.NewFood
	}
	return s.FoodName
}

func onUnit(ctx context.Context, s State, text string, r Reader, next Step) Outcome {
	if text == "" {
		return stay(s, unitPrompt(s.currentFood(), s.ValidUnits))
	}
	units := s.ValidUnits
	if len(units) == 0 {
		food, err := r.FindFoodByName(ctx, s.currentFood())
		if err == nil {
			units, err = r.ListValidUnits(ctx, food.ID)
		}
		if err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
			return catalogDown(s, err)
		}
	}

	unit := text
	if len(units) > 0 {
		i := slices.IndexFunc(units, func(u string) bool { return parse.EqualFold(u, text) })
		if i < 0 {
			s.ValidUnits = units
			return stay(s, invalidUnit(text, s.currentFood(), units))
		}
		unit = units[i]
	}
	s.ValidUnits = units
	s.Unit = unit

	if s.Step == StepChangeSelectUnit && s.MealTime != "" {
		return advance(s, next, fmt.Sprintf("%s\nActualmente está en **%s**.", msgSlotPrompt, s.MealTime))
	}
	return advance(s, next, msgSlotPrompt)
}

func onMealTime(s State, text string, next Step, summary func(State) string) Outcome {
	slot, ok := nutriroutine.ParseMealSlot(text)
	if !ok {
		return stay(s, msgSlotRetry)
	}
	s.MealTime = slot
	s.Step = next
	return Outcome{Next: s, Reply: summary(s)}
}

func isCancel(t string) bool {
	return t == "cancelar" || t == "cancela" || t == "salir"
}

func isNegative(t string) bool {
	return parse.HasWord(t, "no") || parse.ContainsAny(t, "cancelar", "cancela")
}

func isAffirmative(t string, verbs ...string) bool {
	if isNegative(t) {
		return false
	}
	if parse.HasWord(t, "si") || parse.HasWord(t, "confirmo") || parse.HasWord(t, "ok") || parse.HasWord(t, "dale") {
		return true
	}
	return parse.ContainsAny(t, verbs...)
}

func onAddConfirmation(s State, text string) Outcome {
	if !isAffirmative(parse.Normalize(text), "agregar", "anadir") {
		return cancel(s)
	}
	return Outcome{
		Next: s.Reset(),
		Effects: []Effect{RecordEntry{
			FoodName: s.FoodName, Quantity: s.Quantity, Unit: s.Unit, Slot: s.MealTime,
		}},
		Reply:   fmt.Sprintf("✅ Agregué **%s** (%s %s) a tu **%s**.\n\n%s", s.FoodName, s.Quantity, s.Unit, s.MealTime, msgUpdated),
		Failure: msgSaveFailed,
		Action:  nutriroutine.ActionAdd,
	}
}

func onChangeConfirmation(s State, text string) Outcome {
	if !isAffirmative(parse.Normalize(text), "cambiar", "modificar") {
		return cancel(s)
	}
	return Outcome{
		Next: s.Reset(),
		Effects: []Effect{ReplaceEntry{
			OriginalFood: s.OriginalFood, NewFood: s.NewFood, Quantity: s.Quantity, Unit: s.Unit, Slot: s.MealTime,
		}},
		Reply:   fmt.Sprintf("✅ Cambié **%s** por **%s** (%s %s) en tu **%s**.\n\n%s", s.OriginalFood, s.NewFood, s.Quantity, s.Unit, s.MealTime, msgUpdated),
		Failure: msgSaveFailed,
		Action:  nutriroutine.ActionModify,
	}
}

func matchCategory(text string, categories []string) (string, bool) {
	t := parse.Normalize(text)
	for _, c := range categories {
		if parse.Normalize(c) == t {
			return c, true
		}
	}
	for _, c := range categories {
		if n := parse.Normalize(c); t != "" && (strings.Contains(n, t) || strings.Contains(t, n)) {
			return c, true
		}
	}
	return "", false
}

// matchFood finds text among listed foods, preferring an exact name and then the longest
// name contained in the message.
func matchFood(text string, foods []nutriroutine.Food) (nutriroutine.Food, bool) {
	t := parse.Normalize(text)
	if t == "" {
		return nutriroutine.Food{}, false
	}
	best, bestLen := -1, 0
	for i, f := range foods {
		n := parse.Normalize(f.Name)
		if n == t {
			return f, true
		}
		if (strings.Contains(t, n) || strings.Contains(n, t)) && len(n) > bestLen {
			best, bestLen = i, len(n)
		}
	}
	if best < 0 {
		return nutriroutine.Food{}, false
	}
	return foods[best], true
}

func onCategory(ctx context.Context, s State, text string, r Reader, next Step, intro string) Outcome {
	category, ok := matchCategory(text, s.AvailableCategories)
	if !ok {
		return stay(s, categoryList("Esa categoría no está disponible. "+intro, s.AvailableCategories))
	}
	foods, err := r.ListFoodsByCategory(ctx, category)
	if err != nil {
		return catalogDown(s, err)
	}
	if len(foods) == 0 {
		return stay(s, categoryList(fmt.Sprintf("Actualmente no hay alimentos en la categoría **%s**. %s", category, intro), s.AvailableCategories))
	}
	s.SelectedCategory = category
	s.AvailableFoods = foods
	return advance(s, next, foodList(fmt.Sprintf("Estos son los alimentos disponibles en **%s**:", category), foods))
}

func onShowFoods(ctx context.Context, s State, text string, r Reader, next Step) Outcome {
	food, ok := matchFood(text, s.AvailableFoods)
	if !ok {
		return stay(s, foodList(fmt.Sprintf("Ese alimento no se encuentra disponible en **%s**. Elige uno de la lista:", s.SelectedCategory), s.AvailableFoods))
	}
	units, err := r.ListValidUnits(ctx, food.ID)
	if err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
		return catalogDown(s, err)
	}
	s.SelectedFood = &food
	if s.Step == StepChangeShowFoods {
		s.NewFood = food.Name
	} else {
		s.FoodName = food.Name
	}
	s.ValidUnits = units
	return advance(s, next, quantityPrompt(food.Name))
}

// todayEntries returns the user's entries recorded on the same day as now.
func todayEntries(ctx context.Context, r Reader, userID int64, now time.Time) ([]nutriroutine.Entry, error) {
	entries, err := r.ListRecentEntries(ctx, userID)
	if err != nil {
		return nil, err
	}
	day := now.Format(parse.DateLayout)
	var today []nutriroutine.Entry
	for _, e := range entries {
		if e.ConsumedAt.In(now.Location()).Format(parse.DateLayout) == day {
			today = append(today, e)
		}
	}
	return today, nil
}

func matchEntry(text string, entries []nutriroutine.Entry) (nutriroutine.Entry, bool) {
	foods := make([]nutriroutine.Food, len(entries))
	for i, e := range entries {
		foods[i] = nutriroutine.Food{ID: int64(i), Name: e.FoodName}
	}
	f, ok := matchFood(text, foods)
	if !ok {
		return nutriroutine.Entry{}, false
	}
	return entries[f.ID], true
}

func onChangeOriginal(ctx context.Context, s State, in Input, r Reader) Outcome {
	entries, err := todayEntries(ctx, r, s.UserID, in.Now)
	if err != nil {
		return catalogDown(s, err)
	}
	entry, ok := matchEntry(in.Text, entries)
	if !ok {
		if len(entries) == 0 {
			return Outcome{Next: s.Reset(), Reply: msgNoEntriesToday}
		}
		return stay(s, fmt.Sprintf("No encontré **%s** en tu rutina de hoy. Estos son tus alimentos registrados:\n%s", strings.TrimSpace(in.Text), entryList(entries)))
	}
	s.OriginalFood = entry.FoodName
	s.CurrentRoutineFoods = entries
	return advance(s, StepChangeNewFood, fmt.Sprintf("¿Por cuál alimento deseas cambiar **%s**?", entry.FoodName))
}

func onSelectOriginal(ctx context.Context, s State, text string, r Reader) Outcome {
	entry, ok := matchEntry(text, s.CurrentRoutineFoods)
	if !ok {
		return stay(s, fmt.Sprintf("Ese alimento no está en tu rutina de hoy. Elige uno de la lista:\n%s", entryList(s.CurrentRoutineFoods)))
	}
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return catalogDown(s, err)
	}
	s.OriginalFood = entry.FoodName
	s.MealTime = entry.Slot
	s.AvailableCategories = categories
	return advance(s, StepChangeSelectCategory, categoryList(fmt.Sprintf("Vamos a cambiar **%s**. Elige la categoría del nuevo alimento:", entry.FoodName), categories))
}
