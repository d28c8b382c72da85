package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"nutriroutine"
	"nutriroutine/parse"
)

const (
	// maxPromptFoods caps the catalog sent to a generative backend.
	maxPromptFoods = 100

	minAcceptedItems = 8
	defaultTimeout   = 20 * time.Second
)

type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// FoodSource is the part of the catalog the engine reads.
type FoodSource interface {
	SearchAllFoods(ctx context.Context) ([]nutriroutine.Food, error)
	ListValidUnits(ctx context.Context, foodID int64) ([]string, error)
}

type RoutineResult struct {
	Success bool
	Items   []nutriroutine.RoutineItem
	Text    string
	Source  Source
	Err     error
}

type Options struct {
	// Generator drafts routines as text. Nil means the deterministic routine is always used.
	Generator nutriroutine.TextGenerator
	Timeout   time.Duration
	// Seed fixes the shuffle used by the deterministic routine. Zero seeds from the clock.
	Seed int64
}

type Engine struct {
	foods     FoodSource
	generator nutriroutine.TextGenerator
	timeout   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(foods FoodSource, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		foods:     foods,
		generator: opts.Generator,
		timeout:   opts.Timeout,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// GenerateRoutine builds a routine for the profile. A generated draft is used when it
// covers every slot with enough foods; otherwise the deterministic routine is built.
// previous holds earlier routine texts the draft should not repeat.
func (e *Engine) GenerateRoutine(ctx context.Context, profile nutriroutine.UserProfile, previous []string) RoutineResult {
	ctx, span := otel.Tracer(nutriroutine.TracerNameEngine).Start(ctx, "Engine.GenerateRoutine")
	defer span.End()

	foods, err := e.foods.SearchAllFoods(ctx)
	if err != nil {
		err = fmt.Errorf("failed to list foods: %w: %w", nutriroutine.ErrCatalogUnavailable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog unavailable")
		return RoutineResult{Err: err}
	}

	if e.generator != nil {
		items, err := e.generated(ctx, profile, foods, previous)
		if err == nil {
			span.SetAttributes(attribute.String("routine.source", string(SourceGenerated)), attribute.Int("routine.items", len(items)))
			return RoutineResult{Success: true, Items: items, Text: FormatRoutine(items), Source: SourceGenerated}
		}
		slog.Warn("ENGINE: Generated routine discarded, using deterministic routine", "error", err)
	}

	items, err := e.Fallback(ctx, profile, foods)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no routine")
		return RoutineResult{Source: SourceFallback, Err: err}
	}
	span.SetAttributes(attribute.String("routine.source", string(SourceFallback)), attribute.Int("routine.items", len(items)))
	return RoutineResult{Success: true, Items: items, Text: FormatRoutine(items), Source: SourceFallback}
}

func (e *Engine) generated(ctx context.Context, profile nutriroutine.UserProfile, foods []nutriroutine.Food, previous []string) ([]nutriroutine.RoutineItem, error) {
	gctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	eligible := FilterByDiet(foods, traitsOf(profile).diet)
	text, err := e.generator.GenerateRoutineText(gctx, nutriroutine.RoutineRequest{
		Profile:  profile,
		Foods:    eligible[:min(len(eligible), maxPromptFoods)],
		Units:    e.foods.ListValidUnits,
		Previous: previous,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nutriroutine.ErrGenerationUnavailable, err)
	}

	// Foods the diet excludes never match, even when the draft names them.
	items := ParseRoutineText(text, eligible)
	if err := Accept(items); err != nil {
		return nil, err
	}

	byID := make(map[int64]nutriroutine.Food, len(eligible))
	for _, f := range eligible {
		byID[f.ID] = f
	}
	for i := range items {
		e.size(ctx, &items[i], byID[items[i].FoodID], profile)
	}
	return items, nil
}

// Accept checks that a parsed routine has enough items and touches every slot.
func Accept(items []nutriroutine.RoutineItem) error {
	if len(items) < minAcceptedItems {
		return fmt.Errorf("%w: routine has %d items, need %d", nutriroutine.ErrGenerationUnavailable, len(items), minAcceptedItems)
	}
	for _, slot := range nutriroutine.MealSlots {
		if !slices.ContainsFunc(items, func(it nutriroutine.RoutineItem) bool { return it.Slot == slot }) {
			return fmt.Errorf("%w: routine has no %s", nutriroutine.ErrGenerationUnavailable, slot)
		}
	}
	return nil
}

// slotTargets spreads the available foods over the slots: 3/3/3/2 when there are
// enough, never fewer than 2 per slot otherwise.
func slotTargets(available int) map[nutriroutine.MealSlot]int {
	targets := map[nutriroutine.MealSlot]int{
		nutriroutine.SlotBreakfast: 2,
		nutriroutine.SlotLunch:     2,
		nutriroutine.SlotDinner:    2,
		nutriroutine.SlotSnack:     2,
	}
	extra := available - 8
	for _, slot := range []nutriroutine.MealSlot{nutriroutine.SlotLunch, nutriroutine.SlotDinner, nutriroutine.SlotBreakfast} {
		if extra <= 0 {
			break
		}
		targets[slot]++
		extra--
	}
	return targets
}

// Fallback builds a routine from the catalog alone.
func (e *Engine) Fallback(ctx context.Context, profile nutriroutine.UserProfile, foods []nutriroutine.Food) ([]nutriroutine.RoutineItem, error) {
	t := traitsOf(profile)
	eligible := FilterByDiet(foods, t.diet)
	targets := slotTargets(len(eligible))

	used := make(map[string]bool)
	var items []nutriroutine.RoutineItem
	for _, slot := range nutriroutine.MealSlots {
		var pool []nutriroutine.Food
		for _, f := range eligible {
			if !used[normName(f.Name)] {
				pool = append(pool, f)
			}
		}

		want := targets[slot]
		e.shuffle(pool)
		pool = FilterByGoal(FilterBySlot(pool, slot, want), t.goal, want)

		var picked []nutriroutine.Food
		if slot == nutriroutine.SlotSnack {
			picked = pickSnacks(pool, want)
		} else {
			picked = pickMeal(pool, want, t.diet)
		}
		if len(picked) == 0 {
			return nil, fmt.Errorf("%w: no foods available for %s", nutriroutine.ErrGenerationUnavailable, slot)
		}

		for _, f := range picked {
			used[normName(f.Name)] = true
			item := nutriroutine.RoutineItem{Slot: slot, FoodName: f.Name, FoodID: f.ID}
			e.size(ctx, &item, f, profile)
			items = append(items, item)
		}
	}
	return items, nil
}

// pickMeal takes a protein, a complex carb (unless the diet limits carbs) and a fiber
// source, then fills up to want with the remaining candidates in order.
func pickMeal(pool []nutriroutine.Food, want int, d Diet) []nutriroutine.Food {
	roles := []func(nutriroutine.Food) bool{isProteinDominant}
	if !d.LowCarb && !d.Keto {
		roles = append(roles, isComplexCarb)
	}
	roles = append(roles, isFiberSource)

	taken := make([]bool, len(pool))
	var picked []nutriroutine.Food
	for _, role := range roles {
		if len(picked) == want {
			break
		}
		for i, f := range pool {
			if !taken[i] && role(f) {
				taken[i] = true
				picked = append(picked, f)
				break
			}
		}
	}
	for i, f := range pool {
		if len(picked) == want {
			break
		}
		if !taken[i] {
			taken[i] = true
			picked = append(picked, f)
		}
	}
	return picked
}

// pickSnacks prefers light foods that carry fiber or protein.
func pickSnacks(pool []nutriroutine.Food, want int) []nutriroutine.Food {
	light := func(f nutriroutine.Food) bool {
		return f.Calories < 250 && (f.Fiber >= 2 || f.Protein >= 5)
	}
	var picked, rest []nutriroutine.Food
	for _, f := range pool {
		if light(f) && len(picked) < want {
			picked = append(picked, f)
		} else {
			rest = append(rest, f)
		}
	}
	for _, f := range rest {
		if len(picked) == want {
			break
		}
		picked = append(picked, f)
	}
	return picked
}

func (e *Engine) shuffle(foods []nutriroutine.Food) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(foods), func(i, j int) { foods[i], foods[j] = foods[j], foods[i] })
}

// size fills the quantity and unit of an item from the catalog units and the profile.
// An amount already on the item is kept but rendered like a computed one.
func (e *Engine) size(ctx context.Context, item *nutriroutine.RoutineItem, f nutriroutine.Food, profile nutriroutine.UserProfile) {
	units, err := e.foods.ListValidUnits(ctx, f.ID)
	if err != nil && !errors.Is(err, nutriroutine.ErrNotFound) {
		slog.Warn("ENGINE: Could not list units, using grams", "food", f.Name, "error", err)
	}
	if item.Unit == "" || (len(units) > 0 && !slices.ContainsFunc(units, func(u string) bool { return strings.EqualFold(u, item.Unit) })) {
		item.Unit = ResolveUnit(f, units)
		item.Quantity = ""
	}
	if item.Quantity != "" {
		q, err := parse.ParseQuantity(item.Quantity)
		if err != nil {
			item.Quantity = ""
		} else {
			item.Quantity = formatAmount(q, item.Unit)
		}
	}
	if item.Quantity == "" {
		item.Quantity = FormatQuantity(ComputeQuantity(f, profile, item.Slot), item.Unit, f)
	}
}

// FormatRoutine renders items grouped by slot in display order.
func FormatRoutine(items []nutriroutine.RoutineItem) string {
	var b strings.Builder
	for _, slot := range nutriroutine.MealSlots {
		var lines []string
		for _, it := range items {
			if it.Slot == slot {
				lines = append(lines, fmt.Sprintf("• %s – %s", it.FoodName, it.QuantityWithUnit()))
			}
		}
		if len(lines) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s **%s**\n%s\n", slot.Emoji(), slot, strings.Join(lines, "\n"))
	}
	return strings.TrimRight(b.String(), "\n")
}
