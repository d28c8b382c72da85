// Package catalog provides an in-memory food catalog and routine entry store.
package catalog

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"nutriroutine"
	"nutriroutine/catalog/storage"
	"nutriroutine/parse"
)

// Seed is the JSON document a catalog is built from.
type Seed struct {
	Foods    []nutriroutine.Food        `json:"foods"`
	Units    map[int64][]string         `json:"units"`
	Profiles []nutriroutine.UserProfile `json:"profiles"`
	Entries  []nutriroutine.Entry       `json:"entries"`
}

// Memory is a catalog held in process memory. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	foods    []nutriroutine.Food
	units    map[int64][]string
	profiles map[int64]nutriroutine.UserProfile
	entries  map[int64][]nutriroutine.Entry
	nextID   int64
	now      func() time.Time
}

type Option func(*Memory)

// WithClock overrides the clock used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

func NewMemory(seed Seed, opts ...Option) *Memory {
	m := &Memory{
		foods:    slices.Clone(seed.Foods),
		units:    make(map[int64][]string, len(seed.Units)),
		profiles: make(map[int64]nutriroutine.UserProfile, len(seed.Profiles)),
		entries:  make(map[int64][]nutriroutine.Entry),
		now:      time.Now,
	}
	for id, units := range seed.Units {
		m.units[id] = slices.Clone(units)
	}
	for _, p := range seed.Profiles {
		m.profiles[p.ID] = p
	}
	for _, e := range seed.Entries {
		m.entries[e.UserID] = append(m.entries[e.UserID], e)
		m.nextID = max(m.nextID, e.ID)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load builds a Memory catalog from the seed document held by state.
func Load(ctx context.Context, state storage.CatalogState, opts ...Option) (*Memory, error) {
	data, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog seed: %w: %w", nutriroutine.ErrCatalogUnavailable, err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to decode catalog seed: %w: %w", nutriroutine.ErrCatalogUnavailable, err)
	}

	slog.Info("CATALOG: Loaded seed", "foods", len(seed.Foods), "profiles", len(seed.Profiles), "entries", len(seed.Entries))
	return NewMemory(seed, opts...), nil
}

func (m *Memory) ListCategories(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, f := range m.foods {
		key := parse.Normalize(f.Category)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		categories = append(categories, f.Category)
	}
	slices.Sort(categories)
	return categories, nil
}

func (m *Memory) ListFoodsByCategory(ctx context.Context, category string) ([]nutriroutine.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var foods []nutriroutine.Food
	for _, f := range m.foods {
		if parse.EqualFold(f.Category, category) {
			foods = append(foods, f)
		}
	}
	slices.SortFunc(foods, func(a, b nutriroutine.Food) int { return cmp.Compare(a.Name, b.Name) })
	return foods, nil
}

func (m *Memory) FindFoodByName(ctx context.Context, name string) (nutriroutine.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findFood(name)
}

// findFood prefers an exact match and otherwise the shortest name containing the query.
func (m *Memory) findFood(name string) (nutriroutine.Food, error) {
	query := parse.Normalize(name)
	if query == "" {
		return nutriroutine.Food{}, fmt.Errorf("food %q: %w", name, nutriroutine.ErrNotFound)
	}

	var best *nutriroutine.Food
	for i := range m.foods {
		candidate := parse.Normalize(m.foods[i].Name)
		if candidate == query {
			return m.foods[i], nil
		}
		if strings.Contains(candidate, query) && (best == nil || len(m.foods[i].Name) < len(best.Name)) {
			best = &m.foods[i]
		}
	}
	if best == nil {
		return nutriroutine.Food{}, fmt.Errorf("food %q: %w", name, nutriroutine.ErrNotFound)
	}
	return *best, nil
}

func (m *Memory) ListValidUnits(ctx context.Context, foodID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !slices.ContainsFunc(m.foods, func(f nutriroutine.Food) bool { return f.ID == foodID }) {
		return nil, fmt.Errorf("food id %d: %w", foodID, nutriroutine.ErrNotFound)
	}
	return slices.Clone(m.units[foodID]), nil
}

func (m *Memory) SearchAllFoods(ctx context.Context) ([]nutriroutine.Food, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.foods), nil
}

func (m *Memory) RecordEntry(ctx context.Context, userID int64, foodName, quantity, unit string, slot nutriroutine.MealSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	food, err := m.findFood(foodName)
	if err != nil {
		return fmt.Errorf("record entry: %w", err)
	}

	m.nextID++
	m.entries[userID] = append(m.entries[userID], nutriroutine.Entry{
		ID:         m.nextID,
		UserID:     userID,
		FoodID:     food.ID,
		FoodName:   food.Name,
		Quantity:   quantity,
		Unit:       unit,
		Slot:       slot,
		ConsumedAt: m.now(),
	})
	return nil
}

// ReplaceEntry swaps today's most recent entry of originalFood for newFood.
func (m *Memory) ReplaceEntry(ctx context.Context, userID int64, originalFood, newFood, quantity, unit string, slot nutriroutine.MealSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	food, err := m.findFood(newFood)
	if err != nil {
		return fmt.Errorf("replace entry: %w", err)
	}

	now := m.now()
	entries := m.entries[userID]
	for i := len(entries) - 1; i >= 0; i-- {
		e := &entries[i]
		if !sameDay(e.ConsumedAt, now) || !parse.EqualFold(e.FoodName, originalFood) {
			continue
		}
		e.FoodID = food.ID
		e.FoodName = food.Name
		e.Quantity = quantity
		e.Unit = unit
		e.Slot = slot
		e.ConsumedAt = now
		return nil
	}
	return fmt.Errorf("replace entry: no entry for %q today: %w", originalFood, nutriroutine.ErrNotFound)
}

func (m *Memory) DeleteEntriesByDateAndSlot(ctx context.Context, userID int64, date time.Time, slot nutriroutine.MealSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[userID] = slices.DeleteFunc(m.entries[userID], func(e nutriroutine.Entry) bool {
		return e.Slot == slot && sameDay(e.ConsumedAt, date)
	})
	return nil
}

// ListRecentEntries returns the user's entries, newest first.
func (m *Memory) ListRecentEntries(ctx context.Context, userID int64) ([]nutriroutine.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := slices.Clone(m.entries[userID])
	slices.SortStableFunc(entries, func(a, b nutriroutine.Entry) int {
		return b.ConsumedAt.Compare(a.ConsumedAt)
	})
	return entries, nil
}

func (m *Memory) GetProfile(ctx context.Context, userID int64) (nutriroutine.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nutriroutine.UserProfile{}, fmt.Errorf("profile for user %d: %w", userID, nutriroutine.ErrNotFound)
	}
	return p, nil
}

// PutProfile stores or replaces a user profile.
func (m *Memory) PutProfile(p nutriroutine.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

func sameDay(a, b time.Time) bool {
	return a.In(b.Location()).Format(parse.DateLayout) == b.Format(parse.DateLayout)
}
