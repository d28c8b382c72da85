package nutriroutine

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type SlackClient interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// Catalog is the gateway to the food catalog and the user's recorded routine entries.
type Catalog interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListFoodsByCategory(ctx context.Context, category string) ([]Food, error)
	FindFoodByName(ctx context.Context, name string) (Food, error)
	ListValidUnits(ctx context.Context, foodID int64) ([]string, error)
	SearchAllFoods(ctx context.Context) ([]Food, error)

	RecordEntry(ctx context.Context, userID int64, foodName, quantity, unit string, slot MealSlot) error
	ReplaceEntry(ctx context.Context, userID int64, originalFood, newFood, quantity, unit string, slot MealSlot) error
	DeleteEntriesByDateAndSlot(ctx context.Context, userID int64, date time.Time, slot MealSlot) error
	ListRecentEntries(ctx context.Context, userID int64) ([]Entry, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (UserProfile, error)
}

// UnitResolver returns the units a food may be measured in.
type UnitResolver func(ctx context.Context, foodID int64) ([]string, error)

// TextGenerator is a generative-text backend used for free-form answers and routine drafts.
type TextGenerator interface {
	GenerateFreeformAnswer(ctx context.Context, message string, profile UserProfile, entries []Entry) (string, error)
	GenerateRoutineText(ctx context.Context, req RoutineRequest) (string, error)
}

// RoutineRequest carries everything a backend needs to draft a routine.
type RoutineRequest struct {
	Profile UserProfile
	Foods   []Food
	Units   UnitResolver
	// Previous holds recently generated routines, newest last, so they can be avoided.
	Previous []string
}

// MealSlot is one of the four daily meal moments.
type MealSlot string

const (
	SlotBreakfast MealSlot = "Desayuno"
	SlotLunch     MealSlot = "Almuerzo"
	SlotDinner    MealSlot = "Cena"
	SlotSnack     MealSlot = "Snack"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ParseMealSlot resolves one of the four slot names case-insensitively.
func ParseMealSlot(s string) (MealSlot, bool) {
	name := strings.TrimSpace(s)
	for _, slot := range MealSlots {
		if strings.EqualFold(name, string(slot)) {
			return slot, true
		}
	}
	return "", false
}

// Emoji returns the icon used when rendering the slot.
func (s MealSlot) Emoji() string {
	switch s {
	case SlotBreakfast:
		return "🌅"
	case SlotLunch:
		return "🌞"
	case SlotDinner:
		return "🌙"
	case SlotSnack:
		return "🍎"
	}
	return ""
}

type Food struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	BaseQuantity float64 `json:"base_quantity"`
	BaseUnit     string  `json:"base_unit"`
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"protein"`
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Fiber        float64 `json:"fiber"`
	Sugar        float64 `json:"sugar"`
}

type UserProfile struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Sex                string  `json:"sex"`
	BirthDate          string  `json:"birth_date"`
	HeightCm           float64 `json:"height_cm"`
	WeightKg           float64 `json:"weight_kg"`
	TargetWeightKg     float64 `json:"target_weight_kg"`
	DietaryRestriction string  `json:"dietary_restriction"`
	HealthGoal         string  `json:"health_goal"`
	ActivityLevel      string  `json:"activity_level"`
}

// Age returns the age in whole years at now, or 0 when the birth date is unknown.
func (p UserProfile) Age(now time.Time) int {
	birth, err := time.Parse("2006-01-02", p.BirthDate)
	if err != nil || birth.After(now) {
		return 0
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// Entry is a food recorded in a user's routine.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	FoodID     int64     `json:"food_id"`
	FoodName   string    `json:"food_name"`
	Quantity   string    `json:"quantity"`
	Unit       string    `json:"unit"`
	Slot       MealSlot  `json:"slot"`
	ConsumedAt time.Time `json:"consumed_at"`
}

// RoutineItem is one food line of a generated routine.
type RoutineItem struct {
	Slot     MealSlot `json:"slot"`
	FoodName string   `json:"food_name"`
	Quantity string   `json:"quantity"`
	Unit     string   `json:"unit"`
	FoodID   int64    `json:"food_id,omitempty"`
}

func (ri RoutineItem) QuantityWithUnit() string {
	if ri.Unit == "" {
		return ri.Quantity
	}
	return ri.Quantity + " " + ri.Unit
}

type IntentKind string

const (
	IntentModifyRoutine     IntentKind = "Modificar_Rutina"
	IntentNutritionQuestion IntentKind = "Pregunta_Nutricional"
	IntentOther             IntentKind = "Otros"
)

type ActionKind string

const (
	ActionNone   ActionKind = ""
	ActionAdd    ActionKind = "Agregar"
	ActionModify ActionKind = "Modificar"
	ActionDelete ActionKind = "Eliminar"
)
