// Package dialogue is the per-user conversation state machine. Transitions are pure:
// they read the catalog through Reader and describe writes as Effects for the caller
// to execute.
package dialogue

import (
	"slices"

	"nutriroutine"
)

// Step tags the current position of a conversation.
type Step string

const (
	StepIdle Step = "IDLE"

	// Add by free text.
	StepAddFoodName         Step = "ADD_FOOD_NAME"
	StepAddFoodQuantity     Step = "ADD_FOOD_QUANTITY"
	StepAddFoodUnit         Step = "ADD_FOOD_UNIT"
	StepAddFoodMealTime     Step = "ADD_FOOD_MEAL_TIME"
	StepAddFoodConfirmation Step = "ADD_FOOD_CONFIRMATION"

	// Add by category.
	StepAddSelectCategory     Step = "ADD_SELECT_CATEGORY"
	StepAddShowFoods          Step = "ADD_SHOW_FOODS"
	StepAddSelectFoodQuantity Step = "ADD_SELECT_FOOD_QUANTITY"
	StepAddSelectUnit         Step = "ADD_SELECT_UNIT"
	StepAddConfirmation       Step = "ADD_CONFIRMATION"

	// Change by free text.
	StepChangeOriginalFood Step = "CHANGE_ORIGINAL_FOOD"
	StepChangeNewFood      Step = "CHANGE_NEW_FOOD"
	StepChangeQuantity     Step = "CHANGE_QUANTITY"
	StepChangeUnit         Step = "CHANGE_UNIT"
	StepChangeMealTime     Step = "CHANGE_MEAL_TIME"
	StepChangeConfirmation Step = "CHANGE_CONFIRMATION"

	// Change by category.
	StepChangeSelectOriginalFood Step = "CHANGE_SELECT_ORIGINAL_FOOD"
	StepChangeSelectCategory     Step = "CHANGE_SELECT_CATEGORY"
	StepChangeShowFoods          Step = "CHANGE_SHOW_FOODS"
	StepChangeSelectFoodQuantity Step = "CHANGE_SELECT_FOOD_QUANTITY"
	StepChangeSelectUnit         Step = "CHANGE_SELECT_UNIT"
	StepChangeSelectMealTime     Step = "CHANGE_SELECT_MEAL_TIME"
	StepChangeConfirmationNew    Step = "CHANGE_CONFIRMATION_NEW"

	// Generated routine.
	StepWaitingRoutineConfirmation Step = "WAITING_FOR_ROUTINE_CONFIRMATION"
	StepRoutineGenerated           Step = "ROUTINE_GENERATED"
	StepRoutineChangeFood          Step = "ROUTINE_CHANGE_FOOD"
	StepRoutineChangeConfirm       Step = "ROUTINE_CHANGE_CONFIRM"

	StepViewingRoutine Step = "VIEWING_ROUTINE"
)

// IsConfirmation reports whether the step waits for a yes/no on a pending write or swap.
func (s Step) IsConfirmation() bool {
	switch s {
	case StepAddFoodConfirmation, StepAddConfirmation, StepChangeConfirmation,
		StepChangeConfirmationNew, StepRoutineChangeConfirm:
		return true
	}
	return false
}

// IsAddConfirmation reports whether the step confirms an add.
func (s Step) IsAddConfirmation() bool {
	return s == StepAddFoodConfirmation || s == StepAddConfirmation
}

// IsChangeConfirmation reports whether the step confirms a change.
func (s Step) IsChangeConfirmation() bool {
	return s == StepChangeConfirmation || s == StepChangeConfirmationNew || s == StepRoutineChangeConfirm
}

const maxRoutineHistory = 3

// State is a user's conversation. Step is the tag; the remaining fields are the slots
// collected by the current flow.
type State struct {
	UserID       int64  `json:"user_id"`
	SessionID    string `json:"session_id"`
	Step         Step   `json:"step"`
	RoutineCount int    `json:"routine_count"`
	// RoutineHistory holds the most recent generated routine texts, oldest first.
	RoutineHistory []string `json:"routine_history,omitempty"`

	FoodName     string                `json:"food_name,omitempty"`
	Quantity     string                `json:"quantity,omitempty"`
	Unit         string                `json:"unit,omitempty"`
	MealTime     nutriroutine.MealSlot `json:"meal_time,omitempty"`
	OriginalFood string                `json:"original_food,omitempty"`
	NewFood      string                `json:"new_food,omitempty"`

	ValidUnits          []string            `json:"valid_units,omitempty"`
	AvailableCategories []string            `json:"available_categories,omitempty"`
	SelectedCategory    string              `json:"selected_category,omitempty"`
	AvailableFoods      []nutriroutine.Food `json:"available_foods,omitempty"`
	SelectedFood        *nutriroutine.Food  `json:"selected_food,omitempty"`

	CurrentRoutineFoods   []nutriroutine.Entry       `json:"current_routine_foods,omitempty"`
	GeneratedRoutineItems []nutriroutine.RoutineItem `json:"generated_routine_items,omitempty"`

	// ViewingDate is the YYYY-MM-DD date on screen while viewing; empty means today.
	ViewingDate string `json:"viewing_date,omitempty"`

	// Replacing marks CHANGE_SHOW_FOODS as part of a generated-routine swap of item ReplaceIndex.
	Replacing    bool `json:"replacing,omitempty"`
	ReplaceIndex int  `json:"replace_index,omitempty"`
}

// NewState returns an idle conversation.
func NewState(userID int64, sessionID string) State {
	return State{UserID: userID, SessionID: sessionID, Step: StepIdle}
}

// Reset returns an idle state that keeps identity and routine history.
func (s State) Reset() State {
	return State{
		UserID:         s.UserID,
		SessionID:      s.SessionID,
		Step:           StepIdle,
		RoutineCount:   s.RoutineCount,
		RoutineHistory: s.RoutineHistory,
	}
}

// withRoutine returns s holding a freshly generated routine.
func (s State) withRoutine(items []nutriroutine.RoutineItem, text string) State {
	next := s.Reset()
	next.Step = StepRoutineGenerated
	next.RoutineCount = s.RoutineCount + 1
	next.GeneratedRoutineItems = slices.Clone(items)
	next.RoutineHistory = append(slices.Clone(s.RoutineHistory), text)
	if len(next.RoutineHistory) > maxRoutineHistory {
		next.RoutineHistory = next.RoutineHistory[len(next.RoutineHistory)-maxRoutineHistory:]
	}
	return next
}

// backToRoutine returns to ROUTINE_GENERATED keeping the generated items.
func (s State) backToRoutine(items []nutriroutine.RoutineItem) State {
	next := s.Reset()
	next.Step = StepRoutineGenerated
	next.GeneratedRoutineItems = items
	return next
}
