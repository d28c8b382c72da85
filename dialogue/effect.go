package dialogue

import (
	"time"

	"nutriroutine"
)

// Effect is a side effect a transition asks the caller to perform.
type Effect interface {
	Kind() string
}

type RecordEntry struct {
	FoodName string
	Quantity string
	Unit     string
	Slot     nutriroutine.MealSlot
}

func (RecordEntry) Kind() string { return "record_entry" }

type ReplaceEntry struct {
	OriginalFood string
	NewFood      string
	Quantity     string
	Unit         string
	Slot         nutriroutine.MealSlot
}

func (ReplaceEntry) Kind() string { return "replace_entry" }

// FinalizeRoutine replaces the entries of every slot on Date with Items. Executors must
// delete all four slots before inserting.
type FinalizeRoutine struct {
	Date  time.Time
	Items []nutriroutine.RoutineItem
}

func (FinalizeRoutine) Kind() string { return "finalize_routine" }

// GenerateRoutine asks for a new routine; the result is fed back through RoutineGenerated.
type GenerateRoutine struct {
	Regenerate bool
}

func (GenerateRoutine) Kind() string { return "generate_routine" }
