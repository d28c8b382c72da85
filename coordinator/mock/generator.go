// Package mock provides a deterministic generator for local runs and tests. It
// drafts routines straight from the catalog it is given and never calls a model.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"nutriroutine"
)

const foodsPerSlot = 2

type Generator struct {
	// Routines are replayed in order. Once exhausted, routines are drafted from the
	// request's catalog.
	Routines []string
	Answer   string
	Err      error
	// Delay is applied before every reply and honors ctx.
	Delay time.Duration

	mu              sync.Mutex
	routineRequests []nutriroutine.RoutineRequest
	questions       []string
}

func (g *Generator) wait(ctx context.Context) error {
	if g.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(g.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Generator) GenerateRoutineText(ctx context.Context, req nutriroutine.RoutineRequest) (string, error) {
	slog.Info("GENERATOR: Mock routine requested", "foods", len(req.Foods), "previous", len(req.Previous))

	g.mu.Lock()
	g.routineRequests = append(g.routineRequests, req)
	var scripted string
	if len(g.Routines) > 0 {
		scripted, g.Routines = g.Routines[0], g.Routines[1:]
	}
	g.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if g.Err != nil {
		return "", g.Err
	}
	if scripted != "" {
		return scripted, nil
	}
	return Draft(ctx, req)
}

func (g *Generator) GenerateFreeformAnswer(ctx context.Context, message string, profile nutriroutine.UserProfile, entries []nutriroutine.Entry) (string, error) {
	g.mu.Lock()
	g.questions = append(g.questions, message)
	g.mu.Unlock()

	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if g.Err != nil {
		return "", g.Err
	}
	if g.Answer != "" {
		return g.Answer, nil
	}
	return fmt.Sprintf("%s, una alimentación variada y equilibrada es la mejor base. Consulta a un profesional para un plan a tu medida.", profile.Name), nil
}

// RoutineRequests returns the routine requests received so far.
func (g *Generator) RoutineRequests() []nutriroutine.RoutineRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]nutriroutine.RoutineRequest(nil), g.routineRequests...)
}

// Questions returns the free-form messages received so far.
func (g *Generator) Questions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.questions...)
}

// Draft writes a routine taking catalog foods in order, two per slot, measured in
// their first valid unit.
func Draft(ctx context.Context, req nutriroutine.RoutineRequest) (string, error) {
	if len(req.Foods) < foodsPerSlot*len(nutriroutine.MealSlots) {
		return "", fmt.Errorf("catalog too small for a routine: %w", nutriroutine.ErrGenerationUnavailable)
	}

	var b strings.Builder
	next := 0
	for _, slot := range nutriroutine.MealSlots {
		fmt.Fprintf(&b, "%s:\n", slot)
		for i := 0; i < foodsPerSlot; i++ {
			f := req.Foods[next]
			next++
			qty, unit := "100.0", "gramos"
			if req.Units != nil {
				units, err := req.Units(ctx, f.ID)
				if err == nil && len(units) > 0 && units[0] != "gramos" && units[0] != "ml" {
					qty, unit = "1", units[0]
				} else if err == nil && len(units) > 0 {
					unit = units[0]
				}
			}
			fmt.Fprintf(&b, "- %s – %s %s\n", f.Name, qty, unit)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
