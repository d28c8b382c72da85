// Package router decides which handler owns an incoming chat message. Rules are
// evaluated in priority order and the first match wins.
package router

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"nutriroutine/dialogue"
	"nutriroutine/parse"
)

type Route string

const (
	RouteStartRoutine          Route = "start_routine"
	RouteRepromptRoutine       Route = "reprompt_routine"
	RouteGenerateRoutine       Route = "generate_routine"
	RouteRegenerateRoutine     Route = "regenerate_routine"
	RouteStartAddByCategory    Route = "start_add_by_category"
	RouteStartChangeByCategory Route = "start_change_by_category"
	RouteStartAddFreeText      Route = "start_add_free_text"
	RouteStartChangeFreeText   Route = "start_change_free_text"
	RouteContinueFlow          Route = "continue_flow"
	RouteNothingToSave         Route = "nothing_to_save"
	RouteViewRoutine           Route = "view_routine"
	RouteRedisplayRoutine      Route = "redisplay_routine"
	RouteDateGuidance          Route = "date_guidance"
	RouteFreeform              Route = "freeform"
)

// Message is what a rule sees: the raw text, its normalized form and the current step.
type Message struct {
	Text string
	Norm string
	Step dialogue.Step
	Now  time.Time
}

// Decision is the routing result handed to the chat service.
type Decision struct {
	Route Route
	Rule  string
	// Rest is the text after the verb of a free-text add or change command.
	Rest string
	// Date is the requested YYYY-MM-DD for view routes; empty means today.
	Date string
	// DateErr is set when the message named a date that failed validation.
	DateErr error
	// ExitViewing reports that the user was viewing a routine and must return to IDLE
	// before the route runs.
	ExitViewing bool
}

type Rule struct {
	Name     string
	Priority int
	// Command marks rules that fire on an explicit user command. Two command rules
	// matching the same message are logged as ambiguous.
	Command bool
	Match   func(Message) bool
	Route   func(Message) Decision
}

type Router struct {
	rules []Rule
}

// New returns a router over rules sorted by ascending priority. Rules with equal
// priority keep their relative order.
func New(rules ...Rule) *Router {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int { return a.Priority - b.Priority })
	return &Router{rules: sorted}
}

// Rules returns the rules in evaluation order.
func (r *Router) Rules() []Rule {
	return slices.Clone(r.rules)
}

// Decide routes text for a conversation at step.
func (r *Router) Decide(text string, step dialogue.Step, now time.Time) Decision {
	m := Message{Text: strings.TrimSpace(text), Norm: parse.Normalize(text), Step: step, Now: now}

	if step != dialogue.StepViewingRoutine {
		return r.decide(m)
	}

	m.Step = dialogue.StepIdle
	d := r.decide(m)
	if d.Route == RouteFreeform {
		d.Route = RouteRedisplayRoutine
		return d
	}
	d.ExitViewing = true
	return d
}

func (r *Router) decide(m Message) Decision {
	for i, rule := range r.rules {
		if !rule.Match(m) {
			continue
		}
		d := rule.Route(m)
		d.Rule = rule.Name
		if rule.Command {
			r.warnAmbiguous(m, rule, r.rules[i+1:])
		}
		slog.Debug("ROUTER: Matched rule", "rule", rule.Name, "route", d.Route, "step", m.Step)
		return d
	}
	return Decision{Route: RouteFreeform, Rule: "none"}
}

func (r *Router) warnAmbiguous(m Message, winner Rule, rest []Rule) {
	var shadowed []string
	for _, rule := range rest {
		if rule.Command && rule.Match(m) {
			shadowed = append(shadowed, rule.Name)
		}
	}
	if strings.Contains(m.Norm, "cambiar alimento") && hasRegeneratePhrase(m.Norm) {
		shadowed = append(shadowed, "regenerate-routine")
	}
	if len(shadowed) > 0 {
		slog.Warn("ROUTER: ambiguous command", "message", m.Text, "winner", winner.Name, "shadowed", shadowed)
	}
}
