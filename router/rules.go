package router

import (
	"strings"

	"nutriroutine/dialogue"
	"nutriroutine/parse"
)

var (
	regeneratePhrases = []string{"cambiar rutina", "otra rutina", "rutina diferente", "generar otra"}
	viewPhrases       = []string{"ver rutina", "mi rutina", "rutina de hoy", "mostrar rutina", "ver mi rutina"}
	addVerbs          = []string{"agregar", "anadir"}
	changeVerbs       = []string{"cambiar", "modificar"}
	leadingArticles   = []string{"un", "una", "unos", "unas", "el", "la", "los", "las"}
)

func hasRegeneratePhrase(norm string) bool {
	return parse.ContainsAny(norm, regeneratePhrases...)
}

// isAffirmation accepts "si", "generar" and combinations of both.
func isAffirmation(norm string) bool {
	words := strings.FieldsFunc(norm, func(r rune) bool { return r == ' ' || r == ',' || r == '.' || r == '!' })
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if w != "si" && w != "generar" {
			return false
		}
	}
	return true
}

func isRoutineAnswer(norm string) bool {
	return isAffirmation(norm) || parse.HasWord(norm, "no") || parse.HasWord(norm, "cancelar")
}

// inRoutine reports whether step belongs to the generated-routine review.
func inRoutine(step dialogue.Step) bool {
	return strings.HasPrefix(string(step), "ROUTINE_")
}

// freeTextCommand reports whether a verb-first message names a food rather than one
// of the catalog or routine commands.
func freeTextCommand(m Message, verbs []string) (string, bool) {
	rest, ok := startsWithVerb(m, verbs)
	if !ok || parse.ContainsAny(m.Norm, "alimento", "rutina") {
		return "", false
	}
	return rest, true
}

// startsWithVerb returns the text after a leading verb, with articles dropped.
func startsWithVerb(m Message, verbs []string) (string, bool) {
	words := strings.Fields(m.Norm)
	if len(words) == 0 || !contains(verbs, words[0]) {
		return "", false
	}
	raw := strings.Fields(m.Text)
	rest := raw[1:]
	for len(rest) > 0 && contains(leadingArticles, strings.ToLower(rest[0])) {
		rest = rest[1:]
	}
	return strings.Join(rest, " "), true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func route(r Route) func(Message) Decision {
	return func(Message) Decision { return Decision{Route: r} }
}

// DefaultRules is the command precedence table of the chat service.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "start-routine",
			Priority: 10,
			Command:  true,
			Match:    func(m Message) bool { return strings.Contains(m.Norm, "generar rutina") },
			Route:    route(RouteStartRoutine),
		},
		{
			Name:     "reprompt-routine",
			Priority: 20,
			Match: func(m Message) bool {
				return m.Step == dialogue.StepWaitingRoutineConfirmation && !isRoutineAnswer(m.Norm)
			},
			Route: route(RouteRepromptRoutine),
		},
		{
			Name:     "generate-routine",
			Priority: 30,
			Match: func(m Message) bool {
				return (m.Step == dialogue.StepIdle || m.Step == dialogue.StepWaitingRoutineConfirmation) && isAffirmation(m.Norm)
			},
			Route: route(RouteGenerateRoutine),
		},
		{
			Name:     "regenerate-routine",
			Priority: 40,
			Command:  true,
			Match: func(m Message) bool {
				return hasRegeneratePhrase(m.Norm) && !strings.Contains(m.Norm, "cambiar alimento")
			},
			Route: route(RouteRegenerateRoutine),
		},
		{
			Name:     "add-by-category",
			Priority: 50,
			Command:  true,
			Match: func(m Message) bool {
				return parse.ContainsAny(m.Norm, "agregar alimento", "anadir alimento") &&
					!m.Step.IsAddConfirmation() && !inRoutine(m.Step)
			},
			Route: route(RouteStartAddByCategory),
		},
		{
			Name:     "change-by-category",
			Priority: 51,
			Command:  true,
			Match: func(m Message) bool {
				return parse.ContainsAny(m.Norm, "cambiar alimento", "modificar alimento") &&
					!m.Step.IsChangeConfirmation() && !inRoutine(m.Step)
			},
			Route: route(RouteStartChangeByCategory),
		},
		{
			Name:     "add-free-text",
			Priority: 52,
			Command:  true,
			Match: func(m Message) bool {
				_, ok := freeTextCommand(m, addVerbs)
				return ok && !m.Step.IsAddConfirmation() && !inRoutine(m.Step)
			},
			Route: func(m Message) Decision {
				rest, _ := freeTextCommand(m, addVerbs)
				return Decision{Route: RouteStartAddFreeText, Rest: rest}
			},
		},
		{
			Name:     "change-free-text",
			Priority: 53,
			Command:  true,
			Match: func(m Message) bool {
				_, ok := freeTextCommand(m, changeVerbs)
				return ok && !m.Step.IsChangeConfirmation() && !inRoutine(m.Step)
			},
			Route: func(m Message) Decision {
				rest, _ := freeTextCommand(m, changeVerbs)
				return Decision{Route: RouteStartChangeFreeText, Rest: rest}
			},
		},
		{
			Name:     "continue-flow",
			Priority: 60,
			Match:    func(m Message) bool { return m.Step != dialogue.StepIdle },
			Route:    route(RouteContinueFlow),
		},
		{
			Name:     "nothing-to-save",
			Priority: 65,
			Command:  true,
			Match:    func(m Message) bool { return parse.HasWord(m.Norm, "finalizar") },
			Route:    route(RouteNothingToSave),
		},
		{
			Name:     "view-routine",
			Priority: 70,
			Command:  true,
			Match:    func(m Message) bool { return parse.ContainsAny(m.Norm, viewPhrases...) },
			Route:    viewRoute,
		},
		{
			Name:     "date-guidance",
			Priority: 80,
			Match:    func(m Message) bool { return parse.IsBareDate(m.Text) },
			Route:    route(RouteDateGuidance),
		},
		{
			Name:     "freeform",
			Priority: 90,
			Match:    func(Message) bool { return true },
			Route:    route(RouteFreeform),
		},
	}
}

func viewRoute(m Message) Decision {
	d := Decision{Route: RouteViewRoutine}
	candidate, ok := parse.ExtractDate(m.Text, m.Now)
	if !ok {
		return d
	}
	if _, err := parse.ValidateDate(candidate); err != nil {
		d.DateErr = err
		return d
	}
	if candidate != m.Now.Format(parse.DateLayout) {
		d.Date = candidate
	}
	return d
}

// Default returns a router over DefaultRules.
func Default() *Router {
	return New(DefaultRules()...)
}
