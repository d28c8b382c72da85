package recommend

import (
	"regexp"
	"strings"

	"nutriroutine"
	"nutriroutine/parse"
)

var (
	headerPattern   = regexp.MustCompile(`^(desayuno|almuerzo|comida|cena|snacks?|merienda|colacion|breakfast|lunch|dinner)\b[^:]*:?\s*(.*)$`)
	bulletPattern   = regexp.MustCompile(`^(?:[-•*·]+|\d+[.)])\s*`)
	quantityPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([a-zA-ZñÑáéíóúÁÉÍÓÚ]+)?`)
	separators      = []string{" – ", " — ", " - ", "–", "—", ":"}
)

// ParseRoutineText reads a routine drafted as free text into items. Section headers
// select the slot, item lines are matched to catalog foods, and repeated foods are
// dropped. Items whose quantity could not be read have an empty Quantity.
func ParseRoutineText(text string, foods []nutriroutine.Food) []nutriroutine.RoutineItem {
	var (
		items []nutriroutine.RoutineItem
		slot  nutriroutine.MealSlot
		seen  = make(map[string]bool)
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.NewReplacer("**", "", "#", "", "__", "").Replace(raw))
		if line == "" {
			continue
		}

		if m := headerPattern.FindStringSubmatch(parse.Normalize(line)); m != nil {
			if s, ok := headerSlot(m[1]); ok {
				slot = s
				rest := strings.TrimSpace(m[2])
				if rest == "" {
					continue
				}
				// Inline form "Snack 1: manzana - 1 pieza": keep the original casing after the colon.
				if i := strings.Index(line, ":"); i >= 0 {
					line = strings.TrimSpace(line[i+1:])
				} else {
					continue
				}
			}
		}
		if slot == "" {
			continue
		}

		item, ok := parseItemLine(line, foods)
		if !ok {
			continue
		}
		key := normName(item.FoodName)
		if seen[key] {
			continue
		}
		seen[key] = true
		item.Slot = slot
		items = append(items, item)
	}
	return items
}

func headerSlot(word string) (nutriroutine.MealSlot, bool) {
	switch word {
	case "desayuno", "breakfast":
		return nutriroutine.SlotBreakfast, true
	case "almuerzo", "comida", "lunch":
		return nutriroutine.SlotLunch, true
	case "cena", "dinner":
		return nutriroutine.SlotDinner, true
	case "snack", "snacks", "merienda", "colacion":
		return nutriroutine.SlotSnack, true
	}
	return "", false
}

func parseItemLine(line string, foods []nutriroutine.Food) (nutriroutine.RoutineItem, bool) {
	line = bulletPattern.ReplaceAllString(line, "")
	namePart, qtyPart := line, ""
	for _, sep := range separators {
		if i := strings.Index(line, sep); i > 0 {
			namePart, qtyPart = line[:i], line[i+len(sep):]
			break
		}
	}

	food, ok := matchFood(namePart, foods)
	if !ok {
		return nutriroutine.RoutineItem{}, false
	}

	item := nutriroutine.RoutineItem{FoodName: food.Name, FoodID: food.ID}
	if qtyPart == "" {
		qtyPart = line
	}
	if m := quantityPattern.FindStringSubmatch(qtyPart); m != nil {
		if v, err := parse.ParseQuantity(m[1]); err == nil {
			item.Quantity = parse.FormatQuantity(v)
			item.Unit = strings.ToLower(m[2])
		}
	}
	return item, true
}

// matchFood finds the catalog food named in text, preferring the longest name so that
// "pechuga de pollo" wins over "pollo".
func matchFood(text string, foods []nutriroutine.Food) (nutriroutine.Food, bool) {
	t := parse.Normalize(text)
	if t == "" {
		return nutriroutine.Food{}, false
	}
	var (
		best    nutriroutine.Food
		bestLen int
	)
	for _, f := range foods {
		name := normName(f.Name)
		if name == "" {
			continue
		}
		if strings.Contains(t, name) || strings.Contains(name, t) {
			if len(name) > bestLen {
				best, bestLen = f, len(name)
			}
		}
	}
	return best, bestLen > 0
}

func normName(s string) string { return parse.Normalize(s) }

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[normName(n)] = true
	}
	return set
}
