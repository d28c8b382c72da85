package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nutriroutine"
)

var quantityPattern = regexp.MustCompile(`^\d+([.,]\d+)?$`)

// ParseQuantity accepts a bare decimal number, with either a dot or a comma as separator.
func ParseQuantity(text string) (float64, error) {
	s := strings.TrimSpace(text)
	if !quantityPattern.MatchString(s) {
		return 0, fmt.Errorf("quantity %q: %w", text, nutriroutine.ErrParse)
	}
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", text, nutriroutine.ErrParse)
	}
	return v, nil
}

// FormatQuantity renders v without trailing zeros.
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
