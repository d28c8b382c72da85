package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"nutriroutine"
)

const (
	DateLayout = "2006-01-02"

	minYear = 1900
	maxYear = 2100
)

var (
	isoDatePattern    = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	slashDatePattern  = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dashedDatePattern = regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`)
	monthDatePattern  = regexp.MustCompile(`(\d{1,2})\s+(?:de\s+)?(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)(?:\s+(?:de(?:l)?\s+)?(\d{4}))?`)
	strictDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// bareDatePattern matches a message that is nothing but a date.
	bareDatePattern = regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4})$`)
)

var months = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6, "julio": 7,
	"agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

// ExtractDate finds the first date mentioned in text and returns it as a YYYY-MM-DD
// candidate. Relative words are resolved against now. The candidate is not
// checked for calendar validity; use ValidateDate for that.
func ExtractDate(text string, now time.Time) (string, bool) {
	t := Normalize(text)

	if m := isoDatePattern.FindStringSubmatch(t); m != nil {
		return candidate(m[1], m[2], m[3]), true
	}
	if m := slashDatePattern.FindStringSubmatch(t); m != nil {
		return candidate(m[3], m[2], m[1]), true
	}
	if m := dashedDatePattern.FindStringSubmatch(t); m != nil {
		return candidate(m[3], m[2], m[1]), true
	}

	switch {
	case HasWord(t, "hoy") || HasWord(t, "today"):
		return now.Format(DateLayout), true
	case HasWord(t, "ayer") || HasWord(t, "yesterday"):
		return now.AddDate(0, 0, -1).Format(DateLayout), true
	case HasWord(t, "manana") || HasWord(t, "tomorrow"):
		return now.AddDate(0, 0, 1).Format(DateLayout), true
	}

	if m := monthDatePattern.FindStringSubmatch(t); m != nil {
		year := strconv.Itoa(now.Year())
		if m[3] != "" {
			year = m[3]
		}
		return candidate(year, strconv.Itoa(months[m[2]]), m[1]), true
	}

	return "", false
}

// IsBareDate reports whether the whole message is a date with no command around it.
func IsBareDate(text string) bool {
	return bareDatePattern.MatchString(Normalize(text))
}

func candidate(year, month, day string) string {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

type DateErrorKind int

const (
	DateFormat DateErrorKind = iota
	DateRange
)

// DateError describes why a date candidate was rejected.
type DateError struct {
	Kind  DateErrorKind
	Input string
	Year  int
}

func (e *DateError) Error() string {
	if e.Kind == DateRange {
		return fmt.Sprintf("date %q: year %d outside %d-%d", e.Input, e.Year, minYear, maxYear)
	}
	return fmt.Sprintf("date %q: not a valid YYYY-MM-DD date", e.Input)
}

func (e *DateError) Unwrap() error {
	if e.Kind == DateRange {
		return nutriroutine.ErrValidation
	}
	return nutriroutine.ErrParse
}

// ValidateDate checks that candidate is a real YYYY-MM-DD calendar date with a year
// between 1900 and 2100.
func ValidateDate(candidate string) (time.Time, error) {
	if !strictDatePattern.MatchString(candidate) {
		return time.Time{}, &DateError{Kind: DateFormat, Input: candidate}
	}
	year, _ := strconv.Atoi(candidate[:4])
	if year < minYear || year > maxYear {
		return time.Time{}, &DateError{Kind: DateRange, Input: candidate, Year: year}
	}
	d, err := time.Parse(DateLayout, candidate)
	if err != nil {
		return time.Time{}, &DateError{Kind: DateFormat, Input: candidate, Year: year}
	}
	return d, nil
}
