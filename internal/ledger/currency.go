package ledger

import (
	"regexp"
	"time"

	"bookkeeper/pkg/models"
)

// Fiat ISO codes and token tickers both fit: 2 to 10 uppercase letters or digits.
var currencyPattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

// NormalizeCurrency trims and uppercases a currency code
func NormalizeCurrency(code string) string {
	return models.NormalizeCurrency(code)
}

// ValidateCurrency normalizes code and rejects malformed values
func ValidateCurrency(code string) (string, error) {
	normalized := NormalizeCurrency(code)
	if !currencyPattern.MatchString(normalized) {
		return "", NewValidationError("currency", code, "must be 2-10 letters or digits")
	}
	return normalized, nil
}

// EndOfDay returns 23:59:59.999 of the calendar day of t, in t's location.
// Bare dates passed as as-of bounds are normalized with it so a balance
// "on" a day includes everything posted that day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DateRange is an inclusive range of instants
type DateRange struct {
	From time.Time
	To   time.Time
}

// DayRange builds a range covering whole calendar days from..to
func DayRange(from, to time.Time) DateRange {
	y, m, d := from.Date()
	return DateRange{
		From: time.Date(y, m, d, 0, 0, 0, 0, from.Location()),
		To:   EndOfDay(to),
	}
}

// Contains reports whether t lies within the range, bounds included
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

func (r DateRange) validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return NewValidationError("range", r, "both bounds are required")
	}
	if r.To.Before(r.From) {
		return NewValidationError("range", r, "end is before start")
	}
	return nil
}
