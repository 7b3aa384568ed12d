package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookkeeper/pkg/models"
)

var dateFormats = []string{
	"02.01.2006", // DD.MM.YYYY
	"2.1.2006",   // D.M.YYYY
	"02.01.06",   // DD.MM.YY
	"2.1.06",     // D.M.YY
	"2006-01-02", // ISO
}

// parseDate accepts German and ISO dates and returns midnight UTC
func parseDate(s string) (time.Time, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	for _, format := range dateFormats {
		if date, err := time.ParseInLocation(format, cleaned, time.UTC); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

var monthFormats = []string{
	"2006-01",
	"01.2006",
	"1.2006",
	"01/2006",
}

func parseMonth(s string) (models.Month, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return models.Month{}, fmt.Errorf("empty month string")
	}
	for _, format := range monthFormats {
		if t, err := time.ParseInLocation(format, cleaned, time.UTC); err == nil {
			return models.MonthOf(t), nil
		}
	}
	// full dates are accepted and truncated to their month
	if t, err := parseDate(cleaned); err == nil {
		return models.MonthOf(t), nil
	}
	return models.Month{}, fmt.Errorf("unable to parse month: %s", s)
}

// parseAmount parses German ("1.234,56") and plain ("1234.56") amounts.
// When both separators occur the last one is the decimal separator. A lone
// comma is a decimal comma, repeated commas or dots are thousands separators.
// Empty input is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "-"))
	}

	for _, noise := range []string{" ", "\u00a0", "€", "$", "EUR", "USD"} {
		cleaned = strings.ReplaceAll(cleaned, noise, "")
	}

	dots := strings.Count(cleaned, ".")
	commas := strings.Count(cleaned, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case commas == 1:
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case commas > 1:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	case dots > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse amount: %s (cleaned: %s)", s, cleaned)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// getString safely extracts a string value from a row slice
func getString(row []interface{}, index int) string {
	if index >= len(row) || row[index] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", row[index]))
}
