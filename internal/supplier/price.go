package supplier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var currencySuffix = regexp.MustCompile(`\s*(EUR|USD|GBP)\s*$`)

// ParsePrice parses a price string into a float64 amount.
// Handles both decimal conventions: "12.99", "12,99", "1.299,00", "1,299.00",
// plus currency symbols and trailing currency codes.
func ParsePrice(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price value")
	}

	cleaned = strings.Map(func(r rune) rune {
		if r == '€' || r == '$' || r == '£' || r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, cleaned)
	cleaned = currencySuffix.ReplaceAllString(strings.ToUpper(cleaned), "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric value found")
	}

	// The rightmost separator is the decimal separator, the other one
	// is a thousands separator.
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")
	if lastComma > lastDot {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else if lastDot > lastComma {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	result, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price format %q: %w", value, err)
	}
	return result, nil
}

// ParseStock parses a stock quantity, tolerating decimal exports like "12.0".
func ParseStock(value string) (int, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(cleaned); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stock value %q: %w", value, err)
	}
	return int(f), nil
}

// ParseWeight parses an optional weight in kilograms.
func ParseWeight(value string) (*float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid weight value %q: %w", value, err)
	}
	return &f, nil
}
