// Package currencyutils parses and formats the ringgit amounts printed on
// receipts.
package currencyutils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ISO code of the amounts handled by the extractor.
const DefaultCurrency = "MYR"

// ErrEmptyAmount is returned when nothing numeric is left after cleaning.
var ErrEmptyAmount = errors.New("empty amount")

// AmountPattern matches a two-decimal amount. Thousands-separated forms
// ("1,234.56", "1.234,56") are tried before the plain "123.45" / "123,45".
var AmountPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\.\d{2}|\d{1,3}(?:\.\d{3})+,\d{2}|\d+[.,]\d{2}`)

var (
	currencyLabel = regexp.MustCompile(`(?i)MYR|RM`)
	symbols       = regexp.MustCompile(`[€$£¥\s']`)
	threeDigits   = regexp.MustCompile(`^\d{3}$`)
)

// ParseAmount parses an amount as printed on a receipt, such as "RM 45.90",
// "MYR1,234.50" or "12,50". Currency labels and whitespace are ignored.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, ErrEmptyAmount)
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount strips currency labels, symbols and whitespace, then
// rewrites the remaining number so decimal.NewFromString accepts it: the
// last separator followed by at most two digits is the decimal point and any
// other separator is a thousands separator.
func StandardizeAmount(amountStr string) string {
	s := currencyLabel.ReplaceAllString(amountStr, "")
	s = symbols.ReplaceAllString(s, "")
	s = strings.Trim(s, ":")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts[len(parts)-1]) <= 2 {
			s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasDot:
		parts := strings.Split(s, ".")
		if len(parts) > 2 && allThousandsGroups(parts[1:]) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func allThousandsGroups(groups []string) bool {
	for _, g := range groups {
		if !threeDigits.MatchString(g) {
			return false
		}
	}
	return true
}

// FindAmounts returns every amount in text, in order of appearance, skipping
// matches that fail to parse.
func FindAmounts(text string) []decimal.Decimal {
	matches := AmountPattern.FindAllString(text, -1)
	out := make([]decimal.Decimal, 0, len(matches))
	for _, m := range matches {
		if v, err := ParseAmount(m); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// FormatAmount renders amount with two decimals and the ringgit symbol for
// MYR, or the currency code otherwise.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)
	switch strings.ToUpper(currency) {
	case "":
		return formatted
	case DefaultCurrency, "RM":
		return "RM " + formatted
	default:
		return strings.ToUpper(currency) + " " + formatted
	}
}

// IsPositive checks if an amount is greater than zero.
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}

// InRange reports whether lo < amount < hi.
func InRange(amount, lo, hi decimal.Decimal) bool {
	return amount.GreaterThan(lo) && amount.LessThan(hi)
}
