package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// dd.mm.yy, the only date layout used by the statement export.
	shortDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{2}$`)
	// Normalised amount after locale separators are rewritten.
	plainAmountPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// NumberLocale describes how a locale writes decimal numbers.
type NumberLocale struct {
	Decimal rune
	// Group lists every rune accepted as a thousands separator.
	Group string
}

var (
	// LocaleRU is the statement column format: "33 199,94".
	LocaleRU = NumberLocale{Decimal: ',', Group: " \u00a0\u202f"}
	// LocaleUS is the card amount format inside descriptions: "2,040.00".
	LocaleUS = NumberLocale{Decimal: '.', Group: ", "}
)

// ParseAmount converts locale formatted text like "1 234,56" into a decimal.
// Anything other than digits, one decimal separator, group separators before
// the decimal separator and a leading minus is rejected.
func (l NumberLocale) ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = strings.TrimSpace(s)

	var b strings.Builder
	seenDecimal := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && i == 0:
			b.WriteRune(r)
		case r == l.Decimal && !seenDecimal:
			seenDecimal = true
			b.WriteByte('.')
		case !seenDecimal && strings.ContainsRune(l.Group, r):
		default:
			return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
		}
	}

	normalised := b.String()
	if !plainAmountPattern.MatchString(normalised) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return decimal.NewFromString(normalised)
}

// parseShortDate parses dd.mm.yy; two-digit years always land in 2000-2099.
func parseShortDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !shortDatePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("invalid date %q: want dd.mm.yy", s)
	}
	t, err := time.Parse("02.01.2006", s[:6]+"20"+s[6:])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func allBytes(s string, fn func(byte) bool) bool {
	for i := 0; i < len(s); i++ {
		if !fn(s[i]) {
			return false
		}
	}
	return true
}
