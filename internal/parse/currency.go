// Package parse converts locale-formatted monetary and date strings from
// extracted document text into canonical values.
package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNoAmount is returned when a string holds no parseable monetary value.
// Callers must treat it as "no amount found", not as zero.
var ErrNoAmount = errors.New("no monetary value")

// CurrencyPattern matches Brazilian-formatted amounts, with or without the
// R$ prefix: "R$ 1.234,56", "1.234,56", "90,00".
var CurrencyPattern = regexp.MustCompile(`R?\$?\s*\d{1,3}(?:\.\d{3})*,\d{2}`)

// Currency parses a Brazilian-formatted monetary string into a decimal.
// It strips the currency symbol and whitespace, removes thousands
// separators and converts the decimal comma to a point.
func Currency(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, ErrNoAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNoAmount, text)
	}
	return d, nil
}

// FormatCurrency renders a decimal as "R$ 1.234,56" for display.
func FormatCurrency(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "R$ " + b.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
