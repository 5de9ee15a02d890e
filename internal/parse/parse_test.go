package parse

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.234,56", "1234.56"},
		{"R$ 90,00", "90"},
		{"R$ 3.467,00", "3467"},
		{"R$1.000.000,99", "1000000.99"},
		{"  R$ 12,50  ", "12.5"},
	}
	for _, tt := range tests {
		got, err := Currency(tt.in)
		if err != nil {
			t.Errorf("Currency(%q) returned error: %v", tt.in, err)
			continue
		}
		if want, _ := decimal.NewFromString(tt.want); !got.Equal(want) {
			t.Errorf("Currency(%q) = %s, want %s", tt.in, got, want)
		}
	}
}

func TestCurrencyRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "abc", "R$", "R$ abc", "   "} {
		_, err := Currency(in)
		if !errors.Is(err, ErrNoAmount) {
			t.Errorf("Currency(%q) error = %v, want ErrNoAmount", in, err)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1234.56", "R$ 1.234,56"},
		{"90", "R$ 90,00"},
		{"1000000.99", "R$ 1.000.000,99"},
		{"0", "R$ 0,00"},
	}
	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.in)
		if got := FormatCurrency(d); got != tt.want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDate(t *testing.T) {
	got, ok := Date("06/02/26")
	if !ok {
		t.Fatal("Date(06/02/26) not recognized")
	}
	want := time.Date(2026, time.February, 6, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Date(06/02/26) = %v, want %v", got, want)
	}
}

func TestDateCenturyCutover(t *testing.T) {
	tests := []struct {
		in   string
		year int
	}{
		{"01/01/00", 2000},
		{"01/01/49", 2049},
		{"01/01/50", 1950},
		{"01/01/99", 1999},
	}
	for _, tt := range tests {
		got, ok := Date(tt.in)
		if !ok {
			t.Errorf("Date(%q) not recognized", tt.in)
			continue
		}
		if got.Year() != tt.year {
			t.Errorf("Date(%q).Year() = %d, want %d", tt.in, got.Year(), tt.year)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"06/02/26", "06/02/2026"},
		{"06/02/2026", "06/02/2026"},
		{"31/13/2026", "31/13/2026"}, // invalid month, returned unchanged
		{"30/02/2025", "30/02/2025"}, // impossible day, returned unchanged
		{"not a date", "not a date"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
