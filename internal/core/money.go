// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCents converts a decimal string to cents with proper rounding.
//
// It accepts an optional leading minus sign and a dot decimal separator, and
// performs half-up rounding on the third decimal place. Zero is accepted; range
// rules belong to the validation package.
//
// Examples:
//
//	ParseCents("12.34")  -> 1234, nil
//	ParseCents("-4.5")   -> -450, nil
//	ParseCents("12.345") -> 1235, nil (rounds up)
//	ParseCents("12.344") -> 1234, nil (rounds down)
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if negative {
		cents = -cents
	}
	return cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MoneyFromFloat rounds a decimal value to the nearest cent. Values whose
// cent count does not fit in an int64 are rejected with ErrInvalidAmount.
func MoneyFromFloat(f float64) (Money, error) {
	c := math.Round(f * 100)
	if math.IsNaN(c) || c >= math.MaxInt64 || c <= math.MinInt64 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(c)}, nil
}

// fractionDigits counts the significant decimal places of a JSON number
// literal, exponent included: 4.567 and 4567e-3 both have three.
func fractionDigits(num string) int {
	mantissa, exp, _ := strings.Cut(strings.ToLower(num), "e")
	_, frac, _ := strings.Cut(mantissa, ".")
	frac = strings.TrimRight(frac, "0")
	shift, _ := strconv.Atoi(exp)
	return max(len(frac)-shift, 0)
}

// Float returns the amount as a float64 for display and percentage math.
// Use cents for sums to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// String renders the shortest decimal form of the amount: 4.5, 12, -3.25.
// This is also the form used for JSON and for text search.
func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', -1, 64)
}

// Fixed renders the amount with exactly two decimals: 4.50, 12.00.
func (m Money) Fixed() string {
	sign := ""
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON writes the amount as a plain JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number with at most two significant decimals.
// More precision would be lost silently, so it is rejected. A JSON null
// leaves the value untouched.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	if fractionDigits(string(data)) > 2 {
		return fmt.Errorf("%w: %s has more than two decimals", ErrInvalidAmount, data)
	}
	v, err := MoneyFromFloat(f)
	if err != nil {
		return fmt.Errorf("%w: %s out of range", err, data)
	}
	*m = v
	return nil
}
