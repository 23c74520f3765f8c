// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed into the
// ledger forms and rendering cents for display.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxAmount keeps amount*100 far inside int64.
var maxAmount = decimal.New(1, 13)

var amountPrinter = message.NewPrinter(language.English)

// ParseAmount converts a form amount to cents with half-up rounding at the
// second decimal place.
//
// Commas are treated as thousands separators, so "1,200.50" is accepted.
// Zero is a well-formed amount and parses without error; the record
// validators reject it. Exponent notation such as "1e3" is refused.
// Negative, empty or non-numeric input yields a
// *ValidationError wrapping ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("500")      -> 50000
//	ParseAmount("120.50")   -> 12050
//	ParseAmount("1,200.5")  -> 120050
//	ParseAmount("12.345")   -> 1235 (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	// decimal accepts exponents; the form only takes plain decimals.
	if s == "" || strings.ContainsAny(s, "eE") {
		return Money{}, newValidationError(ErrInvalidAmount, "amount", ReasonAmountMalformed)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, newValidationError(ErrInvalidAmount, "amount", ReasonAmountMalformed)
	}
	if d.IsNegative() {
		return Money{}, newValidationError(ErrInvalidAmount, "amount", ReasonAmountNotPositive)
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return Money{}, newValidationError(ErrInvalidAmount, "amount", ReasonAmountMalformed)
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// FormatAmount renders cents with thousands separators and two decimals,
// e.g. 123456 -> "1,234.56".
func FormatAmount(m Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + amountPrinter.Sprintf("%d", cents/100) + fmt.Sprintf(".%02d", cents%100)
}

// Baht returns the amount as a float64 for chart payloads.
// Use cents for calculations.
func (m Money) Baht() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the exact amount as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) String() string {
	return FormatAmount(m)
}
