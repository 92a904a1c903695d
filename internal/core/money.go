// Package core provides money parsing and formatting utilities.
//
// This file contains functions for parsing user-entered monetary amounts
// into decimals and rendering them back for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a positive amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs, exponents and zero are
// rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}

	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals, e.g. "-12.50".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
