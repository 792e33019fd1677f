// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users or
// read from spreadsheets into float64 values suitable for Transaction.Amount.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an
// optional euro sign on either side and thousands separators in the form 1.234,56.
// Rounding is half-up on the third decimal place. Negative values and
// malformed input return ErrInvalidAmount; zero is allowed.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("€ 12,345")  -> 12.35, nil
//	ParseAmount("1.234,56")  -> 1234.56, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "€"), "€"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	// "1.234,56": dot is a thousands separator when a comma follows it
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		if strings.LastIndex(s, ",") < strings.LastIndex(s, ".") {
			return 0, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ".", "")
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}
