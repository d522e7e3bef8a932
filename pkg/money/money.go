// Package money holds the currency and amount value objects shared by the
// guarantee messaging engine and the SWIFT codec.
package money

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)
	// SWIFT amounts: digits, one mandatory comma, optional fraction.
	swiftAmountRe = regexp.MustCompile(`^[0-9]+,[0-9]*$`)
	// Content amounts: plain decimal notation, no exponent, no sign.
	plainAmountRe = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)
)

// Currency is an ISO 4217 currency code.
type Currency struct {
	code string
}

// NewCurrency creates a Currency after validating the code is exactly 3 uppercase letters.
func NewCurrency(code string) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	return Currency{code: code}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string) Currency {
	c, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// IsCurrencyCode reports whether code is a well-formed ISO 4217 code.
func IsCurrencyCode(code string) bool {
	return currencyCodeRe.MatchString(code)
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// String returns the currency code.
func (c Currency) String() string {
	return c.code
}

// Common currencies.
var (
	USD = MustCurrency("USD")
	EUR = MustCurrency("EUR")
	GBP = MustCurrency("GBP")
)

// Money is an immutable amount in a currency.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// New creates a Money value from a decimal amount and currency.
func New(amount decimal.Decimal, currency Currency) Money {
	return Money{amount: amount, currency: currency}
}

// NewFromString parses a plain decimal amount string and currency code.
func NewFromString(amount string, currency string) (Money, error) {
	cur, err := NewCurrency(currency)
	if err != nil {
		return Money{}, fmt.Errorf("invalid currency: %w", err)
	}
	d, err := ParseAmount(amount)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d, currency: cur}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency.
func (m Money) Currency() Currency {
	return m.currency
}

// IsPositive returns true if the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// String formats the value as "<currency> <amount>", e.g. "USD 100000.00".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency.Code(), m.amount.StringFixed(2))
}

// ParseAmount parses a plain decimal amount ("100000", "2500.50").
// Exponent notation is rejected even though decimal would accept it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !plainAmountRe.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ToSWIFTAmount rewrites a plain decimal amount in SWIFT notation, keeping
// the caller's digits: "100000" -> "100000,", "2500.50" -> "2500,50".
func ToSWIFTAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !plainAmountRe.MatchString(s) || strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("invalid amount %q for SWIFT notation", s)
	}
	if strings.Contains(s, ".") {
		return strings.Replace(s, ".", ",", 1), nil
	}
	return s + ",", nil
}

// FromSWIFTAmount is the inverse of ToSWIFTAmount: "100000," -> "100000".
func FromSWIFTAmount(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !swiftAmountRe.MatchString(s) {
		return "", fmt.Errorf("invalid SWIFT amount %q", s)
	}
	s = strings.TrimSuffix(s, ",")
	return strings.Replace(s, ",", ".", 1), nil
}
