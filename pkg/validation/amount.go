package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyAmount is returned for an amount with no digits.
	ErrEmptyAmount = errors.New("amount is empty")
	// ErrNegativeAmount is returned for an amount below zero.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// ParseNumber parses a decimal string. It accepts the same plain notation a
// user can type (digits, optional sign, one decimal point).
func ParseNumber(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", value, err)
	}
	return d, nil
}

// ParseAmount parses a cash-flow amount and rejects negative values.
func ParseAmount(value string) (decimal.Decimal, error) {
	d, err := ParseNumber(value)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, value)
	}
	return d, nil
}

// ValidateAmount reports whether value is a finite number that is zero or
// more.
func ValidateAmount(value string) bool {
	_, err := ParseAmount(value)
	return err == nil
}

// ValidateRow is the conjunction of the date and amount validators.
func ValidateRow(date, amount string, policy DatePolicy, now time.Time) bool {
	return ValidateDateWithFixedTime(date, policy, now) && ValidateAmount(amount)
}
