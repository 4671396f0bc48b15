// Package format provides input masks and display formatting for amounts.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
)

// Currency returns an amount with thousands separators and the hryvnia
// suffix (e.g., "-1,234.56 грн").
func Currency(amount float64) string {
	return NumericCurrency(amount) + " " + constants.CurrencySymbol
}

// NumericCurrency returns an amount without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 && math.Abs(amount) >= 0.005 {
		sign = "-"
	}
	return sign + formatPositiveCurrency(math.Abs(amount))
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
