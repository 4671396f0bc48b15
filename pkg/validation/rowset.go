package validation

import (
	"errors"
	"fmt"

	"github.com/eugenekravchuk/agriculture-losses/pkg/datetime"
)

// ErrTooFewYears is returned when a set of rows spans fewer distinct years
// than a discounted cash flow needs.
var ErrTooFewYears = errors.New("not enough distinct years")

// DistinctYears counts the distinct year groups among dates. Dates without a
// year group are ignored.
func DistinctYears(dates []string) int {
	years := make(map[string]struct{}, len(dates))
	for _, date := range dates {
		if year, ok := datetime.Year(date); ok {
			years[year] = struct{}{}
		}
	}
	return len(years)
}

// CheckDistinctYears returns ErrTooFewYears when dates reference fewer than
// min distinct years.
func CheckDistinctYears(dates []string, min int) error {
	if got := DistinctYears(dates); got < min {
		return fmt.Errorf("%w: got %d, need %d", ErrTooFewYears, got, min)
	}
	return nil
}
