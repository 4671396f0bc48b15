// Package datetime provides date parsing and input masking utilities.
package datetime

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
)

const (
	// DateLayout is the format of a fully entered date and is also the format
	// sent to the prediction API.
	DateLayout = constants.DateLayout
)

var dateRe = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)

// ErrDateFormat is returned when a date is not shaped DD.MM.YYYY.
var ErrDateFormat = errors.New("date must be in DD.MM.YYYY format")

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate splits a DD.MM.YYYY string into its numeric groups. It only
// checks the shape; range checks belong to the validation package.
func ParseDate(date string) (day, month, year int, err error) {
	m := dateRe.FindStringSubmatch(date)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrDateFormat, date)
	}
	// The regexp guarantees digits, so Atoi cannot fail here.
	day, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	year, _ = strconv.Atoi(m[3])
	return day, month, year, nil
}

// DaysInMonth returns the number of days in the given month of the given
// year, accounting for leap years.
func DaysInMonth(month, year int) int {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Year returns the year group of a date string, or false when the string has
// no year group yet.
func Year(date string) (string, bool) {
	parts := strings.Split(date, constants.DateSeparator)
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
