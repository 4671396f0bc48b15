package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
)

// FormatDate reshapes raw keystroke text into a partial or complete
// DD.MM.YYYY string. Years are bounded by the default mask floor and the
// current year.
func FormatDate(raw string) string {
	return FormatDateWithBounds(raw, constants.DefaultMaskMinYear, time.Now().Year())
}

// FormatDateWithBounds is FormatDate with explicit year bounds.
//
// A group is clamped only once all of its digits are typed; until then the
// digits are echoed so the user can keep typing. For the year that means the
// clamp waits for the eighth digit rather than the sixth: a two-digit partial
// year such as "20" would otherwise be raised to minYear and block further
// input. The result always matches
// ^\d{1,2}(\.\d{0,2}(\.\d{0,4})?)?$ or is empty.
func FormatDateWithBounds(raw string, minYear, maxYear int) string {
	digits := onlyDigits(raw)
	if digits == "" {
		return ""
	}

	if len(digits) < 2 {
		return digits
	}
	var b strings.Builder
	b.WriteString(clampGroup(digits[:2], 1, constants.MaxDay, "%02d"))

	switch {
	case len(digits) == 2:
		return b.String()
	case len(digits) < 4:
		b.WriteString(constants.DateSeparator)
		b.WriteString(digits[2:])
		return b.String()
	}
	b.WriteString(constants.DateSeparator)
	b.WriteString(clampGroup(digits[2:4], 1, constants.MaxMonth, "%02d"))

	switch {
	case len(digits) == 4:
		return b.String()
	case len(digits) < 8:
		b.WriteString(constants.DateSeparator)
		b.WriteString(digits[4:])
		return b.String()
	}
	b.WriteString(constants.DateSeparator)
	b.WriteString(clampGroup(digits[4:8], minYear, maxYear, "%04d"))
	return b.String()
}

// onlyDigits keeps ASCII digits. Other Unicode digits are dropped so the
// fixed-width groups stay byte-indexable.
func onlyDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

func clampGroup(group string, lo, hi int, layout string) string {
	n, err := strconv.Atoi(group)
	if err != nil {
		return group
	}
	if hi < lo {
		hi = lo
	}
	if n < lo {
		n = lo
	}
	if n > hi {
		n = hi
	}
	return fmt.Sprintf(layout, n)
}
