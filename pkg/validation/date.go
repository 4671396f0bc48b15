package validation

import (
	"time"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/datetime"
)

// DatePolicy bounds the years a fully entered date may carry.
type DatePolicy struct {
	// MinYear is the earliest accepted year.
	MinYear int `yaml:"minYear" mapstructure:"minYear"`
	// YearsAhead is how far past the current year a date may reach.
	YearsAhead int `yaml:"yearsAhead" mapstructure:"yearsAhead"`
}

// DefaultDatePolicy accepts years from 2000 up to five years ahead.
func DefaultDatePolicy() DatePolicy {
	return DatePolicy{
		MinYear:    constants.DefaultMinYear,
		YearsAhead: constants.DefaultYearsAhead,
	}
}

// ValidateDate reports whether date is a real DD.MM.YYYY calendar date under
// the default policy.
func ValidateDate(date string) bool {
	return ValidateDateWithFixedTime(date, DefaultDatePolicy(), time.Now())
}

// ValidateDateWithFixedTime is ValidateDate with an explicit policy and an
// injectable clock for testing.
func ValidateDateWithFixedTime(date string, policy DatePolicy, now time.Time) bool {
	day, month, year, err := datetime.ParseDate(date)
	if err != nil {
		return false
	}
	if year < policy.MinYear || year > now.Year()+policy.YearsAhead {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= datetime.DaysInMonth(month, year)
}
