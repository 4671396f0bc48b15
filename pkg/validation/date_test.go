package validation

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func TestValidateDateWithFixedTime(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		policy   DatePolicy
		expected bool
	}{
		{"Leap day in leap year", "29.02.2024", DefaultDatePolicy(), true},
		{"Leap day in common year", "29.02.2023", DefaultDatePolicy(), false},
		{"April has 30 days", "31.04.2024", DefaultDatePolicy(), false},
		{"Last day of April", "30.04.2024", DefaultDatePolicy(), true},
		{"Day zero", "00.01.2024", DefaultDatePolicy(), false},
		{"Month zero", "01.00.2024", DefaultDatePolicy(), false},
		{"Month thirteen", "01.13.2024", DefaultDatePolicy(), false},
		{"Floor year accepted", "01.01.2000", DefaultDatePolicy(), true},
		{"Below floor year", "31.12.1999", DefaultDatePolicy(), false},
		{"Five years ahead accepted", "31.12.2031", DefaultDatePolicy(), true},
		{"Six years ahead rejected", "01.01.2032", DefaultDatePolicy(), false},
		{"Lenient 1990 floor", "15.06.1995", DatePolicy{MinYear: 1990, YearsAhead: 5}, true},
		{"No years ahead", "01.01.2027", DatePolicy{MinYear: 2000, YearsAhead: 0}, false},
		{"Partial date", "01.01.20", DefaultDatePolicy(), false},
		{"Unpadded day", "1.01.2024", DefaultDatePolicy(), false},
		{"Slashes", "01/01/2024", DefaultDatePolicy(), false},
		{"Empty", "", DefaultDatePolicy(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDateWithFixedTime(tt.date, tt.policy, fixedNow)
			if got != tt.expected {
				t.Errorf("ValidateDateWithFixedTime(%q) = %t, expected %t", tt.date, got, tt.expected)
			}
		})
	}
}

func TestValidateDateDefaultPolicy(t *testing.T) {
	if !ValidateDate("29.02.2024") {
		t.Error("expected 29.02.2024 to be valid")
	}
	if ValidateDate("29.02.2023") {
		t.Error("expected 29.02.2023 to be invalid")
	}
	if ValidateDate("31.04.2024") {
		t.Error("expected 31.04.2024 to be invalid")
	}
}
