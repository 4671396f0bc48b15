package datetime

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"testing"
)

const (
	testMinYear = 1900
	testMaxYear = 2026
)

var partialDateRe = regexp.MustCompile(`^\d{1,2}(\.\d{0,2}(\.\d{0,4})?)?$`)

func TestFormatDateWithBounds(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"Empty input", "", ""},
		{"Letters only", "abc", ""},
		{"Single day digit", "3", "3"},
		{"Day above 31 clamps", "45", "31"},
		{"Day zero clamps", "00", "01"},
		{"Partial month", "311", "31.1"},
		{"Month above 12 clamps", "3113", "31.12"},
		{"Month zero clamps", "1500", "15.01"},
		{"Partial year is echoed", "311220", "31.12.20"},
		{"Three year digits", "0101189", "01.01.189"},
		{"Full date", "31122024", "31.12.2024"},
		{"Year below floor snaps up", "01011899", "01.01.1900"},
		{"Year above current snaps down", "01019999", "01.01.2026"},
		{"Extra digits dropped", "010120241", "01.01.2024"},
		{"Separators are rebuilt", "12/05/2023", "12.05.2023"},
		{"Already formatted", "12.05.2023", "12.05.2023"},
		{"Mixed garbage", "a1b2.c0d3", "12.03"},
		{"Non-ASCII digits dropped", "١٢05", "05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDateWithBounds(tt.raw, testMinYear, testMaxYear)
			if got != tt.expected {
				t.Errorf("FormatDateWithBounds(%q) = %q, expected %q", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestFormatDateStricterFloor(t *testing.T) {
	if got := FormatDateWithBounds("01011999", 2000, testMaxYear); got != "01.01.2000" {
		t.Errorf("expected 2000 floor to apply, got %q", got)
	}
}

func TestFormatDateShapeExhaustive(t *testing.T) {
	// Every digit string up to five characters.
	for length := 1; length <= 5; length++ {
		limit := 1
		for i := 0; i < length; i++ {
			limit *= 10
		}
		for n := 0; n < limit; n++ {
			raw := fmt.Sprintf("%0*d", length, n)
			got := FormatDateWithBounds(raw, testMinYear, testMaxYear)
			if !partialDateRe.MatchString(got) {
				t.Fatalf("FormatDateWithBounds(%q) = %q does not match partial date shape", raw, got)
			}
		}
	}
}

func TestFormatDateShapeSampled(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20000; i++ {
		length := 6 + rng.Intn(3)
		raw := ""
		for j := 0; j < length; j++ {
			raw += strconv.Itoa(rng.Intn(10))
		}
		got := FormatDateWithBounds(raw, testMinYear, testMaxYear)
		if !partialDateRe.MatchString(got) {
			t.Fatalf("FormatDateWithBounds(%q) = %q does not match partial date shape", raw, got)
		}
	}
}

func TestFormatDateIdempotent(t *testing.T) {
	for _, year := range []int{1900, 1999, 2000, 2023, 2024, 2026} {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= DaysInMonth(month, year); day++ {
				date := fmt.Sprintf("%02d.%02d.%04d", day, month, year)
				if got := FormatDateWithBounds(date, testMinYear, testMaxYear); got != date {
					t.Fatalf("FormatDateWithBounds(%q) = %q, expected unchanged", date, got)
				}
			}
		}
	}
}

func TestFormatDateDayClamp(t *testing.T) {
	for n := 0; n <= 99; n++ {
		raw := fmt.Sprintf("%02d", n)
		got := FormatDateWithBounds(raw, testMinYear, testMaxYear)
		switch {
		case n > 31 && got != "31":
			t.Errorf("FormatDateWithBounds(%q) = %q, expected 31", raw, got)
		case n < 1 && got != "01":
			t.Errorf("FormatDateWithBounds(%q) = %q, expected 01", raw, got)
		case n >= 1 && n <= 31 && got != raw:
			t.Errorf("FormatDateWithBounds(%q) = %q, expected unchanged", raw, got)
		}
	}
}

func TestFormatDateUsesCurrentYear(t *testing.T) {
	got := FormatDate("01019999")
	if !partialDateRe.MatchString(got) || len(got) != len("01.01.2026") {
		t.Fatalf("FormatDate() = %q, expected a full date", got)
	}
	if got == "01.01.9999" {
		t.Errorf("FormatDate() did not clamp a far future year")
	}
}
