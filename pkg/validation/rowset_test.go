package validation

import (
	"errors"
	"testing"
)

func TestDistinctYears(t *testing.T) {
	tests := []struct {
		name     string
		dates    []string
		expected int
	}{
		{"Empty", nil, 0},
		{"Same year twice", []string{"01.01.2022", "01.06.2022"}, 1},
		{"Two years", []string{"01.01.2020", "01.01.2021"}, 2},
		{"Partial dates ignored", []string{"01.01", "01.01.2020", ""}, 1},
		{"Three years with repeats", []string{"01.01.2020", "02.02.2021", "03.03.2020", "04.04.2023"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DistinctYears(tt.dates); got != tt.expected {
				t.Errorf("DistinctYears() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestCheckDistinctYears(t *testing.T) {
	err := CheckDistinctYears([]string{"01.01.2022", "01.01.2022"}, 2)
	if !errors.Is(err, ErrTooFewYears) {
		t.Fatalf("expected ErrTooFewYears, got %v", err)
	}

	if err := CheckDistinctYears([]string{"01.01.2020", "01.01.2021"}, 2); err != nil {
		t.Errorf("unexpected error for two distinct years: %v", err)
	}

	if err := CheckDistinctYears([]string{"01.01.2020"}, 1); err != nil {
		t.Errorf("unexpected error with a one-year minimum: %v", err)
	}
}
