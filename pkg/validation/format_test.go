package validation

import (
	"strings"
	"testing"

	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
)

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name   string
		format string
		valid  bool
	}{
		{"Table for the terminal", constants.OutputFormatPretty, true},
		{"Spreadsheet import", constants.OutputFormatCSV, true},
		{"Scripted report", constants.OutputFormatJSON, true},
		{"Flag given with no value", "", false},
		{"YAML is only for tables export", "yaml", false},
		{"Formats are lower case", "JSON", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.valid && err != nil {
				t.Errorf("ValidateOutputFormat(%q) = %v, want nil", tt.format, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateOutputFormat(%q) = nil, want error", tt.format)
			}
		})
	}
}

func TestValidateOutputFormatNamesChoices(t *testing.T) {
	err := ValidateOutputFormat("xml")
	if err == nil {
		t.Fatal("expected error for xml")
	}
	for _, want := range []string{"pretty", "csv", "json", "got xml"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}
