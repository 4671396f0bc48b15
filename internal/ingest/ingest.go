// Package ingest reads uploaded CSV and XLSX files into records keyed by an
// explicit column configuration.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/xuri/excelize/v2"
)

// Kind tells how a column's cells are interpreted.
type Kind string

const (
	KindText    Kind = "text"
	KindNumeric Kind = "numeric"
)

// Column describes one expected column. Label is the human header, Key the
// payload field name. Either may appear as the file header.
type Column struct {
	Label string `json:"label" yaml:"label" mapstructure:"label"`
	Key   string `json:"key" yaml:"key" mapstructure:"key"`
	Kind  Kind   `json:"kind" yaml:"kind" mapstructure:"kind"`
}

// Format is an upload file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file has no data rows")
	ErrMissingColumn     = errors.New("missing column")
	ErrAmbiguousColumn   = errors.New("ambiguous column")
	ErrShortRecord       = errors.New("record has too few cells")
	ErrUnreadable        = errors.New("file could not be read")
)

func newError(sentinel error, key string, args ...interface{}) *i18n.Error {
	return i18n.Errorf(sentinel, key, args...)
}

func unreadable(cause error) *i18n.Error {
	return i18n.Errorf(fmt.Errorf("%w: %v", ErrUnreadable, cause), i18n.KeyUploadFailed, cause.Error())
}

// Options control parsing.
type Options struct {
	// Delimiter separates CSV fields. Zero sniffs ',', ';' or tab from the
	// first line.
	Delimiter rune `yaml:"delimiter" mapstructure:"delimiter"`
	// Header tells whether the first row names the columns. Without a header
	// cells map to columns by position.
	Header bool `yaml:"header" mapstructure:"header"`
	// Sheet selects the XLSX sheet; empty means the first one.
	Sheet string `yaml:"sheet" mapstructure:"sheet"`
	// FuzzyHeaders lets a header that only resembles a label or key match
	// when no header matches it exactly.
	FuzzyHeaders bool `yaml:"fuzzyHeaders" mapstructure:"fuzzyHeaders"`
}

// DefaultOptions expects a header row and sniffs the delimiter.
func DefaultOptions() Options {
	return Options{Header: true}
}

// DetectFormat picks the format from a file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", newError(ErrUnsupportedFormat, i18n.KeyUploadFailed, fmt.Sprintf("unsupported file type %q", filepath.Ext(filename)))
	}
}

// ReadRecords parses r and maps every data row onto columns. Fully blank rows
// are skipped. Any structural problem rejects the whole file.
func ReadRecords(r io.Reader, format Format, columns []Column, opts Options) ([]map[string]string, error) {
	rows, err := ReadRows(r, format, opts)
	if err != nil {
		return nil, err
	}
	return MapRows(rows, columns, opts)
}

// ReadRows returns the raw cell grid of a file.
func ReadRows(r io.Reader, format Format, opts Options) ([][]string, error) {
	switch format {
	case FormatCSV:
		return readCSV(r, opts.Delimiter)
	case FormatXLSX:
		return readXLSX(r, opts.Sheet)
	default:
		return nil, newError(ErrUnsupportedFormat, i18n.KeyUploadFailed, fmt.Sprintf("unsupported format %q", format))
	}
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, unreadable(err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if delimiter == 0 {
		delimiter = sniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, unreadable(err)
	}
	return rows, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, candidate := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, unreadable(err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, unreadable(err)
	}

	// Trailing empty cells are not stored in the sheet, so pad every row to
	// the widest one.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

// MapRows turns a cell grid into records keyed by column key.
func MapRows(rows [][]string, columns []Column, opts Options) ([]map[string]string, error) {
	start := 0
	var index []int
	if opts.Header {
		headerRow := firstNonBlank(rows)
		if headerRow < 0 {
			return nil, newError(ErrEmptyFile, i18n.KeyEmptyFile)
		}
		resolved, err := Resolve(rows[headerRow], columns, opts.FuzzyHeaders)
		if err != nil {
			return nil, err
		}
		index = resolved
		start = headerRow + 1
	} else {
		index = make([]int, len(columns))
		for i := range columns {
			index[i] = i
		}
	}

	need := 0
	for _, idx := range index {
		if idx+1 > need {
			need = idx + 1
		}
	}

	records := make([]map[string]string, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		if len(row) < need {
			return nil, newError(ErrShortRecord, i18n.KeyShortRecord, i+1, len(row), need)
		}
		record := make(map[string]string, len(columns))
		for c, col := range columns {
			record[col.Key] = strings.TrimSpace(row[index[c]])
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, newError(ErrEmptyFile, i18n.KeyEmptyFile)
	}
	return records, nil
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
