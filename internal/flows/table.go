// Package flows holds the dated cash-flow table that feeds a DCF forecast.
package flows

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/datetime"
	"github.com/eugenekravchuk/agriculture-losses/pkg/format"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"go.uber.org/zap"
)

// Field names a column of an EntryRow.
type Field string

const (
	FieldDate     Field = "date"
	FieldCashFlow Field = "cashFlow"
)

// Columns is the upload layout of a cash-flow file.
var Columns = []ingest.Column{
	{Label: "Дата", Key: string(FieldDate), Kind: ingest.KindText},
	{Label: "Грошовий потік", Key: string(FieldCashFlow), Kind: ingest.KindNumeric},
}

var (
	ErrLastRowIncomplete = errors.New("last row is not complete")
	ErrRowOutOfRange     = errors.New("row index out of range")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidRows       = errors.New("table has invalid rows")
	ErrNoRows            = errors.New("table has no rows")
)

// EntryRow is one dated cash flow as typed by the user.
type EntryRow struct {
	Date     string `json:"date"`
	CashFlow string `json:"cashFlow"`
}

// IsBlank reports whether both fields are empty.
func (r EntryRow) IsBlank() bool {
	return strings.TrimSpace(r.Date) == "" && strings.TrimSpace(r.CashFlow) == ""
}

// Policy is the validation configuration of a table.
type Policy struct {
	Date validation.DatePolicy `yaml:"date" mapstructure:"date"`
	// MaskMinYear is the lowest year the date mask lets through.
	MaskMinYear int `yaml:"maskMinYear" mapstructure:"maskMinYear"`
	// MinDistinctYears is the number of distinct years a submission needs.
	// Zero turns the rule off.
	MinDistinctYears int `yaml:"minDistinctYears" mapstructure:"minDistinctYears"`
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		Date:             validation.DefaultDatePolicy(),
		MaskMinYear:      constants.DefaultMaskMinYear,
		MinDistinctYears: constants.DefaultMinDistinctYears,
	}
}

// Option customizes a Table.
type Option func(*Table)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Table) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// Table is the growable list of cash-flow rows together with its field
// errors. It is not safe for concurrent use.
type Table struct {
	rows   []EntryRow
	errors ErrorSet
	policy Policy
	now    func() time.Time
	logger *zap.Logger
}

// NewTable returns a table holding one blank row.
func NewTable(policy Policy, opts ...Option) *Table {
	t := &Table{
		rows:   []EntryRow{{}},
		policy: policy,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the table's policy.
func (t *Table) Policy() Policy {
	return t.policy
}

// Rows returns a copy of the rows.
func (t *Table) Rows() []EntryRow {
	return append([]EntryRow(nil), t.rows...)
}

// Errors returns a copy of the field errors.
func (t *Table) Errors() []FieldError {
	return t.errors.List()
}

// Len is the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// RowValid reports whether row passes both field validators.
func (t *Table) RowValid(row EntryRow) bool {
	return validation.ValidateRow(row.Date, row.CashFlow, t.policy.Date, t.now())
}

// IsLastRowFilled reports whether the last row is fully valid.
func (t *Table) IsLastRowFilled() bool {
	if len(t.rows) == 0 {
		return true
	}
	return t.RowValid(t.rows[len(t.rows)-1])
}

// AppendBlankRow adds an empty row. It is refused while the last row is
// incomplete and the table is then left as it was.
func (t *Table) AppendBlankRow() error {
	if !t.IsLastRowFilled() {
		return i18n.Errorf(ErrLastRowIncomplete, i18n.KeyFillPreviousRow)
	}
	t.rows = append(t.rows, EntryRow{})
	return nil
}

// FormatField applies the input mask for field to raw.
func (t *Table) FormatField(field Field, raw string) (string, error) {
	switch field {
	case FieldDate:
		return datetime.FormatDateWithBounds(raw, t.policy.MaskMinYear, t.now().Year()), nil
	case FieldCashFlow:
		return format.FormatAmount(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// UpdateField masks raw, stores it and re-validates only (row, field). The
// stored value is returned.
func (t *Table) UpdateField(row int, field Field, raw string) (string, error) {
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, len(t.rows))
	}
	value, err := t.FormatField(field, raw)
	if err != nil {
		return "", err
	}

	switch field {
	case FieldDate:
		t.rows[row].Date = value
	case FieldCashFlow:
		t.rows[row].CashFlow = value
	}
	t.validateField(row, field, value)
	return value, nil
}

func (t *Table) validateField(row int, field Field, value string) {
	if value == "" {
		t.errors.Clear(row, field)
		return
	}
	switch field {
	case FieldDate:
		if !validation.ValidateDateWithFixedTime(value, t.policy.Date, t.now()) {
			t.errors.Set(row, field, i18n.New(i18n.KeyInvalidDate))
			return
		}
	case FieldCashFlow:
		if !validation.ValidateAmount(value) {
			t.errors.Set(row, field, i18n.New(i18n.KeyInvalidAmount))
			return
		}
	}
	t.errors.Clear(row, field)
}

// Replace swaps in a whole new row list. Values are stored as given, trimmed
// of surrounding space, and validated; the input mask is not applied. An
// empty list is refused and the table is left as it was.
func (t *Table) Replace(rows []EntryRow) error {
	if len(rows) == 0 {
		return i18n.Errorf(ErrNoRows, i18n.KeyEmptyFile)
	}

	next := &Table{policy: t.policy, now: t.now, logger: t.logger, rows: make([]EntryRow, len(rows))}
	for i, row := range rows {
		next.rows[i] = EntryRow{
			Date:     strings.TrimSpace(row.Date),
			CashFlow: strings.TrimSpace(row.CashFlow),
		}
		next.validateField(i, FieldDate, next.rows[i].Date)
		next.validateField(i, FieldCashFlow, next.rows[i].CashFlow)
	}

	t.rows = next.rows
	t.errors = next.errors
	t.logger.Debug("rows replaced",
		zap.String("op", "flows.Replace"),
		zap.Int("rows", len(t.rows)),
		zap.Int("errors", t.errors.Len()),
	)
	return nil
}

// ReplaceRecords is Replace for records read by the ingest package.
func (t *Table) ReplaceRecords(records []map[string]string) error {
	rows := make([]EntryRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, EntryRow{
			Date:     record[string(FieldDate)],
			CashFlow: record[string(FieldCashFlow)],
		})
	}
	return t.Replace(rows)
}

// ValidRows returns the rows that pass validation.
func (t *Table) ValidRows() []EntryRow {
	valid := make([]EntryRow, 0, len(t.rows))
	for _, row := range t.rows {
		if t.RowValid(row) {
			valid = append(valid, row)
		}
	}
	return valid
}

// Payload builds the forecast request. Blank rows are skipped; any other
// invalid row, an empty table or too few distinct years fails the whole
// submission.
func (t *Table) Payload(discountRate float64) (predict.PredictRequest, error) {
	req := predict.PredictRequest{
		Dates:        make([]string, 0, len(t.rows)),
		Values:       make([]float64, 0, len(t.rows)),
		DiscountRate: discountRate,
	}

	for i, row := range t.rows {
		if row.IsBlank() {
			continue
		}
		if !t.RowValid(row) {
			return predict.PredictRequest{}, i18n.Errorf(fmt.Errorf("%w: row %d", ErrInvalidRows, i+1), i18n.KeyInvalidRows)
		}
		amount, err := validation.ParseAmount(row.CashFlow)
		if err != nil {
			return predict.PredictRequest{}, i18n.Errorf(fmt.Errorf("%w: row %d: %v", ErrInvalidRows, i+1, err), i18n.KeyInvalidRows)
		}
		req.Dates = append(req.Dates, row.Date)
		req.Values = append(req.Values, amount.InexactFloat64())
	}

	if len(req.Dates) == 0 {
		return predict.PredictRequest{}, i18n.Errorf(ErrNoRows, i18n.KeyNoRows)
	}
	if minYears := t.policy.MinDistinctYears; minYears > 0 {
		if err := validation.CheckDistinctYears(req.Dates, minYears); err != nil {
			return predict.PredictRequest{}, i18n.Errorf(err, i18n.KeyTooFewYears, minYears)
		}
	}
	return req, nil
}
