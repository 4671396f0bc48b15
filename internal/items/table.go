package items

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrIncompleteRow = errors.New("row has empty cells")
	ErrNotNumber     = errors.New("cell is not a number")
	ErrNoRecords     = errors.New("no records")
)

// Table is one loss table: committed items plus the staging row being
// typed. It is not safe for concurrent use.
type Table struct {
	schema    Schema
	items     []Item
	staging   map[string]string
	lastError *i18n.Msg
}

// NewTable returns an empty table for schema.
func NewTable(schema Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Table{schema: schema, staging: blankStaging(schema)}, nil
}

func blankStaging(schema Schema) map[string]string {
	staging := make(map[string]string, len(schema.Columns))
	for _, col := range schema.Columns {
		staging[col.Key] = ""
	}
	return staging
}

// Schema returns the table's schema.
func (t *Table) Schema() Schema {
	return t.schema
}

// SetStaging stores a raw value in the staging row.
func (t *Table) SetStaging(key, value string) error {
	if _, ok := t.schema.Column(key); !ok {
		return fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, key, t.schema.Name)
	}
	t.staging[key] = value
	return nil
}

// Staging returns a copy of the staging row.
func (t *Table) Staging() map[string]string {
	out := make(map[string]string, len(t.staging))
	for k, v := range t.staging {
		out[k] = v
	}
	return out
}

// CommitStaging validates the staging row and appends it as an item. On
// failure the table keeps its items and staging row and LastError reports a
// single row-level message.
func (t *Table) CommitStaging() (Item, error) {
	item, err := t.Coerce(t.staging)
	if err != nil {
		if msg, ok := i18n.MessageOf(err); ok {
			t.lastError = &msg
		}
		return Item{}, err
	}
	t.items = append(t.items, item)
	t.staging = blankStaging(t.schema)
	t.lastError = nil
	return item, nil
}

// LastError returns the message of the last failed commit, cleared by the
// next successful one.
func (t *Table) LastError() (i18n.Msg, bool) {
	if t.lastError == nil {
		return i18n.Msg{}, false
	}
	return *t.lastError, true
}

// Coerce turns raw cells into an item. Every cell must be non-empty and
// numeric columns must parse.
func (t *Table) Coerce(values map[string]string) (Item, error) {
	item := Item{
		Text:    make(map[string]string),
		Numeric: make(map[string]decimal.Decimal),
	}
	for _, col := range t.schema.Columns {
		value := strings.TrimSpace(values[col.Key])
		if value == "" {
			return Item{}, i18n.Errorf(fmt.Errorf("%w: %q", ErrIncompleteRow, col.Key), i18n.KeyAllFieldsRequired)
		}
		if col.Kind == ingest.KindNumeric {
			n, err := validation.ParseNumber(value)
			if err != nil {
				return Item{}, i18n.Errorf(fmt.Errorf("%w: %q: %v", ErrNotNumber, col.Key, err), i18n.KeyFieldNotNumber, col.Label)
			}
			item.Numeric[col.Key] = n
			continue
		}
		item.Text[col.Key] = value
	}
	return item, nil
}

// ReplaceRecords swaps in items built from ingested records. One bad record
// rejects the whole set and the table is left as it was.
func (t *Table) ReplaceRecords(records []map[string]string) error {
	if len(records) == 0 {
		return i18n.Errorf(ErrNoRecords, i18n.KeyEmptyFile)
	}
	next := make([]Item, 0, len(records))
	for i, record := range records {
		item, err := t.Coerce(record)
		if err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
		next = append(next, item)
	}
	t.items = next
	t.lastError = nil
	return nil
}

// Items returns a copy of the committed items.
func (t *Table) Items() []Item {
	return append([]Item(nil), t.items...)
}

// Len is the number of committed items.
func (t *Table) Len() int {
	return len(t.items)
}

// Reset drops items, the staging row and the last error.
func (t *Table) Reset() {
	t.items = nil
	t.staging = blankStaging(t.schema)
	t.lastError = nil
}

// Payload returns the items as report records, never nil.
func (t *Table) Payload() []predict.Record {
	records := make([]predict.Record, 0, len(t.items))
	for _, item := range t.items {
		records = append(records, item.Record())
	}
	return records
}

// Total sums the loss estimates of all items.
func (t *Table) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.items {
		total = total.Add(item.LossEstimate())
	}
	return total
}
