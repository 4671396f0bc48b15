package flows

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/eugenekravchuk/agriculture-losses/pkg/testutil"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = testutil.FixedNow

func newTestTable(t *testing.T, rows ...EntryRow) *Table {
	t.Helper()
	table := NewTable(DefaultPolicy(), WithClock(testutil.Clock(fixedNow)))
	if len(rows) > 0 {
		require.NoError(t, table.Replace(rows))
	}
	return table
}

func TestNewTableStartsWithBlankRow(t *testing.T) {
	table := newTestTable(t)
	assert.Equal(t, []EntryRow{{}}, table.Rows())
	assert.Empty(t, table.Errors())
	assert.False(t, table.IsLastRowFilled())
}

func TestUpdateFieldFormatsAndValidates(t *testing.T) {
	tests := []struct {
		name      string
		field     Field
		raw       string
		expected  string
		wantError bool
	}{
		{"Partial date has an error", FieldDate, "0101", "01.01", true},
		{"Full date", FieldDate, "01012024", "01.01.2024", false},
		{"April 31st", FieldDate, "31042024", "31.04.2024", true},
		{"Year below validation floor", FieldDate, "01011995", "01.01.1995", true},
		{"Empty date clears", FieldDate, "", "", false},
		{"Amount with letters", FieldCashFlow, "12a.5", "12.5", false},
		{"Amount with two dots", FieldCashFlow, "12.34.56", "12.3456", false},
		{"Lone dot", FieldCashFlow, ".", ".", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTestTable(t)
			got, err := table.UpdateField(0, tt.field, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			_, hasErr := table.errors.Get(0, tt.field)
			assert.Equal(t, tt.wantError, hasErr)
		})
	}
}

func TestUpdateFieldAddressing(t *testing.T) {
	table := newTestTable(t)

	_, err := table.UpdateField(1, FieldDate, "01")
	assert.True(t, errors.Is(err, ErrRowOutOfRange))

	_, err = table.UpdateField(-1, FieldDate, "01")
	assert.True(t, errors.Is(err, ErrRowOutOfRange))

	_, err = table.UpdateField(0, Field("note"), "x")
	assert.True(t, errors.Is(err, ErrUnknownField))

	assert.Equal(t, []EntryRow{{}}, table.Rows())
}

func TestUpdateFieldLeavesOtherErrorsAlone(t *testing.T) {
	table := newTestTable(t,
		EntryRow{Date: "01.01.2022", CashFlow: "."},
		EntryRow{Date: "01.01", CashFlow: "5"},
	)
	require.Len(t, table.Errors(), 2)

	_, err := table.UpdateField(0, FieldDate, "31042024")
	require.NoError(t, err)

	errs := table.Errors()
	require.Len(t, errs, 3)
	_, ok := table.errors.Get(0, FieldCashFlow)
	assert.True(t, ok, "cash flow error of row 0 must survive")
	_, ok = table.errors.Get(1, FieldDate)
	assert.True(t, ok, "date error of row 1 must survive")
	dateErr, ok := table.errors.Get(0, FieldDate)
	require.True(t, ok)
	assert.Equal(t, i18n.KeyInvalidDate, dateErr.Msg.Key)

	// Fixing the date removes only that entry.
	_, err = table.UpdateField(0, FieldDate, "01012024")
	require.NoError(t, err)
	assert.Len(t, table.Errors(), 2)
	_, ok = table.errors.Get(0, FieldCashFlow)
	assert.True(t, ok)
}

func TestAppendBlankRowGuard(t *testing.T) {
	tests := []struct {
		name   string
		last   EntryRow
		refuse bool
	}{
		{"Blank last row", EntryRow{}, true},
		{"Bad date", EntryRow{Date: "29.02.2023", CashFlow: "10"}, true},
		{"Bad amount", EntryRow{Date: "01.01.2024", CashFlow: "."}, true},
		{"Missing amount", EntryRow{Date: "01.01.2024"}, true},
		{"Valid row", EntryRow{Date: "29.02.2024", CashFlow: "0"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTestTable(t)
			if tt.last != (EntryRow{}) {
				require.NoError(t, table.Replace([]EntryRow{tt.last}))
			}
			before := table.Rows()

			err := table.AppendBlankRow()
			if tt.refuse {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrLastRowIncomplete))
				msg, ok := i18n.MessageOf(err)
				require.True(t, ok)
				assert.Equal(t, i18n.KeyFillPreviousRow, msg.Key)
				assert.Equal(t, before, table.Rows())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, append(before, EntryRow{}), table.Rows())
		})
	}
}

func TestReplace(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.Replace([]EntryRow{
		{Date: " 01.01.2023 ", CashFlow: "1000 "},
		{Date: "01.13.2024", CashFlow: "-5"},
		{Date: "01.01.2028", CashFlow: "1 000"},
	}))

	assert.Equal(t, []EntryRow{
		{Date: "01.01.2023", CashFlow: "1000"},
		{Date: "01.13.2024", CashFlow: "-5"},
		{Date: "01.01.2028", CashFlow: "1 000"},
	}, table.Rows())

	_, ok := table.errors.Get(0, FieldDate)
	assert.False(t, ok)
	_, ok = table.errors.Get(1, FieldDate)
	assert.True(t, ok, "month 13 is kept and flagged")
	_, ok = table.errors.Get(1, FieldCashFlow)
	assert.True(t, ok, "negative amount is kept and flagged")
	_, ok = table.errors.Get(2, FieldDate)
	assert.False(t, ok, "year inside the validation window is not clamped")
	_, ok = table.errors.Get(2, FieldCashFlow)
	assert.True(t, ok)
	assert.Len(t, table.Errors(), 3)
}

func TestReplaceNegativeAmountBlocksPayload(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.ReplaceRecords([]map[string]string{
		{"date": "01.01.2024", "cashFlow": "-500"},
		{"date": "01.01.2025", "cashFlow": "100"},
	}))
	assert.Equal(t, "-500", table.Rows()[0].CashFlow)

	_, err := table.Payload(0.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRows))
}

func TestReplaceKeepsYearsAheadDistinct(t *testing.T) {
	table := newTestTable(t,
		EntryRow{Date: "01.01.2028", CashFlow: "100"},
		EntryRow{Date: "01.01.2029", CashFlow: "200"},
	)

	req, err := table.Payload(0.1)
	require.NoError(t, err)
	assert.Equal(t, []string{"01.01.2028", "01.01.2029"}, req.Dates)
}

func TestReplaceEmptyKeepsState(t *testing.T) {
	table := newTestTable(t, EntryRow{Date: "01.01.2023", CashFlow: "1"})
	err := table.Replace(nil)
	assert.True(t, errors.Is(err, ErrNoRows))
	assert.Equal(t, []EntryRow{{Date: "01.01.2023", CashFlow: "1"}}, table.Rows())
}

func TestReplaceRecords(t *testing.T) {
	table := newTestTable(t)
	require.NoError(t, table.ReplaceRecords([]map[string]string{
		{"date": "01.01.2023", "cashFlow": "1000"},
		{"date": "01.01.2024"},
	}))
	assert.Equal(t, []EntryRow{
		{Date: "01.01.2023", CashFlow: "1000"},
		{Date: "01.01.2024", CashFlow: ""},
	}, table.Rows())
	assert.Equal(t, []EntryRow{{Date: "01.01.2023", CashFlow: "1000"}}, table.ValidRows())
}

func TestPayloadExactBody(t *testing.T) {
	table := newTestTable(t,
		EntryRow{Date: "01.01.2020", CashFlow: "1000"},
		EntryRow{Date: "01.01.2021", CashFlow: "1200"},
	)
	require.NoError(t, table.AppendBlankRow())

	req, err := table.Payload(0.1)
	require.NoError(t, err)

	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"dates":["01.01.2020","01.01.2021"],"values":[1000,1200],"discount_rate":0.1}`, string(body))
	assert.Equal(t, `{"dates":["01.01.2020","01.01.2021"],"values":[1000,1200],"discount_rate":0.1}`, string(body))
}

func TestPayloadRejections(t *testing.T) {
	tests := []struct {
		name     string
		rows     []EntryRow
		policy   func(*Policy)
		sentinel error
		key      string
	}{
		{
			name:     "Same year twice",
			rows:     []EntryRow{{Date: "01.01.2022", CashFlow: "100"}, {Date: "01.01.2022", CashFlow: "50"}},
			sentinel: validation.ErrTooFewYears,
			key:      i18n.KeyTooFewYears,
		},
		{
			name:     "Invalid row",
			rows:     []EntryRow{{Date: "01.01.2022", CashFlow: "100"}, {Date: "01.01", CashFlow: "50"}},
			sentinel: ErrInvalidRows,
			key:      i18n.KeyInvalidRows,
		},
		{
			name:     "Only blank rows",
			rows:     []EntryRow{{}, {}},
			sentinel: ErrNoRows,
			key:      i18n.KeyNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newTestTable(t, tt.rows...)
			_, err := table.Payload(0.1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "expected %v, got %v", tt.sentinel, err)
			msg, ok := i18n.MessageOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.key, msg.Key)
		})
	}
}

func TestPayloadDistinctYearsRuleCanBeDisabled(t *testing.T) {
	policy := DefaultPolicy()
	policy.MinDistinctYears = 0
	table := NewTable(policy, WithClock(testutil.Clock(fixedNow)))
	require.NoError(t, table.Replace([]EntryRow{{Date: "01.01.2022", CashFlow: "100"}}))

	req, err := table.Payload(0.2)
	require.NoError(t, err)
	assert.Equal(t, []string{"01.01.2022"}, req.Dates)
	assert.Equal(t, []float64{100}, req.Values)
}

func TestMaskFloorFollowsPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaskMinYear = 2000
	table := NewTable(policy, WithClock(testutil.Clock(fixedNow)))

	got, err := table.UpdateField(0, FieldDate, "01011950")
	require.NoError(t, err)
	assert.Equal(t, "01.01.2000", got)

	got, err = table.UpdateField(0, FieldDate, "01019999")
	require.NoError(t, err)
	assert.Equal(t, "01.01.2026", got)
}
