package items

import (
	"encoding/json"

	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/shopspring/decimal"
)

// Item is a committed table row. Text and Numeric are keyed by column key.
type Item struct {
	Text    map[string]string
	Numeric map[string]decimal.Decimal
}

// Record flattens the item for the report request.
func (it Item) Record() predict.Record {
	record := make(predict.Record, len(it.Text)+len(it.Numeric))
	for k, v := range it.Text {
		record[k] = v
	}
	for k, v := range it.Numeric {
		record[k] = v.InexactFloat64()
	}
	return record
}

// MarshalJSON encodes the item as a flat object with numbers for numeric
// columns.
func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Record())
}

// LossEstimate is the product of the numeric fields rounded to kopiykas,
// e.g. quantity times unit price. An item without numeric fields is worth
// zero.
func (it Item) LossEstimate() decimal.Decimal {
	if len(it.Numeric) == 0 {
		return decimal.Zero
	}
	total := decimal.NewFromInt(1)
	for _, v := range it.Numeric {
		total = total.Mul(v)
	}
	return total.Round(2)
}
