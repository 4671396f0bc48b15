// Package output provides utilities for formatting and displaying forecast
// results and loss tables.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/constants"
	"github.com/eugenekravchuk/agriculture-losses/pkg/format"
	"github.com/eugenekravchuk/agriculture-losses/pkg/validation"
)

const (
	kindActual   = "actual"
	kindForecast = "forecast"
)

// point is one dated value of a prediction, actual or forecast.
type point struct {
	date   string
	kind   string
	amount float64
	dcf    *float64
}

func points(p *predict.Prediction) []point {
	if p == nil {
		return nil
	}
	out := make([]point, 0, len(p.Dates)+len(p.ForecastDates))
	for i, date := range p.Dates {
		if i >= len(p.Values) {
			break
		}
		out = append(out, point{date: date, kind: kindActual, amount: p.Values[i]})
	}
	for i, date := range p.ForecastDates {
		if i >= len(p.ForecastValues) {
			break
		}
		pt := point{date: date, kind: kindForecast, amount: p.ForecastValues[i]}
		if i < len(p.DCFValues) {
			dcf := p.DCFValues[i]
			pt.dcf = &dcf
		}
		out = append(out, pt)
	}
	return out
}

// Forecast writes a prediction in the named output format.
func Forecast(w io.Writer, p *predict.Prediction, outputFormat string) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, p)
	case constants.OutputFormatJSON:
		return writeJSON(w, p)
	default:
		return PrettyFormat(w, p)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, p *predict.Prediction) error {
	if _, err := fmt.Fprintf(w, "Date       | Kind     | Amount              | DCF\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "__________ | ________ | ___________________ | ___\n"); err != nil {
		return err
	}
	for _, pt := range points(p) {
		dcf := ""
		if pt.dcf != nil {
			dcf = format.Currency(*pt.dcf)
		}
		if _, err := fmt.Fprintf(w, "%-10s | %-8s | %s | %s\n", pt.date, pt.kind, format.Currency(pt.amount), dcf); err != nil {
			return err
		}
	}
	if p != nil {
		if _, err := fmt.Fprintf(w, "\nTotal NPV: %s\n", format.Currency(p.TotalNPV)); err != nil {
			return err
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, p *predict.Prediction) error {
	if _, err := fmt.Fprintf(w, `"date","kind","amount","dcf"`+"\n"); err != nil {
		return err
	}
	for _, pt := range points(p) {
		dcf := ""
		if pt.dcf != nil {
			dcf = fmt.Sprintf("%.2f", *pt.dcf)
		}
		if _, err := fmt.Fprintf(w, "%s,%s,\"%.2f\",%s\n", quote(pt.date), quote(pt.kind), pt.amount, quote(dcf)); err != nil {
			return err
		}
	}
	return nil
}

// Tables writes the loss tables in the named output format.
func Tables(w io.Writer, tables []*items.Table, outputFormat string) error {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return err
	}
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvTables(w, tables)
	case constants.OutputFormatJSON:
		payload := make(map[string][]predict.Record, len(tables))
		for _, table := range tables {
			payload[table.Schema().Name] = table.Payload()
		}
		return writeJSON(w, payload)
	default:
		return PrettyTables(w, tables)
	}
}

// PrettyTables prints every table with its item loss estimates and totals.
func PrettyTables(w io.Writer, tables []*items.Table) error {
	for i, table := range tables {
		schema := table.Schema()
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "--- %s (%s) ---\n", schema.Title, schema.Name); err != nil {
			return err
		}

		labels := make([]string, 0, len(schema.Columns)+1)
		for _, col := range schema.Columns {
			labels = append(labels, col.Label)
		}
		labels = append(labels, "Loss")
		if _, err := fmt.Fprintln(w, strings.Join(labels, " | ")); err != nil {
			return err
		}

		for _, item := range table.Items() {
			cells := make([]string, 0, len(schema.Columns)+1)
			for _, col := range schema.Columns {
				cells = append(cells, cellText(item, col.Key))
			}
			cells = append(cells, format.Currency(item.LossEstimate().InexactFloat64()))
			if _, err := fmt.Fprintln(w, strings.Join(cells, " | ")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "Total: %s\n", format.Currency(table.Total().InexactFloat64())); err != nil {
			return err
		}
	}
	return nil
}

// CsvTables writes one CSV row per item, prefixed with its table name.
func CsvTables(w io.Writer, tables []*items.Table) error {
	if _, err := fmt.Fprintf(w, `"table","item","loss"`+"\n"); err != nil {
		return err
	}
	for _, table := range tables {
		for _, item := range table.Items() {
			if _, err := fmt.Fprintf(w, "%s,%s,\"%s\"\n", quote(table.Schema().Name), quote(item.Text["name"]), item.LossEstimate().StringFixed(2)); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellText(item items.Item, key string) string {
	if text, ok := item.Text[key]; ok {
		return text
	}
	if n, ok := item.Numeric[key]; ok {
		return n.String()
	}
	return ""
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
