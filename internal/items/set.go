package items

import (
	"errors"
	"fmt"

	"github.com/eugenekravchuk/agriculture-losses/internal/predict"
	"github.com/eugenekravchuk/agriculture-losses/pkg/i18n"
	"github.com/shopspring/decimal"
)

var ErrUnknownTable = errors.New("unknown table")

// Set is the ordered group of tables of one loss report.
type Set struct {
	tables []*Table
	byName map[string]*Table
}

// NewSet builds one table per schema. Names must be unique.
func NewSet(schemas []Schema) (*Set, error) {
	s := &Set{byName: make(map[string]*Table, len(schemas))}
	for _, schema := range schemas {
		if _, dup := s.byName[schema.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrInvalidSchema, schema.Name)
		}
		table, err := NewTable(schema)
		if err != nil {
			return nil, err
		}
		s.tables = append(s.tables, table)
		s.byName[schema.Name] = table
	}
	return s, nil
}

// Table looks a table up by name.
func (s *Set) Table(name string) (*Table, error) {
	table, ok := s.byName[name]
	if !ok {
		return nil, i18n.Errorf(fmt.Errorf("%w: %q", ErrUnknownTable, name), i18n.KeyUnknownTable, name)
	}
	return table, nil
}

// Tables returns the tables in order.
func (s *Set) Tables() []*Table {
	return append([]*Table(nil), s.tables...)
}

// Schemas returns the schemas in order.
func (s *Set) Schemas() []Schema {
	schemas := make([]Schema, 0, len(s.tables))
	for _, table := range s.tables {
		schemas = append(schemas, table.Schema())
	}
	return schemas
}

// Reset empties every table.
func (s *Set) Reset() {
	for _, table := range s.tables {
		table.Reset()
	}
}

// Total sums the loss estimates of every table.
func (s *Set) Total() decimal.Decimal {
	total := decimal.Zero
	for _, table := range s.tables {
		total = total.Add(table.Total())
	}
	return total
}

// ReportRequest assembles the /generate-pdf body from the four default
// tables and the prediction. Missing tables are sent as empty lists.
func (s *Set) ReportRequest(prediction predict.ReportPrediction) predict.ReportRequest {
	records := func(name string) []predict.Record {
		if table, ok := s.byName[name]; ok {
			return table.Payload()
		}
		return []predict.Record{}
	}
	return predict.ReportRequest{
		Technique:   records(TableTechnique),
		Animals:     records(TableAnimals),
		Territories: records(TableTerritories),
		Buildings:   records(TableBuildings),
		Prediction:  prediction,
	}
}
