// Package items holds the loss tables (machinery, animals, land, buildings)
// that go into a loss report.
package items

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eugenekravchuk/agriculture-losses/internal/ingest"
)

// Default table names.
const (
	TableTechnique   = "technique"
	TableAnimals     = "animals"
	TableTerritories = "territories"
	TableBuildings   = "buildings"
)

var ErrInvalidSchema = errors.New("invalid table schema")

// Schema declares a table and the meaning of its columns.
type Schema struct {
	Name    string          `json:"name" yaml:"name" mapstructure:"name"`
	Title   string          `json:"title" yaml:"title" mapstructure:"title"`
	Columns []ingest.Column `json:"columns" yaml:"columns" mapstructure:"columns"`
}

// DefaultSchemas returns the four report tables in report order.
func DefaultSchemas() []Schema {
	name := ingest.Column{Label: "Назва/тип", Key: "name", Kind: ingest.KindText}
	return []Schema{
		{
			Name:  TableTechnique,
			Title: "Техніка",
			Columns: []ingest.Column{
				name,
				{Label: "Кількість", Key: "quantity", Kind: ingest.KindNumeric},
				{Label: "Вартість (грн)", Key: "price", Kind: ingest.KindNumeric},
			},
		},
		{
			Name:  TableAnimals,
			Title: "Тварини",
			Columns: []ingest.Column{
				name,
				{Label: "Кількість", Key: "quantity", Kind: ingest.KindNumeric},
				{Label: "Ціна за голову (грн)", Key: "price_per_unit", Kind: ingest.KindNumeric},
			},
		},
		{
			Name:  TableTerritories,
			Title: "Територія",
			Columns: []ingest.Column{
				name,
				{Label: "Площа (м²)", Key: "area_m2", Kind: ingest.KindNumeric},
				{Label: "Ціна за відновлення м² (грн)", Key: "repair_price_per_m2", Kind: ingest.KindNumeric},
			},
		},
		{
			Name:  TableBuildings,
			Title: "Будівлі і сховища",
			Columns: []ingest.Column{
				name,
				{Label: "Площа/об'єм (м²)", Key: "area_m2", Kind: ingest.KindNumeric},
				{Label: "Вартість об'єкта (грн)", Key: "price", Kind: ingest.KindNumeric},
			},
		},
	}
}

// Validate checks that the schema can be used to build a table.
func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidSchema)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: table %q has no columns", ErrInvalidSchema, s.Name)
	}
	seen := make(map[string]bool, len(s.Columns))
	for i, col := range s.Columns {
		if strings.TrimSpace(col.Key) == "" {
			return fmt.Errorf("%w: table %q column %d has no key", ErrInvalidSchema, s.Name, i)
		}
		if seen[col.Key] {
			return fmt.Errorf("%w: table %q repeats column key %q", ErrInvalidSchema, s.Name, col.Key)
		}
		seen[col.Key] = true
		switch col.Kind {
		case ingest.KindText, ingest.KindNumeric:
		default:
			return fmt.Errorf("%w: table %q column %q has unknown kind %q", ErrInvalidSchema, s.Name, col.Key, col.Kind)
		}
	}
	return nil
}

// Column returns the column with the given key.
func (s Schema) Column(key string) (ingest.Column, bool) {
	for _, col := range s.Columns {
		if col.Key == key {
			return col, true
		}
	}
	return ingest.Column{}, false
}
