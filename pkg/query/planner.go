// Package query turns a free-text search and filters into a store predicate
// for a detected layout.
package query

import (
	"strings"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// MaxPageRows caps rows read from one store per search.
const MaxPageRows = 100

// Wildcard matches every row.
const Wildcard = "*"

// Plan is a predicate plus the table and row cap it applies to.
type Plan struct {
	Table     string
	Predicate datasource.Predicate
	Limit     int
}

// Build plans a search against candidate's properties table.
// Filters whose column the layout does not map are skipped silently.
func Build(q string, filters *models.SearchFilters, candidate *models.SchemaCandidate) Plan {
	cols := candidate.Columns.Properties
	plan := Plan{Table: candidate.PropertiesTable, Limit: MaxPageRows}

	if text := strings.TrimSpace(q); text != "" && text != Wildcard {
		textColumns := []string{cols.Title, cols.Address, cols.Eircode}
		if cols.AgencyRef != cols.Title {
			textColumns = append(textColumns, cols.AgencyRef)
		}
		plan.Predicate.AnyOf = containsAny(textColumns, text)
	}

	if filters == nil {
		return plan
	}

	add := func(column string, op datasource.Operator, value any) {
		if column == "" {
			return
		}
		plan.Predicate.AllOf = append(plan.Predicate.AllOf, datasource.Condition{Column: column, Op: op, Value: value})
	}

	if filters.MinPrice != nil {
		add(cols.Price, datasource.OpGte, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		add(cols.Price, datasource.OpLte, *filters.MaxPrice)
	}
	if filters.MinBedrooms != nil {
		add(cols.Bedrooms, datasource.OpGte, *filters.MinBedrooms)
	}
	if filters.MaxBedrooms != nil {
		add(cols.Bedrooms, datasource.OpLte, *filters.MaxBedrooms)
	}
	if pt := strings.TrimSpace(filters.PropertyType); pt != "" {
		add(cols.PropertyType, datasource.OpEq, pt)
	}
	if loc := strings.TrimSpace(filters.Location); loc != "" {
		add(cols.Address, datasource.OpContains, loc)
	}

	return plan
}

// containsAny builds one substring condition per distinct non-empty column.
func containsAny(columns []string, text string) []datasource.Condition {
	seen := make(map[string]bool, len(columns))
	out := make([]datasource.Condition, 0, len(columns))
	for _, column := range columns {
		if column == "" || seen[column] {
			continue
		}
		seen[column] = true
		out = append(out, datasource.Condition{Column: column, Op: datasource.OpContains, Value: text})
	}
	return out
}
