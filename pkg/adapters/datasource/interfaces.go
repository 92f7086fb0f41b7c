package datasource

import "context"

// MaxReadLimit is the hard cap on rows returned by a single ReadRows call.
// Adapters clamp larger (or non-positive) limits to this value.
const MaxReadLimit = 1000

// RowReader reads bounded pages of rows from one listing store.
// Each implementation owns its connection and must be closed when done.
type RowReader interface {
	// ReadRows returns up to limit rows of table that satisfy pred.
	// Rows are keyed by column name; values keep the driver's native types
	// except that byte strings are returned as string.
	// A missing table is reported as an error.
	ReadRows(ctx context.Context, table string, pred Predicate, limit int) ([]map[string]any, error)

	// Close releases the store connection.
	Close() error
}

// EffectiveLimit clamps a requested row limit to (0, MaxReadLimit].
func EffectiveLimit(limit int) int {
	if limit <= 0 || limit > MaxReadLimit {
		return MaxReadLimit
	}
	return limit
}
