package datasource

import (
	"database/sql"
	"fmt"
)

// ValueConverter adjusts a scanned driver value given its database type name.
type ValueConverter func(dbType string, v any) any

// ScanRows drains a database/sql result set into column-keyed maps.
// Byte strings become string unless convert handles them first.
func ScanRows(rows *sql.Rows, convert ValueConverter) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("get columns: %w", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("get column types: %w", err)
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			if convert != nil {
				val = convert(colTypes[i].DatabaseTypeName(), val)
			}
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}
