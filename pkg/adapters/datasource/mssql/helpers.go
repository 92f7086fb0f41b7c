package mssql

import (
	"fmt"
	"strings"

	mssqldb "github.com/microsoft/go-mssqldb"
)

// quoteName mirrors SQL Server's QUOTENAME: square brackets with ] doubled.
func quoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// convertValue fixes up driver values that would otherwise leak as raw bytes.
// UNIQUEIDENTIFIER columns arrive in SQL Server's mixed-endian byte order.
func convertValue(dbType string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if strings.EqualFold(dbType, "UNIQUEIDENTIFIER") && len(b) == 16 {
		var id mssqldb.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}
	}
	return string(b)
}

// Dialect renders SQL Server T-SQL.
type Dialect struct{}

// QuoteIdentifier brackets the name.
func (Dialect) QuoteIdentifier(name string) string {
	return quoteName(name)
}

// Placeholder returns @pN.
func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("@p%d", n)
}

// ContainsExpr lower-cases both sides so the match ignores column collation.
func (Dialect) ContainsExpr(column, placeholder string) string {
	return fmt.Sprintf(`LOWER(CAST(%s AS NVARCHAR(MAX))) LIKE LOWER(%s) ESCAPE '\'`, column, placeholder)
}

// LimitSelect uses TOP since SQL Server has no LIMIT.
func (Dialect) LimitSelect(table, where string, limit int) string {
	q := fmt.Sprintf("SELECT TOP (%d) * FROM %s", limit, table)
	if where != "" {
		q += " WHERE " + where
	}
	return q
}
