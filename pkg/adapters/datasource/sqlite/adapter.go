package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/retry"
)

// foldFunc is a Unicode lower-casing SQL function registered with the driver.
const foldFunc = "listings_fold"

func init() {
	if err := msqlite.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

// fold lower-cases text values. NULL stays NULL; numbers pass through.
func fold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Adapter reads listing rows from a SQLite file.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

// NewAdapter opens the database and applies any seed SQL.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	dsn := cfg.Path
	if cfg.Path != MemoryPath {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.Path == MemoryPath {
		// Every new connection to :memory: is a fresh empty database.
		db.SetMaxOpenConns(1)
	}

	if err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if strings.TrimSpace(cfg.SeedSQL) != "" {
		if _, err := db.ExecContext(ctx, cfg.SeedSQL); err != nil {
			db.Close()
			logger.Error("Failed to apply seed SQL", zap.String("error", logging.SanitizeError(err)))
			return nil, fmt.Errorf("apply seed sql: %w", err)
		}
	}

	return &Adapter{config: cfg, db: db, logger: logger}, nil
}

// ReadRows runs a bounded, parameterized SELECT and returns rows keyed by column name.
func (a *Adapter) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	query, args, err := datasource.BuildSelect(Dialect{}, table, pred, limit)
	if err != nil {
		return nil, err
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		a.logger.Debug("Store query failed",
			zap.String("table", table),
			zap.String("query", logging.SanitizeQuery(query)),
			zap.Error(err))
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	return datasource.ScanRows(rows, convertValue)
}

// Close closes the database.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func convertValue(_ string, v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

// Dialect renders SQLite SQL.
type Dialect struct{}

// QuoteIdentifier double-quotes the name.
func (Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns ?. SQLite binds positionally.
func (Dialect) Placeholder(int) string {
	return "?"
}

// ContainsExpr folds both sides with foldFunc, since SQLite's LIKE only
// folds ASCII letters.
func (Dialect) ContainsExpr(column, placeholder string) string {
	return fmt.Sprintf(`%s(CAST(%s AS TEXT)) LIKE %s(%s) ESCAPE '\'`, foldFunc, column, foldFunc, placeholder)
}

// LimitSelect appends LIMIT.
func (Dialect) LimitSelect(table, where string, limit int) string {
	q := "SELECT * FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	return fmt.Sprintf("%s LIMIT %d", q, limit)
}

var (
	_ datasource.RowReader = (*Adapter)(nil)
	_ datasource.Dialect   = Dialect{}
)
