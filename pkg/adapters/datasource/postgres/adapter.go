package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/config"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/retry"
)

// undefinedTable is the SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Adapter reads listing rows from a PostgreSQL store.
type Adapter struct {
	config *Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// All user-provided fields must be URL-escaped so special characters in
// passwords (e.g., @, /, #, ?) do not break URL parsing.
// A loopback host is rewritten by config.ResolveStoreHost inside Docker.
func buildConnectionString(cfg *Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	host := config.ResolveStoreHost(cfg.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}

// NewAdapter opens a pool against the store and verifies it with a ping.
// Pool creation and the first ping are retried on transient failures.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %s", logging.SanitizeError(err))
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*pgxpool.Pool, error) {
		return pgxpool.NewWithConfig(ctx, poolCfg)
	})
	if err != nil {
		logger.Error("Failed to create postgres pool", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return pool.Ping(ctx)
	}); err != nil {
		pool.Close()
		logger.Error("Postgres ping failed", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Adapter{config: cfg, pool: pool, logger: logger}, nil
}

// ReadRows runs a bounded, parameterized SELECT and returns rows keyed by column name.
func (a *Adapter) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	query, args, err := datasource.BuildSelect(Dialect{}, table, pred, limit)
	if err != nil {
		return nil, err
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
			return nil, fmt.Errorf("table %q does not exist: %w", table, err)
		}
		a.logger.Debug("Store query failed",
			zap.String("table", table),
			zap.String("query", logging.SanitizeQuery(query)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = convertValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

// Close releases the pool.
func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

// convertValue turns pgx-native values into plain Go values the
// normalizer understands.
func convertValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid || math.IsNaN(f.Float64) {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return v
	}
}

// Dialect renders PostgreSQL SQL.
type Dialect struct{}

// QuoteIdentifier quotes with pgx's identifier sanitizer.
func (Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Placeholder returns $n.
func (Dialect) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// ContainsExpr casts to text so numeric columns such as price can be matched too.
func (Dialect) ContainsExpr(column, placeholder string) string {
	return fmt.Sprintf(`CAST(%s AS TEXT) ILIKE %s ESCAPE '\'`, column, placeholder)
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
