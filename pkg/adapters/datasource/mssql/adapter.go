package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD support
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/config"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/retry"
)

// Adapter reads listing rows from SQL Server or Azure SQL.
type Adapter struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

// NewAdapter opens a SQL Server connection using SQL or service principal auth.
// The initial ping is retried on transient failures.
func NewAdapter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var db *sql.DB
	var err error
	switch cfg.AuthMethod {
	case AuthSQL:
		db, err = createSQLAuthConnection(cfg)
	case AuthServicePrincipal:
		db, err = createServicePrincipalConnection(cfg)
	case AuthDSN:
		db, err = createDSNConnection(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}

	if err := retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		logger.Error("SQL Server ping failed", zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	return &Adapter{config: cfg, db: db, logger: logger}, nil
}

func connectionQuery(cfg *Config) url.Values {
	query := url.Values{}
	query.Add("database", cfg.Database)
	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}
	if cfg.ReadOnly {
		query.Add("ApplicationIntent", "ReadOnly")
	}
	return query
}

// createDSNConnection opens a complete sqlserver:// URL, adding the read-only
// intent unless the URL already sets one.
func createDSNConnection(cfg *Config) (*sql.DB, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %s", logging.SanitizeError(err))
	}
	u.Host = config.ResolveStoreHost(u.Hostname()) + portSuffix(u.Port())
	q := u.Query()
	if cfg.ReadOnly && q.Get("ApplicationIntent") == "" {
		q.Set("ApplicationIntent", "ReadOnly")
	}
	u.RawQuery = q.Encode()

	db, err := sql.Open("sqlserver", u.String())
	if err != nil {
		return nil, fmt.Errorf("open dsn connection: %w", err)
	}
	return db, nil
}

func portSuffix(port string) string {
	if port == "" {
		return ""
	}
	return ":" + port
}

// createSQLAuthConnection creates a connection using SQL Server authentication.
func createSQLAuthConnection(cfg *Config) (*sql.DB, error) {
	connStr := fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		config.ResolveStoreHost(cfg.Host),
		cfg.Port,
		connectionQuery(cfg).Encode(),
	)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}
	return db, nil
}

// createServicePrincipalConnection creates a connection using Azure AD Service Principal.
func createServicePrincipalConnection(cfg *Config) (*sql.DB, error) {
	query := connectionQuery(cfg)
	query.Add("fedauth", "ActiveDirectoryServicePrincipal")
	query.Add("user id", cfg.ClientID)
	query.Add("password", cfg.ClientSecret)
	query.Add("tenant id", cfg.TenantID)

	// For Azure AD, use azuresql driver
	connStr := fmt.Sprintf("sqlserver://%s:%d?%s", config.ResolveStoreHost(cfg.Host), cfg.Port, query.Encode())

	db, err := sql.Open("azuresql", connStr)
	if err != nil {
		return nil, fmt.Errorf("open service principal connection: %w", err)
	}
	return db, nil
}

// ReadRows runs a bounded, parameterized SELECT TOP and returns rows keyed by column name.
func (a *Adapter) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	query, args, err := datasource.BuildSelect(Dialect{}, table, pred, limit)
	if err != nil {
		return nil, err
	}

	// go-mssqldb binds positional args to @p1, @p2, ...
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		a.logger.Debug("Store query failed",
			zap.String("table", table),
			zap.String("query", logging.SanitizeQuery(query)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	return datasource.ScanRows(rows, convertValue)
}

// Close releases the connection pool.
func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

var (
	_ datasource.RowReader = (*Adapter)(nil)
	_ datasource.Dialect   = Dialect{}
)
