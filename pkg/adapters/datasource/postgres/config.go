package postgres

import (
	"fmt"
	"strings"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
	MaxConns int32

	// URL, when set, is used verbatim instead of the discrete fields.
	// Hosted stores such as Supabase hand out a single connection URL.
	URL string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// DefaultMaxConns bounds the pool for a single listing store.
func DefaultMaxConns() int32 {
	return 4
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:     DefaultPort(),
		SSLMode:  DefaultSSLMode(),
		MaxConns: DefaultMaxConns(),
	}

	if u, ok := config["url"].(string); ok && strings.TrimSpace(u) != "" {
		cfg.URL = strings.TrimSpace(u)
		if n, ok := intValue(config["max_conns"]); ok && n > 0 {
			cfg.MaxConns = int32(n)
		}
		return cfg, nil
	}

	if host, ok := config["host"].(string); ok && host != "" {
		cfg.Host = host
	} else {
		return nil, fmt.Errorf("host is required")
	}

	if port, ok := intValue(config["port"]); ok {
		cfg.Port = port
	}

	if user, ok := config["user"].(string); ok && user != "" {
		cfg.User = user
	} else {
		return nil, fmt.Errorf("user is required")
	}

	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}

	if database, ok := config["database"].(string); ok && database != "" {
		cfg.Database = database
	} else if name, ok := config["name"].(string); ok && name != "" {
		cfg.Database = name
	} else {
		return nil, fmt.Errorf("database is required")
	}

	if sslMode, ok := config["ssl_mode"].(string); ok && sslMode != "" {
		cfg.SSLMode = sslMode
	}

	if n, ok := intValue(config["max_conns"]); ok && n > 0 {
		cfg.MaxConns = int32(n)
	}

	return cfg, nil
}

// intValue accepts the numeric shapes produced by YAML and JSON decoding.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64: // JSON numbers are float64
		return int(n), true
	default:
		return 0, false
	}
}
