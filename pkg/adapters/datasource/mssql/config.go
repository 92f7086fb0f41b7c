package mssql

import (
	"fmt"
	"strings"
)

// Auth methods supported for listing stores.
const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
	// AuthDSN uses a complete sqlserver:// URL (typically STORE_<NAME>_URL).
	AuthDSN = "dsn"
)

const (
	defaultPort              = 1433
	defaultConnectionTimeout = 30
)

// Config contains SQL Server-specific connection options.
type Config struct {
	// URL, when set, is used as-is and the discrete fields below are ignored.
	URL string

	Host     string
	Port     int
	Database string

	AuthMethod string

	Username string
	Password string

	TenantID     string
	ClientID     string
	ClientSecret string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
	// ReadOnly routes the session to a readable secondary where one exists.
	ReadOnly bool
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int { return defaultPort }

// FromMap builds a Config from a store's config map. The auth method is
// url > auth_method > client_id > user/username.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:              defaultPort,
		Encrypt:           true,
		ConnectionTimeout: defaultConnectionTimeout,
		ReadOnly:          true,
	}

	if b, ok := boolValue(config["read_only"]); ok {
		cfg.ReadOnly = b
	}

	if u := stringValue(config, "url"); u != "" {
		if !strings.HasPrefix(u, "sqlserver://") {
			return nil, fmt.Errorf("url must use the sqlserver:// scheme")
		}
		cfg.URL = u
		cfg.AuthMethod = AuthDSN
		return cfg, nil
	}

	if cfg.Host = stringValue(config, "host"); cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if port, ok := intValue(config["port"]); ok {
		cfg.Port = port
	}
	if cfg.Database = stringValue(config, "database", "name"); cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	if b, ok := boolValue(config["encrypt"]); ok {
		cfg.Encrypt = b
	} else if s, ok := config["encrypt"].(string); ok {
		cfg.Encrypt = s == "strict"
	}
	if b, ok := boolValue(config["trust_server_certificate"]); ok {
		cfg.TrustServerCertificate = b
	}
	if timeout, ok := intValue(config["connection_timeout"]); ok {
		cfg.ConnectionTimeout = timeout
	}

	user := stringValue(config, "username", "user")
	switch {
	case stringValue(config, "auth_method") != "":
		cfg.AuthMethod = stringValue(config, "auth_method")
	case config["client_id"] != nil:
		cfg.AuthMethod = AuthServicePrincipal
	case user != "":
		cfg.AuthMethod = AuthSQL
	default:
		return nil, fmt.Errorf("could not auto-detect auth method; no credentials provided")
	}

	switch cfg.AuthMethod {
	case AuthSQL:
		if user == "" {
			return nil, fmt.Errorf("username is required for SQL authentication")
		}
		cfg.Username = user
		cfg.Password = stringValue(config, "password")
	case AuthServicePrincipal:
		cfg.TenantID = stringValue(config, "tenant_id")
		cfg.ClientID = stringValue(config, "client_id")
		cfg.ClientSecret = stringValue(config, "client_secret")
		if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("tenant_id, client_id and client_secret are required for service principal authentication")
		}
	default:
		return nil, fmt.Errorf("invalid auth method: %s (must be sql or service_principal)", cfg.AuthMethod)
	}

	return cfg, nil
}

// Validate checks the fields required by the selected auth method.
func (c *Config) Validate() error {
	if c.AuthMethod == AuthDSN {
		if c.URL == "" {
			return fmt.Errorf("url is required")
		}
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case AuthServicePrincipal:
		if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
			return fmt.Errorf("tenant_id, client_id and client_secret are required for service principal")
		}
	default:
		return fmt.Errorf("invalid auth method: %s", c.AuthMethod)
	}
	return nil
}

// stringValue returns the first non-empty string among keys.
func stringValue(config map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := config[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func boolValue(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(b) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

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
