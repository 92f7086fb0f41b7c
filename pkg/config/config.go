package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Default file locations, relative to the working directory.
const (
	DefaultConfigPath = "config.yaml"
	DefaultEnvPath    = ".env"
)

// Store config keys that may be supplied through the environment instead of YAML.
var storeSecretKeys = []string{"password", "url"}

// Config holds all configuration for ekaya-listings.
// Configuration comes from a YAML file (config.yaml) with environment variable
// overrides. An optional .env file is loaded into the environment first.
// Store secrets should come from STORE_<NAME>_PASSWORD / STORE_<NAME>_URL.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Search SearchConfig `yaml:"search"`

	// CandidatesFile replaces the built-in layout registry when set.
	CandidatesFile string `yaml:"candidates_file" env:"CANDIDATES_FILE" env-default:""`

	// AgencyKeyFile is the JSON file of per-agency feed credentials (optional).
	AgencyKeyFile string `yaml:"agency_key_file" env:"AGENCY_KEY_FILE" env-default:""`

	// Stores are searched in this order.
	Stores []StoreConfig `yaml:"stores"`
}

// SearchConfig tunes the multi-store search.
type SearchConfig struct {
	// Concurrency caps how many stores are read at once. 0 means no cap.
	Concurrency int `yaml:"concurrency" env:"SEARCH_CONCURRENCY" env-default:"0"`
}

// StoreConfig describes one listing store.
type StoreConfig struct {
	Name string `yaml:"name"`
	// Type is a registered adapter type: postgres, mssql, sqlite or memory.
	Type string `yaml:"type"`
	// Config is passed to the adapter factory as-is.
	Config map[string]any `yaml:"config"`
	// Candidates pins the layouts probed for this store, in order.
	// Empty means every known layout.
	Candidates []string `yaml:"candidates"`
	// Feed overrides the source tag of the detected layout.
	Feed string `yaml:"feed"`
}

// Load reads configuration from path (config.yaml when empty) with environment
// variable overrides. A missing .env file is not an error.
func Load(path, version string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", DefaultEnvPath, err)
	}

	if path == "" {
		path = DefaultConfigPath
	}

	cfg := &Config{Version: version}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyStoreSecrets()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.Search.Concurrency < 0 {
		return fmt.Errorf("search.concurrency must be >= 0, got %d", c.Search.Concurrency)
	}

	seen := make(map[string]bool, len(c.Stores))
	for i, s := range c.Stores {
		if s.Name == "" {
			return fmt.Errorf("stores[%d]: name is required", i)
		}
		if s.Type == "" {
			return fmt.Errorf("store %q: type is required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("store %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// IsLocal reports whether the server runs in local development mode.
func (c *Config) IsLocal() bool {
	return c.Env == "" || c.Env == "local"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// applyStoreSecrets copies STORE_<NAME>_<KEY> environment variables into the
// matching store's adapter config.
func (c *Config) applyStoreSecrets() {
	for i := range c.Stores {
		s := &c.Stores[i]
		for _, key := range storeSecretKeys {
			v, ok := os.LookupEnv(StoreEnvVar(s.Name, key))
			if !ok {
				continue
			}
			if s.Config == nil {
				s.Config = make(map[string]any)
			}
			s.Config[key] = v
		}
	}
}

// StoreEnvVar returns the environment variable consulted for a store secret,
// e.g. StoreEnvVar("daft-eu", "password") == "STORE_DAFT_EU_PASSWORD".
func StoreEnvVar(store, key string) string {
	mapper := func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}
	return "STORE_" + strings.Map(mapper, store) + "_" + strings.ToUpper(key)
}
