package sqlite

import (
	"fmt"
	"os"
)

// MemoryPath opens a private in-process database.
const MemoryPath = ":memory:"

// Config contains SQLite-specific options.
type Config struct {
	// Path is the database file, or MemoryPath.
	Path string

	// SeedSQL is executed once after opening. Used for fixtures and offline
	// snapshots loaded from a dump.
	SeedSQL string
}

// FromMap creates a Config from a generic config map.
// "seed_file" is read eagerly so a bad path fails at startup.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{}

	if path, ok := config["path"].(string); ok && path != "" {
		cfg.Path = path
	} else {
		return nil, fmt.Errorf("path is required")
	}

	if seed, ok := config["seed_sql"].(string); ok {
		cfg.SeedSQL = seed
	}

	if seedFile, ok := config["seed_file"].(string); ok && seedFile != "" {
		data, err := os.ReadFile(seedFile)
		if err != nil {
			return nil, fmt.Errorf("read seed_file: %w", err)
		}
		cfg.SeedSQL += "\n" + string(data)
	}

	return cfg, nil
}
