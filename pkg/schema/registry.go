// Package schema detects which known listing layout a store uses and caches
// the result per store.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

//go:embed candidates.yaml
var builtinYAML []byte

var (
	builtinOnce sync.Once
	builtin     []models.SchemaCandidate
)

// Candidates returns the built-in layouts in priority order.
// The returned slice is a copy; callers may reorder it.
func Candidates() []models.SchemaCandidate {
	builtinOnce.Do(func() {
		parsed, err := ParseCandidates(builtinYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded candidates.yaml is invalid: %v", err))
		}
		builtin = parsed
	})
	out := make([]models.SchemaCandidate, len(builtin))
	copy(out, builtin)
	return out
}

// ParseCandidates decodes and validates a YAML list of layouts.
func ParseCandidates(data []byte) ([]models.SchemaCandidate, error) {
	var candidates []models.SchemaCandidate
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates defined")
	}

	seen := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		if err := validateCandidate(c); err != nil {
			return nil, fmt.Errorf("candidate %d (%q): %w", i, c.Name, err)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("duplicate candidate name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return candidates, nil
}

// LoadCandidatesFile reads layouts from a YAML file, replacing the built-ins.
func LoadCandidatesFile(path string) ([]models.SchemaCandidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read candidates file: %w", err)
	}
	return ParseCandidates(data)
}

// Select returns the named candidates in the order given.
// An empty names list selects all of them.
func Select(all []models.SchemaCandidate, names []string) ([]models.SchemaCandidate, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]models.SchemaCandidate, len(all))
	for _, c := range all {
		byName[c.Name] = c
	}
	out := make([]models.SchemaCandidate, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown schema candidate %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}

func validateCandidate(c models.SchemaCandidate) error {
	p := c.Columns.Properties
	switch {
	case c.Name == "":
		return fmt.Errorf("name is required")
	case c.PropertiesTable == "":
		return fmt.Errorf("properties_table is required")
	case p.ID == "":
		return fmt.Errorf("columns.properties.id is required")
	case p.Address == "":
		return fmt.Errorf("columns.properties.address is required")
	case p.Title == "" && p.AgencyRef == "":
		return fmt.Errorf("one of columns.properties.title or agency_ref is required")
	}
	if c.Feed != "" && models.ParseSourceTag(c.Feed) == models.SourceOthers && c.Feed != string(models.SourceOthers) {
		return fmt.Errorf("unknown feed %q", c.Feed)
	}
	return nil
}
