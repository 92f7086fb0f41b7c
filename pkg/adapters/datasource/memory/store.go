// Package memory provides an in-process listing store backed by fixture rows.
// It evaluates predicates in Go and is used for demos, tests and offline
// snapshots exported as JSON.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/jsonutil"
)

// Store holds named tables of rows.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
	closed bool
}

// New creates a store over the given tables. Rows are shared, not copied;
// callers must not mutate them afterwards.
func New(tables map[string][]map[string]any) *Store {
	if tables == nil {
		tables = make(map[string][]map[string]any)
	}
	return &Store{tables: tables}
}

// FromMap builds a store from "tables" (inline rows) and/or "fixture_file"
// (a JSON object of table name to row array). Inline tables win on conflict.
func FromMap(config map[string]any) (*Store, error) {
	tables := make(map[string][]map[string]any)

	if path, ok := config["fixture_file"].(string); ok && path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixture_file: %w", err)
		}
		var fromFile map[string][]map[string]any
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parse fixture_file %s: %w", path, err)
		}
		for name, rows := range fromFile {
			tables[name] = rows
		}
	}

	if raw, ok := config["tables"].(map[string]any); ok {
		for name, v := range raw {
			rows, ok := jsonutil.ObjectList(v)
			if !ok {
				return nil, fmt.Errorf("table %q: expected a list of rows", name)
			}
			tables[name] = rows
		}
	}

	return New(tables), nil
}

// ReadRows filters the named table in insertion order.
func (s *Store) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}
	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", table)
	}

	limit = datasource.EffectiveLimit(limit)
	result := make([]map[string]any, 0)
	for _, row := range rows {
		if len(result) >= limit {
			break
		}
		if Matches(row, pred) {
			result = append(result, row)
		}
	}
	return result, nil
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Matches evaluates pred against row with SQL-like NULL handling:
// a missing or null column never satisfies a condition.
func Matches(row map[string]any, pred datasource.Predicate) bool {
	if len(pred.AnyOf) > 0 {
		matched := false
		for _, c := range pred.AnyOf {
			if matchCondition(row, c) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, c := range pred.AllOf {
		if !matchCondition(row, c) {
			return false
		}
	}
	return true
}

func matchCondition(row map[string]any, c datasource.Condition) bool {
	v, ok := row[c.Column]
	if !ok || v == nil {
		return false
	}

	switch c.Op {
	case datasource.OpContains:
		needle := strings.ToLower(jsonutil.FlexibleString(c.Value))
		return strings.Contains(strings.ToLower(jsonutil.FlexibleString(v)), needle)
	case datasource.OpEq:
		return jsonutil.FlexibleString(v) == jsonutil.FlexibleString(c.Value)
	case datasource.OpGte:
		return jsonutil.FlexibleNumber(v) >= jsonutil.FlexibleNumber(c.Value)
	case datasource.OpLte:
		return jsonutil.FlexibleNumber(v) <= jsonutil.FlexibleNumber(c.Value)
	default:
		return false
	}
}

func init() {
	datasource.Register(datasource.StoreAdapterRegistration{
		Info: datasource.StoreAdapterInfo{
			Type:        "memory",
			DisplayName: "In-memory",
			Description: "Fixture rows from config or a JSON snapshot",
		},
		Factory: func(_ context.Context, config map[string]any, _ *zap.Logger) (datasource.RowReader, error) {
			store, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return store, nil
		},
	})
}

var _ datasource.RowReader = (*Store)(nil)
