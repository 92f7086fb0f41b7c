package datasource

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// StoreAdapterInfo describes a registered store adapter.
type StoreAdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mssql", "sqlite", "memory"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string `json:"description"`
}

// RowReaderFunc builds a RowReader from a generic config map.
type RowReaderFunc func(ctx context.Context, config map[string]any, logger *zap.Logger) (RowReader, error)

// StoreAdapterRegistration contains info + factory for creating readers.
type StoreAdapterRegistration struct {
	Info    StoreAdapterInfo
	Factory RowReaderFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StoreAdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg StoreAdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters, sorted by type.
func RegisteredAdapters() []StoreAdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]StoreAdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// GetFactory returns the factory for a store type.
// Returns nil if type is not registered.
func GetFactory(storeType string) RowReaderFunc {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[storeType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(storeType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[storeType]
	return ok
}
