package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
)

// StoreSpec describes one configured listing store.
type StoreSpec struct {
	Name   string
	Type   string
	Config map[string]any
}

// StoreManager opens store readers lazily and keeps them for the process
// lifetime. A failed open is not remembered; the next Get tries again.
type StoreManager struct {
	factory RowReaderFactory
	order   []string
	stores  map[string]*managedStore
	logger  *zap.Logger
}

type managedStore struct {
	spec   StoreSpec
	mu     sync.Mutex // serializes open for this store only
	reader RowReader
}

// NewStoreManager creates a manager for the given stores in configuration order.
// Later specs with a duplicate name are ignored.
func NewStoreManager(factory RowReaderFactory, specs []StoreSpec, logger *zap.Logger) *StoreManager {
	m := &StoreManager{
		factory: factory,
		stores:  make(map[string]*managedStore, len(specs)),
		logger:  logger,
	}
	for _, spec := range specs {
		if _, dup := m.stores[spec.Name]; dup {
			logger.Warn("Duplicate store name ignored", zap.String("store", spec.Name))
			continue
		}
		m.order = append(m.order, spec.Name)
		m.stores[spec.Name] = &managedStore{spec: spec}
	}
	return m
}

// Names returns store names in configuration order.
func (m *StoreManager) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Spec returns the configuration of a named store.
func (m *StoreManager) Spec(name string) (StoreSpec, bool) {
	ms, ok := m.stores[name]
	if !ok {
		return StoreSpec{}, false
	}
	return ms.spec, true
}

// Get returns the reader for a named store, opening it on first use.
func (m *StoreManager) Get(ctx context.Context, name string) (RowReader, error) {
	ms, ok := m.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStoreNotConfigured, name)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.reader != nil {
		return ms.reader, nil
	}

	reader, err := m.factory.NewRowReader(ctx, ms.spec.Type, ms.spec.Config)
	if err != nil {
		m.logger.Warn("Failed to open store",
			zap.String("store", name),
			zap.String("type", ms.spec.Type),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("open store %s: %w", name, err)
	}

	m.logger.Info("Opened store", zap.String("store", name), zap.String("type", ms.spec.Type))
	ms.reader = reader
	return reader, nil
}

// Close closes every opened reader and reports all failures.
func (m *StoreManager) Close() error {
	var errs []error
	for _, name := range m.order {
		ms := m.stores[name]
		ms.mu.Lock()
		if ms.reader != nil {
			if err := ms.reader.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close store %s: %w", name, err))
			}
			ms.reader = nil
		}
		ms.mu.Unlock()
	}
	return errors.Join(errs...)
}
