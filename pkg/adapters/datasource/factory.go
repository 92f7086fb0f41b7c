package datasource

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
)

// RowReaderFactory creates store readers from the registry.
type RowReaderFactory interface {
	// NewRowReader creates a reader for the given store type.
	NewRowReader(ctx context.Context, storeType string, config map[string]any) (RowReader, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []StoreAdapterInfo
}

type registryFactory struct {
	logger *zap.Logger
}

// NewRowReaderFactory returns a factory that uses the global registry.
func NewRowReaderFactory(logger *zap.Logger) RowReaderFactory {
	return &registryFactory{logger: logger}
}

func (f *registryFactory) NewRowReader(ctx context.Context, storeType string, config map[string]any) (RowReader, error) {
	factory := GetFactory(storeType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnknownStoreType, storeType)
	}
	if config == nil {
		config = make(map[string]any)
	}
	return factory(ctx, config, f.logger.Named(storeType))
}

func (f *registryFactory) ListTypes() []StoreAdapterInfo {
	return RegisteredAdapters()
}

// Ensure registryFactory implements RowReaderFactory at compile time.
var _ RowReaderFactory = (*registryFactory)(nil)
