package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/memory"
	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/schema"
	"github.com/ekaya-inc/ekaya-listings/pkg/testhelpers"
)

// readerMap is an in-test ReaderSource.
type readerMap map[string]datasource.RowReader

func (m readerMap) Get(_ context.Context, name string) (datasource.RowReader, error) {
	r, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStoreNotConfigured, name)
	}
	return r, nil
}

// failingReader fails every read.
type failingReader struct{}

func (failingReader) ReadRows(context.Context, string, datasource.Predicate, int) ([]map[string]any, error) {
	return nil, fmt.Errorf("dial tcp: connection refused (postgres://app:hunter2@db:5432/listings)")
}

func (failingReader) Close() error { return nil }

// panickingReader panics on every read.
type panickingReader struct{}

func (panickingReader) ReadRows(context.Context, string, datasource.Predicate, int) ([]map[string]any, error) {
	panic("driver exploded")
}

func (panickingReader) Close() error { return nil }

// panicAfterDetect answers schema detection reads from the wrapped reader and panics
// on every other read.
type panicAfterDetect struct {
	datasource.RowReader
}

func (p panicAfterDetect) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	if limit == 1 && pred.IsEmpty() {
		return p.RowReader.ReadRows(ctx, table, pred, limit)
	}
	panic("driver exploded mid-read")
}

// probeCounter counts limit-1 reads, which is what schema probes issue.
type probeCounter struct {
	datasource.RowReader
	probes atomic.Int32
}

func (p *probeCounter) ReadRows(ctx context.Context, table string, pred datasource.Predicate, limit int) ([]map[string]any, error) {
	if limit == 1 && pred.IsEmpty() {
		p.probes.Add(1)
	}
	return p.RowReader.ReadRows(ctx, table, pred, limit)
}

func daftStore() *memory.Store {
	return memory.New(testhelpers.DaftRows())
}

func unifiedStore() *memory.Store {
	return memory.New(testhelpers.UnifiedRows())
}

// newTestStoreSet binds every name in order, using the built-in candidates.
func newTestStoreSet(readers readerMap, names ...string) *StoreSet {
	bindings := make([]StoreBinding, 0, len(names))
	for _, n := range names {
		bindings = append(bindings, StoreBinding{Name: n, Candidates: schema.Candidates()})
	}
	return NewStoreSet(bindings, readers, schema.NewCache(schema.NewDetector(zap.NewNop())))
}

func ptr[T any](v T) *T { return &v }
