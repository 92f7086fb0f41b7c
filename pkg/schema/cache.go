package schema

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// Detection is the cached outcome for one store. Candidate is nil when no
// layout matched.
type Detection struct {
	Candidate  *models.SchemaCandidate
	DetectedAt time.Time
}

// Cache memoizes detection per store name. A "no schema" result is cached
// as well; only Refresh or Invalidate trigger another probe.
type Cache struct {
	detector *Detector
	entries  sync.Map // store name -> *atomic.Pointer[Detection]
	now      func() time.Time
}

// NewCache creates an empty cache backed by detector.
func NewCache(detector *Detector) *Cache {
	return &Cache{detector: detector, now: time.Now}
}

func (c *Cache) slot(store string) *atomic.Pointer[Detection] {
	v, _ := c.entries.LoadOrStore(store, new(atomic.Pointer[Detection]))
	return v.(*atomic.Pointer[Detection])
}

// Get returns the cached detection for store, probing on first use.
// Concurrent first calls may each probe; the last result stored wins and
// they are equivalent.
func (c *Cache) Get(ctx context.Context, store string, reader datasource.RowReader, candidates []models.SchemaCandidate) *models.SchemaCandidate {
	if d := c.slot(store).Load(); d != nil {
		return d.Candidate
	}
	return c.Refresh(ctx, store, reader, candidates)
}

// Refresh re-probes store and replaces its entry.
// A probe interrupted by cancellation is not cached.
func (c *Cache) Refresh(ctx context.Context, store string, reader datasource.RowReader, candidates []models.SchemaCandidate) *models.SchemaCandidate {
	candidate := c.detector.Detect(ctx, reader, candidates)
	if ctx.Err() != nil && candidate == nil {
		return nil
	}
	c.slot(store).Store(&Detection{Candidate: candidate, DetectedAt: c.now()})
	return candidate
}

// Lookup returns the cached detection without probing.
func (c *Cache) Lookup(store string) (Detection, bool) {
	v, ok := c.entries.Load(store)
	if !ok {
		return Detection{}, false
	}
	d := v.(*atomic.Pointer[Detection]).Load()
	if d == nil {
		return Detection{}, false
	}
	return *d, true
}

// Invalidate drops the entry for store so the next Get probes again.
func (c *Cache) Invalidate(store string) {
	if v, ok := c.entries.Load(store); ok {
		v.(*atomic.Pointer[Detection]).Store(nil)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.entries.Range(func(_, v any) bool {
		v.(*atomic.Pointer[Detection]).Store(nil)
		return true
	})
}
