package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/schema"
)

// ErrStorePanicked wraps a panic recovered from one store's branch of a fan-out.
var ErrStorePanicked = errors.New("store operation panicked")

// StoreBinding ties a configured store to the layouts it may be probed for.
type StoreBinding struct {
	Name       string
	Candidates []models.SchemaCandidate
	// Feed, when set, overrides the detected layout's feed tag.
	Feed string
}

// ReaderSource hands out open readers by store name.
// *datasource.StoreManager satisfies it.
type ReaderSource interface {
	Get(ctx context.Context, name string) (datasource.RowReader, error)
}

// StoreSet is the shared view of configured stores used by every service.
type StoreSet struct {
	Bindings []StoreBinding
	Readers  ReaderSource
	Cache    *schema.Cache
}

// NewStoreSet creates a StoreSet.
func NewStoreSet(bindings []StoreBinding, readers ReaderSource, cache *schema.Cache) *StoreSet {
	return &StoreSet{Bindings: bindings, Readers: readers, Cache: cache}
}

// resolve opens the store and returns its detected layout, re-probing when
// refresh is set. A nil candidate with a nil error means no layout matched.
func (s *StoreSet) resolve(ctx context.Context, b StoreBinding, refresh bool) (datasource.RowReader, *models.SchemaCandidate, error) {
	reader, err := s.Readers.Get(ctx, b.Name)
	if err != nil {
		return nil, nil, err
	}

	var candidate *models.SchemaCandidate
	if refresh {
		candidate = s.Cache.Refresh(ctx, b.Name, reader, b.Candidates)
	} else {
		candidate = s.Cache.Get(ctx, b.Name, reader, b.Candidates)
	}
	if candidate == nil {
		return reader, nil, nil
	}

	if b.Feed != "" && b.Feed != candidate.Feed {
		overridden := *candidate
		overridden.Feed = b.Feed
		candidate = &overridden
	}
	return reader, candidate, nil
}

// guardStore runs fn for one store. A panic is logged and turned into
// onPanic's result, so the other branches of a fan-out still complete.
func guardStore[T any](logger *zap.Logger, store string, fn func() T, onPanic func(err error) T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrStorePanicked, r)
			logger.Error("Store operation panicked",
				zap.String("store", store),
				zap.String("error", logging.SanitizeError(err)),
				zap.Stack("stack"))
			out = onPanic(err)
		}
	}()
	return fn()
}

// StoreStatus is the cached detection state of one store. It never probes.
type StoreStatus struct {
	Name       string     `json:"name"`
	Detected   bool       `json:"detected"`
	Schema     string     `json:"schema,omitempty"`
	Feed       string     `json:"feed,omitempty"`
	DetectedAt *time.Time `json:"detected_at,omitempty"`
}

// Status reports every binding's cached detection in configuration order.
// Detected is false until the store has been probed at least once; a probe
// that matched nothing is Detected with an empty Schema.
func (s *StoreSet) Status() []StoreStatus {
	out := make([]StoreStatus, 0, len(s.Bindings))
	for _, b := range s.Bindings {
		st := StoreStatus{Name: b.Name}
		if det, ok := s.Cache.Lookup(b.Name); ok {
			at := det.DetectedAt
			st.Detected = true
			st.DetectedAt = &at
			if det.Candidate != nil {
				st.Schema = det.Candidate.Name
				st.Feed = det.Candidate.Feed
			}
		}
		if b.Feed != "" {
			st.Feed = b.Feed
		}
		out = append(out, st)
	}
	return out
}
