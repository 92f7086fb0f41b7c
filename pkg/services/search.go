package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/normalize"
	"github.com/ekaya-inc/ekaya-listings/pkg/query"
)

// SearchService runs a listing search across every configured store.
type SearchService interface {
	// Search never fails: stores that cannot be read contribute nothing and
	// an unexpected failure yields an empty result.
	Search(ctx context.Context, q string, filters *models.SearchFilters) *models.SearchResults
}

type searchService struct {
	stores      *StoreSet
	concurrency int
	logger      *zap.Logger
}

// NewSearchService creates a search service. concurrency <= 0 means one
// goroutine per store.
func NewSearchService(stores *StoreSet, concurrency int, logger *zap.Logger) SearchService {
	return &searchService{
		stores:      stores,
		concurrency: concurrency,
		logger:      logger.Named("search"),
	}
}

var _ SearchService = (*searchService)(nil)

func (s *searchService) Search(ctx context.Context, q string, filters *models.SearchFilters) (results *models.SearchResults) {
	logger := s.logger.With(zap.String("request_id", uuid.NewString()), zap.String("query", q))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Search failed unexpectedly", zap.Any("panic", r))
			results = models.EmptySearchResults(q)
		}
	}()

	bindings := s.stores.Bindings
	// Each branch writes only its own slot.
	slots := make([][]models.Property, len(bindings))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, b := range bindings {
		g.Go(func() error {
			slots[i] = guardStore(logger, b.Name,
				func() []models.Property { return s.searchStore(ctx, b, q, filters, logger) },
				func(error) []models.Property { return nil })
			return nil
		})
	}
	_ = g.Wait()

	results = MergeResults(q, slots...)
	logger.Info("Search complete",
		zap.Int("stores", len(bindings)),
		zap.Int("properties", len(results.Properties)),
		zap.Int("agencies", len(results.Agencies)))
	return results
}

// searchStore returns one store's normalized rows, or none on any failure.
func (s *searchService) searchStore(ctx context.Context, b StoreBinding, q string, filters *models.SearchFilters, logger *zap.Logger) []models.Property {
	logger = logger.With(zap.String("store", b.Name))

	reader, candidate, err := s.stores.resolve(ctx, b, false)
	if err != nil {
		logger.Warn("Skipping store: unavailable", zap.String("error", logging.SanitizeError(err)))
		return nil
	}
	if candidate == nil {
		logger.Warn("Skipping store: no known listing schema detected")
		return nil
	}

	plan := query.Build(q, filters, candidate)
	rows, err := reader.ReadRows(ctx, plan.Table, plan.Predicate, plan.Limit)
	if err != nil {
		logger.Warn("Skipping store: read failed",
			zap.String("table", plan.Table),
			zap.String("error", logging.SanitizeError(err)))
		return nil
	}

	props := make([]models.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, normalize.Property(row, candidate))
	}
	logger.Debug("Store search complete",
		zap.String("schema", candidate.Name),
		zap.Int("rows", len(rows)))
	return props
}

// MergeResults concatenates per-store properties in order, dedupes their
// agencies by id (the last snapshot wins, first-seen order is kept) and
// tallies one count per source observation.
func MergeResults(q string, batches ...[]models.Property) *models.SearchResults {
	results := models.EmptySearchResults(q)
	agencyIndex := make(map[string]int)

	for _, batch := range batches {
		for _, p := range batch {
			results.Properties = append(results.Properties, p)

			if i, ok := agencyIndex[p.Agency.ID]; ok {
				results.Agencies[i] = p.Agency
			} else {
				agencyIndex[p.Agency.ID] = len(results.Agencies)
				results.Agencies = append(results.Agencies, p.Agency)
			}

			for _, src := range p.Sources {
				results.Sources.Add(src.Source)
			}
		}
	}

	return results
}

// Summary renders a one-line summary for logs and the CLI.
func Summary(r *models.SearchResults) string {
	return fmt.Sprintf("%d properties, %d agencies (daft %d, myhome %d, wordpress %d, others %d)",
		len(r.Properties), len(r.Agencies),
		r.Sources.Daft, r.Sources.MyHome, r.Sources.WordPress, r.Sources.Others)
}
