package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/query"
)

// DiagnosticsAgencySample caps the agency names reported per store.
const DiagnosticsAgencySample = 10

// StoreDiagnostics is the health snapshot of one configured store.
type StoreDiagnostics struct {
	Store           string     `json:"store"`
	Schema          string     `json:"schema,omitempty"`
	PropertiesTable string     `json:"properties_table,omitempty"`
	AgenciesTable   string     `json:"agencies_table,omitempty"`
	Agencies        []string   `json:"agencies"`
	PropertiesCount int        `json:"properties_count"`
	DetectedAt      *time.Time `json:"detected_at,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// DiagnosticsService reports what each store looks like to the engine.
type DiagnosticsService interface {
	// Diagnose inspects every store. refresh forces schema re-detection.
	Diagnose(ctx context.Context, refresh bool) []StoreDiagnostics
}

type diagnosticsService struct {
	stores *StoreSet
	logger *zap.Logger
}

// NewDiagnosticsService creates a diagnostics service.
func NewDiagnosticsService(stores *StoreSet, logger *zap.Logger) DiagnosticsService {
	return &diagnosticsService{
		stores: stores,
		logger: logger.Named("diagnostics"),
	}
}

var _ DiagnosticsService = (*diagnosticsService)(nil)

func (s *diagnosticsService) Diagnose(ctx context.Context, refresh bool) []StoreDiagnostics {
	bindings := s.stores.Bindings
	report := make([]StoreDiagnostics, len(bindings))

	var g errgroup.Group
	for i, b := range bindings {
		g.Go(func() error {
			report[i] = guardStore(s.logger, b.Name,
				func() StoreDiagnostics { return s.diagnoseStore(ctx, b, refresh) },
				func(err error) StoreDiagnostics {
					return StoreDiagnostics{Store: b.Name, Agencies: []string{}, Error: logging.SanitizeError(err)}
				})
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("Diagnostics complete", zap.Int("stores", len(report)), zap.Bool("refresh", refresh))
	return report
}

func (s *diagnosticsService) diagnoseStore(ctx context.Context, b StoreBinding, refresh bool) StoreDiagnostics {
	d := StoreDiagnostics{Store: b.Name, Agencies: []string{}}

	reader, candidate, err := s.stores.resolve(ctx, b, refresh)
	if err != nil {
		d.Error = logging.SanitizeError(err)
		return d
	}
	if det, ok := s.stores.Cache.Lookup(b.Name); ok {
		at := det.DetectedAt
		d.DetectedAt = &at
	}
	if candidate == nil {
		d.Error = apperrors.ErrNoSchema.Error()
		return d
	}

	d.Schema = candidate.Name
	d.PropertiesTable = candidate.PropertiesTable
	d.AgenciesTable = candidate.AgenciesTable

	if candidate.AgenciesTable != "" {
		rows, err := reader.ReadRows(ctx, candidate.AgenciesTable, datasource.MatchAll, DiagnosticsAgencySample)
		if err != nil {
			d.Error = logging.SanitizeError(err)
		} else {
			nameCol := candidate.Columns.Agencies.Name
			for _, row := range rows {
				if name := jsonutil.FlexibleString(row[nameCol]); name != "" {
					d.Agencies = append(d.Agencies, name)
				}
			}
		}
	}

	rows, err := reader.ReadRows(ctx, candidate.PropertiesTable, datasource.MatchAll, query.MaxPageRows)
	if err != nil {
		d.Error = logging.SanitizeError(err)
		return d
	}
	d.PropertiesCount = len(rows)

	if d.Error != "" {
		s.logger.Warn("Store diagnostics found a problem",
			zap.String("store", b.Name), zap.String("error", d.Error))
	}
	return d
}
