package schema

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

// Detector probes a store for the first compatible layout.
type Detector struct {
	logger *zap.Logger
}

// NewDetector creates a detector.
func NewDetector(logger *zap.Logger) *Detector {
	return &Detector{logger: logger.Named("schema")}
}

// Detect reads one row from each candidate's properties table in order and
// returns the first candidate whose required columns are present.
// A probe error counts as "not this layout". Returns nil when nothing fits.
func (d *Detector) Detect(ctx context.Context, reader datasource.RowReader, candidates []models.SchemaCandidate) *models.SchemaCandidate {
	for i := range candidates {
		candidate := candidates[i]
		if err := ctx.Err(); err != nil {
			d.logger.Debug("Schema detection cancelled", zap.Error(err))
			return nil
		}

		rows, err := reader.ReadRows(ctx, candidate.PropertiesTable, datasource.MatchAll, 1)
		if err != nil {
			d.logger.Debug("Schema probe failed",
				zap.String("candidate", candidate.Name),
				zap.String("table", candidate.PropertiesTable),
				zap.String("error", logging.SanitizeError(err)))
			continue
		}
		if len(rows) == 0 {
			d.logger.Debug("Schema probe returned no rows",
				zap.String("candidate", candidate.Name),
				zap.String("table", candidate.PropertiesTable))
			continue
		}

		if IsCompatible(rows[0], &candidate) {
			d.logger.Debug("Schema detected",
				zap.String("candidate", candidate.Name),
				zap.String("table", candidate.PropertiesTable))
			return &candidate
		}
		d.logger.Debug("Schema probe missing required columns",
			zap.String("candidate", candidate.Name),
			zap.Strings("columns", columnNames(rows[0])))
	}

	return nil
}

// IsCompatible reports whether a sample row carries the id and address
// columns and at least one of the title or agency-ref columns. Keys count
// even when their value is null.
func IsCompatible(row map[string]any, candidate *models.SchemaCandidate) bool {
	cols := candidate.Columns.Properties
	if !hasColumn(row, cols.ID) || !hasColumn(row, cols.Address) {
		return false
	}
	return hasColumn(row, cols.Title) || hasColumn(row, cols.AgencyRef)
}

func hasColumn(row map[string]any, column string) bool {
	if column == "" {
		return false
	}
	_, ok := row[column]
	return ok
}

func columnNames(row map[string]any) []string {
	names := make([]string, 0, len(row))
	for k := range row {
		names = append(names, k)
	}
	return names
}
