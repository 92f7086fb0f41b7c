package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-listings/pkg/logging"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/normalize"
	"github.com/ekaya-inc/ekaya-listings/pkg/query"
)

// Where agency API keys were found.
const (
	KeySourceDatabase = "database"
	KeySourceFile     = "file"
	KeySourceNone     = "none"
)

// Columns an agencies row may carry credentials in.
const (
	colDaftAPIKey    = "daft_api_key"
	colMyHomeAPIKey  = "myhome_api_key"
	colMyHomeGroupID = "myhome_group_id"
)

// AgencyAPIKeys are the feed credentials resolved for one agency.
type AgencyAPIKeys struct {
	Source        string `json:"source"`
	DaftAPIKey    string `json:"daft_api_key,omitempty"`
	MyHomeAPIKey  string `json:"myhome_api_key,omitempty"`
	MyHomeGroupID int    `json:"myhome_group_id,omitempty"`
}

// HasAny reports whether at least one feed key is present.
func (k AgencyAPIKeys) HasAny() bool {
	return k.DaftAPIKey != "" || k.MyHomeAPIKey != ""
}

// Masked returns a copy safe to print or return to clients.
func (k AgencyAPIKeys) Masked() AgencyAPIKeys {
	k.DaftAPIKey = logging.MaskSecret(k.DaftAPIKey)
	k.MyHomeAPIKey = logging.MaskSecret(k.MyHomeAPIKey)
	return k
}

// StoreAgencyMatch is one store's answer to an agency lookup.
type StoreAgencyMatch struct {
	Store      string            `json:"store"`
	Schema     string            `json:"schema,omitempty"`
	Agency     *models.Agency    `json:"agency,omitempty"`
	Properties []models.Property `json:"properties"`
	Error      string            `json:"error,omitempty"`

	raw map[string]any
}

// AgencyLookupSummary condenses a lookup for quick display.
type AgencyLookupSummary struct {
	FoundIn         []string `json:"found_in"`
	PropertiesCount int      `json:"properties_count"`
	HasAPIKeys      bool     `json:"has_api_keys"`
}

// AgencyLookupResult is the cross-store view of one agency.
type AgencyLookupResult struct {
	Name    string              `json:"name"`
	Stores  []StoreAgencyMatch  `json:"stores"`
	APIKeys AgencyAPIKeys       `json:"api_keys"`
	Summary AgencyLookupSummary `json:"summary"`
}

// AgencyLookupService finds an agency, its listings and its feed credentials
// across every configured store.
type AgencyLookupService interface {
	Lookup(ctx context.Context, name string) (*AgencyLookupResult, error)
}

type agencyLookupService struct {
	stores *StoreSet
	keys   *AgencyKeyDirectory
	logger *zap.Logger
}

// NewAgencyLookupService creates an agency lookup service. keys may be nil.
func NewAgencyLookupService(stores *StoreSet, keys *AgencyKeyDirectory, logger *zap.Logger) AgencyLookupService {
	return &agencyLookupService{
		stores: stores,
		keys:   keys,
		logger: logger.Named("agency-lookup"),
	}
}

var _ AgencyLookupService = (*agencyLookupService)(nil)

func (s *agencyLookupService) Lookup(ctx context.Context, name string) (*AgencyLookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: agency name is required", apperrors.ErrInvalidArgument)
	}

	bindings := s.stores.Bindings
	matches := make([]StoreAgencyMatch, len(bindings))

	var g errgroup.Group
	for i, b := range bindings {
		g.Go(func() error {
			matches[i] = guardStore(s.logger, b.Name,
				func() StoreAgencyMatch { return s.lookupStore(ctx, b, name) },
				func(err error) StoreAgencyMatch {
					return StoreAgencyMatch{Store: b.Name, Properties: []models.Property{}, Error: logging.SanitizeError(err)}
				})
			return nil
		})
	}
	_ = g.Wait()

	result := &AgencyLookupResult{
		Name:    name,
		Stores:  matches,
		APIKeys: s.resolveKeys(matches, name),
		Summary: AgencyLookupSummary{FoundIn: []string{}},
	}
	for _, m := range matches {
		if m.Agency != nil {
			result.Summary.FoundIn = append(result.Summary.FoundIn, m.Store)
		}
		result.Summary.PropertiesCount += len(m.Properties)
	}
	result.Summary.HasAPIKeys = result.APIKeys.HasAny()

	s.logger.Info("Agency lookup complete",
		zap.String("agency", name),
		zap.Strings("found_in", result.Summary.FoundIn),
		zap.Int("properties", result.Summary.PropertiesCount),
		zap.String("key_source", result.APIKeys.Source))
	return result, nil
}

func (s *agencyLookupService) lookupStore(ctx context.Context, b StoreBinding, name string) StoreAgencyMatch {
	match := StoreAgencyMatch{Store: b.Name, Properties: []models.Property{}}
	logger := s.logger.With(zap.String("store", b.Name))

	reader, candidate, err := s.stores.resolve(ctx, b, false)
	if err != nil {
		match.Error = logging.SanitizeError(err)
		logger.Warn("Store unavailable", zap.String("error", match.Error))
		return match
	}
	if candidate == nil {
		match.Error = apperrors.ErrNoSchema.Error()
		return match
	}
	match.Schema = candidate.Name

	agencyCols := candidate.Columns.Agencies
	if candidate.AgenciesTable != "" && agencyCols.Name != "" {
		rows, err := reader.ReadRows(ctx, candidate.AgenciesTable, datasource.Predicate{
			AnyOf: []datasource.Condition{{Column: agencyCols.Name, Op: datasource.OpContains, Value: name}},
		}, 1)
		if err != nil {
			match.Error = logging.SanitizeError(err)
			logger.Warn("Agency read failed", zap.String("error", match.Error))
		} else if len(rows) > 0 {
			agency := normalize.Agency(rows[0], agencyCols)
			match.Agency = &agency
			match.raw = rows[0]
		}
	}

	props, err := s.readProperties(ctx, reader, candidate, match.raw, name)
	if err != nil {
		match.Error = logging.SanitizeError(err)
		logger.Warn("Property read failed", zap.String("error", match.Error))
		return match
	}
	match.Properties = props
	return match
}

// readProperties prefers an exact agency-id match and falls back to a
// substring match of the name on the agency-ref and title columns.
func (s *agencyLookupService) readProperties(ctx context.Context, reader datasource.RowReader, candidate *models.SchemaCandidate, agencyRow map[string]any, name string) ([]models.Property, error) {
	cols := candidate.Columns.Properties
	table := candidate.PropertiesTable

	var rows []map[string]any
	if id := rawAgencyID(agencyRow, candidate.Columns.Agencies); id != nil && cols.AgencyRef != "" {
		byID, err := reader.ReadRows(ctx, table, datasource.Predicate{
			AllOf: []datasource.Condition{{Column: cols.AgencyRef, Op: datasource.OpEq, Value: id}},
		}, query.MaxPageRows)
		if err != nil {
			return nil, err
		}
		rows = byID
	}

	if len(rows) == 0 {
		var anyOf []datasource.Condition
		for _, col := range []string{cols.AgencyRef, cols.Title} {
			if col == "" || (len(anyOf) > 0 && anyOf[0].Column == col) {
				continue
			}
			anyOf = append(anyOf, datasource.Condition{Column: col, Op: datasource.OpContains, Value: name})
		}
		if len(anyOf) == 0 {
			return []models.Property{}, nil
		}
		byName, err := reader.ReadRows(ctx, table, datasource.Predicate{AnyOf: anyOf}, query.MaxPageRows)
		if err != nil {
			return nil, err
		}
		rows = byName
	}

	props := make([]models.Property, 0, len(rows))
	for _, row := range rows {
		props = append(props, normalize.Property(row, candidate))
	}
	return props, nil
}

// resolveKeys takes credentials from the first matched agencies row that has
// any, then from the key file.
func (s *agencyLookupService) resolveKeys(matches []StoreAgencyMatch, name string) AgencyAPIKeys {
	for _, m := range matches {
		if m.raw == nil {
			continue
		}
		keys := AgencyAPIKeys{
			Source:        KeySourceDatabase,
			DaftAPIKey:    jsonutil.FlexibleString(m.raw[colDaftAPIKey]),
			MyHomeAPIKey:  jsonutil.FlexibleString(m.raw[colMyHomeAPIKey]),
			MyHomeGroupID: int(jsonutil.FlexibleNumber(m.raw[colMyHomeGroupID])),
		}
		if keys.HasAny() {
			return keys
		}
	}

	if rec, ok := s.keys.Find(name); ok {
		keys := AgencyAPIKeys{Source: KeySourceFile}
		if rec.DaftAPIKey != nil {
			keys.DaftAPIKey = *rec.DaftAPIKey
		}
		if rec.MyHomeAPI != nil {
			keys.MyHomeAPIKey = rec.MyHomeAPI.APIKey
			keys.MyHomeGroupID = rec.MyHomeAPI.GroupID
		}
		return keys
	}

	return AgencyAPIKeys{Source: KeySourceNone}
}

func rawAgencyID(row map[string]any, cols models.AgencyColumns) any {
	if row == nil {
		return nil
	}
	for _, col := range []string{cols.ID, "id"} {
		if col == "" {
			continue
		}
		if v := row[col]; !jsonutil.IsBlank(v) {
			return v
		}
	}
	return nil
}
