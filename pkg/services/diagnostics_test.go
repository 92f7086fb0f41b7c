package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/memory"
	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
)

func TestDiagnose_ReportsEveryStore(t *testing.T) {
	readers := readerMap{
		"daft":   daftStore(),
		"crm":    memory.New(map[string][]map[string]any{"customers": {{"id": 1}}}),
		"broken": failingReader{},
	}
	stores := newTestStoreSet(readers, "daft", "crm", "missing", "broken")
	svc := NewDiagnosticsService(stores, zap.NewNop())

	report := svc.Diagnose(context.Background(), false)
	require.Len(t, report, 4)

	daft := report[0]
	assert.Equal(t, "daft", daft.Store)
	assert.Equal(t, "daft", daft.Schema)
	assert.Equal(t, "daft_properties", daft.PropertiesTable)
	assert.Equal(t, "agencies", daft.AgenciesTable)
	assert.Equal(t, []string{"Sherry FitzGerald"}, daft.Agencies)
	assert.Equal(t, 2, daft.PropertiesCount)
	assert.NotNil(t, daft.DetectedAt)
	assert.Empty(t, daft.Error)

	assert.Equal(t, apperrors.ErrNoSchema.Error(), report[1].Error)
	assert.NotNil(t, report[1].DetectedAt)
	assert.Contains(t, report[2].Error, "store not configured")
	assert.Equal(t, apperrors.ErrNoSchema.Error(), report[3].Error, "probe errors mean no schema")
	assert.NotNil(t, report[3].Agencies)
}

func TestDiagnose_RefreshReprobes(t *testing.T) {
	counter := &probeCounter{RowReader: daftStore()}
	stores := newTestStoreSet(readerMap{"daft": counter}, "daft")
	svc := NewDiagnosticsService(stores, zap.NewNop())
	ctx := context.Background()

	svc.Diagnose(ctx, false)
	first := counter.probes.Load()
	require.Positive(t, first)

	svc.Diagnose(ctx, false)
	assert.Equal(t, first, counter.probes.Load(), "cached detection is reused")

	svc.Diagnose(ctx, true)
	assert.Equal(t, 2*first, counter.probes.Load())
}

func TestDiagnose_PanickingStoreIsIsolated(t *testing.T) {
	readers := readerMap{
		"panicky": panickingReader{},
		"midread": panicAfterDetect{RowReader: daftStore()},
		"daft":    daftStore(),
	}
	stores := newTestStoreSet(readers, "panicky", "midread", "daft")
	svc := NewDiagnosticsService(stores, zap.NewNop())

	for _, refresh := range []bool{true, false} {
		report := svc.Diagnose(context.Background(), refresh)
		require.Len(t, report, 3)

		assert.Equal(t, "panicky", report[0].Store)
		assert.Contains(t, report[0].Error, ErrStorePanicked.Error())
		assert.Contains(t, report[0].Error, "driver exploded")
		assert.NotNil(t, report[0].Agencies)

		assert.Equal(t, "midread", report[1].Store)
		assert.Contains(t, report[1].Error, ErrStorePanicked.Error())

		assert.Equal(t, "daft", report[2].Schema)
		assert.Equal(t, 2, report[2].PropertiesCount)
		assert.Empty(t, report[2].Error)
	}
}
