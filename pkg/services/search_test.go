package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/memory"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
)

func TestSearch_AggregatesStoresInConfigurationOrder(t *testing.T) {
	stores := newTestStoreSet(readerMap{"unified": unifiedStore(), "daft": daftStore()}, "unified", "daft")
	svc := NewSearchService(stores, 0, zap.NewNop())

	res := svc.Search(context.Background(), "*", nil)

	require.Len(t, res.Properties, 3)
	assert.Equal(t, "*", res.Query)
	assert.Equal(t, "p1", res.Properties[0].ID)
	assert.Equal(t, "d1", res.Properties[1].ID)
	assert.Equal(t, "d2", res.Properties[2].ID)

	ids := make([]string, 0, len(res.Agencies))
	for _, a := range res.Agencies {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"lisney", "sherry-fitzgerald", "hooke-&-macdonald"}, ids)

	// p1 is seen on daft and myhome; d1 and d2 each get a synthesized daft source.
	assert.Equal(t, models.SourceTally{Daft: 3, MyHome: 1}, res.Sources)
}

func TestSearch_TextQueryNarrowsRows(t *testing.T) {
	stores := newTestStoreSet(readerMap{"daft": daftStore()}, "daft")
	svc := NewSearchService(stores, 0, zap.NewNop())

	res := svc.Search(context.Background(), "cork", nil)

	require.Len(t, res.Properties, 1)
	assert.Equal(t, "d2", res.Properties[0].ID)
	assert.Equal(t, "Property by Hooke & MacDonald", res.Properties[0].Title)
	assert.Equal(t, models.SourceTally{Daft: 1}, res.Sources)
}

func TestSearch_Filters(t *testing.T) {
	stores := newTestStoreSet(readerMap{"daft": daftStore()}, "daft")
	svc := NewSearchService(stores, 0, zap.NewNop())
	ctx := context.Background()

	tests := []struct {
		name    string
		filters *models.SearchFilters
		want    []string
	}{
		{name: "no filters", filters: &models.SearchFilters{}, want: []string{"d1", "d2"}},
		{name: "property type", filters: &models.SearchFilters{PropertyType: "House"}, want: []string{"d1"}},
		{name: "min price", filters: &models.SearchFilters{MinPrice: ptr(300000.0)}, want: []string{"d1"}},
		{name: "max price", filters: &models.SearchFilters{MaxPrice: ptr(300000.0)}, want: []string{"d2"}},
		{name: "bedroom range", filters: &models.SearchFilters{MinBedrooms: ptr(2.0), MaxBedrooms: ptr(2.0)}, want: []string{"d2"}},
		{name: "location", filters: &models.SearchFilters{Location: "dublin"}, want: []string{"d1"}},
		{name: "nothing matches", filters: &models.SearchFilters{MinPrice: ptr(1e9)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.Search(ctx, "", tt.filters)
			got := make([]string, 0, len(res.Properties))
			for _, p := range res.Properties {
				got = append(got, p.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearch_FailingStoresContributeNothing(t *testing.T) {
	readers := readerMap{
		"broken":  failingReader{},
		"panicky": panickingReader{},
		"daft":    daftStore(),
	}
	stores := newTestStoreSet(readers, "broken", "missing", "panicky", "daft")
	svc := NewSearchService(stores, 2, zap.NewNop())

	res := svc.Search(context.Background(), "*", nil)

	require.Len(t, res.Properties, 2)
	assert.Equal(t, "d1", res.Properties[0].ID)
	assert.Equal(t, 2, res.Sources.Daft)
}

func TestSearch_NoSchemaStoreYieldsEmptyResults(t *testing.T) {
	store := memory.New(map[string][]map[string]any{
		"customers": {{"id": 1, "email": "a@example.com"}},
	})
	stores := newTestStoreSet(readerMap{"crm": store}, "crm")
	svc := NewSearchService(stores, 0, zap.NewNop())

	res := svc.Search(context.Background(), "anything", nil)

	assert.Equal(t, models.EmptySearchResults("anything"), res)
	assert.NotNil(t, res.Properties)
	assert.NotNil(t, res.Agencies)
}

func TestSearch_FeedOverride(t *testing.T) {
	stores := newTestStoreSet(readerMap{"daft": daftStore()}, "daft")
	stores.Bindings[0].Feed = "myhome"
	svc := NewSearchService(stores, 0, zap.NewNop())

	res := svc.Search(context.Background(), "*", nil)

	assert.Equal(t, models.SourceTally{MyHome: 2}, res.Sources)
	// The cached detection keeps its own feed.
	det, ok := stores.Cache.Lookup("daft")
	require.True(t, ok)
	assert.Equal(t, "daft", det.Candidate.Feed)
}

func TestMergeResults_AgencyInsertOrReplace(t *testing.T) {
	prop := func(id, agencyName string, tags ...models.SourceTag) models.Property {
		p := models.Property{
			ID:      id,
			Agency:  models.Agency{ID: models.AgencySlug(agencyName), Name: agencyName},
			Sources: []models.PropertySource{},
		}
		for _, tag := range tags {
			p.Sources = append(p.Sources, models.PropertySource{Source: tag})
		}
		return p
	}

	res := MergeResults("ray",
		[]models.Property{
			prop("1", "Ray Maher Property Service", models.SourceDaft),
			prop("2", "Lisney", models.SourceMyHome),
		},
		nil,
		[]models.Property{
			prop("3", "ray maher property service", models.SourceDaft, models.SourceWordPress, models.SourceTag("zoopla")),
		},
	)

	require.Len(t, res.Properties, 3)
	require.Len(t, res.Agencies, 2)
	assert.Equal(t, "ray-maher-property-service", res.Agencies[0].ID)
	assert.Equal(t, "ray maher property service", res.Agencies[0].Name, "last snapshot wins")
	assert.Equal(t, "lisney", res.Agencies[1].ID, "first-seen order kept")
	assert.Equal(t, models.SourceTally{Daft: 2, MyHome: 1, WordPress: 1, Others: 1}, res.Sources)
}

func TestMergeResults_Empty(t *testing.T) {
	res := MergeResults("q")
	assert.Equal(t, models.EmptySearchResults("q"), res)
	assert.Equal(t, "0 properties, 0 agencies (daft 0, myhome 0, wordpress 0, others 0)", Summary(res))
}
