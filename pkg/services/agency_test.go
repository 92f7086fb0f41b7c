package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
)

const testKeyFile = `[
  {
    "Key": "k1", "Name": "Ray Maher Property Services Cork", "OfficeName": "",
    "Address1": "1 Patrick St", "Address2": "Cork", "Logo": null, "Site": "raymaher.example",
    "DaftApiKey": null, "MyhomeApi": null, "uuid": "0b6f3c1e-8f2a-4d7e-9c1b-2a3d4e5f6a7b"
  },
  {
    "Key": "k2", "Name": "Ray Maher", "OfficeName": "Ray Maher Property Services",
    "Address1": "", "Address2": "", "Logo": "https://logo.example/rm.png", "Site": "",
    "DaftApiKey": "daft-rm-0001", "MyhomeApi": {"ApiKey": "mh-rm-0001", "GroupID": 7},
    "uuid": "5c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"
  },
  {
    "Key": "k3", "Name": "Lisney Sotheby's", "OfficeName": "Lisney Dublin",
    "Address1": "", "Address2": "", "Logo": null, "Site": "",
    "DaftApiKey": "daft-lisney-01", "MyhomeApi": null, "uuid": "not-a-uuid"
  }
]`

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agencies.json")
	require.NoError(t, os.WriteFile(path, []byte(testKeyFile), 0o600))
	return path
}

func loadTestKeys(t *testing.T) *AgencyKeyDirectory {
	t.Helper()
	dir, err := LoadAgencyKeyDirectory(writeKeyFile(t))
	require.NoError(t, err)
	return dir
}

func TestAgencyKeyDirectory_Load(t *testing.T) {
	dir := loadTestKeys(t)
	assert.Equal(t, 3, dir.Len())
	assert.Equal(t, []string{"Ray Maher Property Services Cork", "Ray Maher", "Lisney Sotheby's"}, dir.Names())

	_, err := LoadAgencyKeyDirectory(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "a list"}`), 0o600))
	_, err = LoadAgencyKeyDirectory(bad)
	assert.ErrorContains(t, err, "parse agency key file")
}

func TestAgencyKeyDirectory_Find(t *testing.T) {
	dir := loadTestKeys(t)

	tests := []struct {
		name    string
		search  string
		wantKey string
	}{
		{name: "exact office name beats earlier partial", search: "  ray maher property services ", wantKey: "k2"},
		{name: "exact name", search: "RAY MAHER", wantKey: "k2"},
		{name: "record contains search", search: "sotheby", wantKey: "k3"},
		{name: "search contains record", search: "Lisney Dublin 2 Branch", wantKey: "k3"},
		{name: "no match", search: "Hooke & MacDonald", wantKey: ""},
		{name: "blank", search: "   ", wantKey: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := dir.Find(tt.search)
			if tt.wantKey == "" {
				assert.False(t, ok)
				assert.Nil(t, rec)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantKey, rec.Key)
		})
	}
}

func TestAgencyKeyDirectory_EmptyOfficeNameNeverMatches(t *testing.T) {
	dir := NewAgencyKeyDirectory([]AgencyKeyRecord{{Key: "k", Name: "Zed Estates", OfficeName: ""}})
	_, ok := dir.Find("Anything Else")
	assert.False(t, ok)
}

func TestAgencyKeyDirectory_Filters(t *testing.T) {
	dir := loadTestKeys(t)

	daft := dir.WithDaftKeys()
	require.Len(t, daft, 2)
	assert.Equal(t, "k2", daft[0].Key)
	assert.Equal(t, "k3", daft[1].Key)

	myhome := dir.WithMyHomeKeys()
	require.Len(t, myhome, 1)
	assert.Equal(t, 7, myhome[0].MyHomeAPI.GroupID)

	rec, ok := dir.ByUUID("5C1D2E3F-4A5B-4C6D-8E7F-9A0B1C2D3E4F")
	require.True(t, ok)
	assert.Equal(t, "k2", rec.Key)

	_, ok = dir.ByUUID("not-a-uuid")
	assert.False(t, ok)
}

func TestAgencyKeyDirectory_NilIsEmpty(t *testing.T) {
	var dir *AgencyKeyDirectory
	assert.Equal(t, 0, dir.Len())
	assert.Empty(t, dir.Names())
	assert.Empty(t, dir.WithDaftKeys())
	_, ok := dir.Find("anyone")
	assert.False(t, ok)
	_, ok = dir.ByUUID("5c1d2e3f-4a5b-4c6d-8e7f-9a0b1c2d3e4f")
	assert.False(t, ok)
}

func TestAgencyLookup_DatabaseKeys(t *testing.T) {
	stores := newTestStoreSet(readerMap{"daft": daftStore()}, "daft")
	svc := NewAgencyLookupService(stores, loadTestKeys(t), zap.NewNop())

	res, err := svc.Lookup(context.Background(), "sherry")
	require.NoError(t, err)

	require.Len(t, res.Stores, 1)
	m := res.Stores[0]
	assert.Equal(t, "daft", m.Schema)
	require.NotNil(t, m.Agency)
	assert.Equal(t, "a1", m.Agency.ID)
	assert.Equal(t, "Sherry FitzGerald", m.Agency.Name)
	require.Len(t, m.Properties, 1)
	assert.Equal(t, "d1", m.Properties[0].ID)

	assert.Equal(t, AgencyAPIKeys{
		Source:        KeySourceDatabase,
		DaftAPIKey:    "daft-key-1",
		MyHomeAPIKey:  "mh-key-1",
		MyHomeGroupID: 42,
	}, res.APIKeys)
	assert.Equal(t, AgencyLookupSummary{FoundIn: []string{"daft"}, PropertiesCount: 1, HasAPIKeys: true}, res.Summary)
}

func TestAgencyLookup_FileKeysAndMultipleStores(t *testing.T) {
	stores := newTestStoreSet(readerMap{"unified": unifiedStore(), "daft": daftStore()}, "unified", "daft")
	svc := NewAgencyLookupService(stores, loadTestKeys(t), zap.NewNop())

	res, err := svc.Lookup(context.Background(), "Lisney")
	require.NoError(t, err)

	require.Len(t, res.Stores, 2)
	unified := res.Stores[0]
	require.NotNil(t, unified.Agency)
	assert.Equal(t, "ag-1", unified.Agency.ID)
	require.Len(t, unified.Properties, 1, "falls back to name match when the id matches nothing")
	assert.Equal(t, "p1", unified.Properties[0].ID)

	assert.Nil(t, res.Stores[1].Agency)
	assert.Empty(t, res.Stores[1].Properties)

	assert.Equal(t, KeySourceFile, res.APIKeys.Source)
	assert.Equal(t, "daft-lisney-01", res.APIKeys.DaftAPIKey)
	assert.Empty(t, res.APIKeys.MyHomeAPIKey)
	assert.Equal(t, []string{"unified"}, res.Summary.FoundIn)
	assert.True(t, res.Summary.HasAPIKeys)
}

func TestAgencyLookup_NotFound(t *testing.T) {
	stores := newTestStoreSet(readerMap{"daft": daftStore(), "broken": failingReader{}}, "daft", "broken")
	svc := NewAgencyLookupService(stores, nil, zap.NewNop())

	res, err := svc.Lookup(context.Background(), "Nobody Estates")
	require.NoError(t, err)

	assert.Equal(t, AgencyAPIKeys{Source: KeySourceNone}, res.APIKeys)
	assert.Equal(t, AgencyLookupSummary{FoundIn: []string{}}, res.Summary)
	assert.Equal(t, apperrors.ErrNoSchema.Error(), res.Stores[1].Error)
}

func TestAgencyLookup_PanickingStoreIsIsolated(t *testing.T) {
	readers := readerMap{
		"panicky": panickingReader{},
		"midread": panicAfterDetect{RowReader: daftStore()},
		"daft":    daftStore(),
	}
	stores := newTestStoreSet(readers, "panicky", "midread", "daft")
	svc := NewAgencyLookupService(stores, nil, zap.NewNop())

	res, err := svc.Lookup(context.Background(), "sherry")
	require.NoError(t, err)

	require.Len(t, res.Stores, 3)
	for _, m := range res.Stores[:2] {
		assert.Contains(t, m.Error, ErrStorePanicked.Error(), m.Store)
		assert.Nil(t, m.Agency)
		assert.NotNil(t, m.Properties)
	}
	require.NotNil(t, res.Stores[2].Agency)
	assert.Equal(t, "a1", res.Stores[2].Agency.ID)
	assert.Equal(t, KeySourceDatabase, res.APIKeys.Source)
	assert.Equal(t, []string{"daft"}, res.Summary.FoundIn)
}

func TestAgencyLookup_BlankName(t *testing.T) {
	stores := newTestStoreSet(readerMap{}, "daft")
	svc := NewAgencyLookupService(stores, nil, zap.NewNop())

	_, err := svc.Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestAgencyAPIKeys_Masked(t *testing.T) {
	k := AgencyAPIKeys{Source: KeySourceDatabase, DaftAPIKey: "daft-rm-0001", MyHomeAPIKey: "short"}
	masked := k.Masked()
	assert.Equal(t, "********0001", masked.DaftAPIKey)
	assert.Equal(t, "[REDACTED]", masked.MyHomeAPIKey)
	assert.Equal(t, "daft-rm-0001", k.DaftAPIKey, "original untouched")
}
