package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/services"
	"github.com/ekaya-inc/ekaya-listings/pkg/testhelpers"
)

// writeTestConfig writes a config with one memory store seeded from the
// daft fixture and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	fixture, err := json.Marshal(testhelpers.DaftRows())
	require.NoError(t, err)
	fixturePath := filepath.Join(dir, "daft.json")
	require.NoError(t, os.WriteFile(fixturePath, fixture, 0o600))

	cfg := "env: test\nstores:\n  - name: daft\n    type: memory\n    config:\n      fixture_file: " + fixturePath + "\n"
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))
	return cfgPath
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	searchJSON, diagnoseJSON, diagnoseRefresh, agencyJSON, agencyShowKeys = false, false, false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(os.Stdout)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestSearchCommand_JSON(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := execute(t, "search", "cork", "--json", "-c", cfgPath)

	var results models.SearchResults
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Equal(t, "cork", results.Query)
	require.Len(t, results.Properties, 1)
	assert.Equal(t, "d2", results.Properties[0].ID)
	assert.Equal(t, 1, results.Sources.Daft)
}

func TestSearchCommand_Text(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := execute(t, "search", "-c", cfgPath)

	assert.Contains(t, out, "2 properties")
	assert.Contains(t, out, "12 Oak Road, Dublin 6")
	assert.Contains(t, out, "€450000")
}

func TestSearchCommand_NoResults(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := execute(t, "search", "galway", "-c", cfgPath)

	assert.Contains(t, out, "No results found.")
}

func TestSearchFiltersFromFlags(t *testing.T) {
	t.Cleanup(func() {
		searchMinPrice, searchMaxBedrooms, searchLocation = 0, 0, ""
	})

	c := &cobra.Command{}
	c.Flags().Float64Var(&searchMinPrice, "min-price", 0, "")
	c.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "")
	c.Flags().Float64Var(&searchMinBedrooms, "min-bedrooms", 0, "")
	c.Flags().Float64Var(&searchMaxBedrooms, "max-bedrooms", 0, "")
	c.Flags().StringVar(&searchLocation, "location", "", "")
	require.NoError(t, c.ParseFlags([]string{"--min-price=0", "--max-bedrooms=3", "--location", "  Cork "}))

	f := searchFiltersFromFlags(c)

	require.NotNil(t, f.MinPrice)
	assert.Equal(t, 0.0, *f.MinPrice)
	assert.Nil(t, f.MaxPrice)
	assert.Nil(t, f.MinBedrooms)
	require.NotNil(t, f.MaxBedrooms)
	assert.Equal(t, 3.0, *f.MaxBedrooms)
	assert.Equal(t, "Cork", f.Location)
}

func TestDiagnoseCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := execute(t, "diagnose", "--json", "-c", cfgPath)

	var report []services.StoreDiagnostics
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report, 1)
	assert.Equal(t, "daft", report[0].Store)
	assert.Equal(t, "daft", report[0].Schema)
	assert.Equal(t, 2, report[0].PropertiesCount)
	assert.Empty(t, report[0].Error)
}

func TestAgencyCommand_MasksKeys(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out := execute(t, "agency", "Sherry", "FitzGerald", "-c", cfgPath)

	assert.Contains(t, out, `Agency "Sherry FitzGerald"`)
	assert.Contains(t, out, "Keys (database)")
	assert.NotContains(t, out, "daft-key-1")
	assert.Contains(t, out, "******ey-1")
}

func TestServeRoutes(t *testing.T) {
	a, err := newApp(writeTestConfig(t))
	require.NoError(t, err)
	defer a.Close()

	h := a.routes()
	require.NotNil(t, h)
	assert.Equal(t, []string{"daft"}, a.stores.Names())
}

func TestNewApp_UnknownStoreType(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("stores:\n  - name: x\n    type: oracle\n"), 0o600))

	_, err := newApp(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "oracle"`)
}
