package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	diagnoseRefresh bool
	diagnoseJSON    bool
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Show detected layout and sample data for each store",
	Args:  cobra.NoArgs,
	RunE:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseRefresh, "refresh", false, "re-run schema detection")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.diagnostics.Diagnose(cmd.Context(), diagnoseRefresh)
	if diagnoseJSON {
		return printJSON(cmd, report)
	}

	for _, d := range report {
		cmd.Printf("%s:\n", d.Store)
		if d.Schema != "" {
			cmd.Printf("  schema:     %s (%s, %s)\n", d.Schema, d.PropertiesTable, d.AgenciesTable)
			cmd.Printf("  properties: %d sampled\n", d.PropertiesCount)
			cmd.Printf("  agencies:   %s\n", strings.Join(d.Agencies, ", "))
		}
		if d.Error != "" {
			cmd.Printf("  error:      %s\n", d.Error)
		}
	}
	return nil
}
