package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	agencyJSON     bool
	agencyShowKeys bool
)

var agencyCmd = &cobra.Command{
	Use:   "agency <name>",
	Short: "Look up an agency, its listings and feed keys",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAgency,
}

func init() {
	agencyCmd.Flags().BoolVar(&agencyJSON, "json", false, "output as JSON")
	agencyCmd.Flags().BoolVar(&agencyShowKeys, "show-keys", false, "print feed keys unmasked")
	rootCmd.AddCommand(agencyCmd)
}

func runAgency(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.agencies.Lookup(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	if !agencyShowKeys {
		result.APIKeys = result.APIKeys.Masked()
	}

	if agencyJSON {
		return printJSON(cmd, result)
	}

	cmd.Printf("Agency %q\n", result.Name)
	for _, m := range result.Stores {
		switch {
		case m.Error != "":
			cmd.Printf("  %s: %s\n", m.Store, m.Error)
		case m.Agency != nil:
			cmd.Printf("  %s: %s (id %s), %d properties\n", m.Store, m.Agency.Name, m.Agency.ID, len(m.Properties))
		default:
			cmd.Printf("  %s: not found, %d properties by name\n", m.Store, len(m.Properties))
		}
	}
	k := result.APIKeys
	cmd.Printf("Keys (%s): daft=%s myhome=%s group=%d\n", k.Source, orDash(k.DaftAPIKey), orDash(k.MyHomeAPIKey), k.MyHomeGroupID)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
