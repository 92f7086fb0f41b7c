package main

import (
	"os"

	"github.com/spf13/cobra"

	// Store adapters register themselves with the datasource registry.
	_ "github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/memory"
	_ "github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-listings/pkg/adapters/datasource/sqlite"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ekaya-listings",
	Short: "Search property listings across heterogeneous stores",
	Long: `ekaya-listings detects the table layout of each configured listing store,
normalizes its rows into one property/agency model and merges them into a
single result set.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config.yaml)")
	rootCmd.Version = Version
	rootCmd.SetOut(os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
