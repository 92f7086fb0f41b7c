package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

var (
	searchJSON         bool
	searchMinPrice     float64
	searchMaxPrice     float64
	searchMinBedrooms  float64
	searchMaxBedrooms  float64
	searchPropertyType string
	searchLocation     string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search listings across all stores",
	Long: `Searches every configured store and prints the merged result.
Use "*" or no query to match everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().Float64Var(&searchMinPrice, "min-price", 0, "minimum price")
	searchCmd.Flags().Float64Var(&searchMaxPrice, "max-price", 0, "maximum price")
	searchCmd.Flags().Float64Var(&searchMinBedrooms, "min-bedrooms", 0, "minimum bedrooms")
	searchCmd.Flags().Float64Var(&searchMaxBedrooms, "max-bedrooms", 0, "maximum bedrooms")
	searchCmd.Flags().StringVar(&searchPropertyType, "type", "", "property type (exact match)")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "address substring")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	q := ""
	if len(args) == 1 {
		q = args[0]
	}

	results := a.search.Search(cmd.Context(), q, searchFiltersFromFlags(cmd))

	if searchJSON {
		return printJSON(cmd, results)
	}
	printSearchTable(cmd, results)
	return nil
}

// searchFiltersFromFlags sets a numeric filter only when its flag was given,
// so an explicit 0 still filters.
func searchFiltersFromFlags(cmd *cobra.Command) *models.SearchFilters {
	f := &models.SearchFilters{
		PropertyType: strings.TrimSpace(searchPropertyType),
		Location:     strings.TrimSpace(searchLocation),
	}
	flags := cmd.Flags()
	if flags.Changed("min-price") {
		f.MinPrice = &searchMinPrice
	}
	if flags.Changed("max-price") {
		f.MaxPrice = &searchMaxPrice
	}
	if flags.Changed("min-bedrooms") {
		f.MinBedrooms = &searchMinBedrooms
	}
	if flags.Changed("max-bedrooms") {
		f.MaxBedrooms = &searchMaxBedrooms
	}
	return f
}

func printSearchTable(cmd *cobra.Command, results *models.SearchResults) {
	if len(results.Properties) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println(services.Summary(results))
	cmd.Println()
	for i, p := range results.Properties {
		cmd.Printf("  [%d] %s - %s\n", i+1, p.Title, p.Address)
		cmd.Printf("      %s, %s, %.0f bed, %.0f bath, %s\n",
			formatPrice(p.Price), p.PropertyType, p.Bedrooms, p.Bathrooms, p.Agency.Name)
		if len(p.Sources) > 1 {
			for _, d := range services.CalculatePropertyDeltas(p.Sources) {
				if d.HasDifference {
					cmd.Printf("      differs across sources: %s\n", d.Field)
				}
			}
		}
	}
}

func formatPrice(p float64) string {
	if p == 0 {
		return "price on request"
	}
	return fmt.Sprintf("€%.0f", p)
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
