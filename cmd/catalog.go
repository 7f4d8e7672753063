package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/grant-matcher/internal/foundation"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the foundation catalog or validate a custom one",
	Run: func(cmd *cobra.Command, _ []string) {
		logger := newLogger()
		config := loadConfig(logger)

		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = config.CatalogFile
		}

		catalog, err := loadCatalog(path)
		if err != nil {
			logger.Fatal("loading foundation catalog", zap.Error(err))
		}

		if path != "" {
			logger.Info("catalog is valid", zap.String("path", path), zap.Int("foundations", catalog.Len()))
		}

		printCatalog(os.Stdout, catalog)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)

	catalogCmd.Flags().StringP("file", "f", "", "catalog file to validate and list instead of the built-in one")
}

func printCatalog(w io.Writer, catalog *foundation.Catalog) {
	for _, f := range catalog.All() {
		fmt.Fprintf(w, "%s  %s\n", f.ID, f.Name)
		fmt.Fprintf(w, "    groups: %s; categories: %s; geography: %s\n",
			strings.Join(f.TargetGroups, ", "),
			strings.Join(f.Categories, ", "),
			strings.Join(f.Geographies, ", "),
		)
		fmt.Fprintf(w, "    amount: %d-%d; age: %d-%d\n", f.TypicalAmountMin, f.TypicalAmountMax, f.AgeMin, f.AgeMax)
	}

	fmt.Fprintf(w, "\n%d foundations\n", catalog.Len())
	for _, c := range catalog.CategoryCounts() {
		fmt.Fprintf(w, "  %-16s %d\n", c.Category, c.Count)
	}
}
