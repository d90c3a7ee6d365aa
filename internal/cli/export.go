package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/law-makers/labscrape/internal/dataset"
	"github.com/law-makers/labscrape/internal/ui"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the clean dataset to a CSV or JSON file",
	Example: `  labscrape export --output clean.csv
  labscrape export -o clean.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file, .csv or .json (required)")
	exportCmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := requireApp(cmd)
	if err != nil {
		return err
	}
	n, err := dataset.Export(cmd.Context(), a.Store, exportOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d records to %s\n", ui.Success("exported"), n, exportOutput)
	return nil
}
