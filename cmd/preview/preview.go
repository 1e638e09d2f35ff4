// Package preview implements the preview command: a quick look at the first
// rows of a TSV file for building a column mapping.
package preview

import (
	"fmt"
	"strings"

	"avolkov/finaudit/cmd/root"
	"avolkov/finaudit/internal/tsv"

	"github.com/spf13/cobra"
)

var (
	inputFile string
	rows      int
)

// Cmd is the preview command.
var Cmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the first rows of a TSV file",
	Long: `Preview prints the header and the first data rows of a tab-separated
file with column indexes, so the indexes can be copied into a field mapping
YAML file for the import command.`,
	RunE: runPreview,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input TSV file (required)")
	Cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Number of data rows to show (default from config)")
	_ = Cmd.MarkFlagRequired("input")
}

func runPreview(cmd *cobra.Command, args []string) error {
	maxRows := rows
	if maxRows <= 0 {
		maxRows = root.Cfg.Import.PreviewRows
	}

	header, data, err := tsv.Preview(inputFile, maxRows)
	if err != nil {
		return err
	}

	for i, name := range header {
		fmt.Printf("[%d] %s\n", i, name)
	}
	fmt.Println(strings.Repeat("-", 40))
	for _, row := range data {
		for i, cell := range row {
			if cell == "" {
				continue
			}
			fmt.Printf("[%d] %s\n", i, cell)
		}
		fmt.Println(strings.Repeat("-", 40))
	}
	return nil
}
