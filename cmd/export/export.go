// Package export implements the export command: dumping stored records to
// CSV for spreadsheets and downstream tooling.
package export

import (
	"fmt"

	"avolkov/finaudit/cmd/root"
	"avolkov/finaudit/internal/export"
	"avolkov/finaudit/internal/storage"

	"github.com/spf13/cobra"
)

var outputFile string

// Cmd is the export command.
var Cmd = &cobra.Command{
	Use:   "export <payments|details|counterparties|patterns>",
	Short: "Export stored records to a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file (required)")
	_ = Cmd.MarkFlagRequired("output")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(root.DatabasePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	store := storage.NewStore(db)

	var count int
	switch args[0] {
	case "payments":
		count, err = export.Payments(store, outputFile)
	case "details":
		count, err = export.Details(store, outputFile)
	case "counterparties":
		count, err = export.Counterparties(store, outputFile)
	case "patterns":
		count, err = export.Patterns(store, outputFile)
	default:
		return fmt.Errorf("unknown export target: %s", args[0])
	}
	if err != nil {
		return err
	}

	root.Log.WithField("file", outputFile).WithField("count", count).Info("Export complete")
	return nil
}
