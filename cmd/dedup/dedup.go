// Package dedup implements the dedup command: reporting counterparties whose
// names look like spelling variants of each other.
package dedup

import (
	"fmt"

	"avolkov/finaudit/cmd/root"
	"avolkov/finaudit/internal/dedup"
	"avolkov/finaudit/internal/storage"

	"github.com/spf13/cobra"
)

var threshold float64

// Cmd is the dedup command.
var Cmd = &cobra.Command{
	Use:   "dedup",
	Short: "Report likely duplicate counterparties",
	Long: `Dedup compares the names of all stored counterparties with a fuzzy
distance and prints pairs that look like spelling variants of the same
organization. Nothing is merged automatically; the report is input for
manual cleanup.`,
	RunE: runDedup,
}

func init() {
	Cmd.Flags().Float64VarP(&threshold, "threshold", "t", dedup.DefaultThreshold,
		"Maximum normalized name distance to report (0..1)")
}

func runDedup(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(root.DatabasePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	counterparties, err := storage.NewStore(db).ListCounterparties()
	if err != nil {
		return err
	}

	candidates := dedup.FindCandidates(counterparties, threshold)
	if len(candidates) == 0 {
		fmt.Println("No duplicate candidates found.")
		return nil
	}
	for _, c := range candidates {
		fmt.Printf("%.2f  [%d] %s  <->  [%d] %s\n", c.Distance, c.A.ID, c.A.Name, c.B.ID, c.B.Name)
	}
	return nil
}
