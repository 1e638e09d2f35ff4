// Package importcmd implements the import command: the TSV payment import
// pipeline run against the local database.
package importcmd

import (
	"fmt"
	"time"

	"avolkov/finaudit/cmd/root"
	"avolkov/finaudit/internal/importer"
	"avolkov/finaudit/internal/logging"
	"avolkov/finaudit/internal/mapping"
	"avolkov/finaudit/internal/patterns"
	"avolkov/finaudit/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	inputFile   string
	mappingFile string
)

// Cmd is the import command.
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import payments from a TSV file",
	Long: `Import reads a tab-separated bank export, extracts contract, invoice and
budget-code references from each payment description, deduplicates the
referenced entities and stores the payments with apportioned detail records.

Rows that fail to parse or persist are skipped; the batch never aborts on a
single bad row. Column mapping comes from a YAML file (see the preview
command for picking columns).`,
	RunE: runImport,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input TSV file (required)")
	Cmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "Field mapping YAML file (required)")
	_ = Cmd.MarkFlagRequired("input")
	_ = Cmd.MarkFlagRequired("mapping")
}

func runImport(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogrusAdapterFromLogger(root.Log)

	fields, err := mapping.Load(mappingFile)
	if err != nil {
		return err
	}

	db, err := storage.Open(root.DatabasePath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	store := storage.NewStore(db)

	set, err := loadPatternSet(store)
	if err != nil {
		return err
	}

	opts := importer.DefaultOptions()
	if tol, err := decimal.NewFromString(root.Cfg.Import.Tolerance); err == nil {
		opts.Tolerance = tol
	}
	opts.YearPivot = root.Cfg.Import.YearPivot
	opts.TypeFallback = root.Cfg.Import.TypeFallback

	extractor := patterns.NewExtractor(set, opts.YearPivot, logger)
	imp := importer.New(store, extractor, fields, opts, logger)
	progress := imp.Progress()

	// The import runs on its own goroutine so the status line stays live,
	// mirroring the worker-thread/UI-thread split of the desktop original.
	done := make(chan error, 1)
	go func() {
		done <- imp.Run(inputFile)
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			fmt.Printf("\r%-60s\n", progress.Message())
			return err
		case <-ticker.C:
			fmt.Printf("\r%-60s", progress.Message())
		}
	}
}

// loadPatternSet assembles the extractor's pattern set from the persisted
// directory, falling back to the seeded defaults for missing names.
func loadPatternSet(store *storage.Store) (patterns.PatternSet, error) {
	set := patterns.DefaultSet()

	for _, name := range []string{
		patterns.NameContract,
		patterns.NameInvoice,
		patterns.NameBudgetCode,
		patterns.NameSubaccountAmount,
	} {
		p, found, err := store.GetPatternByName(name)
		if err != nil {
			return set, err
		}
		if !found {
			continue
		}
		switch name {
		case patterns.NameContract:
			set.Contract = p.Pattern
		case patterns.NameInvoice:
			set.Invoice = p.Pattern
		case patterns.NameBudgetCode:
			set.BudgetCode = p.Pattern
		case patterns.NameSubaccountAmount:
			set.SubaccountAmount = p.Pattern
		}
	}
	return set, nil
}
