// Package patternscmd implements the patterns command group: listing,
// editing and testing the extraction pattern directory.
package patternscmd

import (
	"database/sql"
	"fmt"

	"avolkov/finaudit/cmd/root"
	"avolkov/finaudit/internal/patterns"
	"avolkov/finaudit/internal/storage"

	"github.com/spf13/cobra"
)

// Cmd is the patterns command.
var Cmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the extraction pattern directory",
	Long: `Patterns lists and edits the named regular expressions the importer uses
to extract contract, invoice and budget-code references from payment
descriptions. The directory is seeded with working defaults on first use;
set overwrites a pattern, delete removes it (the importer then falls back
to the built-in default), and test runs a pattern against a sample text.`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			all, err := store.ListPatterns()
			if err != nil {
				return err
			}
			for _, p := range all {
				fmt.Printf("%-20s %s\n", p.Name, p.Pattern)
			}
			return nil
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <name> <pattern>",
	Short: "Create or overwrite a pattern",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, pattern := args[0], args[1]
		if _, err := patterns.Compile(pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return withStore(func(store *storage.Store) error {
			return store.SavePattern(name, pattern)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a pattern",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *storage.Store) error {
			return store.DeletePattern(args[0])
		})
	},
}

var testCmd = &cobra.Command{
	Use:   "test <pattern> <text>",
	Short: "Run a pattern against a sample text",
	Long: `Test applies a regular expression to a sample text and prints the first
captured group, "No match", or the compilation error. The pattern argument
may also be the name of a stored pattern.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern, text := args[0], args[1]
		return withStore(func(store *storage.Store) error {
			if p, found, err := store.GetPatternByName(pattern); err != nil {
				return err
			} else if found {
				pattern = p.Pattern
			}
			fmt.Println(patterns.Test(text, pattern))
			return nil
		})
	},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(testCmd)
}

func withStore(fn func(*storage.Store) error) error {
	db, err := storage.Open(root.DatabasePath())
	if err != nil {
		return err
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)
	return fn(storage.NewStore(db))
}
