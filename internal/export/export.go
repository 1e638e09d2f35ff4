// Package export writes stored records to CSV files for use in spreadsheets
// and downstream reporting tools.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"avolkov/finaudit/internal/storage"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Delimiter is the CSV output delimiter. It can be overridden before writing
// for consumers that expect semicolons.
var Delimiter rune = ','

func init() {
	if val := os.Getenv("CSV_DELIMITER"); val != "" {
		SetDelimiter([]rune(val)[0])
	}
}

// SetDelimiter sets the delimiter for CSV output.
func SetDelimiter(delim rune) {
	Delimiter = delim
}

// WriteCSV writes a slice of records to csvFile, creating parent directories
// as needed. The record type's csv tags define the columns.
func WriteCSV[T any](records []T, csvFile string) error {
	if records == nil {
		return fmt.Errorf("cannot write nil records to CSV")
	}

	dir := filepath.Dir(csvFile)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	csvWriter := csv.NewWriter(file)
	csvWriter.Comma = Delimiter

	if err := gocsv.MarshalCSV(records, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// DetailRow is one apportionment line joined with its payment header and the
// budget-code text, flattened for spreadsheet use.
type DetailRow struct {
	PaymentID  int64           `csv:"PaymentID"`
	Date       string          `csv:"Date"`
	DocNumber  string          `csv:"DocNumber"`
	Type       string          `csv:"Type"`
	BudgetCode string          `csv:"BudgetCode"`
	Amount     decimal.Decimal `csv:"Amount"`
}

// Payments exports all stored payments.
func Payments(store *storage.Store, csvFile string) (int, error) {
	payments, err := store.ListPayments()
	if err != nil {
		return 0, err
	}
	return len(payments), WriteCSV(payments, csvFile)
}

// Counterparties exports the counterparty directory.
func Counterparties(store *storage.Store, csvFile string) (int, error) {
	counterparties, err := store.ListCounterparties()
	if err != nil {
		return 0, err
	}
	return len(counterparties), WriteCSV(counterparties, csvFile)
}

// Details exports every payment's apportionment lines joined with the
// payment header and budget-code text.
func Details(store *storage.Store, csvFile string) (int, error) {
	payments, err := store.ListPayments()
	if err != nil {
		return 0, err
	}
	codes, err := store.ListBudgetCodes()
	if err != nil {
		return 0, err
	}
	codeByID := make(map[int64]string, len(codes))
	for _, c := range codes {
		codeByID[c.ID] = c.Code
	}

	rows := []DetailRow{}
	for _, p := range payments {
		details, err := store.ListPaymentDetails(p.ID)
		if err != nil {
			return 0, err
		}
		for _, d := range details {
			rows = append(rows, DetailRow{
				PaymentID:  p.ID,
				Date:       p.Date,
				DocNumber:  p.DocNumber,
				Type:       p.Type,
				BudgetCode: codeByID[d.BudgetCodeID],
				Amount:     d.Amount,
			})
		}
	}
	return len(rows), WriteCSV(rows, csvFile)
}

// Patterns exports the extraction pattern directory.
func Patterns(store *storage.Store, csvFile string) (int, error) {
	patterns, err := store.ListPatterns()
	if err != nil {
		return 0, err
	}
	return len(patterns), WriteCSV(patterns, csvFile)
}
