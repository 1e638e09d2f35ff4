// Package models provides the data structures used throughout the application.
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Payment type values. The importer only ever produces these two.
const (
	PaymentTypeIncome  = "income"
	PaymentTypeExpense = "expense"
)

// Payment represents a single bank payment imported from a TSV file or
// entered manually.
type Payment struct {
	ID             int64           `csv:"ID"`
	Date           string          `csv:"Date"` // YYYY-MM-DD
	DocNumber      string          `csv:"DocNumber"`
	Type           string          `csv:"Type"` // "income" or "expense"
	Amount         decimal.Decimal `csv:"Amount"`
	CounterpartyID int64           `csv:"CounterpartyID"` // 0 = none
	Recipient      string          `csv:"Recipient"`
	Description    string          `csv:"Description"`
}

// Counterparty is the external party on a payment. TaxID is the INN and may
// be empty; matching by (name, tax-id) and matching by bare name are two
// distinct regimes (see storage.FindCounterpartyByName).
type Counterparty struct {
	ID    int64  `csv:"ID"`
	Name  string `csv:"Name"`
	TaxID string `csv:"TaxID"`
}

// Contract is identified by (Number, Date) for deduplication. The
// counterparty is stored as metadata only, never as part of the key.
type Contract struct {
	ID             int64
	Number         string
	Date           string // YYYY-MM-DD
	CounterpartyID int64  // 0 = none
}

// Invoice is identified by (Number, Date) for deduplication.
type Invoice struct {
	ID         int64
	Number     string
	Date       string // YYYY-MM-DD
	ContractID int64  // 0 = none
}

// BudgetCode is a COSGU classification entry. Code alone is the identity;
// Label is display text and may be a placeholder pending manual correction.
type BudgetCode struct {
	ID    int64
	Code  string
	Label string
}

// PaymentDetail apportions part of a payment's amount to a budget code.
// All references besides PaymentID are optional associations.
type PaymentDetail struct {
	ID           int64
	PaymentID    int64
	BudgetCodeID int64 // 0 = none
	ContractID   int64 // 0 = none
	InvoiceID    int64 // 0 = none
	Amount       decimal.Decimal
}

// Pattern is a persisted, user-editable extraction rule. Power users tune
// these through the patterns command without a rebuild.
type Pattern struct {
	ID      int64  `csv:"ID"`
	Name    string `csv:"Name"`
	Pattern string `csv:"Pattern"`
}

// ParseAmount converts a source amount string to a decimal. Source data uses
// a comma as the decimal separator; spaces (including non-breaking ones used
// as thousands separators) are stripped. An unparsable string yields zero.
func ParseAmount(amountStr string) decimal.Decimal {
	amount := strings.TrimSpace(amountStr)
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, " ", "")
	amount = strings.ReplaceAll(amount, ",", ".")

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero
	}
	return dec
}

// IsIncome returns true for income payments.
func (p *Payment) IsIncome() bool {
	return p.Type == PaymentTypeIncome
}

// IsExpense returns true for expense payments.
func (p *Payment) IsExpense() bool {
	return p.Type == PaymentTypeExpense
}
