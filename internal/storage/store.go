package storage

import (
	"database/sql"
	"fmt"

	"avolkov/finaudit/internal/models"

	"github.com/shopspring/decimal"
)

// Store exposes the persistence operations the rest of the application
// consumes. All identifiers are assigned by the database; 0 stands for "no
// reference" throughout.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- Counterparties ---

// FindCounterpartyByNameAndTaxID looks a counterparty up by the (name,
// tax-id) pair. This regime applies only when a tax-id is known.
func (s *Store) FindCounterpartyByNameAndTaxID(name, taxID string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM counterparties WHERE name = ? AND tax_id = ?
	`, name, taxID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find counterparty by name and tax id: %w", err)
	}
	return id, true, nil
}

// FindCounterpartyByName looks a counterparty up by name where no tax-id is
// stored. Distinct from the (name, tax-id) regime: a row with a tax-id never
// matches here.
func (s *Store) FindCounterpartyByName(name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM counterparties WHERE name = ? AND tax_id IS NULL
	`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find counterparty by name: %w", err)
	}
	return id, true, nil
}

// InsertCounterparty creates a counterparty. An empty taxID is stored as
// NULL so the bare-name matching regime keeps working.
func (s *Store) InsertCounterparty(name, taxID string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO counterparties (name, tax_id) VALUES (?, ?)
	`, name, nullString(taxID))
	if err != nil {
		return 0, fmt.Errorf("insert counterparty: %w", err)
	}
	return res.LastInsertId()
}

// ListCounterparties returns the whole directory ordered by name.
func (s *Store) ListCounterparties() ([]models.Counterparty, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(tax_id, '') FROM counterparties ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list counterparties: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Counterparty
	for rows.Next() {
		var c models.Counterparty
		if err := rows.Scan(&c.ID, &c.Name, &c.TaxID); err != nil {
			return nil, fmt.Errorf("scan counterparty: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Contracts ---

// FindContractByNumberAndDate looks a contract up by its identity pair.
func (s *Store) FindContractByNumberAndDate(number, date string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM contracts WHERE number = ? AND date = ?
	`, number, date).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find contract: %w", err)
	}
	return id, true, nil
}

// InsertContract creates a contract. counterpartyID is metadata, not part of
// the dedup key; 0 stores NULL.
func (s *Store) InsertContract(number, date string, counterpartyID int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO contracts (number, date, counterparty_id) VALUES (?, ?, ?)
	`, number, date, nullID(counterpartyID))
	if err != nil {
		return 0, fmt.Errorf("insert contract: %w", err)
	}
	return res.LastInsertId()
}

// ListContracts returns the whole directory ordered by date then number.
func (s *Store) ListContracts() ([]models.Contract, error) {
	rows, err := s.db.Query(`
		SELECT id, number, date, COALESCE(counterparty_id, 0)
		FROM contracts ORDER BY date, number
	`)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Contract
	for rows.Next() {
		var c models.Contract
		if err := rows.Scan(&c.ID, &c.Number, &c.Date, &c.CounterpartyID); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Invoices ---

// FindInvoiceByNumberAndDate looks an invoice up by its identity pair.
func (s *Store) FindInvoiceByNumberAndDate(number, date string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM invoices WHERE number = ? AND date = ?
	`, number, date).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find invoice: %w", err)
	}
	return id, true, nil
}

// InsertInvoice creates an invoice carrying its contract association, or
// NULL when no contract was resolved.
func (s *Store) InsertInvoice(number, date string, contractID int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO invoices (number, date, contract_id) VALUES (?, ?, ?)
	`, number, date, nullID(contractID))
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	return res.LastInsertId()
}

// ListInvoices returns the whole directory ordered by date then number.
func (s *Store) ListInvoices() ([]models.Invoice, error) {
	rows, err := s.db.Query(`
		SELECT id, number, date, COALESCE(contract_id, 0)
		FROM invoices ORDER BY date, number
	`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Invoice
	for rows.Next() {
		var i models.Invoice
		if err := rows.Scan(&i.ID, &i.Number, &i.Date, &i.ContractID); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// --- Budget codes ---

// FindBudgetCodeByCode looks a budget code up by the code alone.
func (s *Store) FindBudgetCodeByCode(code string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`
		SELECT id FROM budget_codes WHERE code = ?
	`, code).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find budget code: %w", err)
	}
	return id, true, nil
}

// InsertBudgetCode creates a budget code entry.
func (s *Store) InsertBudgetCode(code, label string) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO budget_codes (code, label) VALUES (?, ?)
	`, code, label)
	if err != nil {
		return 0, fmt.Errorf("insert budget code: %w", err)
	}
	return res.LastInsertId()
}

// ListBudgetCodes returns the directory ordered by code.
func (s *Store) ListBudgetCodes() ([]models.BudgetCode, error) {
	rows, err := s.db.Query(`SELECT id, code, label FROM budget_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list budget codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.BudgetCode
	for rows.Next() {
		var b models.BudgetCode
		if err := rows.Scan(&b.ID, &b.Code, &b.Label); err != nil {
			return nil, fmt.Errorf("scan budget code: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// --- Payments ---

// InsertPayment creates a payment row. Failures are reported as errors and
// never panic; the import driver skips the row's details on failure.
func (s *Store) InsertPayment(p *models.Payment) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO payments (date, doc_number, type, amount, counterparty_id, recipient, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Date, p.DocNumber, p.Type, p.Amount.String(), nullID(p.CounterpartyID), p.Recipient, p.Description)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return res.LastInsertId()
}

// InsertPaymentDetail creates one apportionment row for a payment.
func (s *Store) InsertPaymentDetail(d *models.PaymentDetail) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO payment_details (payment_id, budget_code_id, contract_id, invoice_id, amount)
		VALUES (?, ?, ?, ?, ?)
	`, d.PaymentID, nullID(d.BudgetCodeID), nullID(d.ContractID), nullID(d.InvoiceID), d.Amount.String())
	if err != nil {
		return 0, fmt.Errorf("insert payment detail: %w", err)
	}
	return res.LastInsertId()
}

// ListPayments returns all payments ordered by date then id.
func (s *Store) ListPayments() ([]models.Payment, error) {
	rows, err := s.db.Query(`
		SELECT id, date, doc_number, type, amount, COALESCE(counterparty_id, 0), recipient, description
		FROM payments ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Payment
	for rows.Next() {
		var p models.Payment
		var amount string
		if err := rows.Scan(&p.ID, &p.Date, &p.DocNumber, &p.Type, &amount,
			&p.CounterpartyID, &p.Recipient, &p.Description); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount '%s': %w", amount, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPaymentDetails returns the detail rows of one payment.
func (s *Store) ListPaymentDetails(paymentID int64) ([]models.PaymentDetail, error) {
	rows, err := s.db.Query(`
		SELECT id, payment_id, COALESCE(budget_code_id, 0), COALESCE(contract_id, 0),
		       COALESCE(invoice_id, 0), amount
		FROM payment_details WHERE payment_id = ? ORDER BY id
	`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.PaymentDetail
	for rows.Next() {
		var d models.PaymentDetail
		var amount string
		if err := rows.Scan(&d.ID, &d.PaymentID, &d.BudgetCodeID, &d.ContractID,
			&d.InvoiceID, &amount); err != nil {
			return nil, fmt.Errorf("scan payment detail: %w", err)
		}
		d.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount '%s': %w", amount, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Patterns ---

// ListPatterns returns the pattern directory ordered by name.
func (s *Store) ListPatterns() ([]models.Pattern, error) {
	rows, err := s.db.Query(`SELECT id, name, pattern FROM patterns ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Pattern
	for rows.Next() {
		var p models.Pattern
		if err := rows.Scan(&p.ID, &p.Name, &p.Pattern); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetPatternByName returns a single pattern by its name.
func (s *Store) GetPatternByName(name string) (models.Pattern, bool, error) {
	var p models.Pattern
	err := s.db.QueryRow(`
		SELECT id, name, pattern FROM patterns WHERE name = ?
	`, name).Scan(&p.ID, &p.Name, &p.Pattern)
	if err == sql.ErrNoRows {
		return models.Pattern{}, false, nil
	}
	if err != nil {
		return models.Pattern{}, false, fmt.Errorf("get pattern: %w", err)
	}
	return p, true, nil
}

// SavePattern inserts or replaces a pattern by name.
func (s *Store) SavePattern(name, pattern string) error {
	_, err := s.db.Exec(`
		INSERT INTO patterns (name, pattern) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET pattern = excluded.pattern
	`, name, pattern)
	if err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}
	return nil
}

// DeletePattern removes a pattern by name.
func (s *Store) DeletePattern(name string) error {
	_, err := s.db.Exec(`DELETE FROM patterns WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete pattern: %w", err)
	}
	return nil
}

// nullID converts the in-memory "no reference" zero to a SQL NULL.
func nullID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
