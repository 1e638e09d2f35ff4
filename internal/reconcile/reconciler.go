// Package reconcile resolves extracted references to persisted entities with
// find-or-create semantics. Each entity type has its own matching key; the
// importer never updates or deletes what it finds, it only inserts on miss.
package reconcile

import (
	"avolkov/finaudit/internal/logging"
	"avolkov/finaudit/internal/patterns"
)

// BudgetCodeLabelPrefix builds the placeholder label for budget codes
// created during import, pending manual correction in the directory.
const BudgetCodeLabelPrefix = "КОСГУ "

// Store is the narrow persistence surface the reconciler needs.
type Store interface {
	FindCounterpartyByNameAndTaxID(name, taxID string) (int64, bool, error)
	FindCounterpartyByName(name string) (int64, bool, error)
	InsertCounterparty(name, taxID string) (int64, error)

	FindContractByNumberAndDate(number, date string) (int64, bool, error)
	InsertContract(number, date string, counterpartyID int64) (int64, error)

	FindInvoiceByNumberAndDate(number, date string) (int64, bool, error)
	InsertInvoice(number, date string, contractID int64) (int64, error)

	FindBudgetCodeByCode(code string) (int64, bool, error)
	InsertBudgetCode(code, label string) (int64, error)
}

// Reconciler performs the per-row lookups and inserts. It is not safe for
// concurrent use; the import pipeline runs single-threaded per file.
type Reconciler struct {
	store  Store
	logger logging.Logger
}

// New creates a Reconciler. A nil logger gets a default one.
func New(store Store, logger logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Reconciler{store: store, logger: logger}
}

// Counterparty resolves a counterparty by name, creating it on miss with the
// tax-id left unset. An empty name resolves to no counterparty (0) without
// error. With a known tax-id the (name, tax-id) regime applies; the TSV
// pipeline carries none, so lookups degenerate to the bare-name regime.
func (r *Reconciler) Counterparty(name, taxID string) (int64, error) {
	if name == "" {
		return 0, nil
	}

	var (
		id    int64
		found bool
		err   error
	)
	if taxID != "" {
		id, found, err = r.store.FindCounterpartyByNameAndTaxID(name, taxID)
	} else {
		id, found, err = r.store.FindCounterpartyByName(name)
	}
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.InsertCounterparty(name, taxID)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("name", name).Debug("Created counterparty")
	return id, nil
}

// Contract resolves a contract by its (number, date) identity, creating it
// on miss. The counterparty id rides along as metadata on insert only.
func (r *Reconciler) Contract(ref patterns.Reference, counterpartyID int64) (int64, error) {
	id, found, err := r.store.FindContractByNumberAndDate(ref.Number, ref.Date)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.InsertContract(ref.Number, ref.Date, counterpartyID)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("number", ref.Number).WithField("date", ref.Date).Debug("Created contract")
	return id, nil
}

// Invoice resolves an invoice by its (number, date) identity, creating it on
// miss with the row's contract association (0 = none).
func (r *Reconciler) Invoice(ref patterns.Reference, contractID int64) (int64, error) {
	id, found, err := r.store.FindInvoiceByNumberAndDate(ref.Number, ref.Date)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.InsertInvoice(ref.Number, ref.Date, contractID)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("number", ref.Number).WithField("date", ref.Date).Debug("Created invoice")
	return id, nil
}

// BudgetCode resolves a budget code by the code alone, creating it on miss
// with a placeholder label.
func (r *Reconciler) BudgetCode(code string) (int64, error) {
	if code == "" {
		return 0, nil
	}

	id, found, err := r.store.FindBudgetCodeByCode(code)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	id, err = r.store.InsertBudgetCode(code, BudgetCodeLabelPrefix+code)
	if err != nil {
		return 0, err
	}
	r.logger.WithField("code", code).Debug("Created budget code")
	return id, nil
}
