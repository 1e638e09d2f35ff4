// Package importer drives the TSV payment import: row iteration, reference
// extraction, entity reconciliation and amount apportionment. Per-row
// failures are absorbed so one bad line never aborts a batch; the only
// caller-visible failure is an unreadable input file.
package importer

import (
	"fmt"
	"strings"

	"avolkov/finaudit/internal/dateutils"
	"avolkov/finaudit/internal/logging"
	"avolkov/finaudit/internal/mapping"
	"avolkov/finaudit/internal/models"
	"avolkov/finaudit/internal/parsererror"
	"avolkov/finaudit/internal/patterns"
	"avolkov/finaudit/internal/reconcile"
	"avolkov/finaudit/internal/tsv"

	"github.com/shopspring/decimal"
)

// Store is the persistence surface the import pipeline needs: the
// reconciler's lookups plus payment/detail inserts.
type Store interface {
	reconcile.Store
	InsertPayment(p *models.Payment) (int64, error)
	InsertPaymentDetail(d *models.PaymentDetail) (int64, error)
}

// Type fallback policies for rows without an explicit payment type.
const (
	TypeFallbackByRecipient = "by-recipient"
	TypeFallbackIncome      = "income"
	TypeFallbackExpense     = "expense"
)

// Options tunes the behavioral constants of the pipeline. The defaults
// reproduce the original application's behavior.
type Options struct {
	// Tolerance absorbs rounding in the apportionment sum check.
	Tolerance decimal.Decimal
	// YearPivot decides the century of two-digit years.
	YearPivot int
	// TypeFallback applies when the source row carries no usable type.
	// "by-recipient" is a heuristic (recipient present means expense),
	// not a business rule.
	TypeFallback string
}

// DefaultOptions returns the historical constants: tolerance 0.01, pivot 50,
// recipient-based type heuristic.
func DefaultOptions() Options {
	return Options{
		Tolerance:    decimal.RequireFromString("0.01"),
		YearPivot:    50,
		TypeFallback: TypeFallbackByRecipient,
	}
}

// Importer imports one TSV file per Run call. One import runs at a time;
// starting a second while one is in flight is not supported.
type Importer struct {
	store      Store
	reconciler *reconcile.Reconciler
	extractor  *patterns.Extractor
	fields     mapping.FieldMapping
	opts       Options
	progress   Progress
	logger     logging.Logger
}

// New creates an Importer. A nil logger gets a default one.
func New(store Store, extractor *patterns.Extractor, fields mapping.FieldMapping, opts Options, logger logging.Logger) *Importer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if opts.Tolerance.IsZero() {
		opts.Tolerance = DefaultOptions().Tolerance
	}
	if opts.TypeFallback == "" {
		opts.TypeFallback = TypeFallbackByRecipient
	}
	return &Importer{
		store:      store,
		reconciler: reconcile.New(store, logger),
		extractor:  extractor,
		fields:     fields,
		opts:       opts,
		logger:     logger,
	}
}

// Progress returns the poll-able progress state shared with the caller.
func (imp *Importer) Progress() *Progress {
	return &imp.progress
}

// Run imports every data row of the file at path. It returns an error only
// for file-level failure; row-level problems are absorbed and logged.
func (imp *Importer) Run(path string) error {
	imp.progress.setRunning(true)
	defer imp.progress.setRunning(false)

	f, err := tsv.Open(path)
	if err != nil {
		imp.progress.setMessage(fmt.Sprintf("Ошибка: не удалось открыть файл: %s", path))
		return err
	}
	defer func() { _ = f.Close() }()

	total := f.TotalRows()
	imp.logger.WithField("file", path).WithField("rows", total).Info("Starting import")

	imported := 0
	lineNum := 0
	for {
		line, ok := f.Next()
		if !ok {
			break
		}
		lineNum++
		if total > 0 {
			imp.progress.setFraction(float64(lineNum) / float64(total))
		}
		imp.progress.setMessage(fmt.Sprintf("Импорт строки %d из %d", lineNum, total))

		if line == "" {
			continue
		}
		if imp.processRow(tsv.Split(line)) {
			imported++
		}
	}

	imp.progress.setFraction(1.0)
	imp.progress.setMessage("Импорт завершен.")
	imp.logger.WithField("imported", imported).WithField("rows", lineNum).Info("Import finished")
	return nil
}

// processRow runs the per-row pipeline. It reports whether a payment was
// persisted and never fails the batch.
func (imp *Importer) processRow(row []string) bool {
	payment := models.Payment{
		Date:        imp.normalizeDate(imp.fields.Resolve(row, mapping.FieldDate)),
		DocNumber:   imp.fields.Resolve(row, mapping.FieldDocNumber),
		Recipient:   imp.fields.Resolve(row, mapping.FieldCounterparty),
		Description: imp.fields.Resolve(row, mapping.FieldDescription),
		Amount:      models.ParseAmount(imp.fields.Resolve(row, mapping.FieldAmount)),
	}
	payerName := imp.fields.Resolve(row, mapping.FieldPayer)
	payment.Type = imp.resolveType(imp.fields.Resolve(row, mapping.FieldType), payment.Recipient)

	// A row with no date and a zero amount is blank, not an error.
	if payment.Date == "" && payment.Amount.IsZero() {
		return false
	}

	counterpartyName := payment.Recipient
	if payment.IsIncome() {
		counterpartyName = payerName
	}
	counterpartyID, err := imp.reconciler.Counterparty(counterpartyName, "")
	if err != nil {
		imp.logger.WithError(err).WithField("name", counterpartyName).Warn("Counterparty resolution failed")
		counterpartyID = 0
	}
	payment.CounterpartyID = counterpartyID

	var contractID int64
	if ref, ok := imp.extractor.Contract(payment.Description); ok {
		contractID, err = imp.reconciler.Contract(ref, counterpartyID)
		if err != nil {
			imp.logger.WithError(err).WithField("number", ref.Number).Warn("Contract resolution failed")
			contractID = 0
		}
	}

	var invoiceID int64
	if ref, ok := imp.extractor.Invoice(payment.Description); ok {
		invoiceID, err = imp.reconciler.Invoice(ref, contractID)
		if err != nil {
			imp.logger.WithError(err).WithField("number", ref.Number).Warn("Invoice resolution failed")
			invoiceID = 0
		}
	}

	paymentID, err := imp.store.InsertPayment(&payment)
	if err != nil {
		// Storage rejected the payment: skip its details, keep the batch going.
		imp.logger.WithError(err).WithField("date", payment.Date).Warn("Payment insert failed, skipping row")
		return false
	}

	batch := imp.extractor.Apportion(payment.Description, payment.Amount)
	for _, pair := range imp.acceptBatch(batch, payment.Amount) {
		budgetCodeID, err := imp.reconciler.BudgetCode(pair.Code)
		if err != nil {
			imp.logger.WithError(err).WithField("code", pair.Code).Warn("Budget code resolution failed")
			budgetCodeID = 0
		}
		_, err = imp.store.InsertPaymentDetail(&models.PaymentDetail{
			PaymentID:    paymentID,
			BudgetCodeID: budgetCodeID,
			ContractID:   contractID,
			InvoiceID:    invoiceID,
			Amount:       pair.Amount,
		})
		if err != nil {
			// Sibling details and the payment itself stand; no rollback.
			imp.logger.WithError(err).WithField("payment", paymentID).Warn("Detail insert failed")
		}
	}
	return true
}

// acceptBatch validates an apportionment batch against the payment total.
// An inline batch is accepted only when 0 < sum <= total + tolerance;
// a rejected batch collapses to a single full-amount detail with no budget
// code. Non-inline batches are accepted as extracted.
func (imp *Importer) acceptBatch(batch patterns.Batch, total decimal.Decimal) []patterns.Apportionment {
	if batch.Inline {
		if batch.Sum.IsPositive() && batch.Sum.LessThanOrEqual(total.Add(imp.opts.Tolerance)) {
			return batch.Pairs
		}
		imp.logger.WithError(&parsererror.ValidationError{
			Subject: "apportionment",
			Reason:  fmt.Sprintf("sub-amount sum %s outside (0, %s]", batch.Sum, total.Add(imp.opts.Tolerance)),
		}).Warn("Apportionment rejected, falling back to full amount")
		return []patterns.Apportionment{{Amount: total}}
	}
	return batch.Pairs
}

// resolveType maps the source type value onto the two supported types,
// falling back to the configured heuristic when the value is empty or
// unrecognized.
func (imp *Importer) resolveType(raw, recipient string) string {
	switch strings.ToLower(raw) {
	case models.PaymentTypeIncome:
		return models.PaymentTypeIncome
	case models.PaymentTypeExpense:
		return models.PaymentTypeExpense
	}

	switch imp.opts.TypeFallback {
	case TypeFallbackIncome:
		return models.PaymentTypeIncome
	case TypeFallbackExpense:
		return models.PaymentTypeExpense
	default:
		if recipient != "" {
			return models.PaymentTypeExpense
		}
		return models.PaymentTypeIncome
	}
}

func (imp *Importer) normalizeDate(raw string) string {
	pivot := imp.opts.YearPivot
	if pivot <= 0 {
		pivot = DefaultOptions().YearPivot
	}
	return dateutils.ToDBDateWithPivot(raw, pivot)
}
