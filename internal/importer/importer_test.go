package importer

import (
	"os"
	"path/filepath"
	"testing"

	"avolkov/finaudit/internal/mapping"
	"avolkov/finaudit/internal/models"
	"avolkov/finaudit/internal/patterns"
	"avolkov/finaudit/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test file layout: Дата, Номер док., Тип, Сумма, Контрагент, Назначение.
var testMapping = mapping.FieldMapping{
	mapping.FieldDate:         0,
	mapping.FieldDocNumber:    1,
	mapping.FieldType:         2,
	mapping.FieldAmount:       3,
	mapping.FieldCounterparty: 4,
	mapping.FieldDescription:  5,
}

const testHeader = "Дата\tНомер док.\tТип\tСумма\tКонтрагент\tНазначение\n"

func newTestImporter(t *testing.T) (*Importer, *storage.Store) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := storage.NewStore(db)
	extractor := patterns.NewExtractor(patterns.DefaultSet(), 0, nil)
	return New(store, extractor, testMapping, DefaultOptions(), nil), store
}

func runImport(t *testing.T, imp *Importer, rows string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payments.tsv")
	require.NoError(t, os.WriteFile(path, []byte(testHeader+rows), 0644))
	require.NoError(t, imp.Run(path))
}

func TestSimpleExpense(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp, "01.03.2024\t12\t\t1500,50\tООО Ромашка\tоплата услуг\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	p := payments[0]
	assert.Equal(t, "2024-03-01", p.Date)
	assert.Equal(t, models.PaymentTypeExpense, p.Type)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(p.Amount))
	assert.NotZero(t, p.CounterpartyID)

	counterparties, err := store.ListCounterparties()
	require.NoError(t, err)
	require.Len(t, counterparties, 1)
	assert.Equal(t, "ООО Ромашка", counterparties[0].Name)

	details, err := store.ListPaymentDetails(p.ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.True(t, p.Amount.Equal(details[0].Amount))
	assert.Zero(t, details[0].BudgetCodeID)
}

func TestContractExtractionLinksDetail(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp, "01.03.2024\t1\t\t500,00\tООО Ромашка\tоплата по контракту №45 от 01.03.24\n")

	contracts, err := store.ListContracts()
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "45", contracts[0].Number)
	assert.Equal(t, "2024-03-01", contracts[0].Date)
	assert.NotZero(t, contracts[0].CounterpartyID)

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)

	details, err := store.ListPaymentDetails(payments[0].ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, contracts[0].ID, details[0].ContractID)
}

func TestContractDedupAcrossRows(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp,
		"01.03.2024\t1\t\t500,00\tООО Ромашка\tаванс по контракту №45 от 01.03.24\n"+
			"05.03.2024\t2\t\t700,00\tООО Ромашка\tдоплата по контракту №45 от 01.03.24\n")

	contracts, err := store.ListContracts()
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 2)

	for _, p := range payments {
		details, err := store.ListPaymentDetails(p.ID)
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Equal(t, contracts[0].ID, details[0].ContractID)
	}
}

func TestMultiCodeApportionment(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp, "01.03.2024\t1\t\t1500,50\tООО Ромашка\tоплата; в т.ч. К310=1000.00 К340=500.50\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)

	details, err := store.ListPaymentDetails(payments[0].ID)
	require.NoError(t, err)
	require.Len(t, details, 2)

	codes, err := store.ListBudgetCodes()
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "310", codes[0].Code)
	assert.Equal(t, "КОСГУ 310", codes[0].Label)
	assert.Equal(t, "340", codes[1].Code)

	sum := details[0].Amount.Add(details[1].Amount)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(sum))
	assert.NotZero(t, details[0].BudgetCodeID)
	assert.NotZero(t, details[1].BudgetCodeID)
}

func TestApportionmentOverflowRejected(t *testing.T) {
	imp, store := newTestImporter(t)

	// Sub-amounts sum to 1500.50 against a 1000.00 payment: the inline
	// batch is discarded and a single full-amount detail remains.
	runImport(t, imp, "01.03.2024\t1\t\t1000,00\tООО Ромашка\tоплата; в т.ч. К310=1000.00 К340=500.50\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)

	details, err := store.ListPaymentDetails(payments[0].ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Zero(t, details[0].BudgetCodeID)
	assert.True(t, decimal.RequireFromString("1000.00").Equal(details[0].Amount))
}

func TestUnparsableInlineMemberRejectsBatch(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp, "01.03.2024\t1\t\t1000,00\tООО Ромашка\tоплата; в т.ч. К310=1.2.3 К340=500.50\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)

	details, err := store.ListPaymentDetails(payments[0].ID)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Zero(t, details[0].BudgetCodeID)
}

func TestBlankRowSkipped(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp,
		"\t\t\t\t\t\n"+
			"\n"+
			"01.03.2024\t1\t\t100,00\tООО Ромашка\tоплата\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestShortRowDegradesGracefully(t *testing.T) {
	imp, store := newTestImporter(t)

	// Row ends before the description column; missing fields become empty.
	runImport(t, imp, "01.03.2024\t1\t\t100,00\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "", payments[0].Description)
	// No recipient resolved: the type heuristic falls back to income.
	assert.Equal(t, models.PaymentTypeIncome, payments[0].Type)
	assert.Zero(t, payments[0].CounterpartyID)
}

func TestCounterpartyDedupAcrossRows(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp,
		"01.03.2024\t1\t\t100,00\tООО Ромашка\tоплата\n"+
			"02.03.2024\t2\t\t200,00\tООО Ромашка\tоплата\n")

	counterparties, err := store.ListCounterparties()
	require.NoError(t, err)
	assert.Len(t, counterparties, 1)
}

func TestProgressTerminalState(t *testing.T) {
	imp, _ := newTestImporter(t)

	progress := imp.Progress()
	assert.False(t, progress.Running())

	runImport(t, imp, "01.03.2024\t1\t\t100,00\tООО Ромашка\tоплата\n")

	assert.False(t, progress.Running())
	assert.Equal(t, 1.0, progress.Fraction())
	assert.Equal(t, "Импорт завершен.", progress.Message())
}

func TestMissingFileFailsOnce(t *testing.T) {
	imp, store := newTestImporter(t)

	err := imp.Run(filepath.Join(t.TempDir(), "no-such.tsv"))
	require.Error(t, err)

	payments, err := store.ListPayments()
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestExplicitTypeWins(t *testing.T) {
	imp, store := newTestImporter(t)

	runImport(t, imp, "01.03.2024\t1\tincome\t100,00\tООО Ромашка\tоплата\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentTypeIncome, payments[0].Type)
}

func TestFixedTypeFallback(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := storage.NewStore(db)

	opts := DefaultOptions()
	opts.TypeFallback = TypeFallbackIncome
	extractor := patterns.NewExtractor(patterns.DefaultSet(), 0, nil)
	imp := New(store, extractor, testMapping, opts, nil)

	runImport(t, imp, "01.03.2024\t1\t\t100,00\tООО Ромашка\tоплата\n")

	payments, err := store.ListPayments()
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentTypeIncome, payments[0].Type)
}
