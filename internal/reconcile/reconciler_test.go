package reconcile

import (
	"errors"
	"testing"

	"avolkov/finaudit/internal/patterns"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory Store for reconciler tests.
type mockStore struct {
	counterparties map[string]int64 // key: name or name|taxID
	contracts      map[string]int64 // key: number|date
	invoices       map[string]int64 // key: number|date
	budgetCodes    map[string]int64 // key: code
	budgetLabels   map[string]string
	nextID         int64
	failInserts    bool

	insertedCounterparties int
	insertedContracts      int
	insertedInvoices       int
	insertedBudgetCodes    int
	contractCounterparty   map[int64]int64
	invoiceContract        map[int64]int64
}

func newMockStore() *mockStore {
	return &mockStore{
		counterparties:       map[string]int64{},
		contracts:            map[string]int64{},
		invoices:             map[string]int64{},
		budgetCodes:          map[string]int64{},
		budgetLabels:         map[string]string{},
		contractCounterparty: map[int64]int64{},
		invoiceContract:      map[int64]int64{},
	}
}

var errInsert = errors.New("insert rejected")

func (m *mockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockStore) FindCounterpartyByNameAndTaxID(name, taxID string) (int64, bool, error) {
	id, ok := m.counterparties[name+"|"+taxID]
	return id, ok, nil
}

func (m *mockStore) FindCounterpartyByName(name string) (int64, bool, error) {
	id, ok := m.counterparties[name]
	return id, ok, nil
}

func (m *mockStore) InsertCounterparty(name, taxID string) (int64, error) {
	if m.failInserts {
		return 0, errInsert
	}
	key := name
	if taxID != "" {
		key = name + "|" + taxID
	}
	id := m.id()
	m.counterparties[key] = id
	m.insertedCounterparties++
	return id, nil
}

func (m *mockStore) FindContractByNumberAndDate(number, date string) (int64, bool, error) {
	id, ok := m.contracts[number+"|"+date]
	return id, ok, nil
}

func (m *mockStore) InsertContract(number, date string, counterpartyID int64) (int64, error) {
	if m.failInserts {
		return 0, errInsert
	}
	id := m.id()
	m.contracts[number+"|"+date] = id
	m.contractCounterparty[id] = counterpartyID
	m.insertedContracts++
	return id, nil
}

func (m *mockStore) FindInvoiceByNumberAndDate(number, date string) (int64, bool, error) {
	id, ok := m.invoices[number+"|"+date]
	return id, ok, nil
}

func (m *mockStore) InsertInvoice(number, date string, contractID int64) (int64, error) {
	if m.failInserts {
		return 0, errInsert
	}
	id := m.id()
	m.invoices[number+"|"+date] = id
	m.invoiceContract[id] = contractID
	m.insertedInvoices++
	return id, nil
}

func (m *mockStore) FindBudgetCodeByCode(code string) (int64, bool, error) {
	id, ok := m.budgetCodes[code]
	return id, ok, nil
}

func (m *mockStore) InsertBudgetCode(code, label string) (int64, error) {
	if m.failInserts {
		return 0, errInsert
	}
	id := m.id()
	m.budgetCodes[code] = id
	m.budgetLabels[code] = label
	m.insertedBudgetCodes++
	return id, nil
}

func TestCounterpartyFindOrCreate(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)

	id1, err := r.Counterparty("ООО Ромашка", "")
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Second resolution finds, does not insert again.
	id2, err := r.Counterparty("ООО Ромашка", "")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, store.insertedCounterparties)
}

func TestCounterpartyEmptyNameSkips(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)

	id, err := r.Counterparty("", "")
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Zero(t, store.insertedCounterparties)
}

func TestCounterpartyTaxIDRegime(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)

	withTax, err := r.Counterparty("ООО Ромашка", "7701234567")
	require.NoError(t, err)
	bare, err := r.Counterparty("ООО Ромашка", "")
	require.NoError(t, err)

	// The two regimes must not be conflated.
	assert.NotEqual(t, withTax, bare)
	assert.Equal(t, 2, store.insertedCounterparties)
}

func TestContractDedupByNumberAndDate(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)
	ref := patterns.Reference{Number: "45", Date: "2024-03-01"}

	id1, err := r.Contract(ref, 7)
	require.NoError(t, err)
	// Different counterparty, same identity pair: still the same contract.
	id2, err := r.Contract(ref, 99)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, store.insertedContracts)
	assert.Equal(t, int64(7), store.contractCounterparty[id1])
}

func TestInvoiceCarriesContractOnInsert(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)
	ref := patterns.Reference{Number: "108", Date: "2024-03-05"}

	id, err := r.Invoice(ref, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), store.invoiceContract[id])

	noContract, err := r.Invoice(patterns.Reference{Number: "109", Date: "2024-03-06"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.invoiceContract[noContract])
}

func TestBudgetCodePlaceholderLabel(t *testing.T) {
	store := newMockStore()
	r := New(store, nil)

	_, err := r.BudgetCode("310")
	require.NoError(t, err)
	assert.Equal(t, "КОСГУ 310", store.budgetLabels["310"])

	id, err := r.BudgetCode("")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestInsertFailurePropagates(t *testing.T) {
	store := newMockStore()
	store.failInserts = true
	r := New(store, nil)

	_, err := r.Counterparty("ООО Ромашка", "")
	assert.ErrorIs(t, err, errInsert)
	_, err = r.Contract(patterns.Reference{Number: "1", Date: "2024-01-01"}, 0)
	assert.ErrorIs(t, err, errInsert)
	_, err = r.BudgetCode("310")
	assert.ErrorIs(t, err, errInsert)
}
