package loansync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kuberan/loansync/internal/models"
)

type hookRecorder struct {
	starts int
	ends   int
}

func (h *hookRecorder) hooks() Hooks {
	return Hooks{
		OnStart: func(context.Context) { h.starts++ },
		OnEnd:   func(context.Context) { h.ends++ },
	}
}

func newTestEngine(store *fakeStore, conv *fakeConverter) *Engine {
	return New(store, conv, Config{BaseCurrency: "USD", Concurrency: 4}, zap.NewNop().Sugar())
}

// seedLoanScenario stores a lend loan of 100.00 on a USD account with two
// USD records.
func seedLoanScenario() *fakeStore {
	store := newFakeStore(account("usd", "USD"), account("eur", "EUR"))
	store.loans["L"] = models.Loan{
		Base:      models.Base{ID: "L"},
		UserID:    "u1",
		Name:      "Loan to Bob",
		Amount:    10000,
		Type:      models.LoanTypeLend,
		AccountID: ptr("usd"),
	}
	store.records["L"] = []models.LoanRecord{
		{Base: models.Base{ID: "R1"}, LoanID: "L", AccountID: ptr("usd"), Amount: 1000},
		{Base: models.Base{ID: "R2"}, LoanID: "L", AccountID: ptr("usd"), Amount: 2000},
	}
	return store
}

func TestPropagator_UpdateAssociatedLoan(t *testing.T) {
	t.Run("transaction without loan link does nothing", func(t *testing.T) {
		store := seedLoanScenario()
		rec := &hookRecorder{}
		tx := &models.Transaction{Base: models.Base{ID: "T"}, AccountID: "eur", Amount: 1, Type: models.TransactionTypeIncome}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, rec.hooks(), true)
		require.NoError(t, err)

		assert.Zero(t, rec.starts)
		assert.Equal(t, 1, rec.ends)
		assert.Empty(t, store.ops)
		assert.Equal(t, int64(10000), store.loans["L"].Amount)
	})

	t.Run("nil transaction does nothing", func(t *testing.T) {
		store := seedLoanScenario()
		rec := &hookRecorder{}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), nil, rec.hooks(), false)
		require.NoError(t, err)
		assert.Zero(t, rec.starts)
		assert.Empty(t, store.ops)
	})

	t.Run("missing loan stops after start", func(t *testing.T) {
		store := seedLoanScenario()
		rec := &hookRecorder{}
		tx := &models.Transaction{Base: models.Base{ID: "T"}, LoanID: ptr("missing"), AccountID: "usd", Amount: 5}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, rec.hooks(), true)
		require.NoError(t, err)
		assert.Equal(t, 1, rec.starts)
		assert.Equal(t, 1, rec.ends)
		assert.Empty(t, store.ops)
	})

	t.Run("mirror fields are copied onto the loan", func(t *testing.T) {
		store := seedLoanScenario()
		rec := &hookRecorder{}
		tx := &models.Transaction{
			Base:      models.Base{ID: "T"},
			LoanID:    ptr("L"),
			AccountID: "usd",
			Amount:    12000,
			Type:      models.TransactionTypeIncome,
			Title:     "Borrowed from Bob",
		}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, rec.hooks(), false)
		require.NoError(t, err)

		loan := store.loans["L"]
		assert.Equal(t, int64(12000), loan.Amount)
		assert.Equal(t, "Borrowed from Bob", loan.Name)
		assert.Equal(t, models.LoanTypeBorrow, loan.Type)
		require.NotNil(t, loan.AccountID)
		assert.Equal(t, "usd", *loan.AccountID)
		assert.Equal(t, []string{"save_loan"}, store.ops)
		assert.Equal(t, 1, rec.starts)
		assert.Equal(t, 1, rec.ends)
	})

	t.Run("empty title keeps the loan name", func(t *testing.T) {
		store := seedLoanScenario()
		tx := &models.Transaction{LoanID: ptr("L"), AccountID: "usd", Amount: 3, Type: models.TransactionTypeExpense}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, Hooks{}, false)
		require.NoError(t, err)
		assert.Equal(t, "Loan to Bob", store.loans["L"].Name)
		assert.Equal(t, models.LoanTypeLend, store.loans["L"].Type)
	})

	t.Run("account change saves records before the loan", func(t *testing.T) {
		store := seedLoanScenario()
		conv := &fakeConverter{base: "USD", rates: map[string]int64{"USD:EUR": 90}}
		tx := &models.Transaction{
			Base:      models.Base{ID: "T"},
			LoanID:    ptr("L"),
			AccountID: "eur",
			Amount:    10000,
			Type:      models.TransactionTypeExpense,
			Title:     "Loan to Bob",
		}

		err := newTestEngine(store, conv).UpdateAssociatedLoan(context.Background(), tx, Hooks{}, true)
		require.NoError(t, err)

		assert.Equal(t, []string{"save_records", "save_loan"}, store.ops)
		require.NotNil(t, store.loans["L"].AccountID)
		assert.Equal(t, "eur", *store.loans["L"].AccountID)

		records := store.records["L"]
		require.Len(t, records, 2)
		require.NotNil(t, records[0].ConvertedAmount)
		require.NotNil(t, records[1].ConvertedAmount)
		assert.Equal(t, int64(900), *records[0].ConvertedAmount)
		assert.Equal(t, int64(1800), *records[1].ConvertedAmount)
		assert.Equal(t, int64(1000), records[0].Amount)
		assert.Equal(t, int64(2000), records[1].Amount)
	})

	t.Run("record save failure is returned and hooks still end", func(t *testing.T) {
		store := seedLoanScenario()
		boom := errors.New("disk full")
		store.saveRecordsErr = boom
		rec := &hookRecorder{}
		tx := &models.Transaction{LoanID: ptr("L"), AccountID: "eur", Amount: 1, Type: models.TransactionTypeExpense}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, rec.hooks(), true)
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, store.saveLoanCalls)
		assert.Equal(t, 1, rec.starts)
		assert.Equal(t, 1, rec.ends)
	})

	t.Run("loan save failure is returned", func(t *testing.T) {
		store := seedLoanScenario()
		boom := errors.New("constraint")
		store.saveLoanErr = boom
		tx := &models.Transaction{LoanID: ptr("L"), AccountID: "usd", Amount: 1, Type: models.TransactionTypeExpense}

		err := newTestEngine(store, &fakeConverter{base: "USD"}).UpdateAssociatedLoan(context.Background(), tx, Hooks{}, false)
		assert.ErrorIs(t, err, boom)
	})
}

func TestPropagator_RecalculateLoanRecords(t *testing.T) {
	t.Run("same currency is a no-op", func(t *testing.T) {
		store := newFakeStore(account("usd", "USD"), account("usd2", "USD"))
		seedRecords(store, "L", 3, "usd")

		err := newTestEngine(store, &fakeConverter{base: "USD"}).RecalculateLoanRecords(context.Background(), ptr("usd"), ptr("usd2"), "L")
		require.NoError(t, err)
		assert.Zero(t, store.saveRecordCalls)
	})

	t.Run("two unset accounts touch nothing", func(t *testing.T) {
		store := newFakeStore()
		store.listAccountsErr = errors.New("must not be called")
		conv := &fakeConverter{base: "USD"}

		err := newTestEngine(store, conv).RecalculateLoanRecords(context.Background(), nil, nil, "L")
		require.NoError(t, err)
		assert.Zero(t, store.saveRecordCalls)
		assert.Zero(t, conv.calls.Load())
	})

	t.Run("unset account resolves to the base currency", func(t *testing.T) {
		store := newFakeStore(account("usd", "USD"))
		seedRecords(store, "L", 2, "usd")
		conv := &fakeConverter{base: "USD"}

		err := newTestEngine(store, conv).RecalculateLoanRecords(context.Background(), nil, ptr("usd"), "L")
		require.NoError(t, err)
		assert.Zero(t, store.saveRecordCalls)
		assert.Zero(t, conv.calls.Load())
	})

	t.Run("different currency recalculates and saves", func(t *testing.T) {
		store := newFakeStore(account("usd", "USD"), account("eur", "EUR"))
		seedRecords(store, "L", 3, "usd")
		conv := &fakeConverter{base: "USD", rates: map[string]int64{"USD:EUR": 90}}

		err := newTestEngine(store, conv).RecalculateLoanRecords(context.Background(), ptr("usd"), ptr("eur"), "L")
		require.NoError(t, err)
		assert.Equal(t, 1, store.saveRecordCalls)
		for _, rec := range store.records["L"] {
			require.NotNil(t, rec.ConvertedAmount)
			assert.Equal(t, rec.Amount*90/100, *rec.ConvertedAmount)
		}
	})
}

// A USD loan with USD records moves to a EUR account through its mirror.
func TestEngine_MoveLoanToEuroAccount(t *testing.T) {
	store := seedLoanScenario()
	conv := &fakeConverter{base: "USD", rates: map[string]int64{"USD:EUR": 90}}
	engine := newTestEngine(store, conv)
	ctx := context.Background()

	loan := store.loans["L"]
	require.NoError(t, engine.EditAssociatedTransaction(ctx, &loan, true, nil))
	mirrors := store.loanTransactions("L")
	require.Len(t, mirrors, 1)

	tx := mirrors[0]
	tx.AccountID = "eur"
	require.NoError(t, store.SaveTransaction(ctx, &tx))
	store.ops = nil

	require.NoError(t, engine.UpdateAssociatedLoan(ctx, &tx, Hooks{}, true))

	got := store.loans["L"]
	assert.Equal(t, "eur", *got.AccountID)
	assert.Equal(t, int64(10000), got.Amount)
	assert.Equal(t, models.LoanTypeLend, got.Type)
	assert.Equal(t, int64(900), *store.records["L"][0].ConvertedAmount)
	assert.Equal(t, int64(1800), *store.records["L"][1].ConvertedAmount)
	assert.Equal(t, []string{"save_records", "save_loan"}, store.ops)
}
