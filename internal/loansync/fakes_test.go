package loansync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kuberan/loansync/internal/currency"
	"github.com/kuberan/loansync/internal/models"
)

// fakeStore is an in-memory Stores that records the order of writes.
type fakeStore struct {
	mu           sync.Mutex
	accounts     []models.Account
	loans        map[string]models.Loan
	records      map[string][]models.LoanRecord
	transactions map[string]models.Transaction
	ops          []string
	nextID       int

	listAccountsErr error
	saveRecordsErr  error
	saveLoanErr     error
	saveRecordCalls int
	saveLoanCalls   int
}

func newFakeStore(accounts ...models.Account) *fakeStore {
	return &fakeStore{
		accounts:     accounts,
		loans:        make(map[string]models.Loan),
		records:      make(map[string][]models.LoanRecord),
		transactions: make(map[string]models.Transaction),
	}
}

func (f *fakeStore) ListAccounts(_ context.Context) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listAccountsErr != nil {
		return nil, f.listAccountsErr
	}
	return append([]models.Account(nil), f.accounts...), nil
}

func (f *fakeStore) FindLoan(_ context.Context, id string) (*models.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[id]
	if !ok {
		return nil, nil
	}
	return &loan, nil
}

func (f *fakeStore) SaveLoan(_ context.Context, loan *models.Loan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveLoanCalls++
	f.ops = append(f.ops, "save_loan")
	if f.saveLoanErr != nil {
		return f.saveLoanErr
	}
	f.loans[loan.ID] = *loan
	return nil
}

func (f *fakeStore) ListLoanRecords(_ context.Context, loanID string) ([]models.LoanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LoanRecord(nil), f.records[loanID]...), nil
}

func (f *fakeStore) SaveLoanRecords(_ context.Context, records []models.LoanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveRecordCalls++
	f.ops = append(f.ops, "save_records")
	if f.saveRecordsErr != nil {
		return f.saveRecordsErr
	}
	for _, rec := range records {
		list := f.records[rec.LoanID]
		for i := range list {
			if list[i].ID == rec.ID {
				list[i] = rec
			}
		}
	}
	return nil
}

func (f *fakeStore) FindLoanTransaction(_ context.Context, loanID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.LoanID != nil && *tx.LoanID == loanID && !tx.IsLoanRecord {
			found := tx
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tx.ID == "" {
		f.nextID++
		tx.ID = fmt.Sprintf("tx-%03d", f.nextID)
	}
	f.ops = append(f.ops, "save_transaction")
	f.transactions[tx.ID] = *tx
	return nil
}

func (f *fakeStore) DeleteLoanTransactions(_ context.Context, loanID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, tx := range f.transactions {
		if tx.LoanID != nil && *tx.LoanID == loanID {
			delete(f.transactions, id)
		}
	}
	f.ops = append(f.ops, "delete_transactions")
	return nil
}

func (f *fakeStore) loanTransactions(loanID string) []models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.transactions {
		if tx.LoanID != nil && *tx.LoanID == loanID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeConverter multiplies by a per-currency-pair rate and tracks how many
// conversions run at once.
type fakeConverter struct {
	base     string
	rates    map[string]int64 // "FROM:TO" -> percent
	failFor  map[string]bool  // record account ids without a rate
	delay    time.Duration
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (c *fakeConverter) ConvertedAmount(ctx context.Context, req currency.ConversionRequest, accounts []models.Account) (*int64, error) {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if req.NewRecordAccountID != nil && c.failFor[*req.NewRecordAccountID] {
		return nil, currency.ErrRateUnavailable
	}

	from := currency.Resolve(req.NewRecordAccountID, accounts, c.base)
	to := currency.Resolve(req.LoanAccountID, accounts, c.base)
	if from == to {
		return nil, nil
	}
	pct, ok := c.rates[from+":"+to]
	if !ok {
		return nil, nil
	}
	v := req.NewRecordAmount * pct / 100
	return &v, nil
}

func ptr[T any](v T) *T { return &v }

func account(id, cur string) models.Account {
	return models.Account{Base: models.Base{ID: id}, Currency: cur}
}
