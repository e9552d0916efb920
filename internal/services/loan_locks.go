package services

import "sync"

// LoanLocks serializes sync work per loan. A loan's mirror edits, record
// writes and recalculations never overlap; different loans proceed in
// parallel. One LoanLocks must be shared by every service touching loans.
type LoanLocks struct {
	mu    sync.Mutex
	locks map[string]*loanLock
}

type loanLock struct {
	mu   sync.Mutex
	refs int
}

// NewLoanLocks creates an empty lock set.
func NewLoanLocks() *LoanLocks {
	return &LoanLocks{locks: make(map[string]*loanLock)}
}

// Lock blocks until the loan is free and returns the matching unlock.
func (l *LoanLocks) Lock(loanID string) (unlock func()) {
	l.mu.Lock()
	lk, ok := l.locks[loanID]
	if !ok {
		lk = &loanLock{}
		l.locks[loanID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()

		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, loanID)
		}
		l.mu.Unlock()
	}
}
