package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/testutil"
)

func int64Ptr(v int64) *int64 { return &v }

func TestStore_ListAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	first := testutil.CreateTestAccount(t, db, userID, "USD")
	second := testutil.CreateTestAccount(t, db, userID, "EUR")
	testutil.CreateTestAccount(t, db, testutil.NewUserID(), "GBP")

	accounts, err := New(db, userID).ListAccounts(context.Background())
	testutil.AssertNoError(t, err)

	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].ID != first.ID || accounts[1].ID != second.ID {
		t.Errorf("expected oldest account first")
	}
}

func TestStore_FindLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	loan := testutil.CreateTestLoan(t, db, userID, nil, models.LoanTypeLend, 500)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		got, err := New(db, userID).FindLoan(ctx, loan.ID)
		testutil.AssertNoError(t, err)
		if got == nil || got.Amount != 500 {
			t.Fatalf("expected loan with amount 500, got %+v", got)
		}
	})

	t.Run("other user", func(t *testing.T) {
		got, err := New(db, testutil.NewUserID()).FindLoan(ctx, loan.ID)
		testutil.AssertNoError(t, err)
		if got != nil {
			t.Error("expected nil for another user's loan")
		}
	})

	t.Run("missing", func(t *testing.T) {
		got, err := New(db, userID).FindLoan(ctx, testutil.NewUserID())
		testutil.AssertNoError(t, err)
		if got != nil {
			t.Error("expected nil for a missing loan")
		}
	})
}

func TestStore_SaveLoan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	account := testutil.CreateTestAccount(t, db, userID, "EUR")
	loan := testutil.CreateTestLoan(t, db, userID, nil, models.LoanTypeLend, 500)
	record := testutil.CreateTestLoanRecord(t, db, loan.ID, nil, 100, nil)
	store := New(db, userID)
	ctx := context.Background()

	loan.Amount = 700
	loan.AccountID = &account.ID
	loan.Records = []models.LoanRecord{{Base: models.Base{ID: record.ID}, LoanID: loan.ID, Amount: 999}}
	testutil.AssertNoError(t, store.SaveLoan(ctx, loan))

	got, err := store.FindLoan(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if got.Amount != 700 || got.AccountID == nil || *got.AccountID != account.ID {
		t.Errorf("loan not updated: %+v", got)
	}

	var stored models.LoanRecord
	testutil.AssertNoError(t, db.First(&stored, "id = ?", record.ID).Error)
	if stored.Amount != 100 {
		t.Errorf("SaveLoan must not touch records, amount is %d", stored.Amount)
	}

	other := *loan
	other.UserID = testutil.NewUserID()
	if err := store.SaveLoan(ctx, &other); err == nil {
		t.Error("expected an error saving another user's loan")
	}
}

func TestStore_LoanRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	loan := testutil.CreateTestLoan(t, db, userID, nil, models.LoanTypeBorrow, 5000)
	r1 := testutil.CreateTestLoanRecord(t, db, loan.ID, nil, 100, int64Ptr(1))
	r2 := testutil.CreateTestLoanRecord(t, db, loan.ID, nil, 200, nil)
	store := New(db, userID)
	ctx := context.Background()

	records, err := store.ListLoanRecords(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	otherUser, err := New(db, testutil.NewUserID()).ListLoanRecords(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if len(otherUser) != 0 {
		t.Errorf("expected no records for another user, got %d", len(otherUser))
	}

	for i := range records {
		switch records[i].ID {
		case r1.ID:
			records[i].ConvertedAmount = nil
		case r2.ID:
			records[i].ConvertedAmount = int64Ptr(180)
		}
		records[i].Amount = 1
	}
	testutil.AssertNoError(t, store.SaveLoanRecords(ctx, records))

	var got1, got2 models.LoanRecord
	testutil.AssertNoError(t, db.First(&got1, "id = ?", r1.ID).Error)
	testutil.AssertNoError(t, db.First(&got2, "id = ?", r2.ID).Error)

	if got1.ConvertedAmount != nil {
		t.Errorf("expected converted amount to be cleared, got %d", *got1.ConvertedAmount)
	}
	if got2.ConvertedAmount == nil || *got2.ConvertedAmount != 180 {
		t.Errorf("expected converted amount 180, got %v", got2.ConvertedAmount)
	}
	if got1.Amount != 100 || got2.Amount != 200 {
		t.Error("SaveLoanRecords must only write converted amounts")
	}
}

func TestStore_ListLoanRecordsCancelled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	loan := testutil.CreateTestLoan(t, db, userID, nil, models.LoanTypeLend, 300)
	testutil.CreateTestLoanRecord(t, db, loan.ID, nil, 100, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := New(db, userID).ListLoanRecords(ctx, loan.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestStore_Transactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()
	account := testutil.CreateTestAccount(t, db, userID, "USD")
	loan := testutil.CreateTestLoan(t, db, userID, &account.ID, models.LoanTypeLend, 5000)
	store := New(db, userID)
	ctx := context.Background()

	got, err := store.FindLoanTransaction(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if got != nil {
		t.Fatal("expected no mirror yet")
	}

	recordTx := &models.Transaction{AccountID: account.ID, LoanID: &loan.ID, IsLoanRecord: true, Type: models.TransactionTypeIncome, Amount: 100}
	testutil.AssertNoError(t, store.SaveTransaction(ctx, recordTx))

	mirror := &models.Transaction{AccountID: account.ID, LoanID: &loan.ID, Type: models.TransactionTypeExpense, Amount: 5000}
	testutil.AssertNoError(t, store.SaveTransaction(ctx, mirror))
	if mirror.ID == "" || mirror.UserID != userID {
		t.Fatalf("expected created mirror owned by user, got %+v", mirror)
	}

	got, err = store.FindLoanTransaction(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if got == nil || got.ID != mirror.ID {
		t.Fatalf("expected mirror %s, got %+v", mirror.ID, got)
	}

	got.Amount = 6000
	testutil.AssertNoError(t, store.SaveTransaction(ctx, got))
	reloaded, err := store.FindLoanTransaction(ctx, loan.ID)
	testutil.AssertNoError(t, err)
	if reloaded.Amount != 6000 {
		t.Errorf("expected amount 6000, got %d", reloaded.Amount)
	}

	testutil.AssertNoError(t, store.DeleteLoanTransactions(ctx, loan.ID))
	var remaining int64
	testutil.AssertNoError(t, db.Model(&models.Transaction{}).Where("loan_id = ?", loan.ID).Count(&remaining).Error)
	if remaining != 0 {
		t.Errorf("expected all loan transactions deleted, %d remain", remaining)
	}

	testutil.AssertNoError(t, store.DeleteLoanTransactions(ctx, loan.ID))
}
