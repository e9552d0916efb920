package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kuberan/loansync/internal/currency"
	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/loansync"
	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/repository"
)

// loanRecordService handles payments and settlements against loans.
type loanRecordService struct {
	db        *gorm.DB
	converter loansync.AmountConverter
	locks     *LoanLocks
	log       *zap.SugaredLogger
}

// NewLoanRecordService creates a new LoanRecordServicer.
func NewLoanRecordService(db *gorm.DB, converter loansync.AmountConverter, locks *LoanLocks, log *zap.SugaredLogger) LoanRecordServicer {
	return &loanRecordService{db: db, converter: converter, locks: locks, log: log}
}

// CreateLoanRecord adds a record to the loan with its amount converted into
// the loan account's currency. A missing rate leaves ConvertedAmount nil.
func (s *loanRecordService) CreateLoanRecord(ctx context.Context, userID, loanID string, in CreateLoanRecordInput) (*models.LoanRecord, error) {
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	unlock := s.locks.Lock(loanID)
	defer unlock()

	store := repository.New(s.db, userID)
	loan, err := store.FindLoan(ctx, loanID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if loan == nil {
		return nil, apperrors.ErrLoanNotFound
	}
	if in.AccountID != nil {
		if _, err := findAccount(ctx, s.db, userID, *in.AccountID); err != nil {
			return nil, err
		}
	}

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	converted, err := s.converter.ConvertedAmount(ctx, currency.ConversionRequest{
		NewRecordAccountID: in.AccountID,
		NewRecordAmount:    in.Amount,
		LoanAccountID:      loan.AccountID,
		Recalculate:        true,
	}, accounts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, ctx.Err())
		}
		s.log.Warnw("loan record conversion failed", "loan_id", loanID, "error", err)
		converted = nil
	}

	record := &models.LoanRecord{
		LoanID:          loanID,
		AccountID:       in.AccountID,
		Amount:          in.Amount,
		ConvertedAmount: converted,
		Note:            in.Note,
		Date:            loanDate(in.Date),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return record, nil
}

// GetLoanRecords lists the records of a loan in creation order.
func (s *loanRecordService) GetLoanRecords(ctx context.Context, userID, loanID string) ([]models.LoanRecord, error) {
	store := repository.New(s.db, userID)
	loan, err := store.FindLoan(ctx, loanID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if loan == nil {
		return nil, apperrors.ErrLoanNotFound
	}

	records, err := store.ListLoanRecords(ctx, loanID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if records == nil {
		records = []models.LoanRecord{}
	}
	return records, nil
}
