package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/loansync"
	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/pagination"
	"github.com/kuberan/loansync/internal/repository"
)

// loanService handles loan-related business logic.
type loanService struct {
	db     *gorm.DB
	engine syncEngine
	locks  *LoanLocks
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, converter loansync.AmountConverter, cfg loansync.Config, locks *LoanLocks, log *zap.SugaredLogger) LoanServicer {
	return &loanService{
		db:     db,
		engine: syncEngine{converter: converter, cfg: cfg, log: log},
		locks:  locks,
	}
}

// CreateLoan creates a loan and, when requested, its mirror transaction.
func (s *loanService) CreateLoan(ctx context.Context, userID string, in CreateLoanInput) (*models.Loan, error) {
	if in.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name is required")
	}
	if in.Amount <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := validateLoanType(in.Type); err != nil {
		return nil, err
	}
	if in.AccountID != nil {
		if _, err := findAccount(ctx, s.db, userID, *in.AccountID); err != nil {
			return nil, err
		}
	}

	loan := &models.Loan{
		UserID:    userID,
		Name:      in.Name,
		Amount:    in.Amount,
		Type:      in.Type,
		AccountID: in.AccountID,
		Note:      in.Note,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(loan).Error; err != nil {
			return err
		}
		return s.engine.forUser(tx, userID).CreateAssociatedTransaction(ctx, loansync.LoanInput{
			UserID:            userID,
			Name:              in.Name,
			Amount:            in.Amount,
			Type:              in.Type,
			AccountID:         in.AccountID,
			CreateTransaction: in.CreateTransaction,
			Date:              in.Date,
		}, loan.ID)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	return loan, nil
}

// GetLoanByID retrieves a loan with its records.
func (s *loanService) GetLoanByID(ctx context.Context, userID, loanID string) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).
		Preload("Records", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ? AND user_id = ?", loanID, userID).
		First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

// GetUserLoans retrieves a paginated list of loans for a user, newest first.
func (s *loanService) GetUserLoans(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.WithContext(ctx).Model(&models.Loan{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.Loan
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(loans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateLoan applies in to the loan, recalculates its records when the
// backing account's currency changes and rewrites the mirror transaction.
func (s *loanService) UpdateLoan(ctx context.Context, userID, loanID string, in UpdateLoanInput) (*models.Loan, error) {
	unlock := s.locks.Lock(loanID)
	defer unlock()

	loan, err := s.GetLoanByID(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}
	oldAccountID := loan.AccountID

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "loan name cannot be empty")
		}
		loan.Name = *in.Name
	}
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		loan.Amount = *in.Amount
	}
	if in.Type != nil {
		if err := validateLoanType(*in.Type); err != nil {
			return nil, err
		}
		loan.Type = *in.Type
	}
	if in.AccountID != nil {
		if _, err := findAccount(ctx, s.db, userID, *in.AccountID); err != nil {
			return nil, err
		}
		accountID := *in.AccountID
		loan.AccountID = &accountID
	}
	if in.Note != nil {
		loan.Note = *in.Note
	}
	loan.Records = nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := repository.New(tx, userID)
		if err := store.SaveLoan(ctx, loan); err != nil {
			return err
		}
		engine := s.engine.forUser(tx, userID)
		if err := engine.RecalculateLoanRecords(ctx, oldAccountID, loan.AccountID, loan.ID); err != nil {
			return err
		}
		return engine.EditAssociatedTransaction(ctx, loan, in.CreateTransaction, nil)
	})
	if err != nil {
		return nil, toAppError(err)
	}

	return s.GetLoanByID(ctx, userID, loanID)
}

// DeleteLoan deletes a loan with its records and every linked transaction.
func (s *loanService) DeleteLoan(ctx context.Context, userID, loanID string) error {
	unlock := s.locks.Lock(loanID)
	defer unlock()

	loan, err := s.GetLoanByID(ctx, userID, loanID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.engine.forUser(tx, userID).DeleteAssociatedTransactions(ctx, loan.ID); err != nil {
			return err
		}
		if err := tx.Where("loan_id = ?", loan.ID).Delete(&models.LoanRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", loan.ID).Delete(&models.Loan{}).Error
	})
	return toAppError(err)
}

func validateLoanType(t models.LoanType) error {
	switch t {
	case models.LoanTypeBorrow, models.LoanTypeLend:
		return nil
	default:
		return apperrors.ErrInvalidLoanType
	}
}

// loanDate defaults a zero date to now.
func loanDate(d time.Time) time.Time {
	if d.IsZero() {
		return time.Now()
	}
	return d
}
