package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"gorm.io/gorm"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	db           *gorm.DB
	baseCurrency string
}

// NewAccountService creates a new AccountServicer. Accounts created without
// a currency use baseCurrency.
func NewAccountService(db *gorm.DB, baseCurrency string) AccountServicer {
	return &accountService{db: db, baseCurrency: strings.ToUpper(baseCurrency)}
}

// CreateAccount creates a new account for a user.
func (s *accountService) CreateAccount(ctx context.Context, userID, name, description, currency string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = s.baseCurrency
	}
	if money.GetCurrency(currency) == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown currency code "+currency)
	}

	account := &models.Account{
		UserID:      userID,
		Name:        name,
		Description: description,
		Currency:    currency,
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// GetUserAccounts lists a user's accounts, oldest first. The first one is the
// default account loans are booked on.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return findAccount(ctx, s.db, userID, accountID)
}

func findAccount(ctx context.Context, db *gorm.DB, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := db.WithContext(ctx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}
