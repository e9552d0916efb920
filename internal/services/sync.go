package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/loansync"
	"github.com/kuberan/loansync/internal/repository"
)

// syncEngine builds the loan sync engine over db for one user.
type syncEngine struct {
	converter loansync.AmountConverter
	cfg       loansync.Config
	log       *zap.SugaredLogger
}

func (e syncEngine) forUser(db *gorm.DB, userID string) *loansync.Engine {
	return loansync.New(repository.New(db, userID), e.converter, e.cfg, e.log)
}

// hooks reports propagation progress in the log.
func (e syncEngine) hooks(transactionID string) loansync.Hooks {
	return loansync.Hooks{
		OnStart: func(context.Context) {
			e.log.Debugw("loan sync started", "transaction_id", transactionID)
		},
		OnEnd: func(context.Context) {
			e.log.Debugw("loan sync finished", "transaction_id", transactionID)
		},
	}
}

// toAppError passes AppErrors through and wraps anything else as internal.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
