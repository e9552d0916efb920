// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kuberan/loansync/internal/uuid"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("iso4217", validateISO4217)
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("loan_type", validateLoanType)
		_ = v.RegisterValidation("uuid_id", validateID)
	}
}

func validateISO4217(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return code == strings.ToUpper(code) && money.GetCurrency(code) != nil
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateLoanType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "borrow", "lend":
		return true
	}
	return false
}

func validateID(fl validator.FieldLevel) bool {
	return uuid.IsValid(fl.Field().String())
}
