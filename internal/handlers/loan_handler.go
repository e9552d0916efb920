package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kuberan/loansync/internal/errors"
	"github.com/kuberan/loansync/internal/models"
	"github.com/kuberan/loansync/internal/pagination"
	"github.com/kuberan/loansync/internal/services"
)

// LoanHandler handles loan and loan record requests.
type LoanHandler struct {
	loanService   services.LoanServicer
	recordService services.LoanRecordServicer
	auditService  services.AuditServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer, recordService services.LoanRecordServicer, auditService services.AuditServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService, recordService: recordService, auditService: auditService}
}

// CreateLoanRequest represents the request payload for creating a loan.
type CreateLoanRequest struct {
	Name              string     `json:"name" binding:"required,min=1,max=100"`
	Amount            int64      `json:"amount" binding:"required,gt=0"`
	Type              string     `json:"type" binding:"required,loan_type"`
	AccountID         *string    `json:"account_id" binding:"omitempty,uuid_id"`
	Note              string     `json:"note" binding:"max=500"`
	CreateTransaction bool       `json:"create_transaction"`
	Date              *time.Time `json:"date"`
}

// UpdateLoanRequest represents the request payload for updating a loan.
type UpdateLoanRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1,max=100"`
	Amount            *int64  `json:"amount" binding:"omitempty,gt=0"`
	Type              *string `json:"type" binding:"omitempty,loan_type"`
	AccountID         *string `json:"account_id" binding:"omitempty,uuid_id"`
	Note              *string `json:"note" binding:"omitempty,max=500"`
	CreateTransaction bool    `json:"create_transaction"`
}

// CreateLoanRecordRequest represents the request payload for a loan record.
type CreateLoanRecordRequest struct {
	AccountID *string    `json:"account_id" binding:"omitempty,uuid_id"`
	Amount    int64      `json:"amount" binding:"required,gt=0"`
	Note      string     `json:"note" binding:"max=500"`
	Date      *time.Time `json:"date"`
}

// CreateLoan handles the creation of a new loan
// @Summary     Create a loan
// @Description Create a loan and optionally book its mirror transaction
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateLoanRequest true "Loan details"
// @Success     201 {object} map[string]models.Loan "Loan created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.CreateLoanInput{
		Name:              req.Name,
		Amount:            req.Amount,
		Type:              models.LoanType(req.Type),
		AccountID:         req.AccountID,
		Note:              req.Note,
		CreateTransaction: req.CreateTransaction,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_LOAN", "loan", loan.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name, "amount": req.Amount, "type": req.Type})

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// GetUserLoans lists the user's loans
// @Summary     List loans
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Page size (max 100)"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Loans"
// @Failure     400 {object} ErrorResponse "Invalid pagination"
// @Router      /loans [get]
func (h *LoanHandler) GetUserLoans(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.loanService.GetUserLoans(c.Request.Context(), userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLoanByID returns a loan with its records
// @Summary     Get a loan
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} map[string]models.Loan "Loan"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [get]
func (h *LoanHandler) GetLoanByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.GetLoanByID(c.Request.Context(), userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// UpdateLoan updates a loan and keeps its mirror transaction in step
// @Summary     Update a loan
// @Description Moving the loan to an account with another currency recalculates every record
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Loan ID"
// @Param       request body UpdateLoanRequest true "Loan changes"
// @Success     200 {object} map[string]models.Loan "Loan updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [put]
func (h *LoanHandler) UpdateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.UpdateLoanInput{
		Name:              req.Name,
		Amount:            req.Amount,
		AccountID:         req.AccountID,
		Note:              req.Note,
		CreateTransaction: req.CreateTransaction,
	}
	if req.Type != nil {
		loanType := models.LoanType(*req.Type)
		in.Type = &loanType
	}

	loan, err := h.loanService.UpdateLoan(c.Request.Context(), userID, loanID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_LOAN", "loan", loanID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// DeleteLoan deletes a loan, its records and its transactions
// @Summary     Delete a loan
// @Tags        loans
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     204 "Loan deleted"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.loanService.DeleteLoan(c.Request.Context(), userID, loanID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_LOAN", "loan", loanID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// CreateLoanRecord adds a payment or settlement to a loan
// @Summary     Create a loan record
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Loan ID"
// @Param       request body CreateLoanRecordRequest true "Record details"
// @Success     201 {object} map[string]models.LoanRecord "Record created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id}/records [post]
func (h *LoanHandler) CreateLoanRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateLoanRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	in := services.CreateLoanRecordInput{AccountID: req.AccountID, Amount: req.Amount, Note: req.Note}
	if req.Date != nil {
		in.Date = *req.Date
	}

	record, err := h.recordService.CreateLoanRecord(c.Request.Context(), userID, loanID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_LOAN_RECORD", "loan_record", record.ID, c.ClientIP(),
		map[string]interface{}{"loan_id": loanID, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

// GetLoanRecords lists the records of a loan
// @Summary     List loan records
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Loan ID"
// @Success     200 {object} map[string][]models.LoanRecord "Records"
// @Failure     404 {object} ErrorResponse "Loan not found"
// @Router      /loans/{id}/records [get]
func (h *LoanHandler) GetLoanRecords(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	records, err := h.recordService.GetLoanRecords(c.Request.Context(), userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}
