package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stipend/internal/errors"
	"stipend/internal/models"
	"stipend/internal/services"
)

// InvestmentHandler handles investment account requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	studentService    services.StudentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, studentService services.StudentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		studentService:    studentService,
		auditService:      auditService,
	}
}

// OpenInvestmentRequest represents the request payload for opening an account.
type OpenInvestmentRequest struct {
	InitialAmount       decimal.Decimal `json:"initial_amount" binding:"dec_nonneg"`
	MonthlyInterestRate decimal.Decimal `json:"monthly_interest_rate" binding:"rate_percent"`
}

// UpdateRateRequest represents the request payload for changing the rate.
type UpdateRateRequest struct {
	MonthlyInterestRate decimal.Decimal `json:"monthly_interest_rate" binding:"rate_percent"`
}

// MoveMoneyRequest represents a deposit or withdrawal payload.
type MoveMoneyRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dec_positive"`
	Notes  string          `json:"notes" binding:"omitempty,max=500"`
}

// Open creates the student's investment account.
// @Summary     Open investment account
// @Description Open the one-per-student investment account, optionally with an opening deposit
// @Tags        investment
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OpenInvestmentRequest true "Account details"
// @Success     201 {object} models.Investment "Account opened"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Account already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment [post]
func (h *InvestmentHandler) Open(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OpenInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	inv, err := h.investmentService.Open(student.ID, req.InitialAmount, req.MonthlyInterestRate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "OPEN_INVESTMENT", "investment", inv.ID, c.ClientIP(),
		map[string]interface{}{"initial_amount": req.InitialAmount, "rate": req.MonthlyInterestRate})

	c.JSON(http.StatusCreated, gin.H{"investment": inv})
}

// Get returns the student's investment account.
// @Summary     Get investment account
// @Description Get the authenticated student's investment account
// @Tags        investment
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Investment "Account"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment [get]
func (h *InvestmentHandler) Get(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	inv, err := h.investmentService.GetByStudent(student.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

// UpdateRate changes the monthly interest rate.
// @Summary     Update interest rate
// @Description Change the monthly interest rate for future credits
// @Tags        investment
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateRateRequest true "New rate"
// @Success     200 {object} models.Investment "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment/rate [put]
func (h *InvestmentHandler) UpdateRate(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	inv, err := h.investmentService.UpdateRate(student.ID, req.MonthlyInterestRate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "UPDATE_RATE", "investment", inv.ID, c.ClientIP(),
		map[string]interface{}{"rate": req.MonthlyInterestRate})

	c.JSON(http.StatusOK, gin.H{"investment": inv})
}

// Deposit moves money into the investment account.
// @Summary     Deposit
// @Description Move money into the investment account
// @Tags        investment
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MoveMoneyRequest true "Amount"
// @Success     201 {object} models.Investment "Updated account with the logged entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment/deposit [post]
func (h *InvestmentHandler) Deposit(c *gin.Context) {
	h.moveMoney(c, "DEPOSIT", h.investmentService.Deposit)
}

// Withdraw moves money out of the investment account.
// @Summary     Withdraw
// @Description Move money out of the investment account
// @Tags        investment
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MoveMoneyRequest true "Amount"
// @Success     201 {object} models.Investment "Updated account with the logged entry"
// @Failure     400 {object} ErrorResponse "Insufficient funds or invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment/withdraw [post]
func (h *InvestmentHandler) Withdraw(c *gin.Context) {
	h.moveMoney(c, "WITHDRAW", h.investmentService.Withdraw)
}

// moveMoney is the shared deposit/withdraw flow.
func (h *InvestmentHandler) moveMoney(c *gin.Context, action string, op func(uint, decimal.Decimal, string) (*models.InvestmentTransaction, error)) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MoveMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	record, err := op(student.ID, req.Amount, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	inv, err := h.investmentService.GetByStudent(student.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, action, "investment_transaction", record.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"investment": inv, "transaction": record})
}

// CreditInterest applies the current period's interest on demand.
// @Summary     Credit interest
// @Description Apply one period's interest; no-op when already credited this month
// @Tags        investment
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.InvestmentTransaction "Interest entry, null when no-op"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment/interest [post]
func (h *InvestmentHandler) CreditInterest(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := h.investmentService.CreditInterest(student.ID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	if record != nil {
		h.auditService.Log(student.ID, "CREDIT_INTEREST", "investment_transaction", record.ID, c.ClientIP(),
			map[string]interface{}{"amount": record.Amount})
	}
	c.JSON(http.StatusOK, gin.H{"transaction": record})
}

// GetSummary returns the account with its full log and totals.
// @Summary     Get investment summary
// @Description Get the account, its transaction log newest first, and per-type totals
// @Tags        investment
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.InvestmentSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investment/summary [get]
func (h *InvestmentHandler) GetSummary(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.investmentService.GetSummary(student.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
