package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stipend/internal/errors"
	"stipend/internal/pagination"
	"stipend/internal/services"
)

// ExpenseHandler handles expense and checklist requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	studentService services.StudentServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, studentService services.StudentServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		studentService: studentService,
		auditService:   auditService,
	}
}

// CreateExpenseRequest represents the request payload for recording an expense.
type CreateExpenseRequest struct {
	CategoryID   uint            `json:"category_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required,dec_positive"`
	Date         *time.Time      `json:"date"`
	IsAdditional bool            `json:"is_additional"`
	Notes        string          `json:"notes" binding:"omitempty,max=500"`
}

// SubmitChecklistRequest represents one day's checklist submission.
type SubmitChecklistRequest struct {
	Date  *time.Time                     `json:"date"`
	Items []services.ChecklistSubmission `json:"items" binding:"dive"`
}

// GetCategories lists all expense categories.
// @Summary     List categories
// @Description List all expense categories
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.ExpenseCategory "Categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *ExpenseHandler) GetCategories(c *gin.Context) {
	categories, err := h.expenseService.GetCategories()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetChecklist returns the active daily checklist.
// @Summary     Get daily checklist
// @Description Get the active checklist items in display order
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.ChecklistItem "Checklist items"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /checklist [get]
func (h *ExpenseHandler) GetChecklist(c *gin.Context) {
	items, err := h.expenseService.GetChecklist()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SubmitChecklist records the checked rows of one day's checklist.
// @Summary     Submit daily checklist
// @Description Record the checked checklist rows as planned expenses
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SubmitChecklistRequest true "Checked rows"
// @Success     201 {array} models.Expense "Recorded expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /checklist/submit [post]
func (h *ExpenseHandler) SubmitChecklist(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SubmitChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	day := time.Time{}
	if req.Date != nil {
		day = *req.Date
	}

	created, err := h.expenseService.SubmitChecklist(student.ID, day, req.Items)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "SUBMIT_CHECKLIST", "expense", 0, c.ClientIP(),
		map[string]interface{}{"items": len(created)})

	c.JSON(http.StatusCreated, gin.H{"expenses": created})
}

// CreateExpense records a single expense.
// @Summary     Record expense
// @Description Record a single planned or additional expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	date := time.Time{}
	if req.Date != nil {
		date = *req.Date
	}

	expense, err := h.expenseService.CreateExpense(student.ID, req.CategoryID, req.Amount, date, req.IsAdditional, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"amount": req.Amount, "category_id": req.CategoryID, "is_additional": req.IsAdditional})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists the authenticated student's expenses.
// @Summary     List expenses
// @Description Get a paginated, filtered list of expenses, newest first
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from_date     query string false "Filter from date (RFC 3339)"
// @Param       to_date       query string false "Filter to date (RFC 3339)"
// @Param       category_id   query int    false "Filter by category"
// @Param       is_additional query bool   false "Filter by planned/additional"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetStudentExpenses(student.ID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetExpensesForDay lists the student's expenses for a single day.
// @Summary     List a day's expenses
// @Description Get the expenses recorded on the given date (default today)
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       date query string false "Date (RFC 3339, default today)"
// @Success     200 {array} models.Expense "Expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/day [get]
func (h *ExpenseHandler) GetExpensesForDay(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	day := time.Now().UTC()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "date must be RFC 3339"))
			return
		}
		day = parsed
	}

	expenses, err := h.expenseService.GetExpensesForDay(student.ID, day)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expenses": expenses})
}

// parseExpenseFilter parses the optional expense list filters from the query
// string.
func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	var filter services.ExpenseFilter

	if v := c.Query("from_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "from_date must be RFC 3339")
		}
		filter.FromDate = &t
	}
	if v := c.Query("to_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "to_date must be RFC 3339")
		}
		filter.ToDate = &t
	}
	if v := c.Query("category_id"); v != "" {
		id, err := parseQueryUint(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "category_id must be a positive integer")
		}
		filter.CategoryID = &id
	}
	if v := c.Query("is_additional"); v != "" {
		switch v {
		case "true":
			b := true
			filter.IsAdditional = &b
		case "false":
			b := false
			filter.IsAdditional = &b
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "is_additional must be 'true' or 'false'")
		}
	}
	return filter, nil
}
