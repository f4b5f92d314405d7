package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "stipend/internal/errors"
	"stipend/internal/pagination"
	"stipend/internal/services"
)

// BudgetHandler handles budget cycle requests.
type BudgetHandler struct {
	budgetService  services.BudgetServicer
	studentService services.StudentServicer
	auditService   services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, studentService services.StudentServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService:  budgetService,
		studentService: studentService,
		auditService:   auditService,
	}
}

// GetStatus returns the authenticated student's current budget status.
// @Summary     Get budget status
// @Description Get the derived budget cycle view: spend, remaining, daily allowance, and health
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.BudgetStatus "Budget status"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/status [get]
func (h *BudgetHandler) GetStatus(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status, err := h.budgetService.GetStatus(student.ID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// ResetCycle closes the current budget cycle and starts a fresh one.
// @Summary     Reset budget cycle
// @Description Snapshot the finished cycle and restore the full monthly budget
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Student "Updated profile with the snapshot of the closed cycle"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/reset [post]
func (h *BudgetHandler) ResetCycle(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.budgetService.ResetCycle(student.ID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	fresh, err := h.studentService.GetByID(student.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "RESET_CYCLE", "budget_snapshot", snapshot.ID, c.ClientIP(),
		map[string]interface{}{"month": snapshot.Month, "year": snapshot.Year})

	c.JSON(http.StatusOK, gin.H{"student": fresh, "snapshot": snapshot})
}

// GetSnapshots lists the student's closed budget cycles.
// @Summary     List cycle history
// @Description Get a paginated list of closed budget cycles, newest first
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetSnapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/history [get]
func (h *BudgetHandler) GetSnapshots(c *gin.Context) {
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

	result, err := h.budgetService.GetSnapshots(student.ID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
