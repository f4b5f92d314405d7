package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "stipend/internal/errors"
	"stipend/internal/services"
)

// StudentHandler handles student profile requests.
type StudentHandler struct {
	studentService services.StudentServicer
	auditService   services.AuditServicer
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService services.StudentServicer, auditService services.AuditServicer) *StudentHandler {
	return &StudentHandler{studentService: studentService, auditService: auditService}
}

// OnboardRequest represents the request payload for creating a profile.
type OnboardRequest struct {
	Name          string          `json:"name" binding:"required,min=1,max=100"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget" binding:"required,dec_nonneg"`
	StartDate     *time.Time      `json:"start_date"`
}

// UpdateProfileRequest represents the request payload for updating a profile.
type UpdateProfileRequest struct {
	Name          string           `json:"name" binding:"omitempty,min=1,max=100"`
	MonthlyBudget *decimal.Decimal `json:"monthly_budget" binding:"omitempty,dec_nonneg"`
	StartDate     *time.Time       `json:"start_date"`
}

// Onboard handles the creation of the authenticated subject's profile.
// @Summary     Create profile
// @Description Create the student profile for the authenticated identity
// @Tags        students
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OnboardRequest true "Profile details"
// @Success     201 {object} models.Student "Profile created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Profile already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /students [post]
func (h *StudentHandler) Onboard(c *gin.Context) {
	subject, err := getSubject(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	start := time.Time{}
	if req.StartDate != nil {
		start = *req.StartDate
	}

	student, err := h.studentService.Onboard(subject, getEmail(c), req.Name, req.MonthlyBudget, start)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(student.ID, "ONBOARD", "student", student.ID, c.ClientIP(),
		map[string]interface{}{"monthly_budget": req.MonthlyBudget})

	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// GetMe returns the authenticated student's profile.
// @Summary     Get profile
// @Description Get the authenticated student's profile
// @Tags        students
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.Student "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /students/me [get]
func (h *StudentHandler) GetMe(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"student": student})
}

// UpdateMe updates the authenticated student's profile.
// @Summary     Update profile
// @Description Update name, monthly budget, or cycle start date
// @Tags        students
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Fields to update"
// @Success     200 {object} models.Student "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /students/me [put]
func (h *StudentHandler) UpdateMe(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		return
	}

	updated, err := h.studentService.UpdateProfile(student.ID, req.Name, req.MonthlyBudget, req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != "" {
		changes["name"] = req.Name
	}
	if req.MonthlyBudget != nil {
		changes["monthly_budget"] = *req.MonthlyBudget
	}
	if req.StartDate != nil {
		changes["start_date"] = *req.StartDate
	}
	h.auditService.Log(student.ID, "UPDATE_PROFILE", "student", student.ID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"student": updated})
}
