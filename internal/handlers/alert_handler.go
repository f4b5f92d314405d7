package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "stipend/internal/errors"
	"stipend/internal/models"
	"stipend/internal/pagination"
	"stipend/internal/services"
)

// AlertHandler handles advisory evaluation and the alert store.
type AlertHandler struct {
	advisorService services.AdvisorServicer
	alertService   services.AlertServicer
	studentService services.StudentServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(advisorService services.AdvisorServicer, alertService services.AlertServicer, studentService services.StudentServicer) *AlertHandler {
	return &AlertHandler{
		advisorService: advisorService,
		alertService:   alertService,
		studentService: studentService,
	}
}

// Evaluate runs the advisory rules for the authenticated student.
// @Summary     Evaluate advisory rules
// @Description Run every advisory rule and return the newly created alerts
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Alert "Newly created alerts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/evaluate [post]
func (h *AlertHandler) Evaluate(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alerts, err := h.advisorService.Evaluate(student.ID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// GetAlerts lists the student's alerts.
// @Summary     List alerts
// @Description Get a paginated, filtered list of alerts, newest first
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       is_read     query bool   false "Filter by read state"
// @Param       is_resolved query bool   false "Filter by resolved state"
// @Param       type        query string false "Filter by alert type"
// @Param       severity    query string false "Filter by severity (INFO/WARNING/CRITICAL)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Alert] "Paginated alerts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts [get]
func (h *AlertHandler) GetAlerts(c *gin.Context) {
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

	filter, err := parseAlertFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.alertService.GetStudentAlerts(student.ID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetUnreadCount returns the number of unread alerts.
// @Summary     Count unread alerts
// @Description Get the number of unread alerts for the authenticated student
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int64 "Unread count"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/unread-count [get]
func (h *AlertHandler) GetUnreadCount(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.alertService.UnreadCount(student.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead marks an alert as read.
// @Summary     Mark alert read
// @Description Mark an alert as read, stamping the read time on first call
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Alert ID"
// @Success     200 {object} models.Alert "Updated alert"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/{id}/read [put]
func (h *AlertHandler) MarkRead(c *gin.Context) {
	h.updateAlert(c, h.alertService.MarkRead)
}

// Resolve marks an alert as resolved.
// @Summary     Resolve alert
// @Description Resolve an alert so it stops suppressing same-day re-evaluation
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Alert ID"
// @Success     200 {object} models.Alert "Updated alert"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/{id}/resolve [put]
func (h *AlertHandler) Resolve(c *gin.Context) {
	h.updateAlert(c, h.alertService.Resolve)
}

// updateAlert is the shared read/resolve flow.
func (h *AlertHandler) updateAlert(c *gin.Context, op func(uint, uint) (*models.Alert, error)) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	alert, err := op(student.ID, alertID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// DeleteAlert removes an alert.
// @Summary     Delete alert
// @Description Delete an alert permanently
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Alert ID"
// @Success     204 "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	student, err := currentStudent(c, h.studentService)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.alertService.DeleteAlert(student.ID, alertID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseAlertFilter parses the optional alert list filters from the query
// string.
func parseAlertFilter(c *gin.Context) (services.AlertFilter, error) {
	var filter services.AlertFilter

	parseBool := func(name string) (*bool, error) {
		switch c.Query(name) {
		case "":
			return nil, nil
		case "true":
			b := true
			return &b, nil
		case "false":
			b := false
			return &b, nil
		default:
			return nil, apperrors.WithMessage(apperrors.ErrValidation, name+" must be 'true' or 'false'")
		}
	}

	isRead, err := parseBool("is_read")
	if err != nil {
		return filter, err
	}
	filter.IsRead = isRead

	isResolved, err := parseBool("is_resolved")
	if err != nil {
		return filter, err
	}
	filter.IsResolved = isResolved

	if v := c.Query("type"); v != "" {
		t := models.AlertType(v)
		switch t {
		case models.AlertBudgetRisk, models.AlertFixedExpenseRisk, models.AlertInvestmentSuggestion,
			models.AlertSpendingPattern, models.AlertGeneral:
			filter.Type = &t
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "unknown alert type")
		}
	}

	if v := c.Query("severity"); v != "" {
		s := models.AlertSeverity(v)
		switch s {
		case models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
			filter.Severity = &s
		default:
			return filter, apperrors.WithMessage(apperrors.ErrValidation, "unknown severity")
		}
	}

	return filter, nil
}
