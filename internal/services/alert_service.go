package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "stipend/internal/errors"
	"stipend/internal/models"
	"stipend/internal/pagination"
)

// alertService handles the alert store: listing, read/resolve bookkeeping,
// and deletion. Alerts are only ever created by the advisor engine.
type alertService struct {
	db *gorm.DB
}

// NewAlertService creates a new AlertServicer.
func NewAlertService(db *gorm.DB) AlertServicer {
	return &alertService{db: db}
}

// GetStudentAlerts returns a paginated, filtered list of the student's
// alerts, newest first.
func (s *alertService) GetStudentAlerts(studentID uint, page pagination.PageRequest, filter AlertFilter) (*pagination.PageResponse[models.Alert], error) {
	page.Defaults()

	base := s.db.Model(&models.Alert{}).Where("student_id = ?", studentID)
	if filter.IsRead != nil {
		base = base.Where("is_read = ?", *filter.IsRead)
	}
	if filter.IsResolved != nil {
		base = base.Where("is_resolved = ?", *filter.IsResolved)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Severity != nil {
		base = base.Where("severity = ?", *filter.Severity)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var alerts []models.Alert
	err := base.Order("created_at DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&alerts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(alerts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UnreadCount returns the number of unread alerts for the student.
func (s *alertService) UnreadCount(studentID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Alert{}).
		Where("student_id = ? AND is_read = ?", studentID, false).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// MarkRead marks an alert as read, stamping ReadAt on the first call.
func (s *alertService) MarkRead(studentID, alertID uint) (*models.Alert, error) {
	alert, err := s.getOwned(studentID, alertID)
	if err != nil {
		return nil, err
	}

	if !alert.IsRead {
		now := time.Now().UTC()
		alert.IsRead = true
		alert.ReadAt = &now
		if err := s.db.Model(alert).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return alert, nil
}

// Resolve marks an alert as resolved (and read), stamping ResolvedAt.
// Resolved alerts no longer suppress same-day re-evaluation.
func (s *alertService) Resolve(studentID, alertID uint) (*models.Alert, error) {
	alert, err := s.getOwned(studentID, alertID)
	if err != nil {
		return nil, err
	}

	if !alert.IsResolved {
		now := time.Now().UTC()
		updates := map[string]interface{}{"is_resolved": true, "resolved_at": now}
		alert.IsResolved = true
		alert.ResolvedAt = &now
		if !alert.IsRead {
			updates["is_read"] = true
			updates["read_at"] = now
			alert.IsRead = true
			alert.ReadAt = &now
		}
		if err := s.db.Model(alert).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return alert, nil
}

// DeleteAlert removes an alert entirely.
func (s *alertService) DeleteAlert(studentID, alertID uint) error {
	alert, err := s.getOwned(studentID, alertID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// getOwned returns the alert if it belongs to the student.
func (s *alertService) getOwned(studentID, alertID uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.db.Where("id = ? AND student_id = ?", alertID, studentID).First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &alert, nil
}
