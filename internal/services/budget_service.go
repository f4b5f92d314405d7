package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stipend/internal/budget"
	apperrors "stipend/internal/errors"
	"stipend/internal/models"
	"stipend/internal/pagination"
)

// budgetService handles budget cycle accounting. The expense log is the
// source of truth; Student.RemainingBudget is only ever a cache of
// MonthlyBudget minus the current cycle's expenses.
type budgetService struct {
	db             *gorm.DB
	studentService StudentServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, studentService StudentServicer) BudgetServicer {
	return &budgetService{
		db:             db,
		studentService: studentService,
	}
}

// RecomputeRemaining rederives the cached remaining budget from the expense
// log and stores it. Calling it any number of times without new expenses
// yields the same value.
func (s *budgetService) RecomputeRemaining(studentID uint) (decimal.Decimal, error) {
	student, err := s.studentService.GetByID(studentID)
	if err != nil {
		return decimal.Zero, err
	}

	spent, err := sumCycleExpenses(s.db, student.ID, student.BudgetStartDate)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := student.MonthlyBudget.Sub(spent)
	if !remaining.Equal(student.RemainingBudget) {
		if err := s.db.Model(student).Update("remaining_budget", remaining).Error; err != nil {
			return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return remaining, nil
}

// GetStatus derives the full budget cycle view as of the given time.
func (s *budgetService) GetStatus(studentID uint, asOf time.Time) (*BudgetStatus, error) {
	student, err := s.studentService.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	spent, err := sumCycleExpenses(s.db, student.ID, student.BudgetStartDate)
	if err != nil {
		return nil, err
	}
	remaining := student.MonthlyBudget.Sub(spent)

	if !remaining.Equal(student.RemainingBudget) {
		if err := s.db.Model(student).Update("remaining_budget", remaining).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	start, end := budget.CycleWindow(student.BudgetStartDate)
	daysRemaining := budget.DaysRemaining(student.BudgetStartDate, asOf)

	return &BudgetStatus{
		MonthlyBudget:   student.MonthlyBudget,
		TotalSpent:      spent,
		RemainingBudget: remaining,
		CycleStart:      start,
		CycleEnd:        end,
		DaysElapsed:     budget.DaysElapsed(student.BudgetStartDate, asOf),
		DaysRemaining:   daysRemaining,
		DailyAllowance:  budget.DailyAllowance(remaining, daysRemaining),
		Health:          budget.Classify(remaining, student.MonthlyBudget, daysRemaining),
	}, nil
}

// ResetCycle closes the current budget cycle: it snapshots the finished
// cycle's figures, re-anchors the start date to the first of asOf's month,
// and restores the remaining budget to the full monthly amount. Snapshot and
// student update commit atomically.
func (s *budgetService) ResetCycle(studentID uint, asOf time.Time) (*models.BudgetSnapshot, error) {
	student, err := s.studentService.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	var snapshot *models.BudgetSnapshot
	err = s.db.Transaction(func(tx *gorm.DB) error {
		spent, sumErr := sumCycleExpenses(tx, student.ID, student.BudgetStartDate)
		if sumErr != nil {
			return sumErr
		}

		start, cycleEnd := budget.CycleWindow(student.BudgetStartDate)
		snapshot = &models.BudgetSnapshot{
			StudentID:       student.ID,
			Month:           int(start.Month()),
			Year:            start.Year(),
			BudgetedAmount:  student.MonthlyBudget,
			TotalSpent:      spent,
			RemainingBudget: student.MonthlyBudget.Sub(spent),
		}
		if err := tx.Create(snapshot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// The next cycle starts where the closed one ended. A very late
		// reset anchors to the month it runs in instead, so the new cycle
		// never starts in the past beyond one boundary.
		newStart := cycleEnd
		if firstOfAsOf := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC); firstOfAsOf.After(newStart) {
			newStart = firstOfAsOf
		}
		updates := map[string]interface{}{
			"budget_start_date": newStart,
			"remaining_budget":  student.MonthlyBudget,
		}
		if err := tx.Model(student).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// GetSnapshots returns the student's cycle history, newest first.
func (s *budgetService) GetSnapshots(studentID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetSnapshot], error) {
	if _, err := s.studentService.GetByID(studentID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.BudgetSnapshot{}).Where("student_id = ?", studentID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.BudgetSnapshot
	err := base.Order("year DESC, month DESC").
		Scopes(pagination.Paginate(page)).
		Find(&snapshots).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
