package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stipend/internal/budget"
	apperrors "stipend/internal/errors"
	"stipend/internal/models"
	"stipend/internal/pagination"
)

// expenseService handles expense recording and the daily checklist.
type expenseService struct {
	db            *gorm.DB
	budgetService BudgetServicer
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB, budgetService BudgetServicer) ExpenseServicer {
	return &expenseService{
		db:            db,
		budgetService: budgetService,
	}
}

// GetCategories returns all expense categories ordered by name.
func (s *expenseService) GetCategories() ([]models.ExpenseCategory, error) {
	var categories []models.ExpenseCategory
	if err := s.db.Order("name").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetChecklist returns the active checklist items in display order with their
// categories preloaded.
func (s *expenseService) GetChecklist() ([]models.ChecklistItem, error) {
	var items []models.ChecklistItem
	err := s.db.Preload("Category").
		Where("is_active = ?", true).
		Order("display_order").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// SubmitChecklist records the checked rows of one day's checklist as planned
// expenses in a single transaction, then recomputes the remaining budget.
// An empty submission is valid and records nothing.
func (s *expenseService) SubmitChecklist(studentID uint, day time.Time, items []ChecklistSubmission) ([]models.Expense, error) {
	if day.IsZero() {
		day = time.Now().UTC()
	}
	day = budget.Day(day)

	created := make([]models.Expense, 0, len(items))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if item.Amount.Sign() <= 0 {
				return apperrors.WithMessage(apperrors.ErrValidation, "expense amount must be greater than zero")
			}
			if err := verifyCategory(tx, item.CategoryID); err != nil {
				return err
			}

			expense := models.Expense{
				StudentID:    studentID,
				CategoryID:   item.CategoryID,
				Amount:       item.Amount.Round(2),
				Date:         day,
				IsAdditional: false,
				Notes:        item.Notes,
			}
			if err := tx.Create(&expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, expense)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(created) > 0 {
		if _, err := s.budgetService.RecomputeRemaining(studentID); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// CreateExpense records a single expense. Unplanned spending outside the
// checklist is flagged IsAdditional so the advisory rules can track it.
func (s *expenseService) CreateExpense(studentID, categoryID uint, amount decimal.Decimal, date time.Time, isAdditional bool, notes string) (*models.Expense, error) {
	if amount.Sign() <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "expense amount must be greater than zero")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	if err := verifyCategory(s.db, categoryID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		StudentID:    studentID,
		CategoryID:   categoryID,
		Amount:       amount.Round(2),
		Date:         budget.Day(date),
		IsAdditional: isAdditional,
		Notes:        notes,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if _, err := s.budgetService.RecomputeRemaining(studentID); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetStudentExpenses returns a paginated, filtered list of the student's
// expenses, newest first.
func (s *expenseService) GetStudentExpenses(studentID uint, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("student_id = ?", studentID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", budget.Day(*filter.FromDate))
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", budget.Day(*filter.ToDate))
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsAdditional != nil {
		base = base.Where("is_additional = ?", *filter.IsAdditional)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	err := base.Preload("Category").
		Order("date DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpensesForDay returns the student's expenses dated on the given day.
func (s *expenseService) GetExpensesForDay(studentID uint, day time.Time) ([]models.Expense, error) {
	d := budget.Day(day)

	var expenses []models.Expense
	err := s.db.Preload("Category").
		Where("student_id = ? AND date >= ? AND date < ?", studentID, d, d.AddDate(0, 0, 1)).
		Order("id").
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// verifyCategory checks that a category exists.
func verifyCategory(tx *gorm.DB, categoryID uint) error {
	var category models.ExpenseCategory
	if err := tx.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
