package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stipend/internal/budget"
	apperrors "stipend/internal/errors"
	"stipend/internal/models"
)

// studentService handles student profile business logic.
type studentService struct {
	db *gorm.DB
}

// NewStudentService creates a new StudentServicer.
func NewStudentService(db *gorm.DB) StudentServicer {
	return &studentService{db: db}
}

// Onboard creates a student profile for an identity provider subject. The
// remaining budget starts equal to the monthly budget and the start date is
// truncated to a calendar day.
func (s *studentService) Onboard(subject, email, name string, monthlyBudget decimal.Decimal, startDate time.Time) (*models.Student, error) {
	if monthlyBudget.Sign() < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "monthly budget cannot be negative")
	}
	if startDate.IsZero() {
		startDate = time.Now().UTC()
	}

	var existing models.Student
	err := s.db.Where("subject = ?", subject).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrStudentExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	student := &models.Student{
		Subject:         subject,
		Email:           email,
		Name:            name,
		MonthlyBudget:   monthlyBudget.Round(2),
		BudgetStartDate: budget.Day(startDate),
		RemainingBudget: monthlyBudget.Round(2),
	}
	if err := s.db.Create(student).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return student, nil
}

// GetBySubject returns the student owning the given identity subject.
func (s *studentService) GetBySubject(subject string) (*models.Student, error) {
	var student models.Student
	if err := s.db.Where("subject = ?", subject).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &student, nil
}

// GetByID returns a student by primary key.
func (s *studentService) GetByID(id uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &student, nil
}

// UpdateProfile updates a student's name, monthly budget, or cycle start
// date.
//
// When the monthly budget changes mid-cycle the remaining budget is rescaled
// so the spent amount is preserved: remaining = newMonthly - spentSoFar.
// When the start date changes the cycle is re-anchored and the remaining
// budget recomputed from expenses inside the new window.
func (s *studentService) UpdateProfile(studentID uint, name string, monthlyBudget *decimal.Decimal, startDate *time.Time) (*models.Student, error) {
	student, err := s.GetByID(studentID)
	if err != nil {
		return nil, err
	}

	if monthlyBudget != nil && monthlyBudget.Sign() < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "monthly budget cannot be negative")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if name != "" {
			student.Name = name
		}
		if monthlyBudget != nil {
			student.MonthlyBudget = monthlyBudget.Round(2)
		}
		if startDate != nil {
			student.BudgetStartDate = budget.Day(*startDate)
		}

		if monthlyBudget != nil || startDate != nil {
			spent, sumErr := sumCycleExpenses(tx, student.ID, student.BudgetStartDate)
			if sumErr != nil {
				return sumErr
			}
			student.RemainingBudget = student.MonthlyBudget.Sub(spent)
		}

		if err := tx.Save(student).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return student, nil
}

// sumCycleExpenses totals a student's expenses dated within the budget cycle
// starting at start. Summation happens in Go over exact decimals rather than
// in SQL, so SQLite tests and Postgres agree to the cent.
func sumCycleExpenses(tx *gorm.DB, studentID uint, start time.Time) (decimal.Decimal, error) {
	from, to := budget.CycleWindow(start)

	var expenses []models.Expense
	err := tx.Where("student_id = ? AND date >= ? AND date < ?", studentID, from, to).
		Find(&expenses).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total, nil
}
