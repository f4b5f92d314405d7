package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"stipend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// FirstOfMonth returns midnight UTC on the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CreateTestStudent creates a student with a 500.00 monthly budget starting
// on the first of the current month.
func CreateTestStudent(t *testing.T, db *gorm.DB) *models.Student {
	t.Helper()
	return CreateTestStudentWithBudget(t, db, decimal.NewFromInt(500), FirstOfMonth(time.Now().UTC()))
}

// CreateTestStudentWithBudget creates a student with the given monthly budget
// and cycle start date. RemainingBudget starts equal to the monthly budget.
func CreateTestStudentWithBudget(t *testing.T, db *gorm.DB, monthly decimal.Decimal, start time.Time) *models.Student {
	t.Helper()

	n := nextID()
	student := &models.Student{
		Subject:         fmt.Sprintf("sub-%d", n),
		Email:           fmt.Sprintf("student%d@test.com", n),
		Name:            fmt.Sprintf("Test Student %d", n),
		MonthlyBudget:   monthly,
		BudgetStartDate: start,
		RemainingBudget: monthly,
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("failed to create test student: %v", err)
	}
	return student
}

// CreateTestCategory creates an expense category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB) *models.ExpenseCategory {
	t.Helper()

	category := &models.ExpenseCategory{
		Name: fmt.Sprintf("Test Category %d", nextID()),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestChecklistItem creates an active checklist item for the category.
func CreateTestChecklistItem(t *testing.T, db *gorm.DB, categoryID uint, order int) *models.ChecklistItem {
	t.Helper()

	item := &models.ChecklistItem{
		CategoryID:   categoryID,
		DisplayOrder: order,
		IsActive:     true,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test checklist item: %v", err)
	}
	return item
}

// CreateTestExpense creates a planned expense dated now.
func CreateTestExpense(t *testing.T, db *gorm.DB, studentID, categoryID uint, amount decimal.Decimal) *models.Expense {
	t.Helper()
	return CreateTestExpenseOn(t, db, studentID, categoryID, amount, time.Now().UTC(), false)
}

// CreateTestExpenseOn creates an expense with the given date and planned flag.
func CreateTestExpenseOn(t *testing.T, db *gorm.DB, studentID, categoryID uint, amount decimal.Decimal, date time.Time, additional bool) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		StudentID:    studentID,
		CategoryID:   categoryID,
		Amount:       amount,
		Date:         date,
		IsAdditional: additional,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestInvestment creates an investment account with the given balance
// and a 5.00% monthly interest rate.
func CreateTestInvestment(t *testing.T, db *gorm.DB, studentID uint, balance decimal.Decimal) *models.Investment {
	t.Helper()

	inv := &models.Investment{
		StudentID:           studentID,
		Balance:             balance,
		MonthlyInterestRate: decimal.NewFromInt(5),
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}

// CreateTestAlert creates an unread, unresolved alert.
func CreateTestAlert(t *testing.T, db *gorm.DB, studentID uint, alertType models.AlertType, severity models.AlertSeverity, title string) *models.Alert {
	t.Helper()

	alert := &models.Alert{
		StudentID: studentID,
		Type:      alertType,
		Severity:  severity,
		Title:     title,
		Message:   fmt.Sprintf("test alert %d", nextID()),
		DedupeKey: fmt.Sprintf("%d|%s|%s|%s", studentID, alertType, title, time.Now().UTC().Format("2006-01-02")),
	}
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to create test alert: %v", err)
	}
	return alert
}
