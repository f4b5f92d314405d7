package services

import (
	"time"

	"github.com/shopspring/decimal"

	"stipend/internal/budget"
	"stipend/internal/ledger"
	"stipend/internal/models"
	"stipend/internal/pagination"
)

// StudentServicer defines the contract for student profile business logic.
type StudentServicer interface {
	Onboard(subject, email, name string, monthlyBudget decimal.Decimal, startDate time.Time) (*models.Student, error)
	GetBySubject(subject string) (*models.Student, error)
	GetByID(id uint) (*models.Student, error)
	UpdateProfile(studentID uint, name string, monthlyBudget *decimal.Decimal, startDate *time.Time) (*models.Student, error)
}

// ChecklistSubmission is one checked row of the daily expense checklist.
type ChecklistSubmission struct {
	CategoryID uint            `json:"category_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required,dec_positive"`
	Notes      string          `json:"notes"`
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	FromDate     *time.Time
	ToDate       *time.Time
	CategoryID   *uint
	IsAdditional *bool
}

// ExpenseServicer defines the contract for expense recording and the daily
// checklist.
type ExpenseServicer interface {
	GetCategories() ([]models.ExpenseCategory, error)
	GetChecklist() ([]models.ChecklistItem, error)
	SubmitChecklist(studentID uint, day time.Time, items []ChecklistSubmission) ([]models.Expense, error)
	CreateExpense(studentID, categoryID uint, amount decimal.Decimal, date time.Time, isAdditional bool, notes string) (*models.Expense, error)
	GetStudentExpenses(studentID uint, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpensesForDay(studentID uint, day time.Time) ([]models.Expense, error)
}

// BudgetStatus is the derived view of a student's current budget cycle.
type BudgetStatus struct {
	MonthlyBudget   decimal.Decimal `json:"monthly_budget"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
	RemainingBudget decimal.Decimal `json:"remaining_budget"`
	CycleStart      time.Time       `json:"cycle_start"`
	CycleEnd        time.Time       `json:"cycle_end"`
	DaysElapsed     int             `json:"days_elapsed"`
	DaysRemaining   int             `json:"days_remaining"`
	DailyAllowance  decimal.Decimal `json:"daily_allowance"`
	Health          budget.Health   `json:"health"`
}

// BudgetServicer defines the contract for budget cycle accounting.
type BudgetServicer interface {
	RecomputeRemaining(studentID uint) (decimal.Decimal, error)
	GetStatus(studentID uint, asOf time.Time) (*BudgetStatus, error)
	ResetCycle(studentID uint, asOf time.Time) (*models.BudgetSnapshot, error)
	GetSnapshots(studentID uint, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetSnapshot], error)
}

// InvestmentSummary bundles an investment with its full transaction log and
// per-type totals derived from the log.
type InvestmentSummary struct {
	Investment   *models.Investment             `json:"investment"`
	Transactions []models.InvestmentTransaction `json:"transactions"`
	Totals       ledger.Totals                  `json:"totals"`
}

// InvestmentServicer defines the contract for the interest-bearing
// investment account and its append-only transaction log.
type InvestmentServicer interface {
	Open(studentID uint, initialAmount, monthlyRate decimal.Decimal) (*models.Investment, error)
	GetByStudent(studentID uint) (*models.Investment, error)
	UpdateRate(studentID uint, monthlyRate decimal.Decimal) (*models.Investment, error)
	Deposit(studentID uint, amount decimal.Decimal, notes string) (*models.InvestmentTransaction, error)
	Withdraw(studentID uint, amount decimal.Decimal, notes string) (*models.InvestmentTransaction, error)
	CreditInterest(studentID uint, asOf time.Time) (*models.InvestmentTransaction, error)
	CreditAllInterest(asOf time.Time) (int, error)
	GetSummary(studentID uint) (*InvestmentSummary, error)
}

// AdvisorServicer defines the contract for the advisory rule engine.
// Evaluate runs every rule against the student's current financial state and
// returns only the alerts actually created (same-day duplicates suppressed).
type AdvisorServicer interface {
	Evaluate(studentID uint, asOf time.Time) ([]models.Alert, error)
}

// AlertFilter holds optional filter parameters for listing alerts.
type AlertFilter struct {
	IsRead     *bool
	IsResolved *bool
	Type       *models.AlertType
	Severity   *models.AlertSeverity
}

// AlertServicer defines the contract for the alert store.
type AlertServicer interface {
	GetStudentAlerts(studentID uint, page pagination.PageRequest, filter AlertFilter) (*pagination.PageResponse[models.Alert], error)
	UnreadCount(studentID uint) (int64, error)
	MarkRead(studentID, alertID uint) (*models.Alert, error)
	Resolve(studentID, alertID uint) (*models.Alert, error)
	DeleteAlert(studentID, alertID uint) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(studentID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{})
}
