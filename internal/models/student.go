package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Student represents a student account with a rolling monthly budget cycle.
//
// RemainingBudget is a cached projection: the source of truth is always
// MonthlyBudget minus the sum of expenses dated within the current cycle.
// The budget service recomputes it on every read and after every expense
// write; nothing else may trust the stored value.
type Student struct {
	Base
	Subject string `gorm:"uniqueIndex;not null" json:"-"` // identity provider subject id
	Email   string `gorm:"uniqueIndex;not null" json:"email"`
	Name    string `gorm:"not null" json:"name"`

	MonthlyBudget   decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"monthly_budget"`
	BudgetStartDate time.Time       `gorm:"not null" json:"budget_start_date"` // first day of current cycle
	RemainingBudget decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"remaining_budget"`

	// Relationships
	Expenses    []Expense        `gorm:"foreignKey:StudentID" json:"expenses,omitempty"`
	Snapshots   []BudgetSnapshot `gorm:"foreignKey:StudentID" json:"snapshots,omitempty"`
	Investment  *Investment      `gorm:"foreignKey:StudentID" json:"investment,omitempty"`
	Alerts      []Alert          `gorm:"foreignKey:StudentID" json:"alerts,omitempty"`
}
