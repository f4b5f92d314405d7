package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is the master list of spending categories shown in the
// daily checklist (Food, Transport, and so on).
type ExpenseCategory struct {
	Base
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`

	ChecklistItems []ChecklistItem `gorm:"foreignKey:CategoryID" json:"checklist_items,omitempty"`
	Expenses       []Expense       `gorm:"foreignKey:CategoryID" json:"expenses,omitempty"`
}

// ChecklistItem is one row of the fixed daily expense checklist. The frontend
// renders active items in display order every day; only checked rows become
// Expense records.
type ChecklistItem struct {
	Base
	CategoryID   uint `gorm:"not null;index" json:"category_id"`
	DisplayOrder int  `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool `gorm:"default:true" json:"is_active"`

	Category ExpenseCategory `gorm:"foreignKey:CategoryID" json:"category"`
}

// Expense is a single spending record. Expenses are append-only: the core
// never updates or deletes them, so there is no UpdatedAt and no soft delete.
type Expense struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	StudentID  uint            `gorm:"not null;index" json:"student_id"`
	CategoryID uint            `gorm:"not null;index" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Date       time.Time       `gorm:"not null;index" json:"date"`
	// IsAdditional marks unplanned spending outside the daily checklist.
	IsAdditional bool      `gorm:"not null;default:false" json:"is_additional"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`

	Category ExpenseCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// BudgetSnapshot is the immutable record of a completed budget cycle,
// emitted once by the monthly reset. Never edited afterwards.
type BudgetSnapshot struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	StudentID       uint            `gorm:"not null;index" json:"student_id"`
	Month           int             `gorm:"not null" json:"month"` // 1-12
	Year            int             `gorm:"not null" json:"year"`
	BudgetedAmount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"budgeted_amount"`
	TotalSpent      decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_spent"`
	RemainingBudget decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"remaining_budget"`
	CreatedAt       time.Time       `json:"created_at"`
}
