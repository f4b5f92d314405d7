package models

import "time"

// AlertType classifies an advisory alert.
type AlertType string

const (
	AlertBudgetRisk           AlertType = "BUDGET_RISK"
	AlertFixedExpenseRisk     AlertType = "FIXED_EXPENSE_RISK"
	AlertInvestmentSuggestion AlertType = "INVESTMENT_SUGGESTION"
	AlertSpendingPattern      AlertType = "SPENDING_PATTERN"
	AlertGeneral              AlertType = "GENERAL"
)

// AlertSeverity is the urgency level of an alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "INFO"
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// Alert is an advisory notification produced by the rule engine. The engine
// only ever creates alerts; read/resolve updates come from the API layer and
// alerts never mutate financial state.
type Alert struct {
	Base
	StudentID uint          `gorm:"not null;index" json:"student_id"`
	Type      AlertType     `gorm:"not null;index" json:"type"`
	Severity  AlertSeverity `gorm:"not null" json:"severity"`
	Title     string        `gorm:"size:200;not null" json:"title"`
	Message   string        `gorm:"not null" json:"message"`

	// DedupeKey is "studentID|type|title|YYYY-MM-DD" for the evaluation day.
	// The engine suppresses a new alert when an unresolved alert with the
	// same key already exists, making same-day re-evaluation idempotent.
	DedupeKey string `gorm:"size:300;index" json:"-"`

	IsRead     bool       `gorm:"not null;default:false" json:"is_read"`
	IsResolved bool       `gorm:"not null;default:false" json:"is_resolved"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
