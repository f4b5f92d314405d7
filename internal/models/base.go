package models

import "time"

// Base contains common columns for mutable tables.
// Immutable time-series tables (expenses, investment transactions, budget
// snapshots) declare their own ID and CreatedAt and omit UpdatedAt.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
