package models

import (
	"time"

	"github.com/shopspring/decimal"

	"stipend/internal/ledger"
)

// Investment is a student's interest-bearing account. One per student.
//
// Balance must always equal the running sum of the account's transactions'
// signed amounts; the transaction log is the source of truth and the ledger
// package can reconcile the two.
type Investment struct {
	Base
	StudentID           uint            `gorm:"not null;uniqueIndex" json:"student_id"`
	Balance             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"balance"`
	MonthlyInterestRate decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"monthly_interest_rate"` // percent, [0,100]
	// LastInterestPeriod is the "YYYY-MM" of the last interest credit.
	// creditInterest no-ops when called again within the same period.
	LastInterestPeriod string `gorm:"size:7" json:"last_interest_period,omitempty"`

	Transactions []InvestmentTransaction `gorm:"foreignKey:InvestmentID" json:"transactions,omitempty"`
}

// InvestmentTransaction is one append-only entry in an investment's audit
// trail. BalanceBefore and BalanceAfter make the chain self-verifying:
// BalanceAfter = BalanceBefore + amount for INVEST/INTEREST and
// BalanceBefore - amount for WITHDRAW.
type InvestmentTransaction struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	InvestmentID  uint             `gorm:"not null;index" json:"investment_id"`
	Type          ledger.EntryType `gorm:"not null;index" json:"type"`
	Amount        decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"amount"`
	BalanceBefore decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"balance_before"`
	BalanceAfter  decimal.Decimal  `gorm:"type:numeric(10,2);not null" json:"balance_after"`
	Notes         string           `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`
}
