// Package ledger provides the exact-decimal primitives behind the
// investment transaction log: signed entry application, interest
// computation, per-type totals, and reconciliation of a balance against
// its append-only entry chain.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// EntryType identifies the kind of a ledger entry.
type EntryType string

const (
	EntryInvest   EntryType = "INVEST"
	EntryInterest EntryType = "INTEREST"
	EntryWithdraw EntryType = "WITHDRAW"
)

// Sentinel errors returned by the primitives. The service layer maps these
// onto API error codes.
var (
	ErrUnknownEntryType    = errors.New("ledger: unknown entry type")
	ErrNonPositiveAmount   = errors.New("ledger: entry amount must be positive")
	ErrInsufficientBalance = errors.New("ledger: entry would drive balance negative")
	ErrOutOfBalance        = errors.New("ledger: balance does not reconcile with entry chain")
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryInvest, EntryInterest, EntryWithdraw:
		return true
	}
	return false
}

// Sign returns +1 for credits (INVEST, INTEREST) and -1 for debits (WITHDRAW).
func (t EntryType) Sign() int {
	if t == EntryWithdraw {
		return -1
	}
	return 1
}

// Entry is the balance-affecting view of a logged transaction.
type Entry struct {
	Type          EntryType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// Apply computes the balance after applying one entry. Amounts must be
// positive and withdrawals may never drive the balance below zero.
func Apply(balance decimal.Decimal, t EntryType, amount decimal.Decimal) (decimal.Decimal, error) {
	if !t.Valid() {
		return balance, ErrUnknownEntryType
	}
	if amount.Sign() <= 0 {
		return balance, ErrNonPositiveAmount
	}
	if t.Sign() < 0 {
		if amount.GreaterThan(balance) {
			return balance, ErrInsufficientBalance
		}
		return balance.Sub(amount), nil
	}
	return balance.Add(amount), nil
}

// Interest computes one period's interest on balance at ratePercent
// (per-month percentage), rounded to 2 decimal places.
func Interest(balance, ratePercent decimal.Decimal) decimal.Decimal {
	return balance.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
}

// Totals holds the per-type aggregate amounts of an entry chain. They are
// always derived from the log itself, never kept as counters.
type Totals struct {
	Invested  decimal.Decimal `json:"total_invested"`
	Interest  decimal.Decimal `json:"total_interest_earned"`
	Withdrawn decimal.Decimal `json:"total_withdrawn"`
}

// Sum folds an entry chain into per-type totals.
func Sum(entries []Entry) Totals {
	t := Totals{
		Invested:  decimal.Zero,
		Interest:  decimal.Zero,
		Withdrawn: decimal.Zero,
	}
	for _, e := range entries {
		switch e.Type {
		case EntryInvest:
			t.Invested = t.Invested.Add(e.Amount)
		case EntryInterest:
			t.Interest = t.Interest.Add(e.Amount)
		case EntryWithdraw:
			t.Withdrawn = t.Withdrawn.Add(e.Amount)
		}
	}
	return t
}

// Reconcile verifies that an entry chain is internally consistent and that
// replaying it from a zero opening balance reproduces closing. Each entry's
// before/after pair must also match the running balance, so a single edited
// row is detected even when the end sum still happens to agree.
func Reconcile(entries []Entry, closing decimal.Decimal) error {
	running := decimal.Zero
	for _, e := range entries {
		if !e.BalanceBefore.Equal(running) {
			return ErrOutOfBalance
		}
		next, err := Apply(running, e.Type, e.Amount)
		if err != nil {
			return err
		}
		if !e.BalanceAfter.Equal(next) {
			return ErrOutOfBalance
		}
		running = next
	}
	if !running.Equal(closing) {
		return ErrOutOfBalance
	}
	return nil
}
