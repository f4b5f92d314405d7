package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "stipend/internal/errors"
	"stipend/internal/ledger"
	"stipend/internal/logger"
	"stipend/internal/models"
)

// interestPeriodFormat is the "YYYY-MM" marker stored on an investment after
// each interest credit.
const interestPeriodFormat = "2006-01"

// investmentService handles the interest-bearing investment account and its
// append-only transaction log.
type investmentService struct {
	db *gorm.DB
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB) InvestmentServicer {
	return &investmentService{db: db}
}

// Open creates the student's investment account. One account per student;
// a positive opening amount is logged as the first INVEST entry.
func (s *investmentService) Open(studentID uint, initialAmount, monthlyRate decimal.Decimal) (*models.Investment, error) {
	if initialAmount.Sign() < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "initial amount cannot be negative")
	}
	if err := validateRate(monthlyRate); err != nil {
		return nil, err
	}

	var existing models.Investment
	err := s.db.Where("student_id = ?", studentID).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrInvestmentExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	inv := &models.Investment{
		StudentID:           studentID,
		Balance:             initialAmount.Round(2),
		MonthlyInterestRate: monthlyRate.Round(2),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inv).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if initialAmount.Sign() > 0 {
			opening := &models.InvestmentTransaction{
				InvestmentID:  inv.ID,
				Type:          ledger.EntryInvest,
				Amount:        inv.Balance,
				BalanceBefore: decimal.Zero,
				BalanceAfter:  inv.Balance,
				Notes:         "Opening deposit",
			}
			if err := tx.Create(opening).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetByStudent returns the student's investment account.
func (s *investmentService) GetByStudent(studentID uint) (*models.Investment, error) {
	var inv models.Investment
	if err := s.db.Where("student_id = ?", studentID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &inv, nil
}

// UpdateRate changes the monthly interest rate. The new rate only affects
// future interest credits; the log is never rewritten.
func (s *investmentService) UpdateRate(studentID uint, monthlyRate decimal.Decimal) (*models.Investment, error) {
	if err := validateRate(monthlyRate); err != nil {
		return nil, err
	}

	inv, err := s.GetByStudent(studentID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(inv).Update("monthly_interest_rate", monthlyRate.Round(2)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return inv, nil
}

// Deposit moves money into the investment account as an INVEST entry.
func (s *investmentService) Deposit(studentID uint, amount decimal.Decimal, notes string) (*models.InvestmentTransaction, error) {
	return s.apply(studentID, ledger.EntryInvest, amount, notes)
}

// Withdraw moves money out of the investment account as a WITHDRAW entry.
// Fails with INSUFFICIENT_FUNDS when the amount exceeds the balance, leaving
// both balance and log untouched.
func (s *investmentService) Withdraw(studentID uint, amount decimal.Decimal, notes string) (*models.InvestmentTransaction, error) {
	return s.apply(studentID, ledger.EntryWithdraw, amount, notes)
}

// apply runs one ledger entry against the account atomically: the balance
// update and the log append commit together or not at all.
func (s *investmentService) apply(studentID uint, entryType ledger.EntryType, amount decimal.Decimal, notes string) (*models.InvestmentTransaction, error) {
	amount = amount.Round(2)

	var record *models.InvestmentTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.Where("student_id = ?", studentID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvestmentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		after, err := ledger.Apply(inv.Balance, entryType, amount)
		if err != nil {
			return mapLedgerError(err)
		}

		record = &models.InvestmentTransaction{
			InvestmentID:  inv.ID,
			Type:          entryType,
			Amount:        amount,
			BalanceBefore: inv.Balance,
			BalanceAfter:  after,
			Notes:         notes,
		}
		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&inv).Update("balance", after).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreditInterest applies one period's interest to the account. It is a
// no-op, returning a nil transaction, when the balance is not positive or
// when interest was already credited for asOf's calendar month.
func (s *investmentService) CreditInterest(studentID uint, asOf time.Time) (*models.InvestmentTransaction, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	period := asOf.Format(interestPeriodFormat)

	var record *models.InvestmentTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Investment
		if err := tx.Where("student_id = ?", studentID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrInvestmentNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if inv.Balance.Sign() <= 0 || inv.LastInterestPeriod == period {
			return nil
		}

		interest := ledger.Interest(inv.Balance, inv.MonthlyInterestRate)
		if interest.Sign() <= 0 {
			return nil
		}

		after, err := ledger.Apply(inv.Balance, ledger.EntryInterest, interest)
		if err != nil {
			return mapLedgerError(err)
		}

		record = &models.InvestmentTransaction{
			InvestmentID:  inv.ID,
			Type:          ledger.EntryInterest,
			Amount:        interest,
			BalanceBefore: inv.Balance,
			BalanceAfter:  after,
			Notes:         fmt.Sprintf("Monthly interest at %s%% for %s", inv.MonthlyInterestRate.StringFixed(2), period),
		}
		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		updates := map[string]interface{}{
			"balance":              after,
			"last_interest_period": period,
		}
		if err := tx.Model(&inv).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreditAllInterest credits interest to every account with a positive
// balance and returns the number of accounts actually credited. A failure on
// one account is logged and does not stop the run.
func (s *investmentService) CreditAllInterest(asOf time.Time) (int, error) {
	var investments []models.Investment
	if err := s.db.Where("balance > ?", decimal.Zero).Find(&investments).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	credited := 0
	for _, inv := range investments {
		record, err := s.CreditInterest(inv.StudentID, asOf)
		if err != nil {
			logger.Get().Errorw("failed to credit interest",
				"error", err,
				"student_id", inv.StudentID,
				"investment_id", inv.ID,
			)
			continue
		}
		if record != nil {
			credited++
		}
	}
	return credited, nil
}

// GetSummary returns the account, its full transaction log newest first, and
// per-type totals derived from the log.
func (s *investmentService) GetSummary(studentID uint) (*InvestmentSummary, error) {
	inv, err := s.GetByStudent(studentID)
	if err != nil {
		return nil, err
	}

	var transactions []models.InvestmentTransaction
	err = s.db.Where("investment_id = ?", inv.ID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Transactions list newest first for the response; the reconcile
	// replay walks the chain oldest first.
	entries := make([]ledger.Entry, len(transactions))
	for i, t := range transactions {
		entries[len(transactions)-1-i] = ledger.Entry{
			Type:          t.Type,
			Amount:        t.Amount,
			BalanceBefore: t.BalanceBefore,
			BalanceAfter:  t.BalanceAfter,
		}
	}
	if err := ledger.Reconcile(entries, inv.Balance); err != nil {
		return nil, mapLedgerError(err)
	}

	return &InvestmentSummary{
		Investment:   inv,
		Transactions: transactions,
		Totals:       ledger.Sum(entries),
	}, nil
}

// validateRate bounds the monthly interest rate to a sane percentage.
func validateRate(rate decimal.Decimal) error {
	if rate.Sign() < 0 || rate.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.WithMessage(apperrors.ErrValidation, "interest rate must be between 0 and 100 percent")
	}
	return nil
}

// mapLedgerError translates ledger sentinels onto API errors.
func mapLedgerError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return apperrors.ErrInsufficientFunds
	case errors.Is(err, ledger.ErrNonPositiveAmount):
		return apperrors.WithMessage(apperrors.ErrValidation, "amount must be greater than zero")
	case errors.Is(err, ledger.ErrOutOfBalance):
		return apperrors.Wrap(apperrors.ErrInconsistentLedger, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}
