package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stipend/internal/ledger"
	"stipend/internal/models"
	"stipend/internal/testutil"
)

func TestOpenInvestment(t *testing.T) {
	t.Run("with_opening_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		inv, err := svc.Open(student.ID, decimal.NewFromInt(250), decimal.RequireFromString("2.5"))
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, inv.Balance, "250")
		testutil.AssertDecimalEqual(t, inv.MonthlyInterestRate, "2.5")

		var txns []models.InvestmentTransaction
		if err := db.Where("investment_id = ?", inv.ID).Find(&txns).Error; err != nil {
			t.Fatalf("failed to load transactions: %v", err)
		}
		if len(txns) != 1 {
			t.Fatalf("expected 1 opening transaction, got %d", len(txns))
		}
		if txns[0].Type != ledger.EntryInvest {
			t.Errorf("expected INVEST entry, got %s", txns[0].Type)
		}
		testutil.AssertDecimalEqual(t, txns[0].BalanceBefore, "0")
		testutil.AssertDecimalEqual(t, txns[0].BalanceAfter, "250")
	})

	t.Run("zero_opening_logs_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		inv, err := svc.Open(student.ID, decimal.Zero, decimal.NewFromInt(5))
		testutil.AssertNoError(t, err)

		var count int64
		if err := db.Model(&models.InvestmentTransaction{}).Where("investment_id = ?", inv.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count transactions: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty log, got %d entries", count)
		}
	})

	t.Run("one_per_student", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.Open(student.ID, decimal.Zero, decimal.NewFromInt(5))
		testutil.AssertNoError(t, err)

		_, err = svc.Open(student.ID, decimal.Zero, decimal.NewFromInt(5))
		testutil.AssertAppError(t, err, "INVESTMENT_EXISTS")
	})

	t.Run("rate_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.Open(student.ID, decimal.Zero, decimal.NewFromInt(101))
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestDepositWithdraw(t *testing.T) {
	t.Run("deposit_appends_entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(100))

		record, err := svc.Deposit(student.ID, decimal.RequireFromString("50.25"), "leftover budget")
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, record.BalanceBefore, "100")
		testutil.AssertDecimalEqual(t, record.BalanceAfter, "150.25")

		inv, err := svc.GetByStudent(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, inv.Balance, "150.25")
	})

	t.Run("withdraw_within_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(1000))

		record, err := svc.Withdraw(student.ID, decimal.NewFromInt(1000), "")
		testutil.AssertNoError(t, err)

		testutil.AssertDecimalEqual(t, record.BalanceAfter, "0")
		if record.Type != ledger.EntryWithdraw {
			t.Errorf("expected WITHDRAW entry, got %s", record.Type)
		}
	})

	t.Run("overdraw_leaves_state_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		inv := testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(1000))

		_, err := svc.Withdraw(student.ID, decimal.NewFromInt(1200), "")
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		fresh, err := svc.GetByStudent(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, fresh.Balance, "1000")

		var count int64
		if err := db.Model(&models.InvestmentTransaction{}).Where("investment_id = ?", inv.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count transactions: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no log entries after failed withdrawal, got %d", count)
		}
	})

	t.Run("non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(100))

		_, err := svc.Deposit(student.ID, decimal.Zero, "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("no_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.Deposit(student.ID, decimal.NewFromInt(10), "")
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestCreditInterest(t *testing.T) {
	asOf := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)

	t.Run("credits_once_per_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(1000)) // 5% rate

		record, err := svc.CreditInterest(student.ID, asOf)
		testutil.AssertNoError(t, err)
		if record == nil {
			t.Fatal("expected an interest transaction")
		}
		testutil.AssertDecimalEqual(t, record.Amount, "50")
		testutil.AssertDecimalEqual(t, record.BalanceBefore, "1000")
		testutil.AssertDecimalEqual(t, record.BalanceAfter, "1050")
		if record.Type != ledger.EntryInterest {
			t.Errorf("expected INTEREST entry, got %s", record.Type)
		}

		again, err := svc.CreditInterest(student.ID, asOf)
		testutil.AssertNoError(t, err)
		if again != nil {
			t.Error("expected second credit in same period to be a no-op")
		}

		inv, err := svc.GetByStudent(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, inv.Balance, "1050")
		if inv.LastInterestPeriod != "2025-01" {
			t.Errorf("expected period marker 2025-01, got %s", inv.LastInterestPeriod)
		}
	})

	t.Run("next_period_credits_again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.NewFromInt(1000))

		_, err := svc.CreditInterest(student.ID, asOf)
		testutil.AssertNoError(t, err)

		feb := time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC)
		record, err := svc.CreditInterest(student.ID, feb)
		testutil.AssertNoError(t, err)
		if record == nil {
			t.Fatal("expected interest in the new period")
		}
		testutil.AssertDecimalEqual(t, record.Amount, "52.50")
		testutil.AssertDecimalEqual(t, record.BalanceAfter, "1102.50")
	})

	t.Run("zero_balance_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, student.ID, decimal.Zero)

		record, err := svc.CreditInterest(student.ID, asOf)
		testutil.AssertNoError(t, err)
		if record != nil {
			t.Error("expected no interest on zero balance")
		}
	})

	t.Run("rounds_to_cents", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)
		inv := testutil.CreateTestInvestment(t, db, student.ID, decimal.RequireFromString("333.33"))
		if err := db.Model(inv).Update("monthly_interest_rate", decimal.RequireFromString("3.33")).Error; err != nil {
			t.Fatalf("failed to set rate: %v", err)
		}

		record, err := svc.CreditInterest(student.ID, asOf)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, record.Amount, "11.10")
	})
}

func TestCreditAllInterest(t *testing.T) {
	t.Run("skips_non_positive_balances", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)

		a := testutil.CreateTestStudent(t, db)
		b := testutil.CreateTestStudent(t, db)
		c := testutil.CreateTestStudent(t, db)
		testutil.CreateTestInvestment(t, db, a.ID, decimal.NewFromInt(1000))
		testutil.CreateTestInvestment(t, db, b.ID, decimal.Zero)
		testutil.CreateTestInvestment(t, db, c.ID, decimal.NewFromInt(200))

		credited, err := svc.CreditAllInterest(time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)
		if credited != 2 {
			t.Errorf("expected 2 accounts credited, got %d", credited)
		}
	})
}

func TestGetSummary(t *testing.T) {
	t.Run("totals_from_log", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.Open(student.ID, decimal.NewFromInt(500), decimal.NewFromInt(5))
		testutil.AssertNoError(t, err)
		_, err = svc.Deposit(student.ID, decimal.NewFromInt(300), "")
		testutil.AssertNoError(t, err)
		_, err = svc.CreditInterest(student.ID, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
		testutil.AssertNoError(t, err)
		_, err = svc.Withdraw(student.ID, decimal.NewFromInt(100), "")
		testutil.AssertNoError(t, err)

		summary, err := svc.GetSummary(student.ID)
		testutil.AssertNoError(t, err)

		if len(summary.Transactions) != 4 {
			t.Fatalf("expected 4 transactions, got %d", len(summary.Transactions))
		}
		testutil.AssertDecimalEqual(t, summary.Totals.Invested, "800")
		testutil.AssertDecimalEqual(t, summary.Totals.Interest, "40")
		testutil.AssertDecimalEqual(t, summary.Totals.Withdrawn, "100")
		testutil.AssertDecimalEqual(t, summary.Investment.Balance, "740")
	})

	t.Run("no_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.GetSummary(student.ID)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})

	t.Run("tampered_log_fails_consistency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewInvestmentService(db)
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.Open(student.ID, decimal.NewFromInt(500), decimal.NewFromInt(5))
		testutil.AssertNoError(t, err)
		record, err := svc.Deposit(student.ID, decimal.NewFromInt(300), "")
		testutil.AssertNoError(t, err)

		err = db.Model(&models.InvestmentTransaction{}).
			Where("id = ?", record.ID).
			Update("balance_after", decimal.NewFromInt(900)).Error
		testutil.AssertNoError(t, err)

		_, err = svc.GetSummary(student.ID)
		testutil.AssertAppError(t, err, "INCONSISTENT_LEDGER")
	})
}
