package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stipend/internal/pagination"
	"stipend/internal/testutil"
)

func TestCreateExpense(t *testing.T) {
	t.Run("records_and_recomputes_remaining", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		budgets := NewBudgetService(db, students)
		svc := NewExpenseService(db, budgets)

		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		student := testutil.CreateTestStudentWithBudget(t, db, decimal.NewFromInt(500), start)
		cat := testutil.CreateTestCategory(t, db)

		expense, err := svc.CreateExpense(student.ID, cat.ID, decimal.RequireFromString("12.50"),
			time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), false, "lunch")
		testutil.AssertNoError(t, err)

		if expense.ID == 0 {
			t.Fatal("expected non-zero expense ID")
		}
		testutil.AssertDecimalEqual(t, expense.Amount, "12.50")
		if expense.IsAdditional {
			t.Error("expected planned expense")
		}

		fresh, err := students.GetByID(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, fresh.RemainingBudget, "487.50")
	})

	t.Run("remaining_can_go_negative", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		budgets := NewBudgetService(db, students)
		svc := NewExpenseService(db, budgets)

		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		student := testutil.CreateTestStudentWithBudget(t, db, decimal.NewFromInt(100), start)
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateExpense(student.ID, cat.ID, decimal.NewFromInt(130),
			time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), true, "")
		testutil.AssertNoError(t, err)

		fresh, err := students.GetByID(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, fresh.RemainingBudget, "-30")
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.CreateExpense(student.ID, cat.ID, decimal.Zero, time.Now(), false, "")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))
		student := testutil.CreateTestStudent(t, db)

		_, err := svc.CreateExpense(student.ID, 9999, decimal.NewFromInt(10), time.Now(), false, "")
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

func TestSubmitChecklist(t *testing.T) {
	t.Run("creates_checked_rows_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		budgets := NewBudgetService(db, students)
		svc := NewExpenseService(db, budgets)

		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		student := testutil.CreateTestStudentWithBudget(t, db, decimal.NewFromInt(500), start)
		food := testutil.CreateTestCategory(t, db)
		transport := testutil.CreateTestCategory(t, db)

		day := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
		created, err := svc.SubmitChecklist(student.ID, day, []ChecklistSubmission{
			{CategoryID: food.ID, Amount: decimal.NewFromInt(15)},
			{CategoryID: transport.ID, Amount: decimal.RequireFromString("4.50"), Notes: "bus"},
		})
		testutil.AssertNoError(t, err)

		if len(created) != 2 {
			t.Fatalf("expected 2 expenses, got %d", len(created))
		}
		for _, e := range created {
			if e.IsAdditional {
				t.Error("checklist expenses must be planned")
			}
			if !e.Date.Equal(day) {
				t.Errorf("expected date %v, got %v", day, e.Date)
			}
		}

		fresh, err := students.GetByID(student.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimalEqual(t, fresh.RemainingBudget, "480.50")
	})

	t.Run("empty_submission_records_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))
		student := testutil.CreateTestStudent(t, db)

		created, err := svc.SubmitChecklist(student.ID, time.Now(), nil)
		testutil.AssertNoError(t, err)
		if len(created) != 0 {
			t.Errorf("expected no expenses, got %d", len(created))
		}
	})

	t.Run("bad_row_rolls_back_whole_submission", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))
		student := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db)

		_, err := svc.SubmitChecklist(student.ID, time.Now(), []ChecklistSubmission{
			{CategoryID: cat.ID, Amount: decimal.NewFromInt(10)},
			{CategoryID: 9999, Amount: decimal.NewFromInt(5)},
		})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")

		day, err := svc.GetExpensesForDay(student.ID, time.Now())
		testutil.AssertNoError(t, err)
		if len(day) != 0 {
			t.Errorf("expected rollback to leave no expenses, got %d", len(day))
		}
	})
}

func TestGetStudentExpenses(t *testing.T) {
	t.Run("filters_and_orders", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))

		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		student := testutil.CreateTestStudentWithBudget(t, db, decimal.NewFromInt(500), start)
		cat := testutil.CreateTestCategory(t, db)
		other := testutil.CreateTestCategory(t, db)

		testutil.CreateTestExpenseOn(t, db, student.ID, cat.ID, decimal.NewFromInt(10),
			time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), false)
		testutil.CreateTestExpenseOn(t, db, student.ID, cat.ID, decimal.NewFromInt(20),
			time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), true)
		testutil.CreateTestExpenseOn(t, db, student.ID, other.ID, decimal.NewFromInt(30),
			time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), false)

		all, err := svc.GetStudentExpenses(student.ID, pagination.PageRequest{}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if all.TotalItems != 3 {
			t.Fatalf("expected 3 expenses, got %d", all.TotalItems)
		}
		testutil.AssertDecimalEqual(t, all.Data[0].Amount, "30")

		additional := true
		unplanned, err := svc.GetStudentExpenses(student.ID, pagination.PageRequest{}, ExpenseFilter{IsAdditional: &additional})
		testutil.AssertNoError(t, err)
		if unplanned.TotalItems != 1 {
			t.Errorf("expected 1 unplanned expense, got %d", unplanned.TotalItems)
		}

		byCat, err := svc.GetStudentExpenses(student.ID, pagination.PageRequest{}, ExpenseFilter{CategoryID: &other.ID})
		testutil.AssertNoError(t, err)
		if byCat.TotalItems != 1 {
			t.Errorf("expected 1 expense in category, got %d", byCat.TotalItems)
		}

		from := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		ranged, err := svc.GetStudentExpenses(student.ID, pagination.PageRequest{}, ExpenseFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)
		if ranged.TotalItems != 1 {
			t.Errorf("expected 1 expense in range, got %d", ranged.TotalItems)
		}
	})

	t.Run("excludes_other_students", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))

		a := testutil.CreateTestStudent(t, db)
		b := testutil.CreateTestStudent(t, db)
		cat := testutil.CreateTestCategory(t, db)
		testutil.CreateTestExpense(t, db, a.ID, cat.ID, decimal.NewFromInt(10))
		testutil.CreateTestExpense(t, db, b.ID, cat.ID, decimal.NewFromInt(20))

		page, err := svc.GetStudentExpenses(a.ID, pagination.PageRequest{}, ExpenseFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 expense, got %d", page.TotalItems)
		}
	})
}

func TestGetChecklist(t *testing.T) {
	t.Run("active_in_display_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		students := NewStudentService(db)
		svc := NewExpenseService(db, NewBudgetService(db, students))

		food := testutil.CreateTestCategory(t, db)
		transport := testutil.CreateTestCategory(t, db)
		bills := testutil.CreateTestCategory(t, db)
		testutil.CreateTestChecklistItem(t, db, transport.ID, 2)
		testutil.CreateTestChecklistItem(t, db, food.ID, 1)
		inactive := testutil.CreateTestChecklistItem(t, db, bills.ID, 3)
		if err := db.Model(inactive).Update("is_active", false).Error; err != nil {
			t.Fatalf("failed to deactivate item: %v", err)
		}

		items, err := svc.GetChecklist()
		testutil.AssertNoError(t, err)

		if len(items) != 2 {
			t.Fatalf("expected 2 active items, got %d", len(items))
		}
		if items[0].CategoryID != food.ID || items[1].CategoryID != transport.ID {
			t.Error("expected items ordered by display order")
		}
		if items[0].Category.ID == 0 {
			t.Error("expected category preloaded")
		}
	})
}
