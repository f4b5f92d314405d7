package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"stipend/internal/budget"
	apperrors "stipend/internal/errors"
	"stipend/internal/models"
)

// advisorService runs the advisory rule engine. Rules read financial state
// and emit alerts; they never mutate budgets or investments, so evaluation
// is always safe to repeat.
type advisorService struct {
	db                *gorm.DB
	studentService    StudentServicer
	budgetService     BudgetServicer
	investmentService InvestmentServicer
}

// NewAdvisorService creates a new AdvisorServicer.
func NewAdvisorService(db *gorm.DB, studentService StudentServicer, budgetService BudgetServicer, investmentService InvestmentServicer) AdvisorServicer {
	return &advisorService{
		db:                db,
		studentService:    studentService,
		budgetService:     budgetService,
		investmentService: investmentService,
	}
}

// candidate is an alert a rule wants to raise, before deduplication.
type candidate struct {
	Type     models.AlertType
	Severity models.AlertSeverity
	Title    string
	Message  string
}

// Evaluate runs every advisory rule against the student's state as of the
// given time and persists the resulting alerts. An alert whose student,
// type, title, and evaluation day match an existing unresolved alert is
// suppressed, so re-evaluating within the same day creates nothing new.
func (s *advisorService) Evaluate(studentID uint, asOf time.Time) ([]models.Alert, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	student, err := s.studentService.GetByID(studentID)
	if err != nil {
		return nil, err
	}

	status, err := s.budgetService.GetStatus(studentID, asOf)
	if err != nil {
		return nil, err
	}

	// A missing investment account just disables the investment rules.
	investment, err := s.investmentService.GetByStudent(studentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvestmentNotFound) {
			return nil, err
		}
		investment = nil
	}

	candidates := make([]candidate, 0, 4)
	candidates = append(candidates, budgetLevelRules(status)...)
	candidates = append(candidates, allowanceRule(status)...)
	candidates = append(candidates, investRules(status, investment)...)

	spending, err := s.spendingRule(student)
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, spending...)

	day := budget.Day(asOf).Format("2006-01-02")
	created := make([]models.Alert, 0, len(candidates))

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, c := range candidates {
			key := fmt.Sprintf("%d|%s|%s|%s", studentID, c.Type, c.Title, day)

			var count int64
			err := tx.Model(&models.Alert{}).
				Where("dedupe_key = ? AND is_resolved = ?", key, false).
				Count(&count).Error
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				continue
			}

			alert := models.Alert{
				StudentID: studentID,
				Type:      c.Type,
				Severity:  c.Severity,
				Title:     c.Title,
				Message:   c.Message,
				DedupeKey: key,
			}
			if err := tx.Create(&alert).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			created = append(created, alert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// budgetLevelRules raises at most one alert about the overall budget level,
// from worst to mildest. Below the exhaustion case it dispatches on the
// health classification, so the escalated Caution states and a zero monthly
// budget surface as critical here too.
func budgetLevelRules(status *BudgetStatus) []candidate {
	if status.RemainingBudget.Sign() < 0 {
		return []candidate{{
			Type:     models.AlertBudgetRisk,
			Severity: models.SeverityCritical,
			Title:    "Budget Exhausted",
			Message: fmt.Sprintf("You are %s over your monthly budget of %s.",
				status.RemainingBudget.Neg().StringFixed(2), status.MonthlyBudget.StringFixed(2)),
		}}
	}

	switch status.Health {
	case budget.Critical:
		return []candidate{{
			Type:     models.AlertBudgetRisk,
			Severity: models.SeverityCritical,
			Title:    "Budget Running Critically Low",
			Message: fmt.Sprintf("You have %s remaining for %d days. Daily allowance: %s. Consider reducing non-essential expenses.",
				status.RemainingBudget.StringFixed(2), status.DaysRemaining, status.DailyAllowance.StringFixed(2)),
		}}
	case budget.Caution:
		return []candidate{{
			Type:     models.AlertBudgetRisk,
			Severity: models.SeverityWarning,
			Title:    "Budget Caution",
			Message: fmt.Sprintf("You have %s remaining for %d days. Daily allowance: %s. Monitor your spending to stay within budget.",
				status.RemainingBudget.StringFixed(2), status.DaysRemaining, status.DailyAllowance.StringFixed(2)),
		}}
	}

	return nil
}

// allowanceRule warns when the daily allowance drops below 30% of the
// average daily budget, independently of the budget level rules.
func allowanceRule(status *BudgetStatus) []candidate {
	if !budget.LowDailyAllowance(status.RemainingBudget, status.MonthlyBudget, status.DaysRemaining) {
		return nil
	}
	return []candidate{{
		Type:     models.AlertBudgetRisk,
		Severity: models.SeverityWarning,
		Title:    "Low Daily Allowance",
		Message: fmt.Sprintf("Your daily allowance has dropped to %s for the remaining %d days.",
			status.DailyAllowance.StringFixed(2), status.DaysRemaining),
	}}
}

// investRules covers both directions of the budget/investment boundary:
// surplus near the end of the cycle, and overspend covered by a positive
// investment balance.
func investRules(status *BudgetStatus, investment *models.Investment) []candidate {
	var out []candidate

	if status.RemainingBudget.GreaterThan(decimal.NewFromInt(100)) && status.DaysRemaining <= 3 {
		out = append(out, candidate{
			Type:     models.AlertInvestmentSuggestion,
			Severity: models.SeverityInfo,
			Title:    "Consider Investing Leftover Budget",
			Message: fmt.Sprintf("You have %s left with only %d days remaining. Consider moving the surplus into your investment account.",
				status.RemainingBudget.StringFixed(2), status.DaysRemaining),
		})
	}

	if status.RemainingBudget.Sign() < 0 && investment != nil && investment.Balance.Sign() > 0 {
		shortfall := status.RemainingBudget.Neg()
		amount := decimal.Min(shortfall, investment.Balance)
		out = append(out, candidate{
			Type:     models.AlertInvestmentSuggestion,
			Severity: models.SeverityWarning,
			Title:    "Consider Withdrawing from Investment",
			Message: fmt.Sprintf("You are %s over budget. Withdrawing %s from your investment balance of %s would cover it.",
				shortfall.StringFixed(2), amount.StringFixed(2), investment.Balance.StringFixed(2)),
		})
	}

	return out
}

// spendingRule flags a cycle where unplanned expenses exceed 30% of total
// spending.
func (s *advisorService) spendingRule(student *models.Student) ([]candidate, error) {
	from, to := budget.CycleWindow(student.BudgetStartDate)

	var expenses []models.Expense
	err := s.db.Where("student_id = ? AND date >= ? AND date < ?", student.ID, from, to).
		Find(&expenses).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	additional := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
		if e.IsAdditional {
			additional = additional.Add(e.Amount)
		}
	}

	if total.Sign() <= 0 {
		return nil, nil
	}
	share := additional.Div(total)
	if !share.GreaterThan(decimal.NewFromFloat(0.3)) {
		return nil, nil
	}

	return []candidate{{
		Type:     models.AlertSpendingPattern,
		Severity: models.SeverityWarning,
		Title:    "High Unplanned Expenses",
		Message: fmt.Sprintf("Unplanned expenses make up %s%% of your spending this cycle (%s of %s).",
			share.Mul(decimal.NewFromInt(100)).StringFixed(1), additional.StringFixed(2), total.StringFixed(2)),
	}}, nil
}
