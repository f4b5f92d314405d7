// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("alert_type", validateAlertType)
		_ = v.RegisterValidation("dec_positive", validateDecimalPositive)
		_ = v.RegisterValidation("dec_nonneg", validateDecimalNonNegative)
		_ = v.RegisterValidation("rate_percent", validateRatePercent)
	}
}

func validateAlertType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "BUDGET_RISK", "FIXED_EXPENSE_RISK", "INVESTMENT_SUGGESTION", "SPENDING_PATTERN", "GENERAL":
		return true
	}
	return false
}

func fieldDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return d, ok
}

// validateDecimalPositive accepts strictly positive decimal amounts.
func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && d.Sign() > 0
}

// validateDecimalNonNegative accepts zero or positive decimal amounts.
func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	return ok && d.Sign() >= 0
}

// validateRatePercent accepts a percentage in [0, 100].
func validateRatePercent(fl validator.FieldLevel) bool {
	d, ok := fieldDecimal(fl)
	if !ok {
		return false
	}
	return d.Sign() >= 0 && d.LessThanOrEqual(decimal.NewFromInt(100))
}
