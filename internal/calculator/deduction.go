// Package calculator holds the pure financial rules of the lending engine:
// upfront deductions, repayment schedules, lender funding plans, FIFO
// collection and overdue summaries. Nothing in here performs I/O.
package calculator

import (
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// currencyPlaces is the precision of every stored money amount. Deductions
// are rounded to it so the net disbursement can be matched exactly by lender
// splits.
const currencyPlaces = 2

var (
	hundred          = decimal.NewFromInt(100)
	daysPerMonth     = decimal.NewFromInt(30)
	weeksPerMonth    = decimal.NewFromInt(4)
	defaultTimingEnd = domain.DeductionEnd
)

// DisbursementTerms are the inputs of the upfront deduction calculation.
type DisbursementTerms struct {
	Principal              decimal.Decimal
	InterestRate           decimal.Decimal // percent per month
	InterestDurationMonths decimal.Decimal
	DeductionConfig        domain.DeductionConfig
	AdminCommissionAmount  decimal.Decimal
	StaffCommissionAmount  decimal.Decimal
	RolloverDeduction      decimal.Decimal
}

// ComputeDisbursement applies every Upfront deduction to the principal.
// Upfront interest is rounded half away from zero to the currency unit.
// A negative NetDisbursementAmount is returned as-is; rejecting it is up to the caller.
func ComputeDisbursement(terms DisbursementTerms) domain.DisbursementBreakdown {
	out := domain.DisbursementBreakdown{
		InterestDeduction: decimal.Zero,
		AdminDeduction:    decimal.Zero,
		StaffDeduction:    decimal.Zero,
		RolloverDeduction: terms.RolloverDeduction,
	}

	if terms.DeductionConfig.Interest == domain.DeductionUpfront {
		out.InterestDeduction = terms.Principal.
			Mul(terms.InterestRate).
			Mul(terms.InterestDurationMonths).
			Div(hundred).
			Round(currencyPlaces)
	}
	if terms.DeductionConfig.AdminCommission == domain.DeductionUpfront {
		out.AdminDeduction = terms.AdminCommissionAmount
	}
	if terms.DeductionConfig.StaffCommission == domain.DeductionUpfront {
		out.StaffDeduction = terms.StaffCommissionAmount
	}

	out.NetDisbursementAmount = terms.Principal.Sub(utils.SumDecimals(
		out.InterestDeduction,
		out.AdminDeduction,
		out.StaffDeduction,
		out.RolloverDeduction,
	))

	return out
}

// CommissionAmount converts a commission percent of principal into an amount
// rounded to the currency unit.
func CommissionAmount(principal, percent decimal.Decimal) decimal.Decimal {
	return principal.Mul(percent).Div(hundred).Round(currencyPlaces)
}

// CommissionPercent converts a commission amount into a percent of principal.
// A zero principal yields a zero percent.
func CommissionPercent(principal, amount decimal.Decimal) decimal.Decimal {
	if principal.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(principal)
}

// SyncCommission fills whichever side of c is missing. A non-zero amount wins
// over the percent, matching an edit of the amount field.
func SyncCommission(principal decimal.Decimal, c domain.Commission) domain.Commission {
	if c.Amount.IsPositive() {
		return domain.Commission{
			Percent: CommissionPercent(principal, c.Amount),
			Amount:  c.Amount,
		}
	}
	if c.Percent.IsPositive() {
		return domain.Commission{
			Percent: c.Percent,
			Amount:  CommissionAmount(principal, c.Percent),
		}
	}
	return domain.Commission{Percent: decimal.Zero, Amount: decimal.Zero}
}

// InterestMonths derives the month basis of a loan from its duration when no
// explicit interest duration was given.
func InterestMonths(loanType domain.LoanType, duration int) decimal.Decimal {
	d := decimal.NewFromInt(int64(duration))
	switch loanType {
	case domain.LoanTypeDaily:
		return d.Div(daysPerMonth)
	case domain.LoanTypeWeekly:
		return d.Div(weeksPerMonth)
	default:
		return d
	}
}

// NormalizeDeductionConfig defaults unset timings to End.
func NormalizeDeductionConfig(cfg domain.DeductionConfig) domain.DeductionConfig {
	if cfg.Interest == "" {
		cfg.Interest = defaultTimingEnd
	}
	if cfg.AdminCommission == "" {
		cfg.AdminCommission = defaultTimingEnd
	}
	if cfg.StaffCommission == "" {
		cfg.StaffCommission = defaultTimingEnd
	}
	return cfg
}

// ValidDeductionConfig reports whether every timing is Upfront or End.
func ValidDeductionConfig(cfg domain.DeductionConfig) bool {
	for _, t := range []domain.DeductionTiming{cfg.Interest, cfg.AdminCommission, cfg.StaffCommission} {
		if t != domain.DeductionUpfront && t != domain.DeductionEnd {
			return false
		}
	}
	return true
}
