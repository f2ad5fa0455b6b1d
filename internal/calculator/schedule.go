package calculator

import (
	"fmt"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/shopspring/decimal"
)

// MaxWeeklyInstallments bounds fixed-amount weekly schedules.
const MaxWeeklyInstallments = 200

// ScheduleTerms are the financial inputs a schedule depends on.
type ScheduleTerms struct {
	Principal              decimal.Decimal
	InterestRate           decimal.Decimal
	Duration               int
	FixedInstallmentAmount decimal.Decimal
	InterestTiming         domain.DeductionTiming
}

// ScheduleTermsFrom extracts the schedule inputs of a loan's financials.
func ScheduleTermsFrom(f domain.Financials) ScheduleTerms {
	return ScheduleTerms{
		Principal:              f.Principal,
		InterestRate:           f.InterestRate,
		Duration:               f.Duration,
		FixedInstallmentAmount: f.FixedInstallmentAmount,
		InterestTiming:         f.DeductionConfig.Interest,
	}
}

type scheduleFunc func(terms ScheduleTerms, start time.Time) ([]*domain.Due, error)

var generators = map[domain.LoanType]scheduleFunc{
	domain.LoanTypeDaily:   dailySchedule,
	domain.LoanTypeWeekly:  weeklySchedule,
	domain.LoanTypeMonthly: monthlySchedule,
}

// GenerateSchedule returns the ordered dues of a loan starting at start.
//
// A weekly fixed-amount schedule that has not paid off the balance after
// MaxWeeklyInstallments entries is returned together with a
// SCHEDULE_GENERATION_TRUNCATED error so callers can still display it.
func GenerateSchedule(loanType domain.LoanType, terms ScheduleTerms, start time.Time) ([]*domain.Due, error) {
	gen, ok := generators[loanType]
	if !ok {
		return nil, customError.WrapInvalidLoanTerms(fmt.Sprintf("unknown loan type %q", loanType))
	}
	if !terms.Principal.IsPositive() {
		return nil, customError.WrapInvalidLoanTerms("principal must be greater than 0")
	}
	if terms.Duration <= 0 {
		return nil, customError.WrapInvalidLoanTerms("duration must be greater than 0")
	}
	if terms.InterestRate.IsNegative() {
		return nil, customError.WrapInvalidLoanTerms("interest rate must not be negative")
	}
	return gen(terms, start)
}

// TotalPayable is principal plus the interest collected through the schedule.
func TotalPayable(loanType domain.LoanType, terms ScheduleTerms) decimal.Decimal {
	if terms.InterestTiming != domain.DeductionEnd {
		return terms.Principal
	}
	duration := decimal.NewFromInt(int64(terms.Duration))
	interest := terms.Principal.Mul(terms.InterestRate)
	switch loanType {
	case domain.LoanTypeDaily:
		interest = interest.Mul(duration).Div(daysPerMonth.Mul(hundred))
	case domain.LoanTypeWeekly:
		interest = interest.Mul(duration).Div(weeksPerMonth.Mul(hundred))
	default:
		interest = interest.Mul(duration).Div(hundred)
	}
	return terms.Principal.Add(interest)
}

func dailySchedule(terms ScheduleTerms, start time.Time) ([]*domain.Due, error) {
	total := TotalPayable(domain.LoanTypeDaily, terms)
	return equalSplit(total, terms.Duration, start, 1), nil
}

func weeklySchedule(terms ScheduleTerms, start time.Time) ([]*domain.Due, error) {
	total := TotalPayable(domain.LoanTypeWeekly, terms)
	fixed := terms.FixedInstallmentAmount
	if !fixed.IsPositive() {
		return equalSplit(total, terms.Duration, start, 7), nil
	}

	dues := make([]*domain.Due, 0, terms.Duration)
	balance := total
	for n := 1; balance.IsPositive(); n++ {
		if n > MaxWeeklyInstallments {
			return dues, customError.WrapScheduleTruncated(MaxWeeklyInstallments)
		}
		amount := fixed
		if balance.LessThan(fixed) {
			amount = balance
		}
		dues = append(dues, newDue(n, start.AddDate(0, 0, 7*n), domain.DueTypePrincipal, amount))
		balance = balance.Sub(amount)
	}
	return dues, nil
}

func monthlySchedule(terms ScheduleTerms, start time.Time) ([]*domain.Due, error) {
	monthlyInterest := decimal.Zero
	if terms.InterestTiming == domain.DeductionEnd {
		monthlyInterest = terms.Principal.Mul(terms.InterestRate).Div(hundred)
	}

	dues := make([]*domain.Due, 0, terms.Duration)
	for month := 1; month <= terms.Duration; month++ {
		amount := monthlyInterest
		dueType := domain.DueTypeInterest
		if month == terms.Duration {
			amount = amount.Add(terms.Principal)
			dueType = domain.DueTypePrincipal
		}
		if amount.IsZero() {
			continue
		}
		dues = append(dues, newDue(month, start.AddDate(0, month, 0), dueType, amount))
	}
	return dues, nil
}

// equalSplit spreads total over count ceiling-rounded installments spaced
// stepDays apart. The ceiling may overshoot total by up to count-1 units.
func equalSplit(total decimal.Decimal, count int, start time.Time, stepDays int) []*domain.Due {
	installment := total.Div(decimal.NewFromInt(int64(count))).Ceil()
	dues := make([]*domain.Due, 0, count)
	for n := 1; n <= count; n++ {
		dues = append(dues, newDue(n, start.AddDate(0, 0, stepDays*n), domain.DueTypePrincipal, installment))
	}
	return dues
}

func newDue(number int, date time.Time, dueType domain.DueType, amount decimal.Decimal) *domain.Due {
	return &domain.Due{
		InstallmentNumber: number,
		Date:              date,
		Type:              dueType,
		Amount:            amount,
		PaidAmount:        decimal.Zero,
		Status:            domain.DueStatusUnpaid,
	}
}
