package calculator

import (
	"time"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/shopspring/decimal"
)

// Application describes how one payment was spread over a loan's dues.
type Application struct {
	Applied            decimal.Decimal
	Excess             decimal.Decimal
	PrincipalApplied   decimal.Decimal
	InterestApplied    decimal.Decimal
	InstallmentNumbers []int
	// Touched holds the dues whose paid amount or status changed.
	Touched []*domain.Due
	Closed  bool
}

// PaymentType classifies the payment by the kinds of dues it covered.
func (a Application) PaymentType() domain.PaymentType {
	switch {
	case a.InterestApplied.IsPositive() && !a.PrincipalApplied.IsPositive():
		return domain.PaymentTypeInterest
	case a.PrincipalApplied.IsPositive() && !a.InterestApplied.IsPositive():
		return domain.PaymentTypePrincipal
	default:
		return domain.PaymentTypeMixed
	}
}

// ApplyPayment walks dues oldest first and covers them with amount. A due that
// cannot be fully covered becomes Partial and the walk stops there. Whatever is
// left after the last due is reported as Excess. dues are updated in place.
func ApplyPayment(dues []*domain.Due, amount decimal.Decimal, paidAt time.Time) Application {
	app := Application{
		Applied:          decimal.Zero,
		Excess:           decimal.Zero,
		PrincipalApplied: decimal.Zero,
		InterestApplied:  decimal.Zero,
	}
	remaining := amount

	for _, due := range dues {
		if !remaining.IsPositive() {
			break
		}
		if due.Status == domain.DueStatusPaid {
			continue
		}

		owed := due.Amount.Sub(due.PaidAmount)
		portion := remaining
		if remaining.GreaterThanOrEqual(owed) {
			portion = owed
			due.PaidAmount = due.Amount
			due.Status = domain.DueStatusPaid
			paid := paidAt
			due.PaidDate = &paid
		} else {
			due.PaidAmount = due.PaidAmount.Add(portion)
			due.Status = domain.DueStatusPartial
		}

		remaining = remaining.Sub(portion)
		app.Applied = app.Applied.Add(portion)
		if due.Type == domain.DueTypeInterest {
			app.InterestApplied = app.InterestApplied.Add(portion)
		} else {
			app.PrincipalApplied = app.PrincipalApplied.Add(portion)
		}
		app.InstallmentNumbers = append(app.InstallmentNumbers, due.InstallmentNumber)
		app.Touched = append(app.Touched, due)

		if due.Status == domain.DueStatusPartial {
			break
		}
	}

	if remaining.IsPositive() {
		app.Excess = remaining
	}
	return app
}

// ReconcileLoan applies amount to an Active loan: dues first, then the running
// totals, then the Active to Closed transition once principal paid reaches the
// net disbursement. The caller must have checked the loan is Active.
func ReconcileLoan(loan *domain.Loan, amount decimal.Decimal, paidAt time.Time) Application {
	app := ApplyPayment(loan.Dues, amount, paidAt)

	f := &loan.Financials
	f.TotalPrincipalPaid = f.TotalPrincipalPaid.Add(app.PrincipalApplied)
	f.TotalInterestPaid = f.TotalInterestPaid.Add(app.InterestApplied)
	f.ExcessCollected = f.ExcessCollected.Add(app.Excess)

	if f.TotalPrincipalPaid.GreaterThanOrEqual(f.NetDisbursementAmount) {
		loan.Status = domain.LoanStatusClosed
		app.Closed = true
	}
	return app
}
