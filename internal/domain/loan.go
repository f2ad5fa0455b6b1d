package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanType drives the schedule algorithm and is fixed at creation.
type LoanType string

const (
	LoanTypeDaily   LoanType = "Daily"
	LoanTypeWeekly  LoanType = "Weekly"
	LoanTypeMonthly LoanType = "Monthly"
)

func (t LoanType) Valid() bool {
	switch t {
	case LoanTypeDaily, LoanTypeWeekly, LoanTypeMonthly:
		return true
	}
	return false
}

type LoanStatus string

const (
	LoanStatusActive  LoanStatus = "Active"
	LoanStatusClosed  LoanStatus = "Closed"
	LoanStatusDefault LoanStatus = "Default"
)

// DeductionTiming says whether a charge is taken out of the principal at
// disbursement or collected over the life of the loan.
type DeductionTiming string

const (
	DeductionUpfront DeductionTiming = "Upfront"
	DeductionEnd     DeductionTiming = "End"
)

const RiskFlagClosedViaRollover = "Closed via Rollover"

type DeductionConfig struct {
	Interest        DeductionTiming `json:"interest"`
	AdminCommission DeductionTiming `json:"admin_commission"`
	StaffCommission DeductionTiming `json:"staff_commission"`
}

// Commission keeps percent and absolute amount mutually derivable from the principal.
type Commission struct {
	Percent decimal.Decimal `json:"percent"`
	Amount  decimal.Decimal `json:"amount"`
}

type Financials struct {
	Principal              decimal.Decimal `json:"principal"`
	InterestRate           decimal.Decimal `json:"interest_rate"` // percent per month
	Duration               int             `json:"duration"`      // days, weeks or months by loan type
	InterestDurationMonths decimal.Decimal `json:"interest_duration_months"`
	FixedInstallmentAmount decimal.Decimal `json:"fixed_installment_amount"` // weekly only, zero when unset
	DeductionConfig        DeductionConfig `json:"deduction_config"`
	AdminCommission        Commission      `json:"admin_commission"`
	StaffCommission        Commission      `json:"staff_commission"`

	InterestDeduction     decimal.Decimal `json:"interest_deduction"`
	AdminDeduction        decimal.Decimal `json:"admin_deduction"`
	StaffDeduction        decimal.Decimal `json:"staff_deduction"`
	RolloverDeduction     decimal.Decimal `json:"rollover_deduction"`
	NetDisbursementAmount decimal.Decimal `json:"net_disbursement_amount"`

	TotalPrincipalPaid decimal.Decimal `json:"total_principal_paid"`
	TotalInterestPaid  decimal.Decimal `json:"total_interest_paid"`
	TotalPenaltyPaid   decimal.Decimal `json:"total_penalty_paid"`
	// ExcessCollected holds payments received beyond the remaining schedule.
	ExcessCollected decimal.Decimal `json:"excess_collected"`
}

type Rollover struct {
	LinkedLoanID   uuid.UUID       `json:"linked_loan_id"`
	AmountDeducted decimal.Decimal `json:"amount_deducted"`
	Notes          string          `json:"notes,omitempty"`
}

// Loan represents a loan entity
type Loan struct {
	ID               uuid.UUID     `json:"id"`
	CustomerID       string        `json:"customer_id"`
	LoanType         LoanType      `json:"loan_type"`
	Status           LoanStatus    `json:"status"`
	DisbursementMode string        `json:"disbursement_mode"`
	Financials       Financials    `json:"financials"`
	Dues             []*Due        `json:"dues"`
	Lenders          []*LoanLender `json:"lenders"`
	Rollover         *Rollover     `json:"rollover,omitempty"`
	RiskFlags        []string      `json:"risk_flags,omitempty"`
	Version          int64         `json:"version"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (l *Loan) IsActive() bool {
	return l.Status == LoanStatusActive
}

// Outstanding is the unpaid part of the stored schedule.
func (l *Loan) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, due := range l.Dues {
		total = total.Add(due.Remaining())
	}
	return total
}

// LoanFilter narrows loan listings; empty fields match everything.
type LoanFilter struct {
	Status     LoanStatus
	CustomerID string
	Limit      int
	Offset     int
}
