package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for requests and responses

// LoanTerms are the caller-controlled financial inputs of a loan. A nil rate
// or commission was left out by the caller and takes the settings default; an
// explicit zero is kept.
type LoanTerms struct {
	Principal              decimal.Decimal  `json:"principal" validate:"gt=0"`
	InterestRate           *decimal.Decimal `json:"interest_rate,omitempty" validate:"omitempty,gte=0"`
	Duration               int              `json:"duration" validate:"gt=0"`
	InterestDurationMonths decimal.Decimal  `json:"interest_duration_months" validate:"gte=0"`
	FixedInstallmentAmount decimal.Decimal  `json:"fixed_installment_amount" validate:"gte=0"`
	DeductionConfig        DeductionConfig  `json:"deduction_config"`
	AdminCommission        CommissionTerms  `json:"admin_commission"`
	StaffCommission        CommissionTerms  `json:"staff_commission"`
}

type CommissionTerms struct {
	Percent *decimal.Decimal `json:"percent,omitempty" validate:"omitempty,gte=0"`
	Amount  *decimal.Decimal `json:"amount,omitempty" validate:"omitempty,gte=0"`
}

// Given reports whether the caller set either side of the commission.
func (c CommissionTerms) Given() bool {
	return c.Percent != nil || c.Amount != nil
}

type RolloverRequest struct {
	LinkedLoanID   uuid.UUID       `json:"linked_loan_id" validate:"required"`
	AmountDeducted decimal.Decimal `json:"amount_deducted" validate:"gte=0"`
	Notes          string          `json:"notes"`
}

type CreateLoanRequest struct {
	CustomerID       string           `json:"customer_id" validate:"required"`
	LoanType         LoanType         `json:"loan_type" validate:"required,oneof=Daily Weekly Monthly"`
	DisbursementMode string           `json:"disbursement_mode"`
	Terms            LoanTerms        `json:"financials"`
	LenderID         *uuid.UUID       `json:"lender_id,omitempty"`
	Lenders          []LenderSplit    `json:"lenders" validate:"dive"`
	Rollover         *RolloverRequest `json:"rollover,omitempty"`
	StartDate        *time.Time       `json:"start_date,omitempty"`
}

type DisbursementRequest struct {
	LoanType          LoanType        `json:"loan_type" validate:"required,oneof=Daily Weekly Monthly"`
	Terms             LoanTerms       `json:"financials"`
	RolloverDeduction decimal.Decimal `json:"rollover_deduction" validate:"gte=0"`
}

// DisbursementBreakdown is the result of applying upfront deductions to a principal.
type DisbursementBreakdown struct {
	InterestDeduction     decimal.Decimal `json:"interest_deduction"`
	AdminDeduction        decimal.Decimal `json:"admin_deduction"`
	StaffDeduction        decimal.Decimal `json:"staff_deduction"`
	RolloverDeduction     decimal.Decimal `json:"rollover_deduction"`
	NetDisbursementAmount decimal.Decimal `json:"net_disbursement_amount"`
}

type ScheduleRequest struct {
	LoanType  LoanType   `json:"loan_type" validate:"required,oneof=Daily Weekly Monthly"`
	Terms     LoanTerms  `json:"financials"`
	StartDate *time.Time `json:"start_date,omitempty"`
}

type ScheduleResponse struct {
	LoanType     LoanType        `json:"loan_type"`
	TotalPayable decimal.Decimal `json:"total_payable"`
	Dues         []*Due          `json:"dues"`
}

type RecordCollectionRequest struct {
	Amount              decimal.Decimal `json:"amount" validate:"gt=0"`
	CollectedBy         string          `json:"collected_by" validate:"required"`
	PaymentMode         string          `json:"payment_mode" validate:"required"`
	Notes               string          `json:"notes"`
	DeviceTransactionID string          `json:"device_transaction_id"`
	IsOfflineEntry      bool            `json:"is_offline_entry"`
}

type CollectionResult struct {
	Transaction *Transaction `json:"transaction"`
	Loan        *Loan        `json:"loan"`
	// Replayed is set when the device transaction id was already recorded and
	// nothing was mutated.
	Replayed bool `json:"replayed"`
}

type RegisterLenderRequest struct {
	Name string `json:"name" validate:"required"`
}

type CashEntryRequest struct {
	Type         LenderTransactionType `json:"type" validate:"required,oneof=Deposit Withdrawal"`
	Amount       decimal.Decimal       `json:"amount" validate:"gt=0"`
	PaymentSplit []PaymentSplit        `json:"payment_split" validate:"required,min=1,dive"`
	Notes        string                `json:"notes"`
	ProcessedBy  string                `json:"processed_by"`
}

type CashEntryResult struct {
	Entry  *LenderTransaction `json:"entry"`
	Lender *Lender            `json:"lender"`
}
