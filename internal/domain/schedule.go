package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DueType string

const (
	DueTypeInterest  DueType = "Interest"
	DueTypePrincipal DueType = "Principal"
)

type DueStatus string

const (
	DueStatusUnpaid  DueStatus = "Unpaid"
	DueStatusPartial DueStatus = "Partial"
	DueStatusPaid    DueStatus = "Paid"
)

// Due represents one scheduled installment of a loan
type Due struct {
	ID                uuid.UUID       `json:"id"`
	LoanID            uuid.UUID       `json:"loan_id"`
	InstallmentNumber int             `json:"installment_number"`
	Date              time.Time       `json:"date"`
	Type              DueType         `json:"type"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	Status            DueStatus       `json:"status"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
}

// Remaining returns what is still owed on the installment.
func (d *Due) Remaining() decimal.Decimal {
	if d.Status == DueStatusPaid {
		return decimal.Zero
	}
	return d.Amount.Sub(d.PaidAmount)
}

// OverdueSummary describes the dues of a loan that fell due before a cut-off date.
type OverdueSummary struct {
	LoanID             uuid.UUID       `json:"loan_id"`
	AsOf               time.Time       `json:"as_of"`
	OverdueCount       int             `json:"overdue_count"`
	OverdueAmount      decimal.Decimal `json:"overdue_amount"`
	OldestOverdueDate  *time.Time      `json:"oldest_overdue_date,omitempty"`
	ConsecutiveMissed  int             `json:"consecutive_missed"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

// SweepReport totals one overdue pass over the active book.
type SweepReport struct {
	AsOf          time.Time       `json:"as_of"`
	LoansScanned  int             `json:"loans_scanned"`
	LoansOverdue  int             `json:"loans_overdue"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
}
