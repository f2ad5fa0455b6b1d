package calculator

import (
	"time"

	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

// SummarizeOverdue reports the dues of loan that fell due before asOf and are
// not fully paid. ConsecutiveMissed counts the unbroken run of such dues
// ending at the most recent one; a paid due resets the run.
func SummarizeOverdue(loan *domain.Loan, asOf time.Time) domain.OverdueSummary {
	summary := domain.OverdueSummary{
		LoanID:             loan.ID,
		AsOf:               asOf,
		OverdueAmount:      decimal.Zero,
		OutstandingBalance: loan.Outstanding(),
	}

	for _, due := range loan.Dues {
		if !utils.IsDateOverdue(due.Date, asOf) {
			break
		}
		if due.Status == domain.DueStatusPaid {
			summary.ConsecutiveMissed = 0
			continue
		}
		summary.ConsecutiveMissed++
		summary.OverdueCount++
		summary.OverdueAmount = summary.OverdueAmount.Add(due.Remaining())
		if summary.OldestOverdueDate == nil {
			date := due.Date
			summary.OldestOverdueDate = &date
		}
	}
	return summary
}
