package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segyhp/lending-engine/internal/cache"
	"github.com/segyhp/lending-engine/internal/calculator"
	"github.com/segyhp/lending-engine/internal/domain"
	"github.com/segyhp/lending-engine/internal/repository"
	customError "github.com/segyhp/lending-engine/pkg/errors"
	"github.com/segyhp/lending-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const sweepPageSize = 200

type OverdueService struct {
	loans  repository.LoanRepository
	cache  cache.LoanCache
	logger *slog.Logger
}

func NewOverdueService(loans repository.LoanRepository, loanCache cache.LoanCache, logger *slog.Logger) *OverdueService {
	return &OverdueService{loans: loans, cache: loanCache, logger: logger}
}

// LoanOverdue summarises the dues of one loan that fell due before the day of
// asOf. A summary cached by the sweep for the same day is served as is.
func (s *OverdueService) LoanOverdue(ctx context.Context, loanID uuid.UUID, asOf time.Time) (*domain.OverdueSummary, error) {
	day := utils.StartOfDay(asOf)
	if cached, ok := s.cache.GetOverdue(ctx, loanID); ok && cached.AsOf.Equal(day) {
		return cached, nil
	}

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, customError.ErrLoanNotFound) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, storageError(err)
	}

	summary := calculator.SummarizeOverdue(loan, day)
	s.cache.SetOverdue(ctx, &summary)
	return &summary, nil
}

// Sweep walks every Active loan, caches its overdue summary for the day of asOf
// and reports totals.
func (s *OverdueService) Sweep(ctx context.Context, asOf time.Time) (*domain.SweepReport, error) {
	day := utils.StartOfDay(asOf)
	report := &domain.SweepReport{AsOf: day, OverdueAmount: decimal.Zero}

	for offset := 0; ; offset += sweepPageSize {
		loans, err := s.loans.List(ctx, domain.LoanFilter{
			Status: domain.LoanStatusActive,
			Limit:  sweepPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, storageError(err)
		}

		for _, loan := range loans {
			summary := calculator.SummarizeOverdue(loan, day)
			s.cache.SetOverdue(ctx, &summary)

			report.LoansScanned++
			if summary.OverdueCount > 0 {
				report.LoansOverdue++
				report.OverdueAmount = report.OverdueAmount.Add(summary.OverdueAmount)
			}
		}

		if len(loans) < sweepPageSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "overdue sweep finished",
		"as_of", day,
		"loans_scanned", report.LoansScanned,
		"loans_overdue", report.LoansOverdue,
		"overdue_amount", report.OverdueAmount.String(),
	)
	return report, nil
}
