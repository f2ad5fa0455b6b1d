package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
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

type LoanService struct {
	loans      repository.LoanRepository
	lenders    repository.LenderRepository
	tx         repository.Transactor
	cache      cache.LoanCache
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

func NewLoanService(
	loans repository.LoanRepository,
	lenders repository.LenderRepository,
	tx repository.Transactor,
	loanCache cache.LoanCache,
	logger *slog.Logger,
	maxRetries int,
) *LoanService {
	return &LoanService{
		loans:      loans,
		lenders:    lenders,
		tx:         tx,
		cache:      loanCache,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// ComputeDisbursement previews the upfront deductions for a draft without
// touching storage.
func (s *LoanService) ComputeDisbursement(ctx context.Context, request *domain.DisbursementRequest, settings domain.Settings) (*domain.DisbursementBreakdown, error) {
	financials, err := buildFinancials(request.LoanType, request.Terms, settings)
	if err != nil {
		return nil, err
	}
	if request.RolloverDeduction.IsNegative() {
		return nil, customError.WrapInvalidLoanTerms("rollover deduction must not be negative")
	}

	breakdown := calculator.ComputeDisbursement(disbursementTerms(financials, request.RolloverDeduction))
	if err := checkNetDisbursement(breakdown.NetDisbursementAmount); err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// PreviewSchedule generates the dues a draft would produce.
func (s *LoanService) PreviewSchedule(ctx context.Context, request *domain.ScheduleRequest, settings domain.Settings) (*domain.ScheduleResponse, error) {
	financials, err := buildFinancials(request.LoanType, request.Terms, settings)
	if err != nil {
		return nil, err
	}

	terms := calculator.ScheduleTermsFrom(financials)
	dues, err := calculator.GenerateSchedule(request.LoanType, terms, s.startDate(request.StartDate))
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{
		LoanType:     request.LoanType,
		TotalPayable: calculator.TotalPayable(request.LoanType, terms),
		Dues:         dues,
	}, nil
}

// CreateLoanWithFunding validates a draft, debits the funding lenders and
// stores the loan with its schedule. Lender debits, the rollover closure and
// the loan insert commit together or not at all.
func (s *LoanService) CreateLoanWithFunding(ctx context.Context, request *domain.CreateLoanRequest, settings domain.Settings) (*domain.Loan, error) {
	if strings.TrimSpace(request.CustomerID) == "" {
		return nil, customError.WrapInvalidRequest("customer_id is required")
	}

	financials, err := buildFinancials(request.LoanType, request.Terms, settings)
	if err != nil {
		return nil, err
	}

	mode, err := disbursementMode(request.DisbursementMode, settings)
	if err != nil {
		return nil, err
	}

	rolloverDeduction := decimal.Zero
	if request.Rollover != nil {
		if request.Rollover.LinkedLoanID == uuid.Nil {
			return nil, customError.WrapInvalidLoanTerms("rollover must name the linked loan")
		}
		if request.Rollover.AmountDeducted.IsNegative() {
			return nil, customError.WrapInvalidLoanTerms("rollover deduction must not be negative")
		}
		rolloverDeduction = request.Rollover.AmountDeducted
	}

	breakdown := calculator.ComputeDisbursement(disbursementTerms(financials, rolloverDeduction))
	if err := checkNetDisbursement(breakdown.NetDisbursementAmount); err != nil {
		return nil, err
	}
	financials.InterestDeduction = breakdown.InterestDeduction
	financials.AdminDeduction = breakdown.AdminDeduction
	financials.StaffDeduction = breakdown.StaffDeduction
	financials.RolloverDeduction = breakdown.RolloverDeduction
	financials.NetDisbursementAmount = breakdown.NetDisbursementAmount

	dues, err := calculator.GenerateSchedule(request.LoanType, calculator.ScheduleTermsFrom(financials), s.startDate(request.StartDate))
	if err != nil {
		return nil, err
	}

	splits, err := fundingSplits(request, breakdown.NetDisbursementAmount)
	if err != nil {
		return nil, err
	}
	plan, err := calculator.PlanAllocation(breakdown.NetDisbursementAmount, splits)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loan := &domain.Loan{
		ID:               uuid.New(),
		CustomerID:       request.CustomerID,
		LoanType:         request.LoanType,
		Status:           domain.LoanStatusActive,
		DisbursementMode: mode,
		Financials:       financials,
		Dues:             dues,
		Lenders:          plan.Lenders,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if request.Rollover != nil {
		loan.Rollover = &domain.Rollover{
			LinkedLoanID:   request.Rollover.LinkedLoanID,
			AmountDeducted: rolloverDeduction,
			Notes:          request.Rollover.Notes,
		}
	}
	for _, due := range loan.Dues {
		due.ID = uuid.New()
		due.LoanID = loan.ID
	}

	var closedLinked bool
	err = withRetry(ctx, s.logger, "loan funding", s.maxRetries, func() error {
		closedLinked = false
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			current, err := s.lenders.GetByIDs(ctx, plan.LenderIDs)
			if err != nil {
				return storageError(err)
			}
			balances := make(map[uuid.UUID]decimal.Decimal, len(current))
			for id, lender := range current {
				balances[id] = lender.CurrentBalanceWithAdmin
			}
			next, err := plan.Apply(balances)
			if err != nil {
				return err
			}

			if loan.Rollover != nil {
				closed, err := s.closeLinkedLoan(ctx, loan.Rollover.LinkedLoanID, now)
				if err != nil {
					return err
				}
				closedLinked = closed
			}

			for _, id := range plan.LenderIDs {
				lender := current[id]
				lender.CurrentBalanceWithAdmin = next[id]
				lender.UpdatedAt = now
				if err := s.lenders.UpdateBalance(ctx, lender); err != nil {
					return storageError(err)
				}
			}

			return storageError(s.loans.Create(ctx, loan))
		})
	})
	if err != nil {
		return nil, err
	}

	if closedLinked {
		s.cache.InvalidateLoan(ctx, loan.Rollover.LinkedLoanID)
		s.logger.InfoContext(ctx, "loan closed via rollover",
			"loan_id", loan.Rollover.LinkedLoanID, "rolled_into", loan.ID)
	}
	s.cache.SetLoan(ctx, loan)
	s.logger.InfoContext(ctx, "loan created",
		"loan_id", loan.ID,
		"customer_id", loan.CustomerID,
		"loan_type", loan.LoanType,
		"principal", loan.Financials.Principal.String(),
		"net_disbursement", loan.Financials.NetDisbursementAmount.String(),
		"dues", len(loan.Dues),
		"lenders", len(loan.Lenders),
	)

	return loan, nil
}

// closeLinkedLoan settles the loan a rollover replaces. A loan that is already
// Closed is left alone; a Default loan cannot be rolled over.
func (s *LoanService) closeLinkedLoan(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	linked, err := s.loans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customError.ErrLoanNotFound) {
			return false, customError.WrapLoanNotFound(id.String())
		}
		return false, storageError(err)
	}

	switch linked.Status {
	case domain.LoanStatusClosed:
		return false, nil
	case domain.LoanStatusActive:
		linked.Status = domain.LoanStatusClosed
		linked.RiskFlags = append(linked.RiskFlags, domain.RiskFlagClosedViaRollover)
		linked.UpdatedAt = now
		if err := s.loans.UpdateState(ctx, linked, nil); err != nil {
			return false, storageError(err)
		}
		return true, nil
	default:
		return false, customError.WrapLoanNotActive(id.String(), string(linked.Status))
	}
}

func (s *LoanService) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	if loan, ok := s.cache.GetLoan(ctx, id); ok {
		return loan, nil
	}

	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, customError.ErrLoanNotFound) {
			return nil, customError.WrapLoanNotFound(id.String())
		}
		return nil, storageError(err)
	}

	s.cache.SetLoan(ctx, loan)
	return loan, nil
}

func (s *LoanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	loans, err := s.loans.List(ctx, filter)
	if err != nil {
		return nil, storageError(err)
	}
	return loans, nil
}

func (s *LoanService) startDate(requested *time.Time) time.Time {
	if requested != nil && !requested.IsZero() {
		return *requested
	}
	return utils.StartOfDay(s.now())
}

// checkNetDisbursement rejects drafts whose deductions leave nothing for the
// customer. Preview and creation share it.
func checkNetDisbursement(net decimal.Decimal) error {
	if net.IsPositive() {
		return nil
	}
	return customError.WrapInvalidLoanTerms(
		fmt.Sprintf("deductions leave nothing to disburse: net disbursement would be %s", net))
}

// buildFinancials validates caller terms and fills defaults: rate and
// commissions from settings when the caller left them out, commission percent
// and amount from each other, the interest basis from the loan type and
// duration, and End for unset deduction timings.
func buildFinancials(loanType domain.LoanType, terms domain.LoanTerms, settings domain.Settings) (domain.Financials, error) {
	if !loanType.Valid() {
		return domain.Financials{}, customError.WrapInvalidLoanTerms(fmt.Sprintf("unknown loan type %q", loanType))
	}
	if !terms.Principal.IsPositive() {
		return domain.Financials{}, customError.WrapInvalidLoanTerms("principal must be greater than 0")
	}
	if terms.Duration <= 0 {
		return domain.Financials{}, customError.WrapInvalidLoanTerms("duration must be greater than 0")
	}
	for name, value := range map[string]decimal.Decimal{
		"interest rate":            decimalOr(terms.InterestRate, decimal.Zero),
		"interest duration months": terms.InterestDurationMonths,
		"fixed installment amount": terms.FixedInstallmentAmount,
		"admin commission percent": decimalOr(terms.AdminCommission.Percent, decimal.Zero),
		"admin commission amount":  decimalOr(terms.AdminCommission.Amount, decimal.Zero),
		"staff commission percent": decimalOr(terms.StaffCommission.Percent, decimal.Zero),
		"staff commission amount":  decimalOr(terms.StaffCommission.Amount, decimal.Zero),
	} {
		if value.IsNegative() {
			return domain.Financials{}, customError.WrapInvalidLoanTerms(name + " must not be negative")
		}
	}

	deductions := calculator.NormalizeDeductionConfig(terms.DeductionConfig)
	if !calculator.ValidDeductionConfig(deductions) {
		return domain.Financials{}, customError.WrapInvalidLoanTerms("deduction timings must be Upfront or End")
	}

	rate := decimalOr(terms.InterestRate, settings.DefaultInterestRate)

	months := terms.InterestDurationMonths
	if months.IsZero() {
		months = calculator.InterestMonths(loanType, terms.Duration)
	}

	return domain.Financials{
		Principal:              terms.Principal,
		InterestRate:           rate,
		Duration:               terms.Duration,
		InterestDurationMonths: months,
		FixedInstallmentAmount: terms.FixedInstallmentAmount,
		DeductionConfig:        deductions,
		AdminCommission:        withDefaultCommission(terms.Principal, terms.AdminCommission, settings.DefaultAdminCommissionPercent),
		StaffCommission:        withDefaultCommission(terms.Principal, terms.StaffCommission, settings.DefaultStaffCommissionPercent),
		InterestDeduction:      decimal.Zero,
		AdminDeduction:         decimal.Zero,
		StaffDeduction:         decimal.Zero,
		RolloverDeduction:      decimal.Zero,
		NetDisbursementAmount:  decimal.Zero,
		TotalPrincipalPaid:     decimal.Zero,
		TotalInterestPaid:      decimal.Zero,
		TotalPenaltyPaid:       decimal.Zero,
		ExcessCollected:        decimal.Zero,
	}, nil
}

func decimalOr(v *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if v == nil {
		return fallback
	}
	return *v
}

// withDefaultCommission applies the settings percent only to a commission the
// caller did not send at all.
func withDefaultCommission(principal decimal.Decimal, c domain.CommissionTerms, defaultPercent decimal.Decimal) domain.Commission {
	if !c.Given() {
		return calculator.SyncCommission(principal, domain.Commission{Percent: defaultPercent, Amount: decimal.Zero})
	}
	return calculator.SyncCommission(principal, domain.Commission{
		Percent: decimalOr(c.Percent, decimal.Zero),
		Amount:  decimalOr(c.Amount, decimal.Zero),
	})
}

func disbursementTerms(f domain.Financials, rollover decimal.Decimal) calculator.DisbursementTerms {
	return calculator.DisbursementTerms{
		Principal:              f.Principal,
		InterestRate:           f.InterestRate,
		InterestDurationMonths: f.InterestDurationMonths,
		DeductionConfig:        f.DeductionConfig,
		AdminCommissionAmount:  f.AdminCommission.Amount,
		StaffCommissionAmount:  f.StaffCommission.Amount,
		RolloverDeduction:      rollover,
	}
}

// disbursementMode defaults to the first active payment mode and stores the
// configured spelling of a given one.
func disbursementMode(mode string, settings domain.Settings) (string, error) {
	mode = strings.TrimSpace(mode)
	if mode == "" {
		if len(settings.ActivePaymentModes) == 0 {
			return "", customError.WrapInvalidRequest("disbursement_mode is required")
		}
		return settings.ActivePaymentModes[0], nil
	}
	resolved, ok := settings.ResolvePaymentMode(mode)
	if !ok {
		return "", customError.WrapUnknownPaymentMode(mode)
	}
	return resolved, nil
}

// fundingSplits resolves the single-lender shortcut, which funds the whole net
// disbursement from one pool.
func fundingSplits(request *domain.CreateLoanRequest, net decimal.Decimal) ([]domain.LenderSplit, error) {
	switch {
	case request.LenderID != nil && len(request.Lenders) > 0:
		return nil, customError.WrapInvalidLoanTerms("give either lender_id or lenders, not both")
	case request.LenderID != nil:
		return []domain.LenderSplit{{LenderID: *request.LenderID, InvestedAmount: net, Priority: 1}}, nil
	case len(request.Lenders) == 0:
		return nil, customError.WrapInvalidLoanTerms("a loan must be funded by at least one lender")
	default:
		return request.Lenders, nil
	}
}
