package calculator

import (
	"fmt"
	"sort"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationPlan is a validated funding split for one loan. Debits aggregates
// the invested amounts per lender so a lender listed twice is checked once
// against its full exposure.
type AllocationPlan struct {
	Lenders []*domain.LoanLender
	Debits  map[uuid.UUID]decimal.Decimal
	// LenderIDs lists the distinct lenders in funding priority order.
	LenderIDs []uuid.UUID
}

// PlanAllocation validates that splits fund exactly netDisbursement, with no
// tolerance, and orders them by priority. When no split carries a priority the
// list order is the funding order; otherwise priorities must be 1..n.
func PlanAllocation(netDisbursement decimal.Decimal, splits []domain.LenderSplit) (*AllocationPlan, error) {
	total := decimal.Zero
	for i, s := range splits {
		if s.LenderID == uuid.Nil {
			return nil, customError.WrapInvalidLoanTerms(fmt.Sprintf("lender split %d has no lender", i+1))
		}
		if !s.InvestedAmount.IsPositive() {
			return nil, customError.WrapInvalidLoanTerms(fmt.Sprintf("lender split %d must invest a positive amount", i+1))
		}
		total = total.Add(s.InvestedAmount)
	}
	if !total.Equal(netDisbursement) {
		return nil, customError.WrapFundingMismatch(netDisbursement.String(), total.String())
	}

	priorities, err := resolvePriorities(splits)
	if err != nil {
		return nil, err
	}

	plan := &AllocationPlan{
		Lenders: make([]*domain.LoanLender, 0, len(splits)),
		Debits:  make(map[uuid.UUID]decimal.Decimal, len(splits)),
	}
	for i, s := range splits {
		plan.Lenders = append(plan.Lenders, &domain.LoanLender{
			LenderID:       s.LenderID,
			InvestedAmount: s.InvestedAmount,
			RepaidAmount:   decimal.Zero,
			Priority:       priorities[i],
			Status:         domain.LoanLenderActive,
		})
	}
	sort.SliceStable(plan.Lenders, func(a, b int) bool {
		return plan.Lenders[a].Priority < plan.Lenders[b].Priority
	})
	for _, l := range plan.Lenders {
		debit, seen := plan.Debits[l.LenderID]
		if !seen {
			plan.LenderIDs = append(plan.LenderIDs, l.LenderID)
			debit = decimal.Zero
		}
		plan.Debits[l.LenderID] = debit.Add(l.InvestedAmount)
	}
	return plan, nil
}

func resolvePriorities(splits []domain.LenderSplit) ([]int, error) {
	out := make([]int, len(splits))
	explicit := false
	for _, s := range splits {
		if s.Priority != 0 {
			explicit = true
			break
		}
	}
	if !explicit {
		for i := range splits {
			out[i] = i + 1
		}
		return out, nil
	}

	seen := make(map[int]bool, len(splits))
	for i, s := range splits {
		if s.Priority < 1 || s.Priority > len(splits) || seen[s.Priority] {
			return nil, customError.WrapInvalidLoanTerms(
				fmt.Sprintf("lender priorities must be unique values 1..%d", len(splits)))
		}
		seen[s.Priority] = true
		out[i] = s.Priority
	}
	return out, nil
}

// Apply checks every debit against balances before computing any new balance,
// so a single short lender fails the whole plan. balances is not modified.
func (p *AllocationPlan) Apply(balances map[uuid.UUID]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	for _, id := range p.LenderIDs {
		available, ok := balances[id]
		if !ok {
			return nil, customError.WrapLenderNotFound(id.String())
		}
		if available.LessThan(p.Debits[id]) {
			return nil, customError.WrapInsufficientLenderBalance(id.String(), available.String(), p.Debits[id].String())
		}
	}

	next := make(map[uuid.UUID]decimal.Decimal, len(p.LenderIDs))
	for _, id := range p.LenderIDs {
		next[id] = balances[id].Sub(p.Debits[id])
	}
	return next, nil
}
