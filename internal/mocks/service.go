package mocks

import (
	"context"
	"time"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) ComputeDisbursement(ctx context.Context, request *domain.DisbursementRequest, settings domain.Settings) (*domain.DisbursementBreakdown, error) {
	args := m.Called(ctx, request, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DisbursementBreakdown), args.Error(1)
}

func (m *MockLoanService) PreviewSchedule(ctx context.Context, request *domain.ScheduleRequest, settings domain.Settings) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, request, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockLoanService) CreateLoanWithFunding(ctx context.Context, request *domain.CreateLoanRequest, settings domain.Settings) (*domain.Loan, error) {
	args := m.Called(ctx, request, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanService) ListLoans(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type MockOverdueService struct {
	mock.Mock
}

func (m *MockOverdueService) LoanOverdue(ctx context.Context, loanID uuid.UUID, asOf time.Time) (*domain.OverdueSummary, error) {
	args := m.Called(ctx, loanID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OverdueSummary), args.Error(1)
}

type MockLenderService struct {
	mock.Mock
}

func (m *MockLenderService) RegisterLender(ctx context.Context, request *domain.RegisterLenderRequest) (*domain.Lender, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lender), args.Error(1)
}

func (m *MockLenderService) RecordCashEntry(ctx context.Context, lenderID uuid.UUID, request *domain.CashEntryRequest, settings domain.Settings) (*domain.CashEntryResult, error) {
	args := m.Called(ctx, lenderID, request, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashEntryResult), args.Error(1)
}

func (m *MockLenderService) GetLender(ctx context.Context, id uuid.UUID) (*domain.Lender, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lender), args.Error(1)
}

func (m *MockLenderService) ListCashEntries(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error) {
	args := m.Called(ctx, lenderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LenderTransaction), args.Error(1)
}

type MockCollectionService struct {
	mock.Mock
}

func (m *MockCollectionService) RecordCollection(ctx context.Context, loanID uuid.UUID, request *domain.RecordCollectionRequest, settings domain.Settings) (*domain.CollectionResult, error) {
	args := m.Called(ctx, loanID, request, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionResult), args.Error(1)
}

func (m *MockCollectionService) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}
