package mocks

import (
	"context"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateState(ctx context.Context, loan *domain.Loan, dues []*domain.Due) error {
	args := m.Called(ctx, loan, dues)
	return args.Error(0)
}

type MockLenderRepository struct {
	mock.Mock
}

func (m *MockLenderRepository) Create(ctx context.Context, lender *domain.Lender) error {
	args := m.Called(ctx, lender)
	return args.Error(0)
}

func (m *MockLenderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lender, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Lender), args.Error(1)
}

func (m *MockLenderRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Lender, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*domain.Lender), args.Error(1)
}

func (m *MockLenderRepository) UpdateBalance(ctx context.Context, lender *domain.Lender) error {
	args := m.Called(ctx, lender)
	return args.Error(0)
}

type MockLenderTransactionRepository struct {
	mock.Mock
}

func (m *MockLenderTransactionRepository) Create(ctx context.Context, entry *domain.LenderTransaction) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLenderTransactionRepository) ListByLender(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error) {
	args := m.Called(ctx, lenderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LenderTransaction), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByDeviceTransactionID(ctx context.Context, deviceTransactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, deviceTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

// MockTransactor runs the unit of work directly and counts the attempts.
type MockTransactor struct {
	Calls int
}

func (m *MockTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	return fn(ctx)
}

type MockLoanCache struct {
	mock.Mock
}

func (m *MockLoanCache) GetLoan(ctx context.Context, id uuid.UUID) (*domain.Loan, bool) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Loan), args.Bool(1)
}

func (m *MockLoanCache) SetLoan(ctx context.Context, loan *domain.Loan) {
	m.Called(ctx, loan)
}

func (m *MockLoanCache) InvalidateLoan(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

func (m *MockLoanCache) GetOverdue(ctx context.Context, loanID uuid.UUID) (*domain.OverdueSummary, bool) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.OverdueSummary), args.Bool(1)
}

func (m *MockLoanCache) SetOverdue(ctx context.Context, summary *domain.OverdueSummary) {
	m.Called(ctx, summary)
}
