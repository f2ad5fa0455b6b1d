package repository

import (
	"context"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/google/uuid"
)

// Transactor runs a unit of work atomically. Repositories called with the
// context passed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create stores a loan together with its dues and lender shares
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan with its dues in schedule order and lenders in priority order
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error)

	// List returns loans matching the filter, newest first, with dues and lenders loaded
	List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error)

	// UpdateState persists status, running totals, risk flags and the given dues.
	// It fails with ErrVersionConflict when the stored version no longer matches
	// loan.Version, and bumps loan.Version on success.
	UpdateState(ctx context.Context, loan *domain.Loan, dues []*domain.Due) error
}

// LenderRepository defines the interface for lender pool accounts
type LenderRepository interface {
	Create(ctx context.Context, lender *domain.Lender) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lender, error)

	// GetByIDs returns the lenders that exist among ids, keyed by id
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Lender, error)

	// UpdateBalance writes CurrentBalanceWithAdmin guarded by lender.Version,
	// failing with ErrVersionConflict on a stale version
	UpdateBalance(ctx context.Context, lender *domain.Lender) error
}

// LenderTransactionRepository stores the append-only lender cash ledger
type LenderTransactionRepository interface {
	Create(ctx context.Context, entry *domain.LenderTransaction) error

	// ListByLender returns entries newest first
	ListByLender(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error)
}

// TransactionRepository stores collection transactions
type TransactionRepository interface {
	// Create fails with ErrDuplicateTransaction when the device transaction id is taken
	Create(ctx context.Context, txn *domain.Transaction) error

	// FindByDeviceTransactionID returns nil without error when no transaction matches
	FindByDeviceTransactionID(ctx context.Context, deviceTransactionID string) (*domain.Transaction, error)

	// List returns transactions matching the filter, newest first
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}
