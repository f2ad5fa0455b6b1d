package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segyhp/lending-engine/internal/domain"
	customError "github.com/segyhp/lending-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, loan_id, customer_id, collected_by, amount, applied_amount, excess_amount,
	payment_type, payment_mode, installment_numbers, notes, device_transaction_id, is_offline_entry,
	synced_at, created_at`

type transactionRow struct {
	ID                  string          `db:"id"`
	LoanID              string          `db:"loan_id"`
	CustomerID          string          `db:"customer_id"`
	CollectedBy         string          `db:"collected_by"`
	Amount              decimal.Decimal `db:"amount"`
	AppliedAmount       decimal.Decimal `db:"applied_amount"`
	ExcessAmount        decimal.Decimal `db:"excess_amount"`
	PaymentType         string          `db:"payment_type"`
	PaymentMode         string          `db:"payment_mode"`
	InstallmentNumbers  string          `db:"installment_numbers"`
	Notes               string          `db:"notes"`
	DeviceTransactionID *string         `db:"device_transaction_id"`
	IsOfflineEntry      int             `db:"is_offline_entry"`
	SyncedAt            *string         `db:"synced_at"`
	CreatedAt           string          `db:"created_at"`
}

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	installments := txn.InstallmentNumbers
	if installments == nil {
		installments = []int{}
	}
	encoded, err := json.Marshal(installments)
	if err != nil {
		return fmt.Errorf("encode installment numbers: %w", err)
	}

	row := transactionRow{
		ID:                  txn.ID.String(),
		LoanID:              txn.LoanID.String(),
		CustomerID:          txn.CustomerID,
		CollectedBy:         txn.CollectedBy,
		Amount:              txn.Amount,
		AppliedAmount:       txn.AppliedAmount,
		ExcessAmount:        txn.ExcessAmount,
		PaymentType:         string(txn.PaymentType),
		PaymentMode:         txn.PaymentMode,
		InstallmentNumbers:  string(encoded),
		Notes:               txn.Notes,
		DeviceTransactionID: nullableString(txn.SyncDetails.DeviceTransactionID),
		SyncedAt:            formatNullableTime(txn.SyncDetails.SyncedAt),
		CreatedAt:           formatTime(txn.CreatedAt),
	}
	if txn.SyncDetails.IsOfflineEntry {
		row.IsOfflineEntry = 1
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (:id, :loan_id, :customer_id, :collected_by, :amount, :applied_amount, :excess_amount,
			:payment_type, :payment_mode, :installment_numbers, :notes, :device_transaction_id, :is_offline_entry,
			:synced_at, :created_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, row); err != nil {
		if isUniqueViolation(err) {
			return customError.ErrDuplicateTransaction
		}
		return err
	}
	return nil
}

func (r *transactionRepository) FindByDeviceTransactionID(ctx context.Context, deviceTransactionID string) (*domain.Transaction, error) {
	if deviceTransactionID == "" {
		return nil, nil
	}

	ext := executor(ctx, r.db)
	query := ext.Rebind(`SELECT ` + transactionColumns + ` FROM transactions WHERE device_transaction_id = ?`)

	var row transactionRow
	if err := sqlx.GetContext(ctx, ext, &row, query, deviceTransactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain()
}

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1 = 1`
	var args []interface{}
	if filter.LoanID != nil {
		query += ` AND loan_id = ?`
		args = append(args, filter.LoanID.String())
	}
	if filter.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID)
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	ext := executor(ctx, r.db)
	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	txns := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txn, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (row transactionRow) toDomain() (*domain.Transaction, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	loanID, err := uuid.Parse(row.LoanID)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	syncedAt, err := parseNullableTime(row.SyncedAt)
	if err != nil {
		return nil, err
	}

	var installments []int
	if err := json.Unmarshal([]byte(row.InstallmentNumbers), &installments); err != nil {
		return nil, fmt.Errorf("decode installment numbers: %w", err)
	}

	txn := &domain.Transaction{
		ID:                 id,
		LoanID:             loanID,
		CustomerID:         row.CustomerID,
		CollectedBy:        row.CollectedBy,
		Amount:             row.Amount,
		AppliedAmount:      row.AppliedAmount,
		ExcessAmount:       row.ExcessAmount,
		PaymentType:        domain.PaymentType(row.PaymentType),
		PaymentMode:        row.PaymentMode,
		InstallmentNumbers: installments,
		Notes:              row.Notes,
		SyncDetails: domain.SyncDetails{
			IsOfflineEntry: row.IsOfflineEntry != 0,
			SyncedAt:       syncedAt,
		},
		CreatedAt: createdAt,
	}
	if row.DeviceTransactionID != nil {
		txn.SyncDetails.DeviceTransactionID = *row.DeviceTransactionID
	}
	return txn, nil
}
