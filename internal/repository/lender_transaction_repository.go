package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segyhp/lending-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type lenderTransactionRow struct {
	ID           string          `db:"id"`
	LenderID     string          `db:"lender_id"`
	Type         string          `db:"type"`
	Amount       decimal.Decimal `db:"amount"`
	PaymentSplit string          `db:"payment_split"`
	Notes        string          `db:"notes"`
	ProcessedBy  string          `db:"processed_by"`
	CreatedAt    string          `db:"created_at"`
}

type lenderTransactionRepository struct {
	db *sqlx.DB
}

func NewLenderTransactionRepository(db *sqlx.DB) LenderTransactionRepository {
	return &lenderTransactionRepository{db: db}
}

func (r *lenderTransactionRepository) Create(ctx context.Context, entry *domain.LenderTransaction) error {
	split, err := json.Marshal(entry.PaymentSplit)
	if err != nil {
		return fmt.Errorf("encode payment split: %w", err)
	}

	query := `
		INSERT INTO lender_transactions (id, lender_id, type, amount, payment_split, notes, processed_by, created_at)
		VALUES (:id, :lender_id, :type, :amount, :payment_split, :notes, :processed_by, :created_at)
	`
	row := lenderTransactionRow{
		ID:           entry.ID.String(),
		LenderID:     entry.LenderID.String(),
		Type:         string(entry.Type),
		Amount:       entry.Amount,
		PaymentSplit: string(split),
		Notes:        entry.Notes,
		ProcessedBy:  entry.ProcessedBy,
		CreatedAt:    formatTime(entry.CreatedAt),
	}

	_, err = sqlx.NamedExecContext(ctx, executor(ctx, r.db), query, row)
	return err
}

func (r *lenderTransactionRepository) ListByLender(ctx context.Context, lenderID uuid.UUID, limit, offset int) ([]*domain.LenderTransaction, error) {
	query := `
		SELECT id, lender_id, type, amount, payment_split, notes, processed_by, created_at
		FROM lender_transactions
		WHERE lender_id = ?
		ORDER BY created_at DESC, id
	`
	args := []interface{}{lenderID.String()}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	ext := executor(ctx, r.db)
	var rows []lenderTransactionRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	entries := make([]*domain.LenderTransaction, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (row lenderTransactionRow) toDomain() (*domain.LenderTransaction, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	lenderID, err := uuid.Parse(row.LenderID)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}

	var split []domain.PaymentSplit
	if err := json.Unmarshal([]byte(row.PaymentSplit), &split); err != nil {
		return nil, fmt.Errorf("decode payment split: %w", err)
	}

	return &domain.LenderTransaction{
		ID:           id,
		LenderID:     lenderID,
		Type:         domain.LenderTransactionType(row.Type),
		Amount:       row.Amount,
		PaymentSplit: split,
		Notes:        row.Notes,
		ProcessedBy:  row.ProcessedBy,
		CreatedAt:    createdAt,
	}, nil
}
