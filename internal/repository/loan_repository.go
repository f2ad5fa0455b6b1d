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

const loanColumns = `id, customer_id, loan_type, status, disbursement_mode,
	principal, interest_rate, duration, interest_duration_months, fixed_installment_amount,
	deduction_interest, deduction_admin_commission, deduction_staff_commission,
	admin_commission_percent, admin_commission_amount, staff_commission_percent, staff_commission_amount,
	interest_deduction, admin_deduction, staff_deduction, rollover_deduction, net_disbursement_amount,
	total_principal_paid, total_interest_paid, total_penalty_paid, excess_collected,
	rollover_loan_id, rollover_notes, risk_flags, version, created_at, updated_at`

type loanRow struct {
	ID               string `db:"id"`
	CustomerID       string `db:"customer_id"`
	LoanType         string `db:"loan_type"`
	Status           string `db:"status"`
	DisbursementMode string `db:"disbursement_mode"`

	Principal              decimal.Decimal `db:"principal"`
	InterestRate           decimal.Decimal `db:"interest_rate"`
	Duration               int             `db:"duration"`
	InterestDurationMonths decimal.Decimal `db:"interest_duration_months"`
	FixedInstallmentAmount decimal.Decimal `db:"fixed_installment_amount"`

	DeductionInterest        string `db:"deduction_interest"`
	DeductionAdminCommission string `db:"deduction_admin_commission"`
	DeductionStaffCommission string `db:"deduction_staff_commission"`

	AdminCommissionPercent decimal.Decimal `db:"admin_commission_percent"`
	AdminCommissionAmount  decimal.Decimal `db:"admin_commission_amount"`
	StaffCommissionPercent decimal.Decimal `db:"staff_commission_percent"`
	StaffCommissionAmount  decimal.Decimal `db:"staff_commission_amount"`

	InterestDeduction     decimal.Decimal `db:"interest_deduction"`
	AdminDeduction        decimal.Decimal `db:"admin_deduction"`
	StaffDeduction        decimal.Decimal `db:"staff_deduction"`
	RolloverDeduction     decimal.Decimal `db:"rollover_deduction"`
	NetDisbursementAmount decimal.Decimal `db:"net_disbursement_amount"`

	TotalPrincipalPaid decimal.Decimal `db:"total_principal_paid"`
	TotalInterestPaid  decimal.Decimal `db:"total_interest_paid"`
	TotalPenaltyPaid   decimal.Decimal `db:"total_penalty_paid"`
	ExcessCollected    decimal.Decimal `db:"excess_collected"`

	RolloverLoanID *string `db:"rollover_loan_id"`
	RolloverNotes  *string `db:"rollover_notes"`
	RiskFlags      string  `db:"risk_flags"`
	Version        int64   `db:"version"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
}

type dueRow struct {
	ID                string          `db:"id"`
	LoanID            string          `db:"loan_id"`
	InstallmentNumber int             `db:"installment_number"`
	DueDate           string          `db:"due_date"`
	DueType           string          `db:"due_type"`
	Amount            decimal.Decimal `db:"amount"`
	PaidAmount        decimal.Decimal `db:"paid_amount"`
	Status            string          `db:"status"`
	PaidDate          *string         `db:"paid_date"`
}

type loanLenderRow struct {
	LoanID         string          `db:"loan_id"`
	LenderID       string          `db:"lender_id"`
	InvestedAmount decimal.Decimal `db:"invested_amount"`
	RepaidAmount   decimal.Decimal `db:"repaid_amount"`
	Priority       int             `db:"priority"`
	Status         string          `db:"status"`
}

type loanRepository struct {
	db *sqlx.DB
	tx Transactor
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db, tx: NewTransactor(db)}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	row, err := newLoanRow(loan)
	if err != nil {
		return err
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		ext := executor(ctx, r.db)

		query := `
			INSERT INTO loans (` + loanColumns + `)
			VALUES (:id, :customer_id, :loan_type, :status, :disbursement_mode,
				:principal, :interest_rate, :duration, :interest_duration_months, :fixed_installment_amount,
				:deduction_interest, :deduction_admin_commission, :deduction_staff_commission,
				:admin_commission_percent, :admin_commission_amount, :staff_commission_percent, :staff_commission_amount,
				:interest_deduction, :admin_deduction, :staff_deduction, :rollover_deduction, :net_disbursement_amount,
				:total_principal_paid, :total_interest_paid, :total_penalty_paid, :excess_collected,
				:rollover_loan_id, :rollover_notes, :risk_flags, :version, :created_at, :updated_at)
		`
		if _, err := sqlx.NamedExecContext(ctx, ext, query, row); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}

		dueQuery := `
			INSERT INTO loan_dues (id, loan_id, installment_number, due_date, due_type, amount, paid_amount, status, paid_date)
			VALUES (:id, :loan_id, :installment_number, :due_date, :due_type, :amount, :paid_amount, :status, :paid_date)
		`
		for _, due := range loan.Dues {
			if due.ID == uuid.Nil {
				due.ID = uuid.New()
			}
			due.LoanID = loan.ID
			if _, err := sqlx.NamedExecContext(ctx, ext, dueQuery, newDueRow(due)); err != nil {
				return fmt.Errorf("insert due %d: %w", due.InstallmentNumber, err)
			}
		}

		lenderQuery := `
			INSERT INTO loan_lenders (loan_id, lender_id, invested_amount, repaid_amount, priority, status)
			VALUES (:loan_id, :lender_id, :invested_amount, :repaid_amount, :priority, :status)
		`
		for _, ll := range loan.Lenders {
			lr := loanLenderRow{
				LoanID:         loan.ID.String(),
				LenderID:       ll.LenderID.String(),
				InvestedAmount: ll.InvestedAmount,
				RepaidAmount:   ll.RepaidAmount,
				Priority:       ll.Priority,
				Status:         string(ll.Status),
			}
			if _, err := sqlx.NamedExecContext(ctx, ext, lenderQuery, lr); err != nil {
				return fmt.Errorf("insert loan lender: %w", err)
			}
		}
		return nil
	})
}

func (r *loanRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	ext := executor(ctx, r.db)

	var row loanRow
	query := ext.Rebind(`SELECT ` + loanColumns + ` FROM loans WHERE id = ?`)
	if err := sqlx.GetContext(ctx, ext, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.ErrLoanNotFound
		}
		return nil, err
	}

	loan, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, ext, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *loanRepository) List(ctx context.Context, filter domain.LoanFilter) ([]*domain.Loan, error) {
	ext := executor(ctx, r.db)

	query := `SELECT ` + loanColumns + ` FROM loans WHERE 1 = 1`
	var args []interface{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
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

	var rows []loanRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(query), args...); err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loan, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		if err := r.loadChildren(ctx, ext, loan); err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func (r *loanRepository) UpdateState(ctx context.Context, loan *domain.Loan, dues []*domain.Due) error {
	riskFlags, err := encodeRiskFlags(loan.RiskFlags)
	if err != nil {
		return err
	}

	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		ext := executor(ctx, r.db)
		f := loan.Financials

		query := ext.Rebind(`
			UPDATE loans
			SET status = ?, total_principal_paid = ?, total_interest_paid = ?, total_penalty_paid = ?,
				excess_collected = ?, risk_flags = ?, version = version + 1, updated_at = ?
			WHERE id = ? AND version = ?
		`)
		result, err := ext.ExecContext(ctx, query,
			string(loan.Status),
			f.TotalPrincipalPaid,
			f.TotalInterestPaid,
			f.TotalPenaltyPaid,
			f.ExcessCollected,
			riskFlags,
			formatTime(loan.UpdatedAt),
			loan.ID.String(),
			loan.Version,
		)
		if err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return customError.ErrVersionConflict
		}

		dueQuery := ext.Rebind(`UPDATE loan_dues SET paid_amount = ?, status = ?, paid_date = ? WHERE id = ?`)
		for _, due := range dues {
			if _, err := ext.ExecContext(ctx, dueQuery,
				due.PaidAmount,
				string(due.Status),
				formatNullableTime(due.PaidDate),
				due.ID.String(),
			); err != nil {
				return fmt.Errorf("update due %d: %w", due.InstallmentNumber, err)
			}
		}

		loan.Version++
		return nil
	})
}

func (r *loanRepository) loadChildren(ctx context.Context, ext sqlx.ExtContext, loan *domain.Loan) error {
	var dues []dueRow
	dueQuery := ext.Rebind(`
		SELECT id, loan_id, installment_number, due_date, due_type, amount, paid_amount, status, paid_date
		FROM loan_dues
		WHERE loan_id = ?
		ORDER BY installment_number, due_date
	`)
	if err := sqlx.SelectContext(ctx, ext, &dues, dueQuery, loan.ID.String()); err != nil {
		return fmt.Errorf("load dues: %w", err)
	}

	loan.Dues = make([]*domain.Due, 0, len(dues))
	for _, row := range dues {
		due, err := row.toDomain()
		if err != nil {
			return err
		}
		loan.Dues = append(loan.Dues, due)
	}

	var lenders []loanLenderRow
	lenderQuery := ext.Rebind(`
		SELECT loan_id, lender_id, invested_amount, repaid_amount, priority, status
		FROM loan_lenders
		WHERE loan_id = ?
		ORDER BY priority
	`)
	if err := sqlx.SelectContext(ctx, ext, &lenders, lenderQuery, loan.ID.String()); err != nil {
		return fmt.Errorf("load loan lenders: %w", err)
	}

	loan.Lenders = make([]*domain.LoanLender, 0, len(lenders))
	for _, row := range lenders {
		lenderID, err := uuid.Parse(row.LenderID)
		if err != nil {
			return err
		}
		loan.Lenders = append(loan.Lenders, &domain.LoanLender{
			LenderID:       lenderID,
			InvestedAmount: row.InvestedAmount,
			RepaidAmount:   row.RepaidAmount,
			Priority:       row.Priority,
			Status:         domain.LoanLenderStatus(row.Status),
		})
	}
	return nil
}

func newLoanRow(loan *domain.Loan) (loanRow, error) {
	riskFlags, err := encodeRiskFlags(loan.RiskFlags)
	if err != nil {
		return loanRow{}, err
	}

	f := loan.Financials
	row := loanRow{
		ID:                       loan.ID.String(),
		CustomerID:               loan.CustomerID,
		LoanType:                 string(loan.LoanType),
		Status:                   string(loan.Status),
		DisbursementMode:         loan.DisbursementMode,
		Principal:                f.Principal,
		InterestRate:             f.InterestRate,
		Duration:                 f.Duration,
		InterestDurationMonths:   f.InterestDurationMonths,
		FixedInstallmentAmount:   f.FixedInstallmentAmount,
		DeductionInterest:        string(f.DeductionConfig.Interest),
		DeductionAdminCommission: string(f.DeductionConfig.AdminCommission),
		DeductionStaffCommission: string(f.DeductionConfig.StaffCommission),
		AdminCommissionPercent:   f.AdminCommission.Percent,
		AdminCommissionAmount:    f.AdminCommission.Amount,
		StaffCommissionPercent:   f.StaffCommission.Percent,
		StaffCommissionAmount:    f.StaffCommission.Amount,
		InterestDeduction:        f.InterestDeduction,
		AdminDeduction:           f.AdminDeduction,
		StaffDeduction:           f.StaffDeduction,
		RolloverDeduction:        f.RolloverDeduction,
		NetDisbursementAmount:    f.NetDisbursementAmount,
		TotalPrincipalPaid:       f.TotalPrincipalPaid,
		TotalInterestPaid:        f.TotalInterestPaid,
		TotalPenaltyPaid:         f.TotalPenaltyPaid,
		ExcessCollected:          f.ExcessCollected,
		RiskFlags:                riskFlags,
		Version:                  loan.Version,
		CreatedAt:                formatTime(loan.CreatedAt),
		UpdatedAt:                formatTime(loan.UpdatedAt),
	}
	if loan.Rollover != nil {
		linked := loan.Rollover.LinkedLoanID.String()
		row.RolloverLoanID = &linked
		row.RolloverNotes = nullableString(loan.Rollover.Notes)
	}
	return row, nil
}

func (row loanRow) toDomain() (*domain.Loan, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}

	var riskFlags []string
	if err := json.Unmarshal([]byte(row.RiskFlags), &riskFlags); err != nil {
		return nil, fmt.Errorf("decode risk flags: %w", err)
	}

	loan := &domain.Loan{
		ID:               id,
		CustomerID:       row.CustomerID,
		LoanType:         domain.LoanType(row.LoanType),
		Status:           domain.LoanStatus(row.Status),
		DisbursementMode: row.DisbursementMode,
		Financials: domain.Financials{
			Principal:              row.Principal,
			InterestRate:           row.InterestRate,
			Duration:               row.Duration,
			InterestDurationMonths: row.InterestDurationMonths,
			FixedInstallmentAmount: row.FixedInstallmentAmount,
			DeductionConfig: domain.DeductionConfig{
				Interest:        domain.DeductionTiming(row.DeductionInterest),
				AdminCommission: domain.DeductionTiming(row.DeductionAdminCommission),
				StaffCommission: domain.DeductionTiming(row.DeductionStaffCommission),
			},
			AdminCommission:       domain.Commission{Percent: row.AdminCommissionPercent, Amount: row.AdminCommissionAmount},
			StaffCommission:       domain.Commission{Percent: row.StaffCommissionPercent, Amount: row.StaffCommissionAmount},
			InterestDeduction:     row.InterestDeduction,
			AdminDeduction:        row.AdminDeduction,
			StaffDeduction:        row.StaffDeduction,
			RolloverDeduction:     row.RolloverDeduction,
			NetDisbursementAmount: row.NetDisbursementAmount,
			TotalPrincipalPaid:    row.TotalPrincipalPaid,
			TotalInterestPaid:     row.TotalInterestPaid,
			TotalPenaltyPaid:      row.TotalPenaltyPaid,
			ExcessCollected:       row.ExcessCollected,
		},
		RiskFlags: riskFlags,
		Version:   row.Version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	if row.RolloverLoanID != nil {
		linked, err := uuid.Parse(*row.RolloverLoanID)
		if err != nil {
			return nil, err
		}
		loan.Rollover = &domain.Rollover{
			LinkedLoanID:   linked,
			AmountDeducted: row.RolloverDeduction,
		}
		if row.RolloverNotes != nil {
			loan.Rollover.Notes = *row.RolloverNotes
		}
	}
	return loan, nil
}

func newDueRow(due *domain.Due) dueRow {
	return dueRow{
		ID:                due.ID.String(),
		LoanID:            due.LoanID.String(),
		InstallmentNumber: due.InstallmentNumber,
		DueDate:           formatTime(due.Date),
		DueType:           string(due.Type),
		Amount:            due.Amount,
		PaidAmount:        due.PaidAmount,
		Status:            string(due.Status),
		PaidDate:          formatNullableTime(due.PaidDate),
	}
}

func (row dueRow) toDomain() (*domain.Due, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, err
	}
	loanID, err := uuid.Parse(row.LoanID)
	if err != nil {
		return nil, err
	}
	date, err := parseTime(row.DueDate)
	if err != nil {
		return nil, err
	}
	paidDate, err := parseNullableTime(row.PaidDate)
	if err != nil {
		return nil, err
	}
	return &domain.Due{
		ID:                id,
		LoanID:            loanID,
		InstallmentNumber: row.InstallmentNumber,
		Date:              date,
		Type:              domain.DueType(row.DueType),
		Amount:            row.Amount,
		PaidAmount:        row.PaidAmount,
		Status:            domain.DueStatus(row.Status),
		PaidDate:          paidDate,
	}, nil
}

func encodeRiskFlags(flags []string) (string, error) {
	if flags == nil {
		flags = []string{}
	}
	b, err := json.Marshal(flags)
	if err != nil {
		return "", fmt.Errorf("encode risk flags: %w", err)
	}
	return string(b), nil
}
