package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/monitoring"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	if db == nil {
		panic("DBPool cannot be nil for LoanRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) Save(ctx context.Context, userKey string, l *ledger.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}
	if l.ID == 0 {
		return r.createLoan(ctx, userKey, l)
	}
	return r.updateLoan(ctx, userKey, l)
}

func (r *LoanRepository) createLoan(ctx context.Context, userKey string, l *ledger.Loan) error {
	start := time.Now()
	r.logger.InfoContext(ctx, "Attempting to insert new loan", slog.Int64("customerID", l.CustomerID))

	query := `
        INSERT INTO loans (user_email, customer_id, customer_name, description, amount, loan_date, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		userKey, l.CustomerID, l.CustomerName, l.Description, l.Amount, l.Date, string(l.Status),
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		monitoring.RecordStorageOperation("loan_insert", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordStorageOperation("loan_insert", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Loan inserted successfully", slog.Int64("loanID", l.ID))
	return nil
}

func (r *LoanRepository) updateLoan(ctx context.Context, userKey string, l *ledger.Loan) error {
	start := time.Now()
	r.logger.InfoContext(ctx, "Attempting to update loan", slog.Int64("loanID", l.ID))

	query := `
        UPDATE loans
        SET description = $1,
            amount = $2,
            loan_date = $3,
            status = $4
        WHERE id = $5 AND user_email = $6`

	cmdTag, err := r.db.Exec(ctx, query, l.Description, l.Amount, l.Date, string(l.Status), l.ID, userKey)
	if err != nil {
		monitoring.RecordStorageOperation("loan_update", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to update loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update loan: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, loan likely not found")
		return apperrors.ErrNotFound
	}

	monitoring.RecordStorageOperation("loan_update", "success", time.Since(start))
	return nil
}

const loanColumns = `id, customer_id, customer_name, description, amount, loan_date, status, created_at`

func scanLoan(row pgx.Row) (*ledger.Loan, error) {
	var l ledger.Loan
	var status string
	err := row.Scan(&l.ID, &l.CustomerID, &l.CustomerName, &l.Description, &l.Amount, &l.Date, &status, &l.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := ledger.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	l.Status = parsed
	return &l, nil
}

func (r *LoanRepository) FindByID(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error) {
	r.logger.DebugContext(ctx, "Attempting to find loan by ID", slog.Int64("loanID", loanID))

	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 AND user_email = $2`

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID, userKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, apperrors.ErrNotFound
		}
		if errors.Is(err, apperrors.ErrUnknownStatus) {
			r.logger.ErrorContext(ctx, "Stored loan carries unknown status", slog.Any("error", err))
			return nil, err
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan loan by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get loan by ID: %w", apperrors.ErrDatabase, err)
	}
	return l, nil
}

func (r *LoanRepository) findLoans(ctx context.Context, query string, args ...any) ([]ledger.Loan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loans", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query loans: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	loans := make([]ledger.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnknownStatus) {
				return nil, err
			}
			r.logger.ErrorContext(ctx, "Failed to scan loan row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan loan row: %w", apperrors.ErrDatabase, err)
		}
		loans = append(loans, *l)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating loan rows: %w", apperrors.ErrDatabase, err)
	}
	return loans, nil
}

func (r *LoanRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_email = $1 ORDER BY id ASC`
	return r.findLoans(ctx, query, userKey)
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_email = $1 AND customer_id = $2 ORDER BY id ASC`
	return r.findLoans(ctx, query, userKey, customerID)
}

func (r *LoanRepository) UpdateStatuses(ctx context.Context, userKey string, loans []ledger.Loan) error {
	if len(loans) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	for _, l := range loans {
		_, err := tx.Exec(ctx,
			`UPDATE loans SET status = $1 WHERE id = $2 AND user_email = $3`,
			string(l.Status), l.ID, userKey)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to update loan status", slog.Int64("loanID", l.ID), slog.Any("error", err))
			return fmt.Errorf("%w: failed to update loan status: %w", apperrors.ErrDatabase, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit status updates", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit status updates: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan statuses updated", slog.Int("count", len(loans)))
	return nil
}

// Delete removes the loan and its payments in one transaction.
func (r *LoanRepository) Delete(ctx context.Context, userKey string, loanID int64) error {
	r.logger.InfoContext(ctx, "Attempting to delete loan with cascade", slog.Int64("loanID", loanID))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
	}()

	_, err = tx.Exec(ctx, `DELETE FROM payments WHERE loan_id = $1 AND user_email = $2`, loanID, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete loan payments", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete loan payments: %w", apperrors.ErrDatabase, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM loans WHERE id = $1 AND user_email = $2`, loanID, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete loan", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete loan: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, loan likely not found")
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit cascade delete", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit cascade delete: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan and its payments deleted successfully")
	return nil
}

func (r *LoanRepository) SavePayment(ctx context.Context, userKey string, p *ledger.Payment) error {
	if p == nil {
		return fmt.Errorf("%w: payment cannot be nil", apperrors.ErrInvalidArgument)
	}

	start := time.Now()
	r.logger.InfoContext(ctx, "Attempting to insert payment", slog.Int64("loanID", p.LoanID))

	query := `
        INSERT INTO payments (user_email, loan_id, amount, paid_at, note, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, userKey, p.LoanID, p.Amount, p.Date, p.Note).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		monitoring.RecordStorageOperation("payment_insert", "error", time.Since(start))
		r.logger.ErrorContext(ctx, "Failed to insert payment", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert payment: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordStorageOperation("payment_insert", "success", time.Since(start))
	r.logger.InfoContext(ctx, "Payment inserted successfully", slog.Int64("paymentID", p.ID))
	return nil
}

func (r *LoanRepository) findPayments(ctx context.Context, query string, args ...any) ([]ledger.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query payments", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query payments: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]ledger.Payment, 0)
	for rows.Next() {
		var p ledger.Payment
		if err := rows.Scan(&p.ID, &p.LoanID, &p.Amount, &p.Date, &p.Note, &p.CreatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan payment row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan payment row: %w", apperrors.ErrDatabase, err)
		}
		payments = append(payments, p)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating payment rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating payment rows: %w", apperrors.ErrDatabase, err)
	}
	return payments, nil
}

const paymentColumns = `id, loan_id, amount, paid_at, note, created_at`

func (r *LoanRepository) FindPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_email = $1 AND loan_id = $2 ORDER BY id ASC`
	return r.findPayments(ctx, query, userKey, loanID)
}

func (r *LoanRepository) FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_email = $1 ORDER BY id ASC`
	return r.findPayments(ctx, query, userKey)
}

func (r *LoanRepository) ListUserKeys(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_email FROM loans ORDER BY user_email`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query user keys", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query user keys: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: failed to scan user key: %w", apperrors.ErrDatabase, err)
		}
		keys = append(keys, key)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating user keys: %w", apperrors.ErrDatabase, err)
	}
	return keys, nil
}
