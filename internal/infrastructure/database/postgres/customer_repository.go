package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ubdirahman/loan-management-app/internal/domain/customer"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) Save(ctx context.Context, userKey string, cust *ledger.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	if cust.ID == 0 {
		return r.createCustomer(ctx, userKey, cust)
	}
	return r.updateCustomer(ctx, userKey, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, userKey string, cust *ledger.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("name", cust.Name))

	query := `
        INSERT INTO customers (user_email, name, phone, address, total_amount, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, userKey, cust.Name, cust.Phone, cust.Address, cust.TotalAmount).
		Scan(&cust.ID, &cust.RegisteredAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, userKey string, cust *ledger.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.ID))

	query := `
        UPDATE customers
        SET name = $1,
            phone = $2,
            address = $3,
            total_amount = $4
        WHERE id = $5 AND user_email = $6`

	cmdTag, err := r.db.Exec(ctx, query, cust.Name, cust.Phone, cust.Address, cust.TotalAmount, cust.ID, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find customer by ID", slog.Int64("customerID", customerID))

	query := `
        SELECT id, name, phone, address, total_amount, created_at
        FROM customers
        WHERE id = $1 AND user_email = $2`

	var cust ledger.Customer
	err := r.db.QueryRow(ctx, query, customerID, userKey).
		Scan(&cust.ID, &cust.Name, &cust.Phone, &cust.Address, &cust.TotalAmount, &cust.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	return &cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error) {
	r.logger.DebugContext(ctx, "Attempting to find all customers")

	query := `
        SELECT id, name, phone, address, total_amount, created_at
        FROM customers
        WHERE user_email = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]ledger.Customer, 0)
	for rows.Next() {
		var cust ledger.Customer
		if err := rows.Scan(&cust.ID, &cust.Name, &cust.Phone, &cust.Address, &cust.TotalAmount, &cust.RegisteredAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	return customers, nil
}

// Delete removes the customer, its loans and their payments in one
// transaction so a failure part-way leaves no orphans.
func (r *CustomerRepository) Delete(ctx context.Context, userKey string, customerID int64) error {
	r.logger.InfoContext(ctx, "Attempting to delete customer with cascade", slog.Int64("customerID", customerID))

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

	_, err = tx.Exec(ctx, `
        DELETE FROM payments
        WHERE user_email = $1
          AND loan_id IN (SELECT id FROM loans WHERE customer_id = $2 AND user_email = $1)`,
		userKey, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer payments", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer payments: %w", apperrors.ErrDatabase, err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM loans WHERE customer_id = $1 AND user_email = $2`, customerID, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer loans", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer loans: %w", apperrors.ErrDatabase, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND user_email = $2`, customerID, userKey)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found")
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit cascade delete", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit cascade delete: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer and dependent records deleted successfully")
	return nil
}
