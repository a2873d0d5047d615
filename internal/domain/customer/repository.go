package customer

import (
	"context"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

// Repository persists one user's customer collection. Every call is scoped by
// userKey, the authenticated account's email; one user can never see another
// user's book.
type Repository interface {
	// Save inserts the customer when ID is zero and updates it otherwise.
	Save(ctx context.Context, userKey string, customer *ledger.Customer) error

	FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error)

	FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error)

	// Delete removes the customer and cascades to its loans and their
	// payments. Deleting an unknown customer returns apperrors.ErrNotFound.
	Delete(ctx context.Context, userKey string, customerID int64) error
}

// LoanBook is the slice of the loan store the customer service needs for the
// per-customer financial rollup and existence checks.
type LoanBook interface {
	FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error)
	FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error)
}
