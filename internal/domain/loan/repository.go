package loan

import (
	"context"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

// Repository persists one user's loans and payments. All calls are scoped by
// userKey, the authenticated account's email.
type Repository interface {
	// Save inserts the loan when ID is zero and updates it otherwise.
	Save(ctx context.Context, userKey string, loan *ledger.Loan) error

	FindByID(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error)

	FindAll(ctx context.Context, userKey string) ([]ledger.Loan, error)

	FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error)

	// UpdateStatuses persists status flips in bulk, used after the overdue
	// rule has run over a loaded collection.
	UpdateStatuses(ctx context.Context, userKey string, loans []ledger.Loan) error

	// Delete removes the loan and cascades to its payments.
	Delete(ctx context.Context, userKey string, loanID int64) error

	SavePayment(ctx context.Context, userKey string, payment *ledger.Payment) error

	FindPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error)

	FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error)

	// ListUserKeys enumerates every account with stored data, for the batch
	// overdue sweep.
	ListUserKeys(ctx context.Context) ([]string, error)
}

// CustomerDirectory is the slice of the customer store the loan service needs:
// existence checks and the name snapshot copied onto new loans.
type CustomerDirectory interface {
	FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error)
	FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error)
}
