package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ubdirahman/loan-management-app/internal/domain/customer"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type CustomerRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(backend *Backend, logger *slog.Logger) *CustomerRepository {
	if backend == nil {
		panic("backend cannot be nil for CustomerRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CustomerRepository{backend: backend, logger: logger.With("component", "kv.CustomerRepository")}
}

func (r *CustomerRepository) Save(ctx context.Context, userKey string, cust *ledger.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	key := bookKey(userKey, "customers")
	records, err := loadDoc[customerRecord](ctx, r.backend.store, key)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	customers := fromCustomerRecords(records)

	if cust.ID == 0 {
		id, err := r.backend.store.Incr(ctx, seqKey(userKey, "customers"))
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		cust.ID = id
		customers = append(customers, *cust)
	} else {
		found := false
		for i := range customers {
			if customers[i].ID == cust.ID {
				customers[i] = *cust
				found = true
				break
			}
		}
		if !found {
			r.logger.WarnContext(ctx, "Customer not found for update", slog.Int64("customerID", cust.ID))
			return apperrors.ErrNotFound
		}
	}

	if err := saveDoc(ctx, r.backend.store, key, toCustomerRecords(customers)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer saved", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	customers, err := r.FindAll(ctx, userKey)
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if customers[i].ID == customerID {
			return &customers[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *CustomerRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error) {
	records, err := loadDoc[customerRecord](ctx, r.backend.store, bookKey(userKey, "customers"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return fromCustomerRecords(records), nil
}

// Delete prunes the customer plus its loans and payments using the cascade
// helpers, then writes all three documents back.
func (r *CustomerRepository) Delete(ctx context.Context, userKey string, customerID int64) error {
	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	store := r.backend.store
	customerDocKey := bookKey(userKey, "customers")
	loanDocKey := bookKey(userKey, "loans")
	paymentDocKey := bookKey(userKey, "payments")

	customerRecords, err := loadDoc[customerRecord](ctx, store, customerDocKey)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	loanRecords, err := loadDoc[loanRecord](ctx, store, loanDocKey)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	paymentRecords, err := loadDoc[paymentRecord](ctx, store, paymentDocKey)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	customers := fromCustomerRecords(customerRecords)
	loans, err := fromLoanRecords(loanRecords)
	if err != nil {
		return err
	}
	payments := fromPaymentRecords(paymentRecords)

	found := false
	for _, c := range customers {
		if c.ID == customerID {
			found = true
			break
		}
	}
	if !found {
		r.logger.WarnContext(ctx, "Customer not found for delete", slog.Int64("customerID", customerID))
		return apperrors.ErrNotFound
	}

	keptCustomers, keptLoans, keptPayments := ledger.RemoveCustomer(customers, loans, payments, customerID)

	if err := saveDoc(ctx, store, customerDocKey, toCustomerRecords(keptCustomers)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	if err := saveDoc(ctx, store, loanDocKey, toLoanRecords(keptLoans)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	if err := saveDoc(ctx, store, paymentDocKey, toPaymentRecords(keptPayments)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer and dependent records deleted",
		slog.Int64("customerID", customerID),
		slog.Int("loansRemoved", len(loans)-len(keptLoans)),
		slog.Int("paymentsRemoved", len(payments)-len(keptPayments)))
	return nil
}
