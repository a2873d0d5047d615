package kv

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type LoanRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

func NewLoanRepository(backend *Backend, logger *slog.Logger) *LoanRepository {
	if backend == nil {
		panic("backend cannot be nil for LoanRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LoanRepository{backend: backend, logger: logger.With("component", "kv.LoanRepository")}
}

func (r *LoanRepository) loadLoans(ctx context.Context, userKey string) ([]ledger.Loan, error) {
	records, err := loadDoc[loanRecord](ctx, r.backend.store, bookKey(userKey, "loans"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return fromLoanRecords(records)
}

func (r *LoanRepository) saveLoans(ctx context.Context, userKey string, loans []ledger.Loan) error {
	if err := saveDoc(ctx, r.backend.store, bookKey(userKey, "loans"), toLoanRecords(loans)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) Save(ctx context.Context, userKey string, l *ledger.Loan) error {
	if l == nil {
		return fmt.Errorf("%w: loan cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	loans, err := r.loadLoans(ctx, userKey)
	if err != nil {
		return err
	}

	if l.ID == 0 {
		id, err := r.backend.store.Incr(ctx, seqKey(userKey, "loans"))
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
		}
		l.ID = id
		loans = append(loans, *l)
	} else {
		found := false
		for i := range loans {
			if loans[i].ID == l.ID {
				loans[i] = *l
				found = true
				break
			}
		}
		if !found {
			r.logger.WarnContext(ctx, "Loan not found for update", slog.Int64("loanID", l.ID))
			return apperrors.ErrNotFound
		}
	}

	if err := r.saveLoans(ctx, userKey, loans); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Loan saved", slog.Int64("loanID", l.ID))
	return nil
}

func (r *LoanRepository) FindByID(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error) {
	loans, err := r.loadLoans(ctx, userKey)
	if err != nil {
		return nil, err
	}
	for i := range loans {
		if loans[i].ID == loanID {
			return &loans[i], nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *LoanRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Loan, error) {
	return r.loadLoans(ctx, userKey)
}

func (r *LoanRepository) FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error) {
	loans, err := r.loadLoans(ctx, userKey)
	if err != nil {
		return nil, err
	}
	matched := make([]ledger.Loan, 0, len(loans))
	for _, l := range loans {
		if l.CustomerID == customerID {
			matched = append(matched, l)
		}
	}
	return matched, nil
}

func (r *LoanRepository) UpdateStatuses(ctx context.Context, userKey string, updated []ledger.Loan) error {
	if len(updated) == 0 {
		return nil
	}

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	loans, err := r.loadLoans(ctx, userKey)
	if err != nil {
		return err
	}

	statuses := make(map[int64]ledger.Status, len(updated))
	for _, l := range updated {
		statuses[l.ID] = l.Status
	}
	for i := range loans {
		if status, ok := statuses[loans[i].ID]; ok {
			loans[i].Status = status
		}
	}

	if err := r.saveLoans(ctx, userKey, loans); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Loan statuses updated", slog.Int("count", len(updated)))
	return nil
}

func (r *LoanRepository) Delete(ctx context.Context, userKey string, loanID int64) error {
	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	loans, err := r.loadLoans(ctx, userKey)
	if err != nil {
		return err
	}
	paymentDocKey := bookKey(userKey, "payments")
	paymentRecords, err := loadDoc[paymentRecord](ctx, r.backend.store, paymentDocKey)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	payments := fromPaymentRecords(paymentRecords)

	found := false
	for _, l := range loans {
		if l.ID == loanID {
			found = true
			break
		}
	}
	if !found {
		r.logger.WarnContext(ctx, "Loan not found for delete", slog.Int64("loanID", loanID))
		return apperrors.ErrNotFound
	}

	keptLoans, keptPayments := ledger.RemoveLoan(loans, payments, loanID)

	if err := r.saveLoans(ctx, userKey, keptLoans); err != nil {
		return err
	}
	if err := saveDoc(ctx, r.backend.store, paymentDocKey, toPaymentRecords(keptPayments)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Loan and its payments deleted",
		slog.Int64("loanID", loanID),
		slog.Int("paymentsRemoved", len(payments)-len(keptPayments)))
	return nil
}

func (r *LoanRepository) SavePayment(ctx context.Context, userKey string, p *ledger.Payment) error {
	if p == nil {
		return fmt.Errorf("%w: payment cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	key := bookKey(userKey, "payments")
	records, err := loadDoc[paymentRecord](ctx, r.backend.store, key)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	payments := fromPaymentRecords(records)

	id, err := r.backend.store.Incr(ctx, seqKey(userKey, "payments"))
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	p.ID = id
	payments = append(payments, *p)

	if err := saveDoc(ctx, r.backend.store, key, toPaymentRecords(payments)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Payment saved", slog.Int64("paymentID", p.ID))
	return nil
}

func (r *LoanRepository) FindPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error) {
	payments, err := r.FindAllPayments(ctx, userKey)
	if err != nil {
		return nil, err
	}
	matched := make([]ledger.Payment, 0, len(payments))
	for _, p := range payments {
		if p.LoanID == loanID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *LoanRepository) FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error) {
	records, err := loadDoc[paymentRecord](ctx, r.backend.store, bookKey(userKey, "payments"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	return fromPaymentRecords(records), nil
}

func (r *LoanRepository) ListUserKeys(ctx context.Context) ([]string, error) {
	keys, err := r.backend.store.Keys(ctx, "book:*:loans")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	userKeys := make([]string, 0, len(keys))
	for _, key := range keys {
		trimmed := strings.TrimPrefix(key, "book:")
		trimmed = strings.TrimSuffix(trimmed, ":loans")
		userKeys = append(userKeys, trimmed)
	}
	return userKeys, nil
}
