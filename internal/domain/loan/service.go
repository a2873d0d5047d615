package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/event"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/monitoring"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type Service interface {
	// CreateLoan applies the merge-or-create rule: a draft for a customer
	// with an open pending loan is folded into it, otherwise a new pending
	// loan is created. Returns the affected loan either way.
	CreateLoan(ctx context.Context, userKey string, customerID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error)

	GetLoan(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error)

	// ListLoans runs the overdue rule over the collection, persists any
	// status flips, then filters by search term and status.
	ListLoans(ctx context.Context, userKey, search string, status ledger.Status) ([]ledger.Loan, error)

	// UpdateLoan edits description, amount and date. Status is never touched
	// here; it changes only through payments, the overdue rule, or
	// SetLoanStatus.
	UpdateLoan(ctx context.Context, userKey string, loanID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error)

	DeleteLoan(ctx context.Context, userKey string, loanID int64) error

	SetLoanStatus(ctx context.Context, userKey string, loanID int64, status ledger.Status) (*ledger.Loan, error)

	// RecordPayment appends a payment and auto-settles the loan once the
	// accumulated total reaches the loan amount.
	RecordPayment(ctx context.Context, userKey string, loanID int64, amount ledger.Money, date time.Time, note string) (*ledger.Payment, *ledger.Loan, error)

	ListPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error)

	GetDashboard(ctx context.Context, userKey string) (*ledger.Summary, error)

	// SweepOverdue runs the overdue rule for every stored account. It backs
	// the scheduled batch job; the per-request path in ListLoans covers
	// accounts that are actually opened.
	SweepOverdue(ctx context.Context) (int, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo      Repository
	customers CustomerDirectory
	pub       event.EventPublisher
	logger    *slog.Logger
}

func NewService(repo Repository, customers CustomerDirectory, pub event.EventPublisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	if customers == nil {
		panic("customer directory cannot be nil")
	}
	if pub == nil {
		pub = event.NewNoopEventPublisher()
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &service{
		repo:      repo,
		customers: customers,
		pub:       pub,
		logger:    logger.With(slog.String("component", "loanService")),
	}
}

func (s *service) CreateLoan(ctx context.Context, userKey string, customerID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to create loan")

	cust, err := s.customers.FindByID(ctx, userKey, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for new loan")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer for new loan", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %d for new loan: %w", customerID, err)
	}

	existing, err := s.repo.FindByCustomerID(ctx, userKey, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading customer loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", customerID, err)
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}

	_, affected, err := ledger.MergeOrCreateLoan(customerID, existing, ledger.LoanDraft{
		CustomerName: cust.Name,
		Description:  description,
		Amount:       amount,
		Date:         date,
	})
	if err != nil {
		logCtx.WarnContext(ctx, "Loan draft rejected", slog.Any("error", err))
		return nil, err
	}

	merged := affected.ID != 0
	if !merged {
		affected.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Save(ctx, userKey, affected); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	if merged {
		monitoring.Business.LoansMergedTotal.Inc()
		logCtx.InfoContext(ctx, "Folded draft into existing pending loan", slog.Int64("loanID", affected.ID))
	} else {
		monitoring.Business.LoansCreatedTotal.Inc()
		logCtx.InfoContext(ctx, "Created new loan", slog.Int64("loanID", affected.ID))
	}
	return affected, nil
}

func (s *service) GetLoan(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID))

	loan, err := s.repo.FindByID(ctx, userKey, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository error finding loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get loan %d: %w", loanID, err)
	}
	return loan, nil
}

// refreshOverdue applies the overdue rule to a loaded collection, persists
// flips and publishes events for them. The returned slice reflects the
// post-rule statuses.
func (s *service) refreshOverdue(ctx context.Context, userKey string, loans []ledger.Loan) ([]ledger.Loan, error) {
	updated := ledger.ApplyOverdueRule(loans, time.Now().UTC())

	var flipped []ledger.Loan
	for i := range updated {
		if updated[i].Status != loans[i].Status {
			flipped = append(flipped, updated[i])
		}
	}
	if len(flipped) == 0 {
		return updated, nil
	}

	if err := s.repo.UpdateStatuses(ctx, userKey, flipped); err != nil {
		return nil, fmt.Errorf("failed to persist overdue flips: %w", err)
	}

	for _, l := range flipped {
		monitoring.Business.LoansOverdueTotal.Inc()
		if pubErr := s.pub.PublishLoanOverdue(ctx, event.LoanOverdueEvent{
			UserKey:      userKey,
			LoanID:       l.ID,
			CustomerID:   l.CustomerID,
			CustomerName: l.CustomerName,
			Amount:       l.Amount,
			LoanDate:     l.Date,
			Timestamp:    time.Now(),
		}); pubErr != nil {
			s.logger.ErrorContext(ctx, "Loan flipped overdue, but failed to publish event",
				slog.Int64("loanID", l.ID), slog.Any("error", pubErr))
		}
	}

	s.logger.InfoContext(ctx, "Flipped loans to overdue",
		slog.String("userKey", userKey), slog.Int("count", len(flipped)))
	return updated, nil
}

func (s *service) ListLoans(ctx context.Context, userKey, search string, status ledger.Status) ([]ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey))

	loans, err := s.repo.FindAll(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error listing loans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	loans, err = s.refreshOverdue(ctx, userKey, loans)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to refresh overdue statuses", slog.Any("error", err))
		return nil, err
	}

	loans = ledger.SearchLoans(loans, search, status)
	logCtx.DebugContext(ctx, "Listed loans", slog.Int("count", len(loans)))
	return loans, nil
}

func (s *service) UpdateLoan(ctx context.Context, userKey string, loanID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID))
	logCtx.InfoContext(ctx, "Attempting to update loan")

	if strings.TrimSpace(description) == "" {
		return nil, apperrors.NewValidationError("description", "cannot be empty")
	}

	loan, err := s.repo.FindByID(ctx, userKey, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found for update")
			return nil, err
		}
		return nil, fmt.Errorf("cannot find loan %d to update: %w", loanID, err)
	}

	loan.Description = strings.TrimSpace(description)
	loan.Amount = amount
	if !date.IsZero() {
		loan.Date = date
	}
	if err := ledger.ValidateAmount(loan.Amount); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, userKey, loan); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save updated loan", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save updated loan %d: %w", loanID, err)
	}

	logCtx.InfoContext(ctx, "Successfully updated loan")
	return loan, nil
}

func (s *service) DeleteLoan(ctx context.Context, userKey string, loanID int64) error {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID))
	logCtx.InfoContext(ctx, "Attempting to delete loan with cascade")

	if err := s.repo.Delete(ctx, userKey, loanID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found for delete")
			return err
		}
		logCtx.ErrorContext(ctx, "Repository error deleting loan", slog.Any("error", err))
		return fmt.Errorf("failed to delete loan %d: %w", loanID, err)
	}

	logCtx.InfoContext(ctx, "Successfully deleted loan and its payments")
	return nil
}

func (s *service) SetLoanStatus(ctx context.Context, userKey string, loanID int64, status ledger.Status) (*ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID), slog.String("status", string(status)))
	logCtx.InfoContext(ctx, "Attempting to set loan status")

	if _, err := ledger.ParseStatus(string(status)); err != nil {
		logCtx.WarnContext(ctx, "Rejected unknown loan status")
		return nil, err
	}

	loan, err := s.repo.FindByID(ctx, userKey, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found for status change")
			return nil, err
		}
		return nil, fmt.Errorf("cannot find loan %d for status change: %w", loanID, err)
	}

	if loan.Status == status {
		return loan, nil
	}

	previous := loan.Status
	loan.Status = status
	if err := s.repo.Save(ctx, userKey, loan); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save loan status", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save status for loan %d: %w", loanID, err)
	}

	if status == ledger.StatusPaid && previous != ledger.StatusPaid {
		monitoring.Business.LoansPaidTotal.Inc()
		s.publishLoanPaid(ctx, userKey, loan, 0)
	}

	logCtx.InfoContext(ctx, "Successfully set loan status")
	return loan, nil
}

func (s *service) publishLoanPaid(ctx context.Context, userKey string, loan *ledger.Loan, totalPaid ledger.Money) {
	if pubErr := s.pub.PublishLoanPaid(ctx, event.LoanPaidEvent{
		UserKey:    userKey,
		LoanID:     loan.ID,
		CustomerID: loan.CustomerID,
		Amount:     loan.Amount,
		TotalPaid:  totalPaid,
		Timestamp:  time.Now(),
	}); pubErr != nil {
		s.logger.ErrorContext(ctx, "Loan settled, but failed to publish event",
			slog.Int64("loanID", loan.ID), slog.Any("error", pubErr))
	}
}

func (s *service) RecordPayment(ctx context.Context, userKey string, loanID int64, amount ledger.Money, date time.Time, note string) (*ledger.Payment, *ledger.Loan, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID))
	logCtx.InfoContext(ctx, "Attempting to record payment")

	loan, err := s.repo.FindByID(ctx, userKey, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found for payment")
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("cannot find loan %d for payment: %w", loanID, err)
	}

	payments, err := s.repo.FindPayments(ctx, userKey, loanID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading payments", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to load payments for loan %d: %w", loanID, err)
	}

	if date.IsZero() {
		date = time.Now().UTC()
	}
	payment := ledger.Payment{
		LoanID:    loanID,
		Amount:    amount,
		Date:      date,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now().UTC(),
	}

	updated, newStatus, err := ledger.RecordPayment(*loan, payments, payment)
	if err != nil {
		logCtx.WarnContext(ctx, "Payment rejected", slog.Any("error", err))
		return nil, nil, err
	}

	if err := s.repo.SavePayment(ctx, userKey, &payment); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save payment", slog.Any("error", err))
		return nil, nil, fmt.Errorf("failed to save payment: %w", err)
	}
	monitoring.Business.PaymentsRecordedTotal.Inc()

	if newStatus != loan.Status {
		loan.Status = newStatus
		if err := s.repo.Save(ctx, userKey, loan); err != nil {
			logCtx.ErrorContext(ctx, "Payment saved, but failed to persist settled status", slog.Any("error", err))
			return nil, nil, fmt.Errorf("failed to settle loan %d: %w", loanID, err)
		}
		monitoring.Business.LoansPaidTotal.Inc()
		s.publishLoanPaid(ctx, userKey, loan, ledger.TotalPaid(loanID, updated))
		logCtx.InfoContext(ctx, "Loan settled in full")
	}

	logCtx.InfoContext(ctx, "Successfully recorded payment", slog.Int64("paymentID", payment.ID))
	return &payment, loan, nil
}

func (s *service) ListPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("loanID", loanID))

	if _, err := s.repo.FindByID(ctx, userKey, loanID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Loan not found for payment listing")
			return nil, err
		}
		return nil, fmt.Errorf("cannot find loan %d for payment listing: %w", loanID, err)
	}

	payments, err := s.repo.FindPayments(ctx, userKey, loanID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error listing payments", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list payments for loan %d: %w", loanID, err)
	}
	return payments, nil
}

func (s *service) GetDashboard(ctx context.Context, userKey string) (*ledger.Summary, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey))

	customers, err := s.customers.FindAll(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading customers for dashboard", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	loans, err := s.repo.FindAll(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading loans for dashboard", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	loans, err = s.refreshOverdue(ctx, userKey, loans)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.FindAllPayments(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading payments for dashboard", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	summary := ledger.Summarize(customers, loans, payments)
	return &summary, nil
}

func (s *service) SweepOverdue(ctx context.Context) (int, error) {
	s.logger.InfoContext(ctx, "Starting overdue sweep across all accounts")

	userKeys, err := s.repo.ListUserKeys(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enumerate accounts for sweep", slog.Any("error", err))
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	total := 0
	for _, userKey := range userKeys {
		loans, err := s.repo.FindAll(ctx, userKey)
		if err != nil {
			s.logger.ErrorContext(ctx, "Sweep failed to load loans for account",
				slog.String("userKey", userKey), slog.Any("error", err))
			continue
		}

		updated, err := s.refreshOverdue(ctx, userKey, loans)
		if err != nil {
			s.logger.ErrorContext(ctx, "Sweep failed to refresh account",
				slog.String("userKey", userKey), slog.Any("error", err))
			continue
		}
		for i := range updated {
			if updated[i].Status != loans[i].Status {
				total++
			}
		}
	}

	s.logger.InfoContext(ctx, "Completed overdue sweep",
		slog.Int("accounts", len(userKeys)), slog.Int("flipped", total))
	return total, nil
}
