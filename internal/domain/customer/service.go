package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/event"
	"github.com/ubdirahman/loan-management-app/internal/infrastructure/monitoring"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type Service interface {
	CreateCustomer(ctx context.Context, userKey, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error)
	GetCustomer(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error)
	ListCustomers(ctx context.Context, userKey, search string) ([]ledger.Customer, error)
	UpdateCustomer(ctx context.Context, userKey string, customerID int64, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error)
	DeleteCustomer(ctx context.Context, userKey string, customerID int64) error
	GetCustomerSummary(ctx context.Context, userKey string, customerID int64) (*ledger.CustomerSummary, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	loans  LoanBook
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewService(repo Repository, loans LoanBook, pub event.EventPublisher, logger *slog.Logger) Service {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if loans == nil {
		panic("loan book cannot be nil")
	}
	if pub == nil {
		pub = event.NewNoopEventPublisher()
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &service{
		repo:   repo,
		loans:  loans,
		pub:    pub,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func validateCustomerInput(name, phone string, totalAmount ledger.Money) (string, string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return "", "", apperrors.NewValidationError("name", "cannot be empty")
	}
	if phone == "" {
		return "", "", apperrors.NewValidationError("phone", "cannot be empty")
	}
	// Self-reported figure, zero when the customer declines to state one.
	if math.IsNaN(totalAmount) || math.IsInf(totalAmount, 0) || totalAmount < 0 {
		return "", "", apperrors.NewValidationError("totalAmount", "must be zero or a positive number")
	}
	return name, phone, nil
}

func (s *service) CreateCustomer(ctx context.Context, userKey, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey))
	logCtx.InfoContext(ctx, "Attempting to create new customer")

	name, phone, err := validateCustomerInput(name, phone, totalAmount)
	if err != nil {
		logCtx.WarnContext(ctx, "Customer input validation failed", slog.Any("error", err))
		return nil, err
	}

	cust := &ledger.Customer{
		Name:         name,
		Phone:        phone,
		Address:      strings.TrimSpace(address),
		TotalAmount:  totalAmount,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, userKey, cust); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	monitoring.Business.CustomersCreatedTotal.Inc()

	if pubErr := s.pub.PublishCustomerCreated(ctx, event.CustomerCreatedEvent{
		UserKey:    userKey,
		CustomerID: cust.ID,
		Name:       cust.Name,
		Timestamp:  time.Now(),
	}); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer created, but failed to publish creation event", slog.Any("error", pubErr))
	}

	logCtx.InfoContext(ctx, "Successfully created new customer", slog.Int64("customerID", cust.ID))
	return cust, nil
}

func (s *service) GetCustomer(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, userKey, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *service) ListCustomers(ctx context.Context, userKey, search string) ([]ledger.Customer, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey))

	customers, err := s.repo.FindAll(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	customers = ledger.SearchCustomers(customers, search)
	logCtx.DebugContext(ctx, "Listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *service) UpdateCustomer(ctx context.Context, userKey string, customerID int64, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	name, phone, err := validateCustomerInput(name, phone, totalAmount)
	if err != nil {
		logCtx.WarnContext(ctx, "Customer input validation failed", slog.Any("error", err))
		return nil, err
	}

	cust, err := s.repo.FindByID(ctx, userKey, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for update")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %d to update: %w", customerID, err)
	}

	cust.Name = name
	cust.Phone = phone
	cust.Address = strings.TrimSpace(address)
	cust.TotalAmount = totalAmount

	if err := s.repo.Save(ctx, userKey, cust); err != nil {
		logCtx.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save updated customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully updated customer")
	return cust, nil
}

func (s *service) DeleteCustomer(ctx context.Context, userKey string, customerID int64) error {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer with cascade")

	if err := s.repo.Delete(ctx, userKey, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for delete")
			return err
		}
		logCtx.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully deleted customer and dependent records")
	return nil
}

func (s *service) GetCustomerSummary(ctx context.Context, userKey string, customerID int64) (*ledger.CustomerSummary, error) {
	logCtx := s.logger.With(slog.String("userKey", userKey), slog.Int64("customerID", customerID))

	if _, err := s.repo.FindByID(ctx, userKey, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Customer not found for summary")
			return nil, err
		}
		return nil, fmt.Errorf("cannot find customer %d for summary: %w", customerID, err)
	}

	loans, err := s.loans.FindByCustomerID(ctx, userKey, customerID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading loans for summary", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load loans for customer %d: %w", customerID, err)
	}

	payments, err := s.loans.FindAllPayments(ctx, userKey)
	if err != nil {
		logCtx.ErrorContext(ctx, "Repository error loading payments for summary", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load payments for customer %d: %w", customerID, err)
	}

	summary := ledger.SummarizeCustomer(customerID, loans, payments)
	return &summary, nil
}
