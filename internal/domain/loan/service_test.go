package loan_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

const userKey = "owner@example.com"

func setupTest() (*loan.MockRepository, *loan.MockCustomerDirectory, loan.Service) {
	mockRepo := new(loan.MockRepository)
	mockCustomers := new(loan.MockCustomerDirectory)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := loan.NewService(mockRepo, mockCustomers, nil, logger)
	return mockRepo, mockCustomers, service
}

func TestService_CreateLoan(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Creates a new pending loan when customer has no open balance", func(t *testing.T) {
		mockRepo, mockCustomers, service := setupTest()

		mockCustomers.On("FindByID", ctx, userKey, int64(7)).
			Return(&ledger.Customer{ID: 7, Name: "Ahmed"}, nil).Once()
		mockRepo.On("FindByCustomerID", ctx, userKey, int64(7)).
			Return([]ledger.Loan{{ID: 1, CustomerID: 7, Status: ledger.StatusPaid}}, nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(l *ledger.Loan) bool {
			match := l.ID == 0 && l.CustomerID == 7 && l.Status == ledger.StatusPending && l.Amount == 75
			if match {
				l.ID = 2
			}
			return match
		})).Return(nil).Once()

		created, err := service.CreateLoan(ctx, userKey, 7, "furniture", 75, date)
		require.NoError(t, err)
		assert.Equal(t, int64(2), created.ID)
		assert.Equal(t, "Ahmed", created.CustomerName)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Folds the draft into an existing pending loan", func(t *testing.T) {
		mockRepo, mockCustomers, service := setupTest()

		mockCustomers.On("FindByID", ctx, userKey, int64(7)).
			Return(&ledger.Customer{ID: 7, Name: "Ahmed"}, nil).Once()
		mockRepo.On("FindByCustomerID", ctx, userKey, int64(7)).
			Return([]ledger.Loan{{ID: 1, CustomerID: 7, Description: "Toyota Camry", Amount: 100, Status: ledger.StatusPending}}, nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(l *ledger.Loan) bool {
			return l.ID == 1 && l.Amount == 150 && l.Description == "Toyota Camry\n+ spare parts ($50)"
		})).Return(nil).Once()

		merged, err := service.CreateLoan(ctx, userKey, 7, "spare parts", 50, date)
		require.NoError(t, err)
		assert.Equal(t, int64(1), merged.ID)
		assert.Equal(t, ledger.Money(150), merged.Amount)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Customer not found", func(t *testing.T) {
		mockRepo, mockCustomers, service := setupTest()
		mockCustomers.On("FindByID", ctx, userKey, int64(7)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.CreateLoan(ctx, userKey, 7, "x", 10, date)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid amount", func(t *testing.T) {
		mockRepo, mockCustomers, service := setupTest()
		mockCustomers.On("FindByID", ctx, userKey, int64(7)).
			Return(&ledger.Customer{ID: 7, Name: "Ahmed"}, nil).Once()
		mockRepo.On("FindByCustomerID", ctx, userKey, int64(7)).Return(nil, nil).Once()

		_, err := service.CreateLoan(ctx, userKey, 7, "x", -5, date)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_ListLoans(t *testing.T) {
	ctx := context.Background()

	t.Run("Persists overdue flips discovered on listing", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		stale := ledger.Loan{ID: 1, CustomerName: "Ahmed", Status: ledger.StatusPending, Date: time.Now().AddDate(0, 0, -45)}
		fresh := ledger.Loan{ID: 2, CustomerName: "Fatima", Status: ledger.StatusPending, Date: time.Now().AddDate(0, 0, -5)}

		mockRepo.On("FindAll", ctx, userKey).Return([]ledger.Loan{stale, fresh}, nil).Once()
		mockRepo.On("UpdateStatuses", ctx, userKey, mock.MatchedBy(func(flipped []ledger.Loan) bool {
			return len(flipped) == 1 && flipped[0].ID == 1 && flipped[0].Status == ledger.StatusOverdue
		})).Return(nil).Once()

		loans, err := service.ListLoans(ctx, userKey, "", "")
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusOverdue, loans[0].Status)
		assert.Equal(t, ledger.StatusPending, loans[1].Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("No flips means no status writes", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, userKey).Return([]ledger.Loan{
			{ID: 1, Status: ledger.StatusPaid, Date: time.Now().AddDate(0, 0, -90)},
		}, nil).Once()

		_, err := service.ListLoans(ctx, userKey, "", "")
		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateStatuses", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Filters by status after the rule runs", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, userKey).Return([]ledger.Loan{
			{ID: 1, Status: ledger.StatusPaid, Date: time.Now()},
			{ID: 2, Status: ledger.StatusPending, Date: time.Now()},
		}, nil).Once()

		loans, err := service.ListLoans(ctx, userKey, "", ledger.StatusPaid)
		require.NoError(t, err)
		assert.Len(t, loans, 1)
		assert.Equal(t, int64(1), loans[0].ID)
	})
}

func TestService_UpdateLoan(t *testing.T) {
	ctx := context.Background()

	t.Run("Edits fields but never the status", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Description: "old", Amount: 100, Status: ledger.StatusOverdue}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(l *ledger.Loan) bool {
			return l.Description == "new description" && l.Amount == 120 && l.Status == ledger.StatusOverdue
		})).Return(nil).Once()

		updated, err := service.UpdateLoan(ctx, userKey, 1, "new description", 120, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusOverdue, updated.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Rejects empty description", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.UpdateLoan(ctx, userKey, 1, "  ", 120, time.Time{})
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Rejects a NaN amount", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Description: "old", Amount: 100, Status: ledger.StatusPending}
		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()

		_, err := service.UpdateLoan(ctx, userKey, 1, "new", math.NaN(), time.Time{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_SetLoanStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejects unknown status before touching storage", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.SetLoanStatus(ctx, userKey, 1, "settled")
		assert.ErrorIs(t, err, apperrors.ErrUnknownStatus)
		mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Persists a manual paid flip", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Status: ledger.StatusPending, Amount: 100}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(l *ledger.Loan) bool {
			return l.Status == ledger.StatusPaid
		})).Return(nil).Once()

		updated, err := service.SetLoanStatus(ctx, userKey, 1, ledger.StatusPaid)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusPaid, updated.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("No-op when the status already matches", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Status: ledger.StatusPaid}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()

		_, err := service.SetLoanStatus(ctx, userKey, 1, ledger.StatusPaid)
		require.NoError(t, err)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("Partial payment keeps the loan pending", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Amount: 200, Status: ledger.StatusPending}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()
		mockRepo.On("FindPayments", ctx, userKey, int64(1)).Return(nil, nil).Once()
		mockRepo.On("SavePayment", ctx, userKey, mock.MatchedBy(func(p *ledger.Payment) bool {
			match := p.LoanID == 1 && p.Amount == 50
			if match {
				p.ID = 11
			}
			return match
		})).Return(nil).Once()

		payment, updatedLoan, err := service.RecordPayment(ctx, userKey, 1, 50, time.Time{}, "first installment")
		require.NoError(t, err)
		assert.Equal(t, int64(11), payment.ID)
		assert.Equal(t, ledger.StatusPending, updatedLoan.Status)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Settling payment flips the loan to paid", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Amount: 200, Status: ledger.StatusPending}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()
		mockRepo.On("FindPayments", ctx, userKey, int64(1)).
			Return([]ledger.Payment{{ID: 10, LoanID: 1, Amount: 150}}, nil).Once()
		mockRepo.On("SavePayment", ctx, userKey, mock.AnythingOfType("*ledger.Payment")).Return(nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(l *ledger.Loan) bool {
			return l.ID == 1 && l.Status == ledger.StatusPaid
		})).Return(nil).Once()

		_, updatedLoan, err := service.RecordPayment(ctx, userKey, 1, 50, time.Time{}, "")
		require.NoError(t, err)
		assert.Equal(t, ledger.StatusPaid, updatedLoan.Status)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Rejects invalid amount before saving", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Loan{ID: 1, Amount: 200, Status: ledger.StatusPending}

		mockRepo.On("FindByID", ctx, userKey, int64(1)).Return(existing, nil).Once()
		mockRepo.On("FindPayments", ctx, userKey, int64(1)).Return(nil, nil).Once()

		_, _, err := service.RecordPayment(ctx, userKey, 1, 0, time.Time{}, "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
		mockRepo.AssertNotCalled(t, "SavePayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_GetDashboard(t *testing.T) {
	ctx := context.Background()

	mockRepo, mockCustomers, service := setupTest()
	mockCustomers.On("FindAll", ctx, userKey).Return([]ledger.Customer{{ID: 7}}, nil).Once()
	mockRepo.On("FindAll", ctx, userKey).Return([]ledger.Loan{
		{ID: 1, CustomerID: 7, Amount: 100, Status: ledger.StatusPending, Date: time.Now()},
	}, nil).Once()
	mockRepo.On("FindAllPayments", ctx, userKey).Return([]ledger.Payment{
		{ID: 1, LoanID: 1, Amount: 40},
	}, nil).Once()

	summary, err := service.GetDashboard(ctx, userKey)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Customers)
	assert.Equal(t, ledger.Money(100), summary.TotalAmount)
	assert.Equal(t, ledger.Money(40), summary.PaidAmount)
	assert.Equal(t, ledger.Money(60), summary.PendingAmount)
}

func TestService_SweepOverdue(t *testing.T) {
	ctx := context.Background()

	mockRepo, _, service := setupTest()
	mockRepo.On("ListUserKeys", ctx).Return([]string{"a@example.com", "b@example.com"}, nil).Once()
	mockRepo.On("FindAll", ctx, "a@example.com").Return([]ledger.Loan{
		{ID: 1, Status: ledger.StatusPending, Date: time.Now().AddDate(0, 0, -45)},
	}, nil).Once()
	mockRepo.On("FindAll", ctx, "b@example.com").Return([]ledger.Loan{
		{ID: 2, Status: ledger.StatusPending, Date: time.Now().AddDate(0, 0, -2)},
	}, nil).Once()
	mockRepo.On("UpdateStatuses", ctx, "a@example.com", mock.Anything).Return(nil).Once()

	flipped, err := service.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)
	mockRepo.AssertExpectations(t)
}
