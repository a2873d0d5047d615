package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/domain/customer"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

const userKey = "owner@example.com"

func setupTest() (*customer.MockRepository, *customer.MockLoanBook, customer.Service) {
	mockRepo := new(customer.MockRepository)
	mockLoans := new(customer.MockLoanBook)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := customer.NewService(mockRepo, mockLoans, nil, logger)
	return mockRepo, mockLoans, service
}

func TestService_CreateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, _, service := setupTest()

		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(c *ledger.Customer) bool {
			match := c.Name == "Ahmed Mohamed" && c.Phone == "252-61-1234567" && c.Address == "Hodan" &&
				c.TotalAmount == 5000
			if match {
				c.ID = 1
			}
			return match
		})).Return(nil).Once()

		created, err := service.CreateCustomer(ctx, userKey, "  Ahmed Mohamed ", " 252-61-1234567 ", " Hodan ", 5000)

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, ledger.Money(5000), created.TotalAmount)
		assert.False(t, created.RegisteredAt.IsZero())
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error - Empty Name", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.CreateCustomer(ctx, userKey, "   ", "252-61-1234567", "", 0)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Empty Phone", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.CreateCustomer(ctx, userKey, "Ahmed", "", "", 0)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Negative Total Amount", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.CreateCustomer(ctx, userKey, "Ahmed", "252-61-1234567", "", -100)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - NaN Total Amount", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		_, err := service.CreateCustomer(ctx, userKey, "Ahmed", "252-61-1234567", "", math.NaN())
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error - Repository Save Failure", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		dbError := errors.New("database connection failed")

		mockRepo.On("Save", ctx, userKey, mock.AnythingOfType("*ledger.Customer")).Return(dbError).Once()

		created, err := service.CreateCustomer(ctx, userKey, "Ahmed", "252-61-1234567", "", 0)
		assert.Nil(t, created)
		assert.ErrorIs(t, err, dbError)
		mockRepo.AssertExpectations(t)
	})
}

func TestService_ListCustomers(t *testing.T) {
	ctx := context.Background()

	t.Run("Search filters the collection", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, userKey).Return([]ledger.Customer{
			{ID: 1, Name: "Ahmed Mohamed"},
			{ID: 2, Name: "Fatima Ali"},
		}, nil).Once()

		customers, err := service.ListCustomers(ctx, userKey, "fatima")
		assert.NoError(t, err)
		assert.Len(t, customers, 1)
		assert.Equal(t, int64(2), customers[0].ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Repository error propagates", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindAll", ctx, userKey).Return(nil, errors.New("boom")).Once()

		_, err := service.ListCustomers(ctx, userKey, "")
		assert.Error(t, err)
	})
}

func TestService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		existing := &ledger.Customer{ID: 5, Name: "Old Name", Phone: "111", TotalAmount: 1000}

		mockRepo.On("FindByID", ctx, userKey, int64(5)).Return(existing, nil).Once()
		mockRepo.On("Save", ctx, userKey, mock.MatchedBy(func(c *ledger.Customer) bool {
			return c.ID == 5 && c.Name == "New Name" && c.Phone == "222" && c.TotalAmount == 7500
		})).Return(nil).Once()

		updated, err := service.UpdateCustomer(ctx, userKey, 5, "New Name", "222", "Wadajir", 7500)
		assert.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, ledger.Money(7500), updated.TotalAmount)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("FindByID", ctx, userKey, int64(9)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.UpdateCustomer(ctx, userKey, 9, "Name", "222", "", 0)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("Delete", ctx, userKey, int64(5)).Return(nil).Once()

		assert.NoError(t, service.DeleteCustomer(ctx, userKey, 5))
		mockRepo.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockRepo, _, service := setupTest()
		mockRepo.On("Delete", ctx, userKey, int64(5)).Return(apperrors.ErrNotFound).Once()

		assert.ErrorIs(t, service.DeleteCustomer(ctx, userKey, 5), apperrors.ErrNotFound)
	})
}

func TestService_GetCustomerSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mockRepo, mockLoans, service := setupTest()
		mockRepo.On("FindByID", ctx, userKey, int64(7)).Return(&ledger.Customer{ID: 7}, nil).Once()
		mockLoans.On("FindByCustomerID", ctx, userKey, int64(7)).Return([]ledger.Loan{
			{ID: 1, CustomerID: 7, Amount: 100, Status: ledger.StatusPending},
			{ID: 2, CustomerID: 7, Amount: 200, Status: ledger.StatusPaid},
		}, nil).Once()
		mockLoans.On("FindAllPayments", ctx, userKey).Return([]ledger.Payment{
			{ID: 1, LoanID: 2, Amount: 200},
			{ID: 2, LoanID: 1, Amount: 40},
		}, nil).Once()

		summary, err := service.GetCustomerSummary(ctx, userKey, 7)
		assert.NoError(t, err)
		assert.Equal(t, 2, summary.Loans)
		assert.Equal(t, ledger.Money(300), summary.TotalBorrowed)
		assert.Equal(t, ledger.Money(240), summary.TotalPaid)
		assert.Equal(t, ledger.Money(60), summary.TotalRemaining)
	})

	t.Run("Customer Not Found", func(t *testing.T) {
		mockRepo, mockLoans, service := setupTest()
		mockRepo.On("FindByID", ctx, userKey, int64(7)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := service.GetCustomerSummary(ctx, userKey, 7)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		mockLoans.AssertNotCalled(t, "FindByCustomerID", mock.Anything, mock.Anything, mock.Anything)
	})
}
