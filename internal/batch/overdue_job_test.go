package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

type MockLoanService struct {
	mock.Mock
}

func (_m *MockLoanService) CreateLoan(ctx context.Context, userKey string, customerID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, customerID, description, amount, date)
	var r0 *ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) GetLoan(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, loanID)
	var r0 *ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) ListLoans(ctx context.Context, userKey, search string, status ledger.Status) ([]ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, search, status)
	var r0 []ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) UpdateLoan(ctx context.Context, userKey string, loanID int64, description string, amount ledger.Money, date time.Time) (*ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, loanID, description, amount, date)
	var r0 *ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) DeleteLoan(ctx context.Context, userKey string, loanID int64) error {
	ret := _m.Called(ctx, userKey, loanID)
	return ret.Error(0)
}

func (_m *MockLoanService) SetLoanStatus(ctx context.Context, userKey string, loanID int64, status ledger.Status) (*ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, loanID, status)
	var r0 *ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) RecordPayment(ctx context.Context, userKey string, loanID int64, amount ledger.Money, date time.Time, note string) (*ledger.Payment, *ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, loanID, amount, date, note)
	var r0 *ledger.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Payment)
	}
	var r1 *ledger.Loan
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(*ledger.Loan)
	}
	return r0, r1, ret.Error(2)
}

func (_m *MockLoanService) ListPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error) {
	ret := _m.Called(ctx, userKey, loanID)
	var r0 []ledger.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) GetDashboard(ctx context.Context, userKey string) (*ledger.Summary, error) {
	ret := _m.Called(ctx, userKey)
	var r0 *ledger.Summary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Summary)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanService) SweepOverdue(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)
	return ret.Int(0), ret.Error(1)
}

func TestOverdueSweepJobRun(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("reports success", func(t *testing.T) {
		mockService := new(MockLoanService)
		mockService.On("SweepOverdue", mock.Anything).Return(3, nil)

		job := NewOverdueSweepJob(mockService, logger)
		assert.NoError(t, job.Run(context.Background()))
		mockService.AssertExpectations(t)
	})

	t.Run("propagates sweep failure", func(t *testing.T) {
		mockService := new(MockLoanService)
		mockService.On("SweepOverdue", mock.Anything).Return(0, errors.New("store unavailable"))

		job := NewOverdueSweepJob(mockService, logger)
		assert.Error(t, job.Run(context.Background()))
	})
}

func TestNewOverdueSweepJobPanicsOnNil(t *testing.T) {
	assert.Panics(t, func() {
		NewOverdueSweepJob(nil, slog.Default())
	})
}
