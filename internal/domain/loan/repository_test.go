package loan

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, userKey string, loan *ledger.Loan) error {
	ret := _m.Called(ctx, userKey, loan)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, userKey string, loanID int64) (*ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, loanID)

	var r0 *ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Loan, error) {
	ret := _m.Called(ctx, userKey)

	var r0 []ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 []ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) UpdateStatuses(ctx context.Context, userKey string, loans []ledger.Loan) error {
	ret := _m.Called(ctx, userKey, loans)
	return ret.Error(0)
}

func (_m *MockRepository) Delete(ctx context.Context, userKey string, loanID int64) error {
	ret := _m.Called(ctx, userKey, loanID)
	return ret.Error(0)
}

func (_m *MockRepository) SavePayment(ctx context.Context, userKey string, payment *ledger.Payment) error {
	ret := _m.Called(ctx, userKey, payment)
	return ret.Error(0)
}

func (_m *MockRepository) FindPayments(ctx context.Context, userKey string, loanID int64) ([]ledger.Payment, error) {
	ret := _m.Called(ctx, userKey, loanID)

	var r0 []ledger.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error) {
	ret := _m.Called(ctx, userKey)

	var r0 []ledger.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) ListUserKeys(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	return r0, ret.Error(1)
}

var _ Repository = (*MockRepository)(nil)

type MockCustomerDirectory struct {
	mock.Mock
}

func (_m *MockCustomerDirectory) FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 *ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerDirectory) FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error) {
	ret := _m.Called(ctx, userKey)

	var r0 []ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Customer)
	}
	return r0, ret.Error(1)
}

var _ CustomerDirectory = (*MockCustomerDirectory)(nil)
