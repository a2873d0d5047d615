package customer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, userKey string, customer *ledger.Customer) error {
	ret := _m.Called(ctx, userKey, customer)
	return ret.Error(0)
}

func (_m *MockRepository) FindByID(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 *ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) FindAll(ctx context.Context, userKey string) ([]ledger.Customer, error) {
	ret := _m.Called(ctx, userKey)

	var r0 []ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockRepository) Delete(ctx context.Context, userKey string, customerID int64) error {
	ret := _m.Called(ctx, userKey, customerID)
	return ret.Error(0)
}

var _ Repository = (*MockRepository)(nil)

type MockLoanBook struct {
	mock.Mock
}

func (_m *MockLoanBook) FindByCustomerID(ctx context.Context, userKey string, customerID int64) ([]ledger.Loan, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 []ledger.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Loan)
	}
	return r0, ret.Error(1)
}

func (_m *MockLoanBook) FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error) {
	ret := _m.Called(ctx, userKey)

	var r0 []ledger.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Payment)
	}
	return r0, ret.Error(1)
}

var _ LoanBook = (*MockLoanBook)(nil)
