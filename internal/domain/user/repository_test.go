package user

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) Save(ctx context.Context, user *User) error {
	ret := _m.Called(ctx, user)
	return ret.Error(0)
}

func (_m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	ret := _m.Called(ctx, email)

	var r0 *User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*User)
	}
	return r0, ret.Error(1)
}

var _ Repository = (*MockRepository)(nil)
