package user

import (
	"context"
	"time"
)

// User is an account that owns one bookkeeping ledger. The email doubles as
// the userKey that scopes every customer, loan and payment.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

type Repository interface {
	// Save inserts the user; a duplicate email returns
	// apperrors.ErrAlreadyExists.
	Save(ctx context.Context, user *User) error

	FindByEmail(ctx context.Context, email string) (*User, error)
}
