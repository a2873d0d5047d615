package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/user"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type UserRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(backend *Backend, logger *slog.Logger) *UserRepository {
	if backend == nil {
		panic("backend cannot be nil for UserRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &UserRepository{backend: backend, logger: logger.With("component", "kv.UserRepository")}
}

type accountRecord struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("%w: user cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.backend.mu.Lock()
	defer r.backend.mu.Unlock()

	key := accountKey(u.Email)
	if _, exists, err := r.backend.store.Get(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	} else if exists {
		r.logger.WarnContext(ctx, "Email already registered", slog.String("email", u.Email))
		return apperrors.ErrAlreadyExists
	}

	id, err := r.backend.store.Incr(ctx, "seq:accounts")
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	u.ID = id

	raw, err := json.Marshal(accountRecord{
		ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	if err := r.backend.store.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Account saved", slog.Int64("userID", u.ID))
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	raw, ok, err := r.backend.store.Get(ctx, accountKey(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrDatabase, err)
	}
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	var record accountRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("corrupt account record for %q: %w", email, err)
	}

	return &user.User{
		ID:           record.ID,
		Email:        record.Email,
		Name:         record.Name,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}, nil
}
