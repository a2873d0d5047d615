package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/ubdirahman/loan-management-app/internal/domain/user"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type UserRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(db DBPool, logger *slog.Logger) *UserRepository {
	if db == nil {
		panic("DBPool cannot be nil for UserRepository")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &UserRepository{db: db, logger: logger.With("component", "UserRepository")}
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	if u == nil {
		return fmt.Errorf("%w: user cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new user", slog.String("email", u.Email))

	query := `
        INSERT INTO users (email, name, password_hash, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, u.Email, u.Name, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Email already registered", slog.String("email", u.Email))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert user: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "User inserted successfully", slog.Int64("userID", u.ID))
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	r.logger.DebugContext(ctx, "Attempting to find user by email")

	query := `
        SELECT id, email, name, password_hash, created_at
        FROM users
        WHERE email = $1`

	var u user.User
	err := r.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "User not found", slog.String("email", email))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan user by email", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get user by email: %w", apperrors.ErrDatabase, err)
	}

	return &u, nil
}
