package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

const minPasswordLength = 6

type Service interface {
	Register(ctx context.Context, email, password, name string) (*User, error)

	// Authenticate verifies the credentials and returns the account. A
	// missing account and a wrong password both map to ErrUnauthorized so
	// callers cannot tell which emails exist.
	Authenticate(ctx context.Context, email, password string) (*User, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("user repository cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &service{
		repo:   repo,
		logger: logger.With(slog.String("component", "userService")),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, email, password, name string) (*User, error) {
	email = normalizeEmail(email)
	logCtx := s.logger.With(slog.String("email", email))
	logCtx.InfoContext(ctx, "Attempting to register account")

	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("email", "must be a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Save(ctx, u); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			logCtx.WarnContext(ctx, "Account already registered")
			return nil, err
		}
		logCtx.ErrorContext(ctx, "Repository failed to save account", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully registered account", slog.Int64("userID", u.ID))
	return u, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	logCtx := s.logger.With(slog.String("email", email))

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logCtx.WarnContext(ctx, "Authentication failed: unknown account")
			return nil, apperrors.ErrUnauthorized
		}
		logCtx.ErrorContext(ctx, "Repository error during authentication", slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logCtx.WarnContext(ctx, "Authentication failed: wrong password")
		return nil, apperrors.ErrUnauthorized
	}

	logCtx.InfoContext(ctx, "Authentication succeeded", slog.Int64("userID", u.ID))
	return u, nil
}
