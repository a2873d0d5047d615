package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/api/handler"
	"github.com/ubdirahman/loan-management-app/internal/api/handler/dto"
	"github.com/ubdirahman/loan-management-app/internal/config"
	"github.com/ubdirahman/loan-management-app/internal/domain/user"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type MockUserService struct {
	mock.Mock
}

func (_m *MockUserService) Register(ctx context.Context, email, password, name string) (*user.User, error) {
	ret := _m.Called(ctx, email, password, name)

	var r0 *user.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*user.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	ret := _m.Called(ctx, email, password)

	var r0 *user.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*user.User)
	}
	return r0, ret.Error(1)
}

func TestRegister(t *testing.T) {
	mockService := new(MockUserService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.AuthConfig{JWTSecret: "testsecret", TokenExpiry: 24 * time.Hour}
	handler := handler.NewAuthHandler(mockService, cfg, logger)

	t.Run("success", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.RegisterRequest{Email: "owner@example.com", Name: "Owner", Password: "secret1"})
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		mockService.On("Register", mock.Anything, "owner@example.com", "secret1", "Owner").
			Return(&user.User{ID: 1, Email: "owner@example.com", Name: "Owner"}, nil)

		handler.Register(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.RegisterResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "owner@example.com", resp.Email)
		mockService.AssertExpectations(t)
	})

	t.Run("duplicate email maps to 409", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.RegisterRequest{Email: "dup@example.com", Password: "secret1"})
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		mockService.On("Register", mock.Anything, "dup@example.com", "secret1", "").
			Return(nil, apperrors.ErrAlreadyExists)

		handler.Register(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.RegisterRequest{Email: "owner@example.com"})
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Register", mock.Anything, "owner@example.com", "", "")
	})
}

func TestGenerateBearerToken(t *testing.T) {
	mockService := new(MockUserService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	secret := "testsecret"
	cfg := config.AuthConfig{JWTSecret: secret, TokenExpiry: 24 * time.Hour}
	handler := handler.NewAuthHandler(mockService, cfg, logger)

	t.Run("success returns a bearer token carrying the email claim", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.TokenRequest{Email: "owner@example.com", Password: "secret1"})
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		mockService.On("Authenticate", mock.Anything, "owner@example.com", "secret1").
			Return(&user.User{ID: 1, Email: "owner@example.com"}, nil)

		handler.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.Token, "Bearer "))

		tokenString := strings.TrimPrefix(resp.Token, "Bearer ")
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		assert.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, "owner@example.com", claims["email"])
		mockService.AssertExpectations(t)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.TokenRequest{Email: "owner@example.com", Password: "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		mockService.On("Authenticate", mock.Anything, "owner@example.com", "wrong").
			Return(nil, apperrors.ErrUnauthorized)

		handler.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing email", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.TokenRequest{Password: "secret1"})
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		handler.GenerateBearerToken(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
