package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ubdirahman/loan-management-app/internal/api/handler"
	"github.com/ubdirahman/loan-management-app/internal/api/handler/dto"
	"github.com/ubdirahman/loan-management-app/internal/api/middleware"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

const testUserKey = "owner@example.com"

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) CreateCustomer(ctx context.Context, userKey, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, name, phone, address, totalAmount)

	var r0 *ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, userKey string, customerID int64) (*ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 *ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context, userKey, search string) ([]ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, search)

	var r0 []ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateCustomer(ctx context.Context, userKey string, customerID int64, name, phone, address string, totalAmount ledger.Money) (*ledger.Customer, error) {
	ret := _m.Called(ctx, userKey, customerID, name, phone, address, totalAmount)

	var r0 *ledger.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) DeleteCustomer(ctx context.Context, userKey string, customerID int64) error {
	ret := _m.Called(ctx, userKey, customerID)
	return ret.Error(0)
}

func (_m *MockCustomerService) GetCustomerSummary(ctx context.Context, userKey string, customerID int64) (*ledger.CustomerSummary, error) {
	ret := _m.Called(ctx, userKey, customerID)

	var r0 *ledger.CustomerSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*ledger.CustomerSummary)
	}
	return r0, ret.Error(1)
}

// authedRequest builds a request carrying the userKey the middleware would
// have extracted, plus chi URL params.
func authedRequest(method, target string, body []byte, params map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx := middleware.WithUserKey(req.Context(), testUserKey)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func TestCreateCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := handler.NewCustomerHandler(mockService, logger)

	t.Run("success", func(t *testing.T) {
		reqBody := dto.CreateCustomerRequest{Name: "Ahmed Mohamed", Phone: "252-61-1234567", Address: "Hodan, Mogadishu", TotalAmount: 5000}
		reqBodyBytes, _ := json.Marshal(reqBody)
		req := authedRequest(http.MethodPost, "/customers", reqBodyBytes, nil)
		rec := httptest.NewRecorder()

		mockCustomer := &ledger.Customer{ID: 1, Name: "Ahmed Mohamed", Phone: "252-61-1234567", Address: "Hodan, Mogadishu", TotalAmount: 5000}
		mockService.On("CreateCustomer", mock.Anything, testUserKey, reqBody.Name, reqBody.Phone, reqBody.Address, ledger.Money(5000)).Return(mockCustomer, nil)

		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CustomerResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, strconv.FormatInt(mockCustomer.ID, 10), resp.CustomerID)
		assert.Equal(t, "5000.00", resp.TotalAmount)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid payload", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/customers", []byte(`{}`), nil)
		rec := httptest.NewRecorder()

		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateCustomer")
	})

	t.Run("negative total amount rejected", func(t *testing.T) {
		reqBodyBytes, _ := json.Marshal(dto.CreateCustomerRequest{Name: "Ahmed", Phone: "111", TotalAmount: -50})
		req := authedRequest(http.MethodPost, "/customers", reqBodyBytes, nil)
		rec := httptest.NewRecorder()

		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateCustomer")
	})

	t.Run("missing userKey yields 401", func(t *testing.T) {
		reqBody, _ := json.Marshal(dto.CreateCustomerRequest{Name: "Ahmed", Phone: "111"})
		req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewReader(reqBody))
		rec := httptest.NewRecorder()

		handler.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := handler.NewCustomerHandler(mockService, logger)

	t.Run("success", func(t *testing.T) {
		mockCustomer := &ledger.Customer{ID: 1, Name: "Ahmed Mohamed", Phone: "252-61-1234567"}
		mockService.On("GetCustomer", mock.Anything, testUserKey, int64(1)).Return(mockCustomer, nil)

		req := authedRequest(http.MethodGet, "/customers/1", nil, map[string]string{"customerID": "1"})
		rec := httptest.NewRecorder()

		handler.GetCustomer(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerResponse
		err := json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.NoError(t, err)
		assert.Equal(t, "1", resp.CustomerID)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid customer ID", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/customers/abc", nil, map[string]string{"customerID": "abc"})
		rec := httptest.NewRecorder()

		handler.GetCustomer(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "GetCustomer")
	})

	t.Run("customer not found", func(t *testing.T) {
		mockService.On("GetCustomer", mock.Anything, testUserKey, int64(2)).Return(nil, apperrors.ErrNotFound)

		req := authedRequest(http.MethodGet, "/customers/2", nil, map[string]string{"customerID": "2"})
		rec := httptest.NewRecorder()

		handler.GetCustomer(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestDeleteCustomer(t *testing.T) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := handler.NewCustomerHandler(mockService, logger)

	t.Run("success", func(t *testing.T) {
		mockService.On("DeleteCustomer", mock.Anything, testUserKey, int64(1)).Return(nil)

		req := authedRequest(http.MethodDelete, "/customers/1", nil, map[string]string{"customerID": "1"})
		rec := httptest.NewRecorder()

		handler.DeleteCustomer(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockService.On("DeleteCustomer", mock.Anything, testUserKey, int64(9)).Return(apperrors.ErrNotFound)

		req := authedRequest(http.MethodDelete, "/customers/9", nil, map[string]string{"customerID": "9"})
		rec := httptest.NewRecorder()

		handler.DeleteCustomer(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetCustomerSummary(t *testing.T) {
	mockService := new(MockCustomerService)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := handler.NewCustomerHandler(mockService, logger)

	summary := &ledger.CustomerSummary{
		Loans:          2,
		TotalBorrowed:  300,
		TotalPaid:      240,
		TotalRemaining: 60,
		PendingLoans:   1,
		PaidLoans:      1,
	}
	mockService.On("GetCustomerSummary", mock.Anything, testUserKey, int64(1)).Return(summary, nil)

	req := authedRequest(http.MethodGet, "/customers/1/summary", nil, map[string]string{"customerID": "1"})
	rec := httptest.NewRecorder()

	handler.GetCustomerSummary(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CustomerSummaryResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "300.00", resp.TotalBorrowed)
	assert.Equal(t, "240.00", resp.TotalPaid)
	assert.Equal(t, "60.00", resp.TotalRemaining)
	mockService.AssertExpectations(t)
}
