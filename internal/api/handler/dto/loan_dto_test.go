package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

const validRequest = "Valid request"

func TestCreateLoanRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request CreateLoanRequest
		wantErr bool
	}{
		{validRequest, CreateLoanRequest{CustomerID: 1, Description: "car", Amount: 100}, false},
		{"Valid request with date", CreateLoanRequest{CustomerID: 1, Description: "car", Amount: 100, Date: "2025-03-05"}, false},
		{"Missing customerId", CreateLoanRequest{Amount: 100}, true},
		{"Zero amount", CreateLoanRequest{CustomerID: 1, Amount: 0}, true},
		{"Negative amount", CreateLoanRequest{CustomerID: 1, Amount: -5}, true},
		{"Bad date format", CreateLoanRequest{CustomerID: 1, Amount: 100, Date: "05/03/2025"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateLoanRequestParsedDate(t *testing.T) {
	req := CreateLoanRequest{CustomerID: 1, Amount: 100, Date: "2025-03-05"}
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), req.ParsedDate())

	empty := CreateLoanRequest{CustomerID: 1, Amount: 100}
	assert.True(t, empty.ParsedDate().IsZero())
}

func TestRecordPaymentRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request RecordPaymentRequest
		wantErr bool
	}{
		{validRequest, RecordPaymentRequest{Amount: 25.50}, false},
		{"Zero amount", RecordPaymentRequest{Amount: 0}, true},
		{"Negative amount", RecordPaymentRequest{Amount: -1}, true},
		{"Bad date format", RecordPaymentRequest{Amount: 10, Date: "not-a-date"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetLoanStatusRequestValidate(t *testing.T) {
	assert.NoError(t, (&SetLoanStatusRequest{Status: "paid"}).Validate())
	assert.Error(t, (&SetLoanStatusRequest{}).Validate())
}

func TestNewLoanResponse(t *testing.T) {
	l := &ledger.Loan{
		ID:           7,
		CustomerID:   3,
		CustomerName: "Ahmed Mohamed",
		Description:  "Toyota Camry",
		Amount:       100,
		Date:         time.Date(2025, 3, 5, 14, 30, 0, 0, time.UTC),
		Status:       ledger.StatusPending,
	}

	resp := NewLoanResponse(l)
	assert.Equal(t, "7", resp.ID)
	assert.Equal(t, "3", resp.CustomerID)
	assert.Equal(t, "100.00", resp.Amount)
	assert.Equal(t, "2025-03-05", resp.Date)
	assert.Equal(t, "pending", resp.Status)

	assert.Equal(t, LoanResponse{}, NewLoanResponse(nil))
}

func TestNewPaymentResponseFormatsMoney(t *testing.T) {
	p := &ledger.Payment{ID: 2, LoanID: 7, Amount: 25.5, Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}
	resp := NewPaymentResponse(p)
	assert.Equal(t, "25.50", resp.Amount)
	assert.Equal(t, "2025-04-01", resp.Date)
}

func TestNewDashboardResponse(t *testing.T) {
	resp := NewDashboardResponse(&ledger.Summary{
		Customers:     1,
		Loans:         2,
		Payments:      3,
		TotalAmount:   150,
		PaidAmount:    50,
		PendingAmount: 100,
	})
	assert.Equal(t, "150.00", resp.TotalAmount)
	assert.Equal(t, "50.00", resp.PaidAmount)
	assert.Equal(t, "100.00", resp.PendingAmount)
}
