package dto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

var dateLayout = time.RFC3339[:10]

func formatMoney(amount ledger.Money) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

type CreateLoanRequest struct {
	CustomerID  int64   `json:"customerId"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customerId must be a positive number")
	}
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

// ParsedDate returns the loan date, or the zero time when the field was
// omitted so the service can default it.
func (r *CreateLoanRequest) ParsedDate() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, r.Date)
	return t
}

type UpdateLoanRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date,omitempty"`
}

func (r *UpdateLoanRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

func (r *UpdateLoanRequest) ParsedDate() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, r.Date)
	return t
}

type SetLoanStatusRequest struct {
	Status string `json:"status"`
}

func (r *SetLoanStatusRequest) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("status cannot be empty")
	}
	return nil
}

type RecordPaymentRequest struct {
	Amount float64 `json:"amount"`
	Date   string  `json:"date,omitempty"`
	Note   string  `json:"note,omitempty"`
}

func (r *RecordPaymentRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

func (r *RecordPaymentRequest) ParsedDate() time.Time {
	if r.Date == "" {
		return time.Time{}
	}
	t, _ := time.Parse(dateLayout, r.Date)
	return t
}

type LoanResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Description  string    `json:"description"`
	Amount       string    `json:"amount"`
	Date         string    `json:"date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewLoanResponse(domainLoan *ledger.Loan) LoanResponse {
	if domainLoan == nil {
		return LoanResponse{}
	}

	return LoanResponse{
		ID:           strconv.FormatInt(domainLoan.ID, 10),
		CustomerID:   strconv.FormatInt(domainLoan.CustomerID, 10),
		CustomerName: domainLoan.CustomerName,
		Description:  domainLoan.Description,
		Amount:       formatMoney(domainLoan.Amount),
		Date:         domainLoan.Date.Format(dateLayout),
		Status:       string(domainLoan.Status),
		CreatedAt:    domainLoan.CreatedAt,
	}
}

func NewLoanListResponse(loans []ledger.Loan) []LoanResponse {
	out := make([]LoanResponse, len(loans))
	for i := range loans {
		out[i] = NewLoanResponse(&loans[i])
	}
	return out
}

type PaymentResponse struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"loanId"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewPaymentResponse(p *ledger.Payment) PaymentResponse {
	if p == nil {
		return PaymentResponse{}
	}

	return PaymentResponse{
		ID:        strconv.FormatInt(p.ID, 10),
		LoanID:    strconv.FormatInt(p.LoanID, 10),
		Amount:    formatMoney(p.Amount),
		Date:      p.Date.Format(dateLayout),
		Note:      p.Note,
		CreatedAt: p.CreatedAt,
	}
}

func NewPaymentListResponse(payments []ledger.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = NewPaymentResponse(&payments[i])
	}
	return out
}

// RecordPaymentResponse returns the stored payment together with the loan it
// was applied to, so clients can observe an auto-settled status without a
// second round trip.
type RecordPaymentResponse struct {
	Payment PaymentResponse `json:"payment"`
	Loan    LoanResponse    `json:"loan"`
}

type DashboardResponse struct {
	Customers     int    `json:"customers"`
	Loans         int    `json:"loans"`
	Payments      int    `json:"payments"`
	TotalAmount   string `json:"totalAmount"`
	PaidAmount    string `json:"paidAmount"`
	PendingAmount string `json:"pendingAmount"`
	PendingLoans  int    `json:"pendingLoans"`
	PaidLoans     int    `json:"paidLoans"`
	OverdueLoans  int    `json:"overdueLoans"`
}

func NewDashboardResponse(summary *ledger.Summary) DashboardResponse {
	if summary == nil {
		return DashboardResponse{}
	}

	return DashboardResponse{
		Customers:     summary.Customers,
		Loans:         summary.Loans,
		Payments:      summary.Payments,
		TotalAmount:   formatMoney(summary.TotalAmount),
		PaidAmount:    formatMoney(summary.PaidAmount),
		PendingAmount: formatMoney(summary.PendingAmount),
		PendingLoans:  summary.PendingLoans,
		PaidLoans:     summary.PaidLoans,
		OverdueLoans:  summary.OverdueLoans,
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
