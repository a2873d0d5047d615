package dto

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

type CreateCustomerRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	TotalAmount float64 `json:"totalAmount"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	if r.TotalAmount < 0 {
		return fmt.Errorf("totalAmount cannot be negative")
	}

	return nil
}

type UpdateCustomerRequest struct {
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Address     string  `json:"address"`
	TotalAmount float64 `json:"totalAmount"`
}

func (r *UpdateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return fmt.Errorf("phone cannot be empty")
	}
	if r.TotalAmount < 0 {
		return fmt.Errorf("totalAmount cannot be negative")
	}
	return nil
}

type CustomerResponse struct {
	CustomerID   string    `json:"customerId"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	TotalAmount  string    `json:"totalAmount"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func NewCustomerResponse(cust *ledger.Customer) CustomerResponse {
	if cust == nil {

		return CustomerResponse{}
	}

	return CustomerResponse{
		CustomerID:   strconv.FormatInt(cust.ID, 10),
		Name:         cust.Name,
		Phone:        cust.Phone,
		Address:      cust.Address,
		TotalAmount:  formatMoney(cust.TotalAmount),
		RegisteredAt: cust.RegisteredAt,
	}
}

func NewCustomerListResponse(customers []ledger.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = NewCustomerResponse(&customers[i])
	}
	return out
}

type CustomerSummaryResponse struct {
	Loans          int    `json:"loans"`
	TotalBorrowed  string `json:"totalBorrowed"`
	TotalPaid      string `json:"totalPaid"`
	TotalRemaining string `json:"totalRemaining"`
	PendingLoans   int    `json:"pendingLoans"`
	PaidLoans      int    `json:"paidLoans"`
	OverdueLoans   int    `json:"overdueLoans"`
}

func NewCustomerSummaryResponse(summary *ledger.CustomerSummary) CustomerSummaryResponse {
	if summary == nil {
		return CustomerSummaryResponse{}
	}

	return CustomerSummaryResponse{
		Loans:          summary.Loans,
		TotalBorrowed:  formatMoney(summary.TotalBorrowed),
		TotalPaid:      formatMoney(summary.TotalPaid),
		TotalRemaining: formatMoney(summary.TotalRemaining),
		PendingLoans:   summary.PendingLoans,
		PaidLoans:      summary.PaidLoans,
		OverdueLoans:   summary.OverdueLoans,
	}
}
