package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

// Key layout: one JSON array per collection per user, plus one counter per
// collection for ID assignment and one record per account.
//
//	book:<userKey>:customers
//	book:<userKey>:loans
//	book:<userKey>:payments
//	seq:<userKey>:<collection>
//	account:<email>
func bookKey(userKey, collection string) string {
	return fmt.Sprintf("book:%s:%s", userKey, collection)
}

func seqKey(userKey, collection string) string {
	return fmt.Sprintf("seq:%s:%s", userKey, collection)
}

func accountKey(email string) string {
	return "account:" + email
}

type customerRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	TotalAmount  float64   `json:"totalAmount"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type loanRecord struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type paymentRecord struct {
	ID        int64     `json:"id"`
	LoanID    int64     `json:"loanId"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCustomerRecords(customers []ledger.Customer) []customerRecord {
	out := make([]customerRecord, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerRecord{ID: c.ID, Name: c.Name, Phone: c.Phone, Address: c.Address, TotalAmount: c.TotalAmount, RegisteredAt: c.RegisteredAt})
	}
	return out
}

func fromCustomerRecords(records []customerRecord) []ledger.Customer {
	out := make([]ledger.Customer, 0, len(records))
	for _, r := range records {
		out = append(out, ledger.Customer{ID: r.ID, Name: r.Name, Phone: r.Phone, Address: r.Address, TotalAmount: r.TotalAmount, RegisteredAt: r.RegisteredAt})
	}
	return out
}

func toLoanRecords(loans []ledger.Loan) []loanRecord {
	out := make([]loanRecord, 0, len(loans))
	for _, l := range loans {
		out = append(out, loanRecord{
			ID: l.ID, CustomerID: l.CustomerID, CustomerName: l.CustomerName,
			Description: l.Description, Amount: l.Amount, Date: l.Date,
			Status: string(l.Status), CreatedAt: l.CreatedAt,
		})
	}
	return out
}

func fromLoanRecords(records []loanRecord) ([]ledger.Loan, error) {
	out := make([]ledger.Loan, 0, len(records))
	for _, r := range records {
		status, err := ledger.ParseStatus(r.Status)
		if err != nil {
			return nil, fmt.Errorf("loan %d: %w", r.ID, err)
		}
		out = append(out, ledger.Loan{
			ID: r.ID, CustomerID: r.CustomerID, CustomerName: r.CustomerName,
			Description: r.Description, Amount: r.Amount, Date: r.Date,
			Status: status, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func toPaymentRecords(payments []ledger.Payment) []paymentRecord {
	out := make([]paymentRecord, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentRecord{ID: p.ID, LoanID: p.LoanID, Amount: p.Amount, Date: p.Date, Note: p.Note, CreatedAt: p.CreatedAt})
	}
	return out
}

func fromPaymentRecords(records []paymentRecord) []ledger.Payment {
	out := make([]ledger.Payment, 0, len(records))
	for _, r := range records {
		out = append(out, ledger.Payment{ID: r.ID, LoanID: r.LoanID, Amount: r.Amount, Date: r.Date, Note: r.Note, CreatedAt: r.CreatedAt})
	}
	return out
}

func loadDoc[T any](ctx context.Context, store Store, key string) ([]T, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var records []T
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("corrupt document %q: %w", key, err)
	}
	return records, nil
}

func saveDoc[T any](ctx context.Context, store Store, key string, records []T) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", key, err)
	}
	return store.Set(ctx, key, string(raw))
}
