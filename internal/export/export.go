// Package export renders a user's book as downloadable documents: a full JSON
// snapshot for backup, and a CSV report of overdue loans for collection calls.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
)

// Source is the slice of storage the exporter reads. Both repository
// implementations satisfy it.
type Source interface {
	FindAllCustomers(ctx context.Context, userKey string) ([]ledger.Customer, error)
	FindAllLoans(ctx context.Context, userKey string) ([]ledger.Loan, error)
	FindAllPayments(ctx context.Context, userKey string) ([]ledger.Payment, error)
}

type Service struct {
	source Source
	logger *slog.Logger
}

func NewService(source Source, logger *slog.Logger) *Service {
	if source == nil {
		panic("export source cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Service{
		source: source,
		logger: logger.With(slog.String("component", "exportService")),
	}
}

type snapshotCustomer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	TotalAmount  float64   `json:"totalAmount"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type snapshotLoan struct {
	ID           int64     `json:"id"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

type snapshotPayment struct {
	ID        int64     `json:"id"`
	LoanID    int64     `json:"loanId"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type snapshot struct {
	Customers  []snapshotCustomer `json:"customers"`
	Loans      []snapshotLoan     `json:"loans"`
	Payments   []snapshotPayment  `json:"payments"`
	ExportDate time.Time          `json:"exportDate"`
	User       string             `json:"user"`
}

// Snapshot serializes the entire book as indented JSON. Collections are
// always present in the output, empty books included.
func (s *Service) Snapshot(ctx context.Context, userKey string) ([]byte, error) {
	customers, loans, payments, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	snap := snapshot{
		Customers:  make([]snapshotCustomer, 0, len(customers)),
		Loans:      make([]snapshotLoan, 0, len(loans)),
		Payments:   make([]snapshotPayment, 0, len(payments)),
		ExportDate: time.Now().UTC(),
		User:       userKey,
	}
	for _, c := range customers {
		snap.Customers = append(snap.Customers, snapshotCustomer{
			ID: c.ID, Name: c.Name, Phone: c.Phone, Address: c.Address,
			TotalAmount: c.TotalAmount, RegisteredAt: c.RegisteredAt,
		})
	}
	for _, l := range loans {
		snap.Loans = append(snap.Loans, snapshotLoan{
			ID: l.ID, CustomerID: l.CustomerID, CustomerName: l.CustomerName,
			Description: l.Description, Amount: l.Amount, Date: l.Date,
			Status: string(l.Status), CreatedAt: l.CreatedAt,
		})
	}
	for _, p := range payments {
		snap.Payments = append(snap.Payments, snapshotPayment{
			ID: p.ID, LoanID: p.LoanID, Amount: p.Amount, Date: p.Date,
			Note: p.Note, CreatedAt: p.CreatedAt,
		})
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.logger.InfoContext(ctx, "Rendered book snapshot",
		slog.String("userKey", userKey), slog.Int("bytes", len(body)))
	return body, nil
}

const overdueReportHeader = "Customer Name,Customer Phone,Customer Address,Loan Description,Total Amount ($),Remaining Amount ($),Loan Date"

// OverdueReport renders overdue loans as CSV, one row per loan. The name
// column comes from the loan's own customer-name snapshot; phone and address
// are looked up and fall back to "N/A" when the customer is gone. Text fields
// are always quoted with embedded quotes doubled, newlines in descriptions
// collapse to spaces, amounts are emitted as bare numbers, and rows are joined
// without a trailing newline. The byte layout is a fixed contract.
func (s *Service) OverdueReport(ctx context.Context, userKey string) ([]byte, error) {
	customers, loans, payments, err := s.load(ctx, userKey)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]ledger.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}

	rows := []string{overdueReportHeader}
	for _, l := range loans {
		if l.Status != ledger.StatusOverdue {
			continue
		}

		phone, address := "N/A", "N/A"
		if cust, ok := byID[l.CustomerID]; ok {
			phone, address = cust.Phone, cust.Address
		}

		rows = append(rows, fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s",
			csvQuote(l.CustomerName),
			csvQuote(phone),
			csvQuote(address),
			csvQuote(flattenLines(l.Description)),
			formatReportAmount(l.Amount),
			formatReportAmount(ledger.Remaining(l, payments)),
			formatReportDate(l.Date),
		))
	}

	s.logger.InfoContext(ctx, "Rendered overdue report",
		slog.String("userKey", userKey), slog.Int("rows", len(rows)-1))
	return []byte(strings.Join(rows, "\n")), nil
}

func (s *Service) load(ctx context.Context, userKey string) ([]ledger.Customer, []ledger.Loan, []ledger.Payment, error) {
	customers, err := s.source.FindAllCustomers(ctx, userKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load customers: %w", err)
	}
	loans, err := s.source.FindAllLoans(ctx, userKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load loans: %w", err)
	}
	payments, err := s.source.FindAllPayments(ctx, userKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load payments: %w", err)
	}
	return customers, loans, payments, nil
}

// csvQuote wraps a text field in double quotes unconditionally, doubling any
// embedded quotes. Numeric and date columns are emitted bare.
func csvQuote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func flattenLines(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}

// formatReportAmount renders the shortest decimal form: 100 stays "100",
// 74.5 stays "74.5". The report's numeric cells carry no fixed precision.
func formatReportAmount(amount ledger.Money) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// formatReportDate renders M/D/YYYY without zero padding.
func formatReportDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}
