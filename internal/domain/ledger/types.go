package ledger

import (
	"fmt"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

// Money is a decimal currency value. Amounts are plain float64: the book-keeping
// domain has no regulatory precision requirement, and double precision is more
// than enough for the magnitudes involved. Presentation layers format with
// two decimal places.
type Money = float64

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// ParseStatus is the deserialization boundary for loan statuses. Anything but
// the three known variants is rejected instead of propagated.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusOverdue:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrUnknownStatus, s)
	}
}

type Customer struct {
	ID           int64
	Name         string
	Phone        string
	Address      string
	TotalAmount  Money
	RegisteredAt time.Time
}

// Loan carries a denormalized CustomerName copied at creation time. It is a
// historical snapshot and is not refreshed when the customer is renamed.
type Loan struct {
	ID           int64
	CustomerID   int64
	CustomerName string
	Description  string
	Amount       Money
	Date         time.Time
	Status       Status
	CreatedAt    time.Time
}

// Payment records are append-only: created through RecordPayment, never
// mutated, removed only as a cascade of loan deletion.
type Payment struct {
	ID        int64
	LoanID    int64
	Amount    Money
	Date      time.Time
	Note      string
	CreatedAt time.Time
}

// LoanDraft is the user-supplied part of a new loan before the merge-or-create
// rule decides whether it becomes a record of its own.
type LoanDraft struct {
	CustomerName string
	Description  string
	Amount       Money
	Date         time.Time
}

type Summary struct {
	Customers     int
	Loans         int
	Payments      int
	TotalAmount   Money
	PaidAmount    Money
	PendingAmount Money
	PendingLoans  int
	PaidLoans     int
	OverdueLoans  int
}

type CustomerSummary struct {
	Loans          int
	TotalBorrowed  Money
	TotalPaid      Money
	TotalRemaining Money
	PendingLoans   int
	PaidLoans      int
	OverdueLoans   int
}
