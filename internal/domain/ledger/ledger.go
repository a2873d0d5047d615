// Package ledger holds the pure bookkeeping rules that tie customers, loans
// and payments together. Every function takes the current collections as
// input and returns new collections as output; nothing here touches storage,
// logs, or clocks.
package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

// OverdueAfter is how old a pending loan may grow before it flips to overdue.
// The boundary is strictly greater-than: a loan aged exactly 30 days stays
// pending.
const OverdueAfter = 30 * 24 * time.Hour

// ValidateAmount rejects NaN, infinities and non-positive values. Every
// amount entering the book passes through here.
func ValidateAmount(amount Money) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: amount is not a number", apperrors.ErrInvalidAmount)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %v", apperrors.ErrInvalidAmount, amount)
	}
	return nil
}

// TotalPaid sums the payments recorded against loanID. A loan with no
// payments totals zero.
func TotalPaid(loanID int64, payments []Payment) Money {
	var sum Money
	for _, p := range payments {
		if p.LoanID == loanID {
			sum += p.Amount
		}
	}
	return sum
}

// Remaining is the loan amount minus everything paid against it. It goes
// negative on overpayment; callers display the figure, they do not clamp it.
func Remaining(loan Loan, payments []Payment) Money {
	return loan.Amount - TotalPaid(loan.ID, payments)
}

// RecordPayment appends p to the payment collection and derives the loan's
// new status: paid once the accumulated total reaches the loan amount,
// otherwise the current status is preserved. This is the only path that
// auto-transitions a loan to paid from payment activity.
func RecordPayment(loan Loan, payments []Payment, p Payment) ([]Payment, Status, error) {
	if err := ValidateAmount(p.Amount); err != nil {
		return nil, "", err
	}
	if p.LoanID != loan.ID {
		return nil, "", fmt.Errorf("%w: payment references loan %d, expected %d",
			apperrors.ErrValidation, p.LoanID, loan.ID)
	}

	updated := make([]Payment, len(payments), len(payments)+1)
	copy(updated, payments)
	updated = append(updated, p)

	status := loan.Status
	if TotalPaid(loan.ID, updated) >= loan.Amount {
		status = StatusPaid
	}
	return updated, status, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ApplyOverdueRule flips pending loans older than 30 days to overdue,
// comparing dates with the time of day stripped. Paid loans and loans already
// overdue pass through untouched, which makes the rule idempotent. It is
// meant to run whenever the loan collection is loaded or changed, not on a
// timer.
func ApplyOverdueRule(loans []Loan, today time.Time) []Loan {
	day := dateOnly(today)

	updated := make([]Loan, len(loans))
	for i, l := range loans {
		if l.Status == StatusPending && day.Sub(dateOnly(l.Date)) > OverdueAfter {
			l.Status = StatusOverdue
		}
		updated[i] = l
	}
	return updated
}

// formatAmount renders the merged-in amount for the description note the way
// a locale-aware display would: thousands grouped with commas, at most three
// fraction digits, trailing zeros dropped.
func formatAmount(a Money) string {
	s := strconv.FormatFloat(a, 'f', 3, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}
	if hasFrac {
		return intPart + "." + fracPart
	}
	return intPart
}

// MergeOrCreateLoan enforces the one-open-balance rule: if the customer
// already has a pending loan, the draft is folded into it (amount added,
// description appended with the extra amount noted, date moved to the draft's)
// and no new record is created. Otherwise a new pending loan is appended.
// The affected loan is returned alongside the full updated collection; a new
// loan carries a zero ID until storage assigns one.
func MergeOrCreateLoan(customerID int64, loans []Loan, draft LoanDraft) ([]Loan, *Loan, error) {
	if customerID <= 0 {
		return nil, nil, fmt.Errorf("%w: customer id must be positive", apperrors.ErrValidation)
	}
	if err := ValidateAmount(draft.Amount); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(draft.Description) == "" {
		return nil, nil, apperrors.NewValidationError("description", "cannot be empty")
	}

	updated := make([]Loan, len(loans))
	copy(updated, loans)

	for i, l := range updated {
		if l.CustomerID != customerID || l.Status != StatusPending {
			continue
		}
		l.Amount += draft.Amount
		l.Description = fmt.Sprintf("%s\n+ %s ($%s)", l.Description, strings.TrimSpace(draft.Description), formatAmount(draft.Amount))
		l.Date = draft.Date
		updated[i] = l
		return updated, &updated[i], nil
	}

	loan := Loan{
		CustomerID:   customerID,
		CustomerName: draft.CustomerName,
		Description:  strings.TrimSpace(draft.Description),
		Amount:       draft.Amount,
		Date:         draft.Date,
		Status:       StatusPending,
	}
	updated = append(updated, loan)
	return updated, &updated[len(updated)-1], nil
}

// RemoveCustomer prunes a customer together with its loans and, transitively,
// their payments. The returned collections never contain orphans.
func RemoveCustomer(customers []Customer, loans []Loan, payments []Payment, customerID int64) ([]Customer, []Loan, []Payment) {
	keptCustomers := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if c.ID != customerID {
			keptCustomers = append(keptCustomers, c)
		}
	}

	removedLoans := make(map[int64]bool)
	keptLoans := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if l.CustomerID == customerID {
			removedLoans[l.ID] = true
			continue
		}
		keptLoans = append(keptLoans, l)
	}

	keptPayments := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if !removedLoans[p.LoanID] {
			keptPayments = append(keptPayments, p)
		}
	}
	return keptCustomers, keptLoans, keptPayments
}

// RemoveLoan prunes a loan and its payments.
func RemoveLoan(loans []Loan, payments []Payment, loanID int64) ([]Loan, []Payment) {
	keptLoans := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if l.ID != loanID {
			keptLoans = append(keptLoans, l)
		}
	}

	keptPayments := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if p.LoanID != loanID {
			keptPayments = append(keptPayments, p)
		}
	}
	return keptLoans, keptPayments
}

// Summarize derives the dashboard aggregates for one user's book.
func Summarize(customers []Customer, loans []Loan, payments []Payment) Summary {
	s := Summary{
		Customers: len(customers),
		Loans:     len(loans),
		Payments:  len(payments),
	}
	for _, l := range loans {
		s.TotalAmount += l.Amount
		switch l.Status {
		case StatusPending:
			s.PendingLoans++
		case StatusPaid:
			s.PaidLoans++
		case StatusOverdue:
			s.OverdueLoans++
		}
	}
	for _, p := range payments {
		s.PaidAmount += p.Amount
	}
	s.PendingAmount = s.TotalAmount - s.PaidAmount
	return s
}

// SummarizeCustomer derives the per-customer financial rollup shown on the
// customer detail view.
func SummarizeCustomer(customerID int64, loans []Loan, payments []Payment) CustomerSummary {
	var s CustomerSummary
	for _, l := range loans {
		if l.CustomerID != customerID {
			continue
		}
		s.Loans++
		s.TotalBorrowed += l.Amount
		s.TotalPaid += TotalPaid(l.ID, payments)
		switch l.Status {
		case StatusPending:
			s.PendingLoans++
		case StatusPaid:
			s.PaidLoans++
		case StatusOverdue:
			s.OverdueLoans++
		}
	}
	s.TotalRemaining = s.TotalBorrowed - s.TotalPaid
	return s
}

// SearchCustomers filters by a case-insensitive substring over name, phone
// and address. An empty term matches everything.
func SearchCustomers(customers []Customer, term string) []Customer {
	if strings.TrimSpace(term) == "" {
		return customers
	}
	term = strings.ToLower(term)

	matched := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), term) ||
			strings.Contains(c.Phone, term) ||
			strings.Contains(strings.ToLower(c.Address), term) {
			matched = append(matched, c)
		}
	}
	return matched
}

// SearchLoans filters by substring over customer name and description, and
// optionally by status. An empty status matches all statuses.
func SearchLoans(loans []Loan, term string, status Status) []Loan {
	term = strings.ToLower(strings.TrimSpace(term))

	matched := make([]Loan, 0, len(loans))
	for _, l := range loans {
		if status != "" && l.Status != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(l.CustomerName), term) &&
			!strings.Contains(strings.ToLower(l.Description), term) {
			continue
		}
		matched = append(matched, l)
	}
	return matched
}
