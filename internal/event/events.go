package event

import (
	"time"
)

type CustomerCreatedEvent struct {
	UserKey    string    `json:"userKey"`
	CustomerID int64     `json:"customerId"`
	Name       string    `json:"name"`
	Timestamp  time.Time `json:"timestamp"`
}

type LoanOverdueEvent struct {
	UserKey      string    `json:"userKey"`
	LoanID       int64     `json:"loanId"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Amount       float64   `json:"amount"`
	LoanDate     time.Time `json:"loanDate"`
	Timestamp    time.Time `json:"timestamp"`
}

type LoanPaidEvent struct {
	UserKey    string    `json:"userKey"`
	LoanID     int64     `json:"loanId"`
	CustomerID int64     `json:"customerId"`
	Amount     float64   `json:"amount"`
	TotalPaid  float64   `json:"totalPaid"`
	Timestamp  time.Time `json:"timestamp"`
}
