package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ubdirahman/loan-management-app/internal/api/handler/dto"
	"github.com/ubdirahman/loan-management-app/internal/domain/ledger"
	"github.com/ubdirahman/loan-management-app/internal/domain/loan"
	"github.com/ubdirahman/loan-management-app/internal/pkg/apperrors"
)

type LoanHandler struct {
	service loan.Service
	logger  *slog.Logger
}

func NewLoanHandler(s loan.Service, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid loanID format in URL path: %s", apperrors.ErrInvalidArgument, idStr)
	}
	return id, nil
}

// CreateLoan handles POST /loans
// @Summary Create a new loan
// @Description Creates a loan for a customer. If the customer already has a pending loan, the new amount and description are folded into it instead of opening a second record.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan created or merged into an existing pending loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	affected, err := h.service.CreateLoan(r.Context(), userKey, req.CustomerID, req.Description, req.Amount, req.ParsedDate())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.NewLoanResponse(affected)
	h.logger.InfoContext(r.Context(), "Loan request accepted", slog.String("loanID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// GetLoan handles GET /loans/{loanID}
// @Summary Retrieve loan details
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	domainLoan, err := h.service.GetLoan(r.Context(), userKey, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(domainLoan))
}

// ListLoans handles GET /loans
// @Summary List loans
// @Description Lists all loans in the account's book. Pending loans older than 30 days are flipped to overdue before the listing is returned. Supports filtering by search term and status.
// @Tags Loans
// @Produce json
// @Param search query string false "Search term matched against customer name and description"
// @Param status query string false "Filter by status (pending, paid, overdue)"
// @Success 200 {array} dto.LoanResponse "Loans retrieved"
// @Failure 400 {object} dto.ErrorResponse "Unknown status filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	var status ledger.Status
	if statusParam := r.URL.Query().Get("status"); statusParam != "" {
		parsed, err := ledger.ParseStatus(statusParam)
		if err != nil {
			respondError(w, err)
			return
		}
		status = parsed
	}

	loans, err := h.service.ListLoans(r.Context(), userKey, r.URL.Query().Get("search"), status)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanListResponse(loans))
}

// UpdateLoan handles PUT /loans/{loanID}
// @Summary Update loan details
// @Description Edits description, amount and date. The status is left untouched; it changes only through payments, the overdue rule, or the status endpoint.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.UpdateLoanRequest true "Loan update request payload"
// @Success 200 {object} dto.LoanResponse "Loan successfully updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [put]
// @Security BearerAuth
func (h *LoanHandler) UpdateLoan(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.UpdateLoan(r.Context(), userKey, loanID, req.Description, req.Amount, req.ParsedDate())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// DeleteLoan handles DELETE /loans/{loanID}
// @Summary Delete a loan
// @Description Deletes the loan together with all of its payments.
// @Tags Loans
// @Param loanID path int true "Loan ID"
// @Success 204 "Loan and its payments deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteLoan(r.Context(), userKey, loanID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetLoanStatus handles PUT /loans/{loanID}/status
// @Summary Set a loan's status
// @Description Sets the loan status to one of pending, paid or overdue. Any other value is rejected.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.SetLoanStatusRequest true "Status change request payload"
// @Success 200 {object} dto.LoanResponse "Status applied"
// @Failure 400 {object} dto.ErrorResponse "Unknown status or invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/status [put]
// @Security BearerAuth
func (h *LoanHandler) SetLoanStatus(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.SetLoanStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	updated, err := h.service.SetLoanStatus(r.Context(), userKey, loanID, ledger.Status(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(updated))
}

// RecordPayment handles POST /loans/{loanID}/payments
// @Summary Record a payment against a loan
// @Description Appends a payment to the loan. Once the accumulated total reaches the loan amount the loan is automatically marked paid; the response carries the loan so clients can observe the flip.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.RecordPaymentRequest true "Payment request payload"
// @Success 201 {object} dto.RecordPaymentResponse "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid payment amount or loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [post]
// @Security BearerAuth
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.RecordPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	payment, updatedLoan, err := h.service.RecordPayment(r.Context(), userKey, loanID, req.Amount, req.ParsedDate(), req.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := dto.RecordPaymentResponse{
		Payment: dto.NewPaymentResponse(payment),
		Loan:    dto.NewLoanResponse(updatedLoan),
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ListPayments handles GET /loans/{loanID}/payments
// @Summary List payments of a loan
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {array} dto.PaymentResponse "Payments retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/payments [get]
// @Security BearerAuth
func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), userKey, loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPaymentListResponse(payments))
}

// GetDashboard handles GET /dashboard
// @Summary Retrieve the account dashboard
// @Description Returns book-wide totals: customer, loan and payment counts plus amounts by status. The overdue rule runs before the totals are computed.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dto.DashboardResponse "Dashboard retrieved"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dashboard [get]
// @Security BearerAuth
func (h *LoanHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetDashboard(r.Context(), userKey)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewDashboardResponse(summary))
}
