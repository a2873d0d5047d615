package handler

import (
	"log/slog"
	"net/http"

	"github.com/ubdirahman/loan-management-app/internal/export"
)

type ExportHandler struct {
	service *export.Service
	logger  *slog.Logger
}

func NewExportHandler(s *export.Service, l *slog.Logger) *ExportHandler {
	if s == nil {
		panic("export service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ExportHandler{
		service: s,
		logger:  l.With("component", "ExportHandler"),
	}
}

// Snapshot handles GET /export
// @Summary Export the full book as JSON
// @Description Returns a JSON snapshot of every customer, loan and payment in the account's book, stamped with the export time. Suitable as a backup that can be re-imported elsewhere.
// @Tags Export
// @Produce json
// @Success 200 {string} string "JSON snapshot"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /export [get]
// @Security BearerAuth
func (h *ExportHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	data, err := h.service.Snapshot(r.Context(), userKey)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build snapshot", slog.Any("error", err))
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="loans-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// OverdueReport handles GET /export/overdue
// @Summary Export the overdue loan report as CSV
// @Description Returns a CSV report of all overdue loans with customer contact details and remaining amounts.
// @Tags Export
// @Produce text/csv
// @Success 200 {string} string "CSV report"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /export/overdue [get]
// @Security BearerAuth
func (h *ExportHandler) OverdueReport(w http.ResponseWriter, r *http.Request) {
	userKey, ok := userKeyFromRequest(w, r)
	if !ok {
		return
	}

	data, err := h.service.OverdueReport(r.Context(), userKey)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build overdue report", slog.Any("error", err))
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="overdue-report.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
