// Package http exposes the Indonesian tax report endpoints.
package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/nusantara-erp/nusantara-erp/internal/platform/httpx"
	"github.com/nusantara-erp/nusantara-erp/internal/tax"
)

// Handler wires the HTTP layer for tax reporting endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *tax.Service
	validate *validator.Validate
}

// NewHandler constructs the handler instance.
func NewHandler(logger *slog.Logger, service *tax.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the tax report endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tax/reports/pph21", h.HandlePPh21)
	r.Get("/tax/reports/pph23", h.HandlePPh23)
	r.Get("/tax/reports/ppn", h.HandlePPN)
	r.Get("/tax/reports/construction-summary", h.HandleConstructionSummary)
}

type monthRequest struct {
	Year  int `validate:"required,min=2000,max=2100"`
	Month int `validate:"required,min=1,max=12"`
}

func (h *Handler) monthParams(r *http.Request) (tax.MonthlyParams, error) {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	req := monthRequest{Year: year, Month: month}
	if err := h.validate.Struct(req); err != nil {
		return tax.MonthlyParams{}, err
	}
	return tax.MonthlyParams{
		Year:         req.Year,
		Month:        time.Month(req.Month),
		SubsidiaryID: r.URL.Query().Get("subsidiaryId"),
		ProjectID:    r.URL.Query().Get("projectId"),
	}, nil
}

// HandlePPh21 serves the monthly employee income tax report.
func (h *Handler) HandlePPh21(w http.ResponseWriter, r *http.Request) {
	params, err := h.monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.MonthlyPPh21(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "PPh21 Report", err)
		return
	}
	httpx.Report(w, report)
}

// HandlePPh23 serves the monthly withholding tax report.
func (h *Handler) HandlePPh23(w http.ResponseWriter, r *http.Request) {
	params, err := h.monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.MonthlyPPh23(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "PPh23 Report", err)
		return
	}
	httpx.Report(w, report)
}

// HandlePPN serves the monthly VAT report.
func (h *Handler) HandlePPN(w http.ResponseWriter, r *http.Request) {
	params, err := h.monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.MonthlyPPN(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "PPN Report", err)
		return
	}
	httpx.Report(w, report)
}

// HandleConstructionSummary serves the combined monthly tax liability view.
func (h *Handler) HandleConstructionSummary(w http.ResponseWriter, r *http.Request) {
	params, err := h.monthParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.ConstructionSummary(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "Construction Tax Summary", err)
		return
	}
	httpx.Report(w, report)
}
