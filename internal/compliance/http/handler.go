// Package http exposes the compliance audit and audit trail endpoints.
package http

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/nusantara-erp/nusantara-erp/internal/compliance"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/httpx"
	"github.com/nusantara-erp/nusantara-erp/jobs"
)

const dateLayout = "2006-01-02"

// Handler wires the HTTP layer for compliance endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *compliance.Service
	jobs      *jobs.Client
	validate  *validator.Validate
	rateLimit func(http.Handler) http.Handler
}

// NewHandler constructs the handler instance. The audit trail replays every
// entry in the period, so it sits behind a rate limit. A nil jobs client
// disables on-demand scans.
func NewHandler(logger *slog.Logger, service *compliance.Service, jobsClient *jobs.Client) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := httprate.Limit(6, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{logger: logger, service: service, jobs: jobsClient, validate: validator.New(), rateLimit: limiter}
}

// MountRoutes registers the compliance endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/compliance/report", h.HandleReport)
	r.Post("/compliance/scan", h.HandleScanRequest)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/compliance/audit-trail", h.HandleAuditTrail)
	})
}

type periodRequest struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

func (h *Handler) periodParams(r *http.Request) (compliance.ReportParams, error) {
	req := periodRequest{
		From: r.URL.Query().Get("startDate"),
		To:   r.URL.Query().Get("endDate"),
	}
	if err := h.validate.Struct(req); err != nil {
		return compliance.ReportParams{}, err
	}
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return compliance.ReportParams{}, err
	}
	to, err := time.Parse(dateLayout, req.To)
	if err != nil {
		return compliance.ReportParams{}, err
	}
	return compliance.ReportParams{
		From:         from,
		To:           to,
		SubsidiaryID: r.URL.Query().Get("subsidiaryId"),
		ProjectID:    r.URL.Query().Get("projectId"),
	}, nil
}

// HandleReport serves the compliance score report.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	params, err := h.periodParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.Run(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "Compliance Report", err)
		return
	}
	httpx.Report(w, report)
}

// HandleScanRequest queues an on-demand compliance scan on the worker.
func (h *Handler) HandleScanRequest(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background job queue is not configured")
		return
	}
	payload := jobs.ComplianceScanPayload{
		SubsidiaryID: r.URL.Query().Get("subsidiaryId"),
	}
	if raw := r.URL.Query().Get("windowDays"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "windowDays must be a positive integer")
			return
		}
		payload.WindowDays = days
	}
	info, err := h.jobs.EnqueueComplianceScan(r.Context(), payload)
	if err != nil {
		httpx.ReportError(w, "Compliance Scan", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, httpx.Envelope{
		Success: true,
		Data:    map[string]string{"taskId": info.ID, "queue": info.Queue},
	})
}

// HandleAuditTrail serves the journal activity replay.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	params, err := h.periodParams(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.service.AuditTrail(r.Context(), params)
	if err != nil {
		httpx.ReportError(w, "Audit Trail Report", err)
		return
	}
	httpx.Report(w, report)
}
