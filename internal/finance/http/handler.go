// Package http exposes the financial statement report endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/nusantara-erp/nusantara-erp/internal/finance"
	"github.com/nusantara-erp/nusantara-erp/internal/observability"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/cache"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/httpx"
	"github.com/nusantara-erp/nusantara-erp/internal/shared"
	"github.com/nusantara-erp/nusantara-erp/jobs"
)

const dateLayout = "2006-01-02"

// AuditRecorder records report access for compliance review.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Handler wires the HTTP layer for financial statement endpoints.
type Handler struct {
	logger     *slog.Logger
	statements *finance.StatementService
	cashflow   *finance.CashFlowService
	equity     *finance.EquityService
	cache      *cache.ReportCache
	audit      AuditRecorder
	metrics    *observability.Metrics
	jobs       *jobs.Client
	validate   *validator.Validate
	rateLimit  func(http.Handler) http.Handler
	group      singleflight.Group
}

// NewHandler constructs the handler instance. Cache, audit, metrics, and the
// jobs client are optional; a nil value disables that concern.
func NewHandler(
	logger *slog.Logger,
	statements *finance.StatementService,
	cashflow *finance.CashFlowService,
	equity *finance.EquityService,
	reportCache *cache.ReportCache,
	audit AuditRecorder,
	metrics *observability.Metrics,
	jobsClient *jobs.Client,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return "ip:" + r.RemoteAddr, nil
		}
		return "ip:" + host, nil
	}))
	return &Handler{
		logger:     logger,
		statements: statements,
		cashflow:   cashflow,
		equity:     equity,
		cache:      reportCache,
		audit:      audit,
		metrics:    metrics,
		jobs:       jobsClient,
		validate:   validator.New(),
		rateLimit:  limiter,
	}
}

// MountRoutes registers the statement endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/finance/reports/trial-balance", h.HandleTrialBalance)
	r.Get("/finance/reports/income-statement", h.HandleIncomeStatement)
	r.Get("/finance/reports/balance-sheet", h.HandleBalanceSheet)
	r.Get("/finance/reports/cash-flow", h.HandleCashFlow)
	r.Get("/finance/reports/equity-changes", h.HandleEquityChanges)
	r.Post("/finance/reports/warmup", h.HandleWarmupRequest)
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Get("/finance/reports/trial-balance/export.csv", h.HandleTrialBalanceCSV)
		r.Get("/finance/reports/income-statement/export.csv", h.HandleIncomeStatementCSV)
	})
}

type asOfRequest struct {
	AsOf         string `validate:"required,datetime=2006-01-02"`
	SubsidiaryID string
	ProjectID    string
}

type periodRequest struct {
	From         string `validate:"required,datetime=2006-01-02"`
	To           string `validate:"required,datetime=2006-01-02"`
	SubsidiaryID string
	ProjectID    string
}

func (h *Handler) asOfParams(r *http.Request) (asOfRequest, time.Time, error) {
	req := asOfRequest{
		AsOf:         strings.TrimSpace(r.URL.Query().Get("asOfDate")),
		SubsidiaryID: strings.TrimSpace(r.URL.Query().Get("subsidiaryId")),
		ProjectID:    strings.TrimSpace(r.URL.Query().Get("projectId")),
	}
	if req.AsOf == "" {
		req.AsOf = time.Now().UTC().Format(dateLayout)
	}
	if err := h.validate.Struct(req); err != nil {
		return req, time.Time{}, err
	}
	asOf, err := time.Parse(dateLayout, req.AsOf)
	return req, asOf, err
}

func (h *Handler) periodParams(r *http.Request) (periodRequest, time.Time, time.Time, error) {
	req := periodRequest{
		From:         strings.TrimSpace(r.URL.Query().Get("startDate")),
		To:           strings.TrimSpace(r.URL.Query().Get("endDate")),
		SubsidiaryID: strings.TrimSpace(r.URL.Query().Get("subsidiaryId")),
		ProjectID:    strings.TrimSpace(r.URL.Query().Get("projectId")),
	}
	if err := h.validate.Struct(req); err != nil {
		return req, time.Time{}, time.Time{}, err
	}
	from, err := time.Parse(dateLayout, req.From)
	if err != nil {
		return req, time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(dateLayout, req.To)
	return req, from, to, err
}

// HandleTrialBalance serves the trial balance report.
func (h *Handler) HandleTrialBalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.trialBalance(r)
	h.observe(r.Context(), "trial_balance", err, r)
	if err != nil {
		if isRequestError(err) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		httpx.ReportError(w, "Trial Balance", err)
		return
	}
	httpx.Report(w, report)
}

func (h *Handler) trialBalance(r *http.Request) (finance.TrialBalance, error) {
	req, asOf, err := h.asOfParams(r)
	if err != nil {
		return finance.TrialBalance{}, wrapRequestError(err)
	}
	params := finance.TrialBalanceParams{
		AsOf:            asOf,
		SubsidiaryID:    req.SubsidiaryID,
		ProjectID:       req.ProjectID,
		IncludeInactive: r.URL.Query().Get("includeInactive") == "true",
	}
	key := cache.Key("trial-balance", req.AsOf, req.SubsidiaryID, req.ProjectID, boolKey(params.IncludeInactive))
	var report finance.TrialBalance
	err = h.cached(r.Context(), key, &report, func(ctx context.Context) (any, error) {
		return h.statements.TrialBalance(ctx, params)
	})
	return report, err
}

// HandleIncomeStatement serves the income statement report.
func (h *Handler) HandleIncomeStatement(w http.ResponseWriter, r *http.Request) {
	report, err := h.incomeStatement(r)
	h.observe(r.Context(), "income_statement", err, r)
	if err != nil {
		if isRequestError(err) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		httpx.ReportError(w, "Income Statement", err)
		return
	}
	httpx.Report(w, report)
}

func (h *Handler) incomeStatement(r *http.Request) (finance.IncomeStatement, error) {
	req, from, to, err := h.periodParams(r)
	if err != nil {
		return finance.IncomeStatement{}, wrapRequestError(err)
	}
	params := finance.IncomeStatementParams{From: from, To: to, SubsidiaryID: req.SubsidiaryID, ProjectID: req.ProjectID}
	key := cache.Key("income-statement", req.From, req.To, req.SubsidiaryID, req.ProjectID)
	var report finance.IncomeStatement
	err = h.cached(r.Context(), key, &report, func(ctx context.Context) (any, error) {
		return h.statements.IncomeStatement(ctx, params)
	})
	return report, err
}

// HandleBalanceSheet serves the balance sheet report.
func (h *Handler) HandleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	req, asOf, err := h.asOfParams(r)
	h.observe(r.Context(), "balance_sheet", err, r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.statements.BalanceSheet(r.Context(), finance.BalanceSheetParams{
		AsOf:         asOf,
		SubsidiaryID: req.SubsidiaryID,
		ProjectID:    req.ProjectID,
	})
	if err != nil {
		httpx.ReportError(w, "Balance Sheet", err)
		return
	}
	httpx.Report(w, report)
}

// HandleCashFlow serves the cash flow statement for the requested method.
func (h *Handler) HandleCashFlow(w http.ResponseWriter, r *http.Request) {
	req, from, to, err := h.periodParams(r)
	h.observe(r.Context(), "cash_flow", err, r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	method := finance.CashFlowMethod(strings.TrimSpace(r.URL.Query().Get("method")))
	report, err := h.cashflow.Build(r.Context(), finance.CashFlowParams{
		From:         from,
		To:           to,
		Method:       method,
		SubsidiaryID: req.SubsidiaryID,
		ProjectID:    req.ProjectID,
	})
	if err != nil {
		httpx.ReportError(w, "Cash Flow Statement", err)
		return
	}
	httpx.Report(w, report)
}

// HandleEquityChanges serves the statement of changes in equity.
func (h *Handler) HandleEquityChanges(w http.ResponseWriter, r *http.Request) {
	req, from, to, err := h.periodParams(r)
	h.observe(r.Context(), "equity_changes", err, r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	report, err := h.equity.Build(r.Context(), finance.EquityChangesParams{
		From:         from,
		To:           to,
		SubsidiaryID: req.SubsidiaryID,
		ProjectID:    req.ProjectID,
	})
	if err != nil {
		httpx.ReportError(w, "Equity Changes Statement", err)
		return
	}
	httpx.Report(w, report)
}

// HandleWarmupRequest queues a report cache warmup on the worker.
func (h *Handler) HandleWarmupRequest(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "background job queue is not configured")
		return
	}
	payload := jobs.ReportWarmupPayload{
		SubsidiaryID: strings.TrimSpace(r.URL.Query().Get("subsidiaryId")),
	}
	info, err := h.jobs.EnqueueReportWarmup(r.Context(), payload)
	if err != nil {
		httpx.ReportError(w, "Report Warmup", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, httpx.Envelope{
		Success: true,
		Data:    map[string]string{"taskId": info.ID, "queue": info.Queue},
	})
}

// cached routes the load through singleflight and the report cache so
// concurrent identical requests share one ledger scan. The flight returns
// the marshaled payload; nothing writes to it after the flight completes,
// and each waiter decodes into its own destination.
func (h *Handler) cached(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	result := h.group.DoChan(key, func() (any, error) {
		if h.cache == nil {
			value, err := loader(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(value)
		}
		var payload json.RawMessage
		if err := h.cache.Fetch(ctx, key, &payload, loader); err != nil {
			return nil, err
		}
		return []byte(payload), nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

func (h *Handler) observe(ctx context.Context, report string, err error, r *http.Request) {
	if h.metrics != nil {
		h.metrics.ObserveReport(report, err)
	}
	if h.audit == nil || err != nil {
		return
	}
	auditErr := h.audit.Record(ctx, shared.AuditLog{
		Actor:  r.Header.Get("X-User"),
		Action: "report.generate",
		Entity: report,
		Meta:   map[string]any{"query": r.URL.RawQuery},
	})
	if auditErr != nil {
		h.logger.Warn("audit report access", slog.Any("error", auditErr))
	}
}

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
