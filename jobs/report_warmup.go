package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nusantara-erp/nusantara-erp/internal/finance"
	"github.com/nusantara-erp/nusantara-erp/internal/platform/cache"
)

// ReportWarmupJob refreshes the cached statement payloads so the first
// dashboard hit after midnight does not pay the aggregation cost.
type ReportWarmupJob struct {
	Statements *finance.StatementService
	Cache      *cache.ReportCache
	Logger     *slog.Logger
	clock      func() time.Time
}

// NewReportWarmupJob initialises the warmup handler.
func NewReportWarmupJob(statements *finance.StatementService, reportCache *cache.ReportCache, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{
		Statements: statements,
		Cache:      reportCache,
		Logger:     logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle warms the trial balance and month-to-date income statement.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Statements == nil || j.Cache == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	// Truncate to midnight so warmed keys carry the same bounds the HTTP
	// layer derives from date-only parameters.
	now := j.now().Truncate(24 * time.Hour)
	asOf := now.Format("2006-01-02")
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	logger := j.logger().With(slog.String("as_of", asOf))
	logger.Info("starting report warmup")

	tbKey := cache.Key("trial-balance", asOf, payload.SubsidiaryID, "", "0")
	var tb finance.TrialBalance
	if err := j.Cache.Fetch(ctx, tbKey, &tb, func(ctx context.Context) (any, error) {
		return j.Statements.TrialBalance(ctx, finance.TrialBalanceParams{
			AsOf:         now,
			SubsidiaryID: payload.SubsidiaryID,
		})
	}); err != nil {
		logger.Error("warm trial balance", slog.Any("error", err))
		return err
	}

	isKey := cache.Key("income-statement", monthStart, asOf, payload.SubsidiaryID, "")
	var is finance.IncomeStatement
	if err := j.Cache.Fetch(ctx, isKey, &is, func(ctx context.Context) (any, error) {
		return j.Statements.IncomeStatement(ctx, finance.IncomeStatementParams{
			From:         time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
			To:           now,
			SubsidiaryID: payload.SubsidiaryID,
		})
	}); err != nil {
		logger.Error("warm income statement", slog.Any("error", err))
		return err
	}

	logger.Info("report warmup finished",
		slog.Int("trial_balance_rows", len(tb.Rows)),
		slog.Float64("net_income", is.NetIncome),
	)
	return nil
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
