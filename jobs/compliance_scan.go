package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nusantara-erp/nusantara-erp/internal/compliance"
	"github.com/nusantara-erp/nusantara-erp/internal/shared"
)

// AuditRecorder persists scan outcomes for compliance review.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ComplianceScanJob runs the audit battery over a trailing window and
// records the score.
type ComplianceScanJob struct {
	Service *compliance.Service
	Audit   AuditRecorder
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewComplianceScanJob initialises the scan handler.
func NewComplianceScanJob(service *compliance.Service, audit AuditRecorder, logger *slog.Logger) *ComplianceScanJob {
	return &ComplianceScanJob{
		Service: service,
		Audit:   audit,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the compliance scan logic.
func (j *ComplianceScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("compliance scan: handler not configured")
	}
	var payload ComplianceScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 30
	}

	now := j.now()
	params := compliance.ReportParams{
		From:         now.AddDate(0, 0, -payload.WindowDays),
		To:           now,
		SubsidiaryID: payload.SubsidiaryID,
	}
	logger := j.logger().With(slog.Int("window_days", payload.WindowDays))
	logger.Info("starting compliance scan")

	report, err := j.Service.Run(ctx, params)
	if err != nil {
		logger.Error("compliance scan failed", slog.Any("error", err))
		return err
	}
	logger.Info("compliance scan finished",
		slog.Float64("score", report.OverallScore),
		slog.String("level", report.ComplianceLevel),
		slog.Int("entries", report.EntryCount),
	)

	if j.Audit != nil {
		if err := j.Audit.Record(ctx, shared.AuditLog{
			Actor:  "scheduler",
			Action: "compliance.scan",
			Entity: "compliance_report",
			Meta: map[string]any{
				"score":       report.OverallScore,
				"level":       report.ComplianceLevel,
				"entry_count": report.EntryCount,
				"window_days": payload.WindowDays,
			},
			At: now,
		}); err != nil {
			logger.Warn("record scan outcome", slog.Any("error", err))
		}
	}
	return nil
}

func (j *ComplianceScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *ComplianceScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
