package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskComplianceScan runs the compliance battery over the previous
	// period and records the outcome.
	TaskComplianceScan = "compliance:scan"
	// TaskReportWarmup refreshes cached statement payloads.
	TaskReportWarmup = "reports:warmup"
)

// ComplianceScanPayload parameterises a scheduled compliance scan.
type ComplianceScanPayload struct {
	WindowDays   int    `json:"window_days"`
	SubsidiaryID string `json:"subsidiary_id,omitempty"`
}

// NewComplianceScanTask constructs an Asynq task for the compliance scan.
func NewComplianceScanTask(payload ComplianceScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskComplianceScan, data), nil
}

// ReportWarmupPayload parameterises a warmup run.
type ReportWarmupPayload struct {
	SubsidiaryID string `json:"subsidiary_id,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task for report warmup.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}
