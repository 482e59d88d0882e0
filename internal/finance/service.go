package finance

import (
	"log/slog"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// StatementService builds trial balance, income statement, and balance sheet
// reports. It is stateless and safe for concurrent use; every report request
// queries the gateway afresh.
type StatementService struct {
	gw    ledger.Gateway
	agg   *Aggregator
	chart StatementChart
	log   *slog.Logger
	now   func() time.Time
}

// NewStatementService constructs the statement service.
func NewStatementService(gw ledger.Gateway, chart StatementChart, logger *slog.Logger) *StatementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatementService{
		gw:    gw,
		agg:   NewAggregator(gw),
		chart: chart,
		log:   logger,
		now:   time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *StatementService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Aggregator exposes the underlying balance aggregator.
func (s *StatementService) Aggregator() *Aggregator {
	return s.agg
}
