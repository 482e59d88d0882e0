package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// Compliance level bands.
const (
	LevelExcellent        = "EXCELLENT"
	LevelGood             = "GOOD"
	LevelAcceptable       = "ACCEPTABLE"
	LevelNeedsImprovement = "NEEDS_IMPROVEMENT"
)

// recommendations maps failing check names to fixed advice text. Checks
// without an entry produce no recommendation; the mapping is deliberately
// closed.
var recommendations = map[string]string{
	CheckDoubleEntry:            "Review unbalanced journal entries and post correcting entries so every entry debits equal credits.",
	CheckDocumentation:          "Require a transaction description of at least five characters when posting journal entries.",
	CheckChronologicalOrder:     "Investigate journal entries posted out of sequence; entry numbers should follow entry dates.",
	CheckConstructionAllocation: "Tag project cost transactions with their project so construction cost allocation stays auditable.",
}

// ReportParams scope a compliance audit run.
type ReportParams struct {
	From         time.Time
	To           time.Time
	SubsidiaryID string
	ProjectID    string
}

// Report is the weighted audit outcome for a period.
type Report struct {
	From            time.Time     `json:"startDate"`
	To              time.Time     `json:"endDate"`
	Checks          []CheckResult `json:"checks"`
	OverallScore    float64       `json:"overallScore"`
	ComplianceLevel string        `json:"complianceLevel"`
	Recommendations []string      `json:"recommendations"`
	EntryCount      int           `json:"entryCount"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

// Service runs the audit battery over the posted ledger.
type Service struct {
	gw              ledger.Gateway
	projectSubTypes []string
	log             *slog.Logger
	now             func() time.Time
}

// NewService constructs the compliance service. projectSubTypes lists the
// account sub-types whose entries must carry a project tag.
func NewService(gw ledger.Gateway, projectSubTypes []string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, projectSubTypes: projectSubTypes, log: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Run executes the full check battery. The overall score is the mean of
// pass/fail across checks, not a weighted average of individual scores.
func (s *Service) Run(ctx context.Context, p ReportParams) (Report, error) {
	if p.To.Before(p.From) {
		return Report{}, fmt.Errorf("compliance: invalid period %s..%s", p.From.Format("2006-01-02"), p.To.Format("2006-01-02"))
	}
	entries, err := s.gw.ListPostedEntries(ctx, ledger.EntryFilter{
		From:         &p.From,
		To:           &p.To,
		SubsidiaryID: p.SubsidiaryID,
		ProjectID:    p.ProjectID,
	})
	if err != nil {
		return Report{}, err
	}
	accounts, err := s.gw.FindAccounts(ctx, ledger.AccountFilter{})
	if err != nil {
		return Report{}, err
	}
	projectEntries, err := s.projectCostEntries(ctx, p)
	if err != nil {
		return Report{}, err
	}

	checks := []CheckResult{
		checkDoubleEntry(entries),
		checkAccountClassification(accounts),
		checkDocumentation(entries),
		checkChronologicalOrder(entries),
		checkPeriodContainment(entries, p.From, p.To),
		checkCurrencyConsistency(),
		checkConstructionAllocation(projectEntries),
	}

	report := Report{
		From:        p.From,
		To:          p.To,
		Checks:      checks,
		EntryCount:  len(entries),
		GeneratedAt: s.now(),
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
			continue
		}
		if advice, ok := recommendations[c.Name]; ok {
			report.Recommendations = append(report.Recommendations, advice)
		}
	}
	report.OverallScore = float64(passed) / float64(len(checks)) * 100
	report.ComplianceLevel = levelFor(report.OverallScore)
	return report, nil
}

// projectCostEntries collects the distinct entries whose lines touch project
// cost sub-types in the period.
func (s *Service) projectCostEntries(ctx context.Context, p ReportParams) ([]ledger.JournalEntry, error) {
	if len(s.projectSubTypes) == 0 {
		return nil, nil
	}
	lines, err := s.gw.FindPostedEntryLines(ctx, ledger.LineFilter{
		From:         &p.From,
		To:           &p.To,
		SubTypes:     s.projectSubTypes,
		SubsidiaryID: p.SubsidiaryID,
		ProjectID:    p.ProjectID,
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	var entries []ledger.JournalEntry
	for _, ln := range lines {
		if seen[ln.Entry.ID] {
			continue
		}
		seen[ln.Entry.ID] = true
		entries = append(entries, ln.Entry)
	}
	return entries, nil
}

func levelFor(score float64) string {
	switch {
	case score >= 90:
		return LevelExcellent
	case score >= 80:
		return LevelGood
	case score >= 70:
		return LevelAcceptable
	default:
		return LevelNeedsImprovement
	}
}

func fmtCount(n, total int, what string) string {
	return fmt.Sprintf("%d of %d %s", n, total, what)
}
