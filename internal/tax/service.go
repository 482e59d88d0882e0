package tax

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// Due day-of-month in the month following the report period, per DJP filing
// rules as applied by this system.
const (
	pph21DueDay = 10
	pph23DueDay = 10
	ppnDueDay   = 25
)

// MonthlyParams scope a monthly tax report.
type MonthlyParams struct {
	Year         int
	Month        time.Month
	SubsidiaryID string
	ProjectID    string
}

// MonthlyReport aggregates one tax type over a calendar month.
type MonthlyReport struct {
	TaxType          string    `json:"taxType"`
	Period           string    `json:"period"`
	TotalGross       float64   `json:"totalGross"`
	TotalTax         float64   `json:"totalTax"`
	TotalNet         float64   `json:"totalNet"`
	TransactionCount int       `json:"transactionCount"`
	DueDate          time.Time `json:"dueDate"`
	DaysRemaining    int       `json:"daysRemaining"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// PPNReport extends the monthly aggregate with the VAT in/out split.
type PPNReport struct {
	MonthlyReport
	OutputVAT  float64 `json:"outputVAT"`
	InputVAT   float64 `json:"inputVAT"`
	NetPayable float64 `json:"netPayable"`
}

// ConstructionSummary composes all three tax liabilities for one month.
type ConstructionSummary struct {
	Period         string        `json:"period"`
	PPh21          MonthlyReport `json:"pph21"`
	PPh23          MonthlyReport `json:"pph23"`
	PPN            PPNReport     `json:"ppn"`
	TotalLiability float64       `json:"totalTaxLiability"`
	NextDeadline   time.Time     `json:"nextDeadline"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// Service derives tax reports from the posted ledger. Per-transaction math
// is delegated to the pure calculators; the service only fetches and sums.
type Service struct {
	gw  ledger.Gateway
	log *slog.Logger
	now func() time.Time
}

// NewService constructs the tax service.
func NewService(gw ledger.Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gw: gw, log: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// MonthlyPPh21 aggregates employee income tax over salary transactions for
// the month.
func (s *Service) MonthlyPPh21(ctx context.Context, p MonthlyParams) (MonthlyReport, error) {
	lines, err := s.monthLines(ctx, p, ledger.LineFilter{
		SubTypes: []string{ledger.SubTypeAdminSalary, ledger.SubTypeLaborCost},
	})
	if err != nil {
		return MonthlyReport{}, err
	}
	report := s.newMonthlyReport("PPh21", p, pph21DueDay)
	for _, ln := range lines {
		gross := ln.DebitAmount
		if gross == 0 {
			continue
		}
		report.TotalGross += gross
		report.TotalTax += PPh21(gross)
		report.TransactionCount++
	}
	report.TotalNet = report.TotalGross - report.TotalTax
	return report, nil
}

// MonthlyPPh23 aggregates withholding tax over service transactions for the
// month.
func (s *Service) MonthlyPPh23(ctx context.Context, p MonthlyParams) (MonthlyReport, error) {
	lines, err := s.monthLines(ctx, p, ledger.LineFilter{
		SubTypes: []string{ledger.SubTypeSubcontractorCost, ledger.SubTypeEquipmentCost, ledger.SubTypeProfessionalService},
	})
	if err != nil {
		return MonthlyReport{}, err
	}
	report := s.newMonthlyReport("PPh23", p, pph23DueDay)
	for _, ln := range lines {
		gross := ln.DebitAmount
		if gross == 0 {
			continue
		}
		report.TotalGross += gross
		report.TotalTax += PPh23(gross, ln.Account.SubType)
		report.TransactionCount++
	}
	report.TotalNet = report.TotalGross - report.TotalTax
	return report, nil
}

// MonthlyPPN aggregates VAT over VAT-applicable transactions for the month,
// split into output (revenue side) and input.
func (s *Service) MonthlyPPN(ctx context.Context, p MonthlyParams) (PPNReport, error) {
	lines, err := s.monthLines(ctx, p, ledger.LineFilter{})
	if err != nil {
		return PPNReport{}, err
	}
	report := PPNReport{MonthlyReport: s.newMonthlyReport("PPN", p, ppnDueDay)}
	for _, ln := range lines {
		if !ln.Account.VATApplicable {
			continue
		}
		gross := ln.DebitAmount
		if ln.Account.Type == ledger.AccountTypeRevenue {
			gross = ln.CreditAmount
		}
		if gross == 0 {
			continue
		}
		amount, direction := PPN(gross, ln.Account.Type)
		report.TotalGross += gross
		report.TotalTax += amount
		report.TransactionCount++
		if direction == PPNOutput {
			report.OutputVAT += amount
		} else {
			report.InputVAT += amount
		}
	}
	report.TotalNet = report.TotalGross - report.TotalTax
	report.NetPayable = report.OutputVAT - report.InputVAT
	return report, nil
}

// ConstructionSummary builds all three monthly reports concurrently and
// composes the total liability and next compliance deadline.
func (s *Service) ConstructionSummary(ctx context.Context, p MonthlyParams) (ConstructionSummary, error) {
	var (
		pph21 MonthlyReport
		pph23 MonthlyReport
		ppn   PPNReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pph21, err = s.MonthlyPPh21(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		pph23, err = s.MonthlyPPh23(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		ppn, err = s.MonthlyPPN(gctx, p)
		return err
	})
	if err := g.Wait(); err != nil {
		return ConstructionSummary{}, err
	}

	summary := ConstructionSummary{
		Period:         periodLabel(p),
		PPh21:          pph21,
		PPh23:          pph23,
		PPN:            ppn,
		TotalLiability: pph21.TotalTax + pph23.TotalTax + ppn.NetPayable,
		NextDeadline:   pph21.DueDate,
		GeneratedAt:    s.now(),
	}
	if ppn.DueDate.Before(summary.NextDeadline) {
		summary.NextDeadline = ppn.DueDate
	}
	return summary, nil
}

func (s *Service) monthLines(ctx context.Context, p MonthlyParams, f ledger.LineFilter) ([]ledger.EntryLine, error) {
	from := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	f.From = &from
	f.To = &to
	f.SubsidiaryID = p.SubsidiaryID
	f.ProjectID = p.ProjectID
	return s.gw.FindPostedEntryLines(ctx, f)
}

func (s *Service) newMonthlyReport(taxType string, p MonthlyParams, dueDay int) MonthlyReport {
	due := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, dueDay-1)
	report := MonthlyReport{
		TaxType:     taxType,
		Period:      periodLabel(p),
		DueDate:     due,
		GeneratedAt: s.now(),
	}
	if remaining := int(due.Sub(s.now()).Hours() / 24); remaining > 0 {
		report.DaysRemaining = remaining
	}
	return report
}

func periodLabel(p MonthlyParams) string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
