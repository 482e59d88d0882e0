package finance

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// EquityChangesParams scope an equity changes statement request.
type EquityChangesParams struct {
	From         time.Time
	To           time.Time
	SubsidiaryID string
	ProjectID    string
}

// EquityComponent holds opening and closing balances for one equity bucket.
type EquityComponent struct {
	Opening float64 `json:"openingBalance"`
	Closing float64 `json:"closingBalance"`
	Change  float64 `json:"change"`
}

// EquityChangesStatement reconciles equity movement over the period.
type EquityChangesStatement struct {
	From             time.Time       `json:"startDate"`
	To               time.Time       `json:"endDate"`
	ShareCapital     EquityComponent `json:"shareCapital"`
	RetainedEarnings EquityComponent `json:"retainedEarnings"`
	AdditionalPaidIn EquityComponent `json:"additionalPaidInCapital"`
	OtherEquity      EquityComponent `json:"otherEquity"`
	OpeningEquity    float64         `json:"openingEquity"`
	ClosingEquity    float64         `json:"closingEquity"`
	NetIncome        float64         `json:"netIncome"`
	Contributions    float64         `json:"contributions"`
	Withdrawals      float64         `json:"withdrawals"`
	Dividends        float64         `json:"dividends"`
	OtherChanges     float64         `json:"otherChanges"`
	NetEquityChange  float64         `json:"netEquityChange"`
	ReturnOnEquity   float64         `json:"returnOnEquity"`
	EquityGrowthRate float64         `json:"equityGrowthRate"`
	EquityToAssets   float64         `json:"equityToAssetsRatio"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// EquityService builds the statement of changes in equity.
type EquityService struct {
	gw         ledger.Gateway
	agg        *Aggregator
	chart      StatementChart
	statements *StatementService
	log        *slog.Logger
	now        func() time.Time
}

// NewEquityService constructs the equity changes service.
func NewEquityService(gw ledger.Gateway, chart StatementChart, statements *StatementService, logger *slog.Logger) *EquityService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EquityService{
		gw:         gw,
		agg:        NewAggregator(gw),
		chart:      chart,
		statements: statements,
		log:        logger,
		now:        time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *EquityService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Build derives the equity changes statement. Component balances aggregate
// credit-positive regardless of the stored account metadata: contribution
// and distribution tracking requires the credit convention even for
// contra-equity accounts. Component lookups are best-effort; a historical
// data gap in one bucket defaults to zero rather than aborting the report.
func (s *EquityService) Build(ctx context.Context, p EquityChangesParams) (EquityChangesStatement, error) {
	if p.To.Before(p.From) {
		return EquityChangesStatement{}, ErrInvalidPeriod
	}
	scope := BalanceScope{SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}
	openingDate := p.From.AddDate(0, 0, -1)

	var (
		shareCapital     EquityComponent
		retainedEarnings EquityComponent
		additionalPaidIn EquityComponent
		otherEquity      EquityComponent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		shareCapital = s.component(gctx, s.chart.ShareCapitalCodes, openingDate, p.To, scope, "shareCapital")
		return nil
	})
	g.Go(func() error {
		retainedEarnings = s.component(gctx, s.chart.RetainedEarningsCodes, openingDate, p.To, scope, "retainedEarnings")
		return nil
	})
	g.Go(func() error {
		additionalPaidIn = s.component(gctx, s.chart.AdditionalPaidInCodes, openingDate, p.To, scope, "additionalPaidIn")
		return nil
	})
	g.Go(func() error {
		otherEquity = s.component(gctx, s.chart.OtherEquityCodes, openingDate, p.To, scope, "otherEquity")
		return nil
	})
	_ = g.Wait()

	report := EquityChangesStatement{
		From:             p.From,
		To:               p.To,
		ShareCapital:     shareCapital,
		RetainedEarnings: retainedEarnings,
		AdditionalPaidIn: additionalPaidIn,
		OtherEquity:      otherEquity,
		GeneratedAt:      s.now(),
	}
	report.OpeningEquity = shareCapital.Opening + retainedEarnings.Opening + additionalPaidIn.Opening + otherEquity.Opening
	report.ClosingEquity = shareCapital.Closing + retainedEarnings.Closing + additionalPaidIn.Closing + otherEquity.Closing

	report.NetIncome = s.netIncomeOrZero(ctx, p)
	report.Contributions = s.creditMovementOrZero(ctx, s.chart.ContributionCodes, p, scope, "contributions")
	report.Withdrawals = s.debitMovementOrZero(ctx, s.chart.WithdrawalCodes, p, scope, "withdrawals")
	report.Dividends = s.debitMovementOrZero(ctx, s.chart.DividendCodes, p, scope, "dividends")
	report.OtherChanges = otherEquity.Change
	report.NetEquityChange = (report.NetIncome + report.Contributions) - (report.Withdrawals + report.Dividends - report.OtherChanges)

	if avg := (report.OpeningEquity + report.ClosingEquity) / 2; avg != 0 {
		report.ReturnOnEquity = report.NetIncome / avg * 100
	}
	if report.OpeningEquity != 0 {
		report.EquityGrowthRate = (report.ClosingEquity - report.OpeningEquity) / report.OpeningEquity * 100
	}
	if bs, err := s.statements.BalanceSheet(ctx, BalanceSheetParams{AsOf: p.To, SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}); err != nil {
		s.log.Warn("equity-to-assets fallback", slog.Any("error", err))
	} else if bs.TotalAssets != 0 {
		report.EquityToAssets = report.ClosingEquity / bs.TotalAssets * 100
	}
	return report, nil
}

// component fetches opening and closing credit-positive balances for one
// bucket, defaulting each side to zero on lookup failure.
func (s *EquityService) component(ctx context.Context, codes []string, openingDate, closingDate time.Time, scope BalanceScope, name string) EquityComponent {
	c := EquityComponent{
		Opening: s.creditBalanceOrZero(ctx, codes, openingDate, scope, name+".opening"),
		Closing: s.creditBalanceOrZero(ctx, codes, closingDate, scope, name+".closing"),
	}
	c.Change = c.Closing - c.Opening
	return c
}

func (s *EquityService) creditBalanceOrZero(ctx context.Context, codes []string, asOf time.Time, scope BalanceScope, field string) float64 {
	bal, err := s.agg.BalanceOfCodes(ctx, codes, ledger.NormalBalanceCredit, asOf, scope)
	if err != nil {
		s.log.Warn("equity component fallback", slog.String("field", field), slog.Any("error", err))
		return 0
	}
	return bal.Amount
}

func (s *EquityService) creditMovementOrZero(ctx context.Context, codes []string, p EquityChangesParams, scope BalanceScope, field string) float64 {
	mov, err := s.agg.RangeMovement(ctx, codes, p.From, p.To, scope)
	if err != nil {
		s.log.Warn("equity movement fallback", slog.String("field", field), slog.Any("error", err))
		return 0
	}
	return mov.TotalCredits
}

func (s *EquityService) debitMovementOrZero(ctx context.Context, codes []string, p EquityChangesParams, scope BalanceScope, field string) float64 {
	mov, err := s.agg.RangeMovement(ctx, codes, p.From, p.To, scope)
	if err != nil {
		s.log.Warn("equity movement fallback", slog.String("field", field), slog.Any("error", err))
		return 0
	}
	return mov.TotalDebits
}

func (s *EquityService) netIncomeOrZero(ctx context.Context, p EquityChangesParams) float64 {
	is, err := s.statements.IncomeStatement(ctx, IncomeStatementParams{
		From:         p.From,
		To:           p.To,
		SubsidiaryID: p.SubsidiaryID,
		ProjectID:    p.ProjectID,
	})
	if err != nil {
		s.log.Warn("equity net income fallback", slog.Any("error", err))
		return 0
	}
	return is.NetIncome
}
