package finance

import (
	"context"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// CashFlowMethod selects the PSAK 2 presentation of operating cash flow.
type CashFlowMethod string

const (
	MethodDirect   CashFlowMethod = "direct"
	MethodIndirect CashFlowMethod = "indirect"
)

// cashReconcileTolerance is deliberately looser than the statement
// tolerance: opening/closing cash come from separate best-effort queries.
const cashReconcileTolerance = 1.0

// CashFlowParams scope a cash flow statement request.
type CashFlowParams struct {
	From         time.Time
	To           time.Time
	Method       CashFlowMethod
	SubsidiaryID string
	ProjectID    string
}

// StubAmount marks a component that is structurally part of the statement
// but cannot be derived yet from the chart. It reports zero explicitly
// rather than omitting the line.
type StubAmount struct {
	Amount    float64 `json:"amount"`
	Available bool    `json:"available"`
	Note      string  `json:"note,omitempty"`
}

// OperatingDirect itemises receipts and payments.
type OperatingDirect struct {
	CustomerReceipts  float64 `json:"customerReceipts"`
	SupplierPayments  float64 `json:"supplierPayments"`
	EmployeePayments  float64 `json:"employeePayments"`
	OperatingExpenses float64 `json:"operatingExpenses"`
}

// OperatingIndirect reconciles net income to operating cash.
type OperatingIndirect struct {
	NetIncome            float64    `json:"netIncome"`
	Depreciation         StubAmount `json:"depreciation"`
	Amortization         StubAmount `json:"amortization"`
	WorkingCapitalChange float64    `json:"workingCapitalChange"`
}

// OperatingSection carries whichever presentation was requested.
type OperatingSection struct {
	Method   CashFlowMethod     `json:"method"`
	Direct   *OperatingDirect   `json:"direct,omitempty"`
	Indirect *OperatingIndirect `json:"indirect,omitempty"`
	Total    float64            `json:"total"`
}

// InvestingSection nets asset sales against purchases.
type InvestingSection struct {
	AssetSales     float64 `json:"assetSales"`
	AssetPurchases float64 `json:"assetPurchases"`
	Total          float64 `json:"total"`
}

// FinancingSection nets debt and equity movements.
type FinancingSection struct {
	DebtProceeds        float64 `json:"debtProceeds"`
	EquityContributions float64 `json:"equityContributions"`
	DebtPayments        float64 `json:"debtPayments"`
	DividendPayments    float64 `json:"dividendPayments"`
	Total               float64 `json:"total"`
}

// CashFlowStatement is the PSAK 2 report payload.
type CashFlowStatement struct {
	From               time.Time        `json:"startDate"`
	To                 time.Time        `json:"endDate"`
	Method             CashFlowMethod   `json:"method"`
	Operating          OperatingSection `json:"operating"`
	Investing          InvestingSection `json:"investing"`
	Financing          FinancingSection `json:"financing"`
	NetCashFlow        float64          `json:"netCashFlow"`
	OpeningCash        float64          `json:"openingCash"`
	ClosingCash        float64          `json:"closingCash"`
	IsReconciled       bool             `json:"isReconciled"`
	OperatingCashRatio float64          `json:"operatingCashRatio"`
	CashCoverageRatio  float64          `json:"cashCoverageRatio"`
	GeneratedAt        time.Time        `json:"generatedAt"`
}

// CashFlowService derives the cash flow statement from the posted ledger.
type CashFlowService struct {
	gw         ledger.Gateway
	agg        *Aggregator
	chart      StatementChart
	statements *StatementService
	log        *slog.Logger
	now        func() time.Time
}

// NewCashFlowService constructs the cash flow service. The statement service
// supplies net income for the indirect method.
func NewCashFlowService(gw ledger.Gateway, chart StatementChart, statements *StatementService, logger *slog.Logger) *CashFlowService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CashFlowService{
		gw:         gw,
		agg:        NewAggregator(gw),
		chart:      chart,
		statements: statements,
		log:        logger,
		now:        time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *CashFlowService) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Build assembles the statement. Operating, investing, and financing are
// independent reads fanned out concurrently and joined all-or-fail: a
// failure in any section aborts the statement. Opening and closing cash are
// best-effort; a missing cash account must not abort the whole report, so
// lookup failures there default to zero with a logged cause.
func (s *CashFlowService) Build(ctx context.Context, p CashFlowParams) (CashFlowStatement, error) {
	if p.Method == "" {
		p.Method = MethodIndirect
	}
	if p.Method != MethodDirect && p.Method != MethodIndirect {
		return CashFlowStatement{}, ErrUnknownMethod
	}
	if p.To.Before(p.From) {
		return CashFlowStatement{}, ErrInvalidPeriod
	}
	scope := BalanceScope{SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}

	var (
		operating OperatingSection
		investing InvestingSection
		financing FinancingSection
		opening   float64
		closing   float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		operating, err = s.operatingSection(gctx, p, scope)
		return err
	})
	g.Go(func() error {
		var err error
		investing, err = s.investingSection(gctx, p, scope)
		return err
	})
	g.Go(func() error {
		var err error
		financing, err = s.financingSection(gctx, p, scope)
		return err
	})
	g.Go(func() error {
		opening = s.cashBalanceOrZero(gctx, p.From.AddDate(0, 0, -1), scope, "opening")
		closing = s.cashBalanceOrZero(gctx, p.To, scope, "closing")
		return nil
	})
	if err := g.Wait(); err != nil {
		return CashFlowStatement{}, err
	}

	report := CashFlowStatement{
		From:        p.From,
		To:          p.To,
		Method:      p.Method,
		Operating:   operating,
		Investing:   investing,
		Financing:   financing,
		OpeningCash: opening,
		ClosingCash: closing,
		GeneratedAt: s.now(),
	}
	report.NetCashFlow = operating.Total + investing.Total + financing.Total
	report.IsReconciled = math.Abs(report.OpeningCash+report.NetCashFlow-report.ClosingCash) < cashReconcileTolerance
	report.OperatingCashRatio = operating.Total / or1(math.Abs(report.NetCashFlow))
	report.CashCoverageRatio = report.ClosingCash / or1(math.Abs(operating.Total))
	return report, nil
}

func (s *CashFlowService) operatingSection(ctx context.Context, p CashFlowParams, scope BalanceScope) (OperatingSection, error) {
	if p.Method == MethodDirect {
		return s.operatingDirect(ctx, p, scope)
	}
	return s.operatingIndirect(ctx, p, scope)
}

func (s *CashFlowService) operatingDirect(ctx context.Context, p CashFlowParams, scope BalanceScope) (OperatingSection, error) {
	receipts, err := s.bucketMovement(ctx, s.chart.CustomerReceipts, p.From, p.To, scope)
	if err != nil {
		return OperatingSection{}, err
	}
	suppliers, err := s.bucketMovement(ctx, s.chart.SupplierPayments, p.From, p.To, scope)
	if err != nil {
		return OperatingSection{}, err
	}
	employees, err := s.bucketMovement(ctx, s.chart.EmployeePayments, p.From, p.To, scope)
	if err != nil {
		return OperatingSection{}, err
	}
	opex, err := s.bucketMovement(ctx, s.chart.OperatingExpenses, p.From, p.To, scope)
	if err != nil {
		return OperatingSection{}, err
	}
	direct := OperatingDirect{
		CustomerReceipts:  receipts,
		SupplierPayments:  suppliers,
		EmployeePayments:  employees,
		OperatingExpenses: opex,
	}
	return OperatingSection{
		Method: MethodDirect,
		Direct: &direct,
		Total:  receipts - suppliers - employees - opex,
	}, nil
}

func (s *CashFlowService) operatingIndirect(ctx context.Context, p CashFlowParams, scope BalanceScope) (OperatingSection, error) {
	netIncome := s.netIncomeOrZero(ctx, p, scope)
	wc, err := s.workingCapitalChange(ctx, p, scope)
	if err != nil {
		return OperatingSection{}, err
	}
	indirect := OperatingIndirect{
		NetIncome: netIncome,
		Depreciation: StubAmount{
			Available: false,
			Note:      "depreciation accounts not yet provisioned in the chart",
		},
		Amortization: StubAmount{
			Available: false,
			Note:      "amortization accounts not yet provisioned in the chart",
		},
		WorkingCapitalChange: wc,
	}
	return OperatingSection{
		Method:   MethodIndirect,
		Indirect: &indirect,
		Total:    netIncome + indirect.Depreciation.Amount + indirect.Amortization.Amount + wc,
	}, nil
}

func (s *CashFlowService) investingSection(ctx context.Context, p CashFlowParams, scope BalanceScope) (InvestingSection, error) {
	sales, err := s.bucketMovement(ctx, s.chart.AssetSales, p.From, p.To, scope)
	if err != nil {
		return InvestingSection{}, err
	}
	purchases, err := s.bucketMovement(ctx, s.chart.AssetPurchases, p.From, p.To, scope)
	if err != nil {
		return InvestingSection{}, err
	}
	return InvestingSection{
		AssetSales:     sales,
		AssetPurchases: purchases,
		Total:          sales - purchases,
	}, nil
}

func (s *CashFlowService) financingSection(ctx context.Context, p CashFlowParams, scope BalanceScope) (FinancingSection, error) {
	proceeds, err := s.bucketMovement(ctx, s.chart.DebtProceeds, p.From, p.To, scope)
	if err != nil {
		return FinancingSection{}, err
	}
	contributions, err := s.bucketMovement(ctx, s.chart.EquityContributions, p.From, p.To, scope)
	if err != nil {
		return FinancingSection{}, err
	}
	debtPayments, err := s.bucketMovement(ctx, s.chart.DebtPayments, p.From, p.To, scope)
	if err != nil {
		return FinancingSection{}, err
	}
	dividends, err := s.bucketMovement(ctx, s.chart.DividendPayments, p.From, p.To, scope)
	if err != nil {
		return FinancingSection{}, err
	}
	return FinancingSection{
		DebtProceeds:        proceeds,
		EquityContributions: contributions,
		DebtPayments:        debtPayments,
		DividendPayments:    dividends,
		Total:               proceeds + contributions - debtPayments - dividends,
	}, nil
}

// bucketMovement sums one side of a bucket's lines within the period.
func (s *CashFlowService) bucketMovement(ctx context.Context, b Bucket, from, to time.Time, scope BalanceScope) (float64, error) {
	mov, err := s.agg.RangeMovement(ctx, b.Codes, from, to, scope)
	if err != nil {
		return 0, err
	}
	if b.Side == ledger.NormalBalanceCredit {
		return mov.TotalCredits, nil
	}
	return mov.TotalDebits, nil
}

// workingCapitalChange compares non-cash working capital at the period
// bounds. An increase in working capital consumes cash.
func (s *CashFlowService) workingCapitalChange(ctx context.Context, p CashFlowParams, scope BalanceScope) (float64, error) {
	openWC, err := s.workingCapitalAt(ctx, p.From.AddDate(0, 0, -1), scope)
	if err != nil {
		return 0, err
	}
	closeWC, err := s.workingCapitalAt(ctx, p.To, scope)
	if err != nil {
		return 0, err
	}
	return -(closeWC - openWC), nil
}

func (s *CashFlowService) workingCapitalAt(ctx context.Context, asOf time.Time, scope BalanceScope) (float64, error) {
	assets, err := s.statements.asOfGroupBalance(ctx, asOf, ledger.LineFilter{SubTypes: s.chart.CurrentAssetSubTypes}, ledger.NormalBalanceDebit, scope)
	if err != nil {
		return 0, err
	}
	cash, err := s.agg.BalanceOfCodes(ctx, s.chart.CashCodes, ledger.NormalBalanceDebit, asOf, scope)
	if err != nil {
		return 0, err
	}
	liabilities, err := s.statements.asOfGroupBalance(ctx, asOf, ledger.LineFilter{SubTypes: s.chart.CurrentLiabilitySubTypes}, ledger.NormalBalanceCredit, scope)
	if err != nil {
		return 0, err
	}
	return assets - cash.Amount - liabilities, nil
}

// netIncomeOrZero is a best-effort enrichment: a failed income statement
// must not abort the whole cash flow report.
func (s *CashFlowService) netIncomeOrZero(ctx context.Context, p CashFlowParams, scope BalanceScope) float64 {
	is, err := s.statements.IncomeStatement(ctx, IncomeStatementParams{
		From:         p.From,
		To:           p.To,
		SubsidiaryID: scope.SubsidiaryID,
		ProjectID:    scope.ProjectID,
	})
	if err != nil {
		s.log.Warn("cash flow net income fallback", slog.Any("error", err))
		return 0
	}
	return is.NetIncome
}

func (s *CashFlowService) cashBalanceOrZero(ctx context.Context, asOf time.Time, scope BalanceScope, which string) float64 {
	bal, err := s.agg.BalanceOfCodes(ctx, s.chart.CashCodes, ledger.NormalBalanceDebit, asOf, scope)
	if err != nil {
		s.log.Warn("cash balance fallback", slog.String("which", which), slog.Any("error", err))
		return 0
	}
	return bal.Amount
}

func or1(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
