package finance

import (
	"context"
	"math"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// IncomeStatementParams scope an income statement request.
type IncomeStatementParams struct {
	From         time.Time
	To           time.Time
	SubsidiaryID string
	ProjectID    string
}

// IncomeStatement reports construction P&L with margin ratios. Amounts are
// magnitudes; the normal-balance convention resolves signs before reporting.
type IncomeStatement struct {
	From              time.Time `json:"startDate"`
	To                time.Time `json:"endDate"`
	Revenue           float64   `json:"revenue"`
	DirectCosts       float64   `json:"directCosts"`
	IndirectCosts     float64   `json:"indirectCosts"`
	GrossProfit       float64   `json:"grossProfit"`
	NetIncome         float64   `json:"netIncome"`
	GrossProfitMargin float64   `json:"grossProfitMargin"`
	NetProfitMargin   float64   `json:"netProfitMargin"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// IncomeStatement aggregates revenue and cost sub-types into gross profit
// and net income for the period.
func (s *StatementService) IncomeStatement(ctx context.Context, p IncomeStatementParams) (IncomeStatement, error) {
	if p.To.Before(p.From) {
		return IncomeStatement{}, ErrInvalidPeriod
	}
	scope := BalanceScope{SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}

	revenue, err := s.periodGroupBalance(ctx, p.From, p.To, ledger.LineFilter{AccountType: ledger.AccountTypeRevenue}, ledger.NormalBalanceCredit, scope)
	if err != nil {
		return IncomeStatement{}, err
	}
	directCosts, err := s.periodGroupBalance(ctx, p.From, p.To, ledger.LineFilter{SubTypes: s.chart.DirectCostSubTypes}, ledger.NormalBalanceDebit, scope)
	if err != nil {
		return IncomeStatement{}, err
	}
	indirectCosts, err := s.periodGroupBalance(ctx, p.From, p.To, ledger.LineFilter{SubTypes: s.chart.IndirectCostSubTypes}, ledger.NormalBalanceDebit, scope)
	if err != nil {
		return IncomeStatement{}, err
	}

	report := IncomeStatement{
		From:          p.From,
		To:            p.To,
		Revenue:       math.Abs(revenue),
		DirectCosts:   math.Abs(directCosts),
		IndirectCosts: math.Abs(indirectCosts),
		GeneratedAt:   s.now(),
	}
	report.GrossProfit = report.Revenue - report.DirectCosts
	report.NetIncome = report.GrossProfit - report.IndirectCosts
	if report.Revenue != 0 {
		report.GrossProfitMargin = report.GrossProfit / report.Revenue * 100
		report.NetProfitMargin = report.NetIncome / report.Revenue * 100
	}
	return report, nil
}

// periodGroupBalance sums lines matching the filter within [from, to] and
// signs the total with the supplied normal side.
func (s *StatementService) periodGroupBalance(ctx context.Context, from, to time.Time, f ledger.LineFilter, normal ledger.NormalBalance, scope BalanceScope) (float64, error) {
	f.From = &from
	f.To = &to
	f.SubsidiaryID = scope.SubsidiaryID
	f.ProjectID = scope.ProjectID
	lines, err := s.gw.FindPostedEntryLines(ctx, f)
	if err != nil {
		ref := string(f.AccountType)
		if ref == "" && len(f.SubTypes) > 0 {
			ref = f.SubTypes[0]
		}
		return 0, &BalanceCalculationError{AccountRef: ref, Err: err}
	}
	return sumLines(lines, normal).Amount, nil
}

// asOfGroupBalance sums lines matching the filter up to asOf.
func (s *StatementService) asOfGroupBalance(ctx context.Context, asOf time.Time, f ledger.LineFilter, normal ledger.NormalBalance, scope BalanceScope) (float64, error) {
	f.AsOf = &asOf
	f.SubsidiaryID = scope.SubsidiaryID
	f.ProjectID = scope.ProjectID
	lines, err := s.gw.FindPostedEntryLines(ctx, f)
	if err != nil {
		ref := string(f.AccountType)
		if ref == "" && len(f.SubTypes) > 0 {
			ref = f.SubTypes[0]
		}
		return 0, &BalanceCalculationError{AccountRef: ref, Err: err}
	}
	return sumLines(lines, normal).Amount, nil
}
