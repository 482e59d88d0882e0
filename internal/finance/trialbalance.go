package finance

import (
	"context"
	"math"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// balanceTolerance is the currency-noise threshold shared by the trial
// balance and balance sheet reconciliation checks.
const balanceTolerance = 0.01

// TrialBalanceParams scope a trial balance request.
type TrialBalanceParams struct {
	AsOf            time.Time
	SubsidiaryID    string
	ProjectID       string
	IncludeInactive bool
}

// TrialBalanceRow is one account line with its balance split into debit and
// credit columns by the account's normal side.
type TrialBalanceRow struct {
	AccountCode   string               `json:"accountCode"`
	AccountName   string               `json:"accountName"`
	AccountType   ledger.AccountType   `json:"accountType"`
	NormalBalance ledger.NormalBalance `json:"normalBalance"`
	DebitBalance  float64              `json:"debitBalance"`
	CreditBalance float64              `json:"creditBalance"`
}

// TrialBalance is the full report payload.
type TrialBalance struct {
	AsOf         time.Time         `json:"asOfDate"`
	Rows         []TrialBalanceRow `json:"accounts"`
	TotalDebits  float64           `json:"totalDebits"`
	TotalCredits float64           `json:"totalCredits"`
	IsBalanced   bool              `json:"isBalanced"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}

// TrialBalance enumerates the chart of accounts, aggregates each balance as
// of the requested date, and verifies total debits equal total credits.
// Accounts whose absolute balance falls under the tolerance are dropped from
// the report, and the totals are computed from the filtered rows. Summing
// after filtering mirrors the established report output; whether totals
// should instead come from the unfiltered set is an open product question.
func (s *StatementService) TrialBalance(ctx context.Context, p TrialBalanceParams) (TrialBalance, error) {
	filter := ledger.AccountFilter{}
	if !p.IncludeInactive {
		active := true
		filter.IsActive = &active
	}
	accounts, err := s.gw.FindAccounts(ctx, filter)
	if err != nil {
		return TrialBalance{}, err
	}

	scope := BalanceScope{SubsidiaryID: p.SubsidiaryID, ProjectID: p.ProjectID}
	report := TrialBalance{AsOf: p.AsOf, GeneratedAt: s.now()}
	for _, acct := range accounts {
		bal, err := s.agg.BalanceOfAccount(ctx, acct, p.AsOf, scope)
		if err != nil {
			return TrialBalance{}, err
		}
		if math.Abs(bal.Amount) < balanceTolerance {
			continue
		}
		row := TrialBalanceRow{
			AccountCode:   acct.Code,
			AccountName:   acct.Name,
			AccountType:   acct.Type,
			NormalBalance: acct.NormalBalance,
		}
		if acct.NormalBalance == ledger.NormalBalanceDebit {
			row.DebitBalance = bal.Amount
		} else {
			row.CreditBalance = bal.Amount
		}
		report.Rows = append(report.Rows, row)
		report.TotalDebits += row.DebitBalance
		report.TotalCredits += row.CreditBalance
	}
	report.IsBalanced = math.Abs(report.TotalDebits-report.TotalCredits) < balanceTolerance
	return report, nil
}
