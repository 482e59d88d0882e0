package finance

import (
	"context"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// Balance holds the aggregated debit/credit totals for an account or a group
// of accounts, signed according to the normal-balance convention.
type Balance struct {
	TotalDebits   float64              `json:"totalDebits"`
	TotalCredits  float64              `json:"totalCredits"`
	Amount        float64              `json:"balance"`
	NormalBalance ledger.NormalBalance `json:"normalBalance"`
}

// BalanceScope narrows an aggregation to one subsidiary and/or project.
type BalanceScope struct {
	SubsidiaryID string
	ProjectID    string
}

// Aggregator computes signed balances over posted journal entry lines. It is
// stateless; every call issues a fresh gateway query.
type Aggregator struct {
	gw ledger.Gateway
}

// NewAggregator constructs an Aggregator over the given gateway.
func NewAggregator(gw ledger.Gateway) *Aggregator {
	return &Aggregator{gw: gw}
}

// BalanceOfAccount sums posted lines for one account up to and including
// asOf. The sign convention follows the account's normal balance: a
// debit-normal account reports debits minus credits, a credit-normal account
// the reverse. Using the wrong side would silently flip the statement sign.
func (a *Aggregator) BalanceOfAccount(ctx context.Context, acct ledger.Account, asOf time.Time, scope BalanceScope) (Balance, error) {
	return a.BalanceOfCodes(ctx, []string{acct.Code}, acct.NormalBalance, asOf, scope)
}

// BalanceOfCodes sums posted lines across a set of account codes up to and
// including asOf, signing the result with the supplied normal-balance side.
// The explicit side matters: the equity builder treats every component as
// credit-positive regardless of the stored account metadata.
func (a *Aggregator) BalanceOfCodes(ctx context.Context, codes []string, normal ledger.NormalBalance, asOf time.Time, scope BalanceScope) (Balance, error) {
	lines, err := a.gw.FindPostedEntryLines(ctx, ledger.LineFilter{
		AsOf:         &asOf,
		AccountCodes: codes,
		SubsidiaryID: scope.SubsidiaryID,
		ProjectID:    scope.ProjectID,
	})
	if err != nil {
		ref := ""
		if len(codes) > 0 {
			ref = codes[0]
		}
		return Balance{}, &BalanceCalculationError{AccountRef: ref, Err: err}
	}
	return sumLines(lines, normal), nil
}

// RangeMovement sums posted lines for a set of codes within [from, to] and
// returns the raw debit/credit totals. Cash flow buckets pick one side.
func (a *Aggregator) RangeMovement(ctx context.Context, codes []string, from, to time.Time, scope BalanceScope) (Balance, error) {
	lines, err := a.gw.FindPostedEntryLines(ctx, ledger.LineFilter{
		From:         &from,
		To:           &to,
		AccountCodes: codes,
		SubsidiaryID: scope.SubsidiaryID,
		ProjectID:    scope.ProjectID,
	})
	if err != nil {
		ref := ""
		if len(codes) > 0 {
			ref = codes[0]
		}
		return Balance{}, &BalanceCalculationError{AccountRef: ref, Err: err}
	}
	return sumLines(lines, ledger.NormalBalanceDebit), nil
}

func sumLines(lines []ledger.EntryLine, normal ledger.NormalBalance) Balance {
	b := Balance{NormalBalance: normal}
	for _, ln := range lines {
		b.TotalDebits += ln.DebitAmount
		b.TotalCredits += ln.CreditAmount
	}
	if normal == ledger.NormalBalanceCredit {
		b.Amount = b.TotalCredits - b.TotalDebits
	} else {
		b.Amount = b.TotalDebits - b.TotalCredits
	}
	return b
}
