package finance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// cashFlowFixture posts a billing receipt, a supplier payment, and an
// overhead payment inside March 2024. Closing cash works out to 600000 with
// no opening balance.
func cashFlowFixture() *stubGateway {
	cash := testAccount("1101", ledger.AccountTypeAsset, "CASH_AND_BANK", ledger.NormalBalanceDebit)
	revenue := testAccount("4001", ledger.AccountTypeRevenue, "", ledger.NormalBalanceCredit)
	payable := testAccount("2101", ledger.AccountTypeLiability, "ACCOUNTS_PAYABLE", ledger.NormalBalanceCredit)
	overhead := testAccount("6101", ledger.AccountTypeExpense, ledger.SubTypeAdminSalary, ledger.NormalBalanceDebit)
	return &stubGateway{lines: []ledger.EntryLine{
		testLine(cash, day(2024, time.March, 5), 1_000_000, 0),
		testLine(revenue, day(2024, time.March, 5), 0, 1_000_000),
		testLine(payable, day(2024, time.March, 12), 300_000, 0),
		testLine(cash, day(2024, time.March, 12), 0, 300_000),
		testLine(overhead, day(2024, time.March, 20), 100_000, 0),
		testLine(cash, day(2024, time.March, 20), 0, 100_000),
	}}
}

func newCashFlowService(gw ledger.Gateway) *CashFlowService {
	chart := DefaultStatementChart()
	statements := NewStatementService(gw, chart, nil)
	return NewCashFlowService(gw, chart, statements, nil)
}

func TestCashFlowDirectMethodReconciles(t *testing.T) {
	svc := newCashFlowService(cashFlowFixture())
	report, err := svc.Build(context.Background(), CashFlowParams{
		From:   day(2024, time.March, 1),
		To:     day(2024, time.March, 31),
		Method: MethodDirect,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	direct := report.Operating.Direct
	if direct == nil {
		t.Fatalf("expected direct section, got %+v", report.Operating)
	}
	if direct.CustomerReceipts != 1_000_000 {
		t.Fatalf("CustomerReceipts = %v, want 1000000", direct.CustomerReceipts)
	}
	if direct.SupplierPayments != 300_000 {
		t.Fatalf("SupplierPayments = %v, want 300000", direct.SupplierPayments)
	}
	if direct.OperatingExpenses != 100_000 {
		t.Fatalf("OperatingExpenses = %v, want 100000", direct.OperatingExpenses)
	}
	if report.Operating.Total != 600_000 {
		t.Fatalf("operating total = %v, want 600000", report.Operating.Total)
	}
	if report.NetCashFlow != 600_000 {
		t.Fatalf("NetCashFlow = %v, want 600000", report.NetCashFlow)
	}
	if report.OpeningCash != 0 || report.ClosingCash != 600_000 {
		t.Fatalf("cash bounds = %v/%v, want 0/600000", report.OpeningCash, report.ClosingCash)
	}
	if !report.IsReconciled {
		t.Fatalf("expected reconciled statement, gap %v", report.OpeningCash+report.NetCashFlow-report.ClosingCash)
	}
}

func TestCashFlowIndirectMethodMatchesDirectTotal(t *testing.T) {
	svc := newCashFlowService(cashFlowFixture())
	report, err := svc.Build(context.Background(), CashFlowParams{
		From:   day(2024, time.March, 1),
		To:     day(2024, time.March, 31),
		Method: MethodIndirect,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	indirect := report.Operating.Indirect
	if indirect == nil {
		t.Fatalf("expected indirect section, got %+v", report.Operating)
	}
	// Net income 900000 less the 300000 working capital release consumed by
	// paying down the supplier balance.
	if indirect.NetIncome != 900_000 {
		t.Fatalf("NetIncome = %v, want 900000", indirect.NetIncome)
	}
	if indirect.WorkingCapitalChange != -300_000 {
		t.Fatalf("WorkingCapitalChange = %v, want -300000", indirect.WorkingCapitalChange)
	}
	if indirect.Depreciation.Available || indirect.Amortization.Available {
		t.Fatalf("expected stubbed depreciation and amortization")
	}
	if report.Operating.Total != 600_000 {
		t.Fatalf("operating total = %v, want 600000", report.Operating.Total)
	}
	if !report.IsReconciled {
		t.Fatalf("expected reconciled statement")
	}
}

func TestCashFlowDefaultsToIndirect(t *testing.T) {
	svc := newCashFlowService(cashFlowFixture())
	report, err := svc.Build(context.Background(), CashFlowParams{
		From: day(2024, time.March, 1),
		To:   day(2024, time.March, 31),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report.Method != MethodIndirect {
		t.Fatalf("Method = %q, want indirect", report.Method)
	}
}

func TestCashFlowRejectsUnknownMethod(t *testing.T) {
	svc := newCashFlowService(cashFlowFixture())
	_, err := svc.Build(context.Background(), CashFlowParams{
		From:   day(2024, time.March, 1),
		To:     day(2024, time.March, 31),
		Method: "cash-basis",
	})
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestCashFlowReconciliationTolerance(t *testing.T) {
	gw := cashFlowFixture()
	// A sub-rupiah adjustment on the cash account that no section
	// classifies should not break reconciliation; the tolerance is one
	// rupiah.
	cash := testAccount("1101", ledger.AccountTypeAsset, "CASH_AND_BANK", ledger.NormalBalanceDebit)
	gw.lines = append(gw.lines, testLine(cash, day(2024, time.March, 25), 0, 0.5))

	svc := newCashFlowService(gw)
	report, err := svc.Build(context.Background(), CashFlowParams{
		From:   day(2024, time.March, 1),
		To:     day(2024, time.March, 31),
		Method: MethodDirect,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	gap := math.Abs(report.OpeningCash + report.NetCashFlow - report.ClosingCash)
	if gap >= 1 {
		t.Fatalf("gap = %v, expected under tolerance", gap)
	}
	if !report.IsReconciled {
		t.Fatalf("expected reconciliation to tolerate a %v gap", gap)
	}
}

func TestCashFlowFinancingSection(t *testing.T) {
	cash := testAccount("1101", ledger.AccountTypeAsset, "CASH_AND_BANK", ledger.NormalBalanceDebit)
	loan := testAccount("2201", ledger.AccountTypeLiability, "BANK_LOAN", ledger.NormalBalanceCredit)
	capital := testAccount("3101", ledger.AccountTypeEquity, "", ledger.NormalBalanceCredit)
	dividend := testAccount("3301", ledger.AccountTypeEquity, "", ledger.NormalBalanceDebit)
	gw := &stubGateway{lines: []ledger.EntryLine{
		// Loan drawdown.
		testLine(cash, day(2024, time.March, 3), 400_000, 0),
		testLine(loan, day(2024, time.March, 3), 0, 400_000),
		// Owner contribution.
		testLine(cash, day(2024, time.March, 6), 250_000, 0),
		testLine(capital, day(2024, time.March, 6), 0, 250_000),
		// Dividend payout.
		testLine(dividend, day(2024, time.March, 28), 50_000, 0),
		testLine(cash, day(2024, time.March, 28), 0, 50_000),
	}}

	svc := newCashFlowService(gw)
	report, err := svc.Build(context.Background(), CashFlowParams{
		From:   day(2024, time.March, 1),
		To:     day(2024, time.March, 31),
		Method: MethodDirect,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	fin := report.Financing
	if fin.DebtProceeds != 400_000 {
		t.Fatalf("DebtProceeds = %v, want 400000", fin.DebtProceeds)
	}
	if fin.EquityContributions != 250_000 {
		t.Fatalf("EquityContributions = %v, want 250000", fin.EquityContributions)
	}
	if fin.DividendPayments != 50_000 {
		t.Fatalf("DividendPayments = %v, want 50000", fin.DividendPayments)
	}
	if fin.Total != 600_000 {
		t.Fatalf("financing total = %v, want 600000", fin.Total)
	}
}
