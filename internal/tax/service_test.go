package tax

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

type stubGateway struct {
	lines    []ledger.EntryLine
	linesErr error
}

func (s *stubGateway) FindAccounts(context.Context, ledger.AccountFilter) ([]ledger.Account, error) {
	return nil, nil
}

func (s *stubGateway) FindPostedEntryLines(_ context.Context, f ledger.LineFilter) ([]ledger.EntryLine, error) {
	if s.linesErr != nil {
		return nil, s.linesErr
	}
	var out []ledger.EntryLine
	for _, ln := range s.lines {
		if len(f.SubTypes) > 0 && !matchSubType(f.SubTypes, ln.Account.SubType) {
			continue
		}
		if f.From != nil && ln.Entry.EntryDate.Before(*f.From) {
			continue
		}
		if f.To != nil && ln.Entry.EntryDate.After(*f.To) {
			continue
		}
		out = append(out, ln)
	}
	return out, nil
}

func (s *stubGateway) ListPostedEntries(context.Context, ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	return nil, nil
}

func matchSubType(subTypes []string, v string) bool {
	for _, st := range subTypes {
		if st == v {
			return true
		}
	}
	return false
}

func costLine(subType string, date time.Time, debit float64) ledger.EntryLine {
	return ledger.EntryLine{
		DebitAmount: debit,
		Entry:       ledger.JournalEntry{EntryDate: date, Status: ledger.EntryStatusPosted},
		Account: ledger.Account{
			Type:          ledger.AccountTypeExpense,
			SubType:       subType,
			NormalBalance: ledger.NormalBalanceDebit,
		},
	}
}

func march(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyPPh21AggregatesSalaries(t *testing.T) {
	gw := &stubGateway{lines: []ledger.EntryLine{
		costLine(ledger.SubTypeAdminSalary, march(5), 5_000_000),
		costLine(ledger.SubTypeLaborCost, march(12), 4_500_000),
		costLine(ledger.SubTypeAdminSalary, march(28), 0),
		// Outside the month.
		costLine(ledger.SubTypeAdminSalary, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), 9_000_000),
	}}
	svc := NewService(gw, nil)
	svc.WithNow(func() time.Time { return march(31) })

	report, err := svc.MonthlyPPh21(context.Background(), MonthlyParams{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("MonthlyPPh21() error = %v", err)
	}
	if report.TotalGross != 9_500_000 {
		t.Fatalf("TotalGross = %v, want 9500000", report.TotalGross)
	}
	// Only the 5000000 salary exceeds the threshold: (5000000-4500000)*5%.
	if report.TotalTax != 25_000 {
		t.Fatalf("TotalTax = %v, want 25000", report.TotalTax)
	}
	if report.TotalNet != 9_475_000 {
		t.Fatalf("TotalNet = %v, want 9475000", report.TotalNet)
	}
	if report.TransactionCount != 2 {
		t.Fatalf("TransactionCount = %d, want 2", report.TransactionCount)
	}
	if want := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC); !report.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", report.DueDate, want)
	}
	if report.DaysRemaining != 10 {
		t.Fatalf("DaysRemaining = %d, want 10", report.DaysRemaining)
	}
}

func TestMonthlyPPh23RatesBySubType(t *testing.T) {
	gw := &stubGateway{lines: []ledger.EntryLine{
		costLine(ledger.SubTypeSubcontractorCost, march(4), 1_000_000),
		costLine(ledger.SubTypeProfessionalService, march(18), 1_000_000),
	}}
	svc := NewService(gw, nil)
	svc.WithNow(func() time.Time { return march(31) })

	report, err := svc.MonthlyPPh23(context.Background(), MonthlyParams{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("MonthlyPPh23() error = %v", err)
	}
	if report.TotalGross != 2_000_000 {
		t.Fatalf("TotalGross = %v, want 2000000", report.TotalGross)
	}
	// 2% on the subcontractor invoice plus 2.5% on professional services.
	if report.TotalTax != 45_000 {
		t.Fatalf("TotalTax = %v, want 45000", report.TotalTax)
	}
	if report.TransactionCount != 2 {
		t.Fatalf("TransactionCount = %d, want 2", report.TransactionCount)
	}
}

func TestMonthlyPPNSplitsOutputAndInput(t *testing.T) {
	revenue := ledger.EntryLine{
		CreditAmount: 1_000_000,
		Entry:        ledger.JournalEntry{EntryDate: march(7), Status: ledger.EntryStatusPosted},
		Account: ledger.Account{
			Type:          ledger.AccountTypeRevenue,
			NormalBalance: ledger.NormalBalanceCredit,
			VATApplicable: true,
		},
	}
	purchase := ledger.EntryLine{
		DebitAmount: 500_000,
		Entry:       ledger.JournalEntry{EntryDate: march(15), Status: ledger.EntryStatusPosted},
		Account: ledger.Account{
			Type:          ledger.AccountTypeExpense,
			NormalBalance: ledger.NormalBalanceDebit,
			VATApplicable: true,
		},
	}
	exempt := ledger.EntryLine{
		DebitAmount: 900_000,
		Entry:       ledger.JournalEntry{EntryDate: march(16), Status: ledger.EntryStatusPosted},
		Account: ledger.Account{
			Type:          ledger.AccountTypeExpense,
			NormalBalance: ledger.NormalBalanceDebit,
			VATApplicable: false,
		},
	}
	gw := &stubGateway{lines: []ledger.EntryLine{revenue, purchase, exempt}}
	svc := NewService(gw, nil)
	svc.WithNow(func() time.Time { return march(31) })

	report, err := svc.MonthlyPPN(context.Background(), MonthlyParams{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("MonthlyPPN() error = %v", err)
	}
	if report.OutputVAT != 110_000 {
		t.Fatalf("OutputVAT = %v, want 110000", report.OutputVAT)
	}
	if report.InputVAT != 55_000 {
		t.Fatalf("InputVAT = %v, want 55000", report.InputVAT)
	}
	if report.NetPayable != 55_000 {
		t.Fatalf("NetPayable = %v, want 55000", report.NetPayable)
	}
	if report.TransactionCount != 2 {
		t.Fatalf("TransactionCount = %d, want 2 (exempt line skipped)", report.TransactionCount)
	}
	if want := time.Date(2024, time.April, 25, 0, 0, 0, 0, time.UTC); !report.DueDate.Equal(want) {
		t.Fatalf("DueDate = %v, want %v", report.DueDate, want)
	}
}

func TestConstructionSummaryComposesLiability(t *testing.T) {
	salary := costLine(ledger.SubTypeAdminSalary, march(5), 5_000_000)
	subcontract := costLine(ledger.SubTypeSubcontractorCost, march(9), 1_000_000)
	vatRevenue := ledger.EntryLine{
		CreditAmount: 1_000_000,
		Entry:        ledger.JournalEntry{EntryDate: march(7), Status: ledger.EntryStatusPosted},
		Account: ledger.Account{
			Type:          ledger.AccountTypeRevenue,
			NormalBalance: ledger.NormalBalanceCredit,
			VATApplicable: true,
		},
	}
	gw := &stubGateway{lines: []ledger.EntryLine{salary, subcontract, vatRevenue}}
	svc := NewService(gw, nil)
	svc.WithNow(func() time.Time { return march(31) })

	summary, err := svc.ConstructionSummary(context.Background(), MonthlyParams{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("ConstructionSummary() error = %v", err)
	}
	if summary.Period != "2024-03" {
		t.Fatalf("Period = %q, want 2024-03", summary.Period)
	}
	// 25000 PPh21 + 20000 PPh23 + 110000 net PPN.
	if summary.TotalLiability != 155_000 {
		t.Fatalf("TotalLiability = %v, want 155000", summary.TotalLiability)
	}
	if want := time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC); !summary.NextDeadline.Equal(want) {
		t.Fatalf("NextDeadline = %v, want %v", summary.NextDeadline, want)
	}
}

func TestConstructionSummaryPropagatesFailure(t *testing.T) {
	gw := &stubGateway{linesErr: errors.New("connection reset")}
	svc := NewService(gw, nil)

	_, err := svc.ConstructionSummary(context.Background(), MonthlyParams{Year: 2024, Month: time.March})
	if err == nil {
		t.Fatalf("expected error from failed section")
	}
}
