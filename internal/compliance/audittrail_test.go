package compliance

import (
	"context"
	"testing"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

func TestAuditTrailAggregatesActivity(t *testing.T) {
	budi := balancedEntry("JE-001", marchDay(3), 500_000)
	budi.ID = 1
	budi.PostedBy = "budi"
	sari := balancedEntry("JE-002", marchDay(3), 300_000)
	sari.ID = 2
	sari.PostedBy = "sari"
	sariAgain := balancedEntry("JE-003", marchDay(15), 200_000)
	sariAgain.ID = 3
	sariAgain.PostedBy = "sari"

	cash := ledger.Account{Code: "1101", Name: "Kas", Type: ledger.AccountTypeAsset, NormalBalance: ledger.NormalBalanceDebit}
	gw := &stubGateway{
		entries: []ledger.JournalEntry{budi, sari, sariAgain},
		lines: []ledger.EntryLine{
			{DebitAmount: 500_000, Entry: budi, Account: cash},
			{CreditAmount: 300_000, Entry: sari, Account: cash},
		},
	}
	svc := NewService(gw, nil, nil)

	report, err := svc.AuditTrail(context.Background(), marchParams())
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	if report.EntryCount != 3 {
		t.Fatalf("EntryCount = %d, want 3", report.EntryCount)
	}
	if got, want := len(report.ByUser), 2; got != want {
		t.Fatalf("expected %d users, got %d", want, got)
	}
	// Sorted by user name: budi before sari.
	if report.ByUser[0].User != "budi" || report.ByUser[0].EntryCount != 1 {
		t.Fatalf("first user = %+v, want budi with 1 entry", report.ByUser[0])
	}
	if report.ByUser[1].User != "sari" || report.ByUser[1].EntryCount != 2 {
		t.Fatalf("second user = %+v, want sari with 2 entries", report.ByUser[1])
	}
	if !report.ByUser[1].LastActivity.Equal(marchDay(15)) {
		t.Fatalf("sari last activity = %v, want March 15", report.ByUser[1].LastActivity)
	}
	if got, want := len(report.ByAccount), 1; got != want {
		t.Fatalf("expected %d accounts, got %d", want, got)
	}
	if acc := report.ByAccount[0]; acc.TotalDebit != 500_000 || acc.TotalCredit != 300_000 || acc.LineCount != 2 {
		t.Fatalf("account activity = %+v", acc)
	}
	if got, want := len(report.ByDay), 2; got != want {
		t.Fatalf("expected %d days, got %d", want, got)
	}
	if report.ByDay[0].Date != "2024-03-03" || report.ByDay[0].EntryCount != 2 {
		t.Fatalf("first day = %+v, want 2024-03-03 with 2 entries", report.ByDay[0])
	}
}

func TestAuditTrailFlagsUnbalancedEntry(t *testing.T) {
	e := unbalancedEntry("JE-009", marchDay(9))
	e.ID = 9
	gw := &stubGateway{entries: []ledger.JournalEntry{e}}
	svc := NewService(gw, nil, nil)

	report, err := svc.AuditTrail(context.Background(), marchParams())
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	if !hasFlag(report.Flags, FlagUnbalancedEntry, SeverityHigh) {
		t.Fatalf("expected HIGH unbalanced flag, got %+v", report.Flags)
	}
}

func TestAuditTrailFlagsRoundNumbers(t *testing.T) {
	round := balancedEntry("JE-010", marchDay(10), 2_000_000)
	notRound := balancedEntry("JE-011", marchDay(11), 2_350_000)
	gw := &stubGateway{entries: []ledger.JournalEntry{round, notRound}}
	svc := NewService(gw, nil, nil)

	report, err := svc.AuditTrail(context.Background(), marchParams())
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	count := 0
	for _, f := range report.Flags {
		if f.Type == FlagRoundNumber {
			count++
			if f.Severity != SeverityLow {
				t.Fatalf("round number severity = %q, want LOW", f.Severity)
			}
			if f.EntryNumber != "JE-010" {
				t.Fatalf("flagged entry = %q, want JE-010", f.EntryNumber)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one round number flag, got %d", count)
	}
}

func TestAuditTrailFlagsBackdatedEntry(t *testing.T) {
	backdated := balancedEntry("JE-012", marchDay(1), 750_000)
	backdated.CreatedAt = marchDay(12) // eleven days after the entry date
	recent := balancedEntry("JE-013", marchDay(10), 750_000)
	recent.CreatedAt = marchDay(13)
	gw := &stubGateway{entries: []ledger.JournalEntry{backdated, recent}}
	svc := NewService(gw, nil, nil)

	report, err := svc.AuditTrail(context.Background(), marchParams())
	if err != nil {
		t.Fatalf("AuditTrail() error = %v", err)
	}
	if !hasFlag(report.Flags, FlagBackdatedEntry, SeverityMedium) {
		t.Fatalf("expected MEDIUM backdated flag, got %+v", report.Flags)
	}
	for _, f := range report.Flags {
		if f.Type == FlagBackdatedEntry && f.EntryNumber == "JE-013" {
			t.Fatalf("entry within the grace window must not be flagged")
		}
	}
}

func hasFlag(flags []AuditFlag, flagType, severity string) bool {
	for _, f := range flags {
		if f.Type == flagType && f.Severity == severity {
			return true
		}
	}
	return false
}
