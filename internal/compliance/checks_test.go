package compliance

import (
	"testing"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

func balancedEntry(number string, date time.Time, amount float64) ledger.JournalEntry {
	return ledger.JournalEntry{
		EntryNumber: number,
		EntryDate:   date,
		Description: "progress billing period 03",
		Status:      ledger.EntryStatusPosted,
		TotalDebit:  amount,
		TotalCredit: amount,
		CreatedAt:   date,
	}
}

func unbalancedEntry(number string, date time.Time) ledger.JournalEntry {
	e := balancedEntry(number, date, 500_000)
	e.TotalCredit = 400_000
	return e
}

func marchDay(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestCheckDoubleEntryPenalty(t *testing.T) {
	clean := []ledger.JournalEntry{
		balancedEntry("JE-001", marchDay(1), 100_000),
		balancedEntry("JE-002", marchDay(2), 200_000),
	}
	result := checkDoubleEntry(clean)
	if !result.Passed || result.Score != 100 {
		t.Fatalf("clean ledger: passed=%v score=%v, want true/100", result.Passed, result.Score)
	}

	one := append(append([]ledger.JournalEntry(nil), clean...), unbalancedEntry("JE-003", marchDay(3)))
	r1 := checkDoubleEntry(one)
	if r1.Passed || r1.Score != 90 {
		t.Fatalf("one unbalanced: passed=%v score=%v, want false/90", r1.Passed, r1.Score)
	}

	two := append(append([]ledger.JournalEntry(nil), one...), unbalancedEntry("JE-004", marchDay(4)))
	r2 := checkDoubleEntry(two)
	if r2.Score != 80 {
		t.Fatalf("two unbalanced: score=%v, want 80", r2.Score)
	}
	if r2.Score >= r1.Score {
		t.Fatalf("score must decrease with each unbalanced entry: %v then %v", r1.Score, r2.Score)
	}
}

func TestCheckDoubleEntryScoreFloorsAtZero(t *testing.T) {
	var entries []ledger.JournalEntry
	for i := 0; i < 12; i++ {
		entries = append(entries, unbalancedEntry("JE", marchDay(1+i)))
	}
	result := checkDoubleEntry(entries)
	if result.Score != 0 {
		t.Fatalf("score = %v, want floor at 0", result.Score)
	}
}

func TestCheckAccountClassification(t *testing.T) {
	var accounts []ledger.Account
	for _, at := range ledger.AccountTypes {
		accounts = append(accounts, ledger.Account{Type: at})
	}
	full := checkAccountClassification(accounts)
	if !full.Passed || full.Score != 100 {
		t.Fatalf("full chart: passed=%v score=%v", full.Passed, full.Score)
	}

	partial := checkAccountClassification(accounts[:3])
	if partial.Passed {
		t.Fatalf("expected failure with missing account types")
	}
	if partial.Score != 60 {
		t.Fatalf("score = %v, want 60 with 3 of 5 types", partial.Score)
	}
}

func TestCheckDocumentationThreshold(t *testing.T) {
	documented := balancedEntry("JE-001", marchDay(1), 100_000)
	bare := balancedEntry("JE-002", marchDay(2), 100_000)
	bare.Description = "adj"

	pass := checkDocumentation([]ledger.JournalEntry{documented, documented, documented, documented, documented, documented, documented, documented, documented, bare})
	if !pass.Passed || pass.Score != 90 {
		t.Fatalf("90%% documented: passed=%v score=%v", pass.Passed, pass.Score)
	}

	fail := checkDocumentation([]ledger.JournalEntry{documented, bare})
	if fail.Passed {
		t.Fatalf("expected failure at 50%% documented")
	}
}

func TestCheckChronologicalOrder(t *testing.T) {
	ordered := []ledger.JournalEntry{
		balancedEntry("JE-001", marchDay(1), 100_000),
		balancedEntry("JE-002", marchDay(5), 100_000),
		balancedEntry("JE-003", marchDay(9), 100_000),
	}
	if r := checkChronologicalOrder(ordered); !r.Passed || r.Score != 100 {
		t.Fatalf("ordered entries: passed=%v score=%v", r.Passed, r.Score)
	}

	shuffled := []ledger.JournalEntry{
		balancedEntry("JE-001", marchDay(9), 100_000),
		balancedEntry("JE-002", marchDay(1), 100_000),
		balancedEntry("JE-003", marchDay(5), 100_000),
	}
	r := checkChronologicalOrder(shuffled)
	if r.Passed {
		t.Fatalf("expected failure with entry numbers out of date order, score=%v", r.Score)
	}
}

func TestCheckChronologicalOrderMixedWidthNumbers(t *testing.T) {
	entries := []ledger.JournalEntry{
		balancedEntry("JE-9", marchDay(9), 100_000),
		balancedEntry("JE-10", marchDay(10), 100_000),
		balancedEntry("JE-11", marchDay(11), 100_000),
	}
	if r := checkChronologicalOrder(entries); !r.Passed || r.Score != 100 {
		t.Fatalf("unpadded entry numbers: passed=%v score=%v, want true/100", r.Passed, r.Score)
	}
}

func TestCheckPeriodContainment(t *testing.T) {
	entries := []ledger.JournalEntry{
		balancedEntry("JE-001", marchDay(1), 100_000),
		balancedEntry("JE-002", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC), 100_000),
	}
	r := checkPeriodContainment(entries, marchDay(1), marchDay(31))
	if r.Passed {
		t.Fatalf("expected failure with an entry outside the period")
	}
	if r.Score != 50 {
		t.Fatalf("score = %v, want 50", r.Score)
	}
}

func TestCheckCurrencyConsistencyAlwaysPasses(t *testing.T) {
	r := checkCurrencyConsistency()
	if !r.Passed || r.Score != 100 {
		t.Fatalf("currency check: passed=%v score=%v, want true/100", r.Passed, r.Score)
	}
}

func TestCheckConstructionAllocation(t *testing.T) {
	tagged := balancedEntry("JE-001", marchDay(1), 100_000)
	tagged.ProjectID = "PRJ-007"
	untagged := balancedEntry("JE-002", marchDay(2), 100_000)

	if r := checkConstructionAllocation([]ledger.JournalEntry{tagged, tagged}); !r.Passed {
		t.Fatalf("all tagged: expected pass, score=%v", r.Score)
	}
	if r := checkConstructionAllocation([]ledger.JournalEntry{tagged, untagged}); r.Passed {
		t.Fatalf("half tagged: expected failure, score=%v", r.Score)
	}
	if r := checkConstructionAllocation(nil); !r.Passed || r.Score != 100 {
		t.Fatalf("no project cost entries: passed=%v score=%v, want true/100", r.Passed, r.Score)
	}
}

func TestChecksAreIdempotent(t *testing.T) {
	entries := []ledger.JournalEntry{
		balancedEntry("JE-001", marchDay(1), 100_000),
		unbalancedEntry("JE-002", marchDay(2)),
	}
	first := checkDoubleEntry(entries)
	second := checkDoubleEntry(entries)
	if first != second {
		t.Fatalf("repeated checks differ: %+v vs %+v", first, second)
	}
}
