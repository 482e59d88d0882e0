package compliance

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/nusantara-erp/nusantara-erp/internal/ledger"
)

// Audit flag types and severities. Flags are review heuristics, never hard
// validation failures; a flagged ledger still produces a full report.
const (
	FlagUnbalancedEntry = "UNBALANCED_ENTRY"
	FlagRoundNumber     = "ROUND_NUMBER"
	FlagBackdatedEntry  = "BACKDATED_ENTRY"

	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

const (
	roundNumberUnit   = 1_000_000
	backdateGraceDays = 7
)

// UserActivity aggregates journal activity per posting user.
type UserActivity struct {
	User         string    `json:"user"`
	EntryCount   int       `json:"entryCount"`
	TotalAmount  float64   `json:"totalAmount"`
	LastActivity time.Time `json:"lastActivity"`
}

// AccountActivity aggregates line movement per account.
type AccountActivity struct {
	AccountCode string  `json:"accountCode"`
	AccountName string  `json:"accountName"`
	LineCount   int     `json:"lineCount"`
	TotalDebit  float64 `json:"totalDebit"`
	TotalCredit float64 `json:"totalCredit"`
}

// DailyActivity aggregates entries per calendar day.
type DailyActivity struct {
	Date       string  `json:"date"`
	EntryCount int     `json:"entryCount"`
	Amount     float64 `json:"amount"`
}

// AuditFlag marks one suspicious entry for human review.
type AuditFlag struct {
	EntryID     int64  `json:"entryId"`
	EntryNumber string `json:"entryNumber"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Detail      string `json:"detail"`
}

// AuditTrailReport replays a period of journal activity into aggregates and
// review flags.
type AuditTrailReport struct {
	From        time.Time         `json:"startDate"`
	To          time.Time         `json:"endDate"`
	EntryCount  int               `json:"entryCount"`
	ByUser      []UserActivity    `json:"userActivity"`
	ByAccount   []AccountActivity `json:"accountActivity"`
	ByDay       []DailyActivity   `json:"dailyActivity"`
	Flags       []AuditFlag       `json:"flags"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// AuditTrail replays all posted entries in the period.
func (s *Service) AuditTrail(ctx context.Context, p ReportParams) (AuditTrailReport, error) {
	entries, err := s.gw.ListPostedEntries(ctx, ledger.EntryFilter{
		From:         &p.From,
		To:           &p.To,
		SubsidiaryID: p.SubsidiaryID,
		ProjectID:    p.ProjectID,
	})
	if err != nil {
		return AuditTrailReport{}, err
	}
	lines, err := s.gw.FindPostedEntryLines(ctx, ledger.LineFilter{
		From:         &p.From,
		To:           &p.To,
		SubsidiaryID: p.SubsidiaryID,
		ProjectID:    p.ProjectID,
	})
	if err != nil {
		return AuditTrailReport{}, err
	}

	report := AuditTrailReport{
		From:        p.From,
		To:          p.To,
		EntryCount:  len(entries),
		GeneratedAt: s.now(),
	}

	byUser := make(map[string]*UserActivity)
	byDay := make(map[string]*DailyActivity)
	for _, e := range entries {
		user := e.CreatedBy
		if e.PostedBy != "" {
			user = e.PostedBy
		}
		ua, ok := byUser[user]
		if !ok {
			ua = &UserActivity{User: user}
			byUser[user] = ua
		}
		ua.EntryCount++
		ua.TotalAmount += e.TotalDebit
		if e.EntryDate.After(ua.LastActivity) {
			ua.LastActivity = e.EntryDate
		}

		day := e.EntryDate.Format("2006-01-02")
		da, ok := byDay[day]
		if !ok {
			da = &DailyActivity{Date: day}
			byDay[day] = da
		}
		da.EntryCount++
		da.Amount += e.TotalDebit

		report.Flags = append(report.Flags, flagEntry(e)...)
	}

	byAccount := make(map[string]*AccountActivity)
	for _, ln := range lines {
		aa, ok := byAccount[ln.Account.Code]
		if !ok {
			aa = &AccountActivity{AccountCode: ln.Account.Code, AccountName: ln.Account.Name}
			byAccount[ln.Account.Code] = aa
		}
		aa.LineCount++
		aa.TotalDebit += ln.DebitAmount
		aa.TotalCredit += ln.CreditAmount
	}

	for _, ua := range byUser {
		report.ByUser = append(report.ByUser, *ua)
	}
	sort.Slice(report.ByUser, func(i, j int) bool { return report.ByUser[i].User < report.ByUser[j].User })
	for _, aa := range byAccount {
		report.ByAccount = append(report.ByAccount, *aa)
	}
	sort.Slice(report.ByAccount, func(i, j int) bool { return report.ByAccount[i].AccountCode < report.ByAccount[j].AccountCode })
	for _, da := range byDay {
		report.ByDay = append(report.ByDay, *da)
	}
	sort.Slice(report.ByDay, func(i, j int) bool { return report.ByDay[i].Date < report.ByDay[j].Date })

	return report, nil
}

func flagEntry(e ledger.JournalEntry) []AuditFlag {
	var flags []AuditFlag
	if math.Abs(e.TotalDebit-e.TotalCredit) > entryBalanceTolerance {
		flags = append(flags, AuditFlag{
			EntryID:     e.ID,
			EntryNumber: e.EntryNumber,
			Type:        FlagUnbalancedEntry,
			Severity:    SeverityHigh,
			Detail:      "entry debit and credit totals differ",
		})
	}
	if e.TotalDebit > 0 && math.Mod(e.TotalDebit, roundNumberUnit) == 0 {
		flags = append(flags, AuditFlag{
			EntryID:     e.ID,
			EntryNumber: e.EntryNumber,
			Type:        FlagRoundNumber,
			Severity:    SeverityLow,
			Detail:      "entry total is an exact multiple of 1,000,000",
		})
	}
	if e.CreatedAt.Sub(e.EntryDate) > backdateGraceDays*24*time.Hour {
		flags = append(flags, AuditFlag{
			EntryID:     e.ID,
			EntryNumber: e.EntryNumber,
			Type:        FlagBackdatedEntry,
			Severity:    SeverityMedium,
			Detail:      "entry date precedes its creation by more than seven days",
		})
	}
	return flags
}
