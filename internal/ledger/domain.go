package ledger

import (
	"errors"
	"time"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists every CoA category a complete chart must cover.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// NormalBalance enumerates the side on which an account increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// EntryStatus enumerates journal entry lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft    EntryStatus = "DRAFT"
	EntryStatusPosted   EntryStatus = "POSTED"
	EntryStatusReversed EntryStatus = "REVERSED"
)

// Construction cost sub-types used by the statement builders and tax
// calculators. The chart admin workflow assigns these; the engine only reads
// them.
const (
	SubTypeDirectCost          = "DIRECT_COST"
	SubTypeMaterialCost        = "MATERIAL_COST"
	SubTypeLaborCost           = "LABOR_COST"
	SubTypeSubcontractorCost   = "SUBCONTRACTOR_COST"
	SubTypeEquipmentCost       = "EQUIPMENT_COST"
	SubTypeIndirectCost        = "INDIRECT_COST"
	SubTypeAdminSalary         = "ADMIN_SALARY"
	SubTypeDepreciation        = "DEPRECIATION"
	SubTypeProfessionalService = "PROFESSIONAL_SERVICE"
)

// Account models a chart of accounts node. Maintained by an external admin
// workflow; read-only to the finance engine.
type Account struct {
	ID            int64
	Code          string
	Name          string
	Type          AccountType
	SubType       string
	NormalBalance NormalBalance
	Level         int
	ParentID      *int64
	IsActive      bool
	VATApplicable bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JournalEntry captures posting metadata. Only POSTED entries participate in
// reporting.
type JournalEntry struct {
	ID           int64
	EntryNumber  string
	EntryDate    time.Time
	Description  string
	Status       EntryStatus
	SubsidiaryID string
	ProjectID    string
	TotalDebit   float64
	TotalCredit  float64
	CreatedBy    string
	PostedBy     string
	PostedAt     *time.Time
	Reversed     bool
	CreatedAt    time.Time
}

// EntryLine stores the debit or credit amount for one account within an
// entry. Lines returned by the gateway embed their parent entry header and
// account so builders never issue follow-up lookups.
type EntryLine struct {
	ID           int64
	DebitAmount  float64
	CreditAmount float64
	Description  string
	Entry        JournalEntry
	Account      Account
}

// AccountFilter narrows FindAccounts results. Zero values mean "no filter".
type AccountFilter struct {
	Type     AccountType
	SubTypes []string
	Codes    []string
	IsActive *bool
}

// LineFilter narrows FindPostedEntryLines results. AsOf is an inclusive
// upper bound on the entry date; From/To bound a period. Zero values mean
// "no filter".
type LineFilter struct {
	AsOf         *time.Time
	From         *time.Time
	To           *time.Time
	AccountCodes []string
	AccountType  AccountType
	SubTypes     []string
	SubsidiaryID string
	ProjectID    string
}

// EntryFilter narrows ListPostedEntries results.
type EntryFilter struct {
	From         *time.Time
	To           *time.Time
	SubsidiaryID string
	ProjectID    string
}

var (
	// ErrAccountNotFound indicates the requested account does not exist.
	ErrAccountNotFound = errors.New("ledger: account not found")
)
