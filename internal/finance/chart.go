package finance

import "github.com/nusantara-erp/nusantara-erp/internal/ledger"

// Bucket names a fixed set of account codes and the debit/credit side read
// from their lines. Cash flow sections sum one side of each bucket.
type Bucket struct {
	Codes []string
	Side  ledger.NormalBalance
}

// StatementChart carries every account-code and sub-type grouping the
// statement builders depend on. The groupings are configuration, not logic:
// a subsidiary running a different chart of accounts substitutes its own
// StatementChart without touching the builders.
type StatementChart struct {
	// Cash accounts used for opening/closing balances and reconciliation.
	CashCodes []string

	// Income statement sub-type groupings.
	DirectCostSubTypes   []string
	IndirectCostSubTypes []string

	// Balance sheet sub-type groupings.
	CurrentAssetSubTypes      []string
	FixedAssetSubTypes        []string
	CurrentLiabilitySubTypes  []string
	LongTermLiabilitySubTypes []string

	// Direct-method operating buckets.
	CustomerReceipts  Bucket
	SupplierPayments  Bucket
	EmployeePayments  Bucket
	OperatingExpenses Bucket

	// Investing buckets.
	AssetSales     Bucket
	AssetPurchases Bucket

	// Financing buckets.
	DebtProceeds        Bucket
	DebtPayments        Bucket
	EquityContributions Bucket
	DividendPayments    Bucket

	// Equity component code lists. All components aggregate credit-positive.
	ShareCapitalCodes     []string
	AdditionalPaidInCodes []string
	RetainedEarningsCodes []string
	OtherEquityCodes      []string
	ContributionCodes     []string
	WithdrawalCodes       []string
	DividendCodes         []string
}

// DefaultStatementChart returns the fixed Indonesian construction chart the
// engine ships with. Codes follow the 4-digit convention: 1xxx assets,
// 2xxx liabilities, 3xxx equity, 4xxx revenue, 5xxx direct cost, 6xxx
// indirect cost.
func DefaultStatementChart() StatementChart {
	return StatementChart{
		CashCodes: []string{"1101"},

		DirectCostSubTypes: []string{
			ledger.SubTypeDirectCost,
			ledger.SubTypeMaterialCost,
			ledger.SubTypeLaborCost,
			ledger.SubTypeSubcontractorCost,
			ledger.SubTypeEquipmentCost,
		},
		IndirectCostSubTypes: []string{
			ledger.SubTypeIndirectCost,
			ledger.SubTypeAdminSalary,
			ledger.SubTypeDepreciation,
		},

		CurrentAssetSubTypes:      []string{"CURRENT_ASSET", "CASH_AND_BANK", "ACCOUNTS_RECEIVABLE", "INVENTORY", "PREPAID_EXPENSE"},
		FixedAssetSubTypes:        []string{"FIXED_ASSET", "HEAVY_EQUIPMENT", "ACCUMULATED_DEPRECIATION"},
		CurrentLiabilitySubTypes:  []string{"CURRENT_LIABILITY", "ACCOUNTS_PAYABLE", "TAX_PAYABLE", "ACCRUED_EXPENSE"},
		LongTermLiabilitySubTypes: []string{"LONG_TERM_LIABILITY", "BANK_LOAN"},

		CustomerReceipts:  Bucket{Codes: []string{"1101", "1102"}, Side: ledger.NormalBalanceDebit},
		SupplierPayments:  Bucket{Codes: []string{"2101"}, Side: ledger.NormalBalanceDebit},
		EmployeePayments:  Bucket{Codes: []string{"2102"}, Side: ledger.NormalBalanceDebit},
		OperatingExpenses: Bucket{Codes: []string{"6101", "6102"}, Side: ledger.NormalBalanceDebit},

		AssetSales:     Bucket{Codes: []string{"1501", "1502"}, Side: ledger.NormalBalanceCredit},
		AssetPurchases: Bucket{Codes: []string{"1501", "1502"}, Side: ledger.NormalBalanceDebit},

		DebtProceeds:        Bucket{Codes: []string{"2201", "2202"}, Side: ledger.NormalBalanceCredit},
		DebtPayments:        Bucket{Codes: []string{"2201", "2202"}, Side: ledger.NormalBalanceDebit},
		EquityContributions: Bucket{Codes: []string{"3101", "3102"}, Side: ledger.NormalBalanceCredit},
		DividendPayments:    Bucket{Codes: []string{"3301"}, Side: ledger.NormalBalanceDebit},

		ShareCapitalCodes:     []string{"3101"},
		AdditionalPaidInCodes: []string{"3102"},
		RetainedEarningsCodes: []string{"3201"},
		OtherEquityCodes:      []string{"3901"},
		ContributionCodes:     []string{"3101", "3102"},
		WithdrawalCodes:       []string{"3302"},
		DividendCodes:         []string{"3301"},
	}
}
