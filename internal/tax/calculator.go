// Package tax implements the Indonesian tax calculators used by the
// construction ERP: PPh 21 employee income tax, PPN value added tax, and
// PPh 23 withholding on services.
package tax

import "github.com/nusantara-erp/nusantara-erp/internal/ledger"

const (
	// PPh21Threshold is the monthly gross salary below which no PPh 21 is
	// withheld. Single-bracket approximation of the progressive PTKP
	// tables; the full bracket logic is intentionally not implemented.
	PPh21Threshold = 4_500_000
	// PPh21Rate applies to the amount above the threshold.
	PPh21Rate = 0.05
	// PPNRate is the flat VAT rate.
	PPNRate = 0.11
	// PPh23DefaultRate applies when no sub-type specific rate matches.
	PPh23DefaultRate = 0.02
)

// pph23Rates maps construction account sub-types to withholding rates.
var pph23Rates = map[string]float64{
	ledger.SubTypeSubcontractorCost:   0.02,
	ledger.SubTypeEquipmentCost:       0.02,
	ledger.SubTypeProfessionalService: 0.025,
}

// PPNDirection distinguishes output VAT (on revenue) from input VAT.
type PPNDirection string

const (
	PPNOutput PPNDirection = "OUTPUT"
	PPNInput  PPNDirection = "INPUT"
)

// PPh21 computes employee income tax withheld on one gross salary.
func PPh21(gross float64) float64 {
	if gross <= PPh21Threshold {
		return 0
	}
	return (gross - PPh21Threshold) * PPh21Rate
}

// PPN computes value added tax on one gross amount. The direction is output
// when the transaction account is a revenue account, input otherwise.
func PPN(gross float64, accountType ledger.AccountType) (amount float64, direction PPNDirection) {
	direction = PPNInput
	if accountType == ledger.AccountTypeRevenue {
		direction = PPNOutput
	}
	return gross * PPNRate, direction
}

// PPh23 computes withholding tax on one service transaction. The rate is
// selected by the account sub-type.
func PPh23(gross float64, subType string) float64 {
	rate, ok := pph23Rates[subType]
	if !ok {
		rate = PPh23DefaultRate
	}
	return gross * rate
}
