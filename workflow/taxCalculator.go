package workflow

import (
	"github.com/taptapmatrix/tap_backend/models"
)

// Vortex split for commerce transfers, in percent.
const (
	TaxBurnPercent    int64 = 3
	TaxReservePercent int64 = 6
)

// TaxResult is the output of ComputeTax. burn + reserve + receiver always
// equals the gross amount.
type TaxResult struct {
	Burn              int64 `json:"burn"`
	Reserve           int64 `json:"reserve"`
	ReceiverAmount    int64 `json:"receiver_amount"`
	PercentageApplied int64 `json:"percentage_applied"`
	Waived            bool  `json:"waived"`
}

// ComputeTax maps a gross TAP amount onto the Vortex burn/reserve/receiver
// split. Social actions (tips, likes, airdrops) are never taxed. Commerce
// actions burn 3% and reserve 6% unless the waiver window is open.
//
// Integer division floors the burn and reserve portions; the receiver gets
// the remainder, so rounding always favors the receiver and the split is
// exactly conserved. Pure function, no side effects.
func ComputeTax(gross int64, category models.TransferCategory, waived bool) (TaxResult, error) {
	if gross <= 0 {
		return TaxResult{}, models.ErrInvalidAmount
	}
	if !category.Valid() {
		return TaxResult{}, models.ErrInvalidCategory
	}

	if category == models.TransferCategorySocial || waived {
		return TaxResult{
			Burn:              0,
			Reserve:           0,
			ReceiverAmount:    gross,
			PercentageApplied: 0,
			Waived:            waived && category != models.TransferCategorySocial,
		}, nil
	}

	burn := gross * TaxBurnPercent / 100
	reserve := gross * TaxReservePercent / 100
	return TaxResult{
		Burn:              burn,
		Reserve:           reserve,
		ReceiverAmount:    gross - burn - reserve,
		PercentageApplied: TaxBurnPercent + TaxReservePercent,
		Waived:            false,
	}, nil
}
