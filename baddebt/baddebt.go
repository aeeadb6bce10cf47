// Package baddebt implements the two bad-debt operations exposed on the
// pool's contract surface: re-owning an insolvent user's uncollateralised
// debt to the backstop, and burning the backstop's own debt out of d_supply
// once its insurance balance drops below a critical threshold. Grounded on
// native/lending.Engine.Liquidate's debt-zeroing tail, generalized from
// erasing debt outright to re-owning it to the backstop's own Positions.
package baddebt

import (
	"math/big"

	"corelend/errs"
	"corelend/position"
)

// TransferBadDebt moves every liability subject holds onto backstop's own
// Positions, one-for-one. It requires subject hold no collateral and at
// least one liability — an over-collateralised or debt-free account has no
// bad debt to transfer. The reserves' d_supply figures are left untouched:
// the debt is re-owned, not forgiven.
func TransferBadDebt(subject, backstop *position.Positions) error {
	if len(subject.Collateral) != 0 {
		return errs.ErrBadRequest
	}
	if len(subject.Liabilities) == 0 {
		return errs.ErrBadRequest
	}
	for idx, amount := range subject.Liabilities {
		backstop.AddLiability(idx, amount)
	}
	subject.Liabilities = make(map[uint32]*big.Int)
	return nil
}

// BurnBackstopBadDebt zeroes every liability the backstop itself carries,
// invoking reduceDSupply once per reserve index so the caller can subtract
// the burned amount directly from that reserve's d_supply. The resulting
// shortfall socialises to suppliers via the drop in b_rate on the reserve's
// next accrual; it is not reflected here since reserve accrual is the pool
// engine's concern.
func BurnBackstopBadDebt(backstop *position.Positions, reduceDSupply func(reserveIndex uint32, amount *big.Int) error) error {
	if len(backstop.Liabilities) == 0 {
		return errs.ErrBadRequest
	}
	for idx, amount := range backstop.Liabilities {
		if err := reduceDSupply(idx, amount); err != nil {
			return err
		}
	}
	backstop.Liabilities = make(map[uint32]*big.Int)
	return nil
}

// CriticalLowThreshold is the BLND-equivalent balance (SCALAR_7) below which
// the backstop is eligible for BurnBackstopBadDebt, per §4.8.
var CriticalLowThreshold = big.NewInt(10_000 * 10_000_000)

// BelowCriticalThreshold reports whether the backstop's BLND-equivalent
// balance has fallen under the critical-low threshold, the precondition for
// BurnBackstopBadDebt per §4.8.
func BelowCriticalThreshold(blndEquivalent, threshold *big.Int) bool {
	return blndEquivalent.Cmp(threshold) < 0
}
