// Package health computes a position's health factor from its collateral and
// liability maps, the reserves they reference, and cached oracle prices.
// Shared by the pool engine (post-request health check) and the auction
// engine (liquidation eligibility and target-band convergence), grounded on
// native/lending/engine.go's positionHealthy, generalized from a single
// collateral/debt pair to the pool's multi-reserve weighted sums.
//
// Reserve amounts (collateral, liabilities, supply, d_supply, b_supply) are
// tracked throughout this module in each reserve's own native scalar
// (10^decimals), not a SCALAR_7-normalised representation; base-value
// conversion below divides by the reserve's scalar directly rather than
// applying the oracle_decimals-7 adjustment a SCALAR_7-normalised amount
// would need.
package health

import (
	"math/big"

	"corelend/fixedpoint"
	"corelend/position"
	"corelend/reserve"
)

// Prices maps a reserve index to its cached oracle quote, in 10^oracleDecimals
// units of the oracle's base asset.
type Prices map[uint32]*big.Int

// Position summarises a user's position in the oracle's base currency.
type Position struct {
	CollateralBase *big.Int // effective, c_factor folded in
	LiabilityBase  *big.Int // effective, 1/l_factor folded in
	CollateralRaw  *big.Int // raw, no c_factor
	LiabilityRaw   *big.Int // raw, no l_factor
	HF             *big.Int // SCALAR_7; 2^100 sentinel (noLiabilitySentinel) if no liabilities
}

var noLiabilitySentinel = new(big.Int).Lsh(big.NewInt(1), 100)

// Compute derives collateral/liability base values and the resulting health
// factor for p, given the reserves it references and their cached prices.
func Compute(p *position.Positions, reserves map[uint32]*reserve.Reserve, prices Prices) Position {
	collateralBase := big.NewInt(0)
	collateralRaw := big.NewInt(0)
	liabilityBase := big.NewInt(0)
	liabilityRaw := big.NewInt(0)

	for idx, bAmount := range p.Collateral {
		r := reserves[idx]
		price := prices[idx]
		if r == nil || price == nil {
			continue
		}
		native := r.FromBTokenDown(bAmount)
		raw := fixedpoint.MulFloor(price, native, r.Scalar())
		collateralRaw.Add(collateralRaw, raw)
		effective := r.ToEffectiveAssetFromBToken(bAmount)
		effectiveBase := fixedpoint.MulFloor(price, effective, r.Scalar())
		collateralBase.Add(collateralBase, effectiveBase)
	}

	for idx, dAmount := range p.Liabilities {
		r := reserves[idx]
		price := prices[idx]
		if r == nil || price == nil {
			continue
		}
		native := r.FromDTokenUp(dAmount)
		raw := fixedpoint.MulCeil(price, native, r.Scalar())
		liabilityRaw.Add(liabilityRaw, raw)
		effective := r.ToEffectiveAssetFromDToken(dAmount)
		effectiveBase := fixedpoint.MulCeil(price, effective, r.Scalar())
		liabilityBase.Add(liabilityBase, effectiveBase)
	}

	hf := new(big.Int).Set(noLiabilitySentinel)
	if liabilityBase.Sign() > 0 {
		hf = fixedpoint.DivFloor(collateralBase, fixedpoint.Scalar7, liabilityBase)
	}

	return Position{
		CollateralBase: collateralBase,
		LiabilityBase:  liabilityBase,
		CollateralRaw:  collateralRaw,
		LiabilityRaw:   liabilityRaw,
		HF:             hf,
	}
}

// MinHF is the minimum health factor the pool accepts after a check-triggering
// request: 1.0000100 in SCALAR_7, the 10^-5 buffer against rounding-induced
// self-liquidation.
var MinHF = big.NewInt(10_000_100)

// LiquidatableHF is the raw threshold (1.0, no buffer) used to decide
// liquidation eligibility, per "liquidation eligibility uses the raw ratio
// before the 10^-5 buffer".
var LiquidatableHF = fixedpoint.Scalar7
