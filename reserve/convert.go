package reserve

import (
	"math/big"

	"corelend/fixedpoint"
)

// Conversion functions are explicit about rounding direction: the _up variants
// round in the protocol's favour on debt creation and share burn; the _down
// variants round in the protocol's favour on debt burn and share creation.
// Grounded on native/lending/math.go's sharesFromLiquidity/
// liquidityFromShares pair, generalized from a single supply index to the
// reserve's two independent b_rate/d_rate scales.

// ToDTokenUp converts an underlying asset amount to debt tokens, rounding up.
// Used on Borrow, where rounding up increases the borrower's recorded debt.
func (r *Reserve) ToDTokenUp(amount *big.Int) *big.Int {
	return fixedpoint.DivCeil(amount, fixedpoint.Scalar9, r.Data.DRate)
}

// ToDTokenDown converts an underlying asset amount to debt tokens, rounding
// down. Used on Repay, where rounding down reduces the debt burned in the
// protocol's favour.
func (r *Reserve) ToDTokenDown(amount *big.Int) *big.Int {
	return fixedpoint.DivFloor(amount, fixedpoint.Scalar9, r.Data.DRate)
}

// ToBTokenUp converts an underlying asset amount to supply (b) tokens,
// rounding up. Used when burning shares (Withdraw/WithdrawCollateral), where
// rounding up increases the shares consumed in the protocol's favour.
func (r *Reserve) ToBTokenUp(amount *big.Int) *big.Int {
	return fixedpoint.DivCeil(amount, fixedpoint.Scalar9, r.Data.BRate)
}

// ToBTokenDown converts an underlying asset amount to supply (b) tokens,
// rounding down. Used when minting shares (Supply/SupplyCollateral).
func (r *Reserve) ToBTokenDown(amount *big.Int) *big.Int {
	return fixedpoint.DivFloor(amount, fixedpoint.Scalar9, r.Data.BRate)
}

// FromBTokenDown converts a b-token amount to underlying asset units,
// rounding down (used when paying liquidity out to a user).
func (r *Reserve) FromBTokenDown(bAmount *big.Int) *big.Int {
	return fixedpoint.MulFloor(bAmount, r.Data.BRate, fixedpoint.Scalar9)
}

// FromDTokenUp converts a d-token amount to underlying asset units, rounding
// up (used when computing the asset value of a debt position).
func (r *Reserve) FromDTokenUp(dAmount *big.Int) *big.Int {
	return fixedpoint.MulCeil(dAmount, r.Data.DRate, fixedpoint.Scalar9)
}

// ToEffectiveAssetFromBToken folds c_factor into a b-token amount's asset
// value, clamped to (0, SCALAR_7], for use in the health-factor numerator.
func (r *Reserve) ToEffectiveAssetFromBToken(bAmount *big.Int) *big.Int {
	asset := r.FromBTokenDown(bAmount)
	cFactor := fixedpoint.Clamp(r.Config.CFactor, big.NewInt(1), fixedpoint.Scalar7)
	return fixedpoint.MulFloor(asset, cFactor, fixedpoint.Scalar7)
}

// ToEffectiveAssetFromDToken folds 1/l_factor into a d-token amount's asset
// value, clamped to (0, SCALAR_7], for use in the health-factor denominator.
func (r *Reserve) ToEffectiveAssetFromDToken(dAmount *big.Int) *big.Int {
	asset := r.FromDTokenUp(dAmount)
	lFactor := fixedpoint.Clamp(r.Config.LFactor, big.NewInt(1), fixedpoint.Scalar7)
	return fixedpoint.DivCeil(asset, fixedpoint.Scalar7, lFactor)
}
