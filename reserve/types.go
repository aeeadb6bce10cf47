// Package reserve implements the per-asset reserve model: interest accrual,
// bToken/dToken conversion, and configuration validation. Grounded on the
// teacher's native/lending package (types.go, interest.go, math.go), expanded
// from a single-curve single-reserve model to the pool's per-reserve kinked
// curve with a proportional-controller ir_mod modifier.
package reserve

import (
	"math/big"

	"corelend/crypto"
	"corelend/fixedpoint"
)

// Config is a reserve's static configuration, validated by ValidateConfig
// before being accepted by init_reserve/update_reserve.
type Config struct {
	Decimals   uint32
	CFactor    *big.Int // SCALAR_7, collateral risk weight
	LFactor    *big.Int // SCALAR_7, liability risk weight
	Util       uint32   // SCALAR_7, target utilisation (the curve's kink)
	MaxUtil    uint32   // SCALAR_7, hard utilisation ceiling
	ROne       uint32   // SCALAR_7, slope-1 rate at target utilisation
	RTwo       uint32   // SCALAR_7, additional slope-2 rate at 95% utilisation
	RThree     uint32   // SCALAR_7, additional slope-3 rate at 100% utilisation
	Reactivity uint32   // SCALAR_7, ir_mod proportional-controller gain
}

// Data is a reserve's mutable accrual state, persisted as ResData(asset).
type Data struct {
	DRate          *big.Int // SCALAR_9, monotonically non-decreasing
	BRate          *big.Int // SCALAR_9, non-decreasing absent socialised losses
	IRMod          *big.Int // SCALAR_9, proportional-controller modifier
	DSupply        *big.Int // outstanding debt tokens
	BSupply        *big.Int // outstanding supply share tokens
	BackstopCredit *big.Int // asset units owed to the backstop, unrealised
	LastTime       uint64
}

// Reserve is the in-memory, loaded-and-accrued view of one pool asset: the
// stable index assigned at creation, its configuration, its accrual data, and
// the cached native scalar (10^decimals) used by every conversion below. This
// is the only representation the pool engine ever operates on; it is never
// constructed except via Load (see interest.go).
type Reserve struct {
	Index  uint32
	Asset  crypto.Address
	Config Config
	Data   Data
	scalar *big.Int

	// Dirty marks that Data has changed since Load and must be persisted at
	// transaction end, per the pool's dependency-ordered flush (reserves
	// first, then positions, then transfers).
	Dirty bool
}

// Scalar returns the reserve's native 10^decimals scale, cached at Load.
func (r *Reserve) Scalar() *big.Int {
	if r.scalar == nil {
		r.scalar = fixedpoint.NewScalar(r.Config.Decimals)
	}
	return r.scalar
}

// TotalLiabilities returns the debt outstanding in underlying asset units,
// i.e. d_supply valued at the current d_rate.
func (r *Reserve) TotalLiabilities() *big.Int {
	return fixedpoint.MulFloor(r.Data.DSupply, r.Data.DRate, fixedpoint.Scalar9)
}

// TotalSupply returns the supplied liquidity in underlying asset units,
// i.e. b_supply valued at the current b_rate.
func (r *Reserve) TotalSupply() *big.Int {
	return fixedpoint.MulFloor(r.Data.BSupply, r.Data.BRate, fixedpoint.Scalar9)
}

// Utilisation returns total_liabilities / total_supply in SCALAR_7, or zero
// if the reserve has no supply.
func (r *Reserve) Utilisation() *big.Int {
	supply := r.TotalSupply()
	if supply.Sign() == 0 {
		return big.NewInt(0)
	}
	return fixedpoint.DivFloor(r.TotalLiabilities(), fixedpoint.Scalar7, supply)
}
