package reserve

import (
	"math/big"

	"corelend/crypto"
	"corelend/fixedpoint"
)

// secondsPerYear anchors the interest curve's annualisation, mirroring the
// teacher's blocksPerYear constant in native/lending/engine.go (a fixed
// protocol constant, not loaded from configuration).
const secondsPerYear = 31_536_000

var ninetyFivePercent = big.NewInt(9_500_000) // 0.95 * SCALAR_7

var (
	irModFloor = big.NewInt(100_000_000)    // 0.1 * SCALAR_9
	irModCeil  = big.NewInt(10_000_000_000) // 10.0 * SCALAR_9
)

// Load is the only way a reserve ever enters memory: it reads the stored
// config/data and accrues interest to now. cashBalance is the reserve's
// underlying token balance held by the pool, queried by the caller through
// the fungible-token interface; bstopRate is the pool's backstop take rate in
// SCALAR_9. Grounded on native/lending/engine.go's accrueInterest, generalized
// from a single-curve model to the three-slope kinked curve with a
// proportional-controller ir_mod.
func Load(index uint32, asset crypto.Address, cfg Config, data Data, now uint64, cashBalance *big.Int, bstopRate *big.Int) *Reserve {
	r := &Reserve{Index: index, Asset: asset, Config: cfg, Data: cloneData(data)}

	if now == r.Data.LastTime || r.Data.BSupply.Sign() == 0 {
		r.Data.LastTime = now
		return r
	}

	dt := now - r.Data.LastTime
	curUtil := r.Utilisation()

	effectiveRate, newIRMod := accrualRate(cfg, curUtil, r.Data.IRMod, dt)
	r.Data.IRMod = newIRMod

	// loan_accrual, in SCALAR_9: 1 + effective_rate * ir_mod * dt / seconds_per_year.
	numerator := new(big.Int).Mul(effectiveRate, newIRMod)
	numerator.Mul(numerator, big.NewInt(int64(dt)))
	denom := new(big.Int).Mul(fixedpoint.Scalar7, big.NewInt(secondsPerYear))
	growth := numerator.Quo(numerator, denom)
	loanAccrual := new(big.Int).Add(fixedpoint.Scalar9, growth)

	r.Data.DRate = fixedpoint.MulCeil(r.Data.DRate, loanAccrual, fixedpoint.Scalar9)

	preUpdateSupply := fixedpoint.MulFloor(data.BSupply, data.BRate, fixedpoint.Scalar9)
	totalLiabilities := r.TotalLiabilities()
	accruedSupply := new(big.Int).Add(totalLiabilities, cashBalance)
	accruedSupply.Sub(accruedSupply, r.Data.BackstopCredit)
	accruedSupply.Sub(accruedSupply, preUpdateSupply)

	if bstopRate != nil && bstopRate.Sign() > 0 && accruedSupply.Sign() > 0 {
		credit := fixedpoint.MulFloor(accruedSupply, bstopRate, fixedpoint.Scalar9)
		r.Data.BackstopCredit = new(big.Int).Add(r.Data.BackstopCredit, credit)
	}

	residual := new(big.Int).Add(totalLiabilities, cashBalance)
	residual.Sub(residual, r.Data.BackstopCredit)
	r.Data.BRate = fixedpoint.DivFloor(residual, fixedpoint.Scalar9, r.Data.BSupply)

	r.Data.LastTime = now
	r.Dirty = true
	return r
}

// accrualRate computes (effective_rate, new_ir_mod) in (SCALAR_7, SCALAR_9)
// from the three-slope kinked curve and the proportional controller.
func accrualRate(cfg Config, curUtil *big.Int, irMod *big.Int, dt uint64) (*big.Int, *big.Int) {
	targetUtil := big.NewInt(int64(cfg.Util))
	rOne := big.NewInt(int64(cfg.ROne))
	rTwo := big.NewInt(int64(cfg.RTwo))
	rThree := big.NewInt(int64(cfg.RThree))

	var rate *big.Int
	switch {
	case curUtil.Cmp(targetUtil) < 0:
		// Slope 1: 0 .. r_one, linear to the target utilisation.
		if targetUtil.Sign() == 0 {
			rate = big.NewInt(0)
		} else {
			rate = fixedpoint.MulFloor(rOne, curUtil, targetUtil)
		}
	case curUtil.Cmp(ninetyFivePercent) < 0:
		// Slope 2: r_one .. r_one+r_two, linear from target to 95%.
		span := new(big.Int).Sub(ninetyFivePercent, targetUtil)
		pos := new(big.Int).Sub(curUtil, targetUtil)
		extra := fixedpoint.MulFloor(rTwo, pos, span)
		rate = new(big.Int).Add(rOne, extra)
	default:
		// Slope 3: r_one+r_two .. r_one+r_two+r_three, linear from 95% to 100%.
		span := new(big.Int).Sub(fixedpoint.Scalar7, ninetyFivePercent)
		pos := new(big.Int).Sub(curUtil, ninetyFivePercent)
		if pos.Cmp(span) > 0 {
			pos = span
		}
		extra := fixedpoint.MulFloor(rThree, pos, span)
		rate = new(big.Int).Add(new(big.Int).Add(rOne, rTwo), extra)
	}

	// new_ir_mod = clamp(ir_mod + reactivity*(util-target_util)*dt, 0.1, 10.0),
	// reconciled to SCALAR_9: reactivity and the utilisation gap are both
	// SCALAR_7 fractions, so the raw product is scaled by SCALAR_9/SCALAR_7^2.
	utilDiff := new(big.Int).Sub(curUtil, targetUtil)
	delta := new(big.Int).Mul(big.NewInt(int64(cfg.Reactivity)), utilDiff)
	delta.Mul(delta, big.NewInt(int64(dt)))
	delta.Mul(delta, fixedpoint.Scalar9)
	scale7sq := new(big.Int).Mul(fixedpoint.Scalar7, fixedpoint.Scalar7)
	delta.Quo(delta, scale7sq)

	newIRMod := new(big.Int).Add(irMod, delta)
	newIRMod = fixedpoint.Clamp(newIRMod, irModFloor, irModCeil)
	return rate, newIRMod
}

// BorrowRate returns the reserve's current annualised borrow rate in
// SCALAR_7, the three-slope curve rate folded through the stored ir_mod
// without advancing it (dt=0), for instrumentation and quoting.
func (r *Reserve) BorrowRate() *big.Int {
	rate, _ := accrualRate(r.Config, r.Utilisation(), r.Data.IRMod, 0)
	return fixedpoint.MulFloor(rate, r.Data.IRMod, fixedpoint.Scalar9)
}

// SupplyRate returns the reserve's current annualised supply rate in
// SCALAR_7: the borrow rate times utilisation, before the backstop's take
// rate cut (the cut is a BackstopCredit bookkeeping detail, not a per-lender
// rate quote).
func (r *Reserve) SupplyRate() *big.Int {
	return fixedpoint.MulFloor(r.BorrowRate(), r.Utilisation(), fixedpoint.Scalar7)
}

func cloneData(d Data) Data {
	clone := Data{LastTime: d.LastTime}
	clone.DRate = cloneInt(d.DRate)
	clone.BRate = cloneInt(d.BRate)
	clone.IRMod = cloneInt(d.IRMod)
	clone.DSupply = cloneInt(d.DSupply)
	clone.BSupply = cloneInt(d.BSupply)
	clone.BackstopCredit = cloneInt(d.BackstopCredit)
	return clone
}

func cloneInt(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(x)
}
