// Package fixedpoint implements the saturating/checked fixed-point arithmetic
// used across the reserve, backstop, and auction engines. Every product or
// quotient declares its rounding direction explicitly, matching the "losses
// accrue to the user, gains to the protocol" rule from the design notes.
//
// Two scales are used throughout the engines: Scalar7 for user-facing
// quantities and rates, Scalar9 for the interest-rate internals (d_rate,
// b_rate, ir_mod). Grounded on native/lending/math.go's ray-based helpers,
// generalized from a single 1e27 "ray" scale to the pool's two scales plus a
// per-reserve native scalar (10^decimals).
package fixedpoint

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Scalar7 and Scalar9 are the two fixed-point bases used throughout the core.
var (
	Scalar7 = big.NewInt(10_000_000)
	Scalar9 = big.NewInt(1_000_000_000)
)

// NewScalar returns 10^decimals, the native scale for a reserve's underlying
// asset. decimals must be <= 18 per reserve configuration validation.
func NewScalar(decimals uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

func half(denominator *big.Int) *big.Int {
	if denominator == nil || denominator.Sign() <= 0 {
		return big.NewInt(0)
	}
	h := new(big.Int).Add(denominator, big.NewInt(1))
	return h.Rsh(h, 1)
}

// MulFloor computes floor(a*b/denominator).
func MulFloor(a, b, denominator *big.Int) *big.Int {
	if a == nil || b == nil || denominator == nil || denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, denominator)
}

// MulCeil computes ceil(a*b/denominator).
func MulCeil(a, b, denominator *big.Int) *big.Int {
	if a == nil || b == nil || denominator == nil || denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	rem := new(big.Int)
	quo := new(big.Int)
	quo.QuoRem(product, denominator, rem)
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}

// DivFloor computes floor(a*scale/b).
func DivFloor(a, scale, b *big.Int) *big.Int {
	if a == nil || scale == nil || b == nil || b.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(a, scale)
	return numerator.Quo(numerator, b)
}

// DivCeil computes ceil(a*scale/b).
func DivCeil(a, scale, b *big.Int) *big.Int {
	if a == nil || scale == nil || b == nil || b.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(a, scale)
	rem := new(big.Int)
	quo := new(big.Int)
	quo.QuoRem(numerator, b, rem)
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi *big.Int) *big.Int {
	if x.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if x.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return new(big.Int).Set(x)
}

// SaturatingMul returns a*b, saturating to ceiling instead of overflowing.
// The multiplication itself runs in 256-bit unsigned scratch space
// (github.com/holiman/uint256) rather than big.Int's arbitrary-precision
// path, so a genuine 256-bit wraparound is caught by MulOverflow and
// saturates exactly like an out-of-range result, matching the "losses
// accrue to the user, gains to the protocol" rounding rule for threshold
// comparisons (see require_pool_above_threshold in the design notes).
// a and b must be non-negative; ceiling nil means no saturation is applied.
func SaturatingMul(a, b, ceiling *big.Int) *big.Int {
	ua, uaOverflow := uint256.FromBig(a)
	ub, ubOverflow := uint256.FromBig(b)
	if uaOverflow || ubOverflow {
		if ceiling != nil {
			return new(big.Int).Set(ceiling)
		}
		return new(big.Int).Mul(a, b)
	}
	product := new(uint256.Int)
	if product.MulOverflow(ua, ub) {
		if ceiling != nil {
			return new(big.Int).Set(ceiling)
		}
		return new(big.Int).Mul(a, b)
	}
	result := product.ToBig()
	if ceiling != nil && result.Cmp(ceiling) > 0 {
		return new(big.Int).Set(ceiling)
	}
	return result
}

var zero = big.NewInt(0)

// Zero returns a fresh zero-valued big.Int.
func Zero() *big.Int { return new(big.Int).Set(zero) }
