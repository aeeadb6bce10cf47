// Package backstop implements the pooled-insurance share engine: per-pool
// token/share accounting, the 30-day queued-withdrawal (q4w) FIFO, and
// donate/draw socialisation. Grounded on native/lending's
// sharesFromLiquidity/liquidityFromShares index pattern, generalized from a
// single supply index to the backstop's direct tokens/shares ratio (no index
// needed; donate/draw mutate tokens directly per spec §4.5).
package backstop

import "math/big"

// PoolBalance is one pool's aggregate backstop-side balance: total LP shares
// issued, total LP tokens held, and the sum of shares currently queued for
// withdrawal (still counted in Shares until actually withdrawn).
type PoolBalance struct {
	Shares *big.Int
	Tokens *big.Int
	Q4W    *big.Int
}

// Q4WEntry is one queued-withdrawal entry: an amount of shares unlocking at
// Exp. Entries are consumed strictly in FIFO order; the head entry may be
// partially consumed in place, per §9's "ordered FIFO with middle mutation"
// design note.
type Q4WEntry struct {
	Amount *big.Int
	Exp    uint64
}

// UserBalance is one user's position against one pool's backstop: current
// shares, the queued-withdrawal deque, and the user's emissions accrual
// state (index/accrued, mirrored from the teacher's staking-rewards
// index-and-last-time pattern, see the emissions package).
type UserBalance struct {
	Shares      *big.Int
	Q4W         []Q4WEntry
	EmisIndex   *big.Int
	EmisAccrued *big.Int
}

func zeroPoolBalance() PoolBalance {
	return PoolBalance{Shares: big.NewInt(0), Tokens: big.NewInt(0), Q4W: big.NewInt(0)}
}

func zeroUserBalance() UserBalance {
	return UserBalance{Shares: big.NewInt(0), Q4W: nil, EmisIndex: big.NewInt(0), EmisAccrued: big.NewInt(0)}
}
