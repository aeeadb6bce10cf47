// Package position implements the per-user Positions model: collateral,
// liabilities, and uncollateralised supply, each keyed by reserve index.
// Grounded on native/lending's UserAccount/AccountPosition pair, generalized
// from a single-reserve balance to three independent per-reserve maps with a
// pool-wide position-count cap.
package position

import (
	"math/big"
	"sort"

	"corelend/errs"
)

// Positions holds one user's collateral, liability, and supply balances,
// each keyed by reserve index. Grounded on the spec's requirement that zero
// entries are removed rather than stored: every mutator below prunes its map
// eagerly, matching the teacher's ensureUserAccount eager-normalize style.
type Positions struct {
	Collateral map[uint32]*big.Int
	Liabilities map[uint32]*big.Int
	Supply      map[uint32]*big.Int
}

// New returns an empty Positions.
func New() *Positions {
	return &Positions{
		Collateral:  make(map[uint32]*big.Int),
		Liabilities: make(map[uint32]*big.Int),
		Supply:      make(map[uint32]*big.Int),
	}
}

// Count returns |collateral| + |liabilities| + |supply|.
func (p *Positions) Count() int {
	return len(p.Collateral) + len(p.Liabilities) + len(p.Supply)
}

// IsEmpty reports whether all three maps are empty, the condition under
// which a Positions record is deleted from storage rather than persisted.
func (p *Positions) IsEmpty() bool {
	return len(p.Collateral) == 0 && len(p.Liabilities) == 0 && len(p.Supply) == 0
}

func adjust(m map[uint32]*big.Int, index uint32, delta *big.Int) {
	cur, ok := m[index]
	if !ok {
		cur = big.NewInt(0)
	}
	next := new(big.Int).Add(cur, delta)
	if next.Sign() <= 0 {
		delete(m, index)
		return
	}
	m[index] = next
}

// AddCollateral increases the collateral entry for index by delta (must be
// positive); zero or negative deltas are rejected by the caller, matching the
// "all operations reject negative amounts" rule.
func (p *Positions) AddCollateral(index uint32, delta *big.Int) { adjust(p.Collateral, index, delta) }

// RemoveCollateral decreases the collateral entry for index by amount,
// pruning the entry if it reaches zero. Returns the amount actually removed,
// capped at the held balance (the "capped" rule from the request table).
func (p *Positions) RemoveCollateral(index uint32, amount *big.Int) *big.Int {
	return removeCapped(p.Collateral, index, amount)
}

// AddLiability increases the liability entry for index by delta.
func (p *Positions) AddLiability(index uint32, delta *big.Int) { adjust(p.Liabilities, index, delta) }

// RemoveLiability decreases the liability entry for index by amount, capped
// at the held balance; amount == nil means "repay in full".
func (p *Positions) RemoveLiability(index uint32, amount *big.Int) *big.Int {
	return removeCapped(p.Liabilities, index, amount)
}

// AddSupply increases the uncollateralised-supply entry for index by delta.
func (p *Positions) AddSupply(index uint32, delta *big.Int) { adjust(p.Supply, index, delta) }

// RemoveSupply decreases the uncollateralised-supply entry for index by
// amount, capped at the held balance.
func (p *Positions) RemoveSupply(index uint32, amount *big.Int) *big.Int {
	return removeCapped(p.Supply, index, amount)
}

func removeCapped(m map[uint32]*big.Int, index uint32, amount *big.Int) *big.Int {
	cur, ok := m[index]
	if !ok {
		return big.NewInt(0)
	}
	removed := new(big.Int).Set(amount)
	if removed.Cmp(cur) > 0 {
		removed.Set(cur)
	}
	next := new(big.Int).Sub(cur, removed)
	if next.Sign() <= 0 {
		delete(m, index)
	} else {
		m[index] = next
	}
	return removed
}

// CheckMaxPositions enforces |collateral|+|liabilities|+|supply| <=
// maxPositions after a mutating request, per the pool-level position cap.
func (p *Positions) CheckMaxPositions(maxPositions int) error {
	if p.Count() > maxPositions {
		return errs.ErrMaxPositionsExceeded
	}
	return nil
}

// ReserveIndices returns the sorted union of reserve indices touched by any
// of the three maps, used to iterate a position deterministically (health
// factor computation, auction lot/bid construction).
func (p *Positions) ReserveIndices() []uint32 {
	seen := make(map[uint32]struct{})
	for idx := range p.Collateral {
		seen[idx] = struct{}{}
	}
	for idx := range p.Liabilities {
		seen[idx] = struct{}{}
	}
	for idx := range p.Supply {
		seen[idx] = struct{}{}
	}
	out := make([]uint32, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
