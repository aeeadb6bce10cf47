// Package emissions implements the weekly BLND emissions cycle shared by
// pool reserves and backstop depositors: an (index, last_time) accrual
// schedule per emitting stream, and reward-zone FIFO admission/eviction.
// Grounded on the teacher's index-and-last-time accrual pattern in
// core/state/staking_rewards.go, generalized from a single APR-bps stream to
// a per-stream eps/expiration schedule.
package emissions

import (
	"math/big"

	"corelend/crypto"
	"corelend/errs"
	"corelend/fixedpoint"
)

// Entry is one reward-zone member: the pool address and the LP-token
// balance the zone ranks entries by for eviction comparisons.
type Entry struct {
	Pool   crypto.Address
	Tokens *big.Int
}

const secondsPerWeek = 7 * 24 * 60 * 60

// Config is one emission stream's live allocation: eps tokens/second,
// expiring at ExpTime. A stream with ExpTime <= now is inert until gulped
// again.
type Config struct {
	ExpTime uint64
	EPS     *big.Int
}

// Data is one emission stream's accrual state.
type Data struct {
	Index    *big.Int // SCALAR_7, liquidity/share-weighted cumulative emission
	LastTime uint64
}

// UserData is one user's accrual state against a stream.
type UserData struct {
	Index   *big.Int
	Accrued *big.Int
}

// Accrue advances a stream's index by the eps emitted since LastTime,
// liquidity-weighted by the supplied denominator (total supply minus queued
// withdrawals, for the backstop stream; total debt/supply tokens, for a
// reserve stream). A stream past its expiration only accrues up to ExpTime.
func Accrue(data Data, cfg Config, now uint64, denominator *big.Int) Data {
	if denominator.Sign() <= 0 || data.LastTime >= now {
		data.LastTime = now
		return data
	}
	elapsed := now
	if cfg.ExpTime < now {
		elapsed = cfg.ExpTime
	}
	if elapsed <= data.LastTime {
		data.LastTime = now
		return data
	}
	dt := elapsed - data.LastTime
	emitted := new(big.Int).Mul(cfg.EPS, big.NewInt(int64(dt)))
	delta := fixedpoint.DivFloor(emitted, fixedpoint.Scalar7, denominator)
	return Data{Index: new(big.Int).Add(data.Index, delta), LastTime: now}
}

// AccrueUser folds a stream's index movement into a user's accrued balance,
// weighted by the user's shares, then snaps the user's index forward.
func AccrueUser(user UserData, streamIndex *big.Int, shares *big.Int) UserData {
	diff := new(big.Int).Sub(streamIndex, user.Index)
	gain := fixedpoint.MulFloor(shares, diff, fixedpoint.Scalar7)
	return UserData{Index: new(big.Int).Set(streamIndex), Accrued: new(big.Int).Add(user.Accrued, gain)}
}

// GulpReserve opens (or rolls forward) a reserve token's weekly emission
// config: any unclaimed eps-seconds from a still-live prior config (exp_time
// > now) is folded into the new total before the 7-day eps is recomputed,
// so a reserve that is re-gulped mid-week does not lose the remainder of
// its prior allocation.
func GulpReserve(prior Config, newTokens *big.Int, now uint64) Config {
	total := new(big.Int).Set(newTokens)
	if prior.ExpTime > now {
		remainingSeconds := prior.ExpTime - now
		total.Add(total, new(big.Int).Mul(prior.EPS, big.NewInt(int64(remainingSeconds))))
	}
	eps := new(big.Int).Quo(total, big.NewInt(secondsPerWeek))
	return Config{ExpTime: now + secondsPerWeek, EPS: eps}
}

// maxRewardZoneSize is 10 plus one slot every ~97 days (2^23 seconds) since
// epoch, per §4.7's "grows by one every ~97 days" schedule.
func maxRewardZoneSize(now, epoch uint64) int {
	if now <= epoch {
		return 10
	}
	return 10 + int((now-epoch)>>23)
}

// TryAdmit attempts to add candidate to the reward zone, evicting remove if
// the zone is already at capacity. It enforces: the zone has room, or
// remove is named and its tokens are strictly exceeded by candidate's; and
// the swap is not attempted within 48 hours of the next distribution.
func TryAdmit(zone []Entry, candidate Entry, remove *Entry, now, epoch, nextDistribution uint64) ([]Entry, error) {
	for _, e := range zone {
		if e.Pool.Equal(candidate.Pool) {
			return zone, errs.ErrInvalidRewardZoneEntry
		}
	}
	if len(zone) < maxRewardZoneSize(now, epoch) {
		return append(append([]Entry{}, zone...), candidate), nil
	}
	if remove == nil {
		return zone, errs.ErrInvalidRewardZoneEntry
	}
	if nextDistribution > now && nextDistribution-now < 48*60*60 {
		return zone, errs.ErrInvalidRewardZoneEntry
	}
	if candidate.Tokens.Cmp(remove.Tokens) <= 0 {
		return zone, errs.ErrInvalidRewardZoneEntry
	}
	out := make([]Entry, 0, len(zone))
	found := false
	for _, e := range zone {
		if !found && e.Pool.Equal(remove.Pool) {
			found = true
			continue
		}
		out = append(out, e)
	}
	if !found {
		return zone, errs.ErrInvalidRewardZoneEntry
	}
	return append(out, candidate), nil
}
