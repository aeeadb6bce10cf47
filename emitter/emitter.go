// Package emitter implements the fixed-rate BLND distributor and its
// 31-day-unlock backstop-swap queue: distribute(), queue_swap_backstop(),
// swap_backstop(), cancel_swap_backstop(), drop() exactly per §4.9. Grounded
// on native/swap/redeem.go's queue/unlock_time pattern, generalized from a
// burn-receipt unlock to a backstop-rotation unlock.
package emitter

import (
	"math/big"

	"corelend/crypto"
	"corelend/errs"
	"corelend/observability/metrics"
	"corelend/storage"
)

// blndPerSecond is the emitter's fixed distribution rate, 1 BLND/second in
// SCALAR_7 raw units.
var blndPerSecond = big.NewInt(10_000_000)

const swapUnlockSeconds = 31 * 24 * 60 * 60

// Token is the narrow BLND collaborator: transfer only, since the emitter
// never needs to query its own balance (it distributes by accrual, not by
// balance draw-down) and never approves.
type Token interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// BackstopToken is the narrow collaborator used to compare the current and
// candidate backstops' staked-token balances at swap time.
type BackstopToken interface {
	Balance(holder crypto.Address) (*big.Int, error)
}

// PendingSwap is a queued backstop rotation awaiting its 31-day unlock.
type PendingSwap struct {
	NewBackstop crypto.Address
	NewToken    crypto.Address
	UnlockTime  uint64
}

// Emitter is the singleton BLND distributor. Its current backstop and
// backstop-token addresses, last distribution time, fork sequence, and any
// pending swap are all one persisted record (EmitterStateKey), since they
// are always read and mutated together.
type Emitter struct {
	Address crypto.Address
	tracker *storage.TTLTracker
	blnd    Token
}

func New(addr crypto.Address, tracker *storage.TTLTracker, blnd Token) *Emitter {
	return &Emitter{Address: addr, tracker: tracker, blnd: blnd}
}

type state struct {
	Backstop       crypto.Address
	BackstopToken  crypto.Address
	LastDistroTime uint64
	Fork           uint64
	HasPending     bool
	Pending        PendingSwap
}

func (e *Emitter) load() (state, error) {
	var stored storedState
	found, err := storage.Load(e.tracker, storage.EmitterStateKey(), &stored)
	if err != nil {
		return state{}, err
	}
	if !found {
		return state{}, errs.ErrBadRequest
	}
	return stored.toState(), nil
}

func (e *Emitter) save(s state) error {
	return storage.Save(e.tracker, storage.EmitterStateKey(), storage.TierInstance, fromState(s))
}

// Initialize sets the emitter's first backstop and token and starts the
// distribution clock at now.
func (e *Emitter) Initialize(backstop, backstopToken crypto.Address, now uint64) error {
	if _, err := e.load(); err == nil {
		return errs.ErrAlreadyInitialized
	}
	return e.save(state{Backstop: backstop, BackstopToken: backstopToken, LastDistroTime: now})
}

// Distribute credits the elapsed seconds since the last distribution to the
// current backstop at the fixed 1 BLND/second rate and transfers the BLND
// out. Callable by anyone, per §4.9.
func (e *Emitter) Distribute(now uint64) (*big.Int, error) {
	if err := e.tracker.BumpEntry(storage.InstanceAdminKey(), storage.TierInstance); err != nil {
		return nil, err
	}
	s, err := e.load()
	if err != nil {
		return nil, err
	}
	amount := e.accrue(&s, now)
	if err := e.save(s); err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := e.blnd.Transfer(e.Address, s.Backstop, amount); err != nil {
		return nil, err
	}
	metrics.Emissions().RecordEmitterDistribution(now)
	return amount, nil
}

// accrue advances s.LastDistroTime to now and returns the BLND owed for the
// elapsed interval, without transferring it; shared by Distribute and the
// swap tail distribution in Swap.
func (e *Emitter) accrue(s *state, now uint64) *big.Int {
	if now <= s.LastDistroTime {
		return big.NewInt(0)
	}
	elapsed := now - s.LastDistroTime
	s.LastDistroTime = now
	return new(big.Int).Mul(blndPerSecond, new(big.Int).SetUint64(elapsed))
}

// QueueSwapBackstop records a pending rotation to newBackstop/newToken,
// unlocking 31 days from now.
func (e *Emitter) QueueSwapBackstop(newBackstop, newToken crypto.Address, now uint64) error {
	s, err := e.load()
	if err != nil {
		return err
	}
	if s.HasPending {
		return errs.ErrSwapAlreadyExists
	}
	s.HasPending = true
	s.Pending = PendingSwap{NewBackstop: newBackstop, NewToken: newToken, UnlockTime: now + swapUnlockSeconds}
	return e.save(s)
}

// CancelSwapBackstop cancels a queued swap before it unlocks, but only while
// the candidate backstop's staked-token balance no longer strictly exceeds
// the current backstop's — once the candidate is ahead, only Swap may
// consume the queue entry.
func (e *Emitter) CancelSwapBackstop(now uint64, currentToken, newToken BackstopToken) error {
	s, err := e.load()
	if err != nil {
		return err
	}
	if !s.HasPending {
		return errs.ErrSwapNotQueued
	}
	ahead, err := e.candidateAhead(s, currentToken, newToken)
	if err != nil {
		return err
	}
	if ahead {
		return errs.ErrSwapCannotBeCanceled
	}
	s.HasPending = false
	s.Pending = PendingSwap{}
	return e.save(s)
}

// SwapBackstop executes a queued rotation once it has unlocked and the
// candidate backstop's token balance still strictly exceeds the current
// backstop's: it distributes the accrual tail to the old backstop, rotates
// the backstop/token pair, resets the new backstop's distribution clock to
// now, and advances the fork sequence.
func (e *Emitter) SwapBackstop(now uint64, currentToken, newToken BackstopToken) error {
	s, err := e.load()
	if err != nil {
		return err
	}
	if !s.HasPending {
		return errs.ErrSwapNotQueued
	}
	if s.Pending.UnlockTime > now {
		return errs.ErrSwapNotUnlocked
	}
	ahead, err := e.candidateAhead(s, currentToken, newToken)
	if err != nil {
		return err
	}
	if !ahead {
		return errs.ErrInsufficientBackstopSize
	}

	tail := e.accrue(&s, now)
	oldBackstop := s.Backstop
	s.Backstop = s.Pending.NewBackstop
	s.BackstopToken = s.Pending.NewToken
	s.LastDistroTime = now
	s.Fork++
	s.HasPending = false
	s.Pending = PendingSwap{}
	if err := e.save(s); err != nil {
		return err
	}
	if tail.Sign() == 0 {
		return nil
	}
	return e.blnd.Transfer(e.Address, oldBackstop, tail)
}

func (e *Emitter) candidateAhead(s state, currentToken, newToken BackstopToken) (bool, error) {
	currentBalance, err := currentToken.Balance(s.Backstop)
	if err != nil {
		return false, err
	}
	newBalance, err := newToken.Balance(s.Pending.NewBackstop)
	if err != nil {
		return false, err
	}
	return newBalance.Cmp(currentBalance) > 0, nil
}

// Drop transfers amounts[i] of BLND to recipients[i] for each named
// recipient, the drop(list) contract entry. It records nothing about the
// drop having run: every call transfers again.
func (e *Emitter) Drop(recipients []crypto.Address, amounts []*big.Int) error {
	if len(recipients) != len(amounts) {
		return errs.ErrBadRequest
	}
	for i, to := range recipients {
		if err := e.blnd.Transfer(e.Address, to, amounts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Fork returns the current fork sequence, the ledger-rotation counter
// advanced by every successful SwapBackstop.
func (e *Emitter) Fork() (uint64, error) {
	s, err := e.load()
	if err != nil {
		return 0, err
	}
	return s.Fork, nil
}

// CurrentBackstop returns the emitter's current backstop address and token.
func (e *Emitter) CurrentBackstop() (backstop, token crypto.Address, err error) {
	s, loadErr := e.load()
	if loadErr != nil {
		return crypto.Address{}, crypto.Address{}, loadErr
	}
	return s.Backstop, s.BackstopToken, nil
}
