package backstop

import (
	"math/big"

	"corelend/crypto"
	"corelend/errs"
	"corelend/observability"
	"corelend/storage"
)

const q4wPeriodSeconds = 30 * 24 * 60 * 60

// Backstop is the singleton pooled-insurance engine: one LP-token balance
// per deployed pool, indexed by pool address. Grounded on native/lending's
// share-index pattern, generalized to the backstop's direct tokens/shares
// ratio (no accrual index; donate/draw mutate tokens directly).
type Backstop struct {
	Address crypto.Address
	tracker *storage.TTLTracker
	token   Token
	factory Factory
	blnd    Token
}

func New(addr crypto.Address, tracker *storage.TTLTracker, token, blnd Token, factory Factory) *Backstop {
	return &Backstop{Address: addr, tracker: tracker, token: token, blnd: blnd, factory: factory}
}

func (b *Backstop) loadPoolBalance(pool crypto.Address) (PoolBalance, error) {
	var stored storedPoolBalance
	found, err := storage.Load(b.tracker, storage.PoolBalanceKey(pool), &stored)
	if err != nil {
		return PoolBalance{}, err
	}
	if !found {
		return zeroPoolBalance(), nil
	}
	return stored.toPoolBalance(), nil
}

func (b *Backstop) savePoolBalance(pool crypto.Address, pb PoolBalance) error {
	return storage.Save(b.tracker, storage.PoolBalanceKey(pool), storage.TierPersistentShared, fromPoolBalance(pb))
}

func (b *Backstop) loadUserBalance(pool, user crypto.Address) (UserBalance, error) {
	var stored storedUserBalance
	found, err := storage.Load(b.tracker, storage.UserBalanceKey(pool, user), &stored)
	if err != nil {
		return UserBalance{}, err
	}
	if !found {
		return zeroUserBalance(), nil
	}
	return stored.toUserBalance(), nil
}

func (b *Backstop) saveUserBalance(pool, user crypto.Address, ub UserBalance) error {
	return storage.Save(b.tracker, storage.UserBalanceKey(pool, user), storage.TierPersistentUser, fromUserBalance(ub))
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errs.ErrNegativeAmount
	}
	return nil
}

// Deposit mints backstop shares for from against pool at the current
// tokens/shares ratio, pulling LP tokens from from. isFirstDeposit lets the
// caller thread through the once-per-pool factory check without this engine
// needing to track "have I seen this pool before" itself.
func (b *Backstop) Deposit(from, pool crypto.Address, amount *big.Int, isFirstDeposit bool, now uint64) (*big.Int, error) {
	if err := requirePositive(amount); err != nil {
		return nil, err
	}
	if err := b.tracker.BumpEntry(storage.InstanceBackstopKey(), storage.TierInstance); err != nil {
		return nil, err
	}
	if isFirstDeposit {
		ok, err := b.factory.IsPool(pool)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errs.ErrNotAuthorized
		}
	}
	if err := b.accrueUserEmissions(pool, from, now); err != nil {
		return nil, err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return nil, err
	}
	ub, err := b.loadUserBalance(pool, from)
	if err != nil {
		return nil, err
	}
	minted := ConvertToShares(pb, amount)
	pb.Shares = new(big.Int).Add(pb.Shares, minted)
	pb.Tokens = new(big.Int).Add(pb.Tokens, amount)
	ub.Shares = new(big.Int).Add(ub.Shares, minted)

	if err := b.savePoolBalance(pool, pb); err != nil {
		return nil, err
	}
	if err := b.saveUserBalance(pool, from, ub); err != nil {
		return nil, err
	}
	if err := b.token.Transfer(from, b.Address, amount); err != nil {
		return nil, err
	}
	observability.Backstop().ObservePoolBalance(pool.String(), pb.Shares, pb.Q4W)
	return minted, nil
}

// QueueWithdrawal moves amountShares from a user's live shares into a new
// q4w entry unlocking 30 days from now.
func (b *Backstop) QueueWithdrawal(from, pool crypto.Address, amountShares *big.Int, now uint64) (Q4WEntry, error) {
	if err := requirePositive(amountShares); err != nil {
		return Q4WEntry{}, err
	}
	if err := b.accrueUserEmissions(pool, from, now); err != nil {
		return Q4WEntry{}, err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return Q4WEntry{}, err
	}
	ub, err := b.loadUserBalance(pool, from)
	if err != nil {
		return Q4WEntry{}, err
	}
	if ub.Shares.Cmp(amountShares) < 0 {
		return Q4WEntry{}, errs.ErrInsufficientFunds
	}
	entry := Q4WEntry{Amount: new(big.Int).Set(amountShares), Exp: now + q4wPeriodSeconds}
	ub.Shares = new(big.Int).Sub(ub.Shares, amountShares)
	ub.Q4W = append(ub.Q4W, entry)
	pb.Q4W = new(big.Int).Add(pb.Q4W, amountShares)

	if err := b.savePoolBalance(pool, pb); err != nil {
		return Q4WEntry{}, err
	}
	if err := b.saveUserBalance(pool, from, ub); err != nil {
		return Q4WEntry{}, err
	}
	observability.Backstop().ObservePoolBalance(pool.String(), pb.Shares, pb.Q4W)
	return entry, nil
}

// DequeueWithdrawal reverses a queue_withdrawal: it consumes q4w entries
// from the front regardless of expiry and returns the shares to the user's
// live balance.
func (b *Backstop) DequeueWithdrawal(from, pool crypto.Address, amountShares *big.Int, now uint64) error {
	return b.consumeQueue(from, pool, amountShares, false, now, func(ub *UserBalance, pb *PoolBalance, consumed *big.Int) error {
		ub.Shares = new(big.Int).Add(ub.Shares, consumed)
		return nil
	})
}

// Withdraw consumes expired q4w entries only, converts the consumed shares
// to tokens at the current ratio, and transfers them out.
func (b *Backstop) Withdraw(from, pool crypto.Address, amountShares *big.Int, now uint64) (*big.Int, error) {
	var tokensOut *big.Int
	err := b.consumeQueue(from, pool, amountShares, true, now, func(ub *UserBalance, pb *PoolBalance, consumed *big.Int) error {
		tokensOut = ConvertToTokens(*pb, consumed)
		pb.Shares = new(big.Int).Sub(pb.Shares, consumed)
		pb.Tokens = new(big.Int).Sub(pb.Tokens, tokensOut)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := b.token.Transfer(b.Address, from, tokensOut); err != nil {
		return nil, err
	}
	return tokensOut, nil
}

// consumeQueue is the shared q4w-consumption core for dequeue/withdraw: it
// walks the deque from the front, requiring each consumed entry be expired
// when requireExpired is set, partially draining the head entry in place
// when it exceeds the remaining amount to consume, and always decrementing
// pool.Q4W by the total consumed. apply receives the fully-consumed amount
// to perform the operation-specific balance update.
func (b *Backstop) consumeQueue(from, pool crypto.Address, amountShares *big.Int, requireExpired bool, now uint64, apply func(*UserBalance, *PoolBalance, *big.Int) error) error {
	if err := requirePositive(amountShares); err != nil {
		return err
	}
	if err := b.tracker.BumpEntry(storage.InstanceBackstopKey(), storage.TierInstance); err != nil {
		return err
	}
	if err := b.accrueUserEmissions(pool, from, now); err != nil {
		return err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return err
	}
	ub, err := b.loadUserBalance(pool, from)
	if err != nil {
		return err
	}

	deque := toDeque(ub.Q4W)
	remaining := new(big.Int).Set(amountShares)
	for remaining.Sign() > 0 {
		front := deque.Front()
		if front == nil {
			return errs.ErrInsufficientFunds
		}
		entry := front.Value.(*Q4WEntry)
		if requireExpired && entry.Exp > now {
			return errs.ErrNotExpired
		}
		if entry.Amount.Cmp(remaining) <= 0 {
			remaining.Sub(remaining, entry.Amount)
			deque.Remove(front)
		} else {
			entry.Amount = new(big.Int).Sub(entry.Amount, remaining)
			remaining.SetInt64(0)
		}
	}
	ub.Q4W = fromDeque(deque)
	pb.Q4W = new(big.Int).Sub(pb.Q4W, amountShares)

	if err := apply(&ub, &pb, amountShares); err != nil {
		return err
	}
	if err := b.savePoolBalance(pool, pb); err != nil {
		return err
	}
	if err := b.saveUserBalance(pool, from, ub); err != nil {
		return err
	}
	observability.Backstop().ObservePoolBalance(pool.String(), pb.Shares, pb.Q4W)
	return nil
}

// Donate increases pool.Tokens without minting shares, socialising profit to
// every current depositor (tokens_per_share rises).
func (b *Backstop) Donate(pool crypto.Address, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return err
	}
	pb.Tokens = new(big.Int).Add(pb.Tokens, amount)
	if err := b.savePoolBalance(pool, pb); err != nil {
		return err
	}
	observability.Backstop().ObservePoolBalance(pool.String(), pb.Shares, pb.Q4W)
	return nil
}

// Draw decreases pool.Tokens without burning shares, socialising loss; it is
// called only by the pool engine on a liquidation shortfall.
func (b *Backstop) Draw(pool, to crypto.Address, amount *big.Int) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return err
	}
	if pb.Tokens.Cmp(amount) < 0 {
		return errs.ErrInsufficientFunds
	}
	pb.Tokens = new(big.Int).Sub(pb.Tokens, amount)
	if err := b.savePoolBalance(pool, pb); err != nil {
		return err
	}
	if err := b.token.Transfer(b.Address, to, amount); err != nil {
		return err
	}
	observability.Backstop().ObservePoolBalance(pool.String(), pb.Shares, pb.Q4W)
	return nil
}

// PoolBalanceOf and UserBalanceOf are read-only accessors for callers
// (auction, baddebt, rpc) that need the current balance without mutating it.
func (b *Backstop) PoolBalanceOf(pool crypto.Address) (PoolBalance, error) {
	return b.loadPoolBalance(pool)
}

func (b *Backstop) UserBalanceOf(pool, user crypto.Address) (UserBalance, error) {
	return b.loadUserBalance(pool, user)
}

// BLNDEquivalent values a pool's backstop token balance in BLND, using the
// last cached TokenValue decomposition; callers compare this against
// baddebt.CriticalLowThreshold before calling baddebt.BurnBackstopBadDebt.
func (b *Backstop) BLNDEquivalent(pool crypto.Address) (*big.Int, error) {
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return nil, err
	}
	blndPerTkn, _, err := b.TokenValue()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Quo(new(big.Int).Mul(pb.Tokens, blndPerTkn), big.NewInt(10_000_000)), nil
}
