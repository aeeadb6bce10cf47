// Package ledger provides an in-process fungible-token ledger satisfying
// pool.Token, backstop.Token, and emitter.Token. Grounded on the teacher's
// core/state.Manager balance/transfer pair (Balance(addr, symbol), SetBalance),
// generalized from one shared account-state manager to a standalone
// multi-asset ledger so corelendd can run without the teacher's full chain
// state machine.
package ledger

import (
	"math/big"
	"sync"

	"corelend/crypto"
	"corelend/errs"
)

type balanceKey struct {
	asset, holder crypto.Address
}

// Ledger is a thread-safe, multi-asset fungible-token balance sheet.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]*big.Int
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{balances: make(map[balanceKey]*big.Int)}
}

// Mint credits amount of asset to holder, used only at genesis/test setup;
// it is not part of any Token interface the engines call.
func (l *Ledger) Mint(asset, holder crypto.Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{asset, holder}
	bal := l.balances[key]
	if bal == nil {
		bal = big.NewInt(0)
	}
	l.balances[key] = new(big.Int).Add(bal, amount)
}

// Balance implements pool.Token.
func (l *Ledger) Balance(asset, holder crypto.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balances[balanceKey{asset, holder}]
	if bal == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// Transfer implements pool.Token.
func (l *Ledger) Transfer(asset, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errs.ErrNegativeAmount
	}
	if amount.Sign() == 0 || from.Equal(to) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := balanceKey{asset, from}
	fromBal := l.balances[fromKey]
	if fromBal == nil || fromBal.Cmp(amount) < 0 {
		return errs.ErrInsufficientFunds
	}
	toKey := balanceKey{asset, to}
	toBal := l.balances[toKey]
	if toBal == nil {
		toBal = big.NewInt(0)
	}
	l.balances[fromKey] = new(big.Int).Sub(fromBal, amount)
	l.balances[toKey] = new(big.Int).Add(toBal, amount)
	return nil
}

// SingleAssetToken adapts a Ledger to backstop.Token/emitter.Token's
// single-asset (holder-only) shape, binding one fixed asset address.
type SingleAssetToken struct {
	asset  crypto.Address
	ledger *Ledger
}

// Bind returns a SingleAssetToken view over asset.
func (l *Ledger) Bind(asset crypto.Address) SingleAssetToken {
	return SingleAssetToken{asset: asset, ledger: l}
}

// Balance implements backstop.Token.
func (t SingleAssetToken) Balance(holder crypto.Address) (*big.Int, error) {
	return t.ledger.Balance(t.asset, holder)
}

// Transfer implements backstop.Token/emitter.Token.
func (t SingleAssetToken) Transfer(from, to crypto.Address, amount *big.Int) error {
	return t.ledger.Transfer(t.asset, from, to, amount)
}
