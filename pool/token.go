package pool

import (
	"math/big"

	"corelend/crypto"
)

// Token is the fungible-token collaborator consumed by the pool: balances
// (used as a reserve's cash_balance on accrual) and transfers (performed last
// in a submit() call, per the mandatory reserves/positions/transfers
// ordering). Grounded on native/lending/engine.go's token-transfer calls via
// its state.Manager, generalized to an explicit external interface since this
// port has no in-process ledger token model.
type Token interface {
	Balance(asset, holder crypto.Address) (*big.Int, error)
	Transfer(asset, from, to crypto.Address, amount *big.Int) error
}

// transfer is one deferred token movement, executed only after every dirty
// reserve and position has been persisted.
type transfer struct {
	asset      crypto.Address
	from, to   crypto.Address
	amount     *big.Int
}
