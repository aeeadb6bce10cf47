package backstop

import (
	"math/big"

	"corelend/crypto"
)

// Token is the fungible-token collaborator the backstop pulls LP shares
// from and pays them back to, mirroring pool.Token's shape minus the asset
// parameter; the backstop package does not import the pool package.
type Token interface {
	Balance(holder crypto.Address) (*big.Int, error)
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// Factory authenticates that a pool address was deployed by the pool
// factory, consulted once per pool on its first backstop deposit.
type Factory interface {
	IsPool(addr crypto.Address) (bool, error)
}
