// Package pool implements the pool engine: the submit() request pipeline,
// status gating, and dependency-ordered commit (reserves, then positions,
// then transfers). Grounded on native/lending/engine.go's Engine type and its
// Supply/Withdraw/Borrow/Repay/Liquidate methods, generalized from a
// single-collateral model to the spec's 10-request-type dispatch table.
package pool

import (
	"math/big"

	"corelend/crypto"
)

// Status gates which request types the pool accepts.
type Status uint32

const (
	StatusActive      Status = 0
	StatusOnIce       Status = 1
	StatusFrozen      Status = 2
	StatusAdminFrozen Status = 3
)

// RequestType tags one of the ten operations submit() dispatches on.
type RequestType uint32

const (
	RequestSupply                      RequestType = 0
	RequestWithdraw                     RequestType = 1
	RequestSupplyCollateral             RequestType = 2
	RequestWithdrawCollateral           RequestType = 3
	RequestBorrow                       RequestType = 4
	RequestRepay                        RequestType = 5
	RequestFillUserLiquidationAuction   RequestType = 6
	RequestFillBadDebtAuction           RequestType = 7
	RequestFillInterestAuction          RequestType = 8
	RequestDeleteLiquidationAuction     RequestType = 9
)

// String names a request type for logging and instrumentation labels.
func (t RequestType) String() string {
	switch t {
	case RequestSupply:
		return "supply"
	case RequestWithdraw:
		return "withdraw"
	case RequestSupplyCollateral:
		return "supply_collateral"
	case RequestWithdrawCollateral:
		return "withdraw_collateral"
	case RequestBorrow:
		return "borrow"
	case RequestRepay:
		return "repay"
	case RequestFillUserLiquidationAuction:
		return "fill_user_liquidation_auction"
	case RequestFillBadDebtAuction:
		return "fill_bad_debt_auction"
	case RequestFillInterestAuction:
		return "fill_interest_auction"
	case RequestDeleteLiquidationAuction:
		return "delete_liquidation_auction"
	default:
		return "unknown"
	}
}

// Request is one entry of a submit() call.
type Request struct {
	Type    RequestType
	Address crypto.Address // reserve asset, or liquidated user for auction fills
	Amount  *big.Int       // MaxAmount means "as much as possible" (full withdraw/repay)
}

// MaxAmount is the sentinel request amount meaning "all of it": full
// withdrawal of a supply position, or full repayment of a liability.
var MaxAmount = new(big.Int).Lsh(big.NewInt(1), 127)

// Config is the pool's static configuration, persisted as PoolConfig.
type Config struct {
	Admin            crypto.Address
	Oracle           crypto.Address
	Backstop         crypto.Address
	BackstopTakeRate *big.Int // SCALAR_9
	MaxPositions     int
	Status           Status
}
