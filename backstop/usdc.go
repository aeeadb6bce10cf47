package backstop

import (
	"math/big"

	"corelend/crypto"
	"corelend/observability"
	"corelend/storage"
)

// CometPool is the Comet-like backstop LP pool consumed by the backstop
// module to turn donated USDC into more LP tokens, per spec §6's "Backstop
// LP pool (Comet-like)" external interface.
type CometPool interface {
	SingleTokenDeposit(token crypto.Address, amountIn *big.Int, minSharesOut *big.Int, to crypto.Address) (*big.Int, error)
	GetTotalSupply() (*big.Int, error)
}

func (b *Backstop) loadPoolUSDC(pool crypto.Address) (*big.Int, error) {
	return storage.LoadBigInt(b.tracker, storage.PoolUSDCKey(pool))
}

func (b *Backstop) savePoolUSDC(pool crypto.Address, amount *big.Int) error {
	return storage.SaveBigInt(b.tracker, storage.PoolUSDCKey(pool), storage.TierPersistentShared, amount)
}

// DonateUSDC queues USDC for pool, to be converted into LP tokens on the
// next GulpUSDC call rather than immediately, matching the
// donate_usdc/gulp_usdc split in spec §6.
func (b *Backstop) DonateUSDC(from, pool crypto.Address, amount *big.Int, usdc Token) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	pending, err := b.loadPoolUSDC(pool)
	if err != nil {
		return err
	}
	pending = new(big.Int).Add(pending, amount)
	if err := b.savePoolUSDC(pool, pending); err != nil {
		return err
	}
	return usdc.Transfer(from, b.Address, amount)
}

// GulpUSDC deposits the pool's queued USDC into the Comet LP pool via
// single-sided deposit and credits the resulting LP tokens to the pool's
// backstop balance without minting shares (a donation of the proceeds).
func (b *Backstop) GulpUSDC(pool, usdcAsset crypto.Address, comet CometPool) (*big.Int, error) {
	pending, err := b.loadPoolUSDC(pool)
	if err != nil {
		return nil, err
	}
	if pending.Sign() == 0 {
		return big.NewInt(0), nil
	}
	sharesOut, err := comet.SingleTokenDeposit(usdcAsset, pending, big.NewInt(0), b.Address)
	if err != nil {
		return nil, err
	}
	if err := b.savePoolUSDC(pool, big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := b.Donate(pool, sharesOut); err != nil {
		return nil, err
	}
	return sharesOut, nil
}

// UpdateTokenValue recomputes and caches the LP token's per-share BLND/USDC
// decomposition from the Comet pool's total supply and the emitter's known
// BLND/USDC reserve balances, read back through TokenValue by BLNDEquivalent
// (the auction constructors take BLND/USDC prices from the oracle instead).
// Supplemented per §4 (original_source's
// backstop-module/src/distributor.rs caches the same valuation; spec §4.6
// only names the prices it consumes, not how they are derived).
func (b *Backstop) UpdateTokenValue(totalSupply, blndReserve, usdcReserve *big.Int) (blndPerTkn, usdcPerTkn *big.Int, err error) {
	if totalSupply.Sign() == 0 {
		blndPerTkn, usdcPerTkn = big.NewInt(0), big.NewInt(0)
	} else {
		blndPerTkn = new(big.Int).Quo(new(big.Int).Mul(blndReserve, big.NewInt(10_000_000)), totalSupply)
		usdcPerTkn = new(big.Int).Quo(new(big.Int).Mul(usdcReserve, big.NewInt(10_000_000)), totalSupply)
	}
	stored := storedTokenValue{BLNDPerTkn: blndPerTkn, USDCPerTkn: usdcPerTkn}
	if err := storage.Save(b.tracker, storage.LPTokenValueKey(), storage.TierPersistentShared, stored); err != nil {
		return nil, nil, err
	}
	observability.Backstop().ObserveTokenValue("global", blndPerTkn)
	return blndPerTkn, usdcPerTkn, nil
}

type storedTokenValue struct {
	BLNDPerTkn, USDCPerTkn *big.Int
}

// TokenValue returns the last cached per-share decomposition.
func (b *Backstop) TokenValue() (blndPerTkn, usdcPerTkn *big.Int, err error) {
	var stored storedTokenValue
	found, err := storage.Load(b.tracker, storage.LPTokenValueKey(), &stored)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return big.NewInt(0), big.NewInt(0), nil
	}
	return stored.BLNDPerTkn, stored.USDCPerTkn, nil
}
