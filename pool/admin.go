package pool

import (
	"math/big"
	"strconv"

	"corelend/auction"
	"corelend/baddebt"
	"corelend/crypto"
	"corelend/errs"
	"corelend/health"
	"corelend/observability"
	"corelend/position"
	"corelend/reserve"
	"corelend/storage"
)

const maxReserves = 40

// Initialize writes the pool's one-time configuration. It is rejected if the
// pool has already been configured, mirroring the contract surface's
// initialize/init_reserve split: initialize sets admin/oracle/backstop and
// the take rate, reserves are added one at a time afterward via InitReserve.
func (p *Pool) Initialize(admin, oracle, backstop crypto.Address, backstopTakeRate *big.Int, maxPositions int) error {
	if _, err := p.loadConfig(); err == nil {
		return errs.ErrAlreadyInitialized
	}
	if backstopTakeRate == nil || backstopTakeRate.Sign() < 0 || backstopTakeRate.Cmp(big.NewInt(1_000_000_000)) > 0 {
		return errs.ErrInvalidPoolInitArgs
	}
	if maxPositions <= 0 {
		return errs.ErrInvalidPoolInitArgs
	}
	cfg := Config{
		Admin:            admin,
		Oracle:           oracle,
		Backstop:         backstop,
		BackstopTakeRate: backstopTakeRate,
		MaxPositions:     maxPositions,
		Status:           StatusActive,
	}
	return p.saveConfig(cfg)
}

// UpdatePool rewrites the backstop take rate, authenticated by admin at the
// call site (the engine does not itself hold a signer; callers are expected
// to check cfg.Admin against the authenticated caller before invoking this).
func (p *Pool) UpdatePool(backstopTakeRate *big.Int) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return err
	}
	if backstopTakeRate == nil || backstopTakeRate.Sign() < 0 || backstopTakeRate.Cmp(big.NewInt(1_000_000_000)) > 0 {
		return errs.ErrInvalidPoolInitArgs
	}
	cfg.BackstopTakeRate = backstopTakeRate
	return p.saveConfig(cfg)
}

// InitReserve validates and stores a new reserve's configuration, assigns it
// the next index, and appends it to the pool's reserve list. A reserve's
// index never changes once assigned; the list is append-only until a future
// reserve-removal operation, which this port does not implement (matching
// the original contract, which also has none).
func (p *Pool) InitReserve(asset crypto.Address, cfg reserve.Config) error {
	if err := reserve.ValidateConfig(cfg); err != nil {
		return err
	}
	var existing storedReserveConfig
	found, err := storage.Load(p.tracker, storage.ReserveConfigKey(asset), &existing)
	if err != nil {
		return err
	}
	if found {
		return errs.ErrAlreadyInitialized
	}
	assets, err := p.reserveList()
	if err != nil {
		return err
	}
	if len(assets) >= maxReserves {
		return errs.ErrInvalidReserveMetadata
	}
	index := uint32(len(assets))
	if err := storage.Save(p.tracker, storage.ReserveConfigKey(asset), storage.TierPersistentShared, fromReserveConfig(index, cfg)); err != nil {
		return err
	}
	zero := fromReserveData(reserve.Data{
		DRate: big.NewInt(1_000_000_000), BRate: big.NewInt(1_000_000_000), IRMod: big.NewInt(1_000_000_000),
		DSupply: big.NewInt(0), BSupply: big.NewInt(0), BackstopCredit: big.NewInt(0),
	})
	if err := storage.Save(p.tracker, storage.ReserveDataKey(asset), storage.TierPersistentShared, zero); err != nil {
		return err
	}
	assets = append(assets, asset)
	return p.saveReserveList(assets)
}

// UpdateReserve accrues the existing reserve to now, then overwrites its
// configuration, per §4.3's "data is accrued to now first, then config
// overwritten."
func (p *Pool) UpdateReserve(asset crypto.Address, newConfig reserve.Config, now uint64) error {
	r, err := p.loadReserve(asset, now)
	if err != nil {
		return err
	}
	updated, err := reserve.UpdateConfig(r, newConfig, now, nil, nil)
	if err != nil {
		return err
	}
	return p.persistReserve(updated)
}

// GetReserve returns the reserve's current, accrued-to-now view without
// persisting it; callers that intend to mutate state should go through
// Submit instead.
func (p *Pool) GetReserve(asset crypto.Address, now uint64) (*reserve.Reserve, error) {
	return p.loadReserve(asset, now)
}

// GetPositions returns a user's current position record.
func (p *Pool) GetPositions(user crypto.Address) (*position.Positions, error) {
	return p.loadPositions(user)
}

// SetStatus forces the pool into the given status, authenticated by admin at
// the call site.
func (p *Pool) SetStatus(status Status) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return err
	}
	cfg.Status = status
	return p.saveConfig(cfg)
}

// allReservesAndPrices loads every reserve the pool has initialized, accrued
// to now, along with a fresh oracle price for each, for use by the
// auction-creation entry points below (which operate outside of Submit's
// request pipeline and so need their own workspace-equivalent cache).
func (p *Pool) allReservesAndPrices(now uint64) (map[uint32]*reserve.Reserve, health.Prices, error) {
	ws := newWorkspace(p, now)
	assets, err := p.reserveList()
	if err != nil {
		return nil, nil, err
	}
	for _, asset := range assets {
		r, err := ws.loadReserve(asset)
		if err != nil {
			return nil, nil, err
		}
		if _, err := ws.price(r); err != nil {
			return nil, nil, err
		}
	}
	return ws.reservesIdx, ws.prices, nil
}

// NewLiquidationAuction opens a type-0 auction against user, grounded on
// §4.6's get_auction/new_liquidation_auction pair; percent fixes the
// fraction of user's collateral seized as the auction's lot.
func (p *Pool) NewLiquidationAuction(user crypto.Address, percent uint32, now uint64, block uint32) (*auction.Data, error) {
	positions, err := p.loadPositions(user)
	if err != nil {
		return nil, err
	}
	reserves, prices, err := p.allReservesAndPrices(now)
	if err != nil {
		return nil, err
	}
	hf := health.Compute(positions, reserves, prices)
	if hf.HF.Cmp(health.LiquidatableHF) >= 0 {
		return nil, errs.ErrInvalidLiquidation
	}
	data, err := auction.NewLiquidationAuction(user, positions, reserves, prices, percent, block)
	if err != nil {
		return nil, err
	}
	if err := storage.Save(p.tracker, storage.AuctionKey(uint32(auction.TypeUserLiquidation), user), storage.TierPersistentShared, *data); err != nil {
		return nil, err
	}
	observability.Auction().RecordCreated(p.Address.String(), strconv.Itoa(int(auction.TypeUserLiquidation)))
	return data, nil
}

// DeleteLiquidationAuction is the standalone entry point matching
// del_liquidation_auction; it shares handleDeleteAuction's logic with the
// submit()-request form (RequestDeleteLiquidationAuction).
func (p *Pool) DeleteLiquidationAuction(user crypto.Address, now uint64) error {
	ws := newWorkspace(p, now)
	return p.handleDeleteAuction(ws, Request{Type: RequestDeleteLiquidationAuction, Address: user})
}

// NewAuction opens a type-1 (bad debt) or type-2 (interest) auction against
// the backstop, matching the generic new_auction(type) contract entry.
func (p *Pool) NewAuction(auctionType auction.Type, now uint64, block uint32) (*auction.Data, error) {
	cfg, err := p.loadConfig()
	if err != nil {
		return nil, err
	}
	reserves, prices, err := p.allReservesAndPrices(now)
	if err != nil {
		return nil, err
	}
	var data *auction.Data
	switch auctionType {
	case auction.TypeBadDebt:
		backstopPositions, err := p.loadPositions(cfg.Backstop)
		if err != nil {
			return nil, err
		}
		blndPrice, err := p.priceOf(crypto.ModuleAddress("blnd"))
		if err != nil {
			return nil, err
		}
		data, err = auction.NewBadDebtAuction(cfg.Backstop, backstopPositions, reserves, prices, blndPrice, block)
		if err != nil {
			return nil, err
		}
	case auction.TypeInterest:
		usdcPrice, err := p.priceOf(crypto.ModuleAddress("usdc"))
		if err != nil {
			return nil, err
		}
		dec, err := p.oracle.Decimals()
		if err != nil {
			return nil, err
		}
		data, err = auction.NewInterestAuction(cfg.Backstop, reserves, prices, usdcPrice, dec, block)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errs.ErrBadRequest
	}
	if err := storage.Save(p.tracker, storage.AuctionKey(uint32(auctionType), cfg.Backstop), storage.TierPersistentShared, *data); err != nil {
		return nil, err
	}
	observability.Auction().RecordCreated(p.Address.String(), strconv.Itoa(int(auctionType)))
	return data, nil
}

// GetAuction returns the stored auction keyed by (type, subject), matching
// the get_auction(type, user) contract entry.
func (p *Pool) GetAuction(auctionType auction.Type, subject crypto.Address) (*auction.Data, bool, error) {
	var data auction.Data
	found, err := storage.Load(p.tracker, storage.AuctionKey(uint32(auctionType), subject), &data)
	if err != nil || !found {
		return nil, found, err
	}
	return &data, true, nil
}

// BadDebt matches the generic bad_debt(user) contract entry: naming the
// backstop itself as user triggers BurnBackstopBadDebt, naming any other
// user with empty collateral and non-empty liabilities re-owns their debt to
// the backstop via TransferBadDebt.
func (p *Pool) BadDebt(user crypto.Address, now uint64) error {
	cfg, err := p.loadConfig()
	if err != nil {
		return err
	}
	if user.Equal(cfg.Backstop) {
		return p.burnBackstopBadDebt(cfg, now)
	}
	return p.transferBadDebt(cfg, user)
}

func (p *Pool) transferBadDebt(cfg Config, user crypto.Address) error {
	subject, err := p.loadPositions(user)
	if err != nil {
		return err
	}
	backstopPositions, err := p.loadPositions(cfg.Backstop)
	if err != nil {
		return err
	}
	if err := baddebt.TransferBadDebt(subject, backstopPositions); err != nil {
		return err
	}
	if err := p.persistPositions(user, subject); err != nil {
		return err
	}
	return p.persistPositions(cfg.Backstop, backstopPositions)
}

func (p *Pool) burnBackstopBadDebt(cfg Config, now uint64) error {
	_, found, err := p.GetAuction(auction.TypeBadDebt, cfg.Backstop)
	if err != nil {
		return err
	}
	if found {
		return errs.ErrAuctionInProgress
	}
	blndEquivalent, err := p.backstop.BLNDEquivalent(p.Address)
	if err != nil {
		return err
	}
	if !baddebt.BelowCriticalThreshold(blndEquivalent, baddebt.CriticalLowThreshold) {
		return errs.ErrBadRequest
	}
	backstopPositions, err := p.loadPositions(cfg.Backstop)
	if err != nil {
		return err
	}
	assets, err := p.reserveList()
	if err != nil {
		return err
	}
	err = baddebt.BurnBackstopBadDebt(backstopPositions, func(idx uint32, amount *big.Int) error {
		if int(idx) >= len(assets) {
			return errs.ErrBadRequest
		}
		r, err := p.loadReserve(assets[idx], now)
		if err != nil {
			return err
		}
		r.Data.DSupply = new(big.Int).Sub(r.Data.DSupply, amount)
		r.Dirty = true
		return p.persistReserve(r)
	})
	if err != nil {
		return err
	}
	return p.persistPositions(cfg.Backstop, backstopPositions)
}

// priceOf queries the oracle directly for an asset that is not itself a pool
// reserve (BLND and USDC, used by the bad-debt and interest auctions).
func (p *Pool) priceOf(asset crypto.Address) (*big.Int, error) {
	quote, err := p.oracle.LastPrice(asset)
	if err != nil {
		return nil, err
	}
	return quote.Price, nil
}

func (p *Pool) saveReserveList(assets []crypto.Address) error {
	stored := storedAddressList{Assets: make([][]byte, len(assets))}
	for i, a := range assets {
		stored.Assets[i] = a.Bytes()
	}
	return storage.Save(p.tracker, storage.ReserveListKey(), storage.TierPersistentShared, stored)
}
