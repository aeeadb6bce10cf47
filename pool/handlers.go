package pool

import (
	"math/big"
	"strconv"

	"corelend/auction"
	"corelend/crypto"
	"corelend/errs"
	"corelend/fixedpoint"
	"corelend/health"
	"corelend/observability"
	"corelend/position"
	"corelend/reserve"
	"corelend/storage"
)

func (p *Pool) handleSupply(ws *workspace, cfg Config, pos *position.Positions, spender crypto.Address, req Request) error {
	if err := requireStatusAtMost(cfg, StatusOnIce); err != nil {
		return err
	}
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	bAmount := r.ToBTokenDown(req.Amount)
	pos.AddSupply(r.Index, bAmount)
	r.Data.BSupply = new(big.Int).Add(r.Data.BSupply, bAmount)
	r.Dirty = true
	ws.enqueueTransfer(req.Address, spender, p.Address, req.Amount)
	return nil
}

func (p *Pool) handleWithdraw(ws *workspace, pos *position.Positions, to crypto.Address, req Request) error {
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	var bAmount *big.Int
	if req.Amount.Cmp(MaxAmount) >= 0 {
		bAmount = pos.Supply[r.Index]
		if bAmount == nil {
			bAmount = big.NewInt(0)
		}
	} else {
		bAmount = r.ToBTokenUp(req.Amount)
	}
	consumed := pos.RemoveSupply(r.Index, bAmount)
	r.Data.BSupply = new(big.Int).Sub(r.Data.BSupply, consumed)
	r.Dirty = true
	underlying := r.FromBTokenDown(consumed)
	ws.enqueueTransfer(req.Address, p.Address, to, underlying)
	return nil
}

func (p *Pool) handleSupplyCollateral(ws *workspace, cfg Config, pos *position.Positions, spender crypto.Address, req Request) error {
	if err := requireStatusAtMost(cfg, StatusOnIce); err != nil {
		return err
	}
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	bAmount := r.ToBTokenDown(req.Amount)
	pos.AddCollateral(r.Index, bAmount)
	r.Data.BSupply = new(big.Int).Add(r.Data.BSupply, bAmount)
	r.Dirty = true
	ws.enqueueTransfer(req.Address, spender, p.Address, req.Amount)
	return nil
}

func (p *Pool) handleWithdrawCollateral(ws *workspace, pos *position.Positions, to crypto.Address, req Request) error {
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	var bAmount *big.Int
	if req.Amount.Cmp(MaxAmount) >= 0 {
		bAmount = pos.Collateral[r.Index]
		if bAmount == nil {
			bAmount = big.NewInt(0)
		}
	} else {
		bAmount = r.ToBTokenUp(req.Amount)
	}
	consumed := pos.RemoveCollateral(r.Index, bAmount)
	r.Data.BSupply = new(big.Int).Sub(r.Data.BSupply, consumed)
	r.Dirty = true
	ws.checkHealth = true
	underlying := r.FromBTokenDown(consumed)
	ws.enqueueTransfer(req.Address, p.Address, to, underlying)
	return nil
}

func (p *Pool) handleBorrow(ws *workspace, cfg Config, pos *position.Positions, to crypto.Address, req Request) error {
	if err := requireStatusAtMost(cfg, StatusActive); err != nil {
		return err
	}
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	dAmount := r.ToDTokenUp(req.Amount)
	pos.AddLiability(r.Index, dAmount)
	r.Data.DSupply = new(big.Int).Add(r.Data.DSupply, dAmount)
	r.Dirty = true
	ws.checkHealth = true
	if err := checkUtilisation(r); err != nil {
		return err
	}
	ws.enqueueTransfer(req.Address, p.Address, to, req.Amount)
	return nil
}

func (p *Pool) handleRepay(ws *workspace, pos *position.Positions, spender crypto.Address, req Request) error {
	if err := requirePositiveAmount(req.Amount); err != nil {
		return err
	}
	r, err := ws.loadReserve(req.Address)
	if err != nil {
		return err
	}
	var dAmount *big.Int
	var payAmount *big.Int
	if req.Amount.Cmp(MaxAmount) >= 0 {
		dAmount = pos.Liabilities[r.Index]
		if dAmount == nil {
			dAmount = big.NewInt(0)
		}
		payAmount = r.FromDTokenUp(dAmount)
	} else {
		dAmount = r.ToDTokenDown(req.Amount)
		payAmount = req.Amount
	}
	consumed := pos.RemoveLiability(r.Index, dAmount)
	r.Data.DSupply = new(big.Int).Sub(r.Data.DSupply, consumed)
	r.Dirty = true
	if consumed.Cmp(dAmount) < 0 {
		payAmount = r.FromDTokenUp(consumed)
	}
	ws.enqueueTransfer(req.Address, spender, p.Address, payAmount)
	return nil
}

// checkUtilisation enforces that a reserve's utilisation never exceeds its
// configured ceiling after a state change that can only push it up (borrow).
func checkUtilisation(r *reserve.Reserve) error {
	if r.Utilisation().Cmp(big.NewInt(int64(r.Config.MaxUtil))) > 0 {
		return errs.ErrInvalidUtilRate
	}
	return nil
}

// handleFillAuction resolves the stored auction keyed by (type, subject),
// scales both sides of its price curve, and applies the fill. User
// liquidation: the bid repays the subject's liabilities and the lot is paid
// out of the subject's collateral. Bad debt: the bid repays the backstop's
// liabilities and the lot is transferred from the backstop. Interest: the
// bid is paid to the backstop and the lot is paid out of the reserve's
// backstop_credit. The subject of an auction fill is
// not necessarily the submit() caller (from), so its position record is
// loaded and persisted directly here rather than through the outer from-only
// flow.
func (p *Pool) handleFillAuction(ws *workspace, callerPositions *position.Positions, from, spender, to crypto.Address, req Request, block uint32) error {
	var auctionType auction.Type
	var subject crypto.Address
	switch req.Type {
	case RequestFillUserLiquidationAuction:
		auctionType = auction.TypeUserLiquidation
		subject = req.Address
	case RequestFillBadDebtAuction, RequestFillInterestAuction:
		cfg, err := p.loadConfig()
		if err != nil {
			return err
		}
		subject = cfg.Backstop
		if req.Type == RequestFillBadDebtAuction {
			auctionType = auction.TypeBadDebt
		} else {
			auctionType = auction.TypeInterest
		}
	}

	var data auction.Data
	found, err := storage.Load(p.tracker, storage.AuctionKey(uint32(auctionType), subject), &data)
	if err != nil {
		return err
	}
	if !found {
		return errs.ErrBadRequest
	}

	currentBlock := block
	if currentBlock < data.Block {
		currentBlock = data.Block
	}
	bid, lot := auction.Fill(&data, currentBlock, nil)

	switch auctionType {
	case auction.TypeUserLiquidation:
		subjectPositions, err := p.loadPositions(subject)
		if err != nil {
			return err
		}
		for asset, amount := range bid {
			r, err := ws.loadReserve(asset)
			if err != nil {
				return err
			}
			dAmount := r.ToDTokenDown(amount)
			consumed := subjectPositions.RemoveLiability(r.Index, dAmount)
			r.Data.DSupply = new(big.Int).Sub(r.Data.DSupply, consumed)
			r.Dirty = true
			ws.enqueueTransfer(asset, spender, p.Address, amount)
		}
		for asset, amount := range lot {
			r, err := ws.loadReserve(asset)
			if err != nil {
				return err
			}
			bAmount := r.ToBTokenUp(fixedpoint.MulFloor(amount, r.Data.BRate, fixedpoint.Scalar9))
			consumed := subjectPositions.RemoveCollateral(r.Index, bAmount)
			r.Data.BSupply = new(big.Int).Sub(r.Data.BSupply, consumed)
			r.Dirty = true
			ws.enqueueTransfer(asset, p.Address, to, r.FromBTokenDown(consumed))
		}
		if err := p.persistPositions(subject, subjectPositions); err != nil {
			return err
		}
	case auction.TypeBadDebt:
		backstopPositions, err := p.loadPositions(subject)
		if err != nil {
			return err
		}
		for asset, amount := range bid {
			r, err := ws.loadReserve(asset)
			if err != nil {
				return err
			}
			dAmount := r.ToDTokenDown(amount)
			consumed := backstopPositions.RemoveLiability(r.Index, dAmount)
			r.Data.DSupply = new(big.Int).Sub(r.Data.DSupply, consumed)
			r.Dirty = true
			ws.enqueueTransfer(asset, spender, p.Address, amount)
		}
		for asset, amount := range lot {
			ws.enqueueTransfer(asset, subject, to, amount)
		}
		if err := p.persistPositions(subject, backstopPositions); err != nil {
			return err
		}
	case auction.TypeInterest:
		for asset, amount := range bid {
			ws.enqueueTransfer(asset, spender, subject, amount)
		}
		for asset, amount := range lot {
			r, err := ws.loadReserve(asset)
			if err != nil {
				return err
			}
			r.Data.BackstopCredit = new(big.Int).Sub(r.Data.BackstopCredit, amount)
			r.Dirty = true
			ws.enqueueTransfer(asset, p.Address, to, amount)
		}
	}

	remainingBid, remainingLot := remaining(data.Bid, bid), remaining(data.Lot, lot)
	observability.Auction().RecordFilled(p.Address.String(), strconv.Itoa(int(auctionType)))
	if isZeroMap(remainingBid) && isZeroMap(remainingLot) {
		return storage.Delete(p.tracker, storage.AuctionKey(uint32(auctionType), subject))
	}
	data.Bid, data.Lot = remainingBid, remainingLot
	return storage.Save(p.tracker, storage.AuctionKey(uint32(auctionType), subject), storage.TierPersistentShared, data)
}

func remaining(total, consumed map[crypto.Address]*big.Int) map[crypto.Address]*big.Int {
	out := make(map[crypto.Address]*big.Int, len(total))
	for asset, amount := range total {
		left := new(big.Int).Sub(amount, consumed[asset])
		if left.Sign() < 0 {
			left = big.NewInt(0)
		}
		out[asset] = left
	}
	return out
}

func isZeroMap(m map[crypto.Address]*big.Int) bool {
	for _, v := range m {
		if v.Sign() != 0 {
			return false
		}
	}
	return true
}

// handleDeleteAuction cancels a type-0 auction if the subject user has
// become healthy (HF >= 1.0) through independent means.
func (p *Pool) handleDeleteAuction(ws *workspace, req Request) error {
	subject := req.Address
	var data auction.Data
	found, err := storage.Load(p.tracker, storage.AuctionKey(uint32(auction.TypeUserLiquidation), subject), &data)
	if err != nil {
		return err
	}
	if !found {
		return errs.ErrBadRequest
	}
	subjectPositions, err := p.loadPositions(subject)
	if err != nil {
		return err
	}
	hf, err := p.healthFactorOf(ws, subjectPositions)
	if err != nil {
		return err
	}
	if hf.Cmp(health.LiquidatableHF) < 0 {
		return errs.ErrInvalidHF
	}
	if err := storage.Delete(p.tracker, storage.AuctionKey(uint32(auction.TypeUserLiquidation), subject)); err != nil {
		return err
	}
	observability.Auction().RecordDeleted(p.Address.String(), strconv.Itoa(int(auction.TypeUserLiquidation)))
	return nil
}

// healthFactorOf loads every reserve a position touches (by asset address,
// via the pool's reserve list) into the workspace cache and computes the
// resulting health factor, used by submit's post-request health check and by
// the delete-auction guard.
func (p *Pool) healthFactorOf(ws *workspace, pos *position.Positions) (*big.Int, error) {
	assets, err := p.reserveList()
	if err != nil {
		return nil, err
	}
	for _, asset := range assets {
		r, err := ws.loadReserve(asset)
		if err != nil {
			return nil, err
		}
		if _, err := ws.price(r); err != nil {
			return nil, err
		}
	}
	result := health.Compute(pos, ws.reservesIdx, ws.prices)
	return result.HF, nil
}

func (p *Pool) reserveList() ([]crypto.Address, error) {
	var stored storedAddressList
	found, err := storage.Load(p.tracker, storage.ReserveListKey(), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	out := make([]crypto.Address, 0, len(stored.Assets))
	for _, b := range stored.Assets {
		out = append(out, addrFromBytes(b))
	}
	return out, nil
}

type storedAddressList struct {
	Assets [][]byte
}
