// Package auction implements the three Dutch-auction types (user
// liquidation, bad debt, accrued interest) that share a single block-distance
// price curve. Grounded on native/lending/engine.go's Liquidate collateral
// seizure math and on _examples/original_source/pool/src/auctions, generalized
// from a single-asset seize to a multi-reserve lot/bid map.
package auction

import (
	"math/big"

	"github.com/google/uuid"

	"corelend/crypto"
	"corelend/errs"
	"corelend/fixedpoint"
	"corelend/health"
	"corelend/position"
	"corelend/reserve"
)

// Type identifies one of the three auction kinds, keyed together with a
// subject address as the auction's storage key (see storage.AuctionKey).
type Type uint32

const (
	TypeUserLiquidation Type = 0
	TypeBadDebt         Type = 1
	TypeInterest        Type = 2
)

// Data is the persisted state of one in-progress auction.
type Data struct {
	Type    Type
	Subject crypto.Address
	Bid     map[crypto.Address]*big.Int
	Lot     map[crypto.Address]*big.Int
	Block   uint32

	// CorrelationID tags the auction for structured logging, a supplement
	// to the spec's storage model matching the teacher's request-id
	// logging convention across its services.
	CorrelationID string
}

func newData(t Type, subject crypto.Address, block uint32) *Data {
	return &Data{
		Type:          t,
		Subject:       subject,
		Bid:           make(map[crypto.Address]*big.Int),
		Lot:           make(map[crypto.Address]*big.Int),
		Block:         block,
		CorrelationID: uuid.NewString(),
	}
}

var (
	scalar7  = fixedpoint.Scalar7
	halfway  = big.NewInt(200)
	full     = big.NewInt(400)
	giftAt   = big.NewInt(500)
	bidFloor = big.NewInt(0)
)

// PriceAt returns (bidModifier, lotModifier), both SCALAR_7, for a fill
// attempted delta blocks after the auction's anchor block. Grounded on the
// price-curve table: the lot ramps 0%->50% over the first 200 blocks while
// bid holds at 100%; past 200 blocks the lot is 100% and the bid falls by
// 1/400 per block (75% at 300, 50% at 400, 25.25% at 499); from 500 blocks
// on the bid is 0 and the fill is a pure gift of the lot.
func PriceAt(delta uint32) (bidModifier, lotModifier *big.Int) {
	d := big.NewInt(int64(delta))
	switch {
	case d.Cmp(halfway) <= 0:
		lot := fixedpoint.DivFloor(d, scalar7, full)
		return new(big.Int).Set(scalar7), lot
	case d.Cmp(giftAt) < 0:
		excess := new(big.Int).Sub(d, halfway)
		frac := fixedpoint.DivFloor(excess, scalar7, full)
		bid := new(big.Int).Sub(scalar7, frac)
		if bid.Sign() < 0 {
			bid = big.NewInt(0)
		}
		return bid, new(big.Int).Set(scalar7)
	default:
		return new(big.Int).Set(bidFloor), new(big.Int).Set(scalar7)
	}
}

// liquidationBonus is the fixed close-factor premium (1.02 in SCALAR_7)
// applied when converting seized collateral value to repaid debt value.
var liquidationBonus = big.NewInt(10_200_000)

// targetHF is the convergence point the protocol solves for when sizing a
// liquidation fill: the lower edge of the [1.0, 1.10) target band.
var targetHF = big.NewInt(10_000_000)

var bandCeiling = big.NewInt(11_000_000)

// NewLiquidationAuction creates a type-0 auction against user, seizing
// percent (SCALAR_7, e.g. 50% = 5_000_000) of each collateral b-token and
// computing the matching debt-token bid that the formula proves restores the
// user's health factor into [1.0, 1.10).
func NewLiquidationAuction(user crypto.Address, positions *position.Positions, reserves map[uint32]*reserve.Reserve, prices health.Prices, percent uint32, block uint32) (*Data, error) {
	if len(positions.Collateral) == 0 || len(positions.Liabilities) == 0 {
		return nil, errs.ErrInvalidLiquidation
	}
	if percent == 0 || uint64(percent) > uint64(scalar7.Int64()) {
		return nil, errs.ErrBadRequest
	}

	pos := health.Compute(positions, reserves, prices)
	if pos.HF.Cmp(health.LiquidatableHF) >= 0 {
		return nil, errs.ErrInvalidLiquidation
	}
	if pos.LiabilityBase.Sign() <= 0 || pos.LiabilityRaw.Sign() <= 0 {
		return nil, errs.ErrInvalidLiquidation
	}

	percentBig := big.NewInt(int64(percent))
	lotEffective := fixedpoint.MulFloor(pos.CollateralBase, percentBig, scalar7)
	lotRawValue := fixedpoint.MulFloor(pos.CollateralRaw, percentBig, scalar7)
	bidRawValue := fixedpoint.DivFloor(lotRawValue, scalar7, liquidationBonus)
	if bidRawValue.Cmp(pos.LiabilityRaw) > 0 {
		return nil, errs.ErrInvalidLiquidation
	}

	avgLF := fixedpoint.DivFloor(pos.LiabilityRaw, scalar7, pos.LiabilityBase)
	bidEffective := fixedpoint.DivFloor(bidRawValue, scalar7, avgLF)

	newC := new(big.Int).Sub(pos.CollateralBase, lotEffective)
	newL := new(big.Int).Sub(pos.LiabilityBase, bidEffective)
	if newL.Sign() <= 0 {
		return nil, errs.ErrInvalidLiquidation
	}
	newHF := fixedpoint.DivFloor(newC, scalar7, newL)
	if newHF.Cmp(targetHF) < 0 || newHF.Cmp(bandCeiling) >= 0 {
		return nil, errs.ErrInvalidLiquidation
	}

	data := newData(TypeUserLiquidation, user, block)
	for idx, bAmount := range positions.Collateral {
		r := reserves[idx]
		if r == nil {
			continue
		}
		data.Lot[r.Asset] = fixedpoint.MulFloor(bAmount, percentBig, scalar7)
	}
	for idx, r := range liabilityReservesOf(positions, reserves) {
		price := prices[idx]
		if price == nil {
			continue
		}
		share := fixedpoint.MulFloor(bidRawValue, liabilityRawValue(positions, r, price), pos.LiabilityRaw)
		data.Bid[r.Asset] = fixedpoint.DivFloor(share, r.Scalar(), price)
	}
	return data, nil
}

func liabilityReservesOf(p *position.Positions, reserves map[uint32]*reserve.Reserve) map[uint32]*reserve.Reserve {
	out := make(map[uint32]*reserve.Reserve, len(p.Liabilities))
	for idx := range p.Liabilities {
		if r, ok := reserves[idx]; ok {
			out[idx] = r
		}
	}
	return out
}

func liabilityRawValue(p *position.Positions, r *reserve.Reserve, price *big.Int) *big.Int {
	dAmount := p.Liabilities[r.Index]
	native := r.FromDTokenUp(dAmount)
	return fixedpoint.MulCeil(price, native, r.Scalar())
}

// interestFloor is the 200-USD floor (in the oracle's own base-decimal
// scale) below which an interest auction may not be created; preserved
// exactly as the design notes specify (scaled by the oracle's decimals, not
// the 200*SCALAR_7 shortcut).
func interestFloor(oracleDecimals uint32) *big.Int {
	return new(big.Int).Mul(big.NewInt(200), fixedpoint.NewScalar(oracleDecimals))
}

// badDebtPremium is the fixed 1.40x premium (50% overcollateralisation plus a
// 40% markup) applied to the bad-debt auction's lot and to the interest
// auction's USDC bid.
var badDebtPremium = big.NewInt(14_000_000) // 1.40 * SCALAR_7

// NewBadDebtAuction creates a type-1 auction against the backstop address,
// valuing its held debt-token positions and sizing the BLND-denominated LP
// token lot at a 1.40x premium over fair value.
func NewBadDebtAuction(backstop crypto.Address, backstopPositions *position.Positions, reserves map[uint32]*reserve.Reserve, prices health.Prices, blndPrice *big.Int, block uint32) (*Data, error) {
	if len(backstopPositions.Liabilities) == 0 {
		return nil, errs.ErrBadRequest
	}
	pos := health.Compute(backstopPositions, reserves, prices)
	if pos.LiabilityRaw.Sign() <= 0 {
		return nil, errs.ErrBadRequest
	}
	data := newData(TypeBadDebt, backstop, block)
	for idx, dAmount := range backstopPositions.Liabilities {
		r := reserves[idx]
		if r == nil {
			continue
		}
		data.Bid[r.Asset] = new(big.Int).Set(dAmount)
	}
	lotValue := fixedpoint.MulFloor(pos.LiabilityRaw, badDebtPremium, scalar7)
	if blndPrice == nil || blndPrice.Sign() <= 0 {
		return nil, errs.ErrBadRequest
	}
	data.Lot[crypto.ModuleAddress("blnd")] = fixedpoint.DivFloor(lotValue, scalar7, blndPrice)
	return data, nil
}

// NewInterestAuction creates a type-2 auction against the backstop address,
// summing every reserve's accrued backstop_credit and requiring the total to
// exceed the 200-USD floor before the auction may be created.
func NewInterestAuction(backstop crypto.Address, reserves map[uint32]*reserve.Reserve, prices health.Prices, usdcPrice *big.Int, oracleDecimals uint32, block uint32) (*Data, error) {
	totalValue := big.NewInt(0)
	for idx, r := range reserves {
		price := prices[idx]
		if price == nil || r.Data.BackstopCredit.Sign() <= 0 {
			continue
		}
		value := fixedpoint.MulFloor(price, r.Data.BackstopCredit, r.Scalar())
		totalValue.Add(totalValue, value)
	}
	if totalValue.Cmp(interestFloor(oracleDecimals)) <= 0 {
		return nil, errs.ErrInterestTooSmall
	}
	if usdcPrice == nil || usdcPrice.Sign() <= 0 {
		return nil, errs.ErrBadRequest
	}
	data := newData(TypeInterest, backstop, block)
	for idx, r := range reserves {
		if r.Data.BackstopCredit.Sign() <= 0 {
			continue
		}
		data.Lot[r.Asset] = new(big.Int).Set(r.Data.BackstopCredit)
	}
	bidValue := fixedpoint.MulFloor(totalValue, badDebtPremium, scalar7)
	data.Bid[crypto.ModuleAddress("usdc")] = fixedpoint.DivFloor(bidValue, scalar7, usdcPrice)
	return data, nil
}

// Fill scales both sides of an auction by the price curve at currentBlock,
// returning the (bid, lot) amounts the filler must pay and receive. partial
// is a SCALAR_7 fraction of the remaining auction to consume (SCALAR_7 means
// "fill completely"); the caller is responsible for reducing or deleting the
// stored auction once both sides are fully consumed.
func Fill(data *Data, currentBlock uint32, partial *big.Int) (bid, lot map[crypto.Address]*big.Int) {
	delta := currentBlock - data.Block
	bidMod, lotMod := PriceAt(delta)
	if partial == nil {
		partial = new(big.Int).Set(scalar7)
	}
	bid = make(map[crypto.Address]*big.Int, len(data.Bid))
	lot = make(map[crypto.Address]*big.Int, len(data.Lot))
	for asset, amount := range data.Bid {
		scaled := fixedpoint.MulFloor(amount, bidMod, scalar7)
		bid[asset] = fixedpoint.MulFloor(scaled, partial, scalar7)
	}
	for asset, amount := range data.Lot {
		scaled := fixedpoint.MulFloor(amount, lotMod, scalar7)
		lot[asset] = fixedpoint.MulFloor(scaled, partial, scalar7)
	}
	return bid, lot
}
