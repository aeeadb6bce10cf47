package auction

import (
	"math/big"
	"testing"

	"corelend/crypto"
	"corelend/errs"
	"corelend/health"
	"corelend/position"
	"corelend/reserve"
)

func testReserve(idx uint32, asset crypto.Address, cFactor, lFactor int64) *reserve.Reserve {
	cfg := reserve.Config{
		Decimals: 7,
		CFactor:  big.NewInt(cFactor),
		LFactor:  big.NewInt(lFactor),
		Util:     8_000_000, MaxUtil: 9_500_000,
		ROne: 500_000, RTwo: 2_000_000, RThree: 10_000_000,
	}
	data := reserve.Data{
		DRate: big.NewInt(1_000_000_000), BRate: big.NewInt(1_000_000_000),
		IRMod: big.NewInt(1_000_000_000), DSupply: big.NewInt(0), BSupply: big.NewInt(0),
		BackstopCredit: big.NewInt(0), LastTime: 0,
	}
	return reserve.Load(idx, asset, cfg, data, 0, big.NewInt(0), big.NewInt(0))
}

func TestPriceAtCurve(t *testing.T) {
	bid, lot := PriceAt(0)
	if bid.Cmp(scalar7) != 0 || lot.Sign() != 0 {
		t.Fatalf("PriceAt(0) = (%s,%s), want (100%%, 0%%)", bid, lot)
	}
	bid, lot = PriceAt(200)
	if bid.Cmp(scalar7) != 0 || lot.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("PriceAt(200) = (%s,%s), want (100%%, 50%%)", bid, lot)
	}
	bid, lot = PriceAt(500)
	if bid.Sign() != 0 || lot.Cmp(scalar7) != 0 {
		t.Fatalf("PriceAt(500) = (%s,%s), want (0%%, 100%%)", bid, lot)
	}
	bid, lot = PriceAt(1000)
	if bid.Sign() != 0 || lot.Cmp(scalar7) != 0 {
		t.Fatalf("PriceAt(1000) (past gift point) = (%s,%s), want (0%%, 100%%)", bid, lot)
	}
}

func TestNewLiquidationAuctionRejectsHealthyPosition(t *testing.T) {
	collateral := crypto.ModuleAddress("asset/STABLE")
	debt := crypto.ModuleAddress("asset/XLM")
	reserves := map[uint32]*reserve.Reserve{
		0: testReserve(0, collateral, 9_000_000, 9_500_000),
		1: testReserve(1, debt, 9_000_000, 9_500_000),
	}
	pos := position.New()
	pos.AddCollateral(0, big.NewInt(1_000_000_000))
	pos.AddLiability(1, big.NewInt(10_000_000)) // tiny debt, healthy
	prices := health.Prices{0: big.NewInt(10_000_000), 1: big.NewInt(10_000_000)}

	if _, err := NewLiquidationAuction(collateral, pos, reserves, prices, 5_000_000, 100); err != errs.ErrInvalidLiquidation {
		t.Fatalf("NewLiquidationAuction on a healthy position = %v, want ErrInvalidLiquidation", err)
	}
}

func TestNewLiquidationAuctionRejectsZeroOrOversizedPercent(t *testing.T) {
	pos := position.New()
	pos.AddCollateral(0, big.NewInt(1))
	pos.AddLiability(1, big.NewInt(1))
	reserves := map[uint32]*reserve.Reserve{}
	prices := health.Prices{}

	if _, err := NewLiquidationAuction(crypto.ModuleAddress("user"), pos, reserves, prices, 0, 0); err != errs.ErrBadRequest {
		t.Fatalf("NewLiquidationAuction(percent=0) = %v, want ErrBadRequest", err)
	}
	if _, err := NewLiquidationAuction(crypto.ModuleAddress("user"), pos, reserves, prices, 20_000_000, 0); err != errs.ErrBadRequest {
		t.Fatalf("NewLiquidationAuction(percent>100%%) = %v, want ErrBadRequest", err)
	}
}

func TestNewLiquidationAuctionRejectsEmptyPosition(t *testing.T) {
	pos := position.New()
	if _, err := NewLiquidationAuction(crypto.ModuleAddress("user"), pos, nil, nil, 5_000_000, 0); err != errs.ErrInvalidLiquidation {
		t.Fatalf("NewLiquidationAuction on empty position = %v, want ErrInvalidLiquidation", err)
	}
}

func TestNewBadDebtAuctionRejectsNoLiabilities(t *testing.T) {
	bs := position.New()
	if _, err := NewBadDebtAuction(crypto.ModuleAddress("backstop"), bs, nil, nil, big.NewInt(1), 0); err != errs.ErrBadRequest {
		t.Fatalf("NewBadDebtAuction with no liabilities = %v, want ErrBadRequest", err)
	}
}

func TestNewBadDebtAuctionBuildsBidAndLot(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	reserves := map[uint32]*reserve.Reserve{0: testReserve(0, asset, 9_000_000, 9_500_000)}
	bs := position.New()
	bs.AddLiability(0, big.NewInt(1_000_000_000))
	prices := health.Prices{0: big.NewInt(10_000_000)}

	data, err := NewBadDebtAuction(crypto.ModuleAddress("backstop"), bs, reserves, prices, big.NewInt(5_000_000), 100)
	if err != nil {
		t.Fatalf("NewBadDebtAuction: %v", err)
	}
	if data.Type != TypeBadDebt {
		t.Fatalf("auction Type = %v, want TypeBadDebt", data.Type)
	}
	if data.Bid[asset].Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("Bid[asset] = %s, want 1000000000", data.Bid[asset])
	}
	if data.CorrelationID == "" {
		t.Fatal("auction has no CorrelationID")
	}
	if len(data.Lot) != 1 {
		t.Fatalf("Lot has %d entries, want 1 (BLND)", len(data.Lot))
	}
}

func TestNewInterestAuctionRequiresFloor(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	r := testReserve(0, asset, 9_000_000, 9_500_000)
	r.Data.BackstopCredit = big.NewInt(1) // tiny, well under the 200-usd floor
	reserves := map[uint32]*reserve.Reserve{0: r}
	prices := health.Prices{0: big.NewInt(10_000_000)}

	if _, err := NewInterestAuction(crypto.ModuleAddress("backstop"), reserves, prices, big.NewInt(10_000_000), 7, 0); err != errs.ErrInterestTooSmall {
		t.Fatalf("NewInterestAuction under the floor = %v, want ErrInterestTooSmall", err)
	}
}

func TestNewInterestAuctionAboveFloor(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	r := testReserve(0, asset, 9_000_000, 9_500_000)
	r.Data.BackstopCredit = big.NewInt(10_000_000_000) // 1000 underlying at SCALAR_7
	reserves := map[uint32]*reserve.Reserve{0: r}
	prices := health.Prices{0: big.NewInt(10_000_000)} // $1

	data, err := NewInterestAuction(crypto.ModuleAddress("backstop"), reserves, prices, big.NewInt(10_000_000), 7, 0)
	if err != nil {
		t.Fatalf("NewInterestAuction: %v", err)
	}
	if data.Type != TypeInterest {
		t.Fatalf("auction Type = %v, want TypeInterest", data.Type)
	}
	if data.Lot[asset].Sign() <= 0 {
		t.Fatal("interest auction lot was not populated")
	}
}

func TestFillScalesByPartialAndBlockDistance(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := &Data{
		Type: TypeBadDebt, Subject: crypto.ModuleAddress("backstop"),
		Bid: map[crypto.Address]*big.Int{asset: big.NewInt(1_000_000_000)},
		Lot: map[crypto.Address]*big.Int{asset: big.NewInt(2_000_000_000)},
		Block: 0,
	}
	bid, lot := Fill(data, 0, nil)
	if bid[asset].Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("Fill at block 0 bid = %s, want full 1000000000", bid[asset])
	}
	if lot[asset].Sign() != 0 {
		t.Fatalf("Fill at block 0 lot = %s, want 0", lot[asset])
	}

	half := big.NewInt(5_000_000) // 50% in SCALAR_7
	bid, _ = Fill(data, 0, half)
	if bid[asset].Cmp(big.NewInt(500_000_000)) != 0 {
		t.Fatalf("Fill with 50%% partial bid = %s, want 500000000", bid[asset])
	}
}
