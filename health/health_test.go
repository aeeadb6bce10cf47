package health

import (
	"math/big"
	"testing"

	"corelend/crypto"
	"corelend/position"
	"corelend/reserve"
)

func testReserve(idx uint32, decimals uint32, cFactor, lFactor int64, bRate, dRate int64) *reserve.Reserve {
	asset := crypto.ModuleAddress("asset/test")
	cfg := reserve.Config{
		Decimals: decimals,
		CFactor:  big.NewInt(cFactor),
		LFactor:  big.NewInt(lFactor),
		Util:     8_000_000,
		MaxUtil:  9_500_000,
		ROne:     500_000,
		RTwo:     2_000_000,
		RThree:   10_000_000,
	}
	data := reserve.Data{
		DRate:          big.NewInt(dRate),
		BRate:          big.NewInt(bRate),
		IRMod:          big.NewInt(1_000_000_000),
		DSupply:        big.NewInt(0),
		BSupply:        big.NewInt(0),
		BackstopCredit: big.NewInt(0),
		LastTime:       0,
	}
	return reserve.Load(idx, asset, cfg, data, 0, big.NewInt(0), big.NewInt(0))
}

func TestComputeNoLiabilitiesSentinel(t *testing.T) {
	p := position.New()
	p.AddCollateral(0, big.NewInt(1_000_000_000))
	reserves := map[uint32]*reserve.Reserve{0: testReserve(0, 7, 9_000_000, 9_500_000, 1_000_000_000, 1_000_000_000)}
	prices := Prices{0: big.NewInt(1_000_000_0)} // 1.0 at 7 oracle decimals

	pos := Compute(p, reserves, prices)
	if pos.HF.Cmp(noLiabilitySentinel) != 0 {
		t.Fatalf("HF with no liabilities = %s, want sentinel", pos.HF)
	}
	if pos.CollateralBase.Sign() <= 0 {
		t.Fatal("CollateralBase should be positive with collateral present")
	}
}

func TestComputeHealthyPosition(t *testing.T) {
	p := position.New()
	p.AddCollateral(0, big.NewInt(2_000_000_000)) // 200 tokens at decimals=7
	p.AddLiability(0, big.NewInt(500_000_000))     // 50 tokens at decimals=7
	reserves := map[uint32]*reserve.Reserve{0: testReserve(0, 7, 9_000_000, 9_500_000, 1_000_000_000, 1_000_000_000)}
	prices := Prices{0: big.NewInt(10_000_000)} // 1.0 in SCALAR_7 oracle units

	pos := Compute(p, reserves, prices)
	if pos.HF.Cmp(LiquidatableHF) <= 0 {
		t.Fatalf("HF = %s, want healthy position above liquidation threshold", pos.HF)
	}
}

func TestComputeMissingReserveOrPriceSkipped(t *testing.T) {
	p := position.New()
	p.AddCollateral(0, big.NewInt(1_000_000_000))
	p.AddCollateral(1, big.NewInt(1_000_000_000)) // no matching reserve/price
	reserves := map[uint32]*reserve.Reserve{0: testReserve(0, 7, 9_000_000, 9_500_000, 1_000_000_000, 1_000_000_000)}
	prices := Prices{0: big.NewInt(10_000_000)}

	pos := Compute(p, reserves, prices)
	if pos.CollateralBase.Sign() <= 0 {
		t.Fatal("CollateralBase should still reflect the reserve that has both a reserve and a price")
	}
}
