package pool

import (
	"context"
	"math/big"
	"testing"

	"corelend/backstop"
	"corelend/crypto"
	"corelend/errs"
	"corelend/ledger"
	"corelend/oracle"
	"corelend/reserve"
	"corelend/storage"
)

type alwaysPool struct{}

func (alwaysPool) IsPool(crypto.Address) (bool, error) { return true, nil }

func stableReserveConfig() reserve.Config {
	return reserve.Config{
		Decimals: 7,
		CFactor:  big.NewInt(9_000_000),
		LFactor:  big.NewInt(9_500_000),
		Util:     8_000_000, MaxUtil: 9_500_000,
		ROne: 500_000, RTwo: 2_000_000, RThree: 10_000_000,
	}
}

// newTestPool wires a Pool against a real in-process ledger (for Token and
// BLND payouts), a real backstop.Backstop (satisfying EmissionsFunder), and
// a static oracle, mirroring node.New's assembly.
func newTestPool(t *testing.T) (*Pool, *ledger.Ledger, crypto.Address, *oracle.Static) {
	t.Helper()
	led := ledger.New()
	stable := crypto.ModuleAddress("asset/STABLE")
	blnd := crypto.ModuleAddress("asset/BLND")
	lpToken := crypto.ModuleAddress("backstop/lp-token")
	tracker := storage.NewTTLTracker(storage.NewMemKV(), storage.SystemClock{})

	bsAddr := crypto.ModuleAddress("backstop")
	bs := backstop.New(bsAddr, tracker, led.Bind(lpToken), led.Bind(blnd), alwaysPool{})

	o := oracle.NewStatic(7)
	o.SetPrice(stable, big.NewInt(10_000_000), 0) // $1.00

	poolAddr := crypto.ModuleAddress("pool/default")
	p := New(poolAddr, tracker, o, led, led.Bind(blnd), bs)

	if err := p.Initialize(crypto.ModuleAddress("admin"), crypto.ModuleAddress("oracle"), bsAddr, big.NewInt(100_000_000), 4); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := p.InitReserve(stable, stableReserveConfig()); err != nil {
		t.Fatalf("InitReserve: %v", err)
	}
	return p, led, stable, o
}

func TestSupplyCollateralBorrowRepayWithdraw(t *testing.T) {
	p, led, stable, _ := newTestPool(t)
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	led.Mint(stable, alice, big.NewInt(1_000_000_000))
	led.Mint(stable, bob, big.NewInt(1_000_000_000))

	// bob supplies liquidity so alice has something to borrow.
	if _, err := p.Submit(context.Background(), bob, bob, bob, []Request{
		{Type: RequestSupply, Address: stable, Amount: big.NewInt(500_000_000)},
	}, 0, 0); err != nil {
		t.Fatalf("bob supply: %v", err)
	}

	// alice supplies collateral then borrows against it.
	pos, err := p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestSupplyCollateral, Address: stable, Amount: big.NewInt(200_000_000)},
		{Type: RequestBorrow, Address: stable, Amount: big.NewInt(50_000_000)},
	}, 0, 0)
	if err != nil {
		t.Fatalf("alice supply collateral + borrow: %v", err)
	}
	if pos.Liabilities[0] == nil || pos.Liabilities[0].Sign() <= 0 {
		t.Fatalf("alice liabilities = %v, want nonzero entry at index 0", pos.Liabilities)
	}
	aliceBal, _ := led.Balance(stable, alice)
	if aliceBal.Cmp(big.NewInt(1_000_000_000-200_000_000+50_000_000)) != 0 {
		t.Fatalf("alice balance after supply+borrow = %s", aliceBal)
	}

	// alice repays in full using the MaxAmount sentinel.
	pos, err = p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestRepay, Address: stable, Amount: MaxAmount},
	}, 100, 0)
	if err != nil {
		t.Fatalf("alice repay: %v", err)
	}
	if _, ok := pos.Liabilities[0]; ok {
		t.Fatalf("alice liabilities after full repay = %v, want empty", pos.Liabilities)
	}

	// alice withdraws her collateral back out in full.
	pos, err = p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestWithdrawCollateral, Address: stable, Amount: MaxAmount},
	}, 100, 0)
	if err != nil {
		t.Fatalf("alice withdraw collateral: %v", err)
	}
	if !pos.IsEmpty() {
		t.Fatalf("alice positions after full withdraw = %+v, want empty", pos)
	}
}

func TestBorrowAboveHealthFactorRejected(t *testing.T) {
	p, led, stable, _ := newTestPool(t)
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	led.Mint(stable, alice, big.NewInt(1_000_000_000))
	led.Mint(stable, bob, big.NewInt(1_000_000_000))

	if _, err := p.Submit(context.Background(), bob, bob, bob, []Request{
		{Type: RequestSupply, Address: stable, Amount: big.NewInt(900_000_000)},
	}, 0, 0); err != nil {
		t.Fatalf("bob supply: %v", err)
	}

	if _, err := p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestSupplyCollateral, Address: stable, Amount: big.NewInt(100_000_000)},
		{Type: RequestBorrow, Address: stable, Amount: big.NewInt(95_000_000)},
	}, 0, 0); err != errs.ErrInvalidHF {
		t.Fatalf("over-borrow = %v, want ErrInvalidHF", err)
	}
}

func TestInitReserveRejectsDuplicateAsset(t *testing.T) {
	p, _, stable, _ := newTestPool(t)
	if err := p.InitReserve(stable, stableReserveConfig()); err == nil {
		t.Fatal("InitReserve on an already-initialized asset succeeded, want error")
	}
}

func TestWithdrawCappedAtSuppliedBalance(t *testing.T) {
	p, led, stable, _ := newTestPool(t)
	alice := crypto.ModuleAddress("user/alice")
	led.Mint(stable, alice, big.NewInt(1_000_000_000))

	if _, err := p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestSupply, Address: stable, Amount: big.NewInt(100_000_000)},
	}, 0, 0); err != nil {
		t.Fatalf("supply: %v", err)
	}

	pos, err := p.Submit(context.Background(), alice, alice, alice, []Request{
		{Type: RequestWithdraw, Address: stable, Amount: big.NewInt(500_000_000)},
	}, 0, 0)
	if err != nil {
		t.Fatalf("withdraw beyond supplied balance: %v", err)
	}
	if !pos.IsEmpty() {
		t.Fatalf("alice positions after capped withdraw = %+v, want empty", pos)
	}
	aliceBal, _ := led.Balance(stable, alice)
	if aliceBal.Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("alice balance after capped withdraw = %s, want 1000000000", aliceBal)
	}
}
