package ledger

import (
	"math/big"
	"testing"

	"corelend/crypto"
	"corelend/errs"
)

func TestMintAndBalance(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	holder := crypto.ModuleAddress("user/alice")

	l.Mint(asset, holder, big.NewInt(100))
	bal, err := l.Balance(asset, holder)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("Balance = %s, want 100", bal)
	}
}

func TestBalanceDefaultsToZero(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	holder := crypto.ModuleAddress("user/bob")
	bal, err := l.Balance(asset, holder)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Sign() != 0 {
		t.Fatalf("Balance for unminted holder = %s, want 0", bal)
	}
}

func TestTransferMovesBalance(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	l.Mint(asset, alice, big.NewInt(100))

	if err := l.Transfer(asset, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	aliceBal, _ := l.Balance(asset, alice)
	bobBal, _ := l.Balance(asset, bob)
	if aliceBal.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance = %s, want 60", aliceBal)
	}
	if bobBal.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob balance = %s, want 40", bobBal)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	l.Mint(asset, alice, big.NewInt(10))

	if err := l.Transfer(asset, alice, bob, big.NewInt(20)); err != errs.ErrInsufficientFunds {
		t.Fatalf("Transfer = %v, want ErrInsufficientFunds", err)
	}
}

func TestTransferNegativeAmountRejected(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	if err := l.Transfer(asset, alice, bob, big.NewInt(-1)); err != errs.ErrNegativeAmount {
		t.Fatalf("Transfer = %v, want ErrNegativeAmount", err)
	}
}

func TestTransferSelfIsNoop(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	alice := crypto.ModuleAddress("user/alice")
	l.Mint(asset, alice, big.NewInt(5))
	if err := l.Transfer(asset, alice, alice, big.NewInt(100)); err != nil {
		t.Fatalf("self-transfer returned an error: %v", err)
	}
	bal, _ := l.Balance(asset, alice)
	if bal.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("self-transfer changed balance to %s, want unchanged 5", bal)
	}
}

func TestBindSingleAssetToken(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/BLND")
	alice := crypto.ModuleAddress("user/alice")
	bob := crypto.ModuleAddress("user/bob")
	l.Mint(asset, alice, big.NewInt(50))

	token := l.Bind(asset)
	bal, err := token.Balance(alice)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("Balance via SingleAssetToken = %s, want 50", bal)
	}
	if err := token.Transfer(alice, bob, big.NewInt(20)); err != nil {
		t.Fatalf("Transfer via SingleAssetToken: %v", err)
	}
	bobBal, _ := l.Balance(asset, bob)
	if bobBal.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("bob balance after SingleAssetToken transfer = %s, want 20", bobBal)
	}
}

func TestBalanceReturnsDefensiveCopy(t *testing.T) {
	l := New()
	asset := crypto.ModuleAddress("asset/STABLE")
	holder := crypto.ModuleAddress("user/alice")
	l.Mint(asset, holder, big.NewInt(10))

	bal, _ := l.Balance(asset, holder)
	bal.Add(bal, big.NewInt(1000))

	again, _ := l.Balance(asset, holder)
	if again.Cmp(big.NewInt(10)) != 0 {
		t.Fatal("mutating a returned Balance affected the ledger's internal state")
	}
}
