package baddebt

import (
	"math/big"
	"testing"

	"corelend/errs"
	"corelend/position"
)

func TestTransferBadDebtMovesLiabilitiesToBackstop(t *testing.T) {
	subject := position.New()
	subject.AddLiability(0, big.NewInt(100))
	subject.AddLiability(1, big.NewInt(50))
	bs := position.New()

	if err := TransferBadDebt(subject, bs); err != nil {
		t.Fatalf("TransferBadDebt: %v", err)
	}
	if !subject.IsEmpty() {
		t.Fatal("subject still holds liabilities after TransferBadDebt")
	}
	if bs.Liabilities[0].Cmp(big.NewInt(100)) != 0 || bs.Liabilities[1].Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("backstop liabilities = %v, want {0:100, 1:50}", bs.Liabilities)
	}
}

func TestTransferBadDebtRejectsWithCollateral(t *testing.T) {
	subject := position.New()
	subject.AddCollateral(0, big.NewInt(1))
	subject.AddLiability(0, big.NewInt(100))
	bs := position.New()
	if err := TransferBadDebt(subject, bs); err != errs.ErrBadRequest {
		t.Fatalf("TransferBadDebt with collateral = %v, want ErrBadRequest", err)
	}
}

func TestTransferBadDebtRejectsNoLiabilities(t *testing.T) {
	subject := position.New()
	bs := position.New()
	if err := TransferBadDebt(subject, bs); err != errs.ErrBadRequest {
		t.Fatalf("TransferBadDebt with no liabilities = %v, want ErrBadRequest", err)
	}
}

func TestBurnBackstopBadDebtInvokesReducerPerReserve(t *testing.T) {
	bs := position.New()
	bs.AddLiability(0, big.NewInt(100))
	bs.AddLiability(2, big.NewInt(30))

	reduced := map[uint32]*big.Int{}
	err := BurnBackstopBadDebt(bs, func(idx uint32, amount *big.Int) error {
		reduced[idx] = amount
		return nil
	})
	if err != nil {
		t.Fatalf("BurnBackstopBadDebt: %v", err)
	}
	if !bs.IsEmpty() {
		t.Fatal("backstop positions still hold liabilities after burn")
	}
	if reduced[0].Cmp(big.NewInt(100)) != 0 || reduced[2].Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("reducer calls = %v, want {0:100, 2:30}", reduced)
	}
}

func TestBurnBackstopBadDebtRejectsWhenClean(t *testing.T) {
	bs := position.New()
	if err := BurnBackstopBadDebt(bs, func(uint32, *big.Int) error { return nil }); err != errs.ErrBadRequest {
		t.Fatalf("BurnBackstopBadDebt on clean backstop = %v, want ErrBadRequest", err)
	}
}

func TestBelowCriticalThreshold(t *testing.T) {
	if !BelowCriticalThreshold(big.NewInt(1), CriticalLowThreshold) {
		t.Fatal("BelowCriticalThreshold(1, threshold) = false, want true")
	}
	if BelowCriticalThreshold(CriticalLowThreshold, CriticalLowThreshold) {
		t.Fatal("BelowCriticalThreshold(threshold, threshold) = true, want false")
	}
}
