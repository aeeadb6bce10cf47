package position

import (
	"math/big"
	"testing"
)

func TestAddAndRemoveCollateral(t *testing.T) {
	p := New()
	p.AddCollateral(1, big.NewInt(100))
	if got := p.Collateral[1]; got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("Collateral[1] = %s, want 100", got)
	}
	removed := p.RemoveCollateral(1, big.NewInt(40))
	if removed.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("RemoveCollateral returned %s, want 40", removed)
	}
	if got := p.Collateral[1]; got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("Collateral[1] after partial removal = %s, want 60", got)
	}
}

func TestRemoveCollateralCappedAtBalance(t *testing.T) {
	p := New()
	p.AddCollateral(1, big.NewInt(50))
	removed := p.RemoveCollateral(1, big.NewInt(500))
	if removed.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("RemoveCollateral returned %s, want capped at 50", removed)
	}
	if _, ok := p.Collateral[1]; ok {
		t.Fatal("Collateral[1] still present after removing the full balance")
	}
}

func TestRemoveFromAbsentIndexReturnsZero(t *testing.T) {
	p := New()
	removed := p.RemoveLiability(9, big.NewInt(10))
	if removed.Sign() != 0 {
		t.Fatalf("RemoveLiability on an absent index returned %s, want 0", removed)
	}
}

func TestIsEmptyAndCount(t *testing.T) {
	p := New()
	if !p.IsEmpty() {
		t.Fatal("new Positions is not empty")
	}
	p.AddSupply(2, big.NewInt(5))
	if p.IsEmpty() {
		t.Fatal("Positions with a supply entry reports IsEmpty")
	}
	if p.Count() != 1 {
		t.Fatalf("Count = %d, want 1", p.Count())
	}
	p.RemoveSupply(2, big.NewInt(5))
	if !p.IsEmpty() {
		t.Fatal("Positions did not prune to empty after removing its only entry")
	}
}

func TestCheckMaxPositions(t *testing.T) {
	p := New()
	p.AddCollateral(1, big.NewInt(1))
	p.AddLiability(2, big.NewInt(1))
	if err := p.CheckMaxPositions(2); err != nil {
		t.Fatalf("CheckMaxPositions(2) with 2 entries: %v", err)
	}
	if err := p.CheckMaxPositions(1); err == nil {
		t.Fatal("CheckMaxPositions(1) with 2 entries did not error")
	}
}

func TestReserveIndicesSortedUnion(t *testing.T) {
	p := New()
	p.AddCollateral(3, big.NewInt(1))
	p.AddLiability(1, big.NewInt(1))
	p.AddSupply(2, big.NewInt(1))
	p.AddLiability(3, big.NewInt(1))

	got := p.ReserveIndices()
	want := []uint32{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("ReserveIndices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ReserveIndices = %v, want %v", got, want)
		}
	}
}
