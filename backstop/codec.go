package backstop

import "math/big"

// storedPoolBalance/storedUserBalance are the RLP-encodable shadow of
// PoolBalance/UserBalance, following the same convention as pool/codec.go.
type storedPoolBalance struct {
	Shares, Tokens, Q4W *big.Int
}

func fromPoolBalance(pb PoolBalance) storedPoolBalance {
	return storedPoolBalance{Shares: nonNil(pb.Shares), Tokens: nonNil(pb.Tokens), Q4W: nonNil(pb.Q4W)}
}

func (s storedPoolBalance) toPoolBalance() PoolBalance {
	return PoolBalance{Shares: nonNil(s.Shares), Tokens: nonNil(s.Tokens), Q4W: nonNil(s.Q4W)}
}

type storedQ4WEntry struct {
	Amount *big.Int
	Exp    uint64
}

type storedUserBalance struct {
	Shares      *big.Int
	Q4W         []storedQ4WEntry
	EmisIndex   *big.Int
	EmisAccrued *big.Int
}

func fromUserBalance(ub UserBalance) storedUserBalance {
	q4w := make([]storedQ4WEntry, len(ub.Q4W))
	for i, e := range ub.Q4W {
		q4w[i] = storedQ4WEntry{Amount: nonNil(e.Amount), Exp: e.Exp}
	}
	return storedUserBalance{
		Shares: nonNil(ub.Shares), Q4W: q4w,
		EmisIndex: nonNil(ub.EmisIndex), EmisAccrued: nonNil(ub.EmisAccrued),
	}
}

func (s storedUserBalance) toUserBalance() UserBalance {
	q4w := make([]Q4WEntry, len(s.Q4W))
	for i, e := range s.Q4W {
		q4w[i] = Q4WEntry{Amount: nonNil(e.Amount), Exp: e.Exp}
	}
	return UserBalance{
		Shares: nonNil(s.Shares), Q4W: q4w,
		EmisIndex: nonNil(s.EmisIndex), EmisAccrued: nonNil(s.EmisAccrued),
	}
}

func nonNil(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return x
}
