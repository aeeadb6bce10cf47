package backstop

import "math/big"

// ConvertToShares mirrors convert_to_shares(tokens): floor(tokens*shares/tokens_total),
// or a 1:1 bootstrap mint when the pool holds no shares yet.
func ConvertToShares(pb PoolBalance, amount *big.Int) *big.Int {
	if pb.Shares.Sign() == 0 {
		return new(big.Int).Set(amount)
	}
	out := new(big.Int).Mul(amount, pb.Shares)
	return out.Quo(out, pb.Tokens)
}

// ConvertToTokens mirrors convert_to_tokens(shares): floor(shares*tokens_total/shares),
// or a 1:1 passthrough when the pool holds no shares yet.
func ConvertToTokens(pb PoolBalance, shares *big.Int) *big.Int {
	if pb.Shares.Sign() == 0 {
		return new(big.Int).Set(shares)
	}
	out := new(big.Int).Mul(shares, pb.Tokens)
	return out.Quo(out, pb.Shares)
}
