package pool

import (
	"math/big"

	"corelend/crypto"
	"corelend/position"
	"corelend/reserve"
)

// The stored* types below are the RLP-encodable shadow of each in-memory
// struct: rlp cannot encode crypto.Address's unexported fields, so every
// address is carried as raw bytes and reconstructed with crypto.UserPrefix on
// load. Grounded on core/state/manager.go's storedLendingMarket/
// storedLendingUser conversion-struct pattern.

type storedConfig struct {
	Admin            []byte
	Oracle           []byte
	Backstop         []byte
	BackstopTakeRate *big.Int
	MaxPositions     uint64
	Status           uint32
}

func fromConfig(c Config) storedConfig {
	return storedConfig{
		Admin:            c.Admin.Bytes(),
		Oracle:           c.Oracle.Bytes(),
		Backstop:         c.Backstop.Bytes(),
		BackstopTakeRate: nonNil(c.BackstopTakeRate),
		MaxPositions:     uint64(c.MaxPositions),
		Status:           uint32(c.Status),
	}
}

func (s storedConfig) toConfig() Config {
	return Config{
		Admin:            addrFromBytes(s.Admin),
		Oracle:           addrFromBytes(s.Oracle),
		Backstop:         addrFromBytes(s.Backstop),
		BackstopTakeRate: nonNil(s.BackstopTakeRate),
		MaxPositions:     int(s.MaxPositions),
		Status:           Status(s.Status),
	}
}

type storedReserveConfig struct {
	Index      uint32
	Decimals   uint32
	CFactor    *big.Int
	LFactor    *big.Int
	Util       uint32
	MaxUtil    uint32
	ROne       uint32
	RTwo       uint32
	RThree     uint32
	Reactivity uint32
}

func fromReserveConfig(index uint32, c reserve.Config) storedReserveConfig {
	return storedReserveConfig{
		Index: index, Decimals: c.Decimals,
		CFactor: nonNil(c.CFactor), LFactor: nonNil(c.LFactor),
		Util: c.Util, MaxUtil: c.MaxUtil,
		ROne: c.ROne, RTwo: c.RTwo, RThree: c.RThree,
		Reactivity: c.Reactivity,
	}
}

func (s storedReserveConfig) toConfig() reserve.Config {
	return reserve.Config{
		Decimals: s.Decimals, CFactor: nonNil(s.CFactor), LFactor: nonNil(s.LFactor),
		Util: s.Util, MaxUtil: s.MaxUtil,
		ROne: s.ROne, RTwo: s.RTwo, RThree: s.RThree,
		Reactivity: s.Reactivity,
	}
}

type storedReserveData struct {
	DRate, BRate, IRMod          *big.Int
	DSupply, BSupply             *big.Int
	BackstopCredit               *big.Int
	LastTime                     uint64
}

func fromReserveData(d reserve.Data) storedReserveData {
	return storedReserveData{
		DRate: nonNil(d.DRate), BRate: nonNil(d.BRate), IRMod: nonNil(d.IRMod),
		DSupply: nonNil(d.DSupply), BSupply: nonNil(d.BSupply),
		BackstopCredit: nonNil(d.BackstopCredit), LastTime: d.LastTime,
	}
}

func (s storedReserveData) toData() reserve.Data {
	if s.DRate == nil {
		return reserve.Data{
			DRate: big.NewInt(1_000_000_000), BRate: big.NewInt(1_000_000_000),
			IRMod: big.NewInt(1_000_000_000), DSupply: big.NewInt(0), BSupply: big.NewInt(0),
			BackstopCredit: big.NewInt(0), LastTime: 0,
		}
	}
	return reserve.Data{
		DRate: s.DRate, BRate: s.BRate, IRMod: s.IRMod,
		DSupply: s.DSupply, BSupply: s.BSupply,
		BackstopCredit: s.BackstopCredit, LastTime: s.LastTime,
	}
}

type indexedAmount struct {
	Index  uint32
	Amount *big.Int
}

type storedPositions struct {
	Collateral  []indexedAmount
	Liabilities []indexedAmount
	Supply      []indexedAmount
}

func fromPositions(p *position.Positions) storedPositions {
	return storedPositions{
		Collateral:  flatten(p.Collateral),
		Liabilities: flatten(p.Liabilities),
		Supply:      flatten(p.Supply),
	}
}

func (s storedPositions) toPositions() *position.Positions {
	p := position.New()
	for _, e := range s.Collateral {
		p.Collateral[e.Index] = e.Amount
	}
	for _, e := range s.Liabilities {
		p.Liabilities[e.Index] = e.Amount
	}
	for _, e := range s.Supply {
		p.Supply[e.Index] = e.Amount
	}
	return p
}

func flatten(m map[uint32]*big.Int) []indexedAmount {
	out := make([]indexedAmount, 0, len(m))
	for idx, amount := range m {
		out = append(out, indexedAmount{Index: idx, Amount: amount})
	}
	return out
}

func nonNil(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return x
}

func addrFromBytes(b []byte) crypto.Address {
	if len(b) != 20 {
		return crypto.Address{}
	}
	return crypto.MustNewAddress(crypto.UserPrefix, b)
}
