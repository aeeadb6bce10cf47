package pool

import (
	"math/big"

	"corelend/crypto"
	"corelend/emissions"
	"corelend/errs"
	"corelend/fixedpoint"
	"corelend/observability/metrics"
	"corelend/position"
	"corelend/storage"
)

// ReserveEmissionShare is one entry of the pool admin's emission
// distribution: resIndex/resType name a reserve token (resType 0 is the
// b-token/supply side, 1 is the d-token/liability side), and share is this
// token's cut of the pool's weekly BLND allocation, SCALAR_7-scaled.
type ReserveEmissionShare struct {
	ResIndex uint32
	ResType  uint32
	Share    *big.Int
}

// reserveTokenID packs (resIndex, resType) into the single integer the
// EmisConfig/EmisData/UserReserveEmisData keys are addressed by: index*2+0
// for the supply side, index*2+1 for the liability side, per the emissions
// reserve-token-id convention documented on storage.EmisConfigKey.
func reserveTokenID(resIndex, resType uint32) uint32 { return resIndex*2 + resType }

type storedEmissionShares struct {
	ResIndex []uint32
	ResType  []uint32
	Share    []*big.Int
}

func (p *Pool) loadEmissionShares() ([]ReserveEmissionShare, error) {
	var stored storedEmissionShares
	found, err := storage.Load(p.tracker, storage.PoolEmisKey(), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	out := make([]ReserveEmissionShare, len(stored.ResIndex))
	for i := range stored.ResIndex {
		out[i] = ReserveEmissionShare{ResIndex: stored.ResIndex[i], ResType: stored.ResType[i], Share: nonNil(stored.Share[i])}
	}
	return out, nil
}

func (p *Pool) saveEmissionShares(shares []ReserveEmissionShare) error {
	stored := storedEmissionShares{
		ResIndex: make([]uint32, len(shares)),
		ResType:  make([]uint32, len(shares)),
		Share:    make([]*big.Int, len(shares)),
	}
	for i, s := range shares {
		stored.ResIndex[i] = s.ResIndex
		stored.ResType[i] = s.ResType
		stored.Share[i] = nonNil(s.Share)
	}
	return storage.Save(p.tracker, storage.PoolEmisKey(), storage.TierPersistentShared, stored)
}

// SetEmissionsConfig replaces the pool's reserve-token emission distribution.
// Shares are SCALAR_7-scaled and must sum to at most one whole (the
// remainder, if any, is simply not distributed).
func (p *Pool) SetEmissionsConfig(shares []ReserveEmissionShare) error {
	total := big.NewInt(0)
	for _, s := range shares {
		if s.ResType > 1 {
			return errs.ErrBadRequest
		}
		if s.Share == nil || s.Share.Sign() < 0 {
			return errs.ErrNegativeAmount
		}
		total.Add(total, s.Share)
	}
	if total.Cmp(fixedpoint.Scalar7) > 0 {
		return errs.ErrBadRequest
	}
	return p.saveEmissionShares(shares)
}

type storedEmisConfig struct {
	ExpTime uint64
	EPS     *big.Int
}

func (p *Pool) loadEmisConfig(id uint32) (emissions.Config, error) {
	var stored storedEmisConfig
	found, err := storage.Load(p.tracker, storage.EmisConfigKey(id), &stored)
	if err != nil {
		return emissions.Config{}, err
	}
	if !found {
		return emissions.Config{EPS: big.NewInt(0)}, nil
	}
	return emissions.Config{ExpTime: stored.ExpTime, EPS: nonNil(stored.EPS)}, nil
}

func (p *Pool) saveEmisConfig(id uint32, cfg emissions.Config) error {
	return storage.Save(p.tracker, storage.EmisConfigKey(id), storage.TierPersistentShared, storedEmisConfig{ExpTime: cfg.ExpTime, EPS: cfg.EPS})
}

type storedEmisData struct {
	Index    *big.Int
	LastTime uint64
}

func (p *Pool) loadEmisData(id uint32) (emissions.Data, error) {
	var stored storedEmisData
	found, err := storage.Load(p.tracker, storage.EmisDataKey(id), &stored)
	if err != nil {
		return emissions.Data{}, err
	}
	if !found {
		return emissions.Data{Index: big.NewInt(0)}, nil
	}
	return emissions.Data{Index: nonNil(stored.Index), LastTime: stored.LastTime}, nil
}

func (p *Pool) saveEmisData(id uint32, data emissions.Data) error {
	return storage.Save(p.tracker, storage.EmisDataKey(id), storage.TierPersistentShared, storedEmisData{Index: data.Index, LastTime: data.LastTime})
}

type storedUserReserveEmisData struct {
	Index   *big.Int
	Accrued *big.Int
}

func (p *Pool) loadUserEmisData(id uint32, user crypto.Address) (emissions.UserData, error) {
	var stored storedUserReserveEmisData
	found, err := storage.Load(p.tracker, storage.UserReserveEmisDataKey(id, user), &stored)
	if err != nil {
		return emissions.UserData{}, err
	}
	if !found {
		return emissions.UserData{Index: big.NewInt(0), Accrued: big.NewInt(0)}, nil
	}
	return emissions.UserData{Index: nonNil(stored.Index), Accrued: nonNil(stored.Accrued)}, nil
}

func (p *Pool) saveUserEmisData(id uint32, user crypto.Address, ud emissions.UserData) error {
	return storage.Save(p.tracker, storage.UserReserveEmisDataKey(id, user), storage.TierPersistentUser, storedUserReserveEmisData{Index: ud.Index, Accrued: ud.Accrued})
}

// accrueReserveEmissions advances one reserve-token stream's index to now and
// folds the movement into user's accrued balance, mirroring
// backstop.accrueUserEmissions for the reserve-token side.
func (p *Pool) accrueReserveEmissions(id uint32, asset crypto.Address, resType uint32, user crypto.Address, now uint64) error {
	r, err := p.loadReserve(asset, now)
	if err != nil {
		return err
	}
	cfg, err := p.loadEmisConfig(id)
	if err != nil {
		return err
	}
	data, err := p.loadEmisData(id)
	if err != nil {
		return err
	}
	denominator := r.Data.BSupply
	if resType == 1 {
		denominator = r.Data.DSupply
	}
	data = emissions.Accrue(data, cfg, now, denominator)
	if err := p.saveEmisData(id, data); err != nil {
		return err
	}

	positions, err := p.loadPositions(user)
	if err != nil {
		return err
	}
	weight := userTokenWeight(positions, r.Index, resType)
	ud, err := p.loadUserEmisData(id, user)
	if err != nil {
		return err
	}
	ud = emissions.AccrueUser(ud, data.Index, weight)
	return p.saveUserEmisData(id, user, ud)
}

// userTokenWeight is a user's balance of the b-token or d-token side of a
// reserve: collateral plus uncollateralised supply for the supply side
// (both mint the same b-token), or liabilities alone for the debt side.
func userTokenWeight(pos *position.Positions, resIndex uint32, resType uint32) *big.Int {
	if resType == 1 {
		return zeroIfNil(pos.Liabilities[resIndex])
	}
	weight := new(big.Int).Add(zeroIfNil(pos.Collateral[resIndex]), zeroIfNil(pos.Supply[resIndex]))
	return weight
}

func zeroIfNil(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return x
}

// GulpEmissions pulls the pool's weekly BLND allocation from the backstop
// and distributes it across the configured reserve-token streams per their
// SetEmissionsConfig shares, rolling forward any unclaimed remainder of each
// stream's prior config. Returns the number of streams gulped.
func (p *Pool) GulpEmissions(now uint64) (uint64, error) {
	shares, err := p.loadEmissionShares()
	if err != nil {
		return 0, err
	}
	if len(shares) == 0 {
		return 0, nil
	}
	weeklyTokens, err := p.backstop.GulpPoolEmissions(p.Address, now)
	if err != nil {
		return 0, err
	}
	assets, err := p.reserveList()
	if err != nil {
		return 0, err
	}
	var gulped uint64
	for _, s := range shares {
		if int(s.ResIndex) >= len(assets) {
			continue
		}
		id := reserveTokenID(s.ResIndex, s.ResType)
		tokens := fixedpoint.MulFloor(weeklyTokens, s.Share, fixedpoint.Scalar7)

		asset := assets[s.ResIndex]
		r, err := p.loadReserve(asset, now)
		if err != nil {
			return gulped, err
		}
		prior, err := p.loadEmisConfig(id)
		if err != nil {
			return gulped, err
		}
		data, err := p.loadEmisData(id)
		if err != nil {
			return gulped, err
		}
		denominator := r.Data.BSupply
		if s.ResType == 1 {
			denominator = r.Data.DSupply
		}
		data = emissions.Accrue(data, prior, now, denominator)
		if err := p.saveEmisData(id, data); err != nil {
			return gulped, err
		}
		next := emissions.GulpReserve(prior, tokens, now)
		if err := p.saveEmisConfig(id, next); err != nil {
			return gulped, err
		}
		gulped++
	}
	metrics.Emissions().RecordGulp(p.Address.String())
	return gulped, nil
}

// Claim accrues every named reserve-token stream for from to now, sums the
// total accrued BLND, zeroes each stream's accrued balance, and transfers
// the sum to to.
func (p *Pool) Claim(from crypto.Address, reserveTokenIDs []uint32, to crypto.Address, now uint64) (*big.Int, error) {
	assets, err := p.reserveList()
	if err != nil {
		return nil, err
	}
	total := big.NewInt(0)
	for _, id := range reserveTokenIDs {
		resIndex := id / 2
		resType := id % 2
		if int(resIndex) >= len(assets) {
			return nil, errs.ErrBadRequest
		}
		if err := p.accrueReserveEmissions(id, assets[resIndex], resType, from, now); err != nil {
			return nil, err
		}
		ud, err := p.loadUserEmisData(id, from)
		if err != nil {
			return nil, err
		}
		total.Add(total, ud.Accrued)
		ud.Accrued = big.NewInt(0)
		if err := p.saveUserEmisData(id, from, ud); err != nil {
			return nil, err
		}
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := p.blnd.Transfer(p.Address, to, total); err != nil {
		return nil, err
	}
	metrics.Emissions().RecordClaim(p.Address.String(), scalar7ToFloat(total))
	return total, nil
}

// scalar7ToFloat renders a SCALAR_7 fixed-point amount as a decimal float
// for metrics export, where sub-unit precision loss is acceptable.
func scalar7ToFloat(amount *big.Int) float64 {
	f := new(big.Float).SetInt(amount)
	f.Quo(f, big.NewFloat(1e7))
	out, _ := f.Float64()
	return out
}
