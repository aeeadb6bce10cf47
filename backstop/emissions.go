package backstop

import (
	"math/big"

	"corelend/crypto"
	"corelend/emissions"
	"corelend/storage"
)

func (b *Backstop) loadPoolEPS(pool crypto.Address) (*big.Int, error) {
	return storage.LoadBigInt(b.tracker, storage.PoolEPSKey(pool))
}

func (b *Backstop) savePoolEPS(pool crypto.Address, eps *big.Int) error {
	return storage.SaveBigInt(b.tracker, storage.PoolEPSKey(pool), storage.TierPersistentShared, eps)
}

type storedEmisConfig struct {
	ExpTime uint64
	EPS     *big.Int
}

func (b *Backstop) loadEmisConfig(pool crypto.Address) (emissions.Config, error) {
	var stored storedEmisConfig
	found, err := storage.Load(b.tracker, storage.BackstopEmisConfigKey(pool), &stored)
	if err != nil {
		return emissions.Config{}, err
	}
	if !found {
		return emissions.Config{EPS: big.NewInt(0)}, nil
	}
	return emissions.Config{ExpTime: stored.ExpTime, EPS: nonNil(stored.EPS)}, nil
}

func (b *Backstop) saveEmisConfig(pool crypto.Address, cfg emissions.Config) error {
	return storage.Save(b.tracker, storage.BackstopEmisConfigKey(pool), storage.TierPersistentShared, storedEmisConfig{ExpTime: cfg.ExpTime, EPS: cfg.EPS})
}

type storedEmisData struct {
	Index    *big.Int
	LastTime uint64
}

func (b *Backstop) loadEmisData(pool crypto.Address) (emissions.Data, error) {
	var stored storedEmisData
	found, err := storage.Load(b.tracker, storage.BackstopEmisDataKey(pool), &stored)
	if err != nil {
		return emissions.Data{}, err
	}
	if !found {
		return emissions.Data{Index: big.NewInt(0)}, nil
	}
	return emissions.Data{Index: nonNil(stored.Index), LastTime: stored.LastTime}, nil
}

func (b *Backstop) saveEmisData(pool crypto.Address, data emissions.Data) error {
	return storage.Save(b.tracker, storage.BackstopEmisDataKey(pool), storage.TierPersistentShared, storedEmisData{Index: data.Index, LastTime: data.LastTime})
}

type storedUserEmisData struct {
	Index   *big.Int
	Accrued *big.Int
}

func (b *Backstop) loadUserEmisData(pool, user crypto.Address) (emissions.UserData, error) {
	var stored storedUserEmisData
	found, err := storage.Load(b.tracker, storage.UserEmisDataKey(pool, user), &stored)
	if err != nil {
		return emissions.UserData{}, err
	}
	if !found {
		return emissions.UserData{Index: big.NewInt(0), Accrued: big.NewInt(0)}, nil
	}
	return emissions.UserData{Index: nonNil(stored.Index), Accrued: nonNil(stored.Accrued)}, nil
}

func (b *Backstop) saveUserEmisData(pool, user crypto.Address, ud emissions.UserData) error {
	return storage.Save(b.tracker, storage.UserEmisDataKey(pool, user), storage.TierPersistentUser, storedUserEmisData{Index: ud.Index, Accrued: ud.Accrued})
}

// accrueUserEmissions advances the pool's depositor-emission index to now
// and folds the movement into user's accrued balance, per §4.7's "update
// emissions index for from before mutating shares" requirement on every
// deposit/queue/dequeue/withdraw call.
func (b *Backstop) accrueUserEmissions(pool, user crypto.Address, now uint64) error {
	cfg, err := b.loadEmisConfig(pool)
	if err != nil {
		return err
	}
	data, err := b.loadEmisData(pool)
	if err != nil {
		return err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return err
	}
	denominator := new(big.Int).Sub(pb.Shares, pb.Q4W)
	data = emissions.Accrue(data, cfg, now, denominator)
	if err := b.saveEmisData(pool, data); err != nil {
		return err
	}

	ud, err := b.loadUserEmisData(pool, user)
	if err != nil {
		return err
	}
	ub, err := b.loadUserBalance(pool, user)
	if err != nil {
		return err
	}
	ud = emissions.AccrueUser(ud, data.Index, ub.Shares)
	return b.saveUserEmisData(pool, user, ud)
}

// GulpPoolEmissions pulls the pool's PoolEPS-rated weekly BLND allocation
// into a fresh depositor-emission config, rolling forward any unclaimed
// eps-seconds from a still-live prior config, per §4.7's roll-forward rule.
// It accrues the prior config to now first so the roll-forward itself does
// not lose any interim index movement.
func (b *Backstop) GulpPoolEmissions(pool crypto.Address, now uint64) (*big.Int, error) {
	eps, err := b.loadPoolEPS(pool)
	if err != nil {
		return nil, err
	}
	weeklyTokens := new(big.Int).Mul(eps, big.NewInt(secondsPerWeek))

	prior, err := b.loadEmisConfig(pool)
	if err != nil {
		return nil, err
	}
	data, err := b.loadEmisData(pool)
	if err != nil {
		return nil, err
	}
	pb, err := b.loadPoolBalance(pool)
	if err != nil {
		return nil, err
	}
	denominator := new(big.Int).Sub(pb.Shares, pb.Q4W)
	data = emissions.Accrue(data, prior, now, denominator)
	if err := b.saveEmisData(pool, data); err != nil {
		return nil, err
	}

	next := emissions.GulpReserve(prior, weeklyTokens, now)
	if err := b.saveEmisConfig(pool, next); err != nil {
		return nil, err
	}
	return weeklyTokens, nil
}

const secondsPerWeek = 7 * 24 * 60 * 60

// backstopEmissionRate is the constant total BLND/second the emitter feeds
// the backstop (1 BLND/sec, per §4.9), split across the reward zone below.
var backstopEmissionRate = big.NewInt(10_000_000)

// GulpEmissions re-splits the backstop's fixed total emission rate across
// the current reward zone, weighting each pool's eps by its share of the
// zone's total staked backstop tokens. Matches the top-level
// backstop.gulp_emissions() contract entry (distinct from
// gulp_pool_emissions(pool), which opens one pool's depositor stream from
// its already-assigned PoolEPS).
func (b *Backstop) GulpEmissions() error {
	zone, err := b.loadRewardZone()
	if err != nil {
		return err
	}
	total := big.NewInt(0)
	for _, e := range zone {
		total.Add(total, e.Tokens)
	}
	if total.Sign() == 0 {
		return nil
	}
	for _, e := range zone {
		eps := new(big.Int).Quo(new(big.Int).Mul(backstopEmissionRate, e.Tokens), total)
		if err := b.savePoolEPS(e.Pool, eps); err != nil {
			return err
		}
	}
	return nil
}

// Claim accrues every named pool's depositor-emission stream for from to
// now, sums the total accrued BLND, zeroes each pool's accrued balance, and
// transfers the sum out.
func (b *Backstop) Claim(from crypto.Address, pools []crypto.Address, to crypto.Address, now uint64) (*big.Int, error) {
	total := big.NewInt(0)
	for _, pool := range pools {
		if err := b.accrueUserEmissions(pool, from, now); err != nil {
			return nil, err
		}
		ud, err := b.loadUserEmisData(pool, from)
		if err != nil {
			return nil, err
		}
		total.Add(total, ud.Accrued)
		ud.Accrued = big.NewInt(0)
		if err := b.saveUserEmisData(pool, from, ud); err != nil {
			return nil, err
		}
	}
	if total.Sign() == 0 {
		return total, nil
	}
	if err := b.blnd.Transfer(b.Address, to, total); err != nil {
		return nil, err
	}
	return total, nil
}
