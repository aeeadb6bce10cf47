package backstop

import (
	"math/big"

	"corelend/crypto"
	"corelend/emissions"
	"corelend/observability/metrics"
	"corelend/storage"
)

// storedRewardZone is the RLP-encodable shadow of the reward zone. The
// zone's growth schedule (10 + one slot every ~97 days) is anchored at the
// epoch timestamp AddReward's caller supplies, rather than a hardcoded
// deployment time, so tests can fix it.
type storedRewardZone struct {
	Pools  [][]byte
	Tokens []*big.Int
}

func (b *Backstop) loadRewardZone() ([]emissions.Entry, error) {
	var stored storedRewardZone
	found, err := storage.Load(b.tracker, storage.RewardZoneKey(), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	out := make([]emissions.Entry, len(stored.Pools))
	for i := range stored.Pools {
		out[i] = emissions.Entry{Pool: addrFromBytes(stored.Pools[i]), Tokens: nonNil(stored.Tokens[i])}
	}
	return out, nil
}

func (b *Backstop) saveRewardZone(zone []emissions.Entry) error {
	stored := storedRewardZone{Pools: make([][]byte, len(zone)), Tokens: make([]*big.Int, len(zone))}
	for i, e := range zone {
		stored.Pools[i] = e.Pool.Bytes()
		stored.Tokens[i] = nonNil(e.Tokens)
	}
	return storage.Save(b.tracker, storage.RewardZoneKey(), storage.TierPersistentShared, stored)
}

func addrFromBytes(b []byte) crypto.Address {
	if len(b) != 20 {
		return crypto.Address{}
	}
	return crypto.MustNewAddress(crypto.UserPrefix, b)
}

// AddReward admits toAdd into the reward zone, evicting toRemove if the
// zone is already at capacity, per the add_reward(to_add, to_remove)
// contract entry. addTokens is toAdd's current backstop LP-token balance,
// queried by the caller before invoking this (the backstop only tracks
// shares/tokens per pool it already knows about; a brand-new pool's balance
// is necessarily zero until its first deposit, which this call precedes).
func (b *Backstop) AddReward(toAdd, toRemove crypto.Address, addTokens *big.Int, now, epoch, nextDistribution uint64) error {
	zone, err := b.loadRewardZone()
	if err != nil {
		return err
	}
	var removeEntry *emissions.Entry
	if !toRemove.IsZero() {
		for i := range zone {
			if zone[i].Pool.Equal(toRemove) {
				removeEntry = &zone[i]
				break
			}
		}
	}
	newZone, err := emissions.TryAdmit(zone, emissions.Entry{Pool: toAdd, Tokens: addTokens}, removeEntry, now, epoch, nextDistribution)
	if err != nil {
		return err
	}
	if err := b.saveRewardZone(newZone); err != nil {
		return err
	}
	metrics.Emissions().RecordZoneAdmitted(toAdd.String())
	if removeEntry != nil {
		metrics.Emissions().RecordZoneEvicted(removeEntry.Pool.String())
	}
	metrics.Emissions().SetZoneSize(len(newZone))
	return nil
}

// RewardZone returns the current reward-zone membership.
func (b *Backstop) RewardZone() ([]emissions.Entry, error) {
	return b.loadRewardZone()
}
