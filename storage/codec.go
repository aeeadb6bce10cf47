package storage

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// Save RLP-encodes value and writes it under key, bumping key's TTL
// bookkeeping per tier. Grounded on the teacher's writeBigInt/persistAccount
// pattern in core/state/manager.go, generalized from *big.Int-only records to
// any RLP-encodable struct.
func Save(tracker *TTLTracker, key []byte, tier Tier, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	if err := tracker.store.Put(key, encoded); err != nil {
		return err
	}
	return tracker.BumpEntry(key, tier)
}

// Load RLP-decodes the value stored at key into out, reporting (false, nil)
// if the key does not exist rather than an error, matching the teacher's
// loadBigInt convention of treating "absent" as a normal, checkable case
// instead of forcing every caller through error-wrapping boilerplate.
func Load(tracker *TTLTracker, key []byte, out interface{}) (bool, error) {
	raw, err := tracker.store.Get(key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes key and its TTL bookkeeping entry.
func Delete(tracker *TTLTracker, key []byte) error {
	if err := tracker.store.Delete(key); err != nil {
		return err
	}
	return tracker.store.Delete(ttlKey(key))
}

// LoadBigInt reads a *big.Int stored at key, defaulting to zero if absent.
// RLP cannot represent a negative big.Int; every quantity stored this way is
// an invariant-enforced non-negative amount (reserve supply/liability totals,
// share counts, token balances), matching the teacher's writeBigInt rejection
// of negative values.
func LoadBigInt(tracker *TTLTracker, key []byte) (*big.Int, error) {
	var stored big.Int
	found, err := Load(tracker, key, &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return &stored, nil
}

// SaveBigInt writes a non-negative *big.Int to key, bumping its TTL per tier.
func SaveBigInt(tracker *TTLTracker, key []byte, tier Tier, value *big.Int) error {
	if value.Sign() < 0 {
		panic("storage: refusing to persist a negative amount at " + string(key))
	}
	return Save(tracker, key, tier, value)
}
