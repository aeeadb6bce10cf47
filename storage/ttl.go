package storage

import (
	"encoding/binary"
	"time"
)

// Tier identifies one of the ledger's four storage tiers. Each tier has a
// threshold/bump pair: once live-until falls within threshold of the current
// time, the next write (or an explicit BumpEntry call) extends live-until by
// bump. This mirrors the rent model described for SHARED and USER ledger
// entries; INSTANCE entries never expire while the pool is in use, and
// TEMPORARY entries are left to their backend's own eviction (no record in
// this port is saved under this tier).
type Tier int

const (
	// TierInstance holds scalar, pool-wide addresses (admin, backstop, blnd,
	// usdc, factory). Bumped once per submit() call, never expires in
	// practice.
	TierInstance Tier = iota
	// TierPersistentShared holds reserve config/data, pool config, the
	// reward zone, and auctions: ~10 day low-water threshold, bumped to 14
	// days out.
	TierPersistentShared
	// TierPersistentUser holds user positions, user balances, and user
	// emission data: ~60 day low-water threshold, bumped to 62 days out.
	TierPersistentUser
	// TierTemporary holds short-lived scratch entries with no rent
	// obligation beyond the backend's own lifetime.
	TierTemporary
)

const day = 24 * time.Hour

// thresholds maps a tier to (low-water mark, bump-to duration). Values are
// expressed in ledger-day units the way the rent model specifies them; this
// Go port has no real ledger close cadence so "days" are wall-clock days
// measured from the supplied clock.
var thresholds = map[Tier]struct {
	threshold time.Duration
	bumpTo    time.Duration
}{
	TierInstance:         {threshold: 0, bumpTo: 0},
	TierPersistentShared: {threshold: 10 * day, bumpTo: 14 * day},
	TierPersistentUser:   {threshold: 60 * day, bumpTo: 62 * day},
	TierTemporary:        {threshold: 0, bumpTo: 0},
}

// Clock abstracts wall-clock time so tests can drive TTL bumping
// deterministically instead of depending on time.Now.
type Clock interface {
	Now() time.Time
}

// SystemClock is the default Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func ttlKey(key []byte) []byte {
	out := make([]byte, 0, len(key)+5)
	out = append(out, 't', 't', 'l', '/')
	out = append(out, key...)
	return out
}

// TTLTracker wraps a KVStore with the live-until bookkeeping described above.
// It is a side-namespace over the same backend, keyed by ttlKey(key), so the
// tracked entry and its TTL metadata can share a backend and a transaction
// boundary without the engines needing to know about either.
type TTLTracker struct {
	store KVStore
	clock Clock
}

// NewTTLTracker wraps store with TTL bookkeeping driven by clock.
func NewTTLTracker(store KVStore, clock Clock) *TTLTracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTLTracker{store: store, clock: clock}
}

// BumpEntry extends key's live-until to tier's bump-to duration from now, if
// and only if the entry is within tier's low-water threshold of expiring (or
// has no recorded live-until yet). It is a no-op for TierInstance and
// TierTemporary, which carry no rent obligation in this port.
func (t *TTLTracker) BumpEntry(key []byte, tier Tier) error {
	cfg, ok := thresholds[tier]
	if !ok || cfg.bumpTo == 0 {
		return nil
	}
	now := t.clock.Now()
	raw, err := t.store.Get(ttlKey(key))
	needsBump := true
	if err == nil && len(raw) == 8 {
		liveUntil := time.Unix(int64(binary.BigEndian.Uint64(raw)), 0)
		needsBump = liveUntil.Sub(now) <= cfg.threshold
	} else if err != nil && err != ErrNotFound {
		return err
	}
	if !needsBump {
		return nil
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(now.Add(cfg.bumpTo).Unix()))
	return t.store.Put(ttlKey(key), buf)
}

// LiveUntil reports the recorded expiry for key, or the zero time if none has
// been recorded (e.g. the entry has never been bumped).
func (t *TTLTracker) LiveUntil(key []byte) (time.Time, error) {
	raw, err := t.store.Get(ttlKey(key))
	if err == ErrNotFound {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if len(raw) != 8 {
		return time.Time{}, nil
	}
	return time.Unix(int64(binary.BigEndian.Uint64(raw)), 0), nil
}

// Expired reports whether key's tracked entry has passed its live-until; a
// key with no recorded live-until is never reported as expired.
func (t *TTLTracker) Expired(key []byte) (bool, error) {
	liveUntil, err := t.LiveUntil(key)
	if err != nil {
		return false, err
	}
	if liveUntil.IsZero() {
		return false, nil
	}
	return !liveUntil.After(t.clock.Now()), nil
}
