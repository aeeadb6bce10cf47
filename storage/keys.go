package storage

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"corelend/crypto"
)

// Every persisted record is addressed by a tagged key: a short ASCII tag
// identifying the record kind, followed by its address components, hashed
// with Keccak256 before hitting the backing store. This mirrors the
// teacher's kvKey()/tokenMetadataKey()/balanceKey() pattern in
// core/state/manager.go, generalized from a handful of fixed prefixes to the
// full tagged-enum key space the pool needs.
const (
	tagUserBalance    = "ubal"
	tagPoolBalance    = "pbal"
	tagPoolUSDC       = "pusdc"
	tagRewardZone     = "rzone"
	tagPoolEPS        = "peps"
	tagBEmisCfg       = "becfg"
	tagBEmisData      = "bedat"
	tagUEmisData      = "uedat"
	tagDropList       = "drop"
	tagLPTknVal       = "lptv"
	tagAuction        = "auct"
	tagResConfig      = "rcfg"
	tagResData        = "rdat"
	tagResList        = "rlist"
	tagUserPositions  = "upos"
	tagPoolConfig     = "pcfg"
	tagPoolEmis       = "pemis"
	tagEmisConfig     = "ecfg"
	tagEmisData       = "edat"
	tagUserEmisData   = "uemis"
	tagInstanceAdmin  = "admin"
	tagInstanceBckstp = "backstop"
	tagInstanceBLND   = "blnd"
	tagInstanceUSDC   = "usdc"
	tagInstanceFactry = "factory"
	tagEmitterState   = "emit"
)

func hashKey(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	buf := make([]byte, 0, total)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func addrBytes(a crypto.Address) []byte { return a.Bytes() }

func u32Bytes(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

// UserBalanceKey addresses a user's backstop shares/q4w for a pool.
func UserBalanceKey(pool, user crypto.Address) []byte {
	return hashKey([]byte(tagUserBalance), addrBytes(pool), addrBytes(user))
}

// PoolBalanceKey addresses a pool's aggregate backstop-side balance.
func PoolBalanceKey(pool crypto.Address) []byte {
	return hashKey([]byte(tagPoolBalance), addrBytes(pool))
}

// PoolUSDCKey addresses the USDC half of a pool's backstop deposit.
func PoolUSDCKey(pool crypto.Address) []byte {
	return hashKey([]byte(tagPoolUSDC), addrBytes(pool))
}

// RewardZoneKey addresses the single global reward-zone pool list.
func RewardZoneKey() []byte {
	return hashKey([]byte(tagRewardZone))
}

// PoolEPSKey addresses a pool's emissions-per-second share.
func PoolEPSKey(pool crypto.Address) []byte {
	return hashKey([]byte(tagPoolEPS), addrBytes(pool))
}

// BackstopEmisConfigKey addresses a pool's backstop-side emission config.
func BackstopEmisConfigKey(pool crypto.Address) []byte {
	return hashKey([]byte(tagBEmisCfg), addrBytes(pool))
}

// BackstopEmisDataKey addresses a pool's backstop-side emission accrual data.
func BackstopEmisDataKey(pool crypto.Address) []byte {
	return hashKey([]byte(tagBEmisData), addrBytes(pool))
}

// UserEmisDataKey addresses a user's backstop-side emission accrual data.
func UserEmisDataKey(pool, user crypto.Address) []byte {
	return hashKey([]byte(tagUEmisData), addrBytes(pool), addrBytes(user))
}

// DropListKey addresses the backstop's airdrop eligibility list.
func DropListKey() []byte {
	return hashKey([]byte(tagDropList))
}

// LPTokenValueKey addresses the cached per-share BLND/USDC decomposition of
// the backstop LP token.
func LPTokenValueKey() []byte {
	return hashKey([]byte(tagLPTknVal))
}

// AuctionKey addresses an in-progress auction of the given type against the
// given subject address (the user being liquidated, or the pool's backstop
// for bad-debt/interest auctions).
func AuctionKey(auctionType uint32, subject crypto.Address) []byte {
	return hashKey([]byte(tagAuction), u32Bytes(auctionType), addrBytes(subject))
}

// ReserveConfigKey addresses a reserve's static configuration.
func ReserveConfigKey(asset crypto.Address) []byte {
	return hashKey([]byte(tagResConfig), addrBytes(asset))
}

// ReserveDataKey addresses a reserve's mutable accrual state.
func ReserveDataKey(asset crypto.Address) []byte {
	return hashKey([]byte(tagResData), addrBytes(asset))
}

// ReserveListKey addresses the pool's ordered list of reserve asset addresses.
func ReserveListKey() []byte {
	return hashKey([]byte(tagResList))
}

// UserPositionsKey addresses a user's collateral/liability/supply positions.
func UserPositionsKey(user crypto.Address) []byte {
	return hashKey([]byte(tagUserPositions), addrBytes(user))
}

// PoolConfigKey addresses the pool's static configuration.
func PoolConfigKey() []byte {
	return hashKey([]byte(tagPoolConfig))
}

// PoolEmisKey addresses the pool's per-reserve emission share configuration.
func PoolEmisKey() []byte {
	return hashKey([]byte(tagPoolEmis))
}

// EmisConfigKey addresses a reserve-token emitter's config, keyed by the
// reserve-token id (reserve index*2 + 0 for supply, +1 for liability, per the
// emissions reserve-token-id convention).
func EmisConfigKey(id uint32) []byte {
	return hashKey([]byte(tagEmisConfig), u32Bytes(id))
}

// EmisDataKey addresses a reserve-token emitter's accrual data.
func EmisDataKey(id uint32) []byte {
	return hashKey([]byte(tagEmisData), u32Bytes(id))
}

// UserReserveEmisDataKey addresses one user's accrual state against a
// single reserve-token emission stream. Spec §6's key list abbreviates this
// to the shared UEmisData(pool,user) shape used by the backstop stream; the
// reserve-token stream needs one slot per (reserve_token_id, user) instead
// of one per (pool, user), so it gets its own tag rather than overloading
// UserEmisDataKey with a meaning it wasn't given.
func UserReserveEmisDataKey(reserveTokenID uint32, user crypto.Address) []byte {
	return hashKey([]byte(tagUserEmisData), u32Bytes(reserveTokenID), addrBytes(user))
}

// Instance-tier scalar addresses: admin, backstop, BLND token, USDC token,
// pool factory. These live for the lifetime of the deployment and are bumped
// with TierInstance (a no-op bump, see ttl.go).
func InstanceAdminKey() []byte   { return hashKey([]byte(tagInstanceAdmin)) }
func InstanceBackstopKey() []byte { return hashKey([]byte(tagInstanceBckstp)) }
func InstanceBLNDKey() []byte    { return hashKey([]byte(tagInstanceBLND)) }
func InstanceUSDCKey() []byte    { return hashKey([]byte(tagInstanceUSDC)) }
func InstanceFactoryKey() []byte { return hashKey([]byte(tagInstanceFactry)) }

// EmitterStateKey addresses the emitter's singleton state: current
// backstop/token, last distribution time, fork sequence, and any pending
// swap.
func EmitterStateKey() []byte { return hashKey([]byte(tagEmitterState)) }
