// Package crypto provides the opaque address identifier used throughout the
// pool, backstop, and auction engines. Key management and transaction
// authentication live in the dispatch layer and are out of scope for the
// core (see spec §1); this package only derives and encodes addresses.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// AddressPrefix distinguishes the human-readable address namespaces used by
// the core: user-controlled accounts versus protocol-owned module vaults.
type AddressPrefix string

const (
	UserPrefix   AddressPrefix = "pool"
	ModulePrefix AddressPrefix = "poolmod"
)

// Address represents a 20-byte opaque identifier with a human-readable
// prefix. The underlying bytes are a fixed-size array rather than a slice so
// that Address stays comparable: the pool, auction, and workspace engines
// key maps directly by crypto.Address.
type Address struct {
	prefix AddressPrefix
	bytes  [20]byte
}

// NewAddress constructs an address from a 20-byte identifier.
func NewAddress(prefix AddressPrefix, b []byte) (Address, error) {
	if len(b) != 20 {
		return Address{}, fmt.Errorf("crypto: address must be 20 bytes, got %d", len(b))
	}
	var addr Address
	addr.prefix = prefix
	copy(addr.bytes[:], b)
	return addr, nil
}

// MustNewAddress constructs an address and panics if the input is invalid.
func MustNewAddress(prefix AddressPrefix, b []byte) Address {
	addr, err := NewAddress(prefix, b)
	if err != nil {
		panic(err)
	}
	return addr
}

// ModuleAddress deterministically derives a protocol-owned vault address from
// a stable seed string, e.g. "backstop", "reserve/3/collateral". This mirrors
// how the teacher's lending engine carries fixed moduleAddress/
// collateralAddress identifiers, generalized to arbitrarily many named
// vaults: one per reserve, plus the backstop and emitter.
func ModuleAddress(seed string) Address {
	digest := ethcrypto.Keccak256([]byte("corelend/module/" + seed))
	return MustNewAddress(ModulePrefix, digest[:20])
}

func (a Address) String() string {
	if a.IsZero() {
		return ""
	}
	conv, err := bech32.ConvertBits(a.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(a.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Bytes returns a defensive copy of the address's raw bytes.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a.bytes[:]...)
}

// Prefix returns the human-readable prefix associated with the address.
func (a Address) Prefix() AddressPrefix {
	return a.prefix
}

// IsZero reports whether the address carries no identifying bytes, the
// convention used throughout the engines to represent "not configured".
func (a Address) IsZero() bool {
	return a.bytes == [20]byte{}
}

// Equal reports whether two addresses carry the same bytes, ignoring prefix.
func (a Address) Equal(other Address) bool {
	return a.bytes == other.bytes
}

// DecodeAddress parses a bech32-encoded address string.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: error converting bits: %w", err)
	}
	return NewAddress(AddressPrefix(prefix), conv)
}
