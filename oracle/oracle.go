// Package oracle defines the price-feed collaborator consumed by the pool,
// auction, and health-factor packages, grounded on the teacher's
// core/pricing.PriceFeed interface (staleness check, base-currency decimals)
// and native/swap's PriceOracle/TWAPOracle shape.
package oracle

import (
	"math/big"
	"time"

	"corelend/crypto"
	"corelend/errs"
)

// StaleAfter is the maximum age of a price before it is rejected, matching
// the external-interfaces section's "stale if timestamp+86400 < now" rule.
const StaleAfter = 24 * time.Hour

// Quote is a single asset's last reported price, in 10^Decimals units of the
// oracle's base asset.
type Quote struct {
	Price     *big.Int
	Timestamp uint64
}

// Source is the external oracle collaborator. decimals and lastprice are
// read at most once per transaction by the pool's price cache (see
// pool.workspace), matching the "oracle price caching" design note.
type Source interface {
	Decimals() (uint32, error)
	LastPrice(asset crypto.Address) (Quote, error)
}

// Fresh validates a quote against now, returning ErrStalePrice if the quote
// is older than StaleAfter.
func Fresh(q Quote, now uint64) error {
	if q.Timestamp+uint64(StaleAfter.Seconds()) < now {
		return errs.ErrStalePrice
	}
	return nil
}
