package pool

import (
	"math/big"

	"corelend/crypto"
	"corelend/health"
	"corelend/oracle"
	"corelend/reserve"
)

// workspace is the in-memory, per-transaction cache the request pipeline
// threads through: each reserve is loaded-and-accrued at most once, each
// oracle price is read at most once, and every transfer is deferred until
// after the health check and the dependency-ordered flush. Grounded on the
// "cached mutable state" and "oracle price caching" design notes.
type workspace struct {
	pool *Pool

	reserves    map[crypto.Address]*reserve.Reserve
	reservesIdx map[uint32]*reserve.Reserve
	prices      health.Prices
	oracleDec   uint32
	oracleDecOK bool

	checkHealth bool
	transfers   []transfer
	now         uint64
}

func newWorkspace(p *Pool, now uint64) *workspace {
	return &workspace{
		pool:        p,
		reserves:    make(map[crypto.Address]*reserve.Reserve),
		reservesIdx: make(map[uint32]*reserve.Reserve),
		prices:      make(health.Prices),
		now:         now,
	}
}

// loadReserve returns the cached, accrued reserve for asset, loading it on
// first access within this transaction.
func (w *workspace) loadReserve(asset crypto.Address) (*reserve.Reserve, error) {
	if r, ok := w.reserves[asset]; ok {
		return r, nil
	}
	r, err := w.pool.loadReserve(asset, w.now)
	if err != nil {
		return nil, err
	}
	w.reserves[asset] = r
	w.reservesIdx[r.Index] = r
	return r, nil
}

// price returns the cached oracle price for a reserve's asset, rejecting any
// quote older than 24 hours, per the oracle external interface.
func (w *workspace) price(r *reserve.Reserve) (*big.Int, error) {
	if p, ok := w.prices[r.Index]; ok {
		return p, nil
	}
	quote, err := w.pool.oracle.LastPrice(r.Asset)
	if err != nil {
		return nil, err
	}
	if err := oracle.Fresh(quote, w.now); err != nil {
		return nil, err
	}
	w.prices[r.Index] = quote.Price
	return quote.Price, nil
}

func (w *workspace) decimals() (uint32, error) {
	if w.oracleDecOK {
		return w.oracleDec, nil
	}
	dec, err := w.pool.oracle.Decimals()
	if err != nil {
		return 0, err
	}
	w.oracleDec = dec
	w.oracleDecOK = true
	return dec, nil
}

func (w *workspace) enqueueTransfer(asset, from, to crypto.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	w.transfers = append(w.transfers, transfer{asset: asset, from: from, to: to, amount: amount})
}
