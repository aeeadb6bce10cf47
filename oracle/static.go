package oracle

import (
	"math/big"
	"sync"

	"corelend/crypto"
)

// Static is a fixed-decimals, manually-updated price source, standing in for
// the teacher's on-chain oracle attestation feed (native/oracle-attesterd)
// until corelendd wires a real attester. Prices are set by an operator RPC
// or config reload, not derived from any market activity.
type Static struct {
	decimals uint32

	mu     sync.Mutex
	quotes map[crypto.Address]Quote
}

// NewStatic returns a Static source quoting prices in 10^decimals units.
func NewStatic(decimals uint32) *Static {
	return &Static{decimals: decimals, quotes: make(map[crypto.Address]Quote)}
}

// Decimals implements Source.
func (s *Static) Decimals() (uint32, error) {
	return s.decimals, nil
}

// LastPrice implements Source.
func (s *Static) LastPrice(asset crypto.Address) (Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[asset]
	if !ok {
		return Quote{Price: big.NewInt(0)}, nil
	}
	return q, nil
}

// SetPrice records asset's current price at timestamp now.
func (s *Static) SetPrice(asset crypto.Address, price *big.Int, now uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[asset] = Quote{Price: price, Timestamp: now}
}
