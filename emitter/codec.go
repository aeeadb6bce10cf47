package emitter

import (
	"corelend/crypto"
)

// storedState is state's RLP-encodable shadow: rlp cannot encode
// crypto.Address's unexported fields, so addresses are carried as raw bytes.
// Grounded on the same stored-shadow-type convention used throughout
// pool/codec.go and backstop/codec.go.
type storedState struct {
	Backstop       []byte
	BackstopToken  []byte
	LastDistroTime uint64
	Fork           uint64
	HasPending     bool
	PendingNew     []byte
	PendingToken   []byte
	PendingUnlock  uint64
}

func fromState(s state) storedState {
	return storedState{
		Backstop:       s.Backstop.Bytes(),
		BackstopToken:  s.BackstopToken.Bytes(),
		LastDistroTime: s.LastDistroTime,
		Fork:           s.Fork,
		HasPending:     s.HasPending,
		PendingNew:     s.Pending.NewBackstop.Bytes(),
		PendingToken:   s.Pending.NewToken.Bytes(),
		PendingUnlock:  s.Pending.UnlockTime,
	}
}

func (s storedState) toState() state {
	return state{
		Backstop:       addrFromBytes(s.Backstop),
		BackstopToken:  addrFromBytes(s.BackstopToken),
		LastDistroTime: s.LastDistroTime,
		Fork:           s.Fork,
		HasPending:     s.HasPending,
		Pending: PendingSwap{
			NewBackstop: addrFromBytes(s.PendingNew),
			NewToken:    addrFromBytes(s.PendingToken),
			UnlockTime:  s.PendingUnlock,
		},
	}
}

func addrFromBytes(b []byte) crypto.Address {
	if len(b) != 20 {
		return crypto.Address{}
	}
	return crypto.MustNewAddress(crypto.UserPrefix, b)
}
