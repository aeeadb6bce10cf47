package rpc

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"corelend/auction"
	"corelend/crypto"
	"corelend/errs"
	corelendpool "corelend/pool"
	"corelend/reserve"
)

func (s *Server) lookupPool(w http.ResponseWriter, r *http.Request) (*corelendpool.Pool, bool) {
	poolID := chi.URLParam(r, "poolID")
	p, ok := s.pools.Lookup(poolID)
	if !ok {
		s.writeError(w, http.StatusNotFound, errs.ErrNotPool)
		return nil, false
	}
	return p, true
}

type reserveView struct {
	Asset          string   `json:"asset"`
	Index          uint32   `json:"index"`
	DRate          *big.Int `json:"dRate"`
	BRate          *big.Int `json:"bRate"`
	IRMod          *big.Int `json:"irMod"`
	DSupply        *big.Int `json:"dSupply"`
	BSupply        *big.Int `json:"bSupply"`
	BackstopCredit *big.Int `json:"backstopCredit"`
	LastTime       uint64   `json:"lastTime"`
}

func newReserveView(r *reserve.Reserve) reserveView {
	return reserveView{
		Asset:          r.Asset.String(),
		Index:          r.Index,
		DRate:          r.Data.DRate,
		BRate:          r.Data.BRate,
		IRMod:          r.Data.IRMod,
		DSupply:        r.Data.DSupply,
		BSupply:        r.Data.BSupply,
		BackstopCredit: r.Data.BackstopCredit,
		LastTime:       r.Data.LastTime,
	}
}

func (s *Server) getReserve(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupPool(w, r)
	if !ok {
		return
	}
	asset, err := crypto.DecodeAddress(chi.URLParam(r, "asset"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := p.GetReserve(asset, s.now())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newReserveView(res))
}

type positionsView struct {
	Address     string              `json:"address"`
	Collateral  map[string]*big.Int `json:"collateral"`
	Liabilities map[string]*big.Int `json:"liabilities"`
	Supply      map[string]*big.Int `json:"supply"`
}

func (s *Server) getPositions(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupPool(w, r)
	if !ok {
		return
	}
	user, err := crypto.DecodeAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	pos, err := p.GetPositions(user)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	view := positionsView{
		Address:     user.String(),
		Collateral:  indexMapToStringMap(pos.Collateral),
		Liabilities: indexMapToStringMap(pos.Liabilities),
		Supply:      indexMapToStringMap(pos.Supply),
	}
	s.writeJSON(w, http.StatusOK, view)
}

func indexMapToStringMap(m map[uint32]*big.Int) map[string]*big.Int {
	out := make(map[string]*big.Int, len(m))
	for idx, amount := range m {
		out[strconv.FormatUint(uint64(idx), 10)] = amount
	}
	return out
}

type auctionView struct {
	Type          uint32              `json:"type"`
	Subject       string              `json:"subject"`
	Block         uint32              `json:"block"`
	CorrelationID string              `json:"correlationId"`
	Bid           map[string]*big.Int `json:"bid"`
	Lot           map[string]*big.Int `json:"lot"`
}

func (s *Server) getAuction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupPool(w, r)
	if !ok {
		return
	}
	typeParam, err := strconv.ParseUint(chi.URLParam(r, "type"), 10, 32)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errs.ErrBadRequest)
		return
	}
	subject, err := crypto.DecodeAddress(chi.URLParam(r, "subject"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	data, found, err := p.GetAuction(auction.Type(typeParam), subject)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if !found {
		s.writeError(w, http.StatusNotFound, errors.New("corelend: no auction in progress for subject"))
		return
	}
	view := auctionView{
		Type:          uint32(data.Type),
		Subject:       data.Subject.String(),
		Block:         data.Block,
		CorrelationID: data.CorrelationID,
		Bid:           addressMapToStringMap(data.Bid),
		Lot:           addressMapToStringMap(data.Lot),
	}
	s.writeJSON(w, http.StatusOK, view)
}

func addressMapToStringMap(m map[crypto.Address]*big.Int) map[string]*big.Int {
	out := make(map[string]*big.Int, len(m))
	for addr, amount := range m {
		out[addr.String()] = amount
	}
	return out
}

// writeEngineError maps an engine error to the closest-fitting HTTP status.
// Not-found-shaped errors map to 404, caller/request errors to 400, anything
// else to 500 - the same three-bucket split the teacher's
// handleTransitionError uses for invoice state errors.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotPool), errors.Is(err, errs.ErrInvalidPoolInitArgs), errors.Is(err, errs.ErrInvalidReserveMetadata):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, errs.ErrBadRequest), errors.Is(err, errs.ErrNegativeAmount):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}
