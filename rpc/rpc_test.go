package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"corelend/backstop"
	"corelend/crypto"
	"corelend/ledger"
	"corelend/oracle"
	"corelend/pool"
	"corelend/reserve"
	"corelend/storage"
)

type alwaysPool struct{}

func (alwaysPool) IsPool(crypto.Address) (bool, error) { return true, nil }

func newTestServer(t *testing.T) (*Server, *pool.Pool, *ledger.Ledger, crypto.Address) {
	t.Helper()
	led := ledger.New()
	stable := crypto.ModuleAddress("asset/STABLE")
	blnd := crypto.ModuleAddress("asset/BLND")
	lpToken := crypto.ModuleAddress("backstop/lp-token")
	tracker := storage.NewTTLTracker(storage.NewMemKV(), storage.SystemClock{})

	bsAddr := crypto.ModuleAddress("backstop")
	bs := backstop.New(bsAddr, tracker, led.Bind(lpToken), led.Bind(blnd), alwaysPool{})

	o := oracle.NewStatic(7)
	o.SetPrice(stable, big.NewInt(10_000_000), 0)

	poolAddr := crypto.ModuleAddress("pool/default")
	p := pool.New(poolAddr, tracker, o, led, led.Bind(blnd), bs)
	if err := p.Initialize(crypto.ModuleAddress("admin"), crypto.ModuleAddress("oracle"), bsAddr, big.NewInt(100_000_000), 4); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := p.InitReserve(stable, reserve.Config{
		Decimals: 7,
		CFactor:  big.NewInt(9_000_000),
		LFactor:  big.NewInt(9_500_000),
		Util:     8_000_000, MaxUtil: 9_500_000,
		ROne: 500_000, RTwo: 2_000_000, RThree: 10_000_000,
	}); err != nil {
		t.Fatalf("InitReserve: %v", err)
	}

	registry := StaticRegistry{"default": p}
	s := New(Config{Pools: registry, Clock: storage.SystemClock{}})
	return s, p, led, stable
}

func TestGetReserveReturnsInitializedReserve(t *testing.T) {
	s, _, _, stable := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/pools/default/reserves/"+stable.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var view reserveView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Asset != stable.String() {
		t.Fatalf("reserveView.Asset = %s, want %s", view.Asset, stable.String())
	}
}

func TestGetReserveUnknownPoolReturns404(t *testing.T) {
	s, _, _, stable := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/pools/nonexistent/reserves/"+stable.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetReserveUnknownAssetReturns404(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	unknown := crypto.ModuleAddress("asset/UNKNOWN")
	req := httptest.NewRequest(http.MethodGet, "/pools/default/reserves/"+unknown.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetPositionsReflectsSubmittedSupply(t *testing.T) {
	s, p, led, stable := newTestServer(t)
	alice := crypto.ModuleAddress("user/alice")
	led.Mint(stable, alice, big.NewInt(1_000_000_000))
	if _, err := p.Submit(context.Background(), alice, alice, alice, []pool.Request{
		{Type: pool.RequestSupply, Address: stable, Amount: big.NewInt(100_000_000)},
	}, 0, 0); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/pools/default/positions/"+alice.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
	var view positionsView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(view.Supply) != 1 {
		t.Fatalf("positionsView.Supply = %v, want one entry", view.Supply)
	}
}

func TestGetAuctionReturns404WhenNoneInProgress(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	user := crypto.ModuleAddress("user/alice")
	req := httptest.NewRequest(http.MethodGet, "/pools/default/auctions/0/"+user.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGetAuctionBadTypeParamReturns400(t *testing.T) {
	s, _, _, _ := newTestServer(t)
	user := crypto.ModuleAddress("user/alice")
	req := httptest.NewRequest(http.MethodGet, "/pools/default/auctions/not-a-number/"+user.String(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
