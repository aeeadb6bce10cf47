package node

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"corelend/config"
	"corelend/crypto"
	"corelend/storage"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		ListenAddress: ":6001",
		RPCAddress:    ":8080",
		DataDir:       "",
		Pool: config.PoolDefaults{
			BackstopTakeRate: 100_000_000,
			MaxPositions:     12,
		},
		Risk: config.RiskParameters{
			Reserves: []config.ReserveDefaults{
				{
					Asset: "STABLE", Decimals: 7,
					CFactor: 9_000_000, LFactor: 9_500_000,
					Util: 8_000_000, MaxUtil: 9_500_000,
					ROne: 400_000, RTwo: 2_000_000, RThree: 10_000_000,
					Reactivity: 2_000,
				},
			},
		},
		Emission: config.EmissionConfig{RewardZoneEpoch: 0},
		Backstop: config.BackstopParameters{
			Q4WPeriodSeconds:     30 * 24 * 60 * 60,
			CriticalLowThreshold: 10_000 * 10_000_000,
		},
	}
	config.EnsureDefaults(cfg)
	return cfg
}

func TestNewAssemblesPoolBackstopAndEmitter(t *testing.T) {
	n, err := New(testConfig(), storage.NewMemKV(), storage.SystemClock{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Ledger == nil || n.Oracle == nil || n.Backstop == nil || n.Emitter == nil || n.Server == nil {
		t.Fatal("New left a collaborator unset")
	}
	if _, ok := n.Pools.Lookup("default"); !ok {
		t.Fatal("New did not register the default pool")
	}
}

func TestNewRejectsInvalidReserveConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Risk.Reserves[0].ROne = cfg.Risk.Reserves[0].RTwo + 1 // breaks the slope ordering invariant
	if _, err := New(cfg, storage.NewMemKV(), storage.SystemClock{}); err == nil {
		t.Fatal("New with an invalid reserve config succeeded, want error")
	}
}

func TestServerServesReserveForAssembledPool(t *testing.T) {
	n, err := New(testConfig(), storage.NewMemKV(), storage.SystemClock{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	assetAddr := crypto.ModuleAddress("asset/STABLE")
	req := httptest.NewRequest(http.MethodGet, "/pools/default/reserves/"+assetAddr.String(), nil)
	rec := httptest.NewRecorder()
	n.Server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body = %s", rec.Code, rec.Body.String())
	}
}

func TestPoolFactoryRecognizesRegisteredPool(t *testing.T) {
	n, err := New(testConfig(), storage.NewMemKV(), storage.SystemClock{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p, _ := n.Pools.Lookup("default")
	factory := poolFactory{pools: n.Pools}
	ok, err := factory.IsPool(p.Address)
	if err != nil {
		t.Fatalf("IsPool: %v", err)
	}
	if !ok {
		t.Fatal("poolFactory.IsPool did not recognize the node's own registered pool")
	}
	other := crypto.ModuleAddress("not-a-pool")
	ok, err = factory.IsPool(other)
	if err != nil {
		t.Fatalf("IsPool: %v", err)
	}
	if ok {
		t.Fatal("poolFactory.IsPool recognized an address it never registered")
	}
}
