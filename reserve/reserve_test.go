package reserve

import (
	"math/big"
	"testing"

	"corelend/crypto"
	"corelend/errs"
)

func stableConfig() Config {
	return Config{
		Decimals:   7,
		CFactor:    big.NewInt(9_000_000),
		LFactor:    big.NewInt(9_500_000),
		Util:       8_000_000,
		MaxUtil:    9_500_000,
		ROne:       500_000,
		RTwo:       2_000_000,
		RThree:     10_000_000,
		Reactivity: 1_000,
	}
}

func freshData(now uint64) Data {
	return Data{
		DRate:          big.NewInt(1_000_000_000),
		BRate:          big.NewInt(1_000_000_000),
		IRMod:          big.NewInt(1_000_000_000),
		DSupply:        big.NewInt(0),
		BSupply:        big.NewInt(0),
		BackstopCredit: big.NewInt(0),
		LastTime:       now,
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	if err := ValidateConfig(stableConfig()); err != nil {
		t.Fatalf("ValidateConfig rejected a well-formed config: %v", err)
	}
}

func TestValidateConfigRejectsUtilOrdering(t *testing.T) {
	cfg := stableConfig()
	cfg.Util = cfg.MaxUtil
	if err := ValidateConfig(cfg); err != errs.ErrInvalidUtilRate {
		t.Fatalf("ValidateConfig = %v, want ErrInvalidUtilRate", err)
	}
}

func TestValidateConfigRejectsSlopeOrdering(t *testing.T) {
	cfg := stableConfig()
	cfg.ROne, cfg.RTwo = cfg.RTwo, cfg.ROne
	if err := ValidateConfig(cfg); err != errs.ErrInvalidUtilRate {
		t.Fatalf("ValidateConfig = %v, want ErrInvalidUtilRate", err)
	}
}

func TestValidateConfigRejectsOversizedDecimals(t *testing.T) {
	cfg := stableConfig()
	cfg.Decimals = 19
	if err := ValidateConfig(cfg); err != errs.ErrInvalidReserveMetadata {
		t.Fatalf("ValidateConfig = %v, want ErrInvalidReserveMetadata", err)
	}
}

func TestLoadNoOpWhenSameTimestamp(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(1000)
	data.BSupply = big.NewInt(1000)
	r := Load(0, asset, stableConfig(), data, 1000, big.NewInt(1000), big.NewInt(0))
	if r.Dirty {
		t.Fatal("Load marked dirty when now == LastTime")
	}
	if r.Data.DRate.Cmp(data.DRate) != 0 {
		t.Fatal("Load changed DRate when no time elapsed")
	}
}

func TestLoadNoOpWhenNoSupply(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(1000)
	r := Load(0, asset, stableConfig(), data, 2000, big.NewInt(0), big.NewInt(0))
	if r.Dirty {
		t.Fatal("Load marked dirty with zero BSupply")
	}
	if r.Data.LastTime != 2000 {
		t.Fatalf("Load.LastTime = %d, want 2000", r.Data.LastTime)
	}
}

func TestLoadAccruesInterestOverTime(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(0)
	data.BSupply = big.NewInt(10_000_000_000) // 1000 underlying at SCALAR_7
	data.DSupply = big.NewInt(8_000_000_000)  // 800 underlying borrowed, 80% util

	cash := big.NewInt(2_000_000_000) // remaining cash in the pool
	r := Load(0, asset, stableConfig(), data, secondsPerYear, cash, big.NewInt(0))

	if !r.Dirty {
		t.Fatal("Load did not mark the reserve dirty after a year elapsed")
	}
	if r.Data.DRate.Cmp(data.DRate) <= 0 {
		t.Fatalf("DRate did not grow: got %s, started %s", r.Data.DRate, data.DRate)
	}
	if r.Data.BRate.Cmp(data.BRate) < 0 {
		t.Fatalf("BRate decreased: got %s, started %s", r.Data.BRate, data.BRate)
	}
}

func TestTotalsAndUtilisation(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(0)
	data.BSupply = big.NewInt(10_000_000_000)
	data.DSupply = big.NewInt(5_000_000_000)
	r := Load(0, asset, stableConfig(), data, 0, big.NewInt(5_000_000_000), big.NewInt(0))

	if got := r.TotalSupply(); got.Cmp(big.NewInt(10_000_000_000)) != 0 {
		t.Fatalf("TotalSupply = %s, want 10000000000", got)
	}
	if got := r.TotalLiabilities(); got.Cmp(big.NewInt(5_000_000_000)) != 0 {
		t.Fatalf("TotalLiabilities = %s, want 5000000000", got)
	}
	// 5e9 / 10e9 = 0.5, in SCALAR_7 = 5_000_000
	if got := r.Utilisation(); got.Cmp(big.NewInt(5_000_000)) != 0 {
		t.Fatalf("Utilisation = %s, want 5000000", got)
	}
}

func TestUtilisationZeroWhenNoSupply(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	r := Load(0, asset, stableConfig(), freshData(0), 0, big.NewInt(0), big.NewInt(0))
	if got := r.Utilisation(); got.Sign() != 0 {
		t.Fatalf("Utilisation with no supply = %s, want 0", got)
	}
}

func TestConversionRoundTripsRoundCorrectly(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(0)
	data.DRate = big.NewInt(1_100_000_000) // 1.1
	data.BRate = big.NewInt(1_050_000_000) // 1.05
	r := Load(0, asset, stableConfig(), data, 0, big.NewInt(0), big.NewInt(0))

	amount := big.NewInt(1_000_000) // 0.1 underlying at SCALAR_7
	dUp := r.ToDTokenUp(amount)
	dDown := r.ToDTokenDown(amount)
	if dUp.Cmp(dDown) < 0 {
		t.Fatalf("ToDTokenUp (%s) < ToDTokenDown (%s)", dUp, dDown)
	}

	bUp := r.ToBTokenUp(amount)
	bDown := r.ToBTokenDown(amount)
	if bUp.Cmp(bDown) < 0 {
		t.Fatalf("ToBTokenUp (%s) < ToBTokenDown (%s)", bUp, bDown)
	}
}

func TestUpdateConfigValidatesAndAccrues(t *testing.T) {
	asset := crypto.ModuleAddress("asset/STABLE")
	data := freshData(0)
	data.BSupply = big.NewInt(10_000_000_000)
	data.DSupply = big.NewInt(8_000_000_000)
	r := Load(0, asset, stableConfig(), data, 0, big.NewInt(2_000_000_000), big.NewInt(0))
	r.Dirty = false

	bad := stableConfig()
	bad.Util = bad.MaxUtil
	if _, err := UpdateConfig(r, bad, secondsPerYear, big.NewInt(2_000_000_000), big.NewInt(0)); err != errs.ErrInvalidUtilRate {
		t.Fatalf("UpdateConfig accepted an invalid config: %v", err)
	}

	good := stableConfig()
	good.ROne = 600_000
	updated, err := UpdateConfig(r, good, secondsPerYear, big.NewInt(2_000_000_000), big.NewInt(0))
	if err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if !updated.Dirty {
		t.Fatal("UpdateConfig did not mark the reserve dirty")
	}
	if updated.Config.ROne != 600_000 {
		t.Fatalf("UpdateConfig.Config.ROne = %d, want 600000", updated.Config.ROne)
	}
}
