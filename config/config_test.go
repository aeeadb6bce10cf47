package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Pool.MaxPositions)
	require.Len(t, cfg.Risk.Reserves, 2)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default config file to be written: %v", err)
	}

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Pool, reloaded.Pool)
}

func TestValidateRejectsDuplicateReserves(t *testing.T) {
	cfg := &Config{
		Pool: PoolDefaults{BackstopTakeRate: 100_000_000, MaxPositions: 5},
		Risk: RiskParameters{Reserves: []ReserveDefaults{
			{Asset: "STABLE", Decimals: 7, CFactor: 9_000_000, LFactor: 9_500_000, Util: 8_000_000, MaxUtil: 9_500_000, ROne: 400_000, RTwo: 2_000_000, RThree: 10_000_000},
			{Asset: "STABLE", Decimals: 7, CFactor: 9_000_000, LFactor: 9_500_000, Util: 8_000_000, MaxUtil: 9_500_000, ROne: 400_000, RTwo: 2_000_000, RThree: 10_000_000},
		}},
	}
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsOversizedTakeRate(t *testing.T) {
	cfg := &Config{Pool: PoolDefaults{BackstopTakeRate: 2_000_000_000, MaxPositions: 5}}
	require.Error(t, Validate(cfg))
}

func TestReserveConfigsRoundTrip(t *testing.T) {
	cfg := &Config{Risk: RiskParameters{Reserves: []ReserveDefaults{
		{Asset: "XLM", Decimals: 7, CFactor: 7_500_000, LFactor: 9_000_000, Util: 6_500_000, MaxUtil: 9_500_000, ROne: 500_000, RTwo: 3_000_000, RThree: 15_000_000},
	}}}
	out := cfg.ReserveConfigs()
	r, ok := out["XLM"]
	require.True(t, ok)
	require.EqualValues(t, 7, r.Decimals)
}
