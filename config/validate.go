package config

import (
	"fmt"
	"math/big"

	"corelend/reserve"
)

func bigFromUint32(v uint32) *big.Int { return new(big.Int).SetUint64(uint64(v)) }

// EnsureDefaults fills in zero-valued knobs with the engine's own
// constants, mirroring native/lending/config.go's EnsureDefaults-style
// normalization: a loaded TOML file that predates a new knob should not
// silently run with a zero value for it.
func EnsureDefaults(cfg *Config) {
	if cfg.Pool.MaxPositions == 0 {
		cfg.Pool.MaxPositions = 12
	}
	if cfg.Backstop.Q4WPeriodSeconds == 0 {
		cfg.Backstop.Q4WPeriodSeconds = 30 * 24 * 60 * 60
	}
	if cfg.Backstop.CriticalLowThreshold == 0 {
		cfg.Backstop.CriticalLowThreshold = 10_000 * 10_000_000
	}
	if cfg.RPCRatePerSecond == 0 {
		cfg.RPCRatePerSecond = 50
	}
	if cfg.RPCBurst == 0 {
		cfg.RPCBurst = 100
	}
}

// Validate enforces the configuration invariants that ValidateConfig alone
// cannot catch at the reserve level: duplicate assets and an out-of-range
// backstop take rate.
func Validate(cfg *Config) error {
	if cfg.Pool.BackstopTakeRate > 1_000_000_000 {
		return fmt.Errorf("config: Pool.BackstopTakeRate exceeds SCALAR_9")
	}
	if cfg.Pool.MaxPositions <= 0 {
		return fmt.Errorf("config: Pool.MaxPositions must be positive")
	}
	seen := make(map[string]struct{})
	for _, r := range cfg.Risk.Reserves {
		if r.Asset == "" {
			return fmt.Errorf("config: reserve entry missing Asset")
		}
		if _, dup := seen[r.Asset]; dup {
			return fmt.Errorf("config: duplicate reserve asset %q", r.Asset)
		}
		seen[r.Asset] = struct{}{}
		if err := reserve.ValidateConfig(r.toReserveConfig()); err != nil {
			return fmt.Errorf("config: reserve %q: %w", r.Asset, err)
		}
	}
	return nil
}

func (r ReserveDefaults) toReserveConfig() reserve.Config {
	return reserve.Config{
		Decimals:   r.Decimals,
		CFactor:    bigFromUint32(r.CFactor),
		LFactor:    bigFromUint32(r.LFactor),
		Util:       r.Util,
		MaxUtil:    r.MaxUtil,
		ROne:       r.ROne,
		RTwo:       r.RTwo,
		RThree:     r.RThree,
		Reactivity: r.Reactivity,
	}
}

// ReserveConfigs converts every configured reserve entry to its engine
// reserve.Config form, the shape InitReserve expects.
func (c Config) ReserveConfigs() map[string]reserve.Config {
	out := make(map[string]reserve.Config, len(c.Risk.Reserves))
	for _, r := range c.Risk.Reserves {
		out[r.Asset] = r.toReserveConfig()
	}
	return out
}
