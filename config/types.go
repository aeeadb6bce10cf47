package config

// PoolDefaults are the top-level pool parameters applied at first-run
// initialisation: the backstop's cut of accrued interest and the per-user
// position cap.
type PoolDefaults struct {
	BackstopTakeRate uint32 `toml:"BackstopTakeRate"` // SCALAR_9
	MaxPositions     int    `toml:"MaxPositions"`
}

// ReserveDefaults is one reserve's TOML-configured risk parameters, the
// source ValidateConfig checks before a reserve is accepted.
type ReserveDefaults struct {
	Asset      string `toml:"Asset"`
	Decimals   uint32 `toml:"Decimals"`
	CFactor    uint32 `toml:"CFactor"` // SCALAR_7
	LFactor    uint32 `toml:"LFactor"` // SCALAR_7
	Util       uint32 `toml:"Util"`    // SCALAR_7
	MaxUtil    uint32 `toml:"MaxUtil"` // SCALAR_7
	ROne       uint32 `toml:"ROne"`
	RTwo       uint32 `toml:"RTwo"`
	RThree     uint32 `toml:"RThree"`
	Reactivity uint32 `toml:"Reactivity"`
}

// RiskParameters bundles every reserve this deployment brings up on first
// run via InitReserve.
type RiskParameters struct {
	Reserves []ReserveDefaults `toml:"Reserves"`
}

// EmissionConfig holds the weekly emissions cycle's configurable knobs: the
// reward zone's growth epoch (the "deployed at" timestamp maxRewardZoneSize
// measures ~97-day slots from).
type EmissionConfig struct {
	RewardZoneEpoch uint64 `toml:"RewardZoneEpoch"`
}

// BackstopParameters holds the q4w unlock period and the BLND-equivalent
// bad-debt burn threshold as TOML fields, defaulted by validation. The
// engines do not read them: the backstop uses its own 30-day q4w constant
// and the pool uses baddebt.CriticalLowThreshold.
type BackstopParameters struct {
	Q4WPeriodSeconds     uint64 `toml:"Q4WPeriodSeconds"`
	CriticalLowThreshold uint64 `toml:"CriticalLowThreshold"` // SCALAR_7 BLND
}
