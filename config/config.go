// Package config loads the node's TOML-driven runtime configuration: the
// pool's initialisation defaults, the reserves to bring up via InitReserve,
// and the emissions/backstop schedule knobs. Grounded on the teacher's
// config.go load/create-default split, generalized from governance/
// paymaster policy knobs to lending-pool policy knobs.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the node's full runtime configuration, decoded from one TOML
// file.
type Config struct {
	ListenAddress    string             `toml:"ListenAddress"`
	RPCAddress       string             `toml:"RPCAddress"`
	RPCRatePerSecond float64            `toml:"RPCRatePerSecond"`
	RPCBurst         int                `toml:"RPCBurst"`
	DataDir          string             `toml:"DataDir"`
	Pool             PoolDefaults       `toml:"Pool"`
	Risk             RiskParameters     `toml:"Risk"`
	Emission         EmissionConfig     `toml:"Emission"`
	Backstop         BackstopParameters `toml:"Backstop"`
}

// Load reads the configuration at path, creating a default file there if one
// does not yet exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	EnsureDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault writes a starter configuration carrying the teacher's
// reference risk parameters (§8 scenario 1's STABLE/XLM pair) and saves it
// to path.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:    ":6001",
		RPCAddress:       ":8080",
		RPCRatePerSecond: 50,
		RPCBurst:         100,
		DataDir:          "./corelend-data",
		Pool: PoolDefaults{
			BackstopTakeRate: 100_000_000, // 10%, SCALAR_9
			MaxPositions:     12,
		},
		Risk: RiskParameters{
			Reserves: []ReserveDefaults{
				{
					Asset: "STABLE", Decimals: 7,
					CFactor: 9_000_000, LFactor: 9_500_000,
					Util: 8_000_000, MaxUtil: 9_500_000,
					ROne: 400_000, RTwo: 2_000_000, RThree: 10_000_000,
					Reactivity: 2_000,
				},
				{
					Asset: "XLM", Decimals: 7,
					CFactor: 7_500_000, LFactor: 9_000_000,
					Util: 6_500_000, MaxUtil: 9_500_000,
					ROne: 500_000, RTwo: 3_000_000, RThree: 15_000_000,
					Reactivity: 2_000,
				},
			},
		},
		Emission: EmissionConfig{RewardZoneEpoch: 0},
		Backstop: BackstopParameters{
			Q4WPeriodSeconds:     30 * 24 * 60 * 60,
			CriticalLowThreshold: 10_000 * 10_000_000,
		},
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
