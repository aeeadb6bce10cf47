package reserve

import (
	"math/big"

	"corelend/errs"
)

const maxReactivity = 5_000 // 0.0005 * SCALAR_7

// ValidateConfig enforces the reserve configuration invariants from the
// reserve configuration section: decimal bounds, risk-factor ceilings, the
// utilisation target/ceiling ordering, and the slope/reactivity ordering.
// Grounded on native/lending/config.go's EnsureDefaults-style validation,
// generalized from basis-point bounds to the pool's SCALAR_7 bounds.
func ValidateConfig(cfg Config) error {
	if cfg.Decimals > 18 {
		return errs.ErrInvalidReserveMetadata
	}
	if cfg.CFactor == nil || cfg.LFactor == nil {
		return errs.ErrInvalidReserveMetadata
	}
	scalar7 := int64(10_000_000)
	if cfg.CFactor.Int64() > scalar7 || cfg.LFactor.Int64() > scalar7 {
		return errs.ErrInvalidReserveMetadata
	}
	if uint64(cfg.Util) > 9_500_000 {
		return errs.ErrInvalidUtilRate
	}
	if cfg.Util >= cfg.MaxUtil || cfg.MaxUtil > uint32(scalar7) {
		return errs.ErrInvalidUtilRate
	}
	if cfg.ROne > cfg.RTwo || cfg.RTwo > cfg.RThree {
		return errs.ErrInvalidUtilRate
	}
	if cfg.Reactivity > maxReactivity {
		return errs.ErrInvalidUtilRate
	}
	return nil
}

// UpdateConfig accrues the reserve to now under its current configuration,
// then overwrites the configuration, preserving index. The caller supplies
// the same cashBalance/bstopRate used for a normal Load so the accrual step
// is identical to any other entry into the reserve.
func UpdateConfig(r *Reserve, newConfig Config, now uint64, cashBalance, bstopRate *big.Int) (*Reserve, error) {
	if err := ValidateConfig(newConfig); err != nil {
		return nil, err
	}
	accrued := Load(r.Index, r.Asset, r.Config, r.Data, now, cashBalance, bstopRate)
	accrued.Config = newConfig
	accrued.Dirty = true
	return accrued, nil
}
