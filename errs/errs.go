// Package errs collects the single flat error enum shared by the pool,
// backstop, auction, emissions, and emitter engines, grounded on the
// teacher's package-level `var ( errX = errors.New(...) )` block in
// native/lending/engine.go. Every engine entry point is total: it returns a
// well-typed value or one of these errors, never both, and never leaves
// partial state behind (see propagation policy).
package errs

import "errors"

var (
	// Input validation
	ErrNegativeAmount        = errors.New("corelend: amount must be non-negative")
	ErrBadRequest            = errors.New("corelend: malformed request")
	ErrInvalidReserveMetadata = errors.New("corelend: invalid reserve metadata")
	ErrInvalidPoolInitArgs   = errors.New("corelend: invalid pool initialisation arguments")
	ErrAlreadyInitialized    = errors.New("corelend: already initialised")
	ErrInvalidUtilRate       = errors.New("corelend: invalid utilisation rate configuration")
	ErrMaxPositionsExceeded  = errors.New("corelend: position count exceeds pool maximum")

	// Authorisation / status
	ErrNotAuthorized    = errors.New("corelend: caller not authorised")
	ErrInvalidPoolStatus = errors.New("corelend: action not permitted at current pool status")

	// Health / economics
	ErrInvalidHF          = errors.New("corelend: resulting health factor below minimum")
	ErrInvalidLiquidation = errors.New("corelend: liquidation does not converge within bounds")
	ErrInsufficientFunds  = errors.New("corelend: insufficient funds")
	ErrInterestTooSmall   = errors.New("corelend: accrued interest below auction floor")
	ErrBadDebtExists      = errors.New("corelend: bad debt exists")
	ErrAuctionInProgress  = errors.New("corelend: auction already in progress")
	ErrNotExpired         = errors.New("corelend: queued entry has not yet expired")
	ErrStalePrice         = errors.New("corelend: oracle price is stale")
	ErrNotPool            = errors.New("corelend: address is not a registered pool")

	// Backstop swap
	ErrInsufficientBackstopSize = errors.New("corelend: backstop size below required threshold")
	ErrSwapAlreadyExists        = errors.New("corelend: backstop swap already queued")
	ErrSwapNotQueued            = errors.New("corelend: no backstop swap queued")
	ErrSwapNotUnlocked          = errors.New("corelend: backstop swap not yet unlocked")
	ErrSwapCannotBeCanceled     = errors.New("corelend: backstop swap can no longer be canceled")

	// Reward zone
	ErrInvalidRewardZoneEntry = errors.New("corelend: reward zone entry to remove not found")
)
