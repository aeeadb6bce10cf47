package pool

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"corelend/crypto"
	"corelend/errs"
	"corelend/health"
	"corelend/observability"
	"corelend/oracle"
	"corelend/position"
	"corelend/reserve"
	"corelend/storage"
)

// Pool is the engine's handle on one deployed lending pool: its persisted
// configuration, the storage façade, and the oracle/token collaborators.
// Submit bumps the instance TTL at entry; the admin, auction, bad-debt and
// emissions entry points do not bump it.
type Pool struct {
	Address  crypto.Address
	tracker  *storage.TTLTracker
	oracle   oracle.Source
	token    Token
	blnd     BLNDToken
	backstop EmissionsFunder
	tracer   trace.Tracer
}

// BLNDToken is the narrow single-asset collaborator used for BLND emission
// payouts, mirroring backstop.Token's and emitter.Token's shape: the pool
// never needs to query its own BLND balance, only to pay claimed emissions
// out, so no asset parameter is threaded through.
type BLNDToken interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// EmissionsFunder is the backstop collaborator consulted by GulpEmissions:
// the pool pulls its weekly BLND allocation from the backstop rather than
// minting it itself. A narrow interface keeps the pool package from needing
// the full backstop.Backstop type; the pool calls only these two methods.
type EmissionsFunder interface {
	GulpPoolEmissions(pool crypto.Address, now uint64) (*big.Int, error)
	BLNDEquivalent(pool crypto.Address) (*big.Int, error)
}

// New constructs a Pool engine bound to its storage tracker and external
// collaborators.
func New(addr crypto.Address, tracker *storage.TTLTracker, o oracle.Source, t Token, blnd BLNDToken, backstop EmissionsFunder) *Pool {
	return &Pool{Address: addr, tracker: tracker, oracle: o, token: t, blnd: blnd, backstop: backstop, tracer: otel.Tracer("corelend/pool")}
}

func (p *Pool) loadConfig() (Config, error) {
	var stored storedConfig
	found, err := storage.Load(p.tracker, storage.PoolConfigKey(), &stored)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, errs.ErrInvalidPoolInitArgs
	}
	return stored.toConfig(), nil
}

func (p *Pool) saveConfig(cfg Config) error {
	return storage.Save(p.tracker, storage.PoolConfigKey(), storage.TierPersistentShared, fromConfig(cfg))
}

func (p *Pool) loadReserve(asset crypto.Address, now uint64) (*reserve.Reserve, error) {
	var cfgStored storedReserveConfig
	found, err := storage.Load(p.tracker, storage.ReserveConfigKey(asset), &cfgStored)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.ErrInvalidReserveMetadata
	}
	var dataStored storedReserveData
	if _, err := storage.Load(p.tracker, storage.ReserveDataKey(asset), &dataStored); err != nil {
		return nil, err
	}

	cash, err := p.token.Balance(asset, p.Address)
	if err != nil {
		return nil, err
	}
	cfg := p.loadPoolConfigOrZero()
	r := reserve.Load(cfgStored.Index, asset, cfgStored.toConfig(), dataStored.toData(), now, cash, cfg.BackstopTakeRate)
	return r, nil
}

func (p *Pool) loadPoolConfigOrZero() Config {
	cfg, err := p.loadConfig()
	if err != nil {
		return Config{BackstopTakeRate: big.NewInt(0)}
	}
	return cfg
}

func (p *Pool) persistReserve(r *reserve.Reserve) error {
	if err := storage.Save(p.tracker, storage.ReserveConfigKey(r.Asset), storage.TierPersistentShared, fromReserveConfig(r.Index, r.Config)); err != nil {
		return err
	}
	if err := storage.Save(p.tracker, storage.ReserveDataKey(r.Asset), storage.TierPersistentShared, fromReserveData(r.Data)); err != nil {
		return err
	}
	observability.Reserve().ObserveAccrual(p.Address.String(), r.Asset.String(), r.Utilisation(), r.BorrowRate(), r.SupplyRate(), r.Data.BSupply, r.Data.DSupply)
	return nil
}

func (p *Pool) loadPositions(user crypto.Address) (*position.Positions, error) {
	var stored storedPositions
	found, err := storage.Load(p.tracker, storage.UserPositionsKey(user), &stored)
	if err != nil {
		return nil, err
	}
	if !found {
		return position.New(), nil
	}
	return stored.toPositions(), nil
}

func (p *Pool) persistPositions(user crypto.Address, pos *position.Positions) error {
	if pos.IsEmpty() {
		return storage.Delete(p.tracker, storage.UserPositionsKey(user))
	}
	return storage.Save(p.tracker, storage.UserPositionsKey(user), storage.TierPersistentUser, fromPositions(pos))
}

// Submit is the pool's single entry point, wrapped in a tracing span per
// call so the dispatch pipeline shows up as one unit in a trace. The actual
// work is done by submit; this wrapper only owns span lifecycle.
func (p *Pool) Submit(ctx context.Context, from, spender, to crypto.Address, requests []Request, now uint64, block uint32) (result *position.Positions, err error) {
	_, span := p.tracer.Start(ctx, "pool.submit", trace.WithAttributes(
		attribute.String("pool", p.Address.String()),
		attribute.Int("request_count", len(requests)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	return p.submit(from, spender, to, requests, now, block)
}

// submit dispatches requests in order against a per-transaction workspace,
// runs the health check if any request requires it, and only then persists
// dirty reserves and positions and executes deferred token transfers. from
// owns the resulting position; spender pays tokens in; to receives tokens
// out. Grounded on _examples/original_source/pool/src/pool/submit.rs's exact
// ordering.
func (p *Pool) submit(from, spender, to crypto.Address, requests []Request, now uint64, block uint32) (*position.Positions, error) {
	if from.Equal(p.Address) || spender.Equal(p.Address) || to.Equal(p.Address) {
		return nil, errs.ErrBadRequest
	}
	if err := p.tracker.BumpEntry(storage.InstanceAdminKey(), storage.TierInstance); err != nil {
		return nil, err
	}

	cfg, err := p.loadConfig()
	if err != nil {
		return nil, err
	}
	positions, err := p.loadPositions(from)
	if err != nil {
		return nil, err
	}
	ws := newWorkspace(p, now)

	for _, req := range requests {
		err := p.dispatch(ws, cfg, positions, from, spender, to, req, block)
		observability.Events().RecordRequest(req.Type.String(), err)
		if err != nil {
			return nil, err
		}
	}

	if ws.checkHealth && len(positions.Liabilities) > 0 {
		hf, err := p.healthFactorOf(ws, positions)
		if err != nil {
			return nil, err
		}
		if hf.Cmp(health.MinHF) < 0 {
			return nil, errs.ErrInvalidHF
		}
	}
	if err := positions.CheckMaxPositions(cfg.MaxPositions); err != nil {
		return nil, err
	}

	for _, r := range ws.reserves {
		if r.Dirty {
			if err := p.persistReserve(r); err != nil {
				return nil, err
			}
		}
	}
	if err := p.persistPositions(from, positions); err != nil {
		return nil, err
	}
	for _, t := range ws.transfers {
		if err := p.token.Transfer(t.asset, t.from, t.to, t.amount); err != nil {
			return nil, err
		}
		observability.Events().RecordTransfer(t.asset.String())
	}
	return positions, nil
}

func (p *Pool) dispatch(ws *workspace, cfg Config, positions *position.Positions, from, spender, to crypto.Address, req Request, block uint32) error {
	switch req.Type {
	case RequestSupply:
		return p.handleSupply(ws, cfg, positions, spender, req)
	case RequestWithdraw:
		return p.handleWithdraw(ws, positions, to, req)
	case RequestSupplyCollateral:
		return p.handleSupplyCollateral(ws, cfg, positions, spender, req)
	case RequestWithdrawCollateral:
		return p.handleWithdrawCollateral(ws, positions, to, req)
	case RequestBorrow:
		return p.handleBorrow(ws, cfg, positions, to, req)
	case RequestRepay:
		return p.handleRepay(ws, positions, spender, req)
	case RequestFillUserLiquidationAuction, RequestFillBadDebtAuction, RequestFillInterestAuction:
		return p.handleFillAuction(ws, positions, from, spender, to, req, block)
	case RequestDeleteLiquidationAuction:
		return p.handleDeleteAuction(ws, req)
	default:
		return errs.ErrBadRequest
	}
}

func requireStatusAtMost(cfg Config, max Status) error {
	if cfg.Status > max {
		return errs.ErrInvalidPoolStatus
	}
	return nil
}

func requirePositiveAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errs.ErrNegativeAmount
	}
	return nil
}
