package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/types"
)

// ErrPartiallyProvisioned is returned when an unstarted schedule already
// holds reservations, so replaying the plan would reserve twice.
var ErrPartiallyProvisioned = errors.New("provision: schedule has reservations but was not started")

// Engine is the part of the vesting engine a deployment drives.
type Engine interface {
	Reserve(ctx context.Context, entries []reserve.Entry) error
	Start(ctx context.Context) error
}

// Run reserves entries in chunks of batchSize and then starts engine. ctx
// must carry the administrator as caller.
func Run(ctx context.Context, engine Engine, entries []reserve.Entry, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultReserveBatchSize
	}
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		if err := engine.Reserve(ctx, entries[start:end]); err != nil {
			return fmt.Errorf("provision: reserve entries %d..%d: %w", start, end, err)
		}
	}
	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("provision: start: %w", err)
	}
	return nil
}

// CheckBalance fails with asset.ErrInsufficientBalance when balance cannot
// cover every reservation in p.
func (p *Plan) CheckBalance(balance types.Amount) error {
	total, err := p.TotalReserves()
	if err != nil {
		return err
	}
	if total.GT(balance) {
		return fmt.Errorf("%w: plan reserves %s, balance is %s", asset.ErrInsufficientBalance, total, balance)
	}
	return nil
}

// Engines validates p and builds one unopened engine per instance, in plan
// order.
func (p *Plan) Engines(assets asset.Ledger, opts ...vesting.Option) ([]*vesting.Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	configs, err := p.Configs()
	if err != nil {
		return nil, err
	}
	engines := make([]*vesting.Engine, len(configs))
	for i, cfg := range configs {
		engine, err := vesting.New(cfg, assets, opts...)
		if err != nil {
			return nil, fmt.Errorf("provision: %q: %w", cfg.Label, err)
		}
		engines[i] = engine
	}
	return engines, nil
}

// Provision opens engines, which must come from p.Engines, and reserves and
// starts every schedule that has not started yet. Started schedules are left
// untouched, which makes a replay of the same plan a no-op. Progress is
// logged through each engine's logger.
func Provision(ctx context.Context, p *Plan, engines []*vesting.Engine) error {
	if len(engines) != len(p.List) {
		return fmt.Errorf("%w: %d engines for %d instances", ErrInvalidPlan, len(engines), len(p.List))
	}
	for i, inst := range p.List {
		engine := engines[i]
		logger := engine.Logger()
		if err := engine.Open(ctx); err != nil {
			return fmt.Errorf("provision: %q: %w", inst.Name, err)
		}

		if engine.Started() {
			logger.Info("provision: schedule already started", "schedule", inst.Name)
			continue
		}
		if engine.RecipientCount() > 0 {
			return fmt.Errorf("%w: %q", ErrPartiallyProvisioned, inst.Name)
		}

		entries, err := p.Entries(inst)
		if err != nil {
			return err
		}
		if err := Run(ctx, engine, entries, p.ReserveBatchSize); err != nil {
			return fmt.Errorf("provision: %q: %w", inst.Name, err)
		}
		logger.Info("provision: schedule deployed",
			"schedule", inst.Name,
			"recipients", engine.RecipientCount(),
			"total", engine.TotalReserved().String(),
		)
	}
	return nil
}

// Deploy builds and provisions one engine per instance. The returned
// engines are open; the caller closes them. On failure every engine is
// closed.
func Deploy(ctx context.Context, p *Plan, assets asset.Ledger, opts ...vesting.Option) ([]*vesting.Engine, error) {
	engines, err := p.Engines(assets, opts...)
	if err != nil {
		return nil, err
	}
	if err := Provision(ctx, p, engines); err != nil {
		for _, e := range engines {
			_ = e.Close(context.WithoutCancel(ctx)) //nolint:errcheck // best-effort
		}
		return nil, err
	}
	return engines, nil
}
