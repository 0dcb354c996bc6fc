package vesting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/types"
)

const tracerName = "github.com/xraph/vesting"

// Engine is the vesting engine of one schedule. Every operation runs to
// completion under a single lock; notifications are dispatched after the
// lock is released.
type Engine struct {
	mu sync.Mutex

	cfg        schedule.Config
	assets     asset.Ledger
	store      store.Store
	plugins    *plugin.Registry
	logger     *slog.Logger
	tracer     trace.Tracer
	authorizer Authorizer
	clock      func() time.Time

	ownsStore   bool
	skipMigrate bool

	// Populated by Open
	sched  *schedule.Schedule
	ledger *reserve.Ledger
	open   bool
}

// New creates an engine for cfg drawing on assets. The schedule is created
// or loaded from the store by Open.
func New(cfg schedule.Config, assets asset.Ledger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if assets == nil {
		return nil, types.Invalid("assets", "must be set")
	}

	e := &Engine{
		cfg:        cfg,
		assets:     assets,
		store:      memory.New(),
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
		authorizer: Administrators(),
		clock:      time.Now,
		ownsStore:  true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger == nil {
			return
		}
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithStore sets the persistence backend. The default is an in-memory store.
// A store passed here is not closed by Close; several engines may share it.
func WithStore(s store.Store) Option {
	return func(e *Engine) {
		e.store = s
		e.ownsStore = false
	}
}

// WithoutMigrate skips store migrations in Open.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// WithAuthorizer sets the administrator predicate.
func WithAuthorizer(a Authorizer) Option {
	return func(e *Engine) {
		e.authorizer = a
	}
}

// WithAdministrator accepts the given accounts as administrators.
func WithAdministrator(accounts ...types.Account) Option {
	return func(e *Engine) {
		e.authorizer = Administrators(accounts...)
	}
}

// WithClock sets the time source used for start and claim computations.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Store returns the persistence backend.
func (e *Engine) Store() store.Store { return e.store }

// Open migrates the store and creates the schedule, or reloads it together
// with its reserves when a schedule with the same label exists. A stored
// schedule whose parameters differ from the configured ones is rejected.
func (e *Engine) Open(ctx context.Context) error {
	s, err := e.openLocked(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("vesting engine opened",
		"schedule_id", s.ID.String(),
		"label", s.Label,
		"status", s.Status(),
		"recipients", e.RecipientCount(),
	)
	return nil
}

func (e *Engine) openLocked(ctx context.Context) (*schedule.Schedule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		return nil, nil
	}

	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("vesting: migrate: %w", err)
		}
	}

	s, l, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	e.sched, e.ledger, e.open = s, l, true
	return s, nil
}

func (e *Engine) load(ctx context.Context) (*schedule.Schedule, *reserve.Ledger, error) {
	s, err := e.store.GetScheduleByLabel(ctx, e.cfg.Label)
	if errors.Is(err, ErrScheduleNotFound) {
		s, err = schedule.New(e.cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.CreateSchedule(ctx, s); err != nil {
			return nil, nil, fmt.Errorf("vesting: create schedule: %w", err)
		}
		return s, reserve.NewLedger(s.ID), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("vesting: load schedule %q: %w", e.cfg.Label, err)
	}
	if !s.Config.Equal(e.cfg) {
		return nil, nil, fmt.Errorf("%w: label %q", ErrScheduleMismatch, e.cfg.Label)
	}

	rows, err := e.store.ListReserves(ctx, s.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("vesting: load reserves: %w", err)
	}
	l := reserve.NewLedger(s.ID)
	if err := l.Load(rows); err != nil {
		return nil, nil, err
	}
	return s, l, nil
}

// Close shuts down plugins and closes the default store. The engine can be
// opened again afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	wasOpen := e.open
	e.open = false
	e.mu.Unlock()

	if wasOpen {
		e.plugins.EmitShutdown(ctx)
		e.logger.Info("vesting engine closed")
	}

	if !e.ownsStore {
		return nil
	}
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Reservation
// ──────────────────────────────────────────────────

// Reserve adds entries to the recipient ledger. The caller must be an
// administrator and the schedule must not have started. Either every entry
// is applied or none is.
func (e *Engine) Reserve(ctx context.Context, entries []reserve.Entry) (err error) {
	ctx, span := e.tracer.Start(ctx, "vesting.Reserve",
		trace.WithAttributes(attribute.Int("vesting.entries", len(entries))),
	)
	defer func() { endSpan(span, err) }()

	events, err := e.reserve(ctx, entries)
	if err != nil {
		return err
	}

	for _, evt := range events {
		e.plugins.EmitReserved(ctx, evt)
	}
	return nil
}

func (e *Engine) reserve(ctx context.Context, entries []reserve.Entry) ([]*plugin.Reserved, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if e.sched.Started {
		return nil, ErrAlreadyStarted
	}

	b, err := e.ledger.Prepare(entries, types.MaxTotalReserve)
	if err != nil {
		return nil, err
	}
	if len(b.Rows) > 0 {
		if err := e.store.SaveReserves(ctx, e.sched.ID, b.Rows); err != nil {
			return nil, fmt.Errorf("vesting: save reserves: %w", err)
		}
	}
	e.ledger.Commit(b)

	events := make([]*plugin.Reserved, 0, len(b.Added))
	for _, a := range b.Added {
		events = append(events, &plugin.Reserved{
			ScheduleID: e.sched.ID,
			Account:    a.Account,
			Amount:     a.Amount,
			Total:      a.Total,
		})
	}

	e.logger.Debug("reserves added",
		"schedule_id", e.sched.ID.String(),
		"entries", len(entries),
		"recipients", e.ledger.Len(),
		"total_reserved", b.Total.String(),
	)
	return events, nil
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start pulls the total reserved amount from the calling administrator into
// custody and starts the release clock. Asset ledger failures are returned
// unchanged and leave the schedule unstarted.
func (e *Engine) Start(ctx context.Context) (err error) {
	ctx, span := e.tracer.Start(ctx, "vesting.Start")
	defer func() { endSpan(span, err) }()

	evt, err := e.start(ctx)
	if err != nil {
		return err
	}

	span.SetAttributes(attribute.String("vesting.total_reserved", evt.Total.String()))
	e.plugins.EmitStarted(ctx, evt)
	return nil
}

func (e *Engine) start(ctx context.Context) (*plugin.Started, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	caller, err := e.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if e.sched.Started {
		return nil, ErrAlreadyStarted
	}

	total := e.ledger.Total()
	if total.IsZero() {
		return nil, types.Invalid("total_reserved", "nothing has been reserved")
	}

	if err := e.assets.TransferIn(ctx, caller, total); err != nil {
		return nil, err
	}

	startedAt := e.now()
	if err := e.store.MarkStarted(ctx, e.sched.ID, startedAt); err != nil {
		if rerr := e.assets.TransferOut(context.WithoutCancel(ctx), caller, total); rerr != nil {
			e.logger.Error("returning deposit failed",
				"schedule_id", e.sched.ID.String(),
				"account", caller.String(),
				"amount", total.String(),
				"error", rerr,
			)
		} else {
			e.logger.Warn("start not persisted, deposit returned",
				"schedule_id", e.sched.ID.String(),
				"account", caller.String(),
				"error", err,
			)
		}
		return nil, fmt.Errorf("vesting: mark started: %w", err)
	}

	e.sched.Started = true
	e.sched.StartedAt = startedAt

	e.logger.Info("vesting started",
		"schedule_id", e.sched.ID.String(),
		"label", e.sched.Label,
		"total_reserved", total.String(),
		"started_at", startedAt,
	)

	return &plugin.Started{
		ScheduleID: e.sched.ID,
		Total:      total,
		StartedAt:  startedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────

// Claim transfers the vested, unclaimed amount of account to it and returns
// the amount. The caller must be the account itself or an administrator.
// Nothing to claim is not an error.
func (e *Engine) Claim(ctx context.Context, account types.Account) (_ types.Amount, err error) {
	ctx, span := e.tracer.Start(ctx, "vesting.Claim",
		trace.WithAttributes(attribute.String("vesting.account", account.String())),
	)
	defer func() { endSpan(span, err) }()

	evt, err := e.claim(ctx, account)
	if err != nil {
		return types.ZeroAmount(), err
	}
	if evt == nil {
		return types.ZeroAmount(), nil
	}

	span.SetAttributes(attribute.String("vesting.amount", evt.Amount.String()))
	e.plugins.EmitClaimed(ctx, evt)
	return evt.Amount, nil
}

func (e *Engine) claim(ctx context.Context, account types.Account) (*plugin.Claimed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if account.IsZero() {
		return nil, types.Invalid("account", "must be set")
	}
	if err := e.authorizeClaim(ctx, account); err != nil {
		return nil, err
	}
	if !e.sched.Started {
		return nil, ErrNotStarted
	}

	return e.claimOne(ctx, account, false, e.now())
}

// ClaimBatch claims on behalf of each listed account in order. The caller
// must be an administrator. On failure the accounts processed before the
// failing one stay claimed and the rest are not attempted; the returned
// amount is what was transferred.
func (e *Engine) ClaimBatch(ctx context.Context, accounts []types.Account) (_ types.Amount, err error) {
	ctx, span := e.tracer.Start(ctx, "vesting.ClaimBatch",
		trace.WithAttributes(attribute.Int("vesting.accounts", len(accounts))),
	)
	defer func() { endSpan(span, err) }()

	return e.claimMany(ctx, span, func(*reserve.Ledger) ([]types.Account, error) {
		return accounts, nil
	})
}

// ClaimRange claims on behalf of the recipients at positions [from, to) in
// first-reservation order. A to beyond the recipient count is clamped.
// Failure handling matches ClaimBatch: earlier recipients stay claimed and
// the returned amount is what was transferred.
func (e *Engine) ClaimRange(ctx context.Context, from, to int) (_ types.Amount, err error) {
	ctx, span := e.tracer.Start(ctx, "vesting.ClaimRange",
		trace.WithAttributes(attribute.Int("vesting.from", from), attribute.Int("vesting.to", to)),
	)
	defer func() { endSpan(span, err) }()

	return e.claimMany(ctx, span, func(l *reserve.Ledger) ([]types.Account, error) {
		if from < 0 {
			return nil, types.Invalid("from", "must not be negative")
		}
		if to < 0 {
			return nil, types.Invalid("to", "must not be negative")
		}
		return l.Slice(from, to), nil
	})
}

func (e *Engine) claimMany(ctx context.Context, span trace.Span, resolve func(*reserve.Ledger) ([]types.Account, error)) (types.Amount, error) {
	events, err := e.claimBatch(ctx, resolve)

	total := types.ZeroAmount()
	for _, evt := range events {
		total = total.Add(evt.Amount)
		e.plugins.EmitClaimed(ctx, evt)
	}

	span.SetAttributes(
		attribute.Int("vesting.claims", len(events)),
		attribute.String("vesting.amount", total.String()),
	)
	return total, err
}

func (e *Engine) claimBatch(ctx context.Context, resolve func(*reserve.Ledger) ([]types.Account, error)) ([]*plugin.Claimed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	if _, err := e.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if !e.sched.Started {
		return nil, ErrNotStarted
	}

	accounts, err := resolve(e.ledger)
	if err != nil {
		return nil, err
	}

	now := e.now()
	events := make([]*plugin.Claimed, 0, len(accounts))
	for _, account := range accounts {
		evt, err := e.claimOne(ctx, account, true, now)
		if err != nil {
			return events, err
		}
		if evt != nil {
			events = append(events, evt)
		}
	}
	return events, nil
}

// claimOne must be called with e.mu held. It returns nil when there is
// nothing to claim.
func (e *Engine) claimOne(ctx context.Context, account types.Account, batch bool, now time.Time) (*plugin.Claimed, error) {
	r, ok := e.ledger.Get(account)
	if !ok {
		return nil, nil
	}

	amount := e.sched.ClaimableAmount(r.Reserved, r.Claimed, e.sched.StartedAt, now)
	if amount.IsZero() {
		return nil, nil
	}

	c := &claim.Claim{
		ID:           id.NewClaimID(),
		ScheduleID:   e.sched.ID,
		Account:      account,
		Amount:       amount,
		ClaimedAfter: r.Claimed.Add(amount),
		Batch:        batch,
		CreatedAt:    now,
	}

	if err := e.store.RecordClaim(ctx, c); err != nil {
		return nil, fmt.Errorf("vesting: record claim for %s: %w", account, err)
	}

	if err := e.assets.TransferOut(ctx, account, amount); err != nil {
		if rerr := e.store.RevertClaim(context.WithoutCancel(ctx), c); rerr != nil {
			e.logger.Error("claim revert failed",
				"claim_id", c.ID.String(),
				"account", account.String(),
				"error", rerr,
			)
		}
		return nil, fmt.Errorf("%w: %s to %s: %w", ErrTransferFailed, amount, account, err)
	}

	e.ledger.SetClaimed(account, c.ClaimedAfter)

	e.logger.Debug("tokens claimed",
		"schedule_id", e.sched.ID.String(),
		"account", account.String(),
		"amount", amount.String(),
		"total_claimed", c.ClaimedAfter.String(),
		"batch", batch,
	)

	return &plugin.Claimed{
		ScheduleID:   e.sched.ID,
		Account:      account,
		Batch:        batch,
		TotalClaimed: c.ClaimedAfter,
		Amount:       amount,
	}, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// ClaimableAmount returns what Claim would transfer to account now. It is
// zero before the schedule starts.
func (e *Engine) ClaimableAmount(account types.Account) types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open || !e.sched.Started {
		return types.ZeroAmount()
	}
	r, ok := e.ledger.Get(account)
	if !ok {
		return types.ZeroAmount()
	}
	return e.sched.ClaimableAmount(r.Reserved, r.Claimed, e.sched.StartedAt, e.now())
}

// ReserveOf returns the reserved and claimed amounts of account.
func (e *Engine) ReserveOf(account types.Account) (reserved, claimed types.Amount) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.open {
		if r, ok := e.ledger.Get(account); ok {
			return r.Reserved, r.Claimed
		}
	}
	return types.ZeroAmount(), types.ZeroAmount()
}

// RecipientCount returns the number of distinct recipients.
func (e *Engine) RecipientCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return 0
	}
	return e.ledger.Len()
}

// RecipientAt returns the recipient at position i in first-reservation order.
func (e *Engine) RecipientAt(i int) (types.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return "", ErrNotOpen
	}
	account, ok := e.ledger.At(i)
	if !ok {
		return "", fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, e.ledger.Len())
	}
	return account, nil
}

// Accounts returns every recipient in first-reservation order.
func (e *Engine) Accounts() []types.Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	return e.ledger.Accounts()
}

// TotalReserved returns the sum of all reserved amounts.
func (e *Engine) TotalReserved() types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return types.ZeroAmount()
	}
	return e.ledger.Total()
}

// TotalClaimed returns the sum of all claimed amounts.
func (e *Engine) TotalClaimed() types.Amount {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return types.ZeroAmount()
	}
	return e.ledger.Claimed()
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Started reports whether the schedule has started.
func (e *Engine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open && e.sched.Started
}

// StartedAt returns the start time, or the zero time before start.
func (e *Engine) StartedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return time.Time{}
	}
	return e.sched.StartedAt
}

// Schedule returns a copy of the schedule, or nil before Open.
func (e *Engine) Schedule() *schedule.Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	s := *e.sched
	return &s
}

// Timetable returns the release timetable of account, or nil if it holds
// no reserve.
func (e *Engine) Timetable(account types.Account) []schedule.Tranche {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return nil
	}
	r, ok := e.ledger.Get(account)
	if !ok {
		return nil
	}
	return e.sched.Timetable(r.Reserved)
}

// Claims returns the claim journal, restricted to account unless it is the
// null account.
func (e *Engine) Claims(ctx context.Context, account types.Account) ([]*claim.Claim, error) {
	e.mu.Lock()
	if !e.open {
		e.mu.Unlock()
		return nil, ErrNotOpen
	}
	scheduleID := e.sched.ID
	e.mu.Unlock()

	return e.store.ListClaims(ctx, scheduleID, claim.ListOpts{Account: account})
}

// Status is a point-in-time summary of an engine.
type Status struct {
	ScheduleID     id.ScheduleID   `json:"schedule_id"`
	Label          string          `json:"label"`
	State          schedule.Status `json:"state"`
	Recipients     int             `json:"recipients"`
	TotalReserved  types.Amount    `json:"total_reserved"`
	TotalClaimed   types.Amount    `json:"total_claimed"`
	StartedAt      time.Time       `json:"started_at,omitzero"`
	ElapsedPeriods uint64          `json:"elapsed_periods"`
	FullyVestedAt  time.Time       `json:"fully_vested_at,omitzero"`
}

// Status returns a summary of the schedule and its ledger.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.open {
		return Status{
			Label:         e.cfg.Label,
			State:         schedule.StatusConfigured,
			TotalReserved: types.ZeroAmount(),
			TotalClaimed:  types.ZeroAmount(),
		}
	}

	st := Status{
		ScheduleID:    e.sched.ID,
		Label:         e.sched.Label,
		State:         e.sched.Status(),
		Recipients:    e.ledger.Len(),
		TotalReserved: e.ledger.Total(),
		TotalClaimed:  e.ledger.Claimed(),
	}
	if e.sched.Started {
		st.StartedAt = e.sched.StartedAt
		st.ElapsedPeriods = e.sched.ElapsedPeriods(e.sched.StartedAt, e.now())
		st.FullyVestedAt = e.sched.StartedAt.Add(e.sched.FullyVestedAfter())
	}
	return st
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (e *Engine) checkOpen() error {
	if !e.open {
		return ErrNotOpen
	}
	return nil
}

func (e *Engine) requireAdmin(ctx context.Context) (types.Account, error) {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return "", fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	if !e.authorizer.IsAdministrator(ctx, caller) {
		return "", fmt.Errorf("%w: %s is not an administrator", ErrUnauthorized, caller)
	}
	return caller, nil
}

func (e *Engine) authorizeClaim(ctx context.Context, account types.Account) error {
	caller, ok := CallerFrom(ctx)
	if !ok {
		return fmt.Errorf("%w: no caller", ErrUnauthorized)
	}
	if caller == account || e.authorizer.IsAdministrator(ctx, caller) {
		return nil
	}
	return fmt.Errorf("%w: %s may not claim for %s", ErrUnauthorized, caller, account)
}

// now returns the clock in UTC at the precision every store backend keeps.
func (e *Engine) now() time.Time {
	return e.clock().UTC().Truncate(time.Microsecond)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
