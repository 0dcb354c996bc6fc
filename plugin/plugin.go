// Package plugin provides the hook system through which observers receive
// vesting notifications. A plugin implements Plugin plus any subset of the
// hook interfaces below.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine opens.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine closes.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnReserved is called once per applied reservation entry.
type OnReserved interface {
	Plugin
	OnReserved(ctx context.Context, evt *Reserved) error
}

// OnStarted is called when a schedule starts.
type OnStarted interface {
	Plugin
	OnStarted(ctx context.Context, evt *Started) error
}

// OnClaimed is called for every non-zero claim.
type OnClaimed interface {
	Plugin
	OnClaimed(ctx context.Context, evt *Claimed) error
}

// ──────────────────────────────────────────────────
// Notifications
// ──────────────────────────────────────────────────

// Reserved reports an amount added to an account's reserve.
type Reserved struct {
	ScheduleID id.ScheduleID `json:"schedule_id"`
	Account    types.Account `json:"account"`
	Amount     types.Amount  `json:"amount"`
	// Total is the account's reserved amount after the addition.
	Total types.Amount `json:"total"`
}

// Started reports the start of a schedule.
type Started struct {
	ScheduleID id.ScheduleID `json:"schedule_id"`
	Total      types.Amount  `json:"total"`
	StartedAt  time.Time     `json:"started_at"`
}

// Claimed reports a withdrawal.
type Claimed struct {
	ScheduleID id.ScheduleID `json:"schedule_id"`
	Account    types.Account `json:"account"`
	Batch      bool          `json:"batch"`
	// TotalClaimed is the account's claimed amount after this claim.
	TotalClaimed types.Amount `json:"total_claimed"`
	Amount       types.Amount `json:"amount"`
}
