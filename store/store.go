package store

import (
	"context"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Store is the unified storage interface for all vesting entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// so that each backend documents the full surface in one place.
type Store interface {
	// Schedule methods
	CreateSchedule(ctx context.Context, s *schedule.Schedule) error
	GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*schedule.Schedule, error)
	GetScheduleByLabel(ctx context.Context, label string) (*schedule.Schedule, error)
	ListSchedules(ctx context.Context, opts schedule.ListOpts) ([]*schedule.Schedule, error)
	MarkStarted(ctx context.Context, scheduleID id.ScheduleID, startedAt time.Time) error

	// Reserve methods
	SaveReserves(ctx context.Context, scheduleID id.ScheduleID, rows []*reserve.Reserve) error
	ListReserves(ctx context.Context, scheduleID id.ScheduleID) ([]*reserve.Reserve, error)
	GetReserve(ctx context.Context, scheduleID id.ScheduleID, account types.Account) (*reserve.Reserve, error)

	// Claim methods
	RecordClaim(ctx context.Context, c *claim.Claim) error
	RevertClaim(ctx context.Context, c *claim.Claim) error
	ListClaims(ctx context.Context, scheduleID id.ScheduleID, opts claim.ListOpts) ([]*claim.Claim, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that the aggregate covers every sub-interface.
var (
	_ schedule.Store = (Store)(nil)
	_ reserve.Store  = (Store)(nil)
	_ claim.Store    = (Store)(nil)
)
