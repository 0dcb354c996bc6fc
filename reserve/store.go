package reserve

import (
	"context"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Store persists reserve rows.
type Store interface {
	// SaveReserves upserts rows keyed by (schedule, account) in a single call.
	SaveReserves(ctx context.Context, scheduleID id.ScheduleID, rows []*Reserve) error
	// ListReserves returns all rows of a schedule ordered by position.
	ListReserves(ctx context.Context, scheduleID id.ScheduleID) ([]*Reserve, error)
	GetReserve(ctx context.Context, scheduleID id.ScheduleID, account types.Account) (*Reserve, error)
}
