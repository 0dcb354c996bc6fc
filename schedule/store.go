package schedule

import (
	"context"
	"time"

	"github.com/xraph/vesting/id"
)

type Store interface {
	CreateSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, scheduleID id.ScheduleID) (*Schedule, error)
	GetScheduleByLabel(ctx context.Context, label string) (*Schedule, error)
	ListSchedules(ctx context.Context, opts ListOpts) ([]*Schedule, error)
	// MarkStarted records the start of an unstarted schedule and fails with
	// types.ErrAlreadyStarted otherwise.
	MarkStarted(ctx context.Context, scheduleID id.ScheduleID, startedAt time.Time) error
}

type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
