package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// ==================== Schedule models ====================

type scheduleModel struct {
	grove.BaseModel `grove:"table:vesting_schedules"`

	ID             string    `grove:"id,pk"`
	Label          string    `grove:"label"`
	PeriodNanos    int64     `grove:"period_ns"`
	Cliff          int64     `grove:"cliff"`
	VestingPeriods int64     `grove:"vesting_periods"`
	InitialRelease int64     `grove:"initial_release"`
	Asset          string    `grove:"asset"`
	Started        bool      `grove:"started"`
	StartedAt      time.Time `grove:"started_at"`
	CreatedAt      time.Time `grove:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"`
}

func toScheduleModel(sc *schedule.Schedule) *scheduleModel {
	return &scheduleModel{
		ID:             sc.ID.String(),
		Label:          sc.Label,
		PeriodNanos:    int64(sc.Period),
		Cliff:          int64(sc.Cliff),
		VestingPeriods: int64(sc.VestingPeriods),
		InitialRelease: int64(sc.InitialRelease.Uint64()), //nolint:gosec // bounded by the ratio scale
		Asset:          sc.Asset,
		Started:        sc.Started,
		StartedAt:      sc.StartedAt,
		CreatedAt:      sc.CreatedAt,
		UpdatedAt:      sc.UpdatedAt,
	}
}

func fromScheduleModel(m *scheduleModel) (*schedule.Schedule, error) {
	scheduleID, err := id.ParseScheduleID(m.ID)
	if err != nil {
		return nil, err
	}
	ratio, err := types.NewRatio(uint64(m.InitialRelease)) //nolint:gosec // written from a valid ratio
	if err != nil {
		return nil, err
	}

	return &schedule.Schedule{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID: scheduleID,
		Config: schedule.Config{
			Label:          m.Label,
			Period:         time.Duration(m.PeriodNanos),
			Cliff:          uint32(m.Cliff),          //nolint:gosec // written from a uint32
			VestingPeriods: uint32(m.VestingPeriods), //nolint:gosec // written from a uint32
			InitialRelease: ratio,
			Asset:          m.Asset,
		},
		Started:   m.Started,
		StartedAt: m.StartedAt,
	}, nil
}

// ==================== Reserve models ====================

type reserveModel struct {
	grove.BaseModel `grove:"table:vesting_reserves"`

	ID         string    `grove:"id,pk"`
	ScheduleID string    `grove:"schedule_id"`
	Account    string    `grove:"account"`
	Position   int       `grove:"position"`
	Reserved   string    `grove:"reserved"`
	Claimed    string    `grove:"claimed"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toReserveModel(r *reserve.Reserve) *reserveModel {
	return &reserveModel{
		ID:         r.ID.String(),
		ScheduleID: r.ScheduleID.String(),
		Account:    string(r.Account),
		Position:   r.Position,
		Reserved:   r.Reserved.String(),
		Claimed:    r.Claimed.String(),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func fromReserveModel(m *reserveModel) (*reserve.Reserve, error) {
	reserveID, err := id.ParseReserveID(m.ID)
	if err != nil {
		return nil, err
	}
	scheduleID, err := id.ParseScheduleID(m.ScheduleID)
	if err != nil {
		return nil, err
	}
	reserved, err := types.ParseAmount(m.Reserved)
	if err != nil {
		return nil, err
	}
	claimed, err := types.ParseAmount(m.Claimed)
	if err != nil {
		return nil, err
	}

	return &reserve.Reserve{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         reserveID,
		ScheduleID: scheduleID,
		Account:    types.Account(m.Account),
		Position:   m.Position,
		Reserved:   reserved,
		Claimed:    claimed,
	}, nil
}

// ==================== Claim models ====================

type claimModel struct {
	grove.BaseModel `grove:"table:vesting_claims"`

	ID           string    `grove:"id,pk"`
	ScheduleID   string    `grove:"schedule_id"`
	Account      string    `grove:"account"`
	Amount       string    `grove:"amount"`
	ClaimedAfter string    `grove:"claimed_after"`
	Batch        bool      `grove:"batch"`
	CreatedAt    time.Time `grove:"created_at"`
}

func toClaimModel(c *claim.Claim) *claimModel {
	return &claimModel{
		ID:           c.ID.String(),
		ScheduleID:   c.ScheduleID.String(),
		Account:      string(c.Account),
		Amount:       c.Amount.String(),
		ClaimedAfter: c.ClaimedAfter.String(),
		Batch:        c.Batch,
		CreatedAt:    c.CreatedAt,
	}
}

func fromClaimModel(m *claimModel) (*claim.Claim, error) {
	claimID, err := id.ParseClaimID(m.ID)
	if err != nil {
		return nil, err
	}
	scheduleID, err := id.ParseScheduleID(m.ScheduleID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	after, err := types.ParseAmount(m.ClaimedAfter)
	if err != nil {
		return nil, err
	}

	return &claim.Claim{
		ID:           claimID,
		ScheduleID:   scheduleID,
		Account:      types.Account(m.Account),
		Amount:       amount,
		ClaimedAfter: after,
		Batch:        m.Batch,
		CreatedAt:    m.CreatedAt,
	}, nil
}
