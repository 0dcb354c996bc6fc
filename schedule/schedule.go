// Package schedule defines vesting schedules: the immutable release
// parameters of one vesting instance and the cliff-plus-linear formula that
// turns a reserved amount into a vested amount.
package schedule

import (
	"strings"
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Limits enforced by Config.Validate.
const (
	MaxLabelLength    = 31
	MaxPeriod         = 360 * 24 * time.Hour
	MaxVestingPeriods = 120
)

// Status is the lifecycle state of a schedule.
type Status string

const (
	StatusConfigured Status = "configured"
	StatusStarted    Status = "started"
)

// Config holds the release parameters of a schedule.
type Config struct {
	// Label is a human-readable name of at most MaxLabelLength bytes.
	Label string `json:"label"`

	// Period is the length of one vesting period.
	Period time.Duration `json:"period"`

	// Cliff is the number of whole periods before linear release begins.
	Cliff uint32 `json:"cliff"`

	// VestingPeriods is the number of linear release periods after the cliff.
	VestingPeriods uint32 `json:"vesting_periods"`

	// InitialRelease is released as soon as the schedule starts.
	InitialRelease types.Ratio `json:"initial_release"`

	// Asset identifies the asset ledger the schedule draws from.
	Asset string `json:"asset"`
}

// Validate reports the first parameter that makes c unusable.
func (c Config) Validate() error {
	if len(c.Label) > MaxLabelLength {
		return types.Invalid("label", "%d bytes exceeds %d", len(c.Label), MaxLabelLength)
	}
	if c.Period <= 0 {
		return types.Invalid("period", "must be positive")
	}
	if c.Period > MaxPeriod {
		return types.Invalid("period", "%s exceeds %s", c.Period, MaxPeriod)
	}
	if !c.InitialRelease.Valid() {
		return types.Invalid("initial_release", "%s exceeds scale", c.InitialRelease)
	}
	if (c.VestingPeriods == 0) != c.InitialRelease.IsFull() {
		return types.Invalid("vesting_periods", "zero vesting periods requires a 100%% initial release and vice versa")
	}
	if c.VestingPeriods > MaxVestingPeriods {
		return types.Invalid("vesting_periods", "%d exceeds %d", c.VestingPeriods, MaxVestingPeriods)
	}
	if strings.TrimSpace(c.Asset) == "" {
		return types.Invalid("asset", "must be set")
	}
	return nil
}

// Equal reports whether c and o describe the same schedule.
func (c Config) Equal(o Config) bool {
	return c == o
}

// Schedule is a validated schedule together with its start state.
type Schedule struct {
	types.Entity
	ID id.ScheduleID `json:"id"`
	Config

	Started   bool      `json:"started"`
	StartedAt time.Time `json:"started_at,omitzero"`
}

// New validates cfg and returns an unstarted schedule.
func New(cfg Config) (*Schedule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Schedule{
		Entity: types.NewEntity(),
		ID:     id.NewScheduleID(),
		Config: cfg,
	}, nil
}

// Status returns the lifecycle state of s.
func (s *Schedule) Status() Status {
	if s.Started {
		return StatusStarted
	}
	return StatusConfigured
}

// FullyVestedAfter is the time from start until every reserve is fully vested.
func (c Config) FullyVestedAfter() time.Duration {
	n := uint64(c.Cliff) + uint64(c.VestingPeriods)
	if n == 0 {
		return 0
	}
	maxPeriods := uint64(1<<63-1) / uint64(c.Period)
	if n > maxPeriods {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(n) * c.Period
}
