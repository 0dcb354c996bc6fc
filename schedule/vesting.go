package schedule

import (
	"time"

	"github.com/xraph/vesting/types"
)

// ElapsedPeriods returns the number of whole periods between startedAt and now.
func (c Config) ElapsedPeriods(startedAt, now time.Time) uint64 {
	if !now.After(startedAt) {
		return 0
	}
	return uint64(now.Sub(startedAt) / c.Period)
}

// PassedPeriods returns how many linear periods have elapsed after the cliff,
// clamped to [0, VestingPeriods].
func (c Config) PassedPeriods(elapsed uint64) uint64 {
	if elapsed <= uint64(c.Cliff) {
		return 0
	}
	passed := elapsed - uint64(c.Cliff)
	if passed > uint64(c.VestingPeriods) {
		return uint64(c.VestingPeriods)
	}
	return passed
}

// InitialAmount is the part of reserved released at start.
func (c Config) InitialAmount(reserved types.Amount) types.Amount {
	return c.InitialRelease.Apply(reserved)
}

// VestedAt returns the cumulative vested amount of reserved after elapsed
// periods. The result is computed from scratch, so it is reserved exactly
// once elapsed >= Cliff+VestingPeriods.
func (c Config) VestedAt(reserved types.Amount, elapsed uint64) types.Amount {
	initial := c.InitialAmount(reserved)
	if c.VestingPeriods == 0 {
		return initial
	}
	passed := c.PassedPeriods(elapsed)
	if passed == 0 {
		return initial
	}
	linear := reserved.Sub(initial).MulUint64(passed).QuoUint64(uint64(c.VestingPeriods))
	return initial.Add(linear)
}

// VestedAmount returns the vested amount of reserved at now for a schedule
// started at startedAt.
func (c Config) VestedAmount(reserved types.Amount, startedAt, now time.Time) types.Amount {
	return c.VestedAt(reserved, c.ElapsedPeriods(startedAt, now))
}

// ClaimableAmount returns the vested amount not yet claimed.
func (c Config) ClaimableAmount(reserved, claimed types.Amount, startedAt, now time.Time) types.Amount {
	vested := c.VestedAmount(reserved, startedAt, now)
	if claimed.GTE(vested) {
		return types.ZeroAmount()
	}
	return vested.Sub(claimed)
}

// Tranche is one step of a release timetable.
type Tranche struct {
	// Period is the number of elapsed periods at which the tranche unlocks.
	Period uint64 `json:"period"`

	// Offset is the time from start at which the tranche unlocks.
	Offset time.Duration `json:"offset"`

	// Released is the amount unlocked by this tranche.
	Released types.Amount `json:"released"`

	// Vested is the cumulative amount vested once the tranche unlocks.
	Vested types.Amount `json:"vested"`
}

// Timetable lists every period boundary at which a positive part of reserved
// unlocks. The Vested value of the last tranche always equals reserved.
func (c Config) Timetable(reserved types.Amount) []Tranche {
	var out []Tranche
	prev := types.ZeroAmount()

	add := func(elapsed uint64) {
		vested := c.VestedAt(reserved, elapsed)
		if vested.LTE(prev) {
			return
		}
		out = append(out, Tranche{
			Period:   elapsed,
			Offset:   time.Duration(elapsed) * c.Period,
			Released: vested.Sub(prev),
			Vested:   vested,
		})
		prev = vested
	}

	add(0)
	for p := uint64(1); p <= uint64(c.VestingPeriods); p++ {
		add(uint64(c.Cliff) + p)
	}
	return out
}
