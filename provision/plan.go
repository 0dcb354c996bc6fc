// Package provision loads YAML provisioning plans and deploys the schedules
// they describe: one engine per instance, reservations written in fixed-size
// batches, then started.
//
// A plan looks like:
//
//	asset: medx
//	reserve_batch_size: 100
//	default_period: 720h
//	default_account: treasury
//	list:
//	  - name: Seed Round
//	    cliff: 3
//	    vesting_periods: 12
//	    initial_release: 23%
//	    reserves:
//	      - account: alice
//	        amount: "1000"
//	  - name: Team
//	    period: 168h
//	    cliff: 52
//	    vesting_periods: 104
//	    initial_release: "0"
//	    reserves: "5000000"
//
// An instance whose reserves is a single amount reserves it to the default
// account.
package provision

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"

	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// DefaultReserveBatchSize is used when a plan leaves reserve_batch_size unset.
const DefaultReserveBatchSize = 100

// ErrInvalidPlan is wrapped by every plan validation failure.
var ErrInvalidPlan = errors.New("provision: invalid plan")

// Plan is a set of schedules to deploy against one asset.
type Plan struct {
	Asset            string        `yaml:"asset"`
	ReserveBatchSize int           `yaml:"reserve_batch_size"`
	DefaultPeriod    time.Duration `yaml:"default_period"`
	DefaultAccount   types.Account `yaml:"default_account"`
	List             []Instance    `yaml:"list"`
}

// Instance describes one schedule and its reservations.
type Instance struct {
	Name           string        `yaml:"name"`
	Period         time.Duration `yaml:"period"`
	Cliff          uint32        `yaml:"cliff"`
	VestingPeriods uint32        `yaml:"vesting_periods"`
	InitialRelease string        `yaml:"initial_release"`
	Reserves       Reserves      `yaml:"reserves"`
}

// Reserves is either a list of entries or a single total for the plan's
// default account.
type Reserves struct {
	Entries []ReserveEntry
	Total   string
}

// ReserveEntry is one account and amount.
type ReserveEntry struct {
	Account types.Account `yaml:"account"`
	Amount  string        `yaml:"amount"`
}

// UnmarshalYAML accepts a scalar total or a sequence of entries.
func (r *Reserves) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		r.Total = value.Value
		return nil
	case yaml.SequenceNode:
		return value.Decode(&r.Entries)
	default:
		return fmt.Errorf("provision: line %d: reserves must be an amount or a list", value.Line)
	}
}

// MarshalYAML writes the form that was read.
func (r Reserves) MarshalYAML() (any, error) {
	if r.Entries == nil {
		return r.Total, nil
	}
	return r.Entries, nil
}

// Load reads and parses the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provision: read plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes a plan and fills defaults. It does not validate.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("provision: parse plan: %w", err)
	}
	if p.ReserveBatchSize == 0 {
		p.ReserveBatchSize = DefaultReserveBatchSize
	}
	return &p, nil
}

// Config returns the schedule config of inst.
func (p *Plan) Config(inst Instance) (schedule.Config, error) {
	period := inst.Period
	if period == 0 {
		period = p.DefaultPeriod
	}
	release := types.ZeroRatio
	if inst.InitialRelease != "" {
		r, err := types.ParseRatio(inst.InitialRelease)
		if err != nil {
			return schedule.Config{}, err
		}
		release = r
	}

	cfg := schedule.Config{
		Label:          inst.Name,
		Period:         period,
		Cliff:          inst.Cliff,
		VestingPeriods: inst.VestingPeriods,
		InitialRelease: release,
		Asset:          p.Asset,
	}
	return cfg, cfg.Validate()
}

// Configs returns the schedule config of every instance in order.
func (p *Plan) Configs() ([]schedule.Config, error) {
	configs := make([]schedule.Config, len(p.List))
	for i, inst := range p.List {
		cfg, err := p.Config(inst)
		if err != nil {
			return nil, fmt.Errorf("%w: list[%d] %q: %w", ErrInvalidPlan, i, inst.Name, err)
		}
		configs[i] = cfg
	}
	return configs, nil
}

// Entries returns the reservations of inst.
func (p *Plan) Entries(inst Instance) ([]reserve.Entry, error) {
	if inst.Reserves.Entries == nil {
		if p.DefaultAccount.IsZero() {
			return nil, fmt.Errorf("%w: %q reserves a total but default_account is not set", ErrInvalidPlan, inst.Name)
		}
		amount, err := types.ParseAmount(inst.Reserves.Total)
		if err != nil {
			return nil, err
		}
		return []reserve.Entry{{Account: p.DefaultAccount, Amount: amount}}, nil
	}

	entries := make([]reserve.Entry, len(inst.Reserves.Entries))
	for i, e := range inst.Reserves.Entries {
		amount, err := types.ParseAmount(e.Amount)
		if err != nil {
			return nil, fmt.Errorf("reserves[%d]: %w", i, err)
		}
		entries[i] = reserve.Entry{Account: e.Account, Amount: amount}
	}
	return entries, nil
}

// InstanceTotal sums the reservations of inst.
func (p *Plan) InstanceTotal(inst Instance) (types.Amount, error) {
	entries, err := p.Entries(inst)
	if err != nil {
		return types.ZeroAmount(), err
	}
	total := new(big.Int)
	for _, e := range entries {
		total.Add(total, e.Amount.BigInt())
	}
	return fromBig(total)
}

// TotalReserves sums the reservations of every instance.
func (p *Plan) TotalReserves() (types.Amount, error) {
	total := new(big.Int)
	for _, inst := range p.List {
		t, err := p.InstanceTotal(inst)
		if err != nil {
			return types.ZeroAmount(), fmt.Errorf("%w: %q: %w", ErrInvalidPlan, inst.Name, err)
		}
		total.Add(total, t.BigInt())
	}
	return fromBig(total)
}

// fromBig converts a sum back to an Amount, failing past 256 bits.
func fromBig(v *big.Int) (types.Amount, error) {
	if v.Cmp(types.MaxUint.BigInt()) > 0 {
		return types.ZeroAmount(), fmt.Errorf("provision: total %s exceeds 256 bits", v)
	}
	return types.ParseAmount(v.String())
}

// Validate checks every schedule config, rejects duplicate labels, and
// checks each instance total against the reserve limit.
func (p *Plan) Validate() error {
	if p.ReserveBatchSize < 0 {
		return fmt.Errorf("%w: reserve_batch_size must not be negative", ErrInvalidPlan)
	}
	if len(p.List) == 0 {
		return fmt.Errorf("%w: list is empty", ErrInvalidPlan)
	}
	if _, err := p.Configs(); err != nil {
		return err
	}

	seen := mapset.NewSet[string]()
	for i, inst := range p.List {
		if !seen.Add(inst.Name) {
			return fmt.Errorf("%w: list[%d]: duplicate name %q", ErrInvalidPlan, i, inst.Name)
		}
		total, err := p.InstanceTotal(inst)
		if err != nil {
			return fmt.Errorf("%w: list[%d] %q: %w", ErrInvalidPlan, i, inst.Name, err)
		}
		if total.GT(types.MaxTotalReserve) {
			return fmt.Errorf("%w: list[%d] %q: total %s exceeds %s", ErrInvalidPlan, i, inst.Name, total, types.MaxTotalReserve)
		}
	}
	return nil
}
