package extension

import (
	"time"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Store drivers accepted in Config.StoreDriver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the vesting extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vesting" or "vesting" keys).
type Config struct {
	// Schedule describes the single schedule run by the extension. Ignored
	// when PlanFile is set.
	Schedule ScheduleConfig `json:"schedule" mapstructure:"schedule" yaml:"schedule"`

	// Administrator is the account allowed to reserve, start and batch claim.
	Administrator string `json:"administrator" mapstructure:"administrator" yaml:"administrator"`

	// StoreDriver selects the backend built from the grove database:
	// memory, postgres, sqlite or mongo (default: memory).
	StoreDriver string `json:"store_driver" mapstructure:"store_driver" yaml:"store_driver"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// ReserveBatchSize overrides the batch size of the provisioning plan.
	ReserveBatchSize int `json:"reserve_batch_size" mapstructure:"reserve_batch_size" yaml:"reserve_batch_size"`

	// PlanFile is a provisioning plan deployed on start, one engine per
	// instance.
	PlanFile string `json:"plan_file" mapstructure:"plan_file" yaml:"plan_file"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// ScheduleConfig is the declarative form of schedule.Config.
type ScheduleConfig struct {
	Label          string        `json:"label" mapstructure:"label" yaml:"label"`
	Period         time.Duration `json:"period" mapstructure:"period" yaml:"period"`
	Cliff          uint32        `json:"cliff" mapstructure:"cliff" yaml:"cliff"`
	VestingPeriods uint32        `json:"vesting_periods" mapstructure:"vesting_periods" yaml:"vesting_periods"`
	// InitialRelease accepts "23%", "0.23" or a raw 1e18-scaled integer.
	InitialRelease string `json:"initial_release" mapstructure:"initial_release" yaml:"initial_release"`
	Asset          string `json:"asset" mapstructure:"asset" yaml:"asset"`
}

// ToSchedule converts c to a validated schedule.Config.
func (c ScheduleConfig) ToSchedule() (schedule.Config, error) {
	release := types.ZeroRatio
	if c.InitialRelease != "" {
		r, err := types.ParseRatio(c.InitialRelease)
		if err != nil {
			return schedule.Config{}, types.Invalid("initial_release", "%v", err)
		}
		release = r
	}
	cfg := schedule.Config{
		Label:          c.Label,
		Period:         c.Period,
		Cliff:          c.Cliff,
		VestingPeriods: c.VestingPeriods,
		InitialRelease: release,
		Asset:          c.Asset,
	}
	return cfg, cfg.Validate()
}

// IsZero reports whether no schedule field is set.
func (c ScheduleConfig) IsZero() bool {
	return c == ScheduleConfig{}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StoreDriver: DriverMemory,
	}
}
