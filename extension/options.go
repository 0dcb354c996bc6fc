package extension

import (
	"github.com/xraph/grove"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
)

// Option configures the vesting Forge extension.
type Option func(*Extension)

// WithAssetLedger sets the asset ledger the engines draw from. Required.
func WithAssetLedger(a asset.Ledger) Option {
	return func(e *Extension) {
		e.assets = a
	}
}

// WithStore sets the store for the vesting engines, bypassing StoreDriver.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB sets the grove database the store is built from. driver is
// one of postgres, sqlite or mongo and must match the database.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.config.StoreDriver = driver
	}
}

// WithEngineOption passes a vesting.Option through to every engine.
func WithEngineOption(opt vesting.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a plugin with every engine.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, vesting.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithSchedule sets the schedule run by the extension.
func WithSchedule(cfg ScheduleConfig) Option {
	return func(e *Extension) { e.config.Schedule = cfg }
}

// WithAdministrator sets the administrator account.
func WithAdministrator(account string) Option {
	return func(e *Extension) { e.config.Administrator = account }
}

// WithPlanFile deploys the provisioning plan at path on start.
func WithPlanFile(path string) Option {
	return func(e *Extension) { e.config.PlanFile = path }
}

// WithReserveBatchSize overrides the plan's reserve batch size.
func WithReserveBatchSize(size int) Option {
	return func(e *Extension) { e.config.ReserveBatchSize = size }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
