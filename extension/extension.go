// Package extension provides the Forge extension adapter for vesting.
//
// It implements the forge.Extension interface to integrate vesting
// engines into a Forge application with store selection, DI registration,
// and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.vesting" or "vesting" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/provision"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/store/mongo"
	"github.com/xraph/vesting/store/postgres"
	"github.com/xraph/vesting/store/sqlite"
	"github.com/xraph/vesting/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "vesting"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Token reservation and cliff-plus-linear vesting engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts vesting as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	assets     asset.Ledger
	groveDB    *grove.DB
	store      store.Store
	ownsStore  bool
	plan       *provision.Plan
	engines    []*vesting.Engine
	engineOpts []vesting.Option
}

// New creates a new vesting Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the first engine, or nil until Register is called.
func (e *Extension) Engine() *vesting.Engine {
	if len(e.engines) == 0 {
		return nil
	}
	return e.engines[0]
}

// Engines returns every engine, one per plan instance.
func (e *Extension) Engines() []*vesting.Engine { return e.engines }

// Register implements [forge.Extension]. It loads configuration,
// builds the store and engines, and registers them in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.setup(); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*vesting.Engine, error) {
		return e.Engine(), nil
	}); err != nil {
		return err
	}
	return vessel.Provide(fapp.Container(), func() ([]*vesting.Engine, error) {
		return e.engines, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if err := e.start(ctx); err != nil {
		return err
	}

	e.Logger().Info("vesting: engines started",
		forge.F("engines", len(e.engines)),
		forge.F("store_driver", e.config.StoreDriver),
	)
	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	err := e.stop(ctx)
	e.MarkStopped()
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("vesting: store not initialized")
	}
	return e.store.Ping(ctx)
}

// setup builds the store and the engines from the resolved config.
func (e *Extension) setup() error {
	if e.assets == nil {
		return errors.New("vesting: an asset ledger is required, use WithAssetLedger")
	}

	if e.store == nil {
		s, err := e.buildStore()
		if err != nil {
			return err
		}
		e.store, e.ownsStore = s, true
	}

	opts := e.buildEngineOpts()

	if e.config.PlanFile != "" {
		p, err := provision.Load(e.config.PlanFile)
		if err != nil {
			return err
		}
		if e.config.ReserveBatchSize > 0 {
			p.ReserveBatchSize = e.config.ReserveBatchSize
		}
		engines, err := p.Engines(e.assets, opts...)
		if err != nil {
			return err
		}
		e.plan, e.engines = p, engines
		return nil
	}

	cfg, err := e.config.Schedule.ToSchedule()
	if err != nil {
		return fmt.Errorf("vesting: schedule config: %w", err)
	}
	eng, err := vesting.New(cfg, e.assets, opts...)
	if err != nil {
		return err
	}
	e.engines = []*vesting.Engine{eng}
	return nil
}

// start opens every engine, provisioning the plan when one is configured.
func (e *Extension) start(ctx context.Context) error {
	if len(e.engines) == 0 {
		return errors.New("vesting: extension not initialized")
	}

	if e.plan != nil {
		if e.config.Administrator == "" {
			return errors.New("vesting: a plan file requires an administrator")
		}
		return provision.Provision(vesting.WithCaller(ctx, types.Account(e.config.Administrator)), e.plan, e.engines)
	}
	return e.engines[0].Open(ctx)
}

// stop closes every engine and then the store the extension built.
func (e *Extension) stop(ctx context.Context) error {
	var errs vesting.MultiError
	for _, eng := range e.engines {
		errs.Add(eng.Close(ctx))
	}
	if e.ownsStore && e.store != nil {
		errs.Add(e.store.Close())
	}
	return errs.ErrorOrNil()
}

// buildStore constructs the backend named by StoreDriver.
func (e *Extension) buildStore() (store.Store, error) {
	driver := e.config.StoreDriver
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if e.groveDB == nil {
		return nil, fmt.Errorf("vesting: store driver %q requires a grove database, use WithGroveDB", driver)
	}

	switch driver {
	case DriverPostgres:
		return postgres.New(e.groveDB), nil
	case DriverSQLite:
		return sqlite.New(e.groveDB), nil
	case DriverMongo:
		return mongo.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("vesting: unknown store driver %q", driver)
	}
}

// buildEngineOpts constructs vesting.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []vesting.Option {
	opts := make([]vesting.Option, 0, len(e.engineOpts)+3)

	opts = append(opts, vesting.WithStore(e.store))
	if e.config.Administrator != "" {
		opts = append(opts, vesting.WithAdministrator(types.Account(e.config.Administrator)))
	}
	if e.config.DisableMigrate {
		opts = append(opts, vesting.WithoutMigrate())
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("vesting: configuration is required but not found in config files; " +
				"ensure 'extensions.vesting' or 'vesting' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("vesting: configuration loaded",
		forge.F("schedule", e.config.Schedule.Label),
		forge.F("administrator", e.config.Administrator),
		forge.F("store_driver", e.config.StoreDriver),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("plan_file", e.config.PlanFile),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.vesting", "vesting"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("vesting: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("vesting: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.StoreDriver == "" {
		cfg.StoreDriver = defaults.StoreDriver
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// Struct and string fields: YAML takes precedence.
	if yamlConfig.Schedule.IsZero() {
		yamlConfig.Schedule = programmaticConfig.Schedule
	}
	if yamlConfig.Administrator == "" {
		yamlConfig.Administrator = programmaticConfig.Administrator
	}
	if yamlConfig.StoreDriver == "" {
		yamlConfig.StoreDriver = programmaticConfig.StoreDriver
	}
	if yamlConfig.PlanFile == "" {
		yamlConfig.PlanFile = programmaticConfig.PlanFile
	}
	if yamlConfig.ReserveBatchSize == 0 {
		yamlConfig.ReserveBatchSize = programmaticConfig.ReserveBatchSize
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
