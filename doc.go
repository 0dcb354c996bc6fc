// Package vesting provides an append-only token reservation and time-based
// release engine for Go applications.
//
// Vesting is designed as a library, not a service. An administrator reserves
// amounts of a fungible asset for a set of recipients, deposits the total
// into custody once, and from then on each recipient withdraws the portion
// that has vested according to a cliff-plus-linear schedule:
//
//   - An initial release fraction unlocks at start
//   - Nothing further unlocks during the cliff
//   - The remainder unlocks in equal steps over the vesting periods
//
// # Quick Start
//
// Create an engine for a schedule and the asset ledger it draws from:
//
//	import (
//	    "github.com/xraph/vesting"
//	    "github.com/xraph/vesting/schedule"
//	    "github.com/xraph/vesting/store/postgres"
//	)
//
//	cfg := schedule.Config{
//	    Label:          "Seed Round",
//	    Period:         30 * 24 * time.Hour,
//	    Cliff:          3,
//	    VestingPeriods: 12,
//	    InitialRelease: vesting.MustParseRatio("23%"),
//	    Asset:          "medx",
//	}
//
//	engine, err := vesting.New(cfg, assets,
//	    vesting.WithStore(postgres.New(db)),
//	    vesting.WithAdministrator("treasury"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Open creates the schedule or reloads it by label
//	if err := engine.Open(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close(ctx)
//
// # Core Concepts
//
// Operations identify their caller through the context:
//
//	admin := vesting.WithCaller(ctx, "treasury")
//
// Reservations accumulate per recipient until the schedule starts:
//
//	err := engine.Reserve(admin, []vesting.Entry{
//	    {Account: "alice", Amount: vesting.NewAmount(1000)},
//	    {Account: "bob", Amount: vesting.NewAmount(500)},
//	})
//
// Start pulls the reserved total from the administrator into custody:
//
//	err := engine.Start(admin)
//
// Recipients claim whatever has vested; the administrator can claim on
// behalf of a list of recipients or a range of ledger positions:
//
//	amount, err := engine.Claim(vesting.WithCaller(ctx, "alice"), "alice")
//	total, err := engine.ClaimRange(admin, 0, engine.RecipientCount())
//
// # Arithmetic
//
// Amounts are unsigned 256-bit integers and ratios are fixed-point values
// scaled by 1e18. The vested total is recomputed from scratch on every
// claim, so any sequence of partial claims adds up to the reserved amount
// exactly once the schedule has fully elapsed.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	sched_01h2xcejqtf2nbrexx3vqjhp41  // Schedule ID
//	rsv_01h2xcejqtf2nbrexx3vqjhp41    // Reserve ID
//	clm_01h455vb4pex5vsknk084sn02q    // Claim ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package vesting
