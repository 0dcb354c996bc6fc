package vesting_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/vesting"
	assetmem "github.com/xraph/vesting/asset/memory"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package documentation
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		// Asset ledger holding the tokens to vest
		assets := assetmem.New("vesting")
		assets.Mint("treasury", vesting.NewAmount(1500))
		assets.Approve("treasury", vesting.NewAmount(1500))

		cfg := schedule.Config{
			Label:          "Seed Round",
			Period:         30 * 24 * time.Hour,
			Cliff:          3,
			VestingPeriods: 12,
			InitialRelease: vesting.MustParseRatio("23%"),
			Asset:          "medx",
		}

		engine, err := vesting.New(cfg, assets,
			vesting.WithStore(memory.New()),
			vesting.WithAdministrator("treasury"),
			vesting.WithLogger(slog.Default()),
		)
		if err != nil {
			t.Fatal(err)
		}

		if err := engine.Open(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Close(ctx)

		admin := vesting.WithCaller(ctx, "treasury")

		err = engine.Reserve(admin, []vesting.Entry{
			{Account: "alice", Amount: vesting.NewAmount(1000)},
			{Account: "bob", Amount: vesting.NewAmount(500)},
		})
		if err != nil {
			t.Fatal(err)
		}

		if err := engine.Start(admin); err != nil {
			t.Fatal(err)
		}

		amount, err := engine.Claim(vesting.WithCaller(ctx, "alice"), "alice")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("alice claimed %s\n", amount)

		total, err := engine.ClaimRange(admin, 0, engine.RecipientCount())
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("range claimed %s\n", total)
	})

	// Test Ratio examples
	t.Run("RatioExamples", func(t *testing.T) {
		// Constructors
		_ = types.MustParseRatio("23%")                // 23 percent
		_ = types.MustParseRatio("0.23")               // same value
		_ = types.MustParseRatio("230000000000000000") // raw 1e18-scaled value
		_ = types.FullRatio                            // 100 percent

		// Application truncates toward zero
		r := types.MustParseRatio("23%")
		_ = r.Apply(types.NewAmount(123)) // 28

		// Formatting
		_ = r.String()  // "230000000000000000"
		_ = r.Percent() // "23"
	})
}
