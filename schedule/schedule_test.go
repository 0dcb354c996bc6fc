package schedule_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

const day = 24 * time.Hour

var oneEther = types.MustParseAmount("1000000000000000000")

func validConfig() schedule.Config {
	return schedule.Config{
		Label:          "Test Vesting",
		Period:         30 * day,
		Cliff:          3,
		VestingPeriods: 12,
		InitialRelease: types.MustParseRatio("23%"),
		Asset:          "medx",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*schedule.Config)
		field  string
	}{
		{"Valid", func(*schedule.Config) {}, ""},
		{"MaxLengthLabel", func(c *schedule.Config) { c.Label = strings.Repeat("x", 31) }, ""},
		{"EmptyLabel", func(c *schedule.Config) { c.Label = "" }, ""},
		{"LabelTooLong", func(c *schedule.Config) { c.Label = strings.Repeat("x", 32) }, "label"},
		{"ZeroPeriod", func(c *schedule.Config) { c.Period = 0 }, "period"},
		{"NegativePeriod", func(c *schedule.Config) { c.Period = -time.Second }, "period"},
		{"MaxPeriod", func(c *schedule.Config) { c.Period = 360 * day }, ""},
		{"PeriodTooLong", func(c *schedule.Config) { c.Period = 360*day + time.Second }, "period"},
		{"InitialAboveScale", func(c *schedule.Config) { c.InitialRelease = types.FullRatio + 1 }, "initial_release"},
		{"NoVestingPartialRelease", func(c *schedule.Config) {
			c.VestingPeriods = 0
			c.InitialRelease = 1
		}, "vesting_periods"},
		{"FullReleaseWithVesting", func(c *schedule.Config) {
			c.VestingPeriods = 1
			c.InitialRelease = types.FullRatio
		}, "vesting_periods"},
		{"NoVestingFullRelease", func(c *schedule.Config) {
			c.VestingPeriods = 0
			c.InitialRelease = types.FullRatio
		}, ""},
		{"MaxVestingPeriods", func(c *schedule.Config) { c.VestingPeriods = 120 }, ""},
		{"TooManyVestingPeriods", func(c *schedule.Config) { c.VestingPeriods = 121 }, "vesting_periods"},
		{"NoAsset", func(c *schedule.Config) { c.Asset = "" }, "asset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, types.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var ve types.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	s, err := schedule.New(validConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.ID.IsNil() {
		t.Error("expected schedule ID")
	}
	if s.Status() != schedule.StatusConfigured {
		t.Errorf("expected configured, got %s", s.Status())
	}
	if !s.Config.Equal(validConfig()) {
		t.Error("config not retained")
	}

	if _, err := schedule.New(schedule.Config{}); err == nil {
		t.Error("expected error for zero config")
	}
}

func TestLabelEncoding(t *testing.T) {
	b, err := schedule.EncodeLabel("Test Vesting")
	if err != nil {
		t.Fatalf("EncodeLabel failed: %v", err)
	}
	if b[0] != 12 {
		t.Errorf("length byte: got %d, want 12", b[0])
	}
	got, err := schedule.DecodeLabel(b)
	if err != nil || got != "Test Vesting" {
		t.Errorf("DecodeLabel: got %q (%v)", got, err)
	}

	if _, err := schedule.EncodeLabel(strings.Repeat("x", 32)); err == nil {
		t.Error("expected error for 32-byte label")
	}

	var bad [32]byte
	bad[0] = 0x20
	if _, err := schedule.DecodeLabel(bad); err == nil {
		t.Error("expected error for length byte 0x20")
	}
}

func TestVestedAt(t *testing.T) {
	reserved := types.NewAmount(123).Mul(oneEther)

	tests := []struct {
		name    string
		cfg     func() schedule.Config
		elapsed uint64
		want    string
	}{
		{"NoInitialNoPeriods", func() schedule.Config {
			c := validConfig()
			c.Cliff, c.VestingPeriods, c.InitialRelease = 0, 1, 0
			return c
		}, 0, "0"},
		{"InitialOnly", validConfig, 0, "28290000000000000000"},
		{"DuringCliff", validConfig, 3, "28290000000000000000"},
		{"OneLinearPeriod", validConfig, 4, "36182500000000000000"},
		{"AllPeriods", validConfig, 15, "123000000000000000000"},
		{"PastEnd", validConfig, 1000, "123000000000000000000"},
		{"ImmediateFull", func() schedule.Config {
			c := validConfig()
			c.VestingPeriods, c.InitialRelease = 0, types.FullRatio
			return c
		}, 0, "123000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg().VestedAt(reserved, tt.elapsed)
			if got.String() != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVestedAtSmallAmount(t *testing.T) {
	// 23% of 123 truncates to 28; one of twelve linear periods adds floor(95/12) = 7.
	got := validConfig().VestedAt(types.NewAmount(123), 4)
	if !got.Equal(types.NewAmount(35)) {
		t.Errorf("got %s, want 35", got)
	}
}

func TestElapsedPeriods(t *testing.T) {
	cfg := validConfig()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		now  time.Time
		want uint64
	}{
		{start, 0},
		{start.Add(-time.Hour), 0},
		{start.Add(30*day - time.Second), 0},
		{start.Add(30 * day), 1},
		{start.Add(95 * day), 3},
	}
	for _, tt := range tests {
		if got := cfg.ElapsedPeriods(start, tt.now); got != tt.want {
			t.Errorf("ElapsedPeriods(%s): got %d, want %d", tt.now.Sub(start), got, tt.want)
		}
	}
}

func TestPartialClaimsConverge(t *testing.T) {
	cfg := validConfig()
	cfg.Cliff, cfg.VestingPeriods = 2, 7
	reserved := types.MustParseAmount("1000000000000000000000000001")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	claimed := types.ZeroAmount()
	last := types.ZeroAmount()
	for p := uint64(0); p <= uint64(cfg.Cliff+cfg.VestingPeriods)+2; p++ {
		now := start.Add(time.Duration(p) * cfg.Period)
		vested := cfg.VestedAmount(reserved, start, now)
		if vested.LT(last) {
			t.Fatalf("vested decreased at period %d", p)
		}
		last = vested

		amount := cfg.ClaimableAmount(reserved, claimed, start, now)
		claimed = claimed.Add(amount)
		if again := cfg.ClaimableAmount(reserved, claimed, start, now); !again.IsZero() {
			t.Fatalf("second claim at period %d yielded %s", p, again)
		}
	}
	if !claimed.Equal(reserved) {
		t.Errorf("claimed %s, want %s", claimed, reserved)
	}
}

func TestTimetable(t *testing.T) {
	cfg := validConfig()
	reserved := types.NewAmount(123).Mul(oneEther)

	tt := cfg.Timetable(reserved)
	if len(tt) != 13 {
		t.Fatalf("expected 13 tranches, got %d", len(tt))
	}
	if tt[0].Period != 0 || tt[0].Released.String() != "28290000000000000000" {
		t.Errorf("unexpected first tranche: %+v", tt[0])
	}
	if tt[1].Period != 4 || tt[1].Offset != 120*day {
		t.Errorf("unexpected second tranche: %+v", tt[1])
	}

	sum := types.ZeroAmount()
	for _, tr := range tt {
		sum = sum.Add(tr.Released)
	}
	if !sum.Equal(reserved) || !tt[len(tt)-1].Vested.Equal(reserved) {
		t.Errorf("timetable does not sum to reserve: %s", sum)
	}

	// Tranches releasing nothing are omitted.
	small := cfg.Timetable(types.NewAmount(1))
	if len(small) != 1 || small[0].Period != 15 {
		t.Errorf("expected a single final tranche, got %+v", small)
	}
}

func TestFullyVestedAfter(t *testing.T) {
	cfg := validConfig()
	if got := cfg.FullyVestedAfter(); got != 15*30*day {
		t.Errorf("got %s, want %s", got, 15*30*day)
	}
	cfg.Cliff = 1 << 31
	if got := cfg.FullyVestedAfter(); got != time.Duration(1<<63-1) {
		t.Errorf("expected saturation, got %s", got)
	}
}
