package postgres

import (
	"testing"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/reserve"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

func TestScheduleModel(t *testing.T) {
	sc, err := schedule.New(schedule.Config{
		Label:          "Seed Round",
		Period:         30 * 24 * time.Hour,
		Cliff:          3,
		VestingPeriods: 12,
		InitialRelease: types.MustParseRatio("23%"),
		Asset:          "medx",
	})
	if err != nil {
		t.Fatal(err)
	}
	sc.Started = true
	sc.StartedAt = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	m := toScheduleModel(sc)
	if m.PeriodNanos != int64(30*24*time.Hour) || m.InitialRelease != 230000000000000000 {
		t.Errorf("unexpected model %+v", m)
	}

	got, err := fromScheduleModel(m)
	if err != nil {
		t.Fatalf("fromScheduleModel: %v", err)
	}
	if !got.Config.Equal(sc.Config) {
		t.Errorf("config changed: got %+v, want %+v", got.Config, sc.Config)
	}
	if got.ID.String() != sc.ID.String() || !got.StartedAt.Equal(sc.StartedAt) {
		t.Errorf("identity or start changed: %+v", got)
	}
}

func TestReserveModelKeepsFullWidth(t *testing.T) {
	r := &reserve.Reserve{
		Entity:     types.NewEntity(),
		ID:         id.NewReserveID(),
		ScheduleID: id.NewScheduleID(),
		Account:    "alice",
		Position:   4,
		Reserved:   types.MaxTotalReserve,
		Claimed:    types.NewAmount(7),
	}

	got, err := fromReserveModel(toReserveModel(r))
	if err != nil {
		t.Fatalf("fromReserveModel: %v", err)
	}
	if !got.Reserved.Equal(types.MaxTotalReserve) || got.Claimed.String() != "7" || got.Position != 4 {
		t.Errorf("unexpected reserve %+v", got)
	}
}

func TestClaimModelRejectsForeignID(t *testing.T) {
	m := toClaimModel(&claim.Claim{
		ID:           id.NewClaimID(),
		ScheduleID:   id.NewScheduleID(),
		Account:      "alice",
		Amount:       types.NewAmount(3),
		ClaimedAfter: types.NewAmount(5),
	})
	m.ID = id.NewReserveID().String()

	if _, err := fromClaimModel(m); err == nil {
		t.Error("expected error for a reserve ID in the claim table")
	}
}
