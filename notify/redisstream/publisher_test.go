package redisstream_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/xraph/vesting"
	assetmem "github.com/xraph/vesting/asset/memory"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/notify/redisstream"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

func setupClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestPublisherWritesEntries(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()
	pub := redisstream.New(client, redisstream.WithStream("test:events"))

	scheduleID := id.NewScheduleID()
	if err := pub.OnReserved(ctx, &plugin.Reserved{
		ScheduleID: scheduleID,
		Account:    "alice",
		Amount:     types.NewAmount(10),
		Total:      types.NewAmount(25),
	}); err != nil {
		t.Fatalf("OnReserved: %v", err)
	}
	startedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := pub.OnStarted(ctx, &plugin.Started{
		ScheduleID: scheduleID,
		Total:      types.NewAmount(25),
		StartedAt:  startedAt,
	}); err != nil {
		t.Fatalf("OnStarted: %v", err)
	}
	if err := pub.OnClaimed(ctx, &plugin.Claimed{
		ScheduleID:   scheduleID,
		Account:      "alice",
		Batch:        true,
		TotalClaimed: types.NewAmount(3),
		Amount:       types.NewAmount(3),
	}); err != nil {
		t.Fatalf("OnClaimed: %v", err)
	}

	entries, err := client.XRange(ctx, "test:events", "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	kind, msg, err := redisstream.Decode(entries[0].Values)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	reserved, ok := msg.(*redisstream.ReservedMessage)
	if kind != redisstream.KindReserved || !ok {
		t.Fatalf("expected reserved message, got %q %T", kind, msg)
	}
	if reserved.Total != "25" || reserved.Account != "alice" || reserved.ScheduleID != scheduleID.String() {
		t.Errorf("unexpected reserved message %+v", reserved)
	}

	_, msg, err = redisstream.Decode(entries[1].Values)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if started := msg.(*redisstream.StartedMessage); !started.StartedAt.Equal(startedAt) {
		t.Errorf("expected started_at %v, got %v", startedAt, started.StartedAt)
	}

	_, msg, err = redisstream.Decode(entries[2].Values)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claimed := msg.(*redisstream.ClaimedMessage); !claimed.Batch || claimed.Amount != "3" {
		t.Errorf("unexpected claimed message %+v", claimed)
	}
}

func TestPublisherWithEngine(t *testing.T) {
	client, _ := setupClient(t)
	ctx := context.Background()

	assets := assetmem.New("vesting")
	assets.Mint("treasury", types.NewAmount(100))
	assets.Approve("treasury", types.NewAmount(100))

	engine, err := vesting.New(schedule.Config{
		Label:          "stream",
		Period:         time.Hour,
		InitialRelease: types.FullRatio,
		Asset:          "tok",
	}, assets,
		vesting.WithAdministrator("treasury"),
		vesting.WithPlugin(redisstream.New(client)),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := engine.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer engine.Close(ctx)

	admin := vesting.WithCaller(ctx, "treasury")
	if err := engine.Reserve(admin, []vesting.Entry{{Account: "alice", Amount: types.NewAmount(100)}}); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if err := engine.Start(admin); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := engine.Claim(admin, "alice"); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	entries, err := client.XRange(ctx, redisstream.DefaultStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("XRange: %v", err)
	}
	want := []string{redisstream.KindReserved, redisstream.KindStarted, redisstream.KindClaimed}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if got := e.Values["kind"]; got != want[i] {
			t.Errorf("entry %d: expected kind %q, got %v", i, want[i], got)
		}
	}
}

func TestPublisherFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	pub := redisstream.New(client)
	err = pub.OnStarted(context.Background(), &plugin.Started{
		ScheduleID: id.NewScheduleID(),
		Total:      types.NewAmount(1),
	})
	if err == nil {
		t.Fatal("expected error when redis is unavailable")
	}
}
