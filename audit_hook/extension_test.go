package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	audithook "github.com/xraph/vesting/audit_hook"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/types"
)

type sink struct {
	events []*audithook.AuditEvent
}

func (s *sink) Record(_ context.Context, evt *audithook.AuditEvent) error {
	s.events = append(s.events, evt)
	return nil
}

func emitAll(t *testing.T, ext *audithook.Extension) {
	t.Helper()
	ctx := context.Background()
	scheduleID := id.NewScheduleID()

	calls := []error{
		ext.OnInit(ctx, nil),
		ext.OnReserved(ctx, &plugin.Reserved{ScheduleID: scheduleID, Account: "alice", Amount: types.NewAmount(5), Total: types.NewAmount(5)}),
		ext.OnStarted(ctx, &plugin.Started{ScheduleID: scheduleID, Total: types.NewAmount(5), StartedAt: time.Now()}),
		ext.OnClaimed(ctx, &plugin.Claimed{ScheduleID: scheduleID, Account: "alice", Amount: types.NewAmount(1), TotalClaimed: types.NewAmount(1)}),
		ext.OnClaimed(ctx, &plugin.Claimed{ScheduleID: scheduleID, Account: "alice", Batch: true, Amount: types.NewAmount(1), TotalClaimed: types.NewAmount(2)}),
		ext.OnShutdown(ctx),
	}
	for i, err := range calls {
		if err != nil {
			t.Fatalf("hook %d returned %v", i, err)
		}
	}
}

func TestRecordsAllActions(t *testing.T) {
	s := &sink{}
	emitAll(t, audithook.New(s))

	want := []string{
		audithook.ActionEngineOpened,
		audithook.ActionReserveAdded,
		audithook.ActionVestingStarted,
		audithook.ActionTokensClaimed,
		audithook.ActionTokensBatchClaimed,
		audithook.ActionEngineClosed,
	}
	if len(s.events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(s.events))
	}
	for i, action := range want {
		if s.events[i].Action != action {
			t.Errorf("event %d: got %s, want %s", i, s.events[i].Action, action)
		}
	}

	reserved := s.events[1]
	if reserved.Resource != audithook.ResourceReserve || reserved.Category != audithook.CategoryAllocation {
		t.Errorf("unexpected reserve event: %+v", reserved)
	}
	if reserved.Metadata["amount"] != "5" || reserved.Metadata["account"] != "alice" {
		t.Errorf("unexpected metadata: %v", reserved.Metadata)
	}
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opt  audithook.Option
		want int
	}{
		{"Enabled", audithook.WithEnabledActions(audithook.ActionTokensClaimed), 1},
		{"Disabled", audithook.WithDisabledActions(audithook.ActionEngineOpened, audithook.ActionEngineClosed), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sink{}
			emitAll(t, audithook.New(s, tt.opt))
			if len(s.events) != tt.want {
				t.Errorf("expected %d events, got %d", tt.want, len(s.events))
			}
		})
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.DiscardHandler)))
	if err := ext.OnInit(context.Background(), nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
