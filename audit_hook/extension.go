// Package audithook bridges vesting notifications to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xraph/vesting/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin     = (*Extension)(nil)
	_ plugin.OnInit     = (*Extension)(nil)
	_ plugin.OnShutdown = (*Extension)(nil)
	_ plugin.OnReserved = (*Extension)(nil)
	_ plugin.OnStarted  = (*Extension)(nil)
	_ plugin.OnClaimed  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// Callers adapt their audit trail client to it at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry written to the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges vesting notifications to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  mapset.Set[string] // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit implements plugin.OnInit.
func (e *Extension) OnInit(ctx context.Context, _ any) error {
	return e.record(ctx, ActionEngineOpened, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", CategoryLifecycle, nil,
		"event", "engine_opened",
	)
}

// OnShutdown implements plugin.OnShutdown.
func (e *Extension) OnShutdown(ctx context.Context) error {
	return e.record(ctx, ActionEngineClosed, SeverityInfo, OutcomeSuccess,
		ResourceEngine, "", CategoryLifecycle, nil,
		"event", "engine_closed",
	)
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnReserved implements plugin.OnReserved.
func (e *Extension) OnReserved(ctx context.Context, evt *plugin.Reserved) error {
	return e.record(ctx, ActionReserveAdded, SeverityInfo, OutcomeSuccess,
		ResourceReserve, evt.ScheduleID.String(), CategoryAllocation, nil,
		"account", evt.Account.String(),
		"amount", evt.Amount.String(),
		"total", evt.Total.String(),
	)
}

// OnStarted implements plugin.OnStarted.
func (e *Extension) OnStarted(ctx context.Context, evt *plugin.Started) error {
	return e.record(ctx, ActionVestingStarted, SeverityInfo, OutcomeSuccess,
		ResourceSchedule, evt.ScheduleID.String(), CategoryLifecycle, nil,
		"total_reserved", evt.Total.String(),
		"started_at", evt.StartedAt,
	)
}

// OnClaimed implements plugin.OnClaimed.
func (e *Extension) OnClaimed(ctx context.Context, evt *plugin.Claimed) error {
	action := ActionTokensClaimed
	if evt.Batch {
		action = ActionTokensBatchClaimed
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceClaim, evt.ScheduleID.String(), CategoryRelease, nil,
		"account", evt.Account.String(),
		"amount", evt.Amount.String(),
		"total_claimed", evt.TotalClaimed.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled.Contains(action) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
