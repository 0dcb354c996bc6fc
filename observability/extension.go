// Package observability provides a metrics extension for the vesting engine
// that records notification counts via a MetricFactory.
package observability

import (
	"context"
	"math/big"

	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin     = (*MetricsExtension)(nil)
	_ plugin.OnInit     = (*MetricsExtension)(nil)
	_ plugin.OnReserved = (*MetricsExtension)(nil)
	_ plugin.OnStarted  = (*MetricsExtension)(nil)
	_ plugin.OnClaimed  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records vesting metrics.
// Register it as an engine plugin to track reservations and claims.
type MetricsExtension struct {
	factory MetricFactory

	// Reservation metrics
	ReserveEntries Counter
	ReserveAmount  Histogram

	// Schedule metrics
	ScheduleStarted Counter
	StartedTotal    Histogram

	// Claim metrics
	ClaimCount  Counter
	ClaimBatch  Counter
	ClaimAmount Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewOTelFactory to report through an OpenTelemetry meter.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Reservation metrics
		ReserveEntries: factory.Counter("vesting.reserve.entries"),
		ReserveAmount:  factory.Histogram("vesting.reserve.amount"),

		// Schedule metrics
		ScheduleStarted: factory.Counter("vesting.schedule.started"),
		StartedTotal:    factory.Histogram("vesting.schedule.total_reserved"),

		// Claim metrics
		ClaimCount:  factory.Counter("vesting.claim.count"),
		ClaimBatch:  factory.Counter("vesting.claim.batch"),
		ClaimAmount: factory.Histogram("vesting.claim.amount"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnReserved implements plugin.OnReserved.
func (m *MetricsExtension) OnReserved(_ context.Context, evt *plugin.Reserved) error {
	m.ReserveEntries.Inc()
	m.ReserveAmount.Observe(amountValue(evt.Amount))
	return nil
}

// OnStarted implements plugin.OnStarted.
func (m *MetricsExtension) OnStarted(_ context.Context, evt *plugin.Started) error {
	m.ScheduleStarted.Inc()
	m.StartedTotal.Observe(amountValue(evt.Total))
	return nil
}

// OnClaimed implements plugin.OnClaimed.
func (m *MetricsExtension) OnClaimed(_ context.Context, evt *plugin.Claimed) error {
	m.ClaimCount.Inc()
	if evt.Batch {
		m.ClaimBatch.Inc()
	}
	m.ClaimAmount.Observe(amountValue(evt.Amount))
	return nil
}

// amountValue converts an amount to the nearest float64. Metrics tolerate
// the precision loss above 2^53.
func amountValue(a types.Amount) float64 {
	f, _ := new(big.Float).SetInt(a.BigInt()).Float64()
	return f
}
