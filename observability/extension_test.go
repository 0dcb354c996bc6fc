package observability_test

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xraph/vesting/observability"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/types"
)

type fakeFactory struct {
	mu       sync.Mutex
	counters map[string]float64
	observed map[string][]float64
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{counters: map[string]float64{}, observed: map[string][]float64{}}
}

type fakeCounter struct {
	f    *fakeFactory
	name string
}

func (c fakeCounter) Inc() { c.Add(1) }

func (c fakeCounter) Add(v float64) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()
	c.f.counters[c.name] += v
}

type fakeHistogram struct {
	f    *fakeFactory
	name string
}

func (h fakeHistogram) Observe(v float64) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	h.f.observed[h.name] = append(h.f.observed[h.name], v)
}

func (f *fakeFactory) Counter(name string) observability.Counter {
	return fakeCounter{f: f, name: name}
}

func (f *fakeFactory) Histogram(name string) observability.Histogram {
	return fakeHistogram{f: f, name: name}
}

func TestMetricsExtension(t *testing.T) {
	f := newFakeFactory()
	m := observability.NewMetricsExtension(f)
	ctx := context.Background()

	_ = m.OnReserved(ctx, &plugin.Reserved{Amount: types.NewAmount(10), Total: types.NewAmount(10)})
	_ = m.OnReserved(ctx, &plugin.Reserved{Amount: types.NewAmount(5), Total: types.NewAmount(5)})
	_ = m.OnStarted(ctx, &plugin.Started{Total: types.NewAmount(15)})
	_ = m.OnClaimed(ctx, &plugin.Claimed{Amount: types.NewAmount(3)})
	_ = m.OnClaimed(ctx, &plugin.Claimed{Amount: types.NewAmount(4), Batch: true})

	tests := []struct {
		name string
		want float64
	}{
		{"vesting.reserve.entries", 2},
		{"vesting.schedule.started", 1},
		{"vesting.claim.count", 2},
		{"vesting.claim.batch", 1},
	}
	for _, tt := range tests {
		if got := f.counters[tt.name]; got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
	if got := f.observed["vesting.claim.amount"]; len(got) != 2 || got[1] != 4 {
		t.Errorf("claim amounts: got %v", got)
	}
}

func TestOTelFactory(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := observability.NewMetricsExtension(observability.NewOTelFactory(mp.Meter("test")))

	ctx := context.Background()
	_ = m.OnClaimed(ctx, &plugin.Claimed{Amount: types.NewAmount(7)})
	_ = m.OnClaimed(ctx, &plugin.Claimed{Amount: types.NewAmount(8)})

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "vesting.claim.count" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[float64])
			if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
				t.Errorf("unexpected claim count data: %+v", metric.Data)
			}
			found = true
		}
	}
	if !found {
		t.Error("vesting.claim.count not reported")
	}
}
