package world

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"voxelfuel.ai/internal/sim/machine/fuelloader"
)

const instrumentationName = "voxelfuel.ai/internal/sim/world"

// WorldMetrics is a read-only view of runtime signals. It is stored by the
// world loop goroutine and read from HTTP handlers and tests.
type WorldMetrics struct {
	Tick     uint64 `json:"tick"`
	Loaders  int    `json:"loaders"`
	Pads     int    `json:"pads"`
	Rockets  int    `json:"rockets"`
	Sessions int    `json:"sessions"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`

	// Statuses counts loaders per status name after the last tick.
	Statuses map[string]int `json:"statuses"`

	DeliveredTotal int64 `json:"delivered_total"`
	IntakeTotal    int64 `json:"intake_total"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

type Metrics struct {
	v atomic.Value

	ticks       metric.Int64Counter
	delivered   metric.Int64Counter
	intake      metric.Int64Counter
	transitions metric.Int64Counter
	loaders     metric.Int64ObservableGauge
}

// NewMetrics creates instruments on the global meter provider, which is a
// no-op until one is installed.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{}
	meter := otel.Meter(instrumentationName)

	var err error
	m.ticks, err = meter.Int64Counter("world.ticks", metric.WithDescription("Ticks simulated"))
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}
	m.delivered, err = meter.Int64Counter(
		"fuel_loader.delivered",
		metric.WithDescription("Fuel moved into rockets, in droplets"),
		metric.WithUnit("{droplet}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}
	m.intake, err = meter.Int64Counter(
		"fuel_loader.intake",
		metric.WithDescription("Fuel drawn from fuel-slot items, in droplets"),
		metric.WithUnit("{droplet}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating intake counter: %w", err)
	}
	m.transitions, err = meter.Int64Counter(
		"fuel_loader.status.transitions",
		metric.WithDescription("Loader status changes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transition counter: %w", err)
	}
	m.loaders, err = meter.Int64ObservableGauge(
		"fuel_loader.count",
		metric.WithDescription("Loaders per status after the last tick"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loader gauge: %w", err)
	}
	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			for _, s := range fuelloader.Statuses() {
				n := m.Load().Statuses[s.String()]
				o.ObserveInt64(m.loaders, int64(n), metric.WithAttributes(attribute.String("status", s.String())))
			}
			return nil
		},
		m.loaders,
	)
	if err != nil {
		return nil, fmt.Errorf("registering loader callback: %w", err)
	}
	return m, nil
}

func (m *Metrics) Load() WorldMetrics {
	if m == nil {
		return WorldMetrics{}
	}
	v, ok := m.v.Load().(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return v
}

func (m *Metrics) store(v WorldMetrics) { m.v.Store(v) }

func (m *Metrics) recordTick(ctx context.Context, rep stepReport) {
	m.ticks.Add(ctx, 1)
	if rep.delivered > 0 {
		m.delivered.Add(ctx, rep.delivered)
	}
	if rep.intake > 0 {
		m.intake.Add(ctx, rep.intake)
	}
	for _, ev := range rep.events {
		if ev.From == ev.To {
			continue
		}
		m.transitions.Add(ctx, 1, metric.WithAttributes(
			attribute.String("from", ev.From),
			attribute.String("to", ev.To),
		))
	}
}

func (w *World) Metrics() WorldMetrics {
	if w == nil {
		return WorldMetrics{}
	}
	return w.metrics.Load()
}
