// Package metrics instruments the AMM core with Prometheus metrics,
// wiring github.com/prometheus/client_golang the same way the teacher
// wires it in cmd/client/main.go — a prometheus.Registerer handed in by
// the host, counters/histograms registered once at construction.
package metrics

import (
	"github.com/defistate/amm-core/ammtypes"
	"github.com/defistate/amm-core/events"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms the core reports. It
// implements events.Sink so it can be composed into an
// events.MultiSink alongside an application-facing events.ChannelBus.
type Metrics struct {
	eventsTotal   *prometheus.CounterVec
	swapVolumeIn  *prometheus.CounterVec
	swapAmountOut prometheus.Histogram
	feeCollected  *prometheus.CounterVec
}

// New constructs and registers AMM core metrics against reg. Passing
// prometheus.DefaultRegisterer matches the teacher's own default wiring
// in cmd/client/main.go.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ammcore_events_total",
			Help: "Number of AMM core events emitted, by kind.",
		}, []string{"kind"}),
		swapVolumeIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ammcore_swap_volume_in_total",
			Help: "Cumulative swap input volume, by pool id.",
		}, []string{"pool_id"}),
		swapAmountOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ammcore_swap_amount_out",
			Help:    "Distribution of swap output amounts.",
			Buckets: prometheus.ExponentialBuckets(1, 10, 10),
		}),
		feeCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ammcore_fees_collected_total",
			Help: "Cumulative fees collected, by pool id and side.",
		}, []string{"pool_id", "side"}),
	}

	for _, c := range []prometheus.Collector{m.eventsTotal, m.swapVolumeIn, m.swapAmountOut, m.feeCollected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SwapVolumeInFor returns the cumulative swap-input-volume counter for
// poolID, letting a host (or a test) inspect the carried Prometheus
// stack directly rather than scraping it.
func (m *Metrics) SwapVolumeInFor(poolID ammtypes.PoolID) prometheus.Counter {
	return m.swapVolumeIn.WithLabelValues(poolID.Hex())
}

// Emit implements events.Sink.
func (m *Metrics) Emit(e events.Event) {
	m.eventsTotal.WithLabelValues(e.Kind()).Inc()

	switch ev := e.(type) {
	case events.SwapExecuted:
		poolID := ev.PoolID.Hex()
		m.swapVolumeIn.WithLabelValues(poolID).Add(float64(ev.AmountIn))
		m.swapAmountOut.Observe(float64(ev.AmountOut))
		side := "b"
		if ev.AToB {
			side = "a"
		}
		m.feeCollected.WithLabelValues(poolID, side).Add(float64(ev.FeeAmount))
	}
}
