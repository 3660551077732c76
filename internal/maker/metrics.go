package maker

import (
	"time"

	"github.com/Justype/simmaker/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects run statistics from the event bus into a private registry.
type Metrics struct {
	registry *prometheus.Registry

	rounds        prometheus.Counter
	failures      prometheus.Counter
	corruptions   prometheus.Counter
	jobsSubmitted prometheus.Counter
	rejected      prometheus.Counter
	roundDuration prometheus.Histogram
	unknown       prometheus.Gauge

	roundStart time.Time
}

// NewMetrics creates the collectors and subscribes them to bus.
func NewMetrics(bus *events.Bus) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		rounds: factory.NewCounter(prometheus.CounterOpts{
			Name: "simmaker_rounds_total",
			Help: "Total number of rounds started",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "simmaker_failures_total",
			Help: "Total number of rounds with at least one failed job",
		}),
		corruptions: factory.NewCounter(prometheus.CounterOpts{
			Name: "simmaker_corruptions_total",
			Help: "Total number of rounds with at least one rejected simulation",
		}),
		jobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "simmaker_jobs_submitted_total",
			Help: "Total number of jobs submitted",
		}),
		rejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "simmaker_simulations_rejected_total",
			Help: "Total number of downloaded simulations rejected by the repository",
		}),
		roundDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "simmaker_round_duration_seconds",
			Help:    "Duration of a round, from generation to addition",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		unknown: factory.NewGauge(prometheus.GaugeOpts{
			Name: "simmaker_unknown_simulations",
			Help: "Number of target simulations unknown at the last extraction",
		}),
	}

	if bus != nil {
		m.subscribe(bus)
	}
	return m
}

func (m *Metrics) subscribe(bus *events.Bus) {
	_ = bus.Subscribe(events.ExtractEnd, func(payload any) {
		if p, ok := payload.(events.ExtractEndPayload); ok {
			m.unknown.Set(float64(len(p.Unknown)))
		}
	})
	_ = bus.Subscribe(events.GenerateStart, func(any) {
		m.rounds.Inc()
		m.roundStart = time.Now()
	})
	_ = bus.Subscribe(events.GenerateEnd, func(payload any) {
		if p, ok := payload.(events.GenerateEndPayload); ok {
			m.jobsSubmitted.Add(float64(len(p.JobIDs)))
		}
	})
	_ = bus.Subscribe(events.WaitEnd, func(payload any) {
		if p, ok := payload.(events.WaitEndPayload); ok && !p.Success {
			m.failures.Inc()
		}
	})
	_ = bus.Subscribe(events.AdditionEnd, func(payload any) {
		if p, ok := payload.(events.AdditionEndPayload); ok && p.Rejected > 0 {
			m.corruptions.Inc()
			m.rejected.Add(float64(p.Rejected))
		}
		if !m.roundStart.IsZero() {
			m.roundDuration.Observe(time.Since(m.roundStart).Seconds())
			m.roundStart = time.Time{}
		}
	})
}

// Registry exposes the collectors, e.g. to serve them over HTTP.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
