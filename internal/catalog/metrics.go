package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	labelResult = "result"
	labelKind   = "kind"

	kindSizeEntry = "size_entry"
	kindLine      = "line"
)

// Metrics is optional; every method is a no-op on a nil receiver.
type Metrics struct {
	Flushes     *prometheus.CounterVec
	Diagnostics *prometheus.CounterVec
	Records     prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_flushes_total",
				Help: "Full rewrites of the backing store",
			},
			[]string{labelResult},
		),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_parse_diagnostics_total",
				Help: "Malformed size entries and persisted lines that were skipped",
			},
			[]string{labelKind},
		),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_records",
			Help: "Records currently held by the catalog",
		}),
	}

	reg.MustRegister(m.Flushes, m.Diagnostics, m.Records)
	return m
}

func (m *Metrics) flushed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Flushes.WithLabelValues(result).Inc()
}

func (m *Metrics) diagnostic(kind string) {
	if m == nil {
		return
	}
	m.Diagnostics.WithLabelValues(kind).Inc()
}

func (m *Metrics) records(n int) {
	if m == nil {
		return
	}
	m.Records.Set(float64(n))
}
