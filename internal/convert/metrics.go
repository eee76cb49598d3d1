package convert

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records conversion outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Conversions *prometheus.CounterVec
	Duration    prometheus.Histogram
	Frames      prometheus.Counter
	Bytes       prometheus.Counter
	Queued      prometheus.Gauge
}

// NewMetrics registers the conversion metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Conversions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nvc_conversions_total",
				Help: "Scene to cache conversions by outcome",
			},
			[]string{"status"},
		),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nvc_conversion_duration_seconds",
			Help:    "Time taken to convert one scene",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		Frames: f.NewCounter(prometheus.CounterOpts{
			Name: "nvc_frames_written_total",
			Help: "Cache frames written",
		}),
		Bytes: f.NewCounter(prometheus.CounterOpts{
			Name: "nvc_bytes_written_total",
			Help: "Cache bytes written",
		}),
		Queued: f.NewGauge(prometheus.GaugeOpts{
			Name: "nvc_watch_queue_length",
			Help: "Scenes waiting for conversion",
		}),
	}
}

func (m *Metrics) observe(res Result, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.Conversions.WithLabelValues(status).Inc()
	m.Duration.Observe(res.Duration.Seconds())
	if err == nil {
		m.Frames.Add(float64(res.Frames))
		m.Bytes.Add(float64(res.Bytes))
	}
}

func (m *Metrics) queued(n int) {
	if m != nil {
		m.Queued.Set(float64(n))
	}
}
