package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes limiter and backoff events as Prometheus metrics.
// It implements pacer.Observer.
type Collector struct {
	acquires     *prometheus.CounterVec
	waits        *prometheus.CounterVec
	waitDuration *prometheus.HistogramVec
	queueLength  *prometheus.GaugeVec
	trimmed      *prometheus.CounterVec
	idleClears   *prometheus.CounterVec

	samples      prometheus.Counter
	backoffDelay prometheus.Histogram
}

// NewCollector creates a Collector registered with reg. A nil registerer
// falls back to the default Prometheus registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		acquires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_limiter_acquires_total",
				Help: "Total number of window acquisitions",
			},
			[]string{"namespace", "action"},
		),

		waits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_limiter_waits_total",
				Help: "Total number of acquisitions that waited for window room",
			},
			[]string{"namespace", "action"},
		),

		waitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pacer_limiter_wait_seconds",
				Help:    "Seconds spent waiting for window room",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
			[]string{"namespace", "action"},
		),

		queueLength: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pacer_limiter_queue_length",
				Help: "Window queue length after the most recent release",
			},
			[]string{"namespace", "action"},
		),

		trimmed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_limiter_trimmed_total",
				Help: "Total number of window entries trimmed on release",
			},
			[]string{"namespace", "action"},
		),

		idleClears: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_limiter_idle_clears_total",
				Help: "Total number of idle-window clears",
			},
			[]string{"namespace", "action"},
		),

		samples: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pacer_backoff_samples_total",
				Help: "Total number of backoff delays produced",
			},
		),

		backoffDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pacer_backoff_delay_seconds",
				Help:    "Backoff delays produced, in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 12),
			},
		),
	}
}

// OnAcquire implements pacer.Observer.
func (c *Collector) OnAcquire(namespace, action string, waited float64) {
	c.acquires.WithLabelValues(namespace, action).Inc()
	if waited > 0 {
		c.waits.WithLabelValues(namespace, action).Inc()
		c.waitDuration.WithLabelValues(namespace, action).Observe(waited)
	}
}

// OnRelease implements pacer.Observer.
func (c *Collector) OnRelease(namespace, action string, queueLen, trimmed int, cleared bool) {
	c.queueLength.WithLabelValues(namespace, action).Set(float64(queueLen))
	if trimmed > 0 {
		c.trimmed.WithLabelValues(namespace, action).Add(float64(trimmed))
	}
	if cleared {
		c.idleClears.WithLabelValues(namespace, action).Inc()
	}
}

// OnSample implements pacer.Observer.
func (c *Collector) OnSample(_ int, delay float64) {
	c.samples.Inc()
	c.backoffDelay.Observe(delay)
}
