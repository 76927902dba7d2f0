package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics exposes counters/histograms for broadcast batches.
type DispatchMetrics struct {
	sendsTotal     *prometheus.CounterVec
	invalidNumbers prometheus.Counter
	batchesTotal   *prometheus.CounterVec
	batchDuration  prometheus.Histogram
	sendLatency    *prometheus.HistogramVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		sendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "broadcaster",
			Subsystem: "dispatch",
			Name:      "sends_total",
			Help:      "Total SMS send attempts by provider status class",
		}, []string{"status_class"}),
		invalidNumbers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "broadcaster",
			Subsystem: "dispatch",
			Name:      "invalid_numbers_total",
			Help:      "Candidate phone numbers dropped because they could not be parsed",
		}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "broadcaster",
			Subsystem: "dispatch",
			Name:      "batches_total",
			Help:      "Total broadcast batches by outcome",
		}, []string{"outcome"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "broadcaster",
			Subsystem: "dispatch",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a broadcast batch including pacing delays",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		sendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "broadcaster",
			Subsystem: "dispatch",
			Name:      "send_latency_seconds",
			Help:      "Latency of a single provider call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status_class"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sendsTotal, m.invalidNumbers, m.batchesTotal, m.batchDuration, m.sendLatency)
	return m
}

// StatusClass buckets a provider status code ("2xx", "4xx", ...). A zero
// status with an error is "error"; a zero status without one is "none".
func StatusClass(status int, failed bool) string {
	if failed {
		return "error"
	}
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}

func (m *DispatchMetrics) ObserveSend(status int, failed bool, seconds float64) {
	if m == nil {
		return
	}
	class := StatusClass(status, failed)
	m.sendsTotal.WithLabelValues(class).Inc()
	m.sendLatency.WithLabelValues(class).Observe(seconds)
}

func (m *DispatchMetrics) ObserveInvalidNumbers(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invalidNumbers.Add(float64(n))
}

func (m *DispatchMetrics) ObserveBatch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.batchesTotal.WithLabelValues(outcome).Inc()
	m.batchDuration.Observe(seconds)
}
