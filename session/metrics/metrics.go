// Package metrics holds the Prometheus instrumentation for a running
// session. It is imported only by package session, never by the core
// emission packages (wire, sender, queue, emit), which stay free of any
// observability dependency.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every counter a session updates while driving flushes.
type Metrics struct {
	FramesEmitted   *prometheus.CounterVec
	BytesEmitted    *prometheus.CounterVec
	RateLimited     prometheus.Counter
	FragmentsResent prometheus.Counter
}

// New registers and returns a fresh Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daten_frames_emitted_total",
			Help: "Frames emitted, by kind (data, ack, sync).",
		}, []string{"kind"}),
		BytesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "daten_bytes_emitted_total",
			Help: "Bytes emitted, by kind (data, ack, sync).",
		}, []string{"kind"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daten_rate_limited_total",
			Help: "Flushes that terminated with the byte budget exhausted.",
		}),
		FragmentsResent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "daten_fragments_resent_total",
			Help: "Fragments repacked and rescheduled by the resend drain.",
		}),
	}
	reg.MustRegister(m.FramesEmitted, m.BytesEmitted, m.RateLimited, m.FragmentsResent)
	return m
}
