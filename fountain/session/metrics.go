package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the counters a [Sender] and [Receiver] update.
// A nil *Metrics disables collection.
type Metrics struct {
	DropletsSent      prometheus.Counter
	StatusTimeouts    prometheus.Counter
	SendsAbandoned    prometheus.Counter
	DropletsReceived  prometheus.Counter
	DropletsMalformed prometheus.Counter
	StreamsCompleted  prometheus.Counter

	// Droplets a receiver caught per completed stream.
	DropletsPerStream prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg, if non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DropletsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "droplets_sent_total",
			Help:      "Droplets sent by all senders.",
		}),
		StatusTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "status_timeouts_total",
			Help:      "Droplets after which no status reply arrived in time.",
		}),
		SendsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "sends_abandoned_total",
			Help:      "Messages a sender gave up on after exhausting its droplet budget.",
		}),
		DropletsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "droplets_received_total",
			Help:      "Well-formed droplets handled by receivers.",
		}),
		DropletsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "droplets_malformed_total",
			Help:      "Datagrams and droplets rejected as malformed.",
		}),
		StreamsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fountain",
			Name:      "streams_completed_total",
			Help:      "Messages fully reconstructed by receivers.",
		}),
		DropletsPerStream: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fountain",
			Name:      "droplets_per_stream",
			Help:      "Droplets received before a stream completed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.DropletsSent,
			m.StatusTimeouts,
			m.SendsAbandoned,
			m.DropletsReceived,
			m.DropletsMalformed,
			m.StreamsCompleted,
			m.DropletsPerStream,
		)
	}
	return m
}

func (m *Metrics) sent() {
	if m != nil {
		m.DropletsSent.Inc()
	}
}

func (m *Metrics) timeout() {
	if m != nil {
		m.StatusTimeouts.Inc()
	}
}

func (m *Metrics) abandoned() {
	if m != nil {
		m.SendsAbandoned.Inc()
	}
}

func (m *Metrics) received() {
	if m != nil {
		m.DropletsReceived.Inc()
	}
}

func (m *Metrics) malformed() {
	if m != nil {
		m.DropletsMalformed.Inc()
	}
}

func (m *Metrics) completed(droplets int) {
	if m != nil {
		m.StreamsCompleted.Inc()
		m.DropletsPerStream.Observe(float64(droplets))
	}
}
