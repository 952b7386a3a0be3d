package liteclient

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Attempt outcomes used as the "result" label.
const (
	resultEstablished    = "established"
	resultDialError      = "dial_error"
	resultHandshakeError = "handshake_error"
	resultCancelled      = "cancelled"
)

// Metrics holds the Prometheus collectors of a ConnectionManager.
type Metrics struct {
	Attempts         *prometheus.CounterVec // connection attempts by result
	Rotations        prometheus.Counter     // cursor advances
	Exhausted        prometheus.Counter     // Connect calls that ran out of attempts
	HandshakeLatency prometheus.Histogram   // dial through confirmation, successful attempts only
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "liteclient_connection_attempts_total",
				Help: "Total number of liteserver connection attempts",
			},
			[]string{"result"},
		),
		Rotations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "liteclient_rotations_total",
				Help: "Total number of rotations to the next liteserver",
			},
		),
		Exhausted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "liteclient_exhausted_total",
				Help: "Total number of connects that exhausted their attempt budget",
			},
		),
		HandshakeLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "liteclient_handshake_latency_seconds",
				Help:    "Latency of successful ADNL connection establishment",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	if reg == nil {
		return m
	}
	m.Attempts = register(reg, m.Attempts)
	m.Rotations = register(reg, m.Rotations)
	m.Exhausted = register(reg, m.Exhausted)
	m.HandshakeLatency = register(reg, m.HandshakeLatency)
	return m
}

// register adds c to reg, reusing an identical collector registered by
// another manager sharing the registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	err := reg.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "newMetrics",
		"error":    err.Error(),
	}).Warn("Metrics collector not registered")
	return c
}
