package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vostok",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vostok",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vostok",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Commands handled by the dispatcher.",
		},
		[]string{"kind", "outcome"},
	)
	roundTrip = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vostok",
			Subsystem: "client",
			Name:      "roundtrip_seconds",
			Help:      "Time from transmitting a command to receiving its framed reply.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	connects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vostok",
			Subsystem: "connection",
			Name:      "connects_total",
			Help:      "Connect attempts by outcome.",
		},
		[]string{"outcome"},
	)
	protocolErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vostok",
			Subsystem: "connection",
			Name:      "protocol_errors_total",
			Help:      "Protocol failures by reason.",
		},
		[]string{"reason"},
	)
	unsolicited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vostok",
			Subsystem: "connection",
			Name:      "unsolicited_replies_total",
			Help:      "Replies framed while no command was in flight.",
		},
	)
	connected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vostok",
			Subsystem: "connection",
			Name:      "connected",
			Help:      "1 while a server session is open.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, commands, roundTrip, connects, protocolErrors, unsolicited, connected)
	})
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}

// RecordCommand counts one dispatched command. outcome is a short label such
// as "ok", "rejected" or "failed".
func RecordCommand(kind, outcome string) {
	RegisterMetrics()
	commands.WithLabelValues(kind, outcome).Inc()
}

func RecordRoundTrip(kind string, duration time.Duration) {
	RegisterMetrics()
	roundTrip.WithLabelValues(kind).Observe(duration.Seconds())
}

func RecordConnect(outcome string) {
	RegisterMetrics()
	connects.WithLabelValues(outcome).Inc()
}

func RecordProtocolError(reason string) {
	RegisterMetrics()
	protocolErrors.WithLabelValues(reason).Inc()
}

func RecordUnsolicitedReply() {
	RegisterMetrics()
	unsolicited.Inc()
}

func SetConnected(on bool) {
	RegisterMetrics()
	if on {
		connected.Set(1)
		return
	}
	connected.Set(0)
}
