// Package metrics holds the Prometheus collectors of termos.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcomes of a dispatched line.
const (
	Ok       = "ok"
	Fail     = "fail"
	Panic    = "panic"
	Unknown  = "unknown"
	Fallback = "fallback"
	Captured = "captured"
)

var (
	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "termos_commands_total",
		Help: "Cumulative number of dispatched lines, by command and outcome.",
	}, []string{"command", "outcome"})
	CommandDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "termos_command_duration_seconds",
		Help:    "Duration of app runs.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	}, []string{"command"})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "termos_sessions_active",
		Help: "Number of running shell sessions.",
	})
	SessionsDetached = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "termos_sessions_detached",
		Help: "Number of browser sessions waiting to be resumed.",
	})
	BootsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "termos_boots_total",
		Help: "Cumulative number of completed boot sequences, by mode and whether they were skipped.",
	}, []string{"mode", "skipped"})
	BridgeCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "termos_bridge_commands_total",
		Help: "Cumulative number of lines run by the local shell bridge, by outcome.",
	}, []string{"outcome"})
)

// Collectors returns every termos collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CommandsTotal,
		CommandDurationSeconds,
		SessionsActive,
		SessionsDetached,
		BootsTotal,
		BridgeCommandsTotal,
	}
}
