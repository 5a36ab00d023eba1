package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(sessionsLive, sessionsCreatedTotal, sessionsRemovedTotal, sessionLockTimeouts)
}

var sessionsLive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "sessions_live",
		Help: "Number of session records currently held in the table.",
	},
)

var sessionsCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "sessions_created_total",
		Help: "Total sessions created.",
	},
)

var sessionsRemovedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sessions_removed_total",
		Help: "Sessions removed, by reason.",
	},
	[]string{"reason"}, // 'deleted', 'expired', 'evicted_capacity', 'evicted_memory', 'shutdown'
)

var sessionLockTimeouts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "session_lock_timeouts_total",
		Help: "Failed acquisitions of the session table lock.",
	},
)

func SetSessionsLive(n int) { sessionsLive.Set(float64(n)) }

func IncSessionCreated() { sessionsCreatedTotal.Inc() }

func IncSessionsRemoved(reason string, n int) {
	if n <= 0 {
		return
	}
	sessionsRemovedTotal.WithLabelValues(norm(reason)).Add(float64(n))
}

func IncLockTimeout() { sessionLockTimeouts.Inc() }
