package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(reaperCyclesTotal, reaperConsecutiveFailures, reaperHealthy, memoryPressureEvictions) }

var reaperCyclesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reaper_cycles_total",
		Help: "Reaper sweep cycles, by result.",
	},
	[]string{"result"}, // 'ok', 'skipped', 'failed'
)

var reaperConsecutiveFailures = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "reaper_consecutive_failures",
		Help: "Consecutive failed reaper cycles; resets to zero on success.",
	},
)

var reaperHealthy = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "reaper_healthy",
		Help: "1 while the reaper loop is running, 0 once it has given up.",
	},
)

var memoryPressureEvictions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "memory_pressure_evictions_total",
		Help: "Sessions evicted because the process crossed the memory high-water mark.",
	},
)

func IncReaperCycle(result string)     { reaperCyclesTotal.WithLabelValues(norm(result)).Inc() }
func SetReaperFailures(n int)          { reaperConsecutiveFailures.Set(float64(n)) }
func SetReaperHealthy(healthy bool)    { reaperHealthy.Set(boolToFloat(healthy)) }
func AddMemoryPressureEvictions(n int) { memoryPressureEvictions.Add(float64(n)) }

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
