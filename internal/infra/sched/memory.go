package sched

import (
	"runtime"
	"runtime/debug"
)

// heapAllocMB samples the live heap size in MiB.
func heapAllocMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1 << 20)
}

// reclaimMemory forces a collection and returns freed pages to the OS.
// Called only after a pressure eviction; the extra pause is acceptable there.
func reclaimMemory() {
	debug.FreeOSMemory()
}
