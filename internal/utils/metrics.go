package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the system
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Snapshot is a point-in-time view of the collected metrics, served by the
// health endpoint.
type Snapshot struct {
	Uptime       time.Duration    `json:"uptime"`
	RequestCount uint64           `json:"requestCount"`
	ErrorCount   uint64           `json:"errorCount"`
	OperationAvg map[string]int64 `json:"operationAvgNs"`
}

func (mc *MetricsCollector) GetSnapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	avgs := make(map[string]int64, len(mc.operationTimes))
	for op, times := range mc.operationTimes {
		if len(times) == 0 {
			continue
		}
		var total int64
		for _, t := range times {
			total += t
		}
		avgs[op] = total / int64(len(times))
	}

	return Snapshot{
		Uptime:       time.Since(mc.systemStartTime),
		RequestCount: mc.requestCount,
		ErrorCount:   mc.errorCount,
		OperationAvg: avgs,
	}
}
