// cmd/facttrace/health.go
package main

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Health thresholds
const (
	highMemoryUsageMB     = 1000
	highErrorRatio        = 0.5
	minRequestsForRatio   = 20
	unhealthyStreakAlert  = 5
	maxHealthEventHistory = 100
)

// HealthEvent records a problem noticed during a periodic check
type HealthEvent struct {
	Time     time.Time `json:"time"`
	Message  string    `json:"message"`
	Severity string    `json:"severity"`
}

// Metrics is a snapshot of process and traffic counters
type Metrics struct {
	MemoryUsageMB float64 `json:"memoryUsageMB"`
	Goroutines    int     `json:"goroutines"`
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	Analyses      int64   `json:"analyses"`
}

// HealthMonitor counts traffic and runs periodic checks
type HealthMonitor struct {
	startTime   time.Time
	datasetSize int
	enforcing   bool

	requests int64
	errors   int64
	analyses int64

	mutex           sync.Mutex
	lastCheck       time.Time
	lastRequests    int64
	lastErrors      int64
	healthyStreak   int
	unhealthyStreak int
	events          []HealthEvent
}

// NewHealthMonitor creates a monitor for an index of the given size
func NewHealthMonitor(idx *ReliabilityIndex) *HealthMonitor {
	return &HealthMonitor{
		startTime:   time.Now(),
		datasetSize: idx.Size(),
		enforcing:   idx.Size() > 0,
		events:      make([]HealthEvent, 0),
	}
}

// RecordRequest counts a handled request; statuses of 500 and above count as errors
func (hm *HealthMonitor) RecordRequest(status int) {
	atomic.AddInt64(&hm.requests, 1)
	if status >= 500 {
		atomic.AddInt64(&hm.errors, 1)
	}
}

// RecordAnalysis counts a completed claim analysis
func (hm *HealthMonitor) RecordAnalysis() {
	atomic.AddInt64(&hm.analyses, 1)
}

func (hm *HealthMonitor) collectMetrics() Metrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Metrics{
		MemoryUsageMB: float64(m.Alloc) / 1024 / 1024,
		Goroutines:    runtime.NumGoroutine(),
		Requests:      atomic.LoadInt64(&hm.requests),
		Errors:        atomic.LoadInt64(&hm.errors),
		Analyses:      atomic.LoadInt64(&hm.analyses),
	}
}

// PerformChecks looks at memory and the error ratio since the previous check
func (hm *HealthMonitor) PerformChecks() {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.lastCheck = time.Now()
	metrics := hm.collectMetrics()
	problems := 0

	if metrics.MemoryUsageMB > highMemoryUsageMB {
		hm.logEvent(fmt.Sprintf("High memory usage: %.0f MB", metrics.MemoryUsageMB), "warning")
		problems++
	}

	requests := metrics.Requests - hm.lastRequests
	errs := metrics.Errors - hm.lastErrors
	hm.lastRequests = metrics.Requests
	hm.lastErrors = metrics.Errors

	if requests >= minRequestsForRatio && float64(errs)/float64(requests) > highErrorRatio {
		hm.logEvent(fmt.Sprintf("High error rate: %d of %d requests failed", errs, requests), "warning")
		problems++
	}

	if problems == 0 {
		hm.healthyStreak++
		hm.unhealthyStreak = 0
	} else {
		hm.healthyStreak = 0
		hm.unhealthyStreak++
	}

	if hm.unhealthyStreak >= unhealthyStreakAlert {
		Logger().Error("Service has been unhealthy for %d consecutive checks", hm.unhealthyStreak)
	}

	Logger().Info("Health check: uptime %s, %d requests (%d errors), %d analyses, %.1f MB, %d goroutines",
		FormatDuration(time.Since(hm.startTime)), metrics.Requests, metrics.Errors,
		metrics.Analyses, metrics.MemoryUsageMB, metrics.Goroutines)
}

// logEvent adds an event to the bounded history
func (hm *HealthMonitor) logEvent(message, severity string) {
	hm.events = append(hm.events, HealthEvent{
		Time:     time.Now(),
		Message:  message,
		Severity: severity,
	})
	if len(hm.events) > maxHealthEventHistory {
		hm.events = hm.events[len(hm.events)-maxHealthEventHistory:]
	}
	Logger().Warning("[HEALTH] %s", message)
}

// Status is the payload of the status endpoint
func (hm *HealthMonitor) Status(version string) map[string]interface{} {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	status := "healthy"
	if hm.unhealthyStreak > 0 {
		status = "degraded"
	}

	var lastCheck interface{}
	if !hm.lastCheck.IsZero() {
		lastCheck = hm.lastCheck
	}

	recent := make([]HealthEvent, len(hm.events))
	copy(recent, hm.events)

	return map[string]interface{}{
		"status":      status,
		"version":     version,
		"uptime":      FormatDuration(time.Since(hm.startTime)),
		"startedAt":   hm.startTime,
		"datasetSize": hm.datasetSize,
		"enforcing":   hm.enforcing,
		"lastCheck":   lastCheck,
		"metrics":     hm.collectMetrics(),
		"events":      recent,
	}
}
