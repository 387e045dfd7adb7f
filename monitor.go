package authzkit

import (
	"sync"
	"time"
)

// ApplyMetrics provides assignment-batch performance and failure statistics.
type ApplyMetrics struct {
	TotalBatches     int64         `json:"total_batches"`
	CleanBatches     int64         `json:"clean_batches"`
	PartialBatches   int64         `json:"partial_batches"`
	AppliedChanges   int64         `json:"applied_changes"`
	RejectedChanges  int64         `json:"rejected_changes"`
	AverageDuration  time.Duration `json:"average_duration"`
	MaxDuration      time.Duration `json:"max_duration"`
	MinDuration      time.Duration `json:"min_duration"`
	LastReset        time.Time     `json:"last_reset"`
}

// applyMonitor holds the internal batch monitoring state.
type applyMonitor struct {
	mu            sync.Mutex
	totalBatches  int64
	cleanBatches  int64
	applied       int64
	rejected      int64
	totalDuration time.Duration
	maxDuration   time.Duration
	minDuration   time.Duration
	lastReset     time.Time
}

func newApplyMonitor() *applyMonitor {
	return &applyMonitor{
		minDuration: time.Hour, // Initialize to a large value
		lastReset:   time.Now(),
	}
}

// recordBatch records a completed apply batch with its duration and outcome.
func (m *applyMonitor) recordBatch(duration time.Duration, applied, rejected int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalBatches++
	if rejected == 0 {
		m.cleanBatches++
	}
	m.applied += int64(applied)
	m.rejected += int64(rejected)
	m.totalDuration += duration
	if duration > m.maxDuration {
		m.maxDuration = duration
	}
	if duration < m.minDuration {
		m.minDuration = duration
	}
}

// getMetrics returns the current batch metrics.
func (m *applyMonitor) getMetrics() ApplyMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.totalBatches > 0 {
		avg = m.totalDuration / time.Duration(m.totalBatches)
	}

	return ApplyMetrics{
		TotalBatches:    m.totalBatches,
		CleanBatches:    m.cleanBatches,
		PartialBatches:  m.totalBatches - m.cleanBatches,
		AppliedChanges:  m.applied,
		RejectedChanges: m.rejected,
		AverageDuration: avg,
		MaxDuration:     m.maxDuration,
		MinDuration:     m.minDuration,
		LastReset:       m.lastReset,
	}
}

// reset resets all metrics.
func (m *applyMonitor) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalBatches = 0
	m.cleanBatches = 0
	m.applied = 0
	m.rejected = 0
	m.totalDuration = 0
	m.maxDuration = 0
	m.minDuration = time.Hour
	m.lastReset = time.Now()
}
