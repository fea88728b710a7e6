package cursor

import (
	"time"
)

// blockRecord holds timing data for one cursor advance.
type blockRecord struct {
	FromBlock   uint64
	ToBlock     uint64
	ProcessedAt time.Time
}

// Metrics holds cursor performance data.
type Metrics struct {
	BlocksPerSecond float64       `json:"blocks_per_second"`
	AverageCycle    time.Duration `json:"average_cycle_ns"`
	LastBackoffAt   *time.Time    `json:"last_backoff_at,omitempty"`
	BackoffCount    int           `json:"backoff_count"`
	StateHistory    []Transition  `json:"recent_transitions"`
}

// MetricsCollector tracks cursor performance over time.
type MetricsCollector struct {
	windowSize    int           // number of advances to track
	blockTimes    []blockRecord // ring buffer of advances
	transitions   []Transition  // recent state changes
	lastBackoffAt *time.Time
	backoffCount  int
}

// RecordAdvance records one range handed downstream.
func (mc *MetricsCollector) RecordAdvance(from, to uint64, processedAt time.Time) {
	record := blockRecord{
		FromBlock:   from,
		ToBlock:     to,
		ProcessedAt: processedAt,
	}

	if len(mc.blockTimes) >= mc.windowSize {
		// Shift elements left, drop oldest
		copy(mc.blockTimes, mc.blockTimes[1:])
		mc.blockTimes[len(mc.blockTimes)-1] = record
	} else {
		mc.blockTimes = append(mc.blockTimes, record)
	}
}

// RecordTransition records a state transition.
func (mc *MetricsCollector) RecordTransition(t Transition) {
	// Keep only last 10 transitions
	if len(mc.transitions) >= 10 {
		copy(mc.transitions, mc.transitions[1:])
		mc.transitions[len(mc.transitions)-1] = t
	} else {
		mc.transitions = append(mc.transitions, t)
	}

	if t.To == StateBackoff {
		now := t.Timestamp
		mc.lastBackoffAt = &now
		mc.backoffCount++
	}
}

// GetMetrics returns current metrics.
func (mc *MetricsCollector) GetMetrics() Metrics {
	m := Metrics{
		LastBackoffAt: mc.lastBackoffAt,
		BackoffCount:  mc.backoffCount,
		StateHistory:  make([]Transition, len(mc.transitions)),
	}
	copy(m.StateHistory, mc.transitions)

	if len(mc.blockTimes) >= 2 {
		first := mc.blockTimes[0]
		last := mc.blockTimes[len(mc.blockTimes)-1]
		duration := last.ProcessedAt.Sub(first.ProcessedAt)

		if duration > 0 {
			blocks := float64(last.ToBlock - first.ToBlock)
			m.BlocksPerSecond = blocks / duration.Seconds()
			m.AverageCycle = time.Duration(float64(duration) / float64(len(mc.blockTimes)-1))
		}
	}

	return m
}
