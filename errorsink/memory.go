package errorsink

import (
	"sync"
	"sync/atomic"

	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/types"
)

// MemorySink is a bounded, priority-aware in-memory Sink.
//
// Reports from a genuine secondary failure are treated as high priority;
// reports from an admission denial (the secondary was never attempted) are
// treated as low priority. High-priority reports are preferred during
// drain, with ratio-based fair scheduling so low-priority reports are not
// starved.
//
// Reports are held only for inspection or draining; MemorySink never
// replays or retries a write. Reports held here are LOST on process
// restart; after Close, reports already queued can still be drained.
type MemorySink struct {
	highQueue chan Report
	lowQueue  chan Report
	closed    atomic.Bool

	mu                sync.Mutex
	highProcessed     int
	highPriorityRatio int

	metrics types.MetricsCollector
}

type memorySinkConfig struct {
	capacity          int
	highPriorityRatio int
	metrics           types.MetricsCollector
}

// MemorySinkOption configures a MemorySink.
type MemorySinkOption func(*memorySinkConfig)

// WithMemorySinkCapacity sets the total capacity, split evenly between the
// two priority queues (each holds capacity/2 reports).
//
// Default: 10000
func WithMemorySinkCapacity(n int) MemorySinkOption {
	return func(c *memorySinkConfig) { c.capacity = n }
}

// WithMemorySinkHighPriorityRatio sets how many high-priority reports are
// drained for every one low-priority report.
//
// Default: 10
func WithMemorySinkHighPriorityRatio(n int) MemorySinkOption {
	return func(c *memorySinkConfig) { c.highPriorityRatio = n }
}

// WithMemorySinkMetrics sets the metrics collector used to report sink
// depth and drop counts.
func WithMemorySinkMetrics(mc types.MetricsCollector) MemorySinkOption {
	return func(c *memorySinkConfig) { c.metrics = mc }
}

// NewMemorySink creates a new in-memory Write-Error Sink.
func NewMemorySink(opts ...MemorySinkOption) *MemorySink {
	cfg := memorySinkConfig{capacity: 10000, highPriorityRatio: 10}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 2 {
		cfg.capacity = 2
	}
	if cfg.metrics == nil {
		cfg.metrics = metrics.NewNopMetrics()
	}

	half := cfg.capacity / 2

	return &MemorySink{
		highQueue:         make(chan Report, half),
		lowQueue:          make(chan Report, half),
		highPriorityRatio: cfg.highPriorityRatio,
		metrics:           cfg.metrics,
	}
}

// Consume reports operations lost on backend. Reports are classified as
// high priority when cause is a genuine secondary failure, and low
// priority when cause is an admission denial. If the corresponding queue
// is full, the report is dropped and counted, never blocking the caller.
func (m *MemorySink) Consume(backend types.BackendID, kind types.OpKind, ops []types.WriteOperationInfo, cause error) {
	if m.closed.Load() {
		return
	}

	var admissionErr *types.AdmissionError
	highPriority := !asAdmissionError(cause, &admissionErr)

	for _, op := range ops {
		report := newReport(backend, kind, op, cause)

		queue := m.lowQueue
		if highPriority {
			queue = m.highQueue
		}

		select {
		case queue <- report:
			m.metrics.IncSinkReported(kind)
		default:
			m.metrics.IncSinkDropped(kind)
		}
	}

	m.metrics.SetSinkDepth(m.Len())
}

func asAdmissionError(err error, target **types.AdmissionError) bool {
	if err == nil {
		return false
	}
	ae, ok := err.(*types.AdmissionError)
	if ok {
		*target = ae
	}
	return ok
}

// TryDrain retrieves the next pending report without blocking, using
// ratio-based fair scheduling between priorities.
func (m *MemorySink) TryDrain() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ratio := m.highPriorityRatio
	if ratio <= 0 {
		ratio = 1
	}

	if m.highProcessed >= ratio {
		select {
		case r := <-m.lowQueue:
			m.highProcessed = 0
			return r, true
		default:
		}
	}

	select {
	case r := <-m.highQueue:
		m.highProcessed++
		return r, true
	default:
		select {
		case r := <-m.lowQueue:
			m.highProcessed = 0
			return r, true
		default:
			return Report{}, false
		}
	}
}

// DrainAll returns and removes every pending report, high priority first.
func (m *MemorySink) DrainAll() []Report {
	var reports []Report

	for {
		select {
		case r := <-m.highQueue:
			reports = append(reports, r)
		default:
			goto drainLow
		}
	}

drainLow:
	for {
		select {
		case r := <-m.lowQueue:
			reports = append(reports, r)
		default:
			return reports
		}
	}
}

// Len reports the total number of pending reports across both priorities.
func (m *MemorySink) Len() int {
	return len(m.highQueue) + len(m.lowQueue)
}

// Close marks the sink as closed. Already-queued reports remain available
// via TryDrain/DrainAll; Consume becomes a no-op. Safe to call multiple
// times.
func (m *MemorySink) Close() error {
	m.closed.Store(true)
	return nil
}
