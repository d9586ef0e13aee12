package mirror

import (
	"github.com/prash-mi/hbase-mirror/internal/logging"
	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/tracer"
	"github.com/prash-mi/hbase-mirror/types"
)

// TableConfig holds configuration for a mirroring Table.
type TableConfig struct {
	FlowController    FlowController
	ReadSampler       ReadSampler
	Verifier          Verifier
	WriteErrorSink    WriteErrorSink
	Tracer            Tracer
	Metrics           types.MetricsCollector
	Logger            types.Logger
	BackendNames      types.BackendNames
	ConcurrentBatches bool
}

// DefaultConfig returns a TableConfig with sensible defaults.
//
// Defaults:
//   - FlowController: nil (every read/write is admitted unconditionally;
//     pass flowcontrol.NewBoundedController() for production)
//   - ReadSampler: nil (secondary reads are never sampled; pass
//     sampler.NewRatioSampler(...) to exercise the secondary on reads)
//   - Verifier: nil (a default verification.Factory is used)
//   - WriteErrorSink: nil (lost secondary writes are silently discarded;
//     pass errorsink.NewMemorySink() or errorsink.NewNATSSink(...) for
//     production)
//   - ConcurrentBatches: false (batches always run sequential-primary,
//     then-secondary dispatch)
func DefaultConfig() *TableConfig {
	return &TableConfig{
		Tracer:       tracer.NewNopTracer(),
		Metrics:      metrics.NewNopMetrics(),
		Logger:       logging.NewNopLogger(),
		BackendNames: types.DefaultBackendNames(),
	}
}

// Option configures a TableConfig.
type Option func(*TableConfig)

// WithFlowController sets the admission-control collaborator consulted
// before any secondary work is scheduled.
func WithFlowController(fc FlowController) Option {
	return func(c *TableConfig) { c.FlowController = fc }
}

// WithReadSampler sets the collaborator that decides whether a given read
// also exercises the secondary backend for verification.
func WithReadSampler(s ReadSampler) Option {
	return func(c *TableConfig) { c.ReadSampler = s }
}

// WithVerifier sets the collaborator that compares primary and secondary
// results and reports discrepancies.
//
// If not set, a verification.Factory constructed with its own defaults is
// used.
func WithVerifier(v Verifier) Option {
	return func(c *TableConfig) { c.Verifier = v }
}

// WithWriteErrorSink sets the collaborator that receives operations lost
// on the secondary backend, whether denied admission or failed outright.
//
// If not set, lost secondary writes are silently discarded.
func WithWriteErrorSink(sink WriteErrorSink) Option {
	return func(c *TableConfig) { c.WriteErrorSink = sink }
}

// WithTracer sets the tracing hook invoked around every dispatched
// operation.
//
// If not set, a no-op tracer is used.
func WithTracer(t Tracer) Option {
	return func(c *TableConfig) { c.Tracer = t }
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics. Use
// contrib/metrics/vm.New() for VictoriaMetrics integration.
func WithMetrics(collector types.MetricsCollector) Option {
	return func(c *TableConfig) { c.Metrics = collector }
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages. Use
// internal/logging.NewZerologAdapter for production.
func WithLogger(logger types.Logger) Option {
	return func(c *TableConfig) { c.Logger = logger }
}

// WithBackendNames sets custom display names for the primary and
// secondary backends.
//
// The names are validated and passed to every configured collaborator that
// implements types.BackendNamer. None of the collaborators in this module
// implements it, so their metrics labels and log messages keep "primary"
// and "secondary". Names must be Prometheus-compatible
// (alphanumeric with underscores, starting with letter or underscore, max
// 32 chars) and different from each other.
func WithBackendNames(names types.BackendNames) Option {
	return func(c *TableConfig) { c.BackendNames = names }
}

// WithConcurrentBatches enables the concurrent batch-dispatch mode, in
// which the secondary batch is launched before the primary batch runs on
// the calling goroutine.
//
// Concurrent mode only applies to batches composed entirely of Put,
// Delete, or RowMutations operations; NewTable's Batch falls back to
// sequential mode for any batch containing a read or a read-modify-write
// operation, regardless of this setting.
func WithConcurrentBatches(enabled bool) Option {
	return func(c *TableConfig) { c.ConcurrentBatches = enabled }
}

// propagateBackendNames sets backend names on collaborators that
// implement types.BackendNamer.
func propagateBackendNames(c *TableConfig) {
	names := c.BackendNames

	if namer, ok := c.Metrics.(types.BackendNamer); ok {
		namer.SetBackendNames(names)
	}
	if namer, ok := c.FlowController.(types.BackendNamer); ok {
		namer.SetBackendNames(names)
	}
	if namer, ok := c.WriteErrorSink.(types.BackendNamer); ok {
		namer.SetBackendNames(names)
	}
	if namer, ok := c.ReadSampler.(types.BackendNamer); ok {
		namer.SetBackendNames(names)
	}
	if namer, ok := c.Verifier.(types.BackendNamer); ok {
		namer.SetBackendNames(names)
	}
}
