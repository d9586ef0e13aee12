// Package verification produces the comparison callbacks that diff primary
// and secondary results once a mirrored operation's secondary half
// completes.
//
// Verification is always a side effect: it never changes what the caller
// sees (the primary result was already returned), it only reports
// agreement or divergence through a MismatchDetector.
package verification

import (
	"bytes"
	"sort"

	"github.com/prash-mi/hbase-mirror/internal/logging"
	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/types"
)

// MismatchDetector compares a primary and secondary result for the same
// operation and reports whether they agree.
//
// Implementations must not panic and must not block the caller for longer
// than a comparison takes; they run on the mirroring client's background
// worker pool, never on the caller's thread.
type MismatchDetector interface {
	// Verify compares primary and secondary and reports any mismatch. It
	// returns a *types.MismatchError describing the discrepancy, or nil if
	// the two agree. A failed secondary is itself a discrepancy.
	Verify(op types.Operation, primary, secondary types.Result) *types.MismatchError
}

// Factory produces verification continuations: closures that, once a
// secondary result becomes available, compare it against the already-known
// primary result and report through the configured MismatchDetector,
// Logger, and MetricsCollector.
//
// This is the mirroring client's Verification Continuation Factory.
type Factory struct {
	detector MismatchDetector
	logger   types.Logger
	metrics  types.MetricsCollector
}

// Option configures a Factory.
type Option func(*Factory)

// WithDetector overrides the default cell-by-cell MismatchDetector.
func WithDetector(d MismatchDetector) Option {
	return func(f *Factory) { f.detector = d }
}

// WithLogger sets the logger used to record mismatches.
func WithLogger(l types.Logger) Option {
	return func(f *Factory) { f.logger = l }
}

// WithMetrics sets the metrics collector used to count verified/mismatched
// operations.
func WithMetrics(m types.MetricsCollector) Option {
	return func(f *Factory) { f.metrics = m }
}

// NewFactory creates a verification Factory. By default it uses
// CellMismatchDetector, a no-op logger, and a no-op metrics collector.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	if f.detector == nil {
		f.detector = NewCellMismatchDetector()
	}
	if f.logger == nil {
		f.logger = logging.NewNopLogger()
	}
	if f.metrics == nil {
		f.metrics = metrics.NewNopMetrics()
	}
	return f
}

// Verify runs the verification continuation for a single operation. It is
// safe to call from any goroutine; it never returns an error to the caller,
// since verification outcomes are reporting-only.
func (f *Factory) Verify(op types.Operation, primary, secondary types.Result) {
	mismatch := f.detector.Verify(op, primary, secondary)

	if mismatch == nil {
		f.metrics.IncVerified(op.Kind)
		return
	}

	f.metrics.IncMismatch(op.Kind)
	f.logger.Warn("mirroring: primary/secondary mismatch",
		"op", op.Kind.String(),
		"row", string(mismatch.Row),
		"reason", mismatch.Reason,
	)
}

// CellMismatchDetector is the default MismatchDetector. It treats a
// secondary failure as the discrepancy and otherwise compares the Row's
// cell set by family, qualifier, timestamp, and value, ignoring cell order.
type CellMismatchDetector struct{}

// NewCellMismatchDetector creates the default cell-set comparison detector.
func NewCellMismatchDetector() CellMismatchDetector { return CellMismatchDetector{} }

// Verify implements MismatchDetector.
func (CellMismatchDetector) Verify(op types.Operation, primary, secondary types.Result) *types.MismatchError {
	if secondary.Failed() {
		return &types.MismatchError{
			Operation: op.Kind,
			Row:       primary.Row.Key,
			Reason:    "secondary failed: " + secondary.Err.Error(),
		}
	}

	if op.Kind == types.OpExists {
		if primary.Bool != secondary.Bool {
			return &types.MismatchError{
				Operation: op.Kind,
				Row:       op.RowKey(),
				Reason:    "existence mismatch",
			}
		}
		return nil
	}

	if !cellSetsEqual(primary.Row.Cells, secondary.Row.Cells) {
		return &types.MismatchError{
			Operation: op.Kind,
			Row:       primary.Row.Key,
			Reason:    "cell set mismatch",
		}
	}

	return nil
}

func cellSetsEqual(a, b []types.Cell) bool {
	if len(a) != len(b) {
		return false
	}

	sorted := func(cells []types.Cell) []types.Cell {
		out := make([]types.Cell, len(cells))
		copy(out, cells)
		sort.Slice(out, func(i, j int) bool {
			if out[i].Family != out[j].Family {
				return out[i].Family < out[j].Family
			}
			if c := bytes.Compare(out[i].Qualifier, out[j].Qualifier); c != 0 {
				return c < 0
			}
			return out[i].Timestamp < out[j].Timestamp
		})
		return out
	}

	sa, sb := sorted(a), sorted(b)
	for i := range sa {
		if sa[i].Family != sb[i].Family ||
			!bytes.Equal(sa[i].Qualifier, sb[i].Qualifier) ||
			sa[i].Timestamp != sb[i].Timestamp ||
			!bytes.Equal(sa[i].Value, sb[i].Value) {
			return false
		}
	}

	return true
}
