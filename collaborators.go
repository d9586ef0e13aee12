package mirror

import (
	"github.com/prash-mi/hbase-mirror/tracer"
	"github.com/prash-mi/hbase-mirror/types"
)

// FlowController is the admission-control collaborator consulted before
// any secondary work is scheduled.
//
// TryAdmit must never block: on grant it returns a release function that
// the caller invokes exactly once when the guarded work completes; on
// denial it returns a non-nil error (typically wrapping
// types.ErrAdmissionDenied) and a nil release function.
//
// Implementations MUST be safe for concurrent use.
type FlowController interface {
	TryAdmit(resources types.RequestResourcesDescription) (release func(), err error)
}

// ReadSampler decides, per read operation, whether the secondary backend
// should also be exercised for verification.
//
// Implementations MUST be safe for concurrent use.
type ReadSampler interface {
	ShouldSample(op types.Operation) bool
}

// Verifier compares a primary result against a secondary result for the
// same operation and reports any discrepancy as a side effect. It never
// returns an error to its caller — verification outcomes are reporting
// only and must never become caller-visible.
//
// Implementations MUST be safe for concurrent use.
type Verifier interface {
	Verify(op types.Operation, primary, secondary types.Result)
}

// WriteErrorSink receives the operations that were lost on the secondary
// backend — either because the Flow Controller denied admission or
// because the secondary itself failed.
//
// Consume is called with the *original* operations, never a rewritten
// Put. Implementations MUST be safe for concurrent use and MUST NOT block
// the caller for long, since Consume runs on the caller's goroutine when
// admission is denied and on a secondary dispatch goroutine when the
// secondary fails.
type WriteErrorSink interface {
	Consume(backend types.BackendID, kind types.OpKind, ops []types.WriteOperationInfo, cause error)
	Close() error
}

// Span represents one traced operation's lifetime. Aliased from the
// tracer package so that implementations written against tracer.Tracer
// satisfy this collaborator interface directly.
type Span = tracer.Span

// Tracer begins a Span around a dispatched operation. Implementations
// MUST be safe for concurrent use. Aliased from the tracer package so
// that implementations written against tracer.Tracer satisfy this
// collaborator interface directly.
type Tracer = tracer.Tracer
