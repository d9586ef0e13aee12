// Package tracer defines the opaque tracing hook invoked around every
// operation dispatched by the mirroring client.
//
// No tracing library is wired in here: nothing in the retrieved reference
// pack imports one, so this contract is intentionally minimal and
// standard-library-only, letting a caller adapt it to whatever tracer
// their application already uses.
package tracer

import (
	"context"

	"github.com/prash-mi/hbase-mirror/types"
)

// Span represents one traced operation's lifetime.
type Span interface {
	// End closes the span. err is the operation's outcome, nil on success.
	End(err error)
}

// Tracer begins a Span for a dispatched operation.
type Tracer interface {
	// Begin starts a span for op and returns it along with a context
	// carrying whatever tracing metadata the implementation needs to
	// propagate to the secondary's asynchronous execution.
	Begin(ctx context.Context, backend types.BackendID, op types.Operation) (Span, context.Context)
}

// NopTracer is the default Tracer; it never records anything.
type NopTracer struct{}

// NewNopTracer creates a Tracer that performs no tracing.
func NewNopTracer() NopTracer { return NopTracer{} }

// Begin returns a no-op Span and the context unchanged.
func (NopTracer) Begin(ctx context.Context, _ types.BackendID, _ types.Operation) (Span, context.Context) {
	return nopSpan{}, ctx
}

type nopSpan struct{}

func (nopSpan) End(error) {}
