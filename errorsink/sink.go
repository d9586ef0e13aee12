// Package errorsink implements the Write-Error Sink: the collaborator that
// receives the original, never-rewritten operations a secondary write (or
// an admission denial) lost, so they can be inspected or drained later.
//
// This is strictly a reporting mechanism. Per this client's non-goal of
// compensating writes, nothing in this package retries or replays a lost
// write against either backend — it only retains the fact that it was
// lost.
package errorsink

import (
	"time"

	"github.com/prash-mi/hbase-mirror/types"
)

// Report describes a single operation that failed, or was denied, on the
// secondary backend.
type Report struct {
	ID        CorrelationID
	Backend   types.BackendID
	Kind      types.OpKind
	RowKey    []byte
	Cause     string
	Timestamp int64
}

// Sink is the Write-Error Sink external contract.
//
// Consume is called exactly once per lost operation, with the *original*
// operation (never the Put rewritten from an Append/Increment). It must be
// safe for concurrent use and must not block the caller for long, since it
// is invoked from the mirroring dispatcher's verification path.
type Sink interface {
	// Consume reports one or more operations of the given kind that were
	// lost on the named backend, along with the cause.
	Consume(backend types.BackendID, kind types.OpKind, ops []types.WriteOperationInfo, cause error)

	// Close releases any resources held by the sink. It is safe to call
	// multiple times.
	Close() error
}

var (
	_ Sink = (*MemorySink)(nil)
	_ Sink = (*NATSSink)(nil)
)

func newReport(backend types.BackendID, kind types.OpKind, op types.WriteOperationInfo, cause error) Report {
	return Report{
		ID:        NewCorrelationID(),
		Backend:   backend,
		Kind:      kind,
		RowKey:    op.Op.RowKey(),
		Cause:     cause.Error(),
		Timestamp: time.Now().UnixNano(),
	}
}
