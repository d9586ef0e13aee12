package mirror

import (
	"context"

	"github.com/prash-mi/hbase-mirror/types"
)

// Backend is the synchronous handle to a single wide-column store — either
// the primary or the secondary. The mirroring client never assumes
// anything about how a Backend talks to its underlying store; that
// protocol is an external collaborator's concern.
//
// Implementations MUST be safe for concurrent use: the Table calls the
// primary handle synchronously from the caller's goroutine, and calls the
// secondary handle from background goroutines, potentially concurrently
// with each other.
type Backend interface {
	Exists(ctx context.Context, get types.Get) (bool, error)
	ExistsAll(ctx context.Context, gets []types.Get) ([]bool, error)
	Get(ctx context.Context, get types.Get) (types.Row, error)
	GetList(ctx context.Context, gets []types.Get) ([]types.Result, error)

	GetScanner(ctx context.Context, scan types.ScanRange) (Scanner, error)

	Put(ctx context.Context, put types.Put) error
	PutList(ctx context.Context, puts []types.Put) []error
	Delete(ctx context.Context, del types.Delete) error
	DeleteList(ctx context.Context, dels []types.Delete) []error
	MutateRow(ctx context.Context, rm types.RowMutations) error

	Append(ctx context.Context, a types.Append) (types.Row, error)
	Increment(ctx context.Context, inc types.Increment) (types.Row, error)

	CheckAndMutate(ctx context.Context, cam types.CheckAndMutate) (bool, error)

	// Batch executes a heterogeneous set of operations. The returned slice
	// has exactly len(ops) entries, each either a successful Result or one
	// with a non-nil Err — the backend never returns a bare error for the
	// batch as a whole; partial success is represented per-slot.
	Batch(ctx context.Context, ops []types.Operation) []types.Result

	// Close releases any resources held by this handle. Safe to call
	// multiple times.
	Close() error
}

// Scanner streams rows from a Backend's GetScanner. It is not safe for
// concurrent use by multiple goroutines.
type Scanner interface {
	// Next advances to and returns the next row. The second return value
	// is false once the scan is exhausted (err is nil in that case).
	Next(ctx context.Context) (types.Row, bool, error)

	// Close releases the scanner's resources. Safe to call multiple times.
	Close() error
}
