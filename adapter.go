package mirror

import (
	"context"
	"time"

	"github.com/prash-mi/hbase-mirror/types"
)

// secondaryAdapter wraps the secondary Backend and exposes, for any
// operation, a deferred execution that admission control gates and that
// runs on its own goroutine rather than the caller's.
//
// It never invokes the backend before admission is granted, and it holds
// one RefCounter reservation for the lifetime of each dispatched
// operation so that Table.Close can await drain.
type secondaryAdapter struct {
	backend Backend
	flow    FlowController
	refs    *RefCounter
	tracer  Tracer
	metrics types.MetricsCollector
	logger  types.Logger
}

// dispatch admits and, on grant, asynchronously executes op against the
// secondary backend, invoking done with the outcome on the worker
// goroutine. done is never invoked if admission is denied or the table is
// already fully drained; in the admission-denied case dispatch returns the
// error immediately instead so the caller can route it to the
// Write-Error Sink without waiting.
func (a *secondaryAdapter) dispatch(ctx context.Context, op types.Operation, done func(types.Result)) error {
	resources := types.Describe(op)

	release, err := a.admit(resources)
	if err != nil {
		return err
	}

	relRef, ok := a.refs.Hold()
	if !ok {
		release()
		return types.ErrTableClosed
	}

	go func() {
		defer relRef()
		defer release()

		span, sctx := a.tracer.Begin(ctx, types.Secondary, op)
		start := time.Now()
		res := executeOnBackend(sctx, a.backend, op)
		a.metrics.ObserveOperationDuration(types.Secondary, op.Kind, time.Since(start).Seconds())
		a.metrics.IncOperationTotal(types.Secondary, op.Kind)
		if res.Err != nil {
			a.metrics.IncOperationError(types.Secondary, op.Kind)
		}
		span.End(res.Err)

		done(res)
	}()

	return nil
}

func (a *secondaryAdapter) admit(resources types.RequestResourcesDescription) (func(), error) {
	if a.flow == nil {
		return func() {}, nil
	}
	return a.flow.TryAdmit(resources)
}

// dispatchBatch admits and, on grant, asynchronously executes ops as a
// single secondary batch call, invoking done with the per-slot outcome on
// the worker goroutine. An empty ops slice invokes done with a nil slice
// synchronously and never touches admission control.
func (a *secondaryAdapter) dispatchBatch(ctx context.Context, ops []types.Operation, done func([]types.Result)) error {
	if len(ops) == 0 {
		done(nil)
		return nil
	}

	resources := types.DescribeBatch(ops)

	release, err := a.admit(resources)
	if err != nil {
		return err
	}

	relRef, ok := a.refs.Hold()
	if !ok {
		release()
		return types.ErrTableClosed
	}

	go func() {
		defer relRef()
		defer release()

		span, sctx := a.tracer.Begin(ctx, types.Secondary, batchMarker)
		start := time.Now()
		results := a.backend.Batch(sctx, ops)
		recordBatchMetrics(a.metrics, types.Secondary, ops, results, time.Since(start).Seconds())
		span.End(firstError(results))

		done(results)
	}()

	return nil
}

// batchMarker is the placeholder operation passed to Tracer.Begin for a
// batch call, since a batch has no single row key or kind of its own.
var batchMarker = types.Operation{Kind: types.OpRowMutations}

// recordBatchMetrics updates per-kind dispatch metrics for every slot in a
// batch result, matching how a single dispatched operation is recorded.
func recordBatchMetrics(m types.MetricsCollector, backend types.BackendID, ops []types.Operation, results []types.Result, seconds float64) {
	for i, op := range ops {
		m.ObserveOperationDuration(backend, op.Kind, seconds)
		m.IncOperationTotal(backend, op.Kind)
		if i < len(results) && results[i].Err != nil {
			m.IncOperationError(backend, op.Kind)
		}
	}
}

// firstError returns the first non-nil error among results, or nil if
// every slot succeeded.
func firstError(results []types.Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// executeOnBackend invokes the Backend method matching op's kind. The
// secondary adapter uses it for single operations; the Table calls the
// primary through per-method closures, and batches go through Backend.Batch.
func executeOnBackend(ctx context.Context, b Backend, op types.Operation) types.Result {
	switch op.Kind {
	case types.OpGet:
		if op.Get == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		row, err := b.Get(ctx, *op.Get)
		return types.Result{Row: row, Err: err}
	case types.OpExists:
		if op.Get == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		ok, err := b.Exists(ctx, *op.Get)
		return types.Result{Bool: ok, Err: err}
	case types.OpPut:
		if op.Put == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		err := b.Put(ctx, *op.Put)
		return types.Result{Err: err}
	case types.OpDelete:
		if op.Delete == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		err := b.Delete(ctx, *op.Delete)
		return types.Result{Err: err}
	case types.OpAppend:
		if op.Append == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		row, err := b.Append(ctx, *op.Append)
		return types.Result{Row: row, Err: err}
	case types.OpIncrement:
		if op.Increment == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		row, err := b.Increment(ctx, *op.Increment)
		return types.Result{Row: row, Err: err}
	case types.OpRowMutations:
		if op.RowMutations == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		err := b.MutateRow(ctx, *op.RowMutations)
		return types.Result{Err: err}
	case types.OpCheckAndMutate:
		if op.CheckAndMutate == nil {
			return types.Result{Err: types.ErrInvalidConfig}
		}
		ok, err := b.CheckAndMutate(ctx, *op.CheckAndMutate)
		return types.Result{Bool: ok, Err: err}
	default:
		return types.Result{Err: types.ErrNotSupported}
	}
}
