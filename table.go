package mirror

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prash-mi/hbase-mirror/types"
	"github.com/prash-mi/hbase-mirror/verification"
)

// Table is the mirroring dispatcher: it presents the wide-column store's
// table API and fans every operation out to a primary backend, whose
// result is always what the caller sees, and a secondary backend, mirrored
// asynchronously and verified against the primary.
type Table struct {
	primary   Backend
	secondary Backend
	config    *TableConfig
	refs      *RefCounter
	secondaryAdapter *secondaryAdapter
	verifier  Verifier

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	drained   bool
	listeners []func()
	done      chan struct{}
}

// NewTable constructs a mirroring Table over the given primary and
// secondary backend handles. Both handles are required; operations
// dispatched through the returned Table always block on it and always
// return its result verbatim.
func NewTable(primary, secondary Backend, opts ...Option) (*Table, error) {
	if primary == nil || secondary == nil {
		return nil, types.ErrInvalidConfig
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.BackendNames.Validate(); err != nil {
		return nil, err
	}
	propagateBackendNames(cfg)

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = verification.NewFactory(
			verification.WithLogger(cfg.Logger),
			verification.WithMetrics(cfg.Metrics),
		)
	}

	refs := NewRefCounter(cfg.Metrics)

	t := &Table{
		primary:   primary,
		secondary: secondary,
		config:    cfg,
		refs:      refs,
		verifier:  verifier,
		done:      make(chan struct{}),
	}
	t.secondaryAdapter = &secondaryAdapter{
		backend: secondary,
		flow:    cfg.FlowController,
		refs:    refs,
		tracer:  cfg.Tracer,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
	return t, nil
}

// ---------------------------------------------------------------------
// Read path
// ---------------------------------------------------------------------

func (t *Table) Exists(ctx context.Context, get types.Get) (bool, error) {
	op := types.Operation{Kind: types.OpExists, Get: &get}
	res := t.dispatchRead(ctx, op, func(ctx context.Context, b Backend) types.Result {
		ok, err := b.Exists(ctx, get)
		return types.Result{Bool: ok, Err: err}
	})
	return res.Bool, res.Err
}

func (t *Table) ExistsAll(ctx context.Context, gets []types.Get) ([]bool, error) {
	out := make([]bool, len(gets))
	for i, g := range gets {
		ok, err := t.Exists(ctx, g)
		if err != nil {
			return nil, err
		}
		out[i] = ok
	}
	return out, nil
}

func (t *Table) Get(ctx context.Context, get types.Get) (types.Row, error) {
	op := types.Operation{Kind: types.OpGet, Get: &get}
	res := t.dispatchRead(ctx, op, func(ctx context.Context, b Backend) types.Result {
		row, err := b.Get(ctx, get)
		return types.Result{Row: row, Err: err}
	})
	return res.Row, res.Err
}

func (t *Table) GetList(ctx context.Context, gets []types.Get) ([]types.Result, error) {
	out := make([]types.Result, len(gets))
	for i, g := range gets {
		row, err := t.Get(ctx, g)
		out[i] = types.Result{Row: row, Err: err}
	}
	return out, nil
}

// GetScanner opens a streaming scan, mirrored per the scan's own sampling
// decision. See MirroringScanner (in scanner.go) for the lockstep verification
// pipeline.
func (t *Table) GetScanner(ctx context.Context, scan types.ScanRange) (*MirroringScanner, error) {
	if t.closed.Load() {
		return nil, types.ErrTableClosed
	}
	primaryScanner, err := t.primary.GetScanner(ctx, scan)
	if err != nil {
		return nil, err
	}
	return newMirroringScanner(ctx, t, scan, primaryScanner), nil
}

// dispatchRead runs run against the primary backend, records dispatch
// metrics and a trace span, and on success schedules a sampled
// verification against the secondary. Primary failures are returned
// verbatim and never touch the secondary.
func (t *Table) dispatchRead(ctx context.Context, op types.Operation, run func(context.Context, Backend) types.Result) types.Result {
	if t.closed.Load() {
		return types.Result{Err: types.ErrTableClosed}
	}

	span, pctx := t.config.Tracer.Begin(ctx, types.Primary, op)
	start := time.Now()
	res := run(pctx, t.primary)
	t.config.Metrics.ObserveOperationDuration(types.Primary, op.Kind, time.Since(start).Seconds())
	t.config.Metrics.IncOperationTotal(types.Primary, op.Kind)
	if res.Err != nil {
		t.config.Metrics.IncOperationError(types.Primary, op.Kind)
	}
	span.End(res.Err)

	if res.Err != nil {
		return res
	}

	t.scheduleVerification(ctx, op, res)
	return res
}

// scheduleVerification samples op and, if sampled, dispatches the
// equivalent read against the secondary and compares the two results once
// it completes. Admission denial silently drops the verification; it is
// never reported as an error.
func (t *Table) scheduleVerification(ctx context.Context, op types.Operation, primaryRes types.Result) {
	if t.config.ReadSampler == nil || !t.config.ReadSampler.ShouldSample(op) {
		return
	}

	err := t.secondaryAdapter.dispatch(ctx, op, func(secRes types.Result) {
		t.verifier.Verify(op, primaryRes, secRes)
	})
	if err != nil {
		t.config.Logger.Debug("secondary read verification dropped", "row", string(op.RowKey()), "error", err.Error())
	}
}

// ---------------------------------------------------------------------
// Single-write path
// ---------------------------------------------------------------------

func (t *Table) Put(ctx context.Context, put types.Put) error {
	op := types.Operation{Kind: types.OpPut, Put: &put}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		return types.Result{Err: b.Put(ctx, put)}
	})
	return res.Err
}

func (t *Table) PutList(ctx context.Context, puts []types.Put) []error {
	out := make([]error, len(puts))
	for i, p := range puts {
		out[i] = t.Put(ctx, p)
	}
	return out
}

func (t *Table) Delete(ctx context.Context, del types.Delete) error {
	op := types.Operation{Kind: types.OpDelete, Delete: &del}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		return types.Result{Err: b.Delete(ctx, del)}
	})
	return res.Err
}

func (t *Table) DeleteList(ctx context.Context, dels []types.Delete) []error {
	out := make([]error, len(dels))
	for i, d := range dels {
		out[i] = t.Delete(ctx, d)
	}
	return out
}

func (t *Table) MutateRow(ctx context.Context, rm types.RowMutations) error {
	op := types.Operation{Kind: types.OpRowMutations, RowMutations: &rm}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		return types.Result{Err: b.MutateRow(ctx, rm)}
	})
	return res.Err
}

// Append atomically appends to existing cell values and returns the
// resulting cells the primary backend reports.
func (t *Table) Append(ctx context.Context, a types.Append) (types.Row, error) {
	op := types.Operation{Kind: types.OpAppend, Append: &a}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		row, err := b.Append(ctx, a)
		return types.Result{Row: row, Err: err}
	})
	return res.Row, res.Err
}

// Increment atomically adds deltas to counter cells and returns the
// resulting cells the primary backend reports.
func (t *Table) Increment(ctx context.Context, inc types.Increment) (types.Row, error) {
	op := types.Operation{Kind: types.OpIncrement, Increment: &inc}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		row, err := b.Increment(ctx, inc)
		return types.Result{Row: row, Err: err}
	})
	return res.Row, res.Err
}

// IncrementColumnValue is sugar over Increment for a single counter cell.
func (t *Table) IncrementColumnValue(ctx context.Context, row []byte, family string, qualifier []byte, delta int64) (int64, error) {
	result, err := t.Increment(ctx, types.Increment{
		Row:   row,
		Cells: []types.Cell{{Family: family, Qualifier: qualifier, Value: encodeDelta(delta)}},
	})
	if err != nil {
		return 0, err
	}
	for _, c := range result.Cells {
		if c.Family == family && bytesEqualLocal(c.Qualifier, qualifier) {
			return decodeDelta(c.Value), nil
		}
	}
	return 0, nil
}

// CheckAndMutate applies mutation only if the predicate on CheckFamily/
// CheckQualifier matches. Mirroring of the secondary only occurs if the
// primary reports the predicate matched.
func (t *Table) CheckAndMutate(ctx context.Context, cam types.CheckAndMutate) (bool, error) {
	op := types.Operation{Kind: types.OpCheckAndMutate, CheckAndMutate: &cam}
	res := t.dispatchWrite(ctx, op, func(ctx context.Context, b Backend) types.Result {
		ok, err := b.CheckAndMutate(ctx, cam)
		return types.Result{Bool: ok, Err: err}
	})
	return res.Bool, res.Err
}

// CheckAndPut is sugar over CheckAndMutate for a single Put.
func (t *Table) CheckAndPut(ctx context.Context, checkFamily string, checkQualifier, checkValue []byte, put types.Put) (bool, error) {
	return t.CheckAndMutate(ctx, types.CheckAndMutate{
		Row:            put.Row,
		CheckFamily:    checkFamily,
		CheckQualifier: checkQualifier,
		CheckValue:     checkValue,
		Mutation:       types.RowMutations{Row: put.Row, Puts: []types.Put{put}},
	})
}

// CheckAndDelete is sugar over CheckAndMutate for a single Delete.
func (t *Table) CheckAndDelete(ctx context.Context, checkFamily string, checkQualifier, checkValue []byte, del types.Delete) (bool, error) {
	return t.CheckAndMutate(ctx, types.CheckAndMutate{
		Row:            del.Row,
		CheckFamily:    checkFamily,
		CheckQualifier: checkQualifier,
		CheckValue:     checkValue,
		Mutation:       types.RowMutations{Row: del.Row, Dels: []types.Delete{del}},
	})
}

// dispatchWrite runs run against the primary backend and, on success,
// schedules the equivalent (possibly rewritten) write against the
// secondary under admission control.
func (t *Table) dispatchWrite(ctx context.Context, op types.Operation, run func(context.Context, Backend) types.Result) types.Result {
	if t.closed.Load() {
		return types.Result{Err: types.ErrTableClosed}
	}

	span, pctx := t.config.Tracer.Begin(ctx, types.Primary, op)
	start := time.Now()
	res := run(pctx, t.primary)
	t.config.Metrics.ObserveOperationDuration(types.Primary, op.Kind, time.Since(start).Seconds())
	t.config.Metrics.IncOperationTotal(types.Primary, op.Kind)
	if res.Err != nil {
		t.config.Metrics.IncOperationError(types.Primary, op.Kind)
	}
	span.End(res.Err)

	if res.Err != nil {
		return res
	}

	t.scheduleSecondaryWrite(ctx, op, res)
	return res
}

// scheduleSecondaryWrite mirrors a successful primary write to the
// secondary, rewriting Append/Increment into the equivalent Put and
// skipping CheckAndMutate entirely when the primary reports the predicate
// did not match. A matched CheckAndMutate is rewritten into an
// unconditional RowMutations, since the secondary must apply the mutation
// the primary already decided on rather than re-evaluate the predicate
// against its own, possibly diverged, state. Admission denial and
// secondary failure both route to the Write-Error Sink with the original,
// un-rewritten operation.
func (t *Table) scheduleSecondaryWrite(ctx context.Context, op types.Operation, primaryRes types.Result) {
	if op.Kind == types.OpCheckAndMutate && !primaryRes.Bool {
		return
	}

	secOp := op
	switch {
	case op.Kind == types.OpCheckAndMutate:
		secOp = types.Operation{Kind: types.OpRowMutations, RowMutations: &op.CheckAndMutate.Mutation}
	case op.Kind.IsReadModifyWrite():
		secOp = op.AsPut(primaryRes.Row)
	}

	err := t.secondaryAdapter.dispatch(ctx, secOp, func(secRes types.Result) {
		if secRes.Err != nil {
			t.reportWriteError(op, secRes.Err)
		}
	})
	if err != nil {
		t.reportWriteError(op, err)
	}
}

func (t *Table) reportWriteError(op types.Operation, cause error) {
	if t.config.WriteErrorSink == nil {
		return
	}
	t.config.WriteErrorSink.Consume(types.Secondary, op.Kind, []types.WriteOperationInfo{{
		Resources: types.Describe(op),
		Op:        op,
		Kind:      op.Kind,
	}}, cause)
}

// ---------------------------------------------------------------------
// Batch path
// ---------------------------------------------------------------------

// BatchResultFunc receives each operation's primary result as soon as the
// primary batch call returns. In sequential mode this happens before any
// secondary scheduling; in concurrent mode the secondary batch has already
// been launched by then. It
// mirrors the per-row callback a wide-column store's own batchCallback
// invokes as primary results become available.
type BatchResultFunc func(op types.Operation, result types.Result)

// Batch dispatches a heterogeneous set of operations. It uses concurrent
// mode when enabled via WithConcurrentBatches and every operation in ops
// is a Put, Delete, or RowMutations; otherwise it falls back to sequential
// mode, which is always available.
func (t *Table) Batch(ctx context.Context, ops []types.Operation) []types.Result {
	return t.batch(ctx, ops, nil)
}

// BatchCallback behaves exactly like Batch, but additionally invokes cb for
// every operation's primary result, in input order, right after the
// primary batch call returns. In sequential mode that is before the
// secondary is scheduled; in concurrent mode the secondary batch is
// launched before the primary batch runs. cb may
// be nil, in which case BatchCallback behaves identically to Batch.
func (t *Table) BatchCallback(ctx context.Context, ops []types.Operation, cb BatchResultFunc) []types.Result {
	return t.batch(ctx, ops, cb)
}

func (t *Table) batch(ctx context.Context, ops []types.Operation, cb BatchResultFunc) []types.Result {
	if t.closed.Load() {
		return failAll(ops, types.ErrTableClosed)
	}
	if t.config.ConcurrentBatches && allConcurrentEligible(ops) {
		return t.batchConcurrent(ctx, ops, cb)
	}
	return t.batchSequential(ctx, ops, cb)
}

func (t *Table) batchSequential(ctx context.Context, ops []types.Operation, cb BatchResultFunc) []types.Result {
	span, pctx := t.config.Tracer.Begin(ctx, types.Primary, batchMarker)
	primary := t.primary.Batch(pctx, ops)
	recordBatchMetrics(t.config.Metrics, types.Primary, ops, primary, 0)
	span.End(firstError(primary))

	invokeBatchCallback(cb, ops, primary)

	// Copy before scheduling secondary work so that async verification
	// never races the caller's use of the returned slice.
	out := make([]types.Result, len(primary))
	copy(out, primary)

	t.scheduleSecondaryBatch(ctx, ops, primary)
	return out
}

func invokeBatchCallback(cb BatchResultFunc, ops []types.Operation, results []types.Result) {
	if cb == nil {
		return
	}
	for i, op := range ops {
		if i >= len(results) {
			break
		}
		cb(op, results[i])
	}
}

func (t *Table) scheduleSecondaryBatch(ctx context.Context, ops []types.Operation, primary []types.Result) {
	plan := splitBatch(ops, primary, t.sampleBatchReads())
	if len(plan.ops) == 0 {
		return
	}

	err := t.secondaryAdapter.dispatchBatch(ctx, plan.ops, func(secondary []types.Result) {
		t.verifyBatch(plan, primary, secondary)
	})
	if err != nil {
		t.reportPlanDenied(plan, err)
	}
}

func (t *Table) verifyBatch(plan batchPlan, primary, secondary []types.Result) {
	for j, original := range plan.original {
		origIdx := plan.index[j]

		var secRes types.Result
		if j < len(secondary) {
			secRes = secondary[j]
		} else {
			secRes = types.Result{Err: types.ErrInterrupted}
		}

		if original.Kind.IsWrite() {
			if secRes.Err != nil {
				t.reportWriteError(original, secRes.Err)
			}
			continue
		}

		t.verifier.Verify(original, primary[origIdx], secRes)
	}
}

func (t *Table) reportPlanDenied(plan batchPlan, cause error) {
	for _, original := range plan.original {
		if original.Kind.IsWrite() {
			t.reportWriteError(original, cause)
		}
	}
}

// sampleBatchReads makes one sampling decision per batch: either every
// read in the batch is mirrored, or none are. The sampler is consulted
// with a generic read marker since batches carry no single row key.
func (t *Table) sampleBatchReads() bool {
	if t.config.ReadSampler == nil {
		return false
	}
	return t.config.ReadSampler.ShouldSample(types.Operation{Kind: types.OpGet})
}

// batchConcurrent reserves resources for the whole batch, launches the
// secondary batch call, then runs the primary batch on the calling
// goroutine. Verification happens only after both complete.
func (t *Table) batchConcurrent(ctx context.Context, ops []types.Operation, cb BatchResultFunc) []types.Result {
	resources := types.DescribeBatch(ops)

	release, err := t.secondaryAdapter.admit(resources)
	if err != nil {
		return failAll(ops, err)
	}

	relRef, ok := t.refs.Hold()
	if !ok {
		release()
		return failAll(ops, types.ErrTableClosed)
	}

	primaryCh := make(chan []types.Result, 1)
	go func() {
		defer relRef()
		defer release()

		span, sctx := t.config.Tracer.Begin(ctx, types.Secondary, batchMarker)
		start := time.Now()
		secondary := t.secondary.Batch(sctx, ops)
		recordBatchMetrics(t.config.Metrics, types.Secondary, ops, secondary, time.Since(start).Seconds())
		span.End(firstError(secondary))

		primary := <-primaryCh
		for i, original := range ops {
			if i >= len(primary) || primary[i].Failed() {
				continue
			}
			secErr := types.ErrInterrupted
			if i < len(secondary) {
				secErr = secondary[i].Err
			}
			if secErr != nil {
				t.reportWriteError(original, secErr)
			}
		}
	}()

	span, pctx := t.config.Tracer.Begin(ctx, types.Primary, batchMarker)
	primary := t.primary.Batch(pctx, ops)
	recordBatchMetrics(t.config.Metrics, types.Primary, ops, primary, 0)
	span.End(firstError(primary))

	invokeBatchCallback(cb, ops, primary)

	out := make([]types.Result, len(primary))
	copy(out, primary)
	primaryCh <- out

	return out
}

func failAll(ops []types.Operation, err error) []types.Result {
	out := make([]types.Result, len(ops))
	for i := range out {
		out[i] = types.Result{Err: err}
	}
	return out
}

// ---------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------

// Close closes the primary backend synchronously and initiates an
// asynchronous close of the secondary backend once all outstanding
// mirrored work has drained. It returns any error observed closing the
// primary; a failure closing the secondary is logged, never returned,
// since the secondary is advisory. Close is idempotent.
func (t *Table) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.refs.Close()

		if err := t.primary.Close(); err != nil {
			t.closeErr = &types.BackendError{Backend: types.Primary, Operation: "close", Cause: err}
		}

		go func() {
			<-t.refs.Done()

			if err := t.secondary.Close(); err != nil {
				t.config.Logger.Warn("secondary backend close failed", "error", err.Error())
			}

			t.mu.Lock()
			t.drained = true
			listeners := t.listeners
			t.listeners = nil
			t.mu.Unlock()
			close(t.done)

			for _, l := range listeners {
				l()
			}
		}()
	})
	return t.closeErr
}

// Done returns a channel that closes once every outstanding mirrored
// operation has drained and the secondary backend has been closed.
func (t *Table) Done() <-chan struct{} {
	return t.done
}

// Closed reports whether Close has been called, regardless of whether
// draining has finished.
func (t *Table) Closed() bool {
	return t.closed.Load()
}

// AddOnCloseListener registers fn to run once the table has fully drained
// after Close. If the table has already drained, fn runs immediately on
// the calling goroutine.
func (t *Table) AddOnCloseListener(fn func()) {
	t.mu.Lock()
	if t.drained {
		t.mu.Unlock()
		fn()
		return
	}
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// ---------------------------------------------------------------------
// Unsupported surface
// ---------------------------------------------------------------------

// GetConfiguration is not supported by the mirroring table.
func (t *Table) GetConfiguration(string) (string, error) { return "", types.ErrNotSupported }

// GetTableDescriptor is not supported by the mirroring table.
func (t *Table) GetTableDescriptor() (any, error) { return nil, types.ErrNotSupported }

// GetWriteBufferSize is not supported by the mirroring table.
func (t *Table) GetWriteBufferSize() (int64, error) { return 0, types.ErrNotSupported }

// SetWriteBufferSize is not supported by the mirroring table.
func (t *Table) SetWriteBufferSize(int64) error { return types.ErrNotSupported }

// GetOperationTimeout is not supported by the mirroring table.
func (t *Table) GetOperationTimeout() (time.Duration, error) { return 0, types.ErrNotSupported }

// SetOperationTimeout is not supported by the mirroring table.
func (t *Table) SetOperationTimeout(time.Duration) error { return types.ErrNotSupported }

// CoprocessorService is not supported by the mirroring table.
func (t *Table) CoprocessorService(string) (any, error) { return nil, types.ErrNotSupported }

func encodeDelta(v int64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func decodeDelta(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func bytesEqualLocal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
