package mirror_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	mirror "github.com/prash-mi/hbase-mirror"
	"github.com/prash-mi/hbase-mirror/errorsink"
	"github.com/prash-mi/hbase-mirror/flowcontrol"
	"github.com/prash-mi/hbase-mirror/sampler"
	"github.com/prash-mi/hbase-mirror/test/testutil"
	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_PutMirrorsToSecondary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()
	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	err = table.Put(context.Background(), types.Put{Row: []byte("row-1"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("v")}}})
	require.NoError(t, err)

	row, ok := primary.Row("row-1")
	require.True(t, ok)
	assert.Equal(t, "v", string(row.Cells[0].Value))

	assert.Eventually(t, func() bool {
		_, ok := secondary.Row("row-1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestTable_GetReturnsPrimaryResultEvenWhenSecondaryFails(t *testing.T) {
	primary := testutil.NewFakeBackend()
	primary.SeedRow(types.Row{Key: []byte("row-1"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("primary-value")}}})
	secondary := testutil.NewFakeBackend()
	secondary.OnGet = func(ctx context.Context, get types.Get) (types.Row, error) {
		return types.Row{}, errors.New("secondary unavailable")
	}

	table, err := mirror.NewTable(primary, secondary, mirror.WithReadSampler(sampler.NewAlwaysSampler()))
	require.NoError(t, err)
	defer table.Close()

	row, err := table.Get(context.Background(), types.Get{Row: []byte("row-1")})
	require.NoError(t, err)
	assert.Equal(t, "primary-value", string(row.Cells[0].Value))
}

func TestTable_PrimaryFailureNeverTouchesSecondary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	boom := errors.New("primary down")
	primary.OnPut = func(ctx context.Context, put types.Put) error { return boom }
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	err = table.Put(context.Background(), types.Put{Row: []byte("row-1")})
	assert.ErrorIs(t, err, boom)

	time.Sleep(20 * time.Millisecond)
	_, ok := secondary.Row("row-1")
	assert.False(t, ok)
}

func TestTable_SecondaryFailureReportsToWriteErrorSink(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()
	secondary.OnPut = func(ctx context.Context, put types.Put) error { return errors.New("secondary down") }

	sink := errorsink.NewMemorySink()
	defer sink.Close()

	table, err := mirror.NewTable(primary, secondary, mirror.WithWriteErrorSink(sink))
	require.NoError(t, err)
	defer table.Close()

	require.NoError(t, table.Put(context.Background(), types.Put{Row: []byte("row-1")}))

	report, ok := assertDrains(t, sink)
	require.True(t, ok)
	assert.Equal(t, types.Secondary, report.Backend)
	assert.Equal(t, types.OpPut, report.Kind)
}

func TestTable_AdmissionDenialReportsToWriteErrorSinkWithoutTouchingSecondary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()
	secondary.OnPut = func(ctx context.Context, put types.Put) error {
		t.Fatal("secondary should never be called when admission is denied")
		return nil
	}

	sink := errorsink.NewMemorySink()
	defer sink.Close()

	// A controller whose only request slot is already taken denies every
	// further admission.
	fc := flowcontrol.NewBoundedController(flowcontrol.WithMaxOutstandingRequests(1))
	release, err := fc.TryAdmit(types.RequestResourcesDescription{NumOperations: 1})
	require.NoError(t, err)
	defer release()

	table, err := mirror.NewTable(primary, secondary,
		mirror.WithFlowController(fc),
		mirror.WithWriteErrorSink(sink),
	)
	require.NoError(t, err)
	defer table.Close()

	require.NoError(t, table.Put(context.Background(), types.Put{Row: []byte("row-1")}))

	report, ok := assertDrains(t, sink)
	require.True(t, ok)
	assert.Equal(t, types.OpPut, report.Kind)
}

func TestTable_AppendIsRewrittenToPutForSecondary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	_, err = table.Append(context.Background(), types.Append{Row: []byte("row-1"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("a")}}})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		row, ok := secondary.Row("row-1")
		return ok && len(row.Cells) == 1 && string(row.Cells[0].Value) == "a"
	}, time.Second, 10*time.Millisecond)
}

func TestTable_CheckAndMutateSkipsSecondaryWhenPredicateDoesNotMatch(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	applied, err := table.CheckAndPut(context.Background(), "cf", []byte("q"), []byte("expected"),
		types.Put{Row: []byte("row-1"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("new")}}})
	require.NoError(t, err)
	assert.False(t, applied)

	time.Sleep(20 * time.Millisecond)
	_, ok := secondary.Row("row-1")
	assert.False(t, ok)
}

func TestTable_MutateRowDeleteOnlyMirrorsWithoutPanicking(t *testing.T) {
	primary := testutil.NewFakeBackend()
	primary.SeedRow(types.Row{Key: []byte("row-1"), Cells: []types.Cell{
		{Family: "cf", Qualifier: []byte("q"), Value: []byte("v")},
	}})
	secondary := testutil.NewFakeBackend()
	secondary.SeedRow(types.Row{Key: []byte("row-1"), Cells: []types.Cell{
		{Family: "cf", Qualifier: []byte("q"), Value: []byte("v")},
	}})

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	err = table.MutateRow(context.Background(), types.RowMutations{
		Row:  []byte("row-1"),
		Dels: []types.Delete{{Row: []byte("row-1"), Families: []string{"cf"}}},
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		row, ok := secondary.Row("row-1")
		return ok && len(row.Cells) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTable_CheckAndMutateAppliesUnconditionallyOnSecondary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	primary.SeedRow(types.Row{Key: []byte("row-1"), Cells: []types.Cell{
		{Family: "cf", Qualifier: []byte("q"), Value: []byte("expected")},
	}})

	// The secondary's check cell has already diverged from the primary's.
	// If the secondary re-evaluated the predicate it would see a mismatch
	// and silently skip the mutation; mirroring must apply it regardless.
	secondary := testutil.NewFakeBackend()
	secondary.SeedRow(types.Row{Key: []byte("row-1"), Cells: []types.Cell{
		{Family: "cf", Qualifier: []byte("q"), Value: []byte("diverged")},
	}})

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	applied, err := table.CheckAndPut(context.Background(), "cf", []byte("q"), []byte("expected"),
		types.Put{Row: []byte("row-1"), Cells: []types.Cell{{Family: "other", Qualifier: []byte("q2"), Value: []byte("new")}}})
	require.NoError(t, err)
	assert.True(t, applied)

	assert.Eventually(t, func() bool {
		row, ok := secondary.Row("row-1")
		if !ok {
			return false
		}
		for _, c := range row.Cells {
			if c.Family == "other" && string(c.Value) == "new" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestTable_BatchSequentialMirrorsSuccessfulSlots(t *testing.T) {
	primary := testutil.NewFakeBackend()
	boom := errors.New("boom")
	primary.OnPut = func(ctx context.Context, put types.Put) error {
		if string(put.Row) == "fails" {
			return boom
		}
		return nil
	}
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	ops := []types.Operation{
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("ok-1")}},
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("fails")}},
	}
	results := table.Batch(context.Background(), ops)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)

	assert.Eventually(t, func() bool {
		_, ok1 := secondary.Row("ok-1")
		_, ok2 := secondary.Row("fails")
		return ok1 && !ok2
	}, time.Second, 10*time.Millisecond)
}

func TestTable_BatchConcurrentModeRunsOnlyForWriteOnlyBatches(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary, mirror.WithConcurrentBatches(true))
	require.NoError(t, err)
	defer table.Close()

	ops := []types.Operation{
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("a")}},
		{Kind: types.OpDelete, Delete: &types.Delete{Row: []byte("b")}},
	}
	results := table.Batch(context.Background(), ops)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	assert.Eventually(t, func() bool {
		_, ok := secondary.Row("a")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestTable_BatchCallbackInvokesCallbackBeforeSecondaryMirroring(t *testing.T) {
	primary := testutil.NewFakeBackend()
	boom := errors.New("boom")
	primary.OnPut = func(ctx context.Context, put types.Put) error {
		if string(put.Row) == "fails" {
			return boom
		}
		return nil
	}
	secondary := testutil.NewFakeBackend()
	var secondaryCalled atomic.Bool
	secondary.OnPut = func(ctx context.Context, put types.Put) error {
		secondaryCalled.Store(true)
		secondary.SeedRow(types.Row{Key: put.Row, Cells: put.Cells})
		return nil
	}
	var secondarySeenBeforeCallback bool

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	defer table.Close()

	ops := []types.Operation{
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("ok-1")}},
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("fails")}},
	}

	var seen []types.Operation
	var seenResults []types.Result
	results := table.BatchCallback(context.Background(), ops, func(op types.Operation, result types.Result) {
		if secondaryCalled.Load() {
			secondarySeenBeforeCallback = true
		}
		seen = append(seen, op)
		seenResults = append(seenResults, result)
	})

	require.Len(t, results, 2)
	require.Len(t, seen, 2)
	assert.False(t, secondarySeenBeforeCallback, "callback must fire before the secondary batch is scheduled")
	assert.Equal(t, "ok-1", string(seen[0].Put.Row))
	assert.NoError(t, seenResults[0].Err)
	assert.Equal(t, "fails", string(seen[1].Put.Row))
	assert.ErrorIs(t, seenResults[1].Err, boom)

	assert.Eventually(t, func() bool {
		_, ok := secondary.Row("ok-1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestTable_CloseIsIdempotentAndClosesPrimary(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)

	require.NoError(t, table.Close())
	require.NoError(t, table.Close())
	assert.True(t, primary.Closed())

	select {
	case <-table.Done():
	case <-time.After(time.Second):
		t.Fatal("expected table to fully drain")
	}
	assert.True(t, secondary.Closed())
}

func TestTable_OperationsAfterCloseReturnErrTableClosed(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)
	require.NoError(t, table.Close())

	_, err = table.Get(context.Background(), types.Get{Row: []byte("row-1")})
	assert.ErrorIs(t, err, types.ErrTableClosed)
}

func TestTable_AddOnCloseListenerFiresAfterDrain(t *testing.T) {
	primary := testutil.NewFakeBackend()
	secondary := testutil.NewFakeBackend()

	table, err := mirror.NewTable(primary, secondary)
	require.NoError(t, err)

	fired := make(chan struct{})
	table.AddOnCloseListener(func() { close(fired) })

	require.NoError(t, table.Close())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected close listener to fire")
	}
}

func TestTable_UnsupportedOperationsReturnErrNotSupported(t *testing.T) {
	table, err := mirror.NewTable(testutil.NewFakeBackend(), testutil.NewFakeBackend())
	require.NoError(t, err)
	defer table.Close()

	_, err = table.GetTableDescriptor()
	assert.ErrorIs(t, err, types.ErrNotSupported)

	_, err = table.GetConfiguration("x")
	assert.ErrorIs(t, err, types.ErrNotSupported)
}

func assertDrains(t *testing.T, sink *errorsink.MemorySink) (errorsink.Report, bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r, ok := sink.TryDrain(); ok {
			return r, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return errorsink.Report{}, false
}
