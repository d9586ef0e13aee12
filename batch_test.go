package mirror

import (
	"testing"

	"github.com/prash-mi/hbase-mirror/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBatch_DropsFailedPrimarySlots(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("a")}},
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("b")}},
	}
	primary := []types.Result{
		{},
		{Err: assertErr},
	}

	plan := splitBatch(ops, primary, true)

	require.Len(t, plan.ops, 1)
	assert.Equal(t, []byte("a"), plan.ops[0].Put.Row)
	assert.Equal(t, []int{0}, plan.index)
}

func TestSplitBatch_DropsReadsWhenNotSampled(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpGet, Get: &types.Get{Row: []byte("a")}},
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("b")}},
	}
	primary := []types.Result{{}, {}}

	plan := splitBatch(ops, primary, false)

	require.Len(t, plan.ops, 1)
	assert.Equal(t, types.OpPut, plan.ops[0].Kind)
	assert.Equal(t, []int{1}, plan.index)
}

func TestSplitBatch_KeepsReadsWhenSampled(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpGet, Get: &types.Get{Row: []byte("a")}},
	}
	primary := []types.Result{{Row: types.Row{Key: []byte("a")}}}

	plan := splitBatch(ops, primary, true)

	require.Len(t, plan.ops, 1)
	assert.Equal(t, types.OpGet, plan.ops[0].Kind)
}

func TestSplitBatch_RewritesAppendAndIncrement(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpIncrement, Increment: &types.Increment{Row: []byte("a"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q")}}}},
	}
	primaryRow := types.Row{Key: []byte("a"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte{0, 0, 0, 0, 0, 0, 0, 5}}}}
	primary := []types.Result{{Row: primaryRow}}

	plan := splitBatch(ops, primary, true)

	require.Len(t, plan.ops, 1)
	assert.Equal(t, types.OpPut, plan.ops[0].Kind)
	assert.Equal(t, primaryRow.Cells, plan.ops[0].Put.Cells)
	// original (un-rewritten) operation is preserved for the sink's view.
	assert.Equal(t, types.OpIncrement, plan.original[0].Kind)
}

func TestSplitBatch_RewritesMatchedCheckAndMutateToRowMutations(t *testing.T) {
	mutation := types.RowMutations{Row: []byte("a"), Puts: []types.Put{{Row: []byte("a"), Cells: []types.Cell{{Family: "cf", Qualifier: []byte("q"), Value: []byte("v")}}}}}
	ops := []types.Operation{
		{Kind: types.OpCheckAndMutate, CheckAndMutate: &types.CheckAndMutate{Row: []byte("a"), Mutation: mutation}},
	}
	primary := []types.Result{{Bool: true}}

	plan := splitBatch(ops, primary, true)

	require.Len(t, plan.ops, 1)
	assert.Equal(t, types.OpRowMutations, plan.ops[0].Kind)
	assert.Equal(t, &mutation, plan.ops[0].RowMutations)
	// original (un-rewritten) operation is preserved for the sink's view.
	assert.Equal(t, types.OpCheckAndMutate, plan.original[0].Kind)
}

func TestAllConcurrentEligible(t *testing.T) {
	assert.True(t, allConcurrentEligible([]types.Operation{
		{Kind: types.OpPut},
		{Kind: types.OpDelete},
		{Kind: types.OpRowMutations},
	}))
	assert.False(t, allConcurrentEligible([]types.Operation{
		{Kind: types.OpPut},
		{Kind: types.OpGet},
	}))
}

func TestWriteInfos_PreservesOriginalOperations(t *testing.T) {
	ops := []types.Operation{
		{Kind: types.OpPut, Put: &types.Put{Row: []byte("a")}},
	}
	infos := writeInfos(ops)

	require.Len(t, infos, 1)
	assert.Equal(t, types.OpPut, infos[0].Kind)
	assert.Equal(t, []byte("a"), infos[0].Op.Put.Row)
}

var assertErr = &types.BackendError{Backend: types.Primary, Operation: "put", Cause: errTest}

var errTest = testErr("boom")

type testErr string

func (e testErr) Error() string { return string(e) }
