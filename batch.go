package mirror

import "github.com/prash-mi/hbase-mirror/types"

// batchPlan is the outcome of splitting a batch's primary results into the
// subset that should be scheduled against the secondary backend.
type batchPlan struct {
	// ops holds the operations to send to the secondary, with every
	// Append/Increment already rewritten into the equivalent Put built
	// from the primary's result.
	ops []types.Operation
	// original mirrors ops position-for-position with the un-rewritten
	// operation, for reporting to the Write-Error Sink.
	original []types.Operation
	// index[j] is the position in the caller's batch that ops[j] (and
	// original[j]) correspond to.
	index []int
}

// splitBatch implements the splitting discipline shared by sequential and
// concurrent batch dispatch: primary failures are dropped, a CheckAndMutate
// whose predicate did not match on the primary is dropped, and reads are
// dropped too when sampleReads is false, while their successful write
// peers are kept.
func splitBatch(ops []types.Operation, primary []types.Result, sampleReads bool) batchPlan {
	plan := batchPlan{}
	for i, op := range ops {
		if i >= len(primary) || primary[i].Failed() {
			continue
		}
		if op.Kind == types.OpCheckAndMutate && !primary[i].Bool {
			continue
		}
		if !op.Kind.IsWrite() && !sampleReads {
			continue
		}

		secOp := op
		switch {
		case op.Kind == types.OpCheckAndMutate:
			secOp = types.Operation{Kind: types.OpRowMutations, RowMutations: &op.CheckAndMutate.Mutation}
		case op.Kind.IsReadModifyWrite():
			secOp = op.AsPut(primary[i].Row)
		}

		plan.ops = append(plan.ops, secOp)
		plan.original = append(plan.original, op)
		plan.index = append(plan.index, i)
	}
	return plan
}

// allConcurrentEligible reports whether every operation in ops is a Put,
// Delete, or RowMutations, the only kinds concurrent batch mode accepts.
func allConcurrentEligible(ops []types.Operation) bool {
	for _, op := range ops {
		switch op.Kind {
		case types.OpPut, types.OpDelete, types.OpRowMutations:
		default:
			return false
		}
	}
	return true
}

// writeInfos builds the Write-Error Sink payload for a set of original
// (never rewritten) operations.
func writeInfos(ops []types.Operation) []types.WriteOperationInfo {
	out := make([]types.WriteOperationInfo, len(ops))
	for i, op := range ops {
		out[i] = types.WriteOperationInfo{
			Resources: types.Describe(op),
			Op:        op,
			Kind:      op.Kind,
		}
	}
	return out
}
