package types

// BackendID identifies which backend handle an operation or metric refers to.
type BackendID string

const (
	// Primary is the authoritative backend. Its result is always returned to the caller.
	Primary BackendID = "primary"
	// Secondary is the advisory backend, mirrored and verified against Primary.
	Secondary BackendID = "secondary"
)

// String returns the string representation of the BackendID.
func (b BackendID) String() string { return string(b) }

// ParseBackendID parses the String() form of a BackendID back into its
// value. It returns Primary if s names neither backend.
func ParseBackendID(s string) BackendID {
	if BackendID(s) == Secondary {
		return Secondary
	}
	return Primary
}

// Cell is a single versioned column value, addressed by family and qualifier.
type Cell struct {
	Family    string
	Qualifier []byte
	Timestamp int64
	Value     []byte
}

// Row is a full row result: a key plus the set of cells returned for it.
type Row struct {
	Key   []byte
	Cells []Cell
}

// OpKind discriminates the variant carried by an Operation.
type OpKind int

const (
	OpGet OpKind = iota
	OpExists
	OpScan
	OpPut
	OpDelete
	OpAppend
	OpIncrement
	OpRowMutations
	OpCheckAndMutate
)

// String returns a human-readable name for the operation kind, used in logs
// and in Write-Error Sink reports.
func (k OpKind) String() string {
	switch k {
	case OpGet:
		return "get"
	case OpExists:
		return "exists"
	case OpScan:
		return "scan"
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	case OpAppend:
		return "append"
	case OpIncrement:
		return "increment"
	case OpRowMutations:
		return "row_mutations"
	case OpCheckAndMutate:
		return "check_and_mutate"
	default:
		return "unknown"
	}
}

// ParseOpKind parses the String() form of an OpKind back into its value.
func ParseOpKind(s string) OpKind {
	switch s {
	case "get":
		return OpGet
	case "exists":
		return OpExists
	case "scan":
		return OpScan
	case "put":
		return OpPut
	case "delete":
		return OpDelete
	case "append":
		return OpAppend
	case "increment":
		return OpIncrement
	case "row_mutations":
		return OpRowMutations
	case "check_and_mutate":
		return OpCheckAndMutate
	default:
		return OpGet
	}
}

// IsWrite reports whether operations of this kind mutate backend state.
func (k OpKind) IsWrite() bool {
	switch k {
	case OpPut, OpDelete, OpAppend, OpIncrement, OpRowMutations, OpCheckAndMutate:
		return true
	default:
		return false
	}
}

// IsReadModifyWrite reports whether the operation is non-idempotent and must be
// rewritten into a Put before being sent to the secondary backend.
func (k OpKind) IsReadModifyWrite() bool {
	return k == OpAppend || k == OpIncrement
}

// Get selects a single row and optionally a column filter.
type Get struct {
	Row       []byte
	Families  []string
	TimeRange [2]int64 // zero value means unbounded
}

// ScanRange selects a half-open row-key range for a Scan.
type ScanRange struct {
	StartRow      []byte
	StopRow       []byte // exclusive; empty means unbounded
	Families      []string
	Limit         int // 0 means unbounded
	ReverseOrder  bool
}

// Put writes cells to a row.
type Put struct {
	Row       []byte
	Cells     []Cell
	Timestamp int64
}

// Delete removes cells, a column family, or an entire row.
type Delete struct {
	Row       []byte
	Families  []string // empty means delete the whole row
	Timestamp int64
}

// Append atomically appends bytes to existing cell values, returning the
// resulting cells from the backend that performed it.
type Append struct {
	Row   []byte
	Cells []Cell
}

// Increment atomically adds a delta to one or more counter cells, returning
// the resulting cells from the backend that performed it.
type Increment struct {
	Row   []byte
	Cells []Cell // Value holds the int64 delta, big-endian encoded
}

// RowMutations groups Put/Delete sub-mutations addressed at a single row,
// applied atomically by the backend.
type RowMutations struct {
	Row   []byte
	Puts  []Put
	Dels  []Delete
}

// CheckAndMutate applies a RowMutations only if the value at CheckFamily/CheckQualifier
// compares equal to CheckValue (or is absent, when CheckValue is nil).
type CheckAndMutate struct {
	Row            []byte
	CheckFamily    string
	CheckQualifier []byte
	CheckValue     []byte // nil means "check for absence"
	Mutation       RowMutations
}

// Operation is a single heterogeneous batch element. Exactly one of the typed
// fields is populated, selected by Kind. This mirrors the wide-column store's
// own "Row" action hierarchy (Put/Delete/Increment/Append/RowMutations) without
// forcing Go callers through an interface-per-variant hierarchy.
type Operation struct {
	Kind OpKind

	Get            *Get
	Put            *Put
	Delete         *Delete
	Append         *Append
	Increment      *Increment
	RowMutations   *RowMutations
	CheckAndMutate *CheckAndMutate
}

// RowKey returns the row key addressed by the operation, regardless of variant.
func (o Operation) RowKey() []byte {
	switch o.Kind {
	case OpGet, OpExists:
		if o.Get != nil {
			return o.Get.Row
		}
	case OpPut:
		if o.Put != nil {
			return o.Put.Row
		}
	case OpDelete:
		if o.Delete != nil {
			return o.Delete.Row
		}
	case OpAppend:
		if o.Append != nil {
			return o.Append.Row
		}
	case OpIncrement:
		if o.Increment != nil {
			return o.Increment.Row
		}
	case OpRowMutations:
		if o.RowMutations != nil {
			return o.RowMutations.Row
		}
	case OpCheckAndMutate:
		if o.CheckAndMutate != nil {
			return o.CheckAndMutate.Row
		}
	}
	return nil
}

// AsPut builds the Put that a rewritten Append/Increment operation becomes when
// scheduled against the secondary backend. r is the result the primary backend
// returned for this exact operation.
func (o Operation) AsPut(r Row) Operation {
	return Operation{
		Kind: OpPut,
		Put: &Put{
			Row:   o.RowKey(),
			Cells: r.Cells,
		},
	}
}

// Result is the outcome of a single batch element: Row or Bool carries the
// value when Err is nil. A nil Err with a zero Row and Bool is a valid "no
// content" success (e.g. Put, Delete).
type Result struct {
	Row   Row
	Bool  bool
	Err   error
}

// Failed reports whether this slot represents a failure: only a non-nil Err
// counts. A zero Result is a success; a slot missing from a short batch
// result is treated as failed by the batch splitter, not by this method.
func (r Result) Failed() bool {
	return r.Err != nil
}

// RequestResourcesDescription is an admission-control sizing hint: an estimate
// of how much work a set of operations represents, used by the Flow Controller
// to decide whether to grant a reservation.
type RequestResourcesDescription struct {
	NumOperations int
	ApproxBytes   int64
}

// Describe builds a RequestResourcesDescription for a single operation.
func Describe(op Operation) RequestResourcesDescription {
	return RequestResourcesDescription{NumOperations: 1, ApproxBytes: approxSize(op)}
}

// DescribeBatch builds a RequestResourcesDescription for a batch of operations.
func DescribeBatch(ops []Operation) RequestResourcesDescription {
	d := RequestResourcesDescription{NumOperations: len(ops)}
	for _, op := range ops {
		d.ApproxBytes += approxSize(op)
	}
	return d
}

func approxSize(op Operation) int64 {
	var n int64
	n += int64(len(op.RowKey()))
	cellsSize := func(cells []Cell) int64 {
		var s int64
		for _, c := range cells {
			s += int64(len(c.Family) + len(c.Qualifier) + len(c.Value) + 8)
		}
		return s
	}
	switch op.Kind {
	case OpPut:
		if op.Put != nil {
			n += cellsSize(op.Put.Cells)
		}
	case OpAppend:
		if op.Append != nil {
			n += cellsSize(op.Append.Cells)
		}
	case OpIncrement:
		if op.Increment != nil {
			n += cellsSize(op.Increment.Cells)
		}
	case OpRowMutations:
		if op.RowMutations != nil {
			for _, put := range op.RowMutations.Puts {
				n += cellsSize(put.Cells)
			}
			for _, del := range op.RowMutations.Dels {
				n += int64(len(del.Row))
			}
		}
	}
	return n
}

// WriteOperationInfo retains an operation alongside the resource description
// that guarded it, so that a secondary failure can be reported to the
// Write-Error Sink with both the original (never rewritten) operation and a
// size estimate for observability.
type WriteOperationInfo struct {
	Resources RequestResourcesDescription
	Op        Operation
	Kind      OpKind
}
