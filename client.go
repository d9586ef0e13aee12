package mirror

import "github.com/prash-mi/hbase-mirror/types"

// Type aliases for convenience - re-export from the types package so that
// callers importing only "mirror" rarely need a second import for the
// vocabulary of operations, results, and errors.
type (
	BackendID                  = types.BackendID
	BackendNames               = types.BackendNames
	OpKind                     = types.OpKind
	Operation                  = types.Operation
	Result                     = types.Result
	Row                        = types.Row
	Cell                       = types.Cell
	Get                        = types.Get
	ScanRange                  = types.ScanRange
	Put                        = types.Put
	Delete                     = types.Delete
	Append                     = types.Append
	Increment                  = types.Increment
	RowMutations               = types.RowMutations
	CheckAndMutate             = types.CheckAndMutate
	WriteOperationInfo         = types.WriteOperationInfo
	RequestResourcesDescription = types.RequestResourcesDescription
	Logger                     = types.Logger
	MetricsCollector           = types.MetricsCollector
	AdmissionError             = types.AdmissionError
	BackendError               = types.BackendError
	MismatchError              = types.MismatchError
)

// Re-export backend ID constants for convenience.
const (
	Primary   = types.Primary
	Secondary = types.Secondary
)

// Re-export operation kind constants for convenience.
const (
	OpGet            = types.OpGet
	OpExists         = types.OpExists
	OpScan           = types.OpScan
	OpPut            = types.OpPut
	OpDelete         = types.OpDelete
	OpAppend         = types.OpAppend
	OpIncrement      = types.OpIncrement
	OpRowMutations   = types.OpRowMutations
	OpCheckAndMutate = types.OpCheckAndMutate
)

// Re-export sentinel errors for convenience.
var (
	ErrTableClosed     = types.ErrTableClosed
	ErrNotSupported    = types.ErrNotSupported
	ErrAdmissionDenied = types.ErrAdmissionDenied
	ErrSinkClosed      = types.ErrSinkClosed
	ErrSinkFull        = types.ErrSinkFull
	ErrInvalidConfig   = types.ErrInvalidConfig
	ErrInterrupted     = types.ErrInterrupted
)
