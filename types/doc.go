// Package types provides shared types and error definitions for the mirroring client.
//
// This is a leaf package with zero internal imports to prevent import cycles.
// Every other package may safely import this package.
//
// # Backends
//
// BackendID identifies which of the two backends an operation, metric, or log
// line refers to:
//
//	const (
//	    Primary   BackendID = "primary"
//	    Secondary BackendID = "secondary"
//	)
//
// # Operations
//
// Operation is a discriminated union over the wide-column store's mutation and
// read types (Get, Put, Delete, Append, Increment, RowMutations, CheckAndMutate).
// Exactly one typed field is populated, selected by Kind.
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrTableClosed: an operation was attempted on a closed table
//   - ErrNotSupported: the method is intentionally not implemented
//   - ErrAdmissionDenied: the Flow Controller refused a secondary reservation
//   - ErrSinkClosed / ErrSinkFull: the Write-Error Sink could not accept a report
package types
