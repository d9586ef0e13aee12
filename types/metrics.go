package types

// MetricsCollector defines methods for collecting operational metrics about
// the mirroring pipeline.
//
// All backend-scoped methods accept a BackendID parameter for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
type MetricsCollector interface {
	// ----------------------
	// Dispatch
	// ----------------------

	// IncOperationTotal increments the total dispatched-operation counter.
	IncOperationTotal(backend BackendID, kind OpKind)

	// IncOperationError increments the operation error counter.
	IncOperationError(backend BackendID, kind OpKind)

	// ObserveOperationDuration records an operation's duration in seconds.
	ObserveOperationDuration(backend BackendID, kind OpKind, seconds float64)

	// ----------------------
	// Admission (Flow Controller)
	// ----------------------

	// IncAdmissionGranted increments the counter when the Flow Controller grants a reservation.
	IncAdmissionGranted()

	// IncAdmissionDenied increments the counter when the Flow Controller denies a reservation.
	IncAdmissionDenied()

	// SetOutstandingRequests sets the current number of outstanding secondary reservations.
	SetOutstandingRequests(n int)

	// SetOutstandingBytes sets the current number of outstanding secondary reservation bytes.
	SetOutstandingBytes(n int64)

	// ----------------------
	// Verification
	// ----------------------

	// IncVerified increments the counter when a secondary result matched the primary.
	IncVerified(kind OpKind)

	// IncMismatch increments the counter when a secondary result diverged from the primary.
	IncMismatch(kind OpKind)

	// ----------------------
	// Write-Error Sink
	// ----------------------

	// IncSinkReported increments the counter when a write error is reported to the sink.
	IncSinkReported(kind OpKind)

	// IncSinkDropped increments the counter when a write error report could not be accepted.
	IncSinkDropped(kind OpKind)

	// SetSinkDepth sets the current depth of a queue-backed sink.
	SetSinkDepth(n int)

	// ----------------------
	// Reference Counter
	// ----------------------

	// SetOutstandingReferences sets the current outstanding reference count (async work in flight).
	SetOutstandingReferences(n int64)
}
