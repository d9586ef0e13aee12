// Package mirror provides a dual-write mirroring client for a wide-column
// key-value store.
//
// It presents the ordinary table API — point reads, scans, batched
// mutations, conditional mutations, atomic counters — and dispatches every
// operation to two independent backends, a primary and a secondary. The
// primary's result is always what the caller sees; the secondary is driven
// asynchronously and its results are verified against the primary to
// surface divergence. This is useful while migrating between two stores,
// or to continuously validate that a replica stays consistent with its
// source of truth.
//
// # Key Features
//
//   - Primary-authoritative dispatch: the caller only ever blocks on, and
//     only ever sees errors from, the primary backend.
//   - Admission-controlled secondary mirroring: secondary work is bounded
//     by a Flow Controller and never applies backpressure to the caller.
//   - Verification: primary/secondary divergence is reported through a
//     Mismatch Detector, never surfaced as a caller-visible error.
//   - Write-Error Sink: operations lost on the secondary (admission denial
//     or secondary failure) are reported to the configured sink; with no
//     sink configured they are discarded.
//
// # Basic Usage
//
//	table, err := mirror.NewTable(primaryBackend, secondaryBackend,
//	    mirror.WithFlowController(flowcontrol.NewBoundedController()),
//	    mirror.WithReadSampler(sampler.NewRatioSampler(0.1)),
//	    mirror.WithWriteErrorSink(errorsink.NewMemorySink()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer table.Close()
//
//	result, err := table.Get(ctx, types.Get{Row: []byte("row-1")})
//
// # Error Handling
//
// Primary errors are returned verbatim: Table.Get, Table.Put, and friends
// never wrap or swallow what the primary backend reported. Secondary
// errors are never caller-visible; they are reported through the
// configured Mismatch Detector and Write-Error Sink instead.
//
// # Sentinel Errors
//
//   - types.ErrTableClosed: operation attempted on a closed table.
//   - types.ErrNotSupported: an operation this client deliberately does
//     not implement (configuration/descriptor/coprocessor accessors).
//   - types.ErrAdmissionDenied: the Flow Controller denied a secondary
//     reservation; wrapped in a *types.AdmissionError.
//
// # Non-goals
//
// This client does not implement a consistency protocol between primary
// and secondary (no two-phase commit, no compensating writes), does not
// perform read repair, does not manage schema, and does not retry a
// secondary operation beyond what the backend's own client already does.
package mirror
