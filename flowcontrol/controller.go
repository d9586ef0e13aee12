// Package flowcontrol implements admission control for the secondary write
// path of the mirroring client.
//
// The secondary backend is never allowed to apply backpressure to callers:
// a caller that is waiting on the primary must never also wait on the
// secondary's queue depth. Instead, the controller admits or denies each
// secondary write attempt immediately, using a bounded, non-blocking
// semaphore over both the number of outstanding secondary requests and the
// total bytes they occupy.
package flowcontrol

import (
	"sync/atomic"

	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/types"
)

// Option configures a BoundedController.
type Option func(*BoundedController)

// WithMaxOutstandingRequests sets the maximum number of secondary requests
// that may be admitted concurrently. A value of 0 disables the
// request-count check.
//
// Default: 500
func WithMaxOutstandingRequests(n int) Option {
	return func(c *BoundedController) {
		c.maxRequests = int64(n)
	}
}

// WithMaxOutstandingBytes sets the maximum total approximate request size,
// in bytes, that may be admitted concurrently. A value of 0 disables the
// byte-budget check.
//
// Default: 0 (disabled)
func WithMaxOutstandingBytes(n int64) Option {
	return func(c *BoundedController) {
		c.maxBytes = n
	}
}

// WithMetrics sets the metrics collector used to report admission decisions
// and outstanding-resource gauges.
func WithMetrics(m types.MetricsCollector) Option {
	return func(c *BoundedController) {
		c.metrics = m
	}
}

// BoundedController is a non-blocking admission controller over a fixed
// budget of outstanding secondary requests and bytes.
//
// Admission never blocks: a request that would exceed either budget is
// denied immediately via ErrAdmissionDenied, never queued.
type BoundedController struct {
	maxRequests int64
	maxBytes    int64

	outstandingRequests atomic.Int64
	outstandingBytes    atomic.Int64

	metrics types.MetricsCollector
}

// NewBoundedController creates a new BoundedController.
func NewBoundedController(opts ...Option) *BoundedController {
	c := &BoundedController{
		maxRequests: 500,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.metrics == nil {
		c.metrics = metrics.NewNopMetrics()
	}

	return c
}

// TryAdmit attempts to admit a request described by resources. It never
// blocks: on success, the caller must call the returned release function
// exactly once when the secondary request completes. On denial, it returns
// a *types.AdmissionError wrapping types.ErrAdmissionDenied and a nil
// release function.
func (c *BoundedController) TryAdmit(resources types.RequestResourcesDescription) (release func(), err error) {
	if c.maxRequests > 0 && c.outstandingRequests.Load()+int64(resources.NumOperations) > c.maxRequests {
		c.metrics.IncAdmissionDenied()
		return nil, &types.AdmissionError{Resources: resources, Cause: types.ErrAdmissionDenied}
	}
	if c.maxBytes > 0 && c.outstandingBytes.Load()+resources.ApproxBytes > c.maxBytes {
		c.metrics.IncAdmissionDenied()
		return nil, &types.AdmissionError{Resources: resources, Cause: types.ErrAdmissionDenied}
	}

	newRequests := c.outstandingRequests.Add(int64(resources.NumOperations))
	newBytes := c.outstandingBytes.Add(resources.ApproxBytes)

	if (c.maxRequests > 0 && newRequests > c.maxRequests) || (c.maxBytes > 0 && newBytes > c.maxBytes) {
		// Lost a race against a concurrent admission; back out and deny.
		c.outstandingRequests.Add(-int64(resources.NumOperations))
		c.outstandingBytes.Add(-resources.ApproxBytes)
		c.metrics.IncAdmissionDenied()
		return nil, &types.AdmissionError{Resources: resources, Cause: types.ErrAdmissionDenied}
	}

	c.metrics.IncAdmissionGranted()
	c.metrics.SetOutstandingRequests(int(newRequests))
	c.metrics.SetOutstandingBytes(newBytes)

	released := make(chan struct{})
	release = func() {
		select {
		case <-released:
			return
		default:
			close(released)
		}
		c.outstandingRequests.Add(-int64(resources.NumOperations))
		c.outstandingBytes.Add(-resources.ApproxBytes)
		c.metrics.SetOutstandingRequests(int(c.outstandingRequests.Load()))
		c.metrics.SetOutstandingBytes(c.outstandingBytes.Load())
	}

	return release, nil
}

// OutstandingRequests reports the current number of admitted, not-yet-released
// requests.
func (c *BoundedController) OutstandingRequests() int {
	return int(c.outstandingRequests.Load())
}

// OutstandingBytes reports the current total approximate size, in bytes, of
// admitted, not-yet-released requests.
func (c *BoundedController) OutstandingBytes() int64 {
	return c.outstandingBytes.Load()
}
