package mirror

import (
	"sync"
	"sync/atomic"

	"github.com/prash-mi/hbase-mirror/types"
)

// RefCounter tracks outstanding asynchronous secondary work so that Close
// can await full drain before returning. Its value is the number of
// outstanding reservations plus one for "table open"; it starts at one and
// Close releases that initial reservation.
//
// Safe for concurrent use.
type RefCounter struct {
	count     atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
	metrics   types.MetricsCollector
}

// NewRefCounter creates a RefCounter holding one reservation for "table
// open". metrics may be nil, in which case outstanding-reference gauge
// updates are skipped.
func NewRefCounter(metrics types.MetricsCollector) *RefCounter {
	rc := &RefCounter{done: make(chan struct{}), metrics: metrics}
	rc.count.Store(1)
	rc.report()
	return rc
}

// Hold reserves one outstanding asynchronous operation. When ok is true,
// release must be called exactly once when that operation finishes,
// whether it succeeded or failed. When ok is false the counter has already
// drained to zero and no new async work may be scheduled.
func (rc *RefCounter) Hold() (release func(), ok bool) {
	for {
		cur := rc.count.Load()
		if cur <= 0 {
			return nil, false
		}
		if rc.count.CompareAndSwap(cur, cur+1) {
			break
		}
	}
	rc.report()

	var once sync.Once
	return func() {
		once.Do(func() {
			rc.decrement()
		})
	}, true
}

// Close releases the "table open" reservation and returns the completion
// handle. Repeated calls are safe and idempotent, always returning the
// same handle; the handle closes once every outstanding reservation,
// including this one, has been released.
func (rc *RefCounter) Close() <-chan struct{} {
	rc.closeOnce.Do(func() {
		rc.decrement()
	})
	return rc.done
}

// Done returns the channel that closes once the counter reaches zero.
func (rc *RefCounter) Done() <-chan struct{} {
	return rc.done
}

// Outstanding returns the current reservation count.
func (rc *RefCounter) Outstanding() int64 {
	return rc.count.Load()
}

func (rc *RefCounter) decrement() {
	if rc.count.Add(-1) == 0 {
		close(rc.done)
	}
	rc.report()
}

func (rc *RefCounter) report() {
	if rc.metrics != nil {
		rc.metrics.SetOutstandingReferences(rc.count.Load())
	}
}
