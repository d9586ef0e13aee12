package mirror

import (
	"context"

	"github.com/prash-mi/hbase-mirror/internal/metrics"
	"github.com/prash-mi/hbase-mirror/tracer"
	"github.com/prash-mi/hbase-mirror/types"
)

// The helpers in this file exist only to let the external mirror_test
// package white-box test secondaryAdapter without importing test/testutil
// into package mirror itself (which would create an import cycle, since
// test/testutil imports mirror). They are test-only: this file is never
// compiled into non-test builds.

func NewTestSecondaryAdapter(backend Backend) *secondaryAdapter {
	return &secondaryAdapter{
		backend: backend,
		refs:    NewRefCounter(nil),
		tracer:  tracer.NewNopTracer(),
		metrics: metrics.NewNopMetrics(),
	}
}

func (a *secondaryAdapter) TestDispatch(ctx context.Context, op types.Operation, done func(types.Result)) error {
	return a.dispatch(ctx, op, done)
}

func (a *secondaryAdapter) TestSetFlowController(fc FlowController) {
	a.flow = fc
}

func (a *secondaryAdapter) TestCloseRefs() {
	a.refs.Close()
}

// TestScannerRowBuffer exposes scannerRowBuffer for external black-box
// tests that need to exceed it to exercise backpressure behavior.
const TestScannerRowBuffer = scannerRowBuffer

func (s *MirroringScanner) TestSampled() bool {
	return s.sampled
}
