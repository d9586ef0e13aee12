package mirror

import (
	"context"
	"sync"

	"github.com/prash-mi/hbase-mirror/types"
)

// MirroringScanner streams rows from the primary backend and, when the
// scan is sampled, advances a secondary scanner in lockstep, scheduling a
// verification for each row delivered to the caller. It implements
// Scanner.
type MirroringScanner struct {
	table   *Table
	primary Scanner

	sampled   bool
	secondary Scanner
	release   func()
	rowCh     chan types.Row
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ Scanner = (*MirroringScanner)(nil)

// scannerRowBuffer bounds how many rows may be queued for secondary
// verification before Next starts dropping new rows' verification rather
// than apply backpressure to the caller.
const scannerRowBuffer = 256

// newMirroringScanner opens the secondary scanner, if the scan is
// sampled, and starts the background verification loop that advances it.
// Failure to sample, to acquire a Reference Counter hold, or to open the
// secondary scanner all degrade to an unmirrored scan rather than failing
// the primary scan.
func newMirroringScanner(ctx context.Context, t *Table, scan types.ScanRange, primary Scanner) *MirroringScanner {
	s := &MirroringScanner{table: t, primary: primary}

	if t.config.ReadSampler == nil || !t.config.ReadSampler.ShouldSample(types.Operation{Kind: types.OpScan}) {
		return s
	}

	release, ok := t.refs.Hold()
	if !ok {
		return s
	}

	secondary, err := t.secondary.GetScanner(ctx, scan)
	if err != nil {
		release()
		t.config.Logger.Debug("secondary scanner open failed", "error", err.Error())
		return s
	}

	s.sampled = true
	s.secondary = secondary
	s.release = release
	s.rowCh = make(chan types.Row, scannerRowBuffer)

	s.wg.Add(1)
	go s.verifyLoop(ctx)

	return s
}

// Next advances the primary scanner and, for a sampled scan, enqueues the
// row for lockstep secondary verification. Enqueueing never blocks: a
// verification loop that falls behind causes later rows to skip
// verification rather than slow the caller's scan.
func (s *MirroringScanner) Next(ctx context.Context) (types.Row, bool, error) {
	row, ok, err := s.primary.Next(ctx)
	if err != nil || !ok {
		return row, ok, err
	}

	if s.sampled {
		select {
		case s.rowCh <- row:
		default:
			s.table.config.Logger.Debug("secondary scan verification dropped", "row", string(row.Key))
		}
	}

	return row, true, nil
}

// Close closes the primary scanner and, for a sampled scan, awaits every
// verification already enqueued before releasing the scanner's Reference
// Counter hold. Close is idempotent.
func (s *MirroringScanner) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.primary.Close()
		if s.sampled {
			close(s.rowCh)
			s.wg.Wait()
		}
	})
	return err
}

// verifyLoop advances the secondary scanner one row per primary row
// received on rowCh, in order, since a Scanner is not safe for concurrent
// use. It exits once rowCh is closed and drained, then closes the
// secondary scanner and releases the Reference Counter hold.
func (s *MirroringScanner) verifyLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.release()
	defer s.secondary.Close()

	for row := range s.rowCh {
		secRow, ok, err := s.secondary.Next(ctx)

		var secRes types.Result
		switch {
		case err != nil:
			secRes = types.Result{Err: err}
		case !ok:
			secRes = types.Result{Err: types.ErrInterrupted}
		default:
			secRes = types.Result{Row: secRow}
		}

		s.table.config.Metrics.IncOperationTotal(types.Secondary, types.OpScan)
		if secRes.Err != nil {
			s.table.config.Metrics.IncOperationError(types.Secondary, types.OpScan)
		}

		op := types.Operation{Kind: types.OpScan, Get: &types.Get{Row: row.Key}}
		s.table.verifier.Verify(op, types.Result{Row: row}, secRes)
	}
}
