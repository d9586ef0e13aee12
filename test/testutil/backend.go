// Package testutil provides fakes and helpers shared by the mirroring
// client's test suites.
package testutil

import (
	"context"
	"sort"
	"sync"

	mirror "github.com/prash-mi/hbase-mirror"
	"github.com/prash-mi/hbase-mirror/types"
)

// FakeBackend is an in-memory mirror.Backend for testing. It keeps rows in
// a map keyed by row key and applies operations against that map using
// the same semantics the wide-column store itself would, so tests can
// assert on observable row state rather than on mock call recordings.
//
// Each single-operation method, Batch, and Close also exposes a hook (e.g.
// OnGet) that, when set, is called instead of the default in-memory
// behavior; the list and scanner methods have none. This lets a test inject
// errors or delays without needing a second fake type.
type FakeBackend struct {
	mu     sync.Mutex
	rows   map[string]types.Row
	closed bool

	OnExists         func(ctx context.Context, get types.Get) (bool, error)
	OnGet            func(ctx context.Context, get types.Get) (types.Row, error)
	OnPut            func(ctx context.Context, put types.Put) error
	OnDelete         func(ctx context.Context, del types.Delete) error
	OnAppend         func(ctx context.Context, a types.Append) (types.Row, error)
	OnIncrement      func(ctx context.Context, inc types.Increment) (types.Row, error)
	OnMutateRow      func(ctx context.Context, rm types.RowMutations) error
	OnCheckAndMutate func(ctx context.Context, cam types.CheckAndMutate) (bool, error)
	OnBatch          func(ctx context.Context, ops []types.Operation) []types.Result
	OnClose          func() error
}

// Compile-time assertion that FakeBackend implements mirror.Backend.
var _ mirror.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{rows: make(map[string]types.Row)}
}

// SeedRow installs a row directly, bypassing Put, for test setup.
func (f *FakeBackend) SeedRow(row types.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[string(row.Key)] = row
}

// Row returns the current stored row for key, for test assertions.
func (f *FakeBackend) Row(key string) (types.Row, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[key]
	return r, ok
}

func (f *FakeBackend) Exists(ctx context.Context, get types.Get) (bool, error) {
	if f.OnExists != nil {
		return f.OnExists(ctx, get)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[string(get.Row)]
	return ok, nil
}

func (f *FakeBackend) ExistsAll(ctx context.Context, gets []types.Get) ([]bool, error) {
	out := make([]bool, len(gets))
	for i, g := range gets {
		ok, err := f.Exists(ctx, g)
		if err != nil {
			return nil, err
		}
		out[i] = ok
	}
	return out, nil
}

func (f *FakeBackend) Get(ctx context.Context, get types.Get) (types.Row, error) {
	if f.OnGet != nil {
		return f.OnGet(ctx, get)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[string(get.Row)], nil
}

func (f *FakeBackend) GetList(ctx context.Context, gets []types.Get) ([]types.Result, error) {
	out := make([]types.Result, len(gets))
	for i, g := range gets {
		row, err := f.Get(ctx, g)
		out[i] = types.Result{Row: row, Err: err}
	}
	return out, nil
}

func (f *FakeBackend) GetScanner(ctx context.Context, scan types.ScanRange) (mirror.Scanner, error) {
	f.mu.Lock()
	keys := make([]string, 0, len(f.rows))
	for k := range f.rows {
		if len(scan.StartRow) > 0 && k < string(scan.StartRow) {
			continue
		}
		if len(scan.StopRow) > 0 && k >= string(scan.StopRow) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if scan.ReverseOrder {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	rows := make([]types.Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, f.rows[k])
	}
	f.mu.Unlock()
	if scan.Limit > 0 && len(rows) > scan.Limit {
		rows = rows[:scan.Limit]
	}
	return &FakeScanner{rows: rows}, nil
}

func (f *FakeBackend) Put(ctx context.Context, put types.Put) error {
	if f.OnPut != nil {
		return f.OnPut(ctx, put)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[string(put.Row)]
	row.Key = put.Row
	row.Cells = mergeCells(row.Cells, put.Cells)
	f.rows[string(put.Row)] = row
	return nil
}

func (f *FakeBackend) PutList(ctx context.Context, puts []types.Put) []error {
	out := make([]error, len(puts))
	for i, p := range puts {
		out[i] = f.Put(ctx, p)
	}
	return out
}

func (f *FakeBackend) Delete(ctx context.Context, del types.Delete) error {
	if f.OnDelete != nil {
		return f.OnDelete(ctx, del)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(del.Families) == 0 {
		delete(f.rows, string(del.Row))
		return nil
	}
	row, ok := f.rows[string(del.Row)]
	if !ok {
		return nil
	}
	filtered := row.Cells[:0]
	for _, c := range row.Cells {
		if !containsFamily(del.Families, c.Family) {
			filtered = append(filtered, c)
		}
	}
	row.Cells = filtered
	f.rows[string(del.Row)] = row
	return nil
}

func (f *FakeBackend) DeleteList(ctx context.Context, dels []types.Delete) []error {
	out := make([]error, len(dels))
	for i, d := range dels {
		out[i] = f.Delete(ctx, d)
	}
	return out
}

func (f *FakeBackend) MutateRow(ctx context.Context, rm types.RowMutations) error {
	if f.OnMutateRow != nil {
		return f.OnMutateRow(ctx, rm)
	}
	for _, p := range rm.Puts {
		if err := f.Put(ctx, p); err != nil {
			return err
		}
	}
	for _, d := range rm.Dels {
		if err := f.Delete(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeBackend) Append(ctx context.Context, a types.Append) (types.Row, error) {
	if f.OnAppend != nil {
		return f.OnAppend(ctx, a)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[string(a.Row)]
	row.Key = a.Row
	result := make([]types.Cell, 0, len(a.Cells))
	for _, c := range a.Cells {
		existing := findCell(row.Cells, c.Family, c.Qualifier)
		merged := c
		if existing != nil {
			merged.Value = append(append([]byte{}, existing.Value...), c.Value...)
		}
		row.Cells = upsertCell(row.Cells, merged)
		result = append(result, merged)
	}
	f.rows[string(a.Row)] = row
	return types.Row{Key: a.Row, Cells: result}, nil
}

func (f *FakeBackend) Increment(ctx context.Context, inc types.Increment) (types.Row, error) {
	if f.OnIncrement != nil {
		return f.OnIncrement(ctx, inc)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	row := f.rows[string(inc.Row)]
	row.Key = inc.Row
	result := make([]types.Cell, 0, len(inc.Cells))
	for _, c := range inc.Cells {
		existing := findCell(row.Cells, c.Family, c.Qualifier)
		sum := decodeInt64(c.Value)
		if existing != nil {
			sum += decodeInt64(existing.Value)
		}
		merged := types.Cell{Family: c.Family, Qualifier: c.Qualifier, Timestamp: c.Timestamp, Value: encodeInt64(sum)}
		row.Cells = upsertCell(row.Cells, merged)
		result = append(result, merged)
	}
	f.rows[string(inc.Row)] = row
	return types.Row{Key: inc.Row, Cells: result}, nil
}

func (f *FakeBackend) CheckAndMutate(ctx context.Context, cam types.CheckAndMutate) (bool, error) {
	if f.OnCheckAndMutate != nil {
		return f.OnCheckAndMutate(ctx, cam)
	}
	f.mu.Lock()
	row, ok := f.rows[string(cam.Row)]
	var current []byte
	if ok {
		if c := findCell(row.Cells, cam.CheckFamily, cam.CheckQualifier); c != nil {
			current = c.Value
		}
	}
	f.mu.Unlock()

	matches := (cam.CheckValue == nil && current == nil) || bytesEqual(current, cam.CheckValue)
	if !matches {
		return false, nil
	}
	if err := f.MutateRow(ctx, cam.Mutation); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FakeBackend) Batch(ctx context.Context, ops []types.Operation) []types.Result {
	if f.OnBatch != nil {
		return f.OnBatch(ctx, ops)
	}
	out := make([]types.Result, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case types.OpGet:
			row, err := f.Get(ctx, *op.Get)
			out[i] = types.Result{Row: row, Err: err}
		case types.OpExists:
			ok, err := f.Exists(ctx, *op.Get)
			out[i] = types.Result{Bool: ok, Err: err}
		case types.OpPut:
			out[i] = types.Result{Err: f.Put(ctx, *op.Put)}
		case types.OpDelete:
			out[i] = types.Result{Err: f.Delete(ctx, *op.Delete)}
		case types.OpAppend:
			row, err := f.Append(ctx, *op.Append)
			out[i] = types.Result{Row: row, Err: err}
		case types.OpIncrement:
			row, err := f.Increment(ctx, *op.Increment)
			out[i] = types.Result{Row: row, Err: err}
		case types.OpRowMutations:
			out[i] = types.Result{Err: f.MutateRow(ctx, *op.RowMutations)}
		case types.OpCheckAndMutate:
			ok, err := f.CheckAndMutate(ctx, *op.CheckAndMutate)
			out[i] = types.Result{Bool: ok, Err: err}
		default:
			out[i] = types.Result{Err: types.ErrNotSupported}
		}
	}
	return out
}

func (f *FakeBackend) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	if f.OnClose != nil {
		return f.OnClose()
	}
	return nil
}

// Closed reports whether Close has been called.
func (f *FakeBackend) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeScanner is the mirror.Scanner counterpart returned by
// FakeBackend.GetScanner.
type FakeScanner struct {
	mu     sync.Mutex
	rows   []types.Row
	idx    int
	closed bool
}

var _ mirror.Scanner = (*FakeScanner)(nil)

func (s *FakeScanner) Next(ctx context.Context) (types.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.rows) {
		return types.Row{}, false, nil
	}
	row := s.rows[s.idx]
	s.idx++
	return row, true, nil
}

func (s *FakeScanner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *FakeScanner) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func mergeCells(existing, incoming []types.Cell) []types.Cell {
	for _, c := range incoming {
		existing = upsertCell(existing, c)
	}
	return existing
}

func upsertCell(cells []types.Cell, c types.Cell) []types.Cell {
	for i, existing := range cells {
		if existing.Family == c.Family && bytesEqual(existing.Qualifier, c.Qualifier) {
			cells[i] = c
			return cells
		}
	}
	return append(cells, c)
}

func findCell(cells []types.Cell, family string, qualifier []byte) *types.Cell {
	for i := range cells {
		if cells[i].Family == family && bytesEqual(cells[i].Qualifier, qualifier) {
			return &cells[i]
		}
	}
	return nil
}

func containsFamily(families []string, family string) bool {
	for _, f := range families {
		if f == family {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func decodeInt64(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

func encodeInt64(v int64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
