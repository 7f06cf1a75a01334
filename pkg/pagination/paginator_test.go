package pagination

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/Sternrassler/arweave-whitelist/pkg/errs"
)

func strPtr(s string) *string { return &s }

// step is one scripted fetcher reply.
type step struct {
	page Page
	err  error
}

// scriptedFetcher replays steps in order and records the cursors it was given.
type scriptedFetcher struct {
	steps   []step
	cursors []*string
}

func (f *scriptedFetcher) FetchPage(_ context.Context, cursor *string) (Page, error) {
	f.cursors = append(f.cursors, cursor)
	i := len(f.cursors) - 1
	if i >= len(f.steps) {
		return Page{}, errors.New("fetcher called more often than scripted")
	}
	return f.steps[i].page, f.steps[i].err
}

// countingWaiter counts waits without sleeping.
type countingWaiter struct {
	waits int
	err   error
}

func (w *countingWaiter) Wait(context.Context) error {
	w.waits++
	return w.err
}

func newTestPaginator(f PageFetcher, cfg Config) (*Paginator, *countingWaiter) {
	p := NewPaginator(f, cfg)
	w := &countingWaiter{}
	p.SetPacer(w)
	return p, w
}

func TestCollect_HappyPath(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A", "B"}, NextCursor: strPtr("c1")}},
		{page: Page{Items: []string{"C"}, NextCursor: nil}},
	}}
	p, w := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(rs.Items, want) {
		t.Errorf("Items = %v, want %v", rs.Items, want)
	}
	if len(f.cursors) != 2 {
		t.Errorf("fetches = %d, want 2", len(f.cursors))
	}
	if w.waits != 1 {
		t.Errorf("delays = %d, want 1", w.waits)
	}
	if rs.Pages != 2 || rs.Reason != StopExhausted {
		t.Errorf("Pages=%d Reason=%s, want 2/exhausted", rs.Pages, rs.Reason)
	}
}

func TestCollect_CursorCarriedForward(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A"}, NextCursor: strPtr("c1")}},
		{page: Page{Items: []string{"B"}, NextCursor: strPtr("c2")}},
		{page: Page{Items: nil, NextCursor: nil}},
	}}
	p, _ := newTestPaginator(f, DefaultConfig())

	if _, err := p.Collect(context.Background()); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if f.cursors[0] != nil {
		t.Errorf("first cursor = %q, want nil", *f.cursors[0])
	}
	for i, want := range []string{"c1", "c2"} {
		got := f.cursors[i+1]
		if got == nil || *got != want {
			t.Errorf("cursor %d = %v, want %q", i+1, got, want)
		}
	}
}

func TestCollect_ImmediateEmpty(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{}, NextCursor: nil}},
	}}
	p, w := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if rs.Items == nil || len(rs.Items) != 0 {
		t.Errorf("Items = %#v, want empty non-nil slice", rs.Items)
	}
	if len(f.cursors) != 1 {
		t.Errorf("fetches = %d, want 1", len(f.cursors))
	}
	if w.waits != 0 {
		t.Errorf("delays = %d, want 0", w.waits)
	}
}

func TestCollect_MidRunNetworkFailure(t *testing.T) {
	timeout := errs.Network("graphql request", true, context.DeadlineExceeded)
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A"}, NextCursor: strPtr("c1")}},
		{err: timeout},
	}}
	p, _ := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect() should report the failure")
	}

	if want := []string{"A"}; !reflect.DeepEqual(rs.Items, want) {
		t.Errorf("Items = %v, want %v", rs.Items, want)
	}
	if kind := errs.KindOf(err); kind != errs.KindNetwork {
		t.Errorf("KindOf() = %s, want network", kind)
	}
	if !errors.Is(err, timeout) {
		t.Errorf("error should wrap the fetcher error, got %v", err)
	}
	if rs.Reason != StopFailed {
		t.Errorf("Reason = %s, want failed", rs.Reason)
	}
	if rs.LastCursor == nil || *rs.LastCursor != "c1" {
		t.Errorf("LastCursor = %v, want c1", rs.LastCursor)
	}
}

func TestCollect_FailureKindsPreservePriorItems(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.Kind
	}{
		{name: "http status", err: errs.HTTP("graphql request", 503, ""), kind: errs.KindHTTP},
		{name: "errors member", err: errs.Response("graphql request", `[{"message":"x"}]`, nil), kind: errs.KindResponse},
		{name: "foreign error", err: errors.New("boom"), kind: errs.KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &scriptedFetcher{steps: []step{
				{page: Page{Items: []string{"A", "B"}, NextCursor: strPtr("c1")}},
				{page: Page{Items: []string{"C"}, NextCursor: strPtr("c2")}},
				{err: tt.err},
			}}
			p, _ := newTestPaginator(f, DefaultConfig())

			rs, err := p.Collect(context.Background())

			if want := []string{"A", "B", "C"}; !reflect.DeepEqual(rs.Items, want) {
				t.Errorf("Items = %v, want %v", rs.Items, want)
			}
			if got := errs.KindOf(err); got != tt.kind {
				t.Errorf("KindOf() = %s, want %s", got, tt.kind)
			}
			if len(f.cursors) != 3 {
				t.Errorf("fetches = %d, want 3", len(f.cursors))
			}
		})
	}
}

func TestCollect_FirstFetchFails(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{err: errs.HTTP("graphql request", 500, "")},
	}}
	p, w := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(context.Background())
	if err == nil {
		t.Fatal("Collect() should fail")
	}
	if rs == nil {
		t.Fatal("ResultSet must not be nil")
	}
	if len(rs.Items) != 0 || rs.Pages != 0 {
		t.Errorf("Items=%v Pages=%d, want empty", rs.Items, rs.Pages)
	}
	if w.waits != 0 {
		t.Errorf("delays = %d, want 0", w.waits)
	}
}

func TestCollect_DuplicatesKept(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A", "A"}, NextCursor: strPtr("c1")}},
		{page: Page{Items: []string{"B", "A"}, NextCursor: strPtr("c2")}},
		{page: Page{}},
	}}
	p, _ := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if want := []string{"A", "A", "B", "A"}; !reflect.DeepEqual(rs.Items, want) {
		t.Errorf("Items = %v, want %v", rs.Items, want)
	}
}

func TestCollect_MaxPages(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A"}, NextCursor: strPtr("c1")}},
		{page: Page{Items: []string{"B"}, NextCursor: strPtr("c2")}},
		{page: Page{Items: []string{"C"}, NextCursor: strPtr("c3")}},
	}}
	p, w := newTestPaginator(f, Config{MaxPages: 2})

	rs, err := p.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if want := []string{"A", "B"}; !reflect.DeepEqual(rs.Items, want) {
		t.Errorf("Items = %v, want %v", rs.Items, want)
	}
	if rs.Reason != StopPageLimit {
		t.Errorf("Reason = %s, want page_limit", rs.Reason)
	}
	if w.waits != 1 {
		t.Errorf("delays = %d, want 1", w.waits)
	}
	if rs.LastCursor == nil || *rs.LastCursor != "c2" {
		t.Errorf("LastCursor = %v, want c2", rs.LastCursor)
	}
}

func TestCollect_MaxItems(t *testing.T) {
	tests := []struct {
		name     string
		maxItems int
		want     []string
		reason   StopReason
		fetches  int
	}{
		{name: "truncates mid page", maxItems: 3, want: []string{"A", "B", "C"}, reason: StopItemLimit, fetches: 2},
		{name: "exact page boundary", maxItems: 2, want: []string{"A", "B"}, reason: StopItemLimit, fetches: 1},
		{name: "above total", maxItems: 10, want: []string{"A", "B", "C", "D"}, reason: StopExhausted, fetches: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &scriptedFetcher{steps: []step{
				{page: Page{Items: []string{"A", "B"}, NextCursor: strPtr("c1")}},
				{page: Page{Items: []string{"C", "D"}, NextCursor: nil}},
			}}
			p, _ := newTestPaginator(f, Config{MaxItems: tt.maxItems})

			rs, err := p.Collect(context.Background())
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if !reflect.DeepEqual(rs.Items, tt.want) {
				t.Errorf("Items = %v, want %v", rs.Items, tt.want)
			}
			if rs.Reason != tt.reason {
				t.Errorf("Reason = %s, want %s", rs.Reason, tt.reason)
			}
			if len(f.cursors) != tt.fetches {
				t.Errorf("fetches = %d, want %d", len(f.cursors), tt.fetches)
			}
		})
	}
}

func TestCollect_CancelledDuringDelay(t *testing.T) {
	f := &scriptedFetcher{steps: []step{
		{page: Page{Items: []string{"A"}, NextCursor: strPtr("c1")}},
	}}
	p := NewPaginator(f, DefaultConfig())
	p.SetPacer(&countingWaiter{err: context.Canceled})

	rs, err := p.Collect(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Collect() error = %v, want context.Canceled", err)
	}
	if rs.Reason != StopCancelled {
		t.Errorf("Reason = %s, want cancelled", rs.Reason)
	}
	if want := []string{"A"}; !reflect.DeepEqual(rs.Items, want) {
		t.Errorf("Items = %v, want %v", rs.Items, want)
	}
	if len(f.cursors) != 1 {
		t.Errorf("fetches = %d, want 1", len(f.cursors))
	}
}

func TestCollect_CancelledContextMarksFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &scriptedFetcher{steps: []step{
		{err: errs.Network("graphql request", false, context.Canceled)},
	}}
	p, _ := newTestPaginator(f, DefaultConfig())

	rs, err := p.Collect(ctx)
	if err == nil {
		t.Fatal("Collect() should fail")
	}
	if rs.Reason != StopCancelled {
		t.Errorf("Reason = %s, want cancelled", rs.Reason)
	}
}

func TestNewPaginator_NormalizesBounds(t *testing.T) {
	p := NewPaginator(&scriptedFetcher{}, Config{MaxPages: -1, MaxItems: -5})

	if p.config.MaxPages != 0 || p.config.MaxItems != 0 {
		t.Errorf("bounds = %d/%d, want 0/0", p.config.MaxPages, p.config.MaxItems)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Delay.Seconds() != 1 {
		t.Errorf("Delay = %v, want 1s", cfg.Delay)
	}
	if cfg.MaxPages != 0 || cfg.MaxItems != 0 {
		t.Error("DefaultConfig should be unbounded")
	}
}

func TestCollect_MaxItemsLastCursor(t *testing.T) {
	tests := []struct {
		name     string
		maxItems int
		want     *string
	}{
		{name: "first page clipped", maxItems: 1, want: nil},
		{name: "second page clipped", maxItems: 3, want: strPtr("c1")},
		{name: "page boundary", maxItems: 4, want: strPtr("c2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &scriptedFetcher{steps: []step{
				{page: Page{Items: []string{"A", "B"}, NextCursor: strPtr("c1")}},
				{page: Page{Items: []string{"C", "D"}, NextCursor: strPtr("c2")}},
			}}
			p, _ := newTestPaginator(f, Config{MaxItems: tt.maxItems})

			rs, err := p.Collect(context.Background())
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if rs.Reason != StopItemLimit {
				t.Errorf("Reason = %s, want item_limit", rs.Reason)
			}
			if !reflect.DeepEqual(rs.LastCursor, tt.want) {
				t.Errorf("LastCursor = %v, want %v", rs.LastCursor, tt.want)
			}
		})
	}
}
