package typeahead

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mincadmin/internal/domain/record"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func rows(q string, n int) []record.Summary {
	out := make([]record.Summary, n)
	for i := range out {
		out[i] = record.Summary{Kind: record.KindInstitution, ID: fmt.Sprintf("VG%05d", i), Title: q}
	}
	return out
}

// gatedSearch answers each query only when its gate is released and ignores
// cancellation, so late responses really do arrive late.
type gatedSearch struct {
	mu      sync.Mutex
	started map[string]chan struct{}
	gates   map[string]chan struct{}
}

func newGated(qs ...string) *gatedSearch {
	g := &gatedSearch{started: map[string]chan struct{}{}, gates: map[string]chan struct{}{}}
	for _, q := range qs {
		g.started[q] = make(chan struct{})
		g.gates[q] = make(chan struct{})
	}
	return g
}

func (g *gatedSearch) search(_ context.Context, q string) ([]record.Summary, error) {
	g.mu.Lock()
	started, gate := g.started[q], g.gates[q]
	g.mu.Unlock()
	close(started)
	<-gate
	return rows(q, 1), nil
}

type outcome struct {
	items []record.Summary
	err   error
}

func TestSearcher_LastRequestWins(t *testing.T) {
	g := newGated("a", "ab", "abc")
	s := New(g.search, WithDebounce(0))
	defer s.Close()

	results := map[string]chan outcome{}
	for _, q := range []string{"a", "ab", "abc"} {
		ch := make(chan outcome, 1)
		results[q] = ch
		go func(q string) {
			items, err := s.Query(context.Background(), q)
			ch <- outcome{items, err}
		}(q)
		<-g.started[q]
	}

	// Responses arrive newest first, then the stale ones.
	close(g.gates["abc"])
	close(g.gates["a"])
	close(g.gates["ab"])

	abc := <-results["abc"]
	require.NoError(t, abc.err)
	require.Len(t, abc.items, 1)
	assert.Equal(t, "abc", abc.items[0].Title)

	for _, q := range []string{"a", "ab"} {
		out := <-results[q]
		assert.ErrorIs(t, out.err, ErrSuperseded, q)
		assert.Nil(t, out.items, q)
	}
}

func TestSearcher_TicketOrderNotRunOrder(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, q string) ([]record.Summary, error) {
		calls.Add(1)
		return rows(q, 1), nil
	}, WithDebounce(0))
	defer s.Close()

	ctx := context.Background()
	ta := s.Begin()
	tab := s.Begin()

	// The newer query runs first, the older one after it.
	items, err := s.Run(ctx, tab, "ab")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ab", items[0].Title)

	items, err = s.Run(ctx, ta, "a")
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, items)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearcher_BlankQuery(t *testing.T) {
	var calls atomic.Int32
	s := New(func(context.Context, string) ([]record.Summary, error) {
		calls.Add(1)
		return nil, nil
	}, WithDebounce(0))
	defer s.Close()

	for _, q := range []string{"", "   ", "\t\n"} {
		items, err := s.Query(context.Background(), q)
		assert.NoError(t, err)
		assert.Empty(t, items)
	}
	assert.Zero(t, calls.Load())
}

func TestSearcher_Limit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		found int
		want  int
	}{
		{name: "default cap", found: 25, want: DefaultLimit},
		{name: "fewer than cap", found: 3, want: 3},
		{name: "custom cap", limit: 5, found: 8, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(func(_ context.Context, q string) ([]record.Summary, error) {
				return rows(q, tt.found), nil
			}, WithDebounce(0), WithLimit(tt.limit))
			defer s.Close()

			items, err := s.Query(context.Background(), "austin")
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}

func TestSearcher_DebounceSkipsSupersededQueries(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, q string) ([]record.Summary, error) {
		calls.Add(1)
		return rows(q, 1), nil
	}, WithDebounce(100*time.Millisecond))
	defer s.Close()

	first := make(chan error, 1)
	go func() {
		_, err := s.Query(context.Background(), "a")
		first <- err
	}()
	time.Sleep(10 * time.Millisecond)

	items, err := s.Query(context.Background(), "ab")
	require.NoError(t, err)
	assert.Equal(t, "ab", items[0].Title)
	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearcher_ParentCancelled(t *testing.T) {
	s := New(func(ctx context.Context, _ string) ([]record.Summary, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, WithDebounce(0))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Query(ctx, "x")
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestSearcher_CloseCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	s := New(func(ctx context.Context, _ string) ([]record.Summary, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, WithDebounce(0))

	done := make(chan error, 1)
	go func() {
		_, err := s.Query(context.Background(), "x")
		done <- err
	}()
	<-started
	s.Close()

	assert.ErrorIs(t, <-done, ErrClosed)
	_, err := s.Query(context.Background(), "y")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSearcher_Submit(t *testing.T) {
	var calls atomic.Int32
	s := New(func(_ context.Context, q string) ([]record.Summary, error) {
		calls.Add(1)
		return rows(q, 2), nil
	}, WithDebounce(30*time.Millisecond))

	got := make(chan string, 3)
	deliver := func(q string, items []record.Summary, err error) {
		assert.NoError(t, err)
		got <- q
	}

	for _, q := range []string{"a", "ab", "abc"} {
		s.Submit(context.Background(), q, deliver)
	}

	select {
	case q := <-got:
		assert.Equal(t, "abc", q)
	case <-time.After(2 * time.Second):
		t.Fatal("no results delivered")
	}
	s.Close()

	assert.Len(t, got, 0)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		d.Debounce(func() { n.Add(1) })
	}
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())

	d.Debounce(func() { n.Add(1) })
	d.Cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), n.Load())
}
