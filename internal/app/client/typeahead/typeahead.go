// Package typeahead runs search-as-you-type where only the most recent query
// may ever deliver results.
package typeahead

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"mincadmin/internal/domain/record"
)

const (
	DefaultDebounce = 250 * time.Millisecond
	DefaultLimit    = 10
)

var (
	ErrSuperseded = errors.New("typeahead: superseded by a newer query")
	ErrClosed     = errors.New("typeahead: closed")
)

type SearchFunc func(ctx context.Context, q string) ([]record.Summary, error)

// ResultFunc receives results of Submit. err is never ErrSuperseded.
type ResultFunc func(q string, items []record.Summary, err error)

type Option func(*Searcher)

func WithDebounce(d time.Duration) Option {
	return func(s *Searcher) { s.debounce = d }
}

func WithLimit(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Searcher) { s.log = log }
}

type Searcher struct {
	search   SearchFunc
	debounce time.Duration
	limit    int
	log      *slog.Logger
	deb      *Debouncer

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

func New(search SearchFunc, opts ...Option) *Searcher {
	s := &Searcher{
		search:   search,
		debounce: DefaultDebounce,
		limit:    DefaultLimit,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deb = NewDebouncer(s.debounce)
	s.log = s.log.With(slog.String("component", "typeahead"))
	return s
}

// Ticket reserves a place in the query order. Only the newest ticket may
// deliver results.
type Ticket uint64

// Begin supersedes every outstanding query and returns the ticket of the next
// one. Call it where keystrokes are ordered, then pass the ticket to Run.
func (s *Searcher) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	return Ticket(s.seq)
}

// start binds ticket to a cancellable context, unless it is already stale.
func (s *Searcher) start(ctx context.Context, ticket uint64) (context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}
	if s.seq != ticket {
		return nil, nil, ErrSuperseded
	}
	qctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return qctx, cancel, nil
}

func (s *Searcher) current(ticket uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.seq == ticket
}

func (s *Searcher) finish(ticket uint64, cancel context.CancelFunc) {
	s.mu.Lock()
	if s.seq == ticket {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()
}

// Query waits out the debounce, then searches. Any earlier query still in
// flight is cancelled and will return ErrSuperseded, even if its response
// arrives later. A blank query returns no results without searching.
func (s *Searcher) Query(ctx context.Context, q string) ([]record.Summary, error) {
	return s.Run(ctx, s.Begin(), q)
}

// Run is Query for a ticket taken earlier with Begin. A ticket that is no
// longer the newest returns ErrSuperseded without searching.
func (s *Searcher) Run(ctx context.Context, ticket Ticket, q string) ([]record.Summary, error) {
	return s.query(ctx, uint64(ticket), q, s.debounce)
}

func (s *Searcher) query(ctx context.Context, ticket uint64, q string, wait time.Duration) ([]record.Summary, error) {
	qctx, cancel, err := s.start(ctx, ticket)
	if err != nil {
		return nil, err
	}
	defer s.finish(ticket, cancel)

	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-qctx.Done():
			timer.Stop()
			return nil, s.cancelled(ctx)
		case <-timer.C:
		}
	}

	items, err := s.search(qctx, q)
	if !s.current(ticket) {
		s.log.Debug("dropping stale results", slog.String("q", q))
		return nil, s.cancelled(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(items) > s.limit {
		items = items[:s.limit]
	}
	return items, nil
}

func (s *Searcher) cancelled(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return ErrSuperseded
}

// Submit is the keystroke entry point: it cancels the outstanding search
// immediately and delivers the latest query's results to fn in the
// background. Superseded queries never reach fn.
func (s *Searcher) Submit(ctx context.Context, q string, fn ResultFunc) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	ticket := s.Begin()

	s.deb.Debounce(func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()

		items, err := s.query(ctx, uint64(ticket), q, 0)
		if errors.Is(err, ErrSuperseded) || errors.Is(err, ErrClosed) || errors.Is(err, context.Canceled) {
			return
		}
		fn(q, items, err)
	})
}

// Close cancels any pending or in-flight query and waits for background
// deliveries to finish. Later calls are no-ops.
func (s *Searcher) Close() {
	s.deb.Cancel()
	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}
