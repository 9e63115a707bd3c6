package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"homilet-backend/internal/domain"
)

// DebounceDelay is how long the search controller waits after the last
// keystroke before firing a request.
const DebounceDelay = 300 * time.Millisecond

// SearchController debounces keystrokes into search requests and guarantees
// that only the latest query's results are ever delivered, even when an older
// request finishes after a newer one.
type SearchController struct {
	Fetch     func(ctx context.Context, query string) ([]domain.Property, error)
	Delay     time.Duration // zero means DebounceDelay
	OnResults func(query string, results []domain.Property)
	OnError   func(query string, err error)

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	seq    uint64
}

func (sc *SearchController) delay() time.Duration {
	if sc.Delay > 0 {
		return sc.Delay
	}
	return DebounceDelay
}

// SetQuery records a keystroke. The pending timer restarts; any in-flight
// request for an older query is cancelled. An empty query clears results
// immediately without touching the network.
func (sc *SearchController) SetQuery(query string) {
	sc.mu.Lock()

	sc.seq++
	seq := sc.seq

	if sc.timer != nil {
		sc.timer.Stop()
		sc.timer = nil
	}
	if sc.cancel != nil {
		sc.cancel()
		sc.cancel = nil
	}

	if strings.TrimSpace(query) == "" {
		// The clear must land before any later query's results: deliver it
		// synchronously, outside the lock. The seq bump above already makes
		// any in-flight response stale.
		cb := sc.OnResults
		sc.mu.Unlock()
		if cb != nil {
			cb("", nil)
		}
		return
	}

	sc.timer = time.AfterFunc(sc.delay(), func() {
		sc.fire(seq, query)
	})
	sc.mu.Unlock()
}

func (sc *SearchController) fire(seq uint64, query string) {
	sc.mu.Lock()
	if seq != sc.seq {
		sc.mu.Unlock()
		return // a newer keystroke superseded this one before it fired
	}
	ctx, cancel := context.WithCancel(context.Background())
	sc.cancel = cancel
	sc.mu.Unlock()

	results, err := sc.Fetch(ctx, query)

	sc.mu.Lock()
	stale := seq != sc.seq
	sc.mu.Unlock()
	if stale || ctx.Err() != nil {
		return // results for an abandoned query are dropped, never rendered
	}

	if err != nil {
		if sc.OnError != nil {
			sc.OnError(query, err)
		}
		return
	}
	if sc.OnResults != nil {
		sc.OnResults(query, results)
	}
}

// Stop cancels any pending or in-flight search.
func (sc *SearchController) Stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.seq++
	if sc.timer != nil {
		sc.timer.Stop()
		sc.timer = nil
	}
	if sc.cancel != nil {
		sc.cancel()
		sc.cancel = nil
	}
}
