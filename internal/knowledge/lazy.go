package knowledge

import (
	"context"
	"sync"
)

// Lazy defers store construction to the first use and shares the result
// with every later caller.
//
// The first call pays the initialization latency; a single winner runs
// the init while concurrent callers block on the mutex and reuse the
// result. A failed init is not cached: the next call retries, so a
// transient startup problem does not poison the process. The holder is
// explicitly constructed and injected, never package-level state.
type Lazy struct {
	init func(context.Context) (*Store, error)

	mu    sync.Mutex
	store *Store
	inits int
}

// NewLazy creates a holder around the given init function.
func NewLazy(init func(context.Context) (*Store, error)) *Lazy {
	return &Lazy{init: init}
}

// Get returns the shared store, constructing it on first use.
func (l *Lazy) Get(ctx context.Context) (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}

	l.inits++
	s, err := l.init(ctx)
	if err != nil {
		return nil, err
	}
	l.store = s
	return s, nil
}

// InitCount reports how many times the init function has run.
// A successfully initialized holder reports 1 regardless of call count.
func (l *Lazy) InitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inits
}
