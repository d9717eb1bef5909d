package cartstate

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// lineLocks serializes mutations per line id. Entries are dropped once nobody holds or
// waits on them.
type lineLocks struct {
	mu   sync.Mutex
	sems map[string]*lineSem
}

type lineSem struct {
	sem  *semaphore.Weighted
	refs int
}

func newLineLocks() *lineLocks {
	return &lineLocks{sems: make(map[string]*lineSem)}
}

func (l *lineLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.sems[id]
	if !ok {
		entry = &lineSem{sem: semaphore.NewWeighted(1)}
		l.sems[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	if err := entry.sem.Acquire(ctx, 1); err != nil {
		l.done(id, entry)
		return nil, err
	}
	return func() {
		entry.sem.Release(1)
		l.done(id, entry)
	}, nil
}

func (l *lineLocks) done(id string, entry *lineSem) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.sems, id)
	}
	l.mu.Unlock()
}

func (l *lineLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sems)
}
