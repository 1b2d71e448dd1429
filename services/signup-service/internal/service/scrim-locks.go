package service

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ScrimLocks serialises validate-then-commit sequences per scrim. Entries
// are reference counted and dropped once nobody holds or waits on them.
type ScrimLocks struct {
	mu    sync.Mutex
	locks map[string]*scrimLock
}

type scrimLock struct {
	sem  *semaphore.Weighted
	refs int
}

func NewScrimLocks() *ScrimLocks {
	return &ScrimLocks{locks: make(map[string]*scrimLock)}
}

// Acquire blocks until the scrim's lock is free or ctx is done. The returned
// release func is safe to call more than once.
func (l *ScrimLocks) Acquire(ctx context.Context, scrimId string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[scrimId]
	if !ok {
		lk = &scrimLock{sem: semaphore.NewWeighted(1)}
		l.locks[scrimId] = lk
	}
	lk.refs++
	l.mu.Unlock()

	if err := lk.sem.Acquire(ctx, 1); err != nil {
		l.unref(scrimId, lk)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lk.sem.Release(1)
			l.unref(scrimId, lk)
		})
	}, nil
}

func (l *ScrimLocks) unref(scrimId string, lk *scrimLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, scrimId)
	}
}

func (l *ScrimLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func (l *ScrimLocks) refs(scrimId string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lk, ok := l.locks[scrimId]; ok {
		return lk.refs
	}
	return 0
}
