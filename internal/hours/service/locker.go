package service

import (
	"context"
	"sync"
	"time"

	"github.com/medflow/hours-service/internal/hours/domain"
)

// Locker serializes work on one key. Lock blocks until the key is held or ctx
// ends and returns the release function.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// LockerFunc adapts a function such as database.DB.AdvisoryLock to Locker
type LockerFunc func(ctx context.Context, key string) (func(), error)

// Lock calls f
func (f LockerFunc) Lock(ctx context.Context, key string) (func(), error) {
	return f(ctx, key)
}

// WeekLockKey names the lock guarding one employee-week
func WeekLockKey(employeeID string, weekStart time.Time) string {
	return "hours:" + employeeID + ":" + domain.FormatDate(weekStart)
}

// KeyedLocker is an in-process mutex per key. Entries are dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewKeyedLocker creates an empty keyed locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyedLock)}
}

// Lock implements Locker
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.release(key, kl)
		})
	}, nil
}

func (l *KeyedLocker) release(key string, kl *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// Len returns the number of keys currently held or waited on
func (l *KeyedLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// ChainLocker takes every locker in order and releases them in reverse
type ChainLocker []Locker

// Lock implements Locker
func (c ChainLocker) Lock(ctx context.Context, key string) (func(), error) {
	releases := make([]func(), 0, len(c))
	unlockAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, locker := range c {
		release, err := locker.Lock(ctx, key)
		if err != nil {
			unlockAll()
			return nil, err
		}
		releases = append(releases, release)
	}

	return unlockAll, nil
}
