package sourcing

import (
	"context"
	"fmt"
	"sync"
)

// Locker serializes work on a key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// integrationLockKey is the serialization boundary for one integration
func integrationLockKey(id uint) string {
	return fmt.Sprintf("integration:%d", id)
}

// candidateLockKey serializes imports of one external candidate
func candidateLockKey(id uint) string {
	return fmt.Sprintf("candidate:%d", id)
}

// LocalLocker is a process-local keyed lock that gives up when ctx is done.
// A key is forgotten once no caller holds or waits for it.
type LocalLocker struct {
	mutex sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int // holders and waiters
}

// NewLocalLocker creates an empty local locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*lockSlot)}
}

// Lock blocks until the key is free or ctx is done
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mutex.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mutex.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, slot)
		return nil, fmt.Errorf("failed to acquire lock '%s': %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(key, slot)
		})
	}, nil
}

func (l *LocalLocker) release(key string, slot *lockSlot) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
