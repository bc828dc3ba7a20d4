package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
)

// InMemoryRunLock implements RunLock using an in-memory map.
// It only excludes runs within one process.
type InMemoryRunLock struct {
	mu        sync.Mutex
	locks     map[uuid.UUID]time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRunLock creates a new in-memory run lock.
// It starts a background goroutine to drop expired locks.
func NewInMemoryRunLock() *InMemoryRunLock {
	l := &InMemoryRunLock{
		locks:    make(map[uuid.UUID]time.Time),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Acquire takes the lock of a sales channel for ttl.
// An expired lock is taken over.
func (l *InMemoryRunLock) Acquire(_ context.Context, salesChannelID uuid.UUID, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiresAt, held := l.locks[salesChannelID]; held && time.Now().Before(expiresAt) {
		return false, nil
	}
	l.locks[salesChannelID] = time.Now().Add(ttl)
	return true, nil
}

// Release gives the lock of a sales channel back
func (l *InMemoryRunLock) Release(_ context.Context, salesChannelID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, salesChannelID)
	return nil
}

// Close stops the cleanup goroutine.
// Safe to call multiple times
func (l *InMemoryRunLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

func (l *InMemoryRunLock) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryRunLock) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for id, expiresAt := range l.locks {
		if now.After(expiresAt) {
			delete(l.locks, id)
		}
	}
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ integration.RunLock = (*InMemoryRunLock)(nil)
