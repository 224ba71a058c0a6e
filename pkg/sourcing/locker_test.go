package sourcing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	t.Run("excludes holders of the same key", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, "a")
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, "a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		// Other keys are independent
		other, err := locker.Lock(ctx, "b")
		require.NoError(t, err)
		other()

		unlock()
		unlock() // releasing twice is harmless

		again, err := locker.Lock(ctx, "a")
		require.NoError(t, err)
		again()
	})

	t.Run("serializes goroutines", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			inside  int
			maxSeen int
			mu      sync.Mutex
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, "shared")
				if !assert.NoError(t, err) {
					return
				}
				defer unlock()

				mu.Lock()
				inside++
				maxSeen = max(maxSeen, inside)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})

	t.Run("forgets released keys", func(t *testing.T) {
		tracked := func() int {
			locker.mutex.Lock()
			defer locker.mutex.Unlock()
			return len(locker.slots)
		}

		for i := range 50 {
			unlock, err := locker.Lock(ctx, integrationLockKey(uint(i)))
			require.NoError(t, err)
			unlock()
		}
		assert.Zero(t, tracked())

		unlock, err := locker.Lock(ctx, "busy")
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, "busy")
		require.Error(t, err)
		assert.Equal(t, 1, tracked())

		unlock()
		assert.Zero(t, tracked())
	})
}
