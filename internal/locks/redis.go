package locks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethanbaker/sourcing/pkg/sourcing"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a crashed holder can block a key
	DefaultTTL = 15 * time.Minute

	// DefaultRetryInterval is the pause between acquisition attempts
	DefaultRetryInterval = 100 * time.Millisecond

	keyPrefix = "sourcing:lock:"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ sourcing.Locker = (*RedisLocker)(nil)

// RedisLocker is a keyed lock shared by every process using the same Redis
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

// NewClient connects to Redis from a redis:// URL and checks the connection
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	log.Println("[LOCKS]: Redis connected")
	return client, nil
}

// NewRedisLocker creates a locker on client. A zero ttl uses DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: DefaultRetryInterval,
	}
}

// Lock polls until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("failed to acquire lock '%s': %w", key, ctx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock '%s': %w", key, err)
		}
		if acquired {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock '%s': %w", key, ctx.Err())
		}
	}

	return func() {
		// Release even when the holder's context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			log.Printf("[LOCKS]: Failed to release lock '%s': %v", key, err)
		}
	}, nil
}
