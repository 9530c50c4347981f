package locks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/killallgit/parable-studio/pkg/config"
)

const redisKeyPrefix = "parable-studio:lock:"

// Only the holder's token may delete the key
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock using SET NX with a TTL
type RedisLocker struct {
	rdb      *goredis.Client
	ttl      time.Duration
	retry    time.Duration
	ownsConn bool
}

// NewRedisLocker connects to cfg.RedisAddr and verifies the connection
func NewRedisLocker(cfg config.LocksConfig) (*RedisLocker, error) {
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	locker := NewRedisLockerWithClient(rdb, cfg.TTL)
	locker.ownsConn = true
	return locker, nil
}

// NewRedisLockerWithClient wraps an existing client
func NewRedisLockerWithClient(rdb *goredis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 45 * time.Minute
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: 200 * time.Millisecond}
}

// Close closes the connection when the locker opened it
func (l *RedisLocker) Close() error {
	if l.ownsConn {
		return l.rdb.Close()
	}
	return nil
}

// Lock polls SET NX until it succeeds or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		unlock, err := l.TryLock(ctx, key)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrNotAcquired) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TryLock implements Locker
func (l *RedisLocker) TryLock(ctx context.Context, key string) (Unlock, error) {
	token := uuid.NewString()
	full := redisKeyPrefix + key

	ok, err := l.rdb.SetNX(ctx, full, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.rdb, []string{full}, token).Err()
	}, nil
}
