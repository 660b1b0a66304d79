package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// holder whose TTL lapsed cannot free somebody else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the TTL only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisConfig tunes a RedisLocker.
type RedisConfig struct {
	// TTL bounds how long a crashed holder can keep a key.
	TTL time.Duration
	// RetryInterval is the pause between SET NX attempts.
	RetryInterval time.Duration
	// RefreshInterval is how often a held lock has its TTL extended, so a
	// slow holder keeps the key for as long as it is alive.
	RefreshInterval time.Duration
}

// RedisLocker is a Locker shared by every instance talking to the same Redis.
type RedisLocker struct {
	client *redis.Client
	cfg    RedisConfig
	logger *slog.Logger
}

// NewRedisLocker creates a RedisLocker. Zero config values get defaults of
// a 5s TTL, a 25ms retry interval and a refresh every third of the TTL.
func NewRedisLocker(client *redis.Client, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if cfg.RefreshInterval <= 0 || cfg.RefreshInterval >= cfg.TTL {
		cfg.RefreshInterval = cfg.TTL / 3
	}
	return &RedisLocker{client: client, cfg: cfg, logger: logger}
}

// Acquire implements Locker with SET NX PX and a random token.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaser(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// releaser starts the TTL watchdog and returns the func that stops it and
// deletes the key.
func (l *RedisLocker) releaser(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// The caller's context may already be cancelled; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.WarnContext(ctx, "failed to release lock",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
			}
		})
	}
}

// keepAlive extends the key's TTL every RefreshInterval until stop is
// closed or the token is no longer ours.
func (l *RedisLocker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RefreshInterval)
		n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.cfg.TTL.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("failed to extend lock", slog.String("key", key), slog.String("error", err.Error()))
		case n == 0:
			l.logger.Warn("lock lost before release", slog.String("key", key))
			return
		}
	}
}
