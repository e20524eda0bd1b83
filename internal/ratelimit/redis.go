package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisStore keeps rate-limit counters in Redis with per-key expiry, so
// every instance of the service sees the same counts.
type RedisStore struct {
	pool *redis.Pool
}

// NewRedisStore constructs a RedisStore over addr and verifies the
// connection.
func NewRedisStore(addr, password string) (*RedisStore, error) {
	pool := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		Dial: func() (redis.Conn, error) {
			return redis.Dial("tcp", addr, redis.DialPassword(password))
		},
	}

	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{pool: pool}, nil
}

// Incr implements Store. The first increment in a window sets the expiry;
// INCR and PEXPIRE are cheap enough that a round trip per request is fine
// at this site's volume.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("get redis conn: %w", err)
	}
	defer conn.Close()

	redisKey := "ratelimit:" + key
	count, err := redis.Int(conn.Do("INCR", redisKey))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("incr: %w", err)
	}
	if count == 1 {
		if _, err := conn.Do("PEXPIRE", redisKey, window.Milliseconds()); err != nil {
			return 0, time.Time{}, fmt.Errorf("pexpire: %w", err)
		}
	}

	ttl, err := redis.Int64(conn.Do("PTTL", redisKey))
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("pttl: %w", err)
	}
	if ttl < 0 {
		ttl = window.Milliseconds()
	}
	return count, time.Now().Add(time.Duration(ttl) * time.Millisecond), nil
}
