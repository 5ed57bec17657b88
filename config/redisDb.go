package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotObtained is returned by Lock when another holder owns the key.
var ErrLockNotObtained = errors.New("could not obtain lock")

// Redis bundles the cache client and the lock client built on it.
// A nil *Redis is valid: reads miss, writes are dropped and locks are no-ops.
type Redis struct {
	rdb    *redis.Client
	locker *redislock.Client
}

func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		return nil
	}
	return &Redis{rdb: client, locker: redislock.New(client)}
}

// ConnectRedisWithRetry pings addr until it answers, ctx is done or the attempts run out.
func ConnectRedisWithRetry(ctx context.Context, addr string) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("REDIS_ADDRESS is required")
	}
	var (
		attempt int
		lastErr error
	)
	for attempt < maxConnectAttempts {
		attempt++
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: "",
			DB:       0,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err == nil {
			log.Printf("connected to redis (attempt=%d addr=%s)", attempt, addr)
			return NewRedis(rdb), nil
		} else {
			lastErr = err
			_ = rdb.Close()
		}
		sleep := backoff(attempt)
		log.Printf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, addr, lastErr, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, fmt.Errorf("connect redis after %d attempts: %w", attempt, lastErr)
}

func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.rdb
}

func (r *Redis) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	if r == nil || r.rdb == nil {
		return false, nil
	}
	val, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetObject(ctx context.Context, key string, obj any, exp time.Duration) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	objInByte, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key, objInByte, exp).Err()
}

func (r *Redis) RemoveKey(ctx context.Context, keys ...string) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// Lock obtains a short-lived lock on key. The returned release func is never nil.
func (r *Redis) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if r == nil || r.locker == nil {
		return func() {}, nil
	}
	lock, err := r.locker.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, ErrLockNotObtained
	}
	if err != nil {
		return func() {}, err
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			log.Printf("failed to release redis lock %s: %v", key, releaseErr)
		}
	}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}
