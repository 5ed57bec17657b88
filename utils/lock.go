package utils

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const lockTTL = 30 * time.Second

// Locker hands out named locks. The release func must be safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// WithLock runs fn while holding key. Locking is best-effort: when the lock
// cannot be obtained a warning is logged and fn still runs.
func WithLock(ctx context.Context, locker Locker, logger *logrus.Logger, key string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	release, err := locker.Lock(ctx, key, lockTTL)
	if err != nil {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"field": "lock",
				"key":   key,
			}).Warn("could not obtain lock; proceeding without lock: " + err.Error())
		}
		return fn()
	}
	defer release()
	return fn()
}
